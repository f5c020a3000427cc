package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/edupay/edupay-api/internal/models"
)

// InstallmentFSM wraps an installment with its state machine.
//
// The transition table is closed: any transition not listed here is
// rejected, which keeps the day-based ladder (pending → due_soon →
// overdue) forward-only and makes regression from paid/cancelled
// impossible by construction.
type InstallmentFSM struct {
	installment *models.Installment
	fsm         *fsm.FSM
}

// NewInstallmentFSM creates a state machine seeded with the installment's current status
func NewInstallmentFSM(installment *models.Installment) *InstallmentFSM {
	ifsm := &InstallmentFSM{
		installment: installment,
	}

	ifsm.fsm = fsm.NewFSM(
		installment.Status,
		fsm.Events{
			// draft → pending when the plan is confirmed
			{Name: "confirm", Src: []string{models.InstallmentStatusDraft}, Dst: models.InstallmentStatusPending},

			// pending → due_soon inside the early-warning window
			{Name: "mark_due_soon", Src: []string{models.InstallmentStatusPending}, Dst: models.InstallmentStatusDueSoon},

			// pending/due_soon → overdue past the cutoff
			{Name: "mark_overdue", Src: []string{models.InstallmentStatusPending, models.InstallmentStatusDueSoon}, Dst: models.InstallmentStatusOverdue},

			// any payable state → partial on an under-balance payment
			{Name: "record_partial", Src: []string{models.InstallmentStatusPending, models.InstallmentStatusDueSoon, models.InstallmentStatusOverdue, models.InstallmentStatusPartial}, Dst: models.InstallmentStatusPartial},

			// any payable state → paid when the balance reaches zero
			{Name: "record_paid", Src: []string{models.InstallmentStatusPending, models.InstallmentStatusDueSoon, models.InstallmentStatusOverdue, models.InstallmentStatusPartial}, Dst: models.InstallmentStatusPaid},

			// any non-terminal state → cancelled
			{Name: "cancel", Src: []string{models.InstallmentStatusDraft, models.InstallmentStatusPending, models.InstallmentStatusDueSoon, models.InstallmentStatusOverdue, models.InstallmentStatusPartial}, Dst: models.InstallmentStatusCancelled},
		},
		fsm.Callbacks{},
	)

	return ifsm
}

// Confirm transitions the installment from draft to pending
func (m *InstallmentFSM) Confirm(ctx context.Context) error {
	return m.fire(ctx, "confirm")
}

// MarkDueSoon transitions the installment to due_soon
func (m *InstallmentFSM) MarkDueSoon(ctx context.Context) error {
	return m.fire(ctx, "mark_due_soon")
}

// MarkOverdue transitions the installment to overdue
func (m *InstallmentFSM) MarkOverdue(ctx context.Context) error {
	return m.fire(ctx, "mark_overdue")
}

// RecordPartial transitions the installment to partial
func (m *InstallmentFSM) RecordPartial(ctx context.Context) error {
	if !m.installment.MayRecordPayment() {
		return fmt.Errorf("payment cannot be recorded in current state: %s", m.installment.Status)
	}
	return m.fire(ctx, "record_partial")
}

// RecordPaid transitions the installment to paid
func (m *InstallmentFSM) RecordPaid(ctx context.Context) error {
	if !m.installment.MayRecordPayment() {
		return fmt.Errorf("payment cannot be recorded in current state: %s", m.installment.Status)
	}
	return m.fire(ctx, "record_paid")
}

// Cancel transitions the installment to cancelled
func (m *InstallmentFSM) Cancel(ctx context.Context) error {
	if !m.installment.MayCancel() {
		return fmt.Errorf("installment cannot be cancelled in current state: %s", m.installment.Status)
	}
	return m.fire(ctx, "cancel")
}

// Current returns the current state
func (m *InstallmentFSM) Current() string {
	return m.fsm.Current()
}

// Can checks if a transition is possible
func (m *InstallmentFSM) Can(event string) bool {
	return m.fsm.Can(event)
}

func (m *InstallmentFSM) fire(ctx context.Context, event string) error {
	if err := m.fsm.Event(ctx, event); err != nil {
		return fmt.Errorf("installment transition %q from %s: %w", event, m.installment.Status, err)
	}
	m.installment.Status = m.fsm.Current()
	return nil
}
