package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/edupay/edupay-api/internal/models"
	"github.com/edupay/edupay-api/internal/repository"
)

const fivePM = 17 * 3600

func clock(h, m int) int {
	return h*3600 + m*60
}

func TestClassifyStatus(t *testing.T) {
	today := day(2026, time.August, 26)

	tests := []struct {
		name        string
		dueDate     time.Time
		nowSecs     int
		dueSoonDays int
		expected    string
	}{
		{
			name:        "past due date is overdue regardless of clock",
			dueDate:     day(2026, time.August, 25),
			nowSecs:     clock(8, 0),
			dueSoonDays: 4,
			expected:    models.InstallmentStatusOverdue,
		},
		{
			name:        "long past due date is overdue",
			dueDate:     day(2026, time.July, 1),
			nowSecs:     clock(0, 1),
			dueSoonDays: 4,
			expected:    models.InstallmentStatusOverdue,
		},
		{
			name:        "due today before the cutoff stays due_soon",
			dueDate:     day(2026, time.August, 26),
			nowSecs:     clock(9, 0),
			dueSoonDays: 4,
			expected:    models.InstallmentStatusDueSoon,
		},
		{
			name:        "due today at the exact cutoff second stays due_soon",
			dueDate:     day(2026, time.August, 26),
			nowSecs:     fivePM,
			dueSoonDays: 4,
			expected:    models.InstallmentStatusDueSoon,
		},
		{
			name:        "due today one second past the cutoff is overdue",
			dueDate:     day(2026, time.August, 26),
			nowSecs:     fivePM + 1,
			dueSoonDays: 4,
			expected:    models.InstallmentStatusOverdue,
		},
		{
			name:        "due today after the cutoff is overdue",
			dueDate:     day(2026, time.August, 26),
			nowSecs:     clock(18, 0),
			dueSoonDays: 4,
			expected:    models.InstallmentStatusOverdue,
		},
		{
			name:        "due tomorrow is due_soon",
			dueDate:     day(2026, time.August, 27),
			nowSecs:     clock(18, 0),
			dueSoonDays: 4,
			expected:    models.InstallmentStatusDueSoon,
		},
		{
			name:        "due at the edge of the window is due_soon",
			dueDate:     day(2026, time.August, 30),
			nowSecs:     clock(12, 0),
			dueSoonDays: 4,
			expected:    models.InstallmentStatusDueSoon,
		},
		{
			name:        "due just past the window stays pending",
			dueDate:     day(2026, time.August, 31),
			nowSecs:     clock(12, 0),
			dueSoonDays: 4,
			expected:    models.InstallmentStatusPending,
		},
		{
			name:        "narrow window keeps a three-day-out date pending",
			dueDate:     day(2026, time.August, 29),
			nowSecs:     clock(12, 0),
			dueSoonDays: 2,
			expected:    models.InstallmentStatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyStatus(tt.dueDate, today, tt.nowSecs, fivePM, tt.dueSoonDays)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestClassifyStatusNeverRegresses(t *testing.T) {
	// A due_soon installment whose window shrank classifies as pending,
	// but the rank guard keeps the sweep from moving it backwards.
	today := day(2026, time.August, 26)
	target := classifyStatus(day(2026, time.September, 10), today, clock(10, 0), fivePM, 4)

	assert.Equal(t, models.InstallmentStatusPending, target)
	assert.LessOrEqual(t, statusRank[target], statusRank[models.InstallmentStatusDueSoon])
}

func TestDaysBetween(t *testing.T) {
	assert.Equal(t, 0, daysBetween(day(2026, time.August, 26), day(2026, time.August, 26)))
	assert.Equal(t, 1, daysBetween(day(2026, time.August, 26), day(2026, time.August, 27)))
	assert.Equal(t, 4, daysBetween(day(2026, time.August, 26), day(2026, time.August, 30)))
	assert.Equal(t, -1, daysBetween(day(2026, time.August, 26), day(2026, time.August, 25)))

	// Across a DST transition in the agency's zone the count stays calendar-based
	sydney, err := time.LoadLocation("Australia/Sydney")
	require.NoError(t, err)
	before := time.Date(2026, time.October, 2, 0, 0, 0, 0, sydney)
	after := time.Date(2026, time.October, 6, 0, 0, 0, 0, sydney)
	assert.Equal(t, 4, daysBetween(before, after))
}

// Mock AgencyRepository
type mockAgencyRepository struct {
	repository.AgencyRepository
	mockFindAll  func(ctx context.Context) ([]models.Agency, error)
	mockFindByID func(ctx context.Context, id uint) (*models.Agency, error)
}

func (m *mockAgencyRepository) FindAll(ctx context.Context) ([]models.Agency, error) {
	return m.mockFindAll(ctx)
}

func (m *mockAgencyRepository) FindByID(ctx context.Context, id uint) (*models.Agency, error) {
	return m.mockFindByID(ctx, id)
}

// Mock InstallmentRepository
type mockInstallmentRepository struct {
	repository.InstallmentRepository
	mockFindSweepCandidates func(ctx context.Context, agencyID uint) ([]models.Installment, error)
	mockFindByID            func(ctx context.Context, agencyID, id uint) (*models.Installment, error)
}

func (m *mockInstallmentRepository) FindSweepCandidates(ctx context.Context, agencyID uint) ([]models.Installment, error) {
	return m.mockFindSweepCandidates(ctx, agencyID)
}

func (m *mockInstallmentRepository) FindByID(ctx context.Context, agencyID, id uint) (*models.Installment, error) {
	return m.mockFindByID(ctx, agencyID, id)
}

// Mock JobRunRepository
type mockJobRunRepository struct {
	repository.JobRunRepository
	created *models.JobRun
	updated *models.JobRun
}

func (m *mockJobRunRepository) Create(ctx context.Context, run *models.JobRun) error {
	run.ID = 42
	m.created = run
	return nil
}

func (m *mockJobRunRepository) Update(ctx context.Context, run *models.JobRun) error {
	m.updated = run
	return nil
}

func TestSweepService_RunDailySweep_AgencyIsolation(t *testing.T) {
	agencyRepo := &mockAgencyRepository{
		mockFindAll: func(ctx context.Context) ([]models.Agency, error) {
			return []models.Agency{
				{ID: 1, Timezone: "Australia/Brisbane", OverdueCutoffTime: "17:00:00", DueSoonThresholdDays: 4},
				{ID: 2, Timezone: "Not/AZone", OverdueCutoffTime: "17:00:00", DueSoonThresholdDays: 4},
			}, nil
		},
	}
	installmentRepo := &mockInstallmentRepository{
		mockFindSweepCandidates: func(ctx context.Context, agencyID uint) ([]models.Installment, error) {
			return nil, nil
		},
	}
	jobRunRepo := &mockJobRunRepository{}

	repos := &repository.Repositories{
		Agency:      agencyRepo,
		Installment: installmentRepo,
		JobRun:      jobRunRepo,
	}
	svc := NewSweepService(nil, repos, nil)

	summary, err := svc.RunDailySweep(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.AgenciesProcessed)
	assert.Equal(t, 1, summary.AgenciesFailed)
	assert.Equal(t, 0, summary.RecordsUpdated)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "agency 2")

	require.NotNil(t, jobRunRepo.created)
	require.NotNil(t, jobRunRepo.updated)
	assert.Equal(t, models.JobNameStatusSweep, jobRunRepo.created.JobName)
	assert.Equal(t, models.JobRunStatusCompleted, jobRunRepo.updated.Status)
	assert.Equal(t, 1, jobRunRepo.updated.AgenciesFailed)
	require.NotNil(t, jobRunRepo.updated.ErrorMessage)
	assert.NotNil(t, jobRunRepo.updated.CompletedAt)
}

func TestSweepService_RunDailySweep_ScopedToAgency(t *testing.T) {
	var requestedID uint
	agencyRepo := &mockAgencyRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Agency, error) {
			requestedID = id
			return &models.Agency{ID: id, Timezone: "Australia/Brisbane", OverdueCutoffTime: "17:00:00", DueSoonThresholdDays: 4}, nil
		},
	}
	var sweptAgency uint
	installmentRepo := &mockInstallmentRepository{
		mockFindSweepCandidates: func(ctx context.Context, agencyID uint) ([]models.Installment, error) {
			sweptAgency = agencyID
			return nil, nil
		},
	}
	jobRunRepo := &mockJobRunRepository{}

	repos := &repository.Repositories{
		Agency:      agencyRepo,
		Installment: installmentRepo,
		JobRun:      jobRunRepo,
	}
	svc := NewSweepService(nil, repos, nil)

	agencyID := uint(7)
	summary, err := svc.RunDailySweep(context.Background(), &agencyID)
	require.NoError(t, err)

	assert.Equal(t, uint(7), requestedID)
	assert.Equal(t, uint(7), sweptAgency)
	assert.Equal(t, 1, summary.AgenciesProcessed)
	assert.Equal(t, 0, summary.AgenciesFailed)
}

func TestSweepService_RunDailySweep_AlreadyClassifiedWritesNothing(t *testing.T) {
	agencyRepo := &mockAgencyRepository{
		mockFindAll: func(ctx context.Context) ([]models.Agency, error) {
			return []models.Agency{
				{ID: 1, Timezone: "Australia/Brisbane", OverdueCutoffTime: "17:00:00", DueSoonThresholdDays: 4},
			}, nil
		},
	}
	installmentRepo := &mockInstallmentRepository{
		mockFindSweepCandidates: func(ctx context.Context, agencyID uint) ([]models.Installment, error) {
			// A previous run already moved these to their target status
			return []models.Installment{
				{ID: 10, AgencyID: 1, Status: models.InstallmentStatusDueSoon, StudentDueDate: time.Now().AddDate(0, 0, 2)},
				{ID: 11, AgencyID: 1, Status: models.InstallmentStatusPending, StudentDueDate: time.Now().AddDate(0, 0, 30)},
			}, nil
		},
	}
	jobRunRepo := &mockJobRunRepository{}

	repos := &repository.Repositories{
		Agency:      agencyRepo,
		Installment: installmentRepo,
		JobRun:      jobRunRepo,
	}
	// nil db: any attempted transition would panic instead of silently writing
	svc := NewSweepService(nil, repos, nil)

	summary, err := svc.RunDailySweep(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.AgenciesProcessed)
	assert.Equal(t, 0, summary.AgenciesFailed)
	assert.Equal(t, 0, summary.RecordsUpdated)

	require.NotNil(t, jobRunRepo.updated)
	assert.Equal(t, models.JobRunStatusCompleted, jobRunRepo.updated.Status)
	assert.Equal(t, 0, jobRunRepo.updated.RecordsUpdated)
}

func TestSweepService_RunDailySweep_UnknownAgency(t *testing.T) {
	agencyRepo := &mockAgencyRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Agency, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	jobRunRepo := &mockJobRunRepository{}

	repos := &repository.Repositories{
		Agency: agencyRepo,
		JobRun: jobRunRepo,
	}
	svc := NewSweepService(nil, repos, nil)

	agencyID := uint(99)
	_, err := svc.RunDailySweep(context.Background(), &agencyID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NotNil(t, jobRunRepo.updated)
	assert.Equal(t, models.JobRunStatusFailed, jobRunRepo.updated.Status)
}
