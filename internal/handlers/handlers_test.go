package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/edupay/edupay-api/internal/services"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "validation error maps to 422 with field",
			err:            services.NewValidationError("amount", "must be greater than zero"),
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"field":"amount"`,
		},
		{
			name:           "not found maps to 404",
			err:            services.ErrNotFound,
			expectedStatus: http.StatusNotFound,
			expectedBody:   "Record not found",
		},
		{
			name:           "gorm record not found maps to 404",
			err:            gorm.ErrRecordNotFound,
			expectedStatus: http.StatusNotFound,
			expectedBody:   "Record not found",
		},
		{
			name:           "conflict maps to 409",
			err:            services.ErrConflict,
			expectedStatus: http.StatusConflict,
			expectedBody:   "modified by another request",
		},
		{
			name:           "invalid state maps to 422",
			err:            services.ErrInvalidState,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   "invalid state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest("GET", "/test", nil)

			respondError(c, tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestRespondErrorDoesNotLeakInternalDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/students", nil)

	respondError(c, errors.New(`pq: connection to "db-prod-internal:5432" refused`))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
	assert.NotContains(t, w.Body.String(), "db-prod-internal")
}
