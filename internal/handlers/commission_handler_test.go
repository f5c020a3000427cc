package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupay/edupay-api/internal/services"
)

func TestCommissionHandler_Estimate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCommissionHandler(services.NewCommissionService())

	tests := []struct {
		name               string
		payload            map[string]interface{}
		expectedStatus     int
		expectedCommission string
	}{
		{
			name: "GST inclusive estimate",
			payload: map[string]interface{}{
				"total_course_value":      "10000",
				"materials_cost":          "500",
				"admin_fees":              "200",
				"other_fees":              "100",
				"commission_rate_percent": "15",
				"gst_inclusive":           true,
			},
			expectedStatus:     http.StatusOK,
			expectedCommission: "1380",
		},
		{
			name: "GST defaults to inclusive when omitted",
			payload: map[string]interface{}{
				"total_course_value":      "1000",
				"commission_rate_percent": "10",
			},
			expectedStatus:     http.StatusOK,
			expectedCommission: "100",
		},
		{
			name: "fees exceeding the total are rejected",
			payload: map[string]interface{}{
				"total_course_value":      "1000",
				"materials_cost":          "1200",
				"commission_rate_percent": "15",
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			jsonBytes, _ := json.Marshal(tt.payload)
			c.Request = httptest.NewRequest("POST", "/commission/estimate", bytes.NewBuffer(jsonBytes))
			c.Request.Header.Set("Content-Type", "application/json")

			handler.Estimate(c)
			require.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusOK {
				var resp services.CommissionResult
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, tt.expectedCommission, resp.ExpectedCommission.String())
			}
		})
	}
}
