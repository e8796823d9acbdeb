package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportHandler_Monthly(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `reports`").
		WithArgs(1, 2, 2026, 3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "wallet_id", "year", "month", "total_income", "total_expense", "balance", "created_at", "updated_at"}).
			AddRow(7, 1, 2, 2026, 3, 1000, 250, 750, time.Now(), time.Now()))
	mock.ExpectQuery("SELECT .* FROM `report_categories`").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "report_id", "category_id", "category_name", "icon", "income_amount", "expense_amount"}).
			AddRow(9, 7, 5, "Food", "🍜", 0, 250))
	mock.ExpectQuery("SELECT .* FROM `report_dailies`").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "report_id", "day", "income_amount", "expense_amount"}).
			AddRow(30, 7, 10, 0, 250))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/reports/monthly", NewReportHandler().Monthly)

	req := httptest.NewRequest("GET", "/reports/monthly?wallet_id=2&year=2026&month=3", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp struct {
		Data struct {
			TotalIncome  float64                  `json:"total_income"`
			TotalExpense float64                  `json:"total_expense"`
			Balance      float64                  `json:"balance"`
			CategoryData []map[string]interface{} `json:"category_data"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1000.0, resp.Data.TotalIncome)
	assert.Equal(t, 250.0, resp.Data.TotalExpense)
	assert.Equal(t, 750.0, resp.Data.Balance)
	require.Len(t, resp.Data.CategoryData, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportHandler_Monthly_EmptyPeriod(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `reports`").
		WithArgs(1, 2, 2026, 5).
		WillReturnRows(sqlmock.NewRows([]string{}))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/reports/monthly", NewReportHandler().Monthly)

	req := httptest.NewRequest("GET", "/reports/monthly?wallet_id=2&year=2026&month=5", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp struct {
		Data struct {
			TotalIncome  float64 `json:"total_income"`
			TotalExpense float64 `json:"total_expense"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Zero(t, resp.Data.TotalIncome)
	assert.Zero(t, resp.Data.TotalExpense)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportHandler_Monthly_InvalidMonth(t *testing.T) {
	_, cleanup := setupMockDB(t)
	defer cleanup()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/reports/monthly", NewReportHandler().Monthly)

	req := httptest.NewRequest("GET", "/reports/monthly?wallet_id=2&year=2026&month=13", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 400, w.Code)
}

func TestReportHandler_Daily(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `reports`").
		WithArgs(1, 2, 2026, 3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "wallet_id", "year", "month", "total_income", "total_expense", "balance", "created_at", "updated_at"}).
			AddRow(7, 1, 2, 2026, 3, 1000, 250, 750, time.Now(), time.Now()))
	mock.ExpectQuery("SELECT .* FROM `report_dailies`").
		WithArgs(7, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "report_id", "day", "income_amount", "expense_amount"}).
			AddRow(30, 7, 10, 100, 45.5))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/reports/daily", NewReportHandler().Daily)

	req := httptest.NewRequest("GET", "/reports/daily?wallet_id=2&date=2026-03-10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp struct {
		Data struct {
			Date          string  `json:"date"`
			IncomeAmount  float64 `json:"income_amount"`
			ExpenseAmount float64 `json:"expense_amount"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2026-03-10", resp.Data.Date)
	assert.Equal(t, 100.0, resp.Data.IncomeAmount)
	assert.Equal(t, 45.5, resp.Data.ExpenseAmount)
	require.NoError(t, mock.ExpectationsWereMet())
}
