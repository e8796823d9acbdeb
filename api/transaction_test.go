package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectCategoryByName(mock sqlmock.Sqlmock, name string, categoryID int) {
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WithArgs(name, 1, true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "is_default", "created_at", "updated_at", "deleted_at"}).
			AddRow(categoryID, nil, name, true, time.Now(), time.Now(), nil))
	mock.ExpectQuery("SELECT .* FROM `category_icons`").
		WithArgs(categoryID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "category_id", "icon_path", "color", "sort"}))
}

func walletRow(id, userID uint, balance, limit float64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "name", "description", "currency",
		"balance", "monthly_limit", "is_default",
		"created_at", "updated_at", "deleted_at",
	}).AddRow(id, userID, "Cash", "", "VND", balance, limit, true, time.Now(), time.Now(), nil)
}

func TestTransactionHandler_Create(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	expectCategoryByName(mock, "Food", 5)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `wallets` .*FOR UPDATE").
		WithArgs(2, 1).
		WillReturnRows(walletRow(2, 1, 1000, 0))
	mock.ExpectExec("INSERT INTO `transactions`").
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec("UPDATE `wallets` SET `balance`=balance").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT .* FROM `reports` .*FOR UPDATE").
		WithArgs(1, 2, 2026, 3).
		WillReturnRows(sqlmock.NewRows([]string{}))
	mock.ExpectExec("INSERT INTO `reports`").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO `report_dailies`").
		WillReturnResult(sqlmock.NewResult(1, 31))
	mock.ExpectExec("UPDATE `reports` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT .* FROM `report_categories`").
		WithArgs(7, 5).
		WillReturnRows(sqlmock.NewRows([]string{}))
	mock.ExpectExec("INSERT INTO `report_categories`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE `report_dailies` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/transactions", NewTransactionHandler().Create)

	body := `{"wallet_id":2,"amount":50,"type":"expense","category":"Food","notes":"午餐","date":"2026-03-10 12:30:00"}`
	req := httptest.NewRequest("POST", "/transactions", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "创建成功", resp["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionHandler_Create_InsufficientFunds(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	expectCategoryByName(mock, "Food", 5)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `wallets` .*FOR UPDATE").
		WithArgs(2, 1).
		WillReturnRows(walletRow(2, 1, 100, 0))
	mock.ExpectRollback()

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/transactions", NewTransactionHandler().Create)

	body := `{"wallet_id":2,"amount":700,"type":"expense","category":"Food","date":"2026-03-10 12:00:00"}`
	req := httptest.NewRequest("POST", "/transactions", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 409, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "钱包余额不足", resp["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionHandler_Create_NeedsCategoryConfirm(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	// 类别未命中：返回建议集合，不发生任何写入
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WithArgs("Lunch", 1, true).
		WillReturnRows(sqlmock.NewRows([]string{}))
	mock.ExpectQuery("SELECT .* FROM `categories`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "is_default", "created_at", "updated_at", "deleted_at"}).
			AddRow(5, nil, "Food", true, time.Now(), time.Now(), nil))
	mock.ExpectQuery("SELECT .* FROM `category_icons`").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "category_id", "icon_path", "color", "sort"}))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.POST("/transactions", NewTransactionHandler().Create)

	body := `{"wallet_id":2,"amount":50,"type":"expense","category":"Lunch","date":"2026-03-10 12:00:00"}`
	req := httptest.NewRequest("POST", "/transactions", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp struct {
		Data struct {
			NeedsCategoryConfirm bool                     `json:"needs_category_confirm"`
			RequestedName        string                   `json:"requested_name"`
			Suggestions          []map[string]interface{} `json:"suggestions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.NeedsCategoryConfirm)
	assert.Equal(t, "Lunch", resp.Data.RequestedName)
	require.Len(t, resp.Data.Suggestions, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionHandler_List(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `transactions`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT .* FROM `transactions`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "wallet_id", "category_id", "category_name", "amount", "type", "notes", "icon", "date", "created_at", "updated_at", "deleted_at"}).
			AddRow(2, 1, 2, 5, "Food", 30, "expense", "", "💰", time.Now(), time.Now(), time.Now(), nil).
			AddRow(1, 1, 2, 6, "Salary", 1000, "income", "", "💰", time.Now(), time.Now(), time.Now(), nil))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.GET("/transactions", NewTransactionHandler().List)

	req := httptest.NewRequest("GET", "/transactions?page=1&page_size=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	var resp struct {
		Data struct {
			Total int64                    `json:"total"`
			List  []map[string]interface{} `json:"list"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(2), resp.Data.Total)
	require.Len(t, resp.Data.List, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionHandler_Delete_NotFound(t *testing.T) {
	mock, cleanup := setupMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `transactions`").
		WithArgs(99, 1).
		WillReturnRows(sqlmock.NewRows([]string{}))

	router := gin.New()
	router.Use(setUserIDMiddleware(1))
	router.DELETE("/transactions/:id", NewTransactionHandler().Delete)

	req := httptest.NewRequest("DELETE", "/transactions/99", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 404, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
