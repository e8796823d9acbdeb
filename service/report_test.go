package service

import (
	"testing"
	"time"

	"mina/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func reportRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "wallet_id", "year", "month",
		"total_income", "total_expense", "balance",
		"created_at", "updated_at",
	})
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 31, daysInMonth(2026, time.January))
	assert.Equal(t, 28, daysInMonth(2026, time.February))
	assert.Equal(t, 29, daysInMonth(2024, time.February)) // 闰年
	assert.Equal(t, 30, daysInMonth(2026, time.April))
}

func TestReportService_Fold_CreatesReportAndDailyBuckets(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	// 期间报表不存在：创建零值报表和 31 个日桶
	mock.ExpectQuery("SELECT .* FROM `reports` .*FOR UPDATE").
		WithArgs(1, 2, 2026, 3).
		WillReturnRows(reportRows())
	mock.ExpectExec("INSERT INTO `reports`").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO `report_dailies`").
		WillReturnResult(sqlmock.NewResult(1, 31))
	mock.ExpectExec("UPDATE `reports` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// 类别项首次出现：缓存名称与图标快照
	mock.ExpectQuery("SELECT .* FROM `report_categories`").
		WithArgs(7, 5).
		WillReturnRows(sqlmock.NewRows([]string{}))
	mock.ExpectExec("INSERT INTO `report_categories`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE `report_dailies` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	reports := NewReportService(db)
	category := &models.Category{ID: 5, Name: "Food"}
	err := db.Transaction(func(tx *gorm.DB) error {
		return reports.Fold(tx, 1, 2, category, time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local), 50, models.TransactionTypeExpense)
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportService_Fold_ExistingReportAccumulates(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM `reports` .*FOR UPDATE").
		WithArgs(1, 2, 2026, 3).
		WillReturnRows(reportRows().
			AddRow(7, 1, 2, 2026, 3, 1000, 200, 800, time.Now(), time.Now()))
	mock.ExpectExec("UPDATE `reports` SET").
		WithArgs(750.0, 250.0, 1000.0, sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT .* FROM `report_categories`").
		WithArgs(7, 5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "report_id", "category_id", "category_name", "icon", "income_amount", "expense_amount"}).
			AddRow(9, 7, 5, "Food", "🍜", 0, 200))
	mock.ExpectExec("UPDATE `report_categories` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `report_dailies` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	reports := NewReportService(db)
	category := &models.Category{ID: 5, Name: "Food"}
	err := db.Transaction(func(tx *gorm.DB) error {
		return reports.Fold(tx, 1, 2, category, time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local), 50, models.TransactionTypeExpense)
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportService_Monthly_MissingReturnsZeroReport(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `reports`").
		WithArgs(1, 2, 2026, 5).
		WillReturnRows(reportRows())

	report, err := NewReportService(db).Monthly(1, 2, 2026, 5)
	require.NoError(t, err)
	assert.Equal(t, 2026, report.Year)
	assert.Equal(t, 5, report.Month)
	assert.Zero(t, report.TotalIncome)
	assert.Zero(t, report.TotalExpense)
	assert.Zero(t, report.Balance)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportService_Daily_ProjectsFromMonthlyBucket(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `reports`").
		WithArgs(1, 2, 2026, 3).
		WillReturnRows(reportRows().
			AddRow(7, 1, 2, 2026, 3, 1000, 200, 800, time.Now(), time.Now()))
	mock.ExpectQuery("SELECT .* FROM `report_dailies`").
		WithArgs(7, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "report_id", "day", "income_amount", "expense_amount"}).
			AddRow(30, 7, 10, 100, 45.5))

	entry, err := NewReportService(db).Daily(1, 2, time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	assert.Equal(t, "2026-03-10", entry.Date)
	assert.Equal(t, 100.0, entry.IncomeAmount)
	assert.Equal(t, 45.5, entry.ExpenseAmount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReportService_Yearly_MergesTwelveMonths(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .* FROM `reports`").
		WithArgs(1, 2, 2026).
		WillReturnRows(reportRows().
			AddRow(7, 1, 2, 2026, 1, 1000, 300, 700, time.Now(), time.Now()).
			AddRow(8, 1, 2, 2026, 3, 500, 100, 400, time.Now(), time.Now()))

	yearly, err := NewReportService(db).Yearly(1, 2, 2026)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, yearly.TotalIncome)
	assert.Equal(t, 400.0, yearly.TotalExpense)
	assert.Equal(t, 1100.0, yearly.Balance)
	require.Len(t, yearly.MonthlyData, 12)
	assert.Equal(t, 1000.0, yearly.MonthlyData[0].IncomeAmount)
	assert.Zero(t, yearly.MonthlyData[1].IncomeAmount) // 二月无数据
	assert.Equal(t, 500.0, yearly.MonthlyData[2].IncomeAmount)
	require.NoError(t, mock.ExpectationsWereMet())
}
