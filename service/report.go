package service

import (
	"errors"
	"time"

	"mina/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReportService 报表聚合器
// 写路径只做增量折叠（Fold），从不扫描交易历史；
// 读路径是物化视图上的投影（日/周/月/年）
type ReportService struct {
	db *gorm.DB
}

// NewReportService 创建报表服务
func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// daysInMonth 返回指定年月的实际天数
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.Local).Day()
}

// Fold 在调用方的事务内，把一笔带符号的金额增量折叠进对应期间的报表
// amount 为正表示施加效果，为负表示回退效果；方向语义由 transactionType 决定
// 期间由交易发生时间决定（而非创建时间），报表不存在时惰性创建
func (s *ReportService) Fold(tx *gorm.DB, userID, walletID uint, category *models.Category, date time.Time, amount float64, transactionType string) error {
	year, month, day := date.Year(), date.Month(), date.Day()
	// 日桶固定建 1..31，折叠时仍按真实月长校验，拦截畸形输入
	if day < 1 || day > daysInMonth(year, month) {
		return ErrInvalidInput
	}

	report, err := s.lockOrCreateReport(tx, userID, walletID, year, int(month))
	if err != nil {
		return err
	}

	// 累加总额并重算余额
	if transactionType == models.TransactionTypeIncome {
		report.TotalIncome += amount
	} else {
		report.TotalExpense += amount
	}
	report.Balance = report.TotalIncome - report.TotalExpense
	if err := tx.Model(&models.Report{}).Where("id = ?", report.ID).Updates(map[string]interface{}{
		"total_income":  report.TotalIncome,
		"total_expense": report.TotalExpense,
		"balance":       report.Balance,
	}).Error; err != nil {
		return err
	}

	if err := s.foldCategory(tx, report.ID, category, amount, transactionType); err != nil {
		return err
	}
	return s.foldDaily(tx, report.ID, day, amount, transactionType)
}

// lockOrCreateReport 加行锁读取期间报表，不存在时创建零值报表和整套日桶
func (s *ReportService) lockOrCreateReport(tx *gorm.DB, userID, walletID uint, year, month int) (*models.Report, error) {
	var report models.Report
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND wallet_id = ? AND year = ? AND month = ?", userID, walletID, year, month).
		First(&report).Error
	if err == nil {
		return &report, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	report = models.Report{
		UserID:   userID,
		WalletID: walletID,
		Year:     year,
		Month:    month,
	}
	if err := tx.Create(&report).Error; err != nil {
		return nil, err
	}

	dailies := make([]models.ReportDaily, 0, 31)
	for d := 1; d <= 31; d++ {
		dailies = append(dailies, models.ReportDaily{ReportID: report.ID, Day: d})
	}
	if err := tx.Create(&dailies).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// foldCategory 累加类别项，首次出现时缓存类别名称与图标快照
func (s *ReportService) foldCategory(tx *gorm.DB, reportID uint, category *models.Category, amount float64, transactionType string) error {
	column := "expense_amount"
	if transactionType == models.TransactionTypeIncome {
		column = "income_amount"
	}

	var entry models.ReportCategory
	err := tx.Where("report_id = ? AND category_id = ?", reportID, category.ID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		entry = models.ReportCategory{
			ReportID:     reportID,
			CategoryID:   category.ID,
			CategoryName: category.Name,
			Icon:         category.FirstIcon(),
		}
		if transactionType == models.TransactionTypeIncome {
			entry.IncomeAmount = amount
		} else {
			entry.ExpenseAmount = amount
		}
		return tx.Create(&entry).Error
	}
	if err != nil {
		return err
	}

	return tx.Model(&models.ReportCategory{}).
		Where("id = ?", entry.ID).
		Update(column, gorm.Expr(column+" + ?", amount)).Error
}

// foldDaily 累加日桶
func (s *ReportService) foldDaily(tx *gorm.DB, reportID uint, day int, amount float64, transactionType string) error {
	column := "expense_amount"
	if transactionType == models.TransactionTypeIncome {
		column = "income_amount"
	}
	return tx.Model(&models.ReportDaily{}).
		Where("report_id = ? AND day = ?", reportID, day).
		Update(column, gorm.Expr(column+" + ?", amount)).Error
}

// Monthly 读取月度报表；期间没有任何交易时返回零值报表
func (s *ReportService) Monthly(userID, walletID uint, year, month int) (*models.Report, error) {
	var report models.Report
	err := s.db.Preload("CategoryData").
		Preload("DailyData", func(db *gorm.DB) *gorm.DB {
			return db.Order("day ASC")
		}).
		Where("user_id = ? AND wallet_id = ? AND year = ? AND month = ?", userID, walletID, year, month).
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Report{
			UserID:   userID,
			WalletID: walletID,
			Year:     year,
			Month:    month,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// DailyEntry 日报投影
type DailyEntry struct {
	Date          string  `json:"date"`
	IncomeAmount  float64 `json:"income_amount"`
	ExpenseAmount float64 `json:"expense_amount"`
}

// Daily 读取某天的收支投影（来自月报的日桶，而非交易扫描）
func (s *ReportService) Daily(userID, walletID uint, date time.Time) (*DailyEntry, error) {
	entry := &DailyEntry{Date: date.Format("2006-01-02")}

	var report models.Report
	err := s.db.Where("user_id = ? AND wallet_id = ? AND year = ? AND month = ?",
		userID, walletID, date.Year(), int(date.Month())).
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entry, nil
	}
	if err != nil {
		return nil, err
	}

	var daily models.ReportDaily
	err = s.db.Where("report_id = ? AND day = ?", report.ID, date.Day()).First(&daily).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entry, nil
	}
	if err != nil {
		return nil, err
	}

	entry.IncomeAmount = daily.IncomeAmount
	entry.ExpenseAmount = daily.ExpenseAmount
	return entry, nil
}

// WeeklyReport 周报投影（可能跨月）
type WeeklyReport struct {
	StartDate    string       `json:"start_date"`
	EndDate      string       `json:"end_date"`
	TotalIncome  float64      `json:"total_income"`
	TotalExpense float64      `json:"total_expense"`
	Balance      float64      `json:"balance"`
	DailyData    []DailyEntry `json:"daily_data"`
}

// Weekly 读取自 start 起 7 天的收支投影，跨月时合并两个月报的日桶
func (s *ReportService) Weekly(userID, walletID uint, start time.Time) (*WeeklyReport, error) {
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.Local)
	end := start.AddDate(0, 0, 6)

	weekly := &WeeklyReport{
		StartDate: start.Format("2006-01-02"),
		EndDate:   end.Format("2006-01-02"),
	}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		entry, err := s.Daily(userID, walletID, d)
		if err != nil {
			return nil, err
		}
		weekly.DailyData = append(weekly.DailyData, *entry)
		weekly.TotalIncome += entry.IncomeAmount
		weekly.TotalExpense += entry.ExpenseAmount
	}
	weekly.Balance = weekly.TotalIncome - weekly.TotalExpense
	return weekly, nil
}

// YearlyReport 年报投影
type YearlyReport struct {
	Year         int            `json:"year"`
	TotalIncome  float64        `json:"total_income"`
	TotalExpense float64        `json:"total_expense"`
	Balance      float64        `json:"balance"`
	MonthlyData  []MonthlyEntry `json:"monthly_data"`
}

// MonthlyEntry 年报中的单月汇总
type MonthlyEntry struct {
	Month         int     `json:"month"`
	IncomeAmount  float64 `json:"income_amount"`
	ExpenseAmount float64 `json:"expense_amount"`
}

// Yearly 汇总 12 个月报
func (s *ReportService) Yearly(userID, walletID uint, year int) (*YearlyReport, error) {
	var reports []models.Report
	if err := s.db.Where("user_id = ? AND wallet_id = ? AND year = ?", userID, walletID, year).
		Order("month ASC").
		Find(&reports).Error; err != nil {
		return nil, err
	}

	yearly := &YearlyReport{Year: year}
	byMonth := make(map[int]models.Report, len(reports))
	for _, r := range reports {
		byMonth[r.Month] = r
	}
	for m := 1; m <= 12; m++ {
		entry := MonthlyEntry{Month: m}
		if r, ok := byMonth[m]; ok {
			entry.IncomeAmount = r.TotalIncome
			entry.ExpenseAmount = r.TotalExpense
			yearly.TotalIncome += r.TotalIncome
			yearly.TotalExpense += r.TotalExpense
		}
		yearly.MonthlyData = append(yearly.MonthlyData, entry)
	}
	yearly.Balance = yearly.TotalIncome - yearly.TotalExpense
	return yearly, nil
}
