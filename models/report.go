package models

import (
	"time"
)

// Report 月度报表（物化视图）
// 每个 (user, wallet, year, month) 唯一一份，由交易增量在事务内折叠维护，
// 热路径上从不全量重算。随时满足：
// 报表各项总和 == 该月该钱包全部未删除交易的折叠结果
type Report struct {
	ID           uint             `json:"id" gorm:"primaryKey"`
	UserID       uint             `json:"user_id" gorm:"not null;uniqueIndex:idx_report_scope"`
	WalletID     uint             `json:"wallet_id" gorm:"not null;uniqueIndex:idx_report_scope"`
	Year         int              `json:"year" gorm:"not null;uniqueIndex:idx_report_scope"`
	Month        int              `json:"month" gorm:"not null;uniqueIndex:idx_report_scope"` // 1-12
	TotalIncome  float64          `json:"total_income" gorm:"type:decimal(14,2);not null;default:0"`
	TotalExpense float64          `json:"total_expense" gorm:"type:decimal(14,2);not null;default:0"`
	Balance      float64          `json:"balance" gorm:"type:decimal(14,2);not null;default:0"` // = TotalIncome - TotalExpense
	CategoryData []ReportCategory `json:"category_data" gorm:"foreignKey:ReportID"`
	DailyData    []ReportDaily    `json:"daily_data" gorm:"foreignKey:ReportID"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// TableName 设置表名
func (Report) TableName() string {
	return "reports"
}

// ReportCategory 报表内按类别的累计项
// CategoryName/Icon 为首次写入时的快照，类别改名不回填（可接受的陈旧）
type ReportCategory struct {
	ID            uint    `json:"id" gorm:"primaryKey"`
	ReportID      uint    `json:"-" gorm:"not null;uniqueIndex:idx_report_category"`
	CategoryID    uint    `json:"category_id" gorm:"not null;uniqueIndex:idx_report_category"`
	CategoryName  string  `json:"category_name" gorm:"size:50;not null"`
	Icon          string  `json:"icon" gorm:"size:20"`
	IncomeAmount  float64 `json:"income_amount" gorm:"type:decimal(14,2);not null;default:0"`
	ExpenseAmount float64 `json:"expense_amount" gorm:"type:decimal(14,2);not null;default:0"`
}

// TableName 设置表名
func (ReportCategory) TableName() string {
	return "report_categories"
}

// ReportDaily 报表内按日的累计项，报表创建时预建 1..31 桶
type ReportDaily struct {
	ID            uint    `json:"id" gorm:"primaryKey"`
	ReportID      uint    `json:"-" gorm:"not null;uniqueIndex:idx_report_daily"`
	Day           int     `json:"day" gorm:"not null;uniqueIndex:idx_report_daily"` // 1-31
	IncomeAmount  float64 `json:"income_amount" gorm:"type:decimal(14,2);not null;default:0"`
	ExpenseAmount float64 `json:"expense_amount" gorm:"type:decimal(14,2);not null;default:0"`
}

// TableName 设置表名
func (ReportDaily) TableName() string {
	return "report_dailies"
}
