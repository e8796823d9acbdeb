package models

import (
	"time"

	"gorm.io/gorm"
)

// 交易类型
const (
	TransactionTypeIncome  = "income"
	TransactionTypeExpense = "expense"
)

// DefaultTransactionIcon 未指定图标时的默认图标
const DefaultTransactionIcon = "💰"

// IsValidTransactionType 校验交易类型
func IsValidTransactionType(t string) bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// Transaction 交易记录模型
// 金额始终存为非负数，方向由 Type 决定
// CategoryID 为稳定关联，CategoryName 仅作展示冗余（类别改名不影响历史关联）
type Transaction struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	UserID       uint           `json:"user_id" gorm:"index;not null"`
	WalletID     uint           `json:"wallet_id" gorm:"index;not null"`
	CategoryID   uint           `json:"category_id" gorm:"index;not null"`
	CategoryName string         `json:"category_name" gorm:"size:50;not null"`
	Amount       float64        `json:"amount" gorm:"type:decimal(14,2);not null"`
	Type         string         `json:"type" gorm:"size:10;not null;index"` // income / expense
	Notes        string         `json:"notes" gorm:"size:255"`
	Icon         string         `json:"icon" gorm:"size:20;default:💰"`
	Date         time.Time      `json:"date" gorm:"not null;index"` // 交易发生时间，区别于创建时间
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
	User         User           `json:"-" gorm:"foreignKey:UserID"`
	Wallet       Wallet         `json:"-" gorm:"foreignKey:WalletID"`
}

// TableName 设置表名
func (Transaction) TableName() string {
	return "transactions"
}

// SignedAmount 返回带符号的金额增量：收入为正，支出为负
func (t *Transaction) SignedAmount() float64 {
	if t.Type == TransactionTypeExpense {
		return -t.Amount
	}
	return t.Amount
}
