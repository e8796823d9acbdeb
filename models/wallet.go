package models

import (
	"time"

	"gorm.io/gorm"
)

// Wallet 钱包模型
// 余额只允许通过账本事务内的增量更新修改，创建校验阶段保证不为负
type Wallet struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	UserID       uint           `json:"user_id" gorm:"index;not null"`
	Name         string         `json:"name" gorm:"size:50;not null"`
	Description  string         `json:"description" gorm:"size:255"`
	Currency     string         `json:"currency" gorm:"size:10;not null;default:VND"`
	Balance      float64        `json:"balance" gorm:"type:decimal(14,2);not null;default:0"`
	MonthlyLimit float64        `json:"monthly_limit" gorm:"type:decimal(14,2);not null;default:0"` // 0 表示不限制
	IsDefault    bool           `json:"is_default" gorm:"index;default:false"`                      // 每个用户有且仅有一个默认钱包
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
	User         User           `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Wallet) TableName() string {
	return "wallets"
}
