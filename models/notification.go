package models

import (
	"time"

	"gorm.io/gorm"
)

// 通知级别
const (
	NotificationSeverityInfo    = "info"
	NotificationSeverityWarning = "warning"
)

// Notification 站内通知模型
// 由账本在超出月度限额等场景下写入，投递失败不影响交易本身
type Notification struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"index;not null"`
	Title     string         `json:"title" gorm:"size:100;not null"`
	Message   string         `json:"message" gorm:"size:500;not null"`
	Severity  string         `json:"severity" gorm:"size:20;not null;default:info"` // info / warning
	Data      string         `json:"data" gorm:"type:text"`                         // 附加数据（JSON 字符串）
	IsRead    bool           `json:"is_read" gorm:"index;default:false"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 设置表名
func (Notification) TableName() string {
	return "notifications"
}
