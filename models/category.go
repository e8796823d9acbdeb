package models

import (
	"time"

	"gorm.io/gorm"
)

// Category 交易类别模型
// UserID 为 NULL 表示全局默认类别（只读种子数据，所有用户可见）
// 非默认类别在 (user_id, name) 范围内唯一；唯一索引不区分软删行，
// 自建类别删除走物理删除以释放名称
type Category struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    *uint          `json:"user_id" gorm:"index;uniqueIndex:idx_user_category_name"`
	Name      string         `json:"name" gorm:"size:50;not null;uniqueIndex:idx_user_category_name"`
	IsDefault bool           `json:"is_default" gorm:"index;default:false"`
	Icons     []CategoryIcon `json:"icons" gorm:"foreignKey:CategoryID"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 设置表名
func (Category) TableName() string {
	return "categories"
}

// CategoryIcon 类别图标（有序，至少一个）
type CategoryIcon struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	CategoryID uint   `json:"-" gorm:"index;not null"`
	IconPath   string `json:"icon_path" gorm:"size:100;not null"`
	Color      string `json:"color" gorm:"size:20;default:#000000"` // 十六进制颜色，如 #FF5733
	Sort       int    `json:"sort" gorm:"default:0"`
}

// TableName 设置表名
func (CategoryIcon) TableName() string {
	return "category_icons"
}

// FirstIcon 返回排序最靠前的图标路径，没有图标时返回默认值
func (c *Category) FirstIcon() string {
	if len(c.Icons) == 0 {
		return DefaultTransactionIcon
	}
	return c.Icons[0].IconPath
}
