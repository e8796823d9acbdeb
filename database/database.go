package database

import (
	"fmt"
	"log"

	"mina/config"
	"mina/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init 初始化数据库连接
func Init(cfg *config.Config) error {
	// 构建 MySQL DSN 连接字符串
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
		cfg.Database.Username,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
		cfg.Database.Charset,
	)

	var err error
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}

	// 获取底层 *sql.DB 连接池配置
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}

	// 设置连接池参数
	sqlDB.SetMaxIdleConns(10)  // 最大空闲连接数
	sqlDB.SetMaxOpenConns(100) // 最大打开连接数

	// 自动迁移数据库表
	if err := DB.AutoMigrate(
		&models.User{},
		&models.Wallet{},
		&models.Category{},
		&models.CategoryIcon{},
		&models.Transaction{},
		&models.Report{},
		&models.ReportCategory{},
		&models.ReportDaily{},
		&models.Notification{},
	); err != nil {
		return err
	}

	// 初始化全局默认类别
	if err := seedDefaultCategories(DB); err != nil {
		return err
	}

	log.Println("数据库初始化成功")
	return nil
}

// defaultCategorySeed 默认类别种子数据
type defaultCategorySeed struct {
	Name  string
	Color string
	Icons []string
}

var defaultCategorySeeds = []defaultCategorySeed{
	{"Food", "#FF5733", []string{"🍔", "🍕", "🍣", "🍜", "🍦", "🍪"}},
	{"Transport", "#33FF57", []string{"🚗", "🚕", "🚲", "🚄", "🚌", "🚀"}},
	{"Shopping", "#3357FF", []string{"👗", "👠", "👒", "👜", "🕶️", "🧥"}},
	{"Entertainment", "#FF33F6", []string{"🎬", "🎤", "🎮", "🎳", "🎭", "🎨"}},
	{"Health", "#33FFF6", []string{"💊", "🩺", "🌡️", "💉", "🧴", "🚑"}},
	{"Education", "#F6FF33", []string{"📚", "🎓", "📝", "📐", "📏", "📖"}},
}

// seedDefaultCategories 初始化全局默认类别（user_id 为 NULL 的只读种子数据）
// user_id 为 NULL 时 (user_id, name) 唯一索引不约束重复行，
// 幂等性由事务内加锁按名称查重保证：已存在即跳过，并发启动在锁上串行化
func seedDefaultCategories(db *gorm.DB) error {
	for _, seed := range defaultCategorySeeds {
		seed := seed
		err := db.Transaction(func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.Category{}).
				Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("name = ? AND is_default = ?", seed.Name, true).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return nil
			}

			cat := models.Category{
				Name:      seed.Name,
				UserID:    nil,
				IsDefault: true,
			}
			if err := tx.Create(&cat).Error; err != nil {
				return err
			}

			icons := make([]models.CategoryIcon, 0, len(seed.Icons))
			for i, path := range seed.Icons {
				icons = append(icons, models.CategoryIcon{
					CategoryID: cat.ID,
					IconPath:   path,
					Color:      seed.Color,
					Sort:       i,
				})
			}
			return tx.Create(&icons).Error
		})
		if err != nil {
			return fmt.Errorf("初始化默认类别失败: %w", err)
		}
	}
	return nil
}

// GetDB 获取数据库连接
func GetDB() *gorm.DB {
	return DB
}
