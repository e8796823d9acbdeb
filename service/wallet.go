package service

import (
	"errors"

	"mina/models"

	"gorm.io/gorm"
)

// WalletService 钱包存储操作
// 余额字段只在账本事务内通过增量更新，这里不直接改余额
type WalletService struct {
	db *gorm.DB
}

// NewWalletService 创建钱包服务
func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{db: db}
}

// WalletInput 钱包创建/更新入参
// MonthlyLimit 为 nil 表示不修改，指向 0 表示取消限额
type WalletInput struct {
	Name         string
	Description  string
	Currency     string
	MonthlyLimit *float64
	IsDefault    bool
}

// CreateDefaultWallet 注册时在事务内创建默认钱包
func CreateDefaultWallet(tx *gorm.DB, userID uint) (*models.Wallet, error) {
	wallet := models.Wallet{
		UserID:      userID,
		Name:        "Default Wallet",
		Description: "Default Wallet",
		Currency:    "VND",
		Balance:     0,
		IsDefault:   true,
	}
	if err := tx.Create(&wallet).Error; err != nil {
		return nil, err
	}
	return &wallet, nil
}

// Create 创建钱包；用户还没有默认钱包时新钱包自动成为默认
func (s *WalletService) Create(userID uint, input WalletInput) (*models.Wallet, error) {
	if input.Name == "" {
		return nil, ErrInvalidInput
	}
	currency := input.Currency
	if currency == "" {
		currency = "VND"
	}

	var wallet *models.Wallet
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var defaultCount int64
		if err := tx.Model(&models.Wallet{}).
			Where("user_id = ? AND is_default = ?", userID, true).
			Count(&defaultCount).Error; err != nil {
			return err
		}

		w := models.Wallet{
			UserID:      userID,
			Name:        input.Name,
			Description: input.Description,
			Currency:    currency,
			IsDefault:   defaultCount == 0,
		}
		if input.MonthlyLimit != nil && *input.MonthlyLimit > 0 {
			w.MonthlyLimit = *input.MonthlyLimit
		}
		if err := tx.Create(&w).Error; err != nil {
			return err
		}

		// 显式要求设为默认时，在同一事务内先清后设
		if input.IsDefault && !w.IsDefault {
			if err := setDefaultWallet(tx, userID, w.ID); err != nil {
				return err
			}
			w.IsDefault = true
		}
		wallet = &w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// Get 获取用户的指定钱包
func (s *WalletService) Get(userID, walletID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := s.db.Where("id = ? AND user_id = ?", walletID, userID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// List 获取用户全部钱包
func (s *WalletService) List(userID uint) ([]models.Wallet, error) {
	var wallets []models.Wallet
	if err := s.db.Where("user_id = ?", userID).Order("is_default DESC, id ASC").Find(&wallets).Error; err != nil {
		return nil, err
	}
	return wallets, nil
}

// GetDefault 获取用户的默认钱包
func (s *WalletService) GetDefault(userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := s.db.Where("user_id = ? AND is_default = ?", userID, true).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// Update 更新钱包配置（名称/描述/限额/默认标记），不碰余额
func (s *WalletService) Update(userID, walletID uint, input WalletInput) (*models.Wallet, error) {
	var wallet models.Wallet
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", walletID, userID).First(&wallet).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWalletNotFound
			}
			return err
		}

		updates := map[string]interface{}{}
		if input.Name != "" {
			updates["name"] = input.Name
		}
		if input.Description != "" {
			updates["description"] = input.Description
		}
		if input.MonthlyLimit != nil && *input.MonthlyLimit >= 0 {
			updates["monthly_limit"] = *input.MonthlyLimit
		}
		if len(updates) > 0 {
			if err := tx.Model(&wallet).Updates(updates).Error; err != nil {
				return err
			}
		}

		// 设为默认：同一事务内先清空同用户其他钱包的标记再设置，
		// 保证任意时刻最多一个默认钱包
		if input.IsDefault && !wallet.IsDefault {
			if err := setDefaultWallet(tx, userID, wallet.ID); err != nil {
				return err
			}
			wallet.IsDefault = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// SetDefault 将指定钱包设为默认
func (s *WalletService) SetDefault(userID, walletID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var wallet models.Wallet
		if err := tx.Where("id = ? AND user_id = ?", walletID, userID).First(&wallet).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWalletNotFound
			}
			return err
		}
		return setDefaultWallet(tx, userID, walletID)
	})
}

func setDefaultWallet(tx *gorm.DB, userID, walletID uint) error {
	if err := tx.Model(&models.Wallet{}).
		Where("user_id = ? AND id <> ?", userID, walletID).
		Update("is_default", false).Error; err != nil {
		return err
	}
	return tx.Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Update("is_default", true).Error
}

// Delete 删除钱包；默认钱包或仍有关联交易的钱包拒绝删除
func (s *WalletService) Delete(userID, walletID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var wallet models.Wallet
		if err := tx.Where("id = ? AND user_id = ?", walletID, userID).First(&wallet).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrWalletNotFound
			}
			return err
		}

		if wallet.IsDefault {
			return ErrWalletConflict
		}

		var count int64
		if err := tx.Model(&models.Transaction{}).Where("wallet_id = ?", walletID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrWalletConflict
		}

		return tx.Delete(&wallet).Error
	})
}

// Balance 返回钱包当前余额及历史收支总和
func (s *WalletService) Balance(userID, walletID uint) (balance, totalIncome, totalExpense float64, err error) {
	wallet, err := s.Get(userID, walletID)
	if err != nil {
		return 0, 0, 0, err
	}

	if err := s.db.Model(&models.Transaction{}).
		Where("wallet_id = ? AND type = ?", walletID, models.TransactionTypeIncome).
		Select("COALESCE(SUM(amount), 0)").Scan(&totalIncome).Error; err != nil {
		return 0, 0, 0, err
	}
	if err := s.db.Model(&models.Transaction{}).
		Where("wallet_id = ? AND type = ?", walletID, models.TransactionTypeExpense).
		Select("COALESCE(SUM(amount), 0)").Scan(&totalExpense).Error; err != nil {
		return 0, 0, 0, err
	}
	return wallet.Balance, totalIncome, totalExpense, nil
}
