package service

import (
	"errors"
	"fmt"
	"time"

	"mina/cache"
	"mina/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LedgerService 交易账本
// 每次变更把交易记录、钱包余额增量、报表增量绑定在一个数据库事务里，
// 要么全部生效要么全部回滚；并发变更同一钱包时靠钱包行锁串行化，
// 余额校验因此不存在丢失更新
type LedgerService struct {
	db       *gorm.DB
	resolver *CategoryResolver
	reports  *ReportService
	notifier *NotificationService
}

// NewLedgerService 创建账本服务
func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{
		db:       db,
		resolver: NewCategoryResolver(db),
		reports:  NewReportService(db),
		notifier: NewNotificationService(db),
	}
}

// TransactionInput 交易意图（HTTP 或 AI 抽取流程归一化后的统一入参）
// CategoryID > 0 时按稳定标识解析（消歧确认后的路径），否则按名称解析
// WalletID 为 0 时落到用户的默认钱包
type TransactionInput struct {
	WalletID   uint
	Amount     float64
	Type       string
	Category   string
	CategoryID uint
	Notes      string
	Icon       string
	Date       time.Time
}

// normalize 校验并补全输入
func (in *TransactionInput) normalize() error {
	if in.Amount <= 0 {
		return ErrInvalidInput
	}
	if !models.IsValidTransactionType(in.Type) {
		return ErrInvalidInput
	}
	if in.Date.IsZero() {
		in.Date = time.Now()
	}
	return nil
}

// signedAmount 带符号金额：收入为正，支出为负
func (in *TransactionInput) signedAmount() float64 {
	if in.Type == models.TransactionTypeExpense {
		return -in.Amount
	}
	return in.Amount
}

// resolveCategory 解析类别；返回的 ResolveResult 非 nil 时表示待消歧
func (s *LedgerService) resolveCategory(userID uint, input *TransactionInput) (*models.Category, *ResolveResult, error) {
	if input.CategoryID > 0 {
		category, err := s.resolver.ResolveByID(userID, input.CategoryID)
		if err != nil {
			return nil, nil, err
		}
		return category, nil, nil
	}

	result, err := s.resolver.Resolve(userID, input.Category, input.Type)
	if err != nil {
		return nil, nil, err
	}
	if !result.Resolved() {
		return nil, result, nil
	}
	return result.Category, nil, nil
}

// Create 创建交易
// 返回的 *ResolveResult 非 nil 时表示类别待消歧，此时未发生任何写入
func (s *LedgerService) Create(userID uint, input TransactionInput) (*models.Transaction, *ResolveResult, error) {
	if err := input.normalize(); err != nil {
		return nil, nil, err
	}

	category, pending, err := s.resolveCategory(userID, &input)
	if err != nil {
		return nil, nil, err
	}
	if pending != nil {
		return nil, pending, nil
	}

	icon := input.Icon
	if icon == "" {
		icon = models.DefaultTransactionIcon
	}

	var txn models.Transaction
	var wallet models.Wallet
	err = s.db.Transaction(func(tx *gorm.DB) error {
		w, err := lockWallet(tx, userID, input.WalletID)
		if err != nil {
			return err
		}
		wallet = *w

		// 余额充足性只在创建支出时校验，校验失败整个事务回滚
		if input.Type == models.TransactionTypeExpense && wallet.Balance < input.Amount {
			return ErrInsufficientFunds
		}

		txn = models.Transaction{
			UserID:       userID,
			WalletID:     wallet.ID,
			CategoryID:   category.ID,
			CategoryName: category.Name,
			Amount:       input.Amount,
			Type:         input.Type,
			Notes:        input.Notes,
			Icon:         icon,
			Date:         input.Date,
		}
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}

		if err := applyWalletDelta(tx, wallet.ID, txn.SignedAmount()); err != nil {
			return err
		}

		return s.reports.Fold(tx, userID, wallet.ID, category, txn.Date, txn.Amount, txn.Type)
	})
	if err != nil {
		return nil, nil, err
	}

	wallet.Balance += txn.SignedAmount()

	logrus.WithFields(logrus.Fields{
		"user_id":        userID,
		"wallet_id":      wallet.ID,
		"transaction_id": txn.ID,
		"type":           txn.Type,
		"amount":         txn.Amount,
	}).Info("交易已创建")

	// 提交之后的旁路副作用：缓存作废与限额通知，失败不回滚交易
	cache.InvalidateMonthlyReport(userID, wallet.ID, txn.Date.Year(), int(txn.Date.Month()))
	s.checkMonthlyLimit(userID, &wallet, &txn, txn.Amount)

	return &txn, nil, nil
}

// Update 更新交易：先回退旧效果再施加新效果，净增量一次写入钱包
// 日期跨月时旧期间报表回退、新期间报表施加，各折叠一次
func (s *LedgerService) Update(userID, transactionID uint, input TransactionInput) (*models.Transaction, *ResolveResult, error) {
	if err := input.normalize(); err != nil {
		return nil, nil, err
	}

	var old models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&old).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrTransactionNotFound
		}
		return nil, nil, err
	}

	// 回退折叠只需要旧交易自带的类别快照
	oldCategory := &models.Category{ID: old.CategoryID, Name: old.CategoryName}

	newCategory := oldCategory
	if input.CategoryID > 0 || (input.Category != "" && input.Category != old.CategoryName) {
		category, pending, err := s.resolveCategory(userID, &input)
		if err != nil {
			return nil, nil, err
		}
		if pending != nil {
			return nil, pending, nil
		}
		newCategory = category
	}

	netDelta := input.signedAmount() - old.SignedAmount()

	updated := old
	err := s.db.Transaction(func(tx *gorm.DB) error {
		wallet, err := lockWallet(tx, userID, old.WalletID)
		if err != nil {
			return err
		}

		// 校验净效果，旧新抵消过程中的瞬时负值是合法的
		if wallet.Balance+netDelta < 0 {
			return ErrInsufficientFunds
		}

		updates := map[string]interface{}{
			"amount":        input.Amount,
			"type":          input.Type,
			"category_id":   newCategory.ID,
			"category_name": newCategory.Name,
			"notes":         input.Notes,
			"date":          input.Date,
		}
		if input.Icon != "" {
			updates["icon"] = input.Icon
		}
		if err := tx.Model(&models.Transaction{}).Where("id = ?", old.ID).Updates(updates).Error; err != nil {
			return err
		}

		if netDelta != 0 {
			if err := applyWalletDelta(tx, wallet.ID, netDelta); err != nil {
				return err
			}
		}

		// 先从原期间回退旧贡献，再向（可能不同的）新期间施加新贡献
		if err := s.reports.Fold(tx, userID, old.WalletID, oldCategory, old.Date, -old.Amount, old.Type); err != nil {
			return err
		}
		return s.reports.Fold(tx, userID, old.WalletID, newCategory, input.Date, input.Amount, input.Type)
	})
	if err != nil {
		return nil, nil, err
	}

	updated.Amount = input.Amount
	updated.Type = input.Type
	updated.CategoryID = newCategory.ID
	updated.CategoryName = newCategory.Name
	updated.Notes = input.Notes
	updated.Date = input.Date
	if input.Icon != "" {
		updated.Icon = input.Icon
	}

	logrus.WithFields(logrus.Fields{
		"user_id":        userID,
		"wallet_id":      old.WalletID,
		"transaction_id": old.ID,
		"net_delta":      netDelta,
	}).Info("交易已更新")

	cache.InvalidateMonthlyReport(userID, old.WalletID, old.Date.Year(), int(old.Date.Month()))
	cache.InvalidateMonthlyReport(userID, old.WalletID, input.Date.Year(), int(input.Date.Month()))
	if input.Type == models.TransactionTypeExpense {
		// 旧交易是同月支出时其金额已被回退，净增量只算差值
		monthDelta := input.Amount
		if old.Type == models.TransactionTypeExpense &&
			old.Date.Year() == input.Date.Year() && old.Date.Month() == input.Date.Month() {
			monthDelta -= old.Amount
		}
		if wallet, werr := NewWalletService(s.db).Get(userID, old.WalletID); werr == nil {
			s.checkMonthlyLimit(userID, wallet, &updated, monthDelta)
		}
	}

	return &updated, nil, nil
}

// Delete 删除交易并回退其全部效果
// 回退方向不做余额充足性校验：回退收入可能让余额为负，
// 交易历史才是事实来源，这里接受并告警而不是拦截
func (s *LedgerService) Delete(userID, transactionID uint) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	category := &models.Category{ID: txn.CategoryID, Name: txn.CategoryName}

	var balanceAfter float64
	err := s.db.Transaction(func(tx *gorm.DB) error {
		wallet, err := lockWallet(tx, userID, txn.WalletID)
		if err != nil {
			return err
		}
		balanceAfter = wallet.Balance - txn.SignedAmount()

		if err := tx.Delete(&txn).Error; err != nil {
			return err
		}

		if err := applyWalletDelta(tx, wallet.ID, -txn.SignedAmount()); err != nil {
			return err
		}

		return s.reports.Fold(tx, userID, wallet.ID, category, txn.Date, -txn.Amount, txn.Type)
	})
	if err != nil {
		return nil, err
	}

	if balanceAfter < 0 {
		logrus.WithFields(logrus.Fields{
			"user_id":        userID,
			"wallet_id":      txn.WalletID,
			"transaction_id": txn.ID,
			"balance":        balanceAfter,
		}).Warn("回退收入后钱包余额为负")
	}

	logrus.WithFields(logrus.Fields{
		"user_id":        userID,
		"wallet_id":      txn.WalletID,
		"transaction_id": txn.ID,
		"type":           txn.Type,
		"amount":         txn.Amount,
	}).Info("交易已删除")

	cache.InvalidateMonthlyReport(userID, txn.WalletID, txn.Date.Year(), int(txn.Date.Month()))
	return &txn, nil
}

// lockWallet 加行锁读取钱包（walletID 为 0 时取默认钱包）
// 并发变更同一钱包的事务在此串行化
func lockWallet(tx *gorm.DB, userID, walletID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	query := tx.Clauses(clause.Locking{Strength: "UPDATE"})
	var err error
	if walletID > 0 {
		err = query.Where("id = ? AND user_id = ?", walletID, userID).First(&wallet).Error
	} else {
		err = query.Where("user_id = ? AND is_default = ?", userID, true).First(&wallet).Error
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// applyWalletDelta 以增量方式更新钱包余额
func applyWalletDelta(tx *gorm.DB, walletID uint, delta float64) error {
	return tx.Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Update("balance", gorm.Expr("balance + ?", delta)).Error
}

// checkMonthlyLimit 月度限额策略：超限发警告通知，首次越过 90% 发提醒通知
// monthDelta 是本次变更给该月支出总额带来的净增量（创建为全额，
// 更新为新旧金额之差），用于还原变更前的总额判断是否首次越线
// 通知是非阻塞副作用，不属于原子单元
func (s *LedgerService) checkMonthlyLimit(userID uint, wallet *models.Wallet, txn *models.Transaction, monthDelta float64) {
	if s.notifier == nil || wallet.MonthlyLimit <= 0 || txn.Type != models.TransactionTypeExpense {
		return
	}

	monthStart := time.Date(txn.Date.Year(), txn.Date.Month(), 1, 0, 0, 0, 0, time.Local)
	monthEnd := monthStart.AddDate(0, 1, 0)

	var total float64
	if err := s.db.Model(&models.Transaction{}).
		Where("wallet_id = ? AND type = ? AND date >= ? AND date < ?",
			wallet.ID, models.TransactionTypeExpense, monthStart, monthEnd).
		Select("COALESCE(SUM(amount), 0)").Scan(&total).Error; err != nil {
		logrus.WithFields(logrus.Fields{
			"wallet_id": wallet.ID,
			"error":     err.Error(),
		}).Warn("统计月度支出失败，跳过限额检查")
		return
	}

	limit := wallet.MonthlyLimit
	previous := total - monthDelta
	data := map[string]interface{}{
		"wallet_id":     wallet.ID,
		"monthly_limit": limit,
		"month_expense": total,
	}

	switch {
	case total > limit:
		s.notifier.Notify(userID, "月度支出超限",
			fmt.Sprintf("本月支出 %.2f 已超出限额 %.2f", total, limit),
			models.NotificationSeverityWarning, data)
	case total >= limit*0.9 && previous < limit*0.9:
		s.notifier.Notify(userID, "月度支出接近限额",
			fmt.Sprintf("本月支出 %.2f 已达到限额 %.2f 的 90%%", total, limit),
			models.NotificationSeverityInfo, data)
	}
}
