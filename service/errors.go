package service

import "errors"

// 账本核心的错误分类，handler 负责映射为 HTTP 状态码
var (
	// ErrWalletNotFound 钱包不存在或不属于当前用户
	ErrWalletNotFound = errors.New("钱包不存在")
	// ErrTransactionNotFound 交易不存在或不属于当前用户
	ErrTransactionNotFound = errors.New("交易不存在")
	// ErrCategoryNotFound 类别不存在或不属于当前用户
	ErrCategoryNotFound = errors.New("类别不存在")
	// ErrInsufficientFunds 支出会导致余额为负（仅在创建/更新校验阶段拦截）
	ErrInsufficientFunds = errors.New("钱包余额不足")
	// ErrWalletConflict 钱包删除被拒绝（默认钱包或仍有关联交易）
	ErrWalletConflict = errors.New("钱包无法删除")
	// ErrDuplicateCategory 同一用户下类别名称重复
	ErrDuplicateCategory = errors.New("类别名称已存在")
	// ErrInvalidInput 金额/类型/日期等字段非法
	ErrInvalidInput = errors.New("参数非法")
)
