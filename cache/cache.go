package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mina/config"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// rdb 全局 Redis 客户端，未启用时为 nil（所有操作降级为未命中）
var rdb *redis.Client

// Init 初始化 Redis 连接，未启用时不建立连接
func Init(cfg *config.Config) error {
	if !cfg.Redis.Enabled {
		rdb = nil
		return nil
	}

	rdb = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb = nil
		return fmt.Errorf("连接 Redis 失败: %w", err)
	}
	return nil
}

// Enabled 缓存是否可用
func Enabled() bool {
	return rdb != nil
}

// Get 读取缓存并反序列化到 dest，返回是否命中
func Get(ctx context.Context, key string, dest any) (bool, error) {
	if rdb == nil {
		return false, nil
	}
	val, err := rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, json.Unmarshal([]byte(val), dest)
}

// Set 序列化并写入缓存
func Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if rdb == nil {
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, ttl).Err()
}

// Delete 删除缓存键
func Delete(ctx context.Context, keys ...string) error {
	if rdb == nil || len(keys) == 0 {
		return nil
	}
	return rdb.Del(ctx, keys...).Err()
}

// MonthlyReportKey 月度报表缓存键
func MonthlyReportKey(userID, walletID uint, year, month int) string {
	return fmt.Sprintf("report:user:%d:wallet:%d:%04d-%02d", userID, walletID, year, month)
}

// InvalidateMonthlyReport 作废某期报表缓存，失败仅记录日志（缓存有 TTL 兜底）
func InvalidateMonthlyReport(userID, walletID uint, year, month int) {
	if rdb == nil {
		return
	}
	key := MonthlyReportKey(userID, walletID, year, month)
	if err := Delete(context.Background(), key); err != nil {
		logrus.WithFields(logrus.Fields{
			"key":   key,
			"error": err.Error(),
		}).Warn("作废报表缓存失败")
	}
}
