package api

import (
	"errors"
	"strconv"
	"time"

	"mina/cache"
	"mina/database"
	"mina/middleware"
	"mina/models"
	"mina/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// 月度报表缓存时长，写路径会主动作废，TTL 只是兜底
const monthlyReportCacheTTL = 60 * time.Second

// ReportHandler 报表处理器
// 所有读取都是物化报表上的投影，不扫描交易历史
type ReportHandler struct{}

// NewReportHandler 创建报表处理器
func NewReportHandler() *ReportHandler {
	return &ReportHandler{}
}

// walletIDQuery 解析钱包参数，未指定时落到默认钱包
func walletIDQuery(c *gin.Context, userID uint) (uint, bool) {
	raw := c.Query("wallet_id")
	if raw == "" {
		wallet, err := service.NewWalletService(database.DB).GetDefault(userID)
		if err != nil {
			if errors.Is(err, service.ErrWalletNotFound) {
				NotFound(c, "钱包不存在")
			} else {
				InternalError(c, SafeErrorMessage(err, "查询钱包失败"))
			}
			return 0, false
		}
		return wallet.ID, true
	}

	walletID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		BadRequest(c, "无效的钱包ID")
		return 0, false
	}
	return uint(walletID), true
}

// Monthly 获取月度报表
// @Summary 获取月度报表
// @Description 返回指定年月的收支总额、类别明细和日桶，未指定 wallet_id 时使用默认钱包
// @Tags 报表
// @Produce json
// @Security BearerAuth
// @Param wallet_id query int false "钱包ID"
// @Param year query int true "年份" example(2026)
// @Param month query int true "月份" example(3)
// @Success 200 {object} Response{data=models.Report} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/reports/monthly [get]
func (h *ReportHandler) Monthly(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	walletID, ok := walletIDQuery(c, userID)
	if !ok {
		return
	}

	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 1970 {
		BadRequest(c, "无效的年份")
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		BadRequest(c, "无效的月份")
		return
	}

	// 月报是热点读取，先查缓存
	key := cache.MonthlyReportKey(userID, walletID, year, month)
	if cache.Enabled() {
		var cached models.Report
		hit, err := cache.Get(c.Request.Context(), key, &cached)
		if err != nil {
			logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("读取报表缓存失败")
		} else if hit {
			Success(c, cached)
			return
		}
	}

	report, err := service.NewReportService(database.DB).Monthly(userID, walletID, year, month)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询报表失败"))
		return
	}

	if cache.Enabled() {
		if err := cache.Set(c.Request.Context(), key, report, monthlyReportCacheTTL); err != nil {
			logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("写入报表缓存失败")
		}
	}

	Success(c, report)
}

// Daily 获取日报
// @Summary 获取日报
// @Description 返回指定日期的收支汇总（来自月报日桶的投影）
// @Tags 报表
// @Produce json
// @Security BearerAuth
// @Param wallet_id query int false "钱包ID"
// @Param date query string true "日期 (2026-03-10)"
// @Success 200 {object} Response{data=service.DailyEntry} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/reports/daily [get]
func (h *ReportHandler) Daily(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	walletID, ok := walletIDQuery(c, userID)
	if !ok {
		return
	}

	date, err := time.ParseInLocation("2006-01-02", c.Query("date"), time.Local)
	if err != nil {
		BadRequest(c, "日期格式错误，应为: 2006-01-02")
		return
	}

	entry, err := service.NewReportService(database.DB).Daily(userID, walletID, date)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询报表失败"))
		return
	}

	Success(c, entry)
}

// Weekly 获取周报
// @Summary 获取周报
// @Description 返回自起始日期起 7 天的收支投影，允许跨月
// @Tags 报表
// @Produce json
// @Security BearerAuth
// @Param wallet_id query int false "钱包ID"
// @Param start_date query string true "起始日期 (2026-03-09)"
// @Success 200 {object} Response{data=service.WeeklyReport} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/reports/weekly [get]
func (h *ReportHandler) Weekly(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	walletID, ok := walletIDQuery(c, userID)
	if !ok {
		return
	}

	start, err := time.ParseInLocation("2006-01-02", c.Query("start_date"), time.Local)
	if err != nil {
		BadRequest(c, "日期格式错误，应为: 2006-01-02")
		return
	}

	weekly, err := service.NewReportService(database.DB).Weekly(userID, walletID, start)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询报表失败"))
		return
	}

	Success(c, weekly)
}

// Yearly 获取年报
// @Summary 获取年报
// @Description 合并 12 个月报返回年度收支汇总
// @Tags 报表
// @Produce json
// @Security BearerAuth
// @Param wallet_id query int false "钱包ID"
// @Param year query int true "年份" example(2026)
// @Success 200 {object} Response{data=service.YearlyReport} "获取成功"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/reports/yearly [get]
func (h *ReportHandler) Yearly(c *gin.Context) {
	userID := middleware.GetCurrentUserID(c)

	walletID, ok := walletIDQuery(c, userID)
	if !ok {
		return
	}

	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 1970 {
		BadRequest(c, "无效的年份")
		return
	}

	yearly, err := service.NewReportService(database.DB).Yearly(userID, walletID, year)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "查询报表失败"))
		return
	}

	Success(c, yearly)
}
