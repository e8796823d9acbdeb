package service

import (
	"encoding/json"
	"fmt"

	"mina/config"
	"mina/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gopkg.in/gomail.v2"
)

// NotificationService 通知投递
// 通知是交易之外的旁路副作用：写站内通知、按配置抄送邮件，
// 任何投递失败都只记录日志，绝不影响已提交的交易
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService 创建通知服务
func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// Notify 发送通知（fire-and-forget）
func (s *NotificationService) Notify(userID uint, title, message, severity string, data map[string]interface{}) {
	payload := ""
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			payload = string(b)
		}
	}

	notification := models.Notification{
		UserID:   userID,
		Title:    title,
		Message:  message,
		Severity: severity,
		Data:     payload,
	}
	if err := s.db.Create(&notification).Error; err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"title":   title,
			"error":   err.Error(),
		}).Warn("写入站内通知失败")
		return
	}

	s.sendEmail(userID, title, message)
}

// sendEmail 按配置抄送邮件，未启用或失败时静默跳过
func (s *NotificationService) sendEmail(userID uint, title, message string) {
	cfg := config.GlobalConfig
	if cfg == nil || !cfg.Notify.Email.Enabled {
		return
	}

	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil || user.Email == "" {
		return
	}

	emailCfg := cfg.Notify.Email
	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(emailCfg.Username, emailCfg.From))
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", "【Mina】"+title)
	m.SetBody("text/html", fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; padding: 20px;">
    <h2>%s</h2>
    <p>%s</p>
    <p style="color: #666;">—— Mina 记账助手</p>
</body>
</html>
`, title, message))

	d := gomail.NewDialer(emailCfg.Host, emailCfg.Port, emailCfg.Username, emailCfg.Password)
	if err := d.DialAndSend(m); err != nil {
		logrus.WithFields(logrus.Fields{
			"user_id": userID,
			"title":   title,
			"error":   err.Error(),
		}).Warn("发送通知邮件失败")
	}
}
