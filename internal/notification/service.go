package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"exchange-ledger/pkg/config"
	"exchange-ledger/pkg/crypto"
	"exchange-ledger/pkg/logger"
)

// Notifier 业务侧的发送入口，只入队不阻塞调用方
type Notifier interface {
	Notify(event EventType, payload map[string]interface{}) error
}

// EmailSender 邮件发送接口，SMTP接入在外围实现
type EmailSender interface {
	Send(to, subject, body string) error
}

// Service 通知服务接口
type Service interface {
	Notifier
	ListNotifications(page, pageSize int) ([]*Notification, int64, error)
	ProcessPendingNotifications() error
}

type service struct {
	repo        Repository
	cfg         config.NotificationConfig
	emailSender EmailSender
	httpClient  *http.Client
}

// NewService 创建通知服务
func NewService(repo Repository, cfg config.NotificationConfig, emailSender EmailSender) Service {
	if emailSender == nil {
		emailSender = &logEmailSender{}
	}
	return &service{
		repo:        repo,
		cfg:         cfg,
		emailSender: emailSender,
		httpClient:  &http.Client{Timeout: cfg.WebhookTimeout},
	}
}

// Notify 入队通知
func (s *service) Notify(event EventType, payload map[string]interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	subject := subjectFor(event)

	channels := []Channel{ChannelEmail}
	if s.cfg.WebhookURL != "" {
		channels = append(channels, ChannelWebhook)
	}

	for _, channel := range channels {
		n := &Notification{
			EventType: event,
			Channel:   channel,
			Subject:   subject,
			Payload:   string(data),
		}
		if channel == ChannelWebhook {
			n.Recipient = s.cfg.WebhookURL
		}
		if email, ok := payload["email"].(string); ok && channel == ChannelEmail {
			n.Recipient = email
		}
		if err := s.repo.Create(n); err != nil {
			return err
		}
	}

	return nil
}

func subjectFor(event EventType) string {
	switch event {
	case EventDepositConfirmed:
		return "Deposit confirmed"
	case EventWithdrawalProcessed:
		return "Withdrawal processed"
	case EventPriceRefreshFailed:
		return "Price refresh failure"
	default:
		return string(event)
	}
}

// ListNotifications 列出通知
func (s *service) ListNotifications(page, pageSize int) ([]*Notification, int64, error) {
	return s.repo.List(page, pageSize)
}

// ProcessPendingNotifications 投递待发送通知
func (s *service) ProcessPendingNotifications() error {
	notifications, err := s.repo.ListPending(100)
	if err != nil {
		return err
	}

	for _, n := range notifications {
		var sendErr error

		switch n.Channel {
		case ChannelEmail:
			if n.Recipient == "" {
				// 没有收件人，直接标记已发送（站内事件无需邮件）
				sendErr = nil
			} else {
				sendErr = s.emailSender.Send(n.Recipient, n.Subject, n.Payload)
			}
		case ChannelWebhook:
			sendErr = s.sendWebhook(n)
		}

		now := time.Now()
		if sendErr != nil {
			n.RetryCount++
			n.ErrorMsg = sendErr.Error()
			if n.RetryCount >= 3 {
				n.Status = 2 // failed
			}
			logger.Errorf("Failed to deliver notification %d (%s): %v", n.ID, n.EventType, sendErr)
		} else {
			n.Status = 1 // sent
			n.SentAt = &now
		}

		_ = s.repo.Update(n)
	}

	return nil
}

func (s *service) sendWebhook(n *Notification) error {
	body, _ := json.Marshal(map[string]interface{}{
		"event":     n.EventType,
		"data":      json.RawMessage(n.Payload),
		"timestamp": time.Now().Unix(),
	})

	req, err := http.NewRequest(http.MethodPost, n.Recipient, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.WebhookSecret != "" {
		req.Header.Set("X-Signature", crypto.HMACSHA256(body, []byte(s.cfg.WebhookSecret)))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}
	return nil
}

// logEmailSender 未配置SMTP时的降级实现，只打日志
type logEmailSender struct{}

func (l *logEmailSender) Send(to, subject, body string) error {
	logger.Infof("Sending email to %s: %s", to, subject)
	return nil
}
