package email

import (
	"fmt"
	"net/smtp"
	"time"
)

// Service handles email sending via SMTP
type Service struct {
	host string
	port string
	from string
}

// NewService creates a new email service
func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
	}
}

// SendDeliveryScheduled sends a delivery-scheduled notification email
func (s *Service) SendDeliveryScheduled(to, deliveryID, orderID string, deliveryAt time.Time, total int, items []OrderItem) error {
	shortID := orderID
	if len(orderID) > 8 {
		shortID = orderID[:8]
	}
	subject := fmt.Sprintf("【配送手配完了】配送の手配が完了しました（注文番号: %s）", shortID)
	body := BuildDeliveryScheduledBody(deliveryID, orderID, deliveryAt, total, items)
	return s.send(to, subject, body)
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}
