package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/Dosada05/tennis-tournament/config"
	"github.com/Dosada05/tennis-tournament/models"
)

const registrationOutcomeTemplate = `<p>Dear {{.Username}},</p>
<p>Your registration for tournament '<b>{{.TournamentName}}</b>' has been <b>{{.Outcome}}</b>.</p>
<p>Regards,<br>Tennis Tournament Admin</p>`

// EmailService доставляет письма по SMTP. Реализует RegistrationNotifier.
type EmailService struct {
	cfg     *config.Config
	outcome *template.Template
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{
		cfg:     cfg,
		outcome: template.Must(template.New("registration_outcome").Parse(registrationOutcomeTemplate)),
	}
}

func (s *EmailService) NotifyRegistrationOutcome(ctx context.Context, player *models.User, tournament *models.Tournament, approved bool) error {
	subject := "Tournament Registration Denied"
	outcome := "DENIED"
	if approved {
		subject = "Tournament Registration Approved"
		outcome = "APPROVED"
	}

	data := struct {
		Username       string
		TournamentName string
		Outcome        string
	}{
		Username:       player.Username,
		TournamentName: tournament.Name,
		Outcome:        outcome,
	}

	var body bytes.Buffer
	if err := s.outcome.Execute(&body, data); err != nil {
		return fmt.Errorf("ошибка выполнения шаблона письма: %w", err)
	}

	return s.SendEmail([]string{player.Email}, subject, body.String())
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	tlsconfig := &tls.Config{
		ServerName: s.cfg.SMTPHost,
	}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Прямое TLS-соединение (обычно порт 465)
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("ошибка TLS соединения: %w", err)
		}
		defer conn.Close()
		c, err := smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("ошибка создания SMTP клиента: %w", err)
		}
		client = c
	} else {
		// STARTTLS (обычно порт 587)
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("ошибка соединения SMTP: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("ошибка команды STARTTLS: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("ошибка аутентификации SMTP: %w", err)
	}

	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("ошибка MAIL FROM: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("ошибка RCPT TO: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("ошибка команды DATA: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("ошибка записи сообщения: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия DATA: %w", err)
	}

	return nil
}
