// internal/alert/sink_smtp.go
package alert

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"

	"github.com/wecare247/churnwatch/internal/common/config"
	stderrors "github.com/wecare247/churnwatch/internal/common/errors"
	"github.com/wecare247/churnwatch/internal/common/logger"
)

// SMTPSink sends alerts over plain SMTP with STARTTLS.
type SMTPSink struct {
	cfg    config.AlertingConfig
	logger logger.Logger
}

func NewSMTPSink(cfg config.AlertingConfig, log logger.Logger) (*SMTPSink, error) {
	if cfg.SMTP.Host == "" {
		return nil, stderrors.NewConfigInvalidError("alerting.smtp.host is required for the smtp provider")
	}
	if cfg.From == "" || cfg.To == "" {
		return nil, stderrors.NewConfigInvalidError("alerting.from and alerting.to are required")
	}
	return &SMTPSink{cfg: cfg, logger: log}, nil
}

func (s *SMTPSink) Name() string {
	return "smtp"
}

func (s *SMTPSink) Send(ctx context.Context, p Payload) error {
	msg, err := buildMIMEMessage(s.cfg.From, s.cfg.To, p, s.logSkippedAttachment)
	if err != nil {
		return stderrors.NewAlertDispatchFailedError(s.Name(), err)
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTP.Host, s.cfg.SMTP.Port)
	if err := s.sendMail(ctx, addr, msg); err != nil {
		return stderrors.NewAlertDispatchFailedError(s.Name(), err)
	}
	return nil
}

func (s *SMTPSink) sendMail(ctx context.Context, addr string, msg []byte) error {
	// net/smtp has no context support; honor cancellation between the
	// dial and the send at least.
	if err := ctx.Err(); err != nil {
		return err
	}

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsCfg := &tls.Config{ServerName: s.cfg.SMTP.Host}
		if err := client.StartTLS(tlsCfg); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if s.cfg.SMTP.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.SMTP.Username, s.cfg.SMTP.Password, s.cfg.SMTP.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(s.cfg.To); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		w.Close()
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close message: %w", err)
	}

	return client.Quit()
}

func (s *SMTPSink) logSkippedAttachment(path string, err error) {
	s.logger.Warn("skipping unreadable attachment", map[string]interface{}{
		"path":  path,
		"error": err.Error(),
	})
}
