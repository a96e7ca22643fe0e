// internal/alert/sink_ses.go
package alert

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/wecare247/churnwatch/internal/common/config"
	stderrors "github.com/wecare247/churnwatch/internal/common/errors"
	"github.com/wecare247/churnwatch/internal/common/logger"
)

// SESService is the slice of the SES API the sink uses, extracted for
// mocking.
type SESService interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// SESSink sends alerts through AWS SES. Raw sending is required
// because the message carries CSV attachments.
type SESSink struct {
	cfg    config.AlertingConfig
	client SESService
	logger logger.Logger
}

func NewSESSink(ctx context.Context, cfg config.AlertingConfig, log logger.Logger) (*SESSink, error) {
	if cfg.From == "" || cfg.To == "" {
		return nil, stderrors.NewConfigInvalidError("alerting.from and alerting.to are required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.SES.Region))
	if err != nil {
		return nil, stderrors.NewConfigInvalidError("load AWS config: " + err.Error())
	}

	return &SESSink{
		cfg:    cfg,
		client: ses.NewFromConfig(awsCfg),
		logger: log,
	}, nil
}

// NewSESSinkWithClient injects a prebuilt client, used by tests.
func NewSESSinkWithClient(cfg config.AlertingConfig, client SESService, log logger.Logger) *SESSink {
	return &SESSink{cfg: cfg, client: client, logger: log}
}

func (s *SESSink) Name() string {
	return "ses"
}

func (s *SESSink) Send(ctx context.Context, p Payload) error {
	msg, err := buildMIMEMessage(s.cfg.From, s.cfg.To, p, s.logSkippedAttachment)
	if err != nil {
		return stderrors.NewAlertDispatchFailedError(s.Name(), err)
	}

	input := &ses.SendRawEmailInput{
		Source:       aws.String(s.cfg.From),
		Destinations: []string{s.cfg.To},
		RawMessage:   &types.RawMessage{Data: msg},
	}
	if _, err := s.client.SendRawEmail(ctx, input); err != nil {
		return stderrors.NewAlertDispatchFailedError(s.Name(), err)
	}
	return nil
}

func (s *SESSink) logSkippedAttachment(path string, err error) {
	s.logger.Warn("skipping unreadable attachment", map[string]interface{}{
		"path":  path,
		"error": err.Error(),
	})
}
