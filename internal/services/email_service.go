package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adiwijaya/rukun/internal/cache"
	"github.com/adiwijaya/rukun/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// EmailService defines the interface for sending verification codes
type EmailService interface {
	SendOTPEmail(ctx context.Context, email, code, purpose string, expiresIn time.Duration) error
}

// AWSSESEmailService sends emails using AWS SES
type AWSSESEmailService struct {
	sesClient   *ses.Client
	fromAddress string
	logger      *slog.Logger
}

// NewAWSSESEmailService creates a new AWS SES email service
func NewAWSSESEmailService(region, fromAddress string, log *slog.Logger) (*AWSSESEmailService, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AWSSESEmailService{
		sesClient:   ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      log,
	}, nil
}

// SendOTPEmail delivers a one-time verification code. The subject and
// framing depend on whether the code gates a registration or a
// password reset.
func (s *AWSSESEmailService) SendOTPEmail(ctx context.Context, email, code, purpose string, expiresIn time.Duration) error {
	var subject, intro string
	switch purpose {
	case cache.PurposeReset:
		subject = "Your password reset code"
		intro = "We received a request to reset the password for your account. Enter the code below to continue:"
	default:
		subject = "Your registration code"
		intro = "Thank you for signing up. Enter the code below to verify your email address:"
	}

	minutes := int(expiresIn.Minutes())

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .code { font-size: 32px; letter-spacing: 8px; font-weight: bold; text-align: center; padding: 20px; background-color: #f8f9fa; border-radius: 4px; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <p>%s</p>
        <div class="code">%s</div>
        <p>This code expires in %d minutes.</p>
        <p>If you did not request this code, you can safely ignore this email.</p>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>
`, intro, code, minutes)

	textBody := fmt.Sprintf(`%s

%s

This code expires in %d minutes.

If you did not request this code, you can safely ignore this email.
`, intro, code, minutes)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(htmlBody),
				},
				Text: &types.Content{
					Data: aws.String(textBody),
				},
			},
		},
	}

	result, err := s.sesClient.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send OTP email via SES",
			slog.String("email", logger.SanitizedEmail(email)),
			slog.String("purpose", purpose),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("OTP email sent",
		slog.String("email", logger.SanitizedEmail(email)),
		slog.String("purpose", purpose),
		slog.String("message_id", *result.MessageId))

	return nil
}
