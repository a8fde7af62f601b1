package mail

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/civic-stack/voterlink/config"
	"github.com/civic-stack/voterlink/services/logging"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// signInCodeBody is the one template this system sends: the out-of-band
// delivery of a sign-in secret code.
var signInCodeBody = template.Must(template.New("sign_in_code").Parse(
	`Your {{.AppName}} sign in code is {{.Code}}.

Enter it on the device that requested it. The code expires in {{.Lifetime}}.
If you did not request a code you can ignore this message.
`))

type Service struct {
	config *config.Config
	client *mail.Client
	logger *logging.Service
}

func NewService(cfg *config.Config, logger *logging.Service) (*Service, error) {
	if cfg.Mail.FromAddress == "" {
		return nil, fmt.Errorf("VL_MAIL_FROM_ADDRESS is required")
	}

	clientOpts := []mail.Option{
		mail.WithPort(cfg.Mail.Port),
	}

	switch cfg.Mail.Encryption {
	case "ssl":
		clientOpts = append(clientOpts, mail.WithSSL())
	case "none":
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.NoTLS))
	default:
		clientOpts = append(clientOpts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	}

	if cfg.Mail.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Mail.Username),
			mail.WithPassword(cfg.Mail.Password))
	}

	client, err := mail.NewClient(cfg.Mail.Host, clientOpts...)
	if err != nil {
		logger.Error("failed to create mail client",
			zap.Error(err),
			zap.String("host", cfg.Mail.Host))
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	logger.Info("mail service initialized",
		zap.String("host", cfg.Mail.Host),
		zap.Int("port", cfg.Mail.Port))

	return &Service{
		config: cfg,
		client: client,
		logger: logger,
	}, nil
}

// SendSignInCode emails the secret code to the recipient. Satisfies
// devicelink.CodeSender.
func (s *Service) SendSignInCode(recipient string, code string) error {
	body, err := s.renderSignInCode(code)
	if err != nil {
		return err
	}

	message := mail.NewMsg()
	fromAddr := s.config.Mail.FromAddress
	if s.config.Mail.FromName != "" {
		fromAddr = fmt.Sprintf("%s <%s>", s.config.Mail.FromName, s.config.Mail.FromAddress)
	}
	if err := message.From(fromAddr); err != nil {
		return fmt.Errorf("failed to set FROM address: %w", err)
	}
	if err := message.To(recipient); err != nil {
		return fmt.Errorf("failed to set TO address: %w", err)
	}
	message.Subject(fmt.Sprintf("Your %s sign in code", s.config.App.Name))
	message.SetBodyString(mail.TypeTextPlain, body)

	startTime := time.Now()
	if err := s.client.DialAndSend(message); err != nil {
		s.logger.Error("failed to send sign in code email",
			zap.Error(err),
			zap.Duration("attempt_duration", time.Since(startTime)))
		return err
	}

	s.logger.Info("sign in code email sent",
		zap.Duration("send_duration", time.Since(startTime)))
	return nil
}

func (s *Service) renderSignInCode(code string) (string, error) {
	var buf bytes.Buffer
	err := signInCodeBody.Execute(&buf, map[string]any{
		"AppName":  s.config.App.Name,
		"Code":     code,
		"Lifetime": s.config.SignIn.CodeLifetime.String(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render sign in code template: %w", err)
	}
	return buf.String(), nil
}
