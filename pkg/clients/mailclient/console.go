package mailclient

import (
	"go.uber.org/zap"
)

// ConsoleSender writes mails to the log instead of delivering them.
// Used in development and for dry runs where no Gmail token is set up.
type ConsoleSender struct {
	logger *zap.Logger
}

func NewConsoleSender(logger *zap.Logger) *ConsoleSender {
	return &ConsoleSender{logger: logger}
}

func (c *ConsoleSender) SendEmail(to, subject, body string) error {
	c.logger.Info("mail (console mode)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}
