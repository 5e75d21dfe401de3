package identity

import (
	"context"
	"fmt"
)

// Logger is the minimal logging surface the package needs. glog.Logger
// satisfies it.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Message is a composed email ready for delivery
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers composed messages. Delivery is best-effort: the lifecycle
// service logs failures and keeps going.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Config holds identity options
type Config interface {
	GetSigningKey() string
	GetTokenExpiration() int
	GetBcryptCost() int
	GetIssuer() string
	GetBaseURL() string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

type noopMailer struct{}

func (noopMailer) Send(context.Context, Message) error { return nil }
