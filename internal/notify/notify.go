package notify

import (
	"context"
	"log"
)

// Template identifiers accepted by the gateway. Each maps to a subject line
// and a text/template body in templates.go.
const (
	TemplateRequestReceived = "request-received"
	TemplateRequestApproved = "request-approved"
	TemplateRequestRejected = "request-rejected"
	TemplatePaymentRequest  = "payment-request"
	TemplateMessageCreated  = "message-created"
)

type Vars map[string]any

// Gateway delivers one templated notification to one recipient address.
// Implementations own delivery; callers treat failures as best-effort.
type Gateway interface {
	Send(ctx context.Context, recipient, template string, vars Vars) error
}

// LogGateway writes notifications to a logger instead of delivering them.
// Default in development and in the CLI.
type LogGateway struct {
	Logger *log.Logger
}

func (g LogGateway) Send(_ context.Context, recipient, template string, vars Vars) error {
	logger := g.Logger
	if logger == nil {
		logger = log.Default()
	}
	subject, body, err := Render(template, vars)
	if err != nil {
		return err
	}
	logger.Printf("notify to=%s template=%s subject=%q\n%s", recipient, template, subject, body)
	return nil
}
