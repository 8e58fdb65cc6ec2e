package notify

import (
	"bytes"
	"fmt"
	"text/template"
)

type messageTemplate struct {
	Subject string
	Body    string
}

var templates = map[string]messageTemplate{
	TemplateRequestReceived: {
		Subject: "Interpreter Request Received",
		Body: `Hello {{.full_name}},

We received your interpretation request and it is now under review.

  Languages: {{.language_from}} -> {{.language_to}}
  Service:   {{.service_type}}
  When:      {{.scheduled_at}}
  Where:     {{.location}}
  Duration:  {{.duration_minutes}} minutes

We will contact you once the request has been reviewed.`,
	},
	TemplateRequestApproved: {
		Subject: "Interpreter Request Approved",
		Body: `Hello {{.full_name}},

Your interpretation request has been approved.

  Interpreter: {{.interpreter_name}}
  Languages:   {{.language_from}} -> {{.language_to}}
  Service:     {{.service_type}}
  When:        {{.scheduled_at}}
  Where:       {{.location}}
  Duration:    {{.duration_minutes}} minutes`,
	},
	TemplateRequestRejected: {
		Subject: "Interpreter Request Rejected",
		Body: `Hello {{.full_name}},

Unfortunately we could not fulfil your interpretation request.

  Reason: {{.reason}}

You are welcome to submit a new request at any time.`,
	},
	TemplatePaymentRequest: {
		Subject: "Payment Request",
		Body: `Hello {{.full_name}},

Please arrange payment for your interpretation booking.

  Amount:   {{.amount}} {{.currency}}
  Due date: {{.due_date}}

Questions? Contact {{.organization}} at {{.contact_email}} or {{.contact_phone}}.

{{.organization}} {{.year}}`,
	},
	TemplateMessageCreated: {
		Subject: "New Message Received",
		Body: `Hello {{.full_name}},

{{.interpreter_name}} sent you a message about your {{.service_type}} booking:

  {{.content}}`,
	},
}

// Render produces the subject and body for a template. Unknown templates error
// so a typo fails loudly instead of delivering an empty mail.
func Render(name string, vars Vars) (subject, body string, err error) {
	mt, ok := templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown notification template %s", name)
	}
	tpl, err := template.New(name).Option("missingkey=zero").Parse(mt.Body)
	if err != nil {
		return "", "", err
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, map[string]any(vars)); err != nil {
		return "", "", fmt.Errorf("render template %s: %w", name, err)
	}
	return mt.Subject, buf.String(), nil
}
