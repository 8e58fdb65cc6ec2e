package notify

import (
	"strings"
	"testing"
)

func TestRenderKnownTemplates(t *testing.T) {
	vars := Vars{
		"full_name":        "Ana Morales",
		"language_from":    "es",
		"language_to":      "en",
		"service_type":     "medical",
		"scheduled_at":     "2026-02-01T09:00:00Z",
		"location":         "City Hospital",
		"duration_minutes": 90,
		"interpreter_name": "Luc Martin",
		"reason":           "no interpreter available",
		"amount":           int64(12500),
		"currency":         "USD",
		"due_date":         "2026-02-01",
		"organization":     "Linguadesk",
		"contact_email":    "bookings@linguadesk.example",
		"contact_phone":    "+1 555 0100",
		"year":             2026,
		"content":          "on my way",
	}
	for _, name := range []string{
		TemplateRequestReceived,
		TemplateRequestApproved,
		TemplateRequestRejected,
		TemplatePaymentRequest,
		TemplateMessageCreated,
	} {
		subject, body, err := Render(name, vars)
		if err != nil {
			t.Fatalf("render %s: %v", name, err)
		}
		if subject == "" || body == "" {
			t.Fatalf("render %s: empty output", name)
		}
		if !strings.Contains(body, "Ana Morales") {
			t.Fatalf("render %s: recipient name missing from body", name)
		}
		if strings.Contains(body, "<no value>") {
			t.Fatalf("render %s: unresolved variable in body:\n%s", name, body)
		}
	}
}

func TestRenderTemplateDetails(t *testing.T) {
	_, body, err := Render(TemplateRequestRejected, Vars{
		"full_name": "Ana",
		"reason":    "schedule conflict",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body, "schedule conflict") {
		t.Fatalf("reason missing from rejection body:\n%s", body)
	}

	_, body, err = Render(TemplatePaymentRequest, Vars{
		"full_name": "Ana", "amount": int64(5000), "currency": "EUR",
		"due_date": "2026-03-01", "organization": "Linguadesk",
		"contact_email": "x@y.example", "contact_phone": "1", "year": 2026,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body, "5000 EUR") {
		t.Fatalf("amount missing from payment body:\n%s", body)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	if _, _, err := Render("no-such-template", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}
