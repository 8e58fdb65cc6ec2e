package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"linguadesk/internal/config"
	"linguadesk/internal/db"
	"linguadesk/internal/domain"
	"linguadesk/internal/engine"
	"linguadesk/internal/migrate"
	"linguadesk/internal/notify"
	"linguadesk/internal/repo"
)

type sentNote struct {
	Recipient string
	Template  string
	Vars      notify.Vars
}

type captureGateway struct {
	mu   sync.Mutex
	sent []sentNote
	err  error
}

func (g *captureGateway) Send(_ context.Context, recipient, template string, vars notify.Vars) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, sentNote{Recipient: recipient, Template: template, Vars: vars})
	return g.err
}

func (g *captureGateway) all() []sentNote {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sentNote(nil), g.sent...)
}

func (g *captureGateway) last() (sentNote, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.sent) == 0 {
		return sentNote{}, false
	}
	return g.sent[len(g.sent)-1], true
}

type testEnv struct {
	Engine  engine.Engine
	Gateway *captureGateway
	Ctx     context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	gw := &captureGateway{}
	eng := engine.New(conn, config.Default(), gw)
	eng.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return testEnv{Engine: eng, Gateway: gw, Ctx: context.Background()}
}

func validSubmit() engine.SubmitOptions {
	return engine.SubmitOptions{
		FullName:               "Ana Morales",
		Email:                  "ana@example.com",
		Phone:                  "+1 555 0101",
		PreferredContactMethod: "email",
		LanguageFrom:           "es",
		LanguageTo:             "en",
		ServiceType:            "medical",
		ScheduledAt:            "2024-02-01T09:00:00Z",
		Location:               "City Hospital",
		DurationMinutes:        90,
		InterpreterType:        "on-site",
		Reason:                 "appointment",
		UrgencyLevel:           "medium",
		AdditionalNotes:        "room 4",
	}
}

func acceptedInterpreter(t *testing.T, env testEnv) domain.Interpreter {
	t.Helper()
	it, err := env.Engine.CreateInterpreter(env.Ctx, engine.InterpreterOptions{
		Name:      "Luc Martin",
		Email:     "luc@example.com",
		Phone:     "+1 555 0102",
		Country:   "FR",
		Languages: []string{"fr", "en"},
	}, "admin")
	if err != nil {
		t.Fatalf("create interpreter: %v", err)
	}
	it, err = env.Engine.SetInterpreterStatus(env.Ctx, it.ID, domain.AdmissionAccepted, "admin")
	if err != nil {
		t.Fatalf("accept interpreter: %v", err)
	}
	return it
}

func TestSubmitRequestDefaults(t *testing.T) {
	env := newTestEnv(t)
	req, err := env.Engine.SubmitRequest(env.Ctx, validSubmit())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if req.Status != domain.RequestPending {
		t.Fatalf("expected pending, got %s", req.Status)
	}
	if req.InterpreterID != nil || req.Amount != nil {
		t.Fatalf("expected no interpreter or amount on a new request")
	}
	if req.PaymentStatus != domain.PaymentUnpaid {
		t.Fatalf("expected unpaid, got %s", req.PaymentStatus)
	}
	if req.CreatedAt != req.UpdatedAt {
		t.Fatalf("expected created_at == updated_at on submit")
	}
	got, err := env.Engine.GetRequest(env.Ctx, req.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FullName != "Ana Morales" || got.AdditionalNotes != "room 4" {
		t.Fatalf("stored fields mismatch: %+v", got)
	}
	note, ok := env.Gateway.last()
	if !ok || note.Template != notify.TemplateRequestReceived || note.Recipient != "ana@example.com" {
		t.Fatalf("expected request-received notification, got %+v", note)
	}
}

func TestSubmitRequestValidation(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		name   string
		mutate func(*engine.SubmitOptions)
	}{
		{"missing email", func(o *engine.SubmitOptions) { o.Email = "" }},
		{"bad email", func(o *engine.SubmitOptions) { o.Email = "not an email" }},
		{"zero duration", func(o *engine.SubmitOptions) { o.DurationMinutes = 0 }},
		{"negative duration", func(o *engine.SubmitOptions) { o.DurationMinutes = -30 }},
		{"bad scheduled_at", func(o *engine.SubmitOptions) { o.ScheduledAt = "tomorrow" }},
		{"bad urgency", func(o *engine.SubmitOptions) { o.UrgencyLevel = "extreme" }},
		{"missing name", func(o *engine.SubmitOptions) { o.FullName = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := validSubmit()
			tc.mutate(&opts)
			_, err := env.Engine.SubmitRequest(env.Ctx, opts)
			var ve engine.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if len(env.Gateway.all()) != 0 {
		t.Fatalf("no notifications expected for rejected submissions")
	}
}

func TestApproveRequest(t *testing.T) {
	env := newTestEnv(t)
	it := acceptedInterpreter(t, env)
	req, err := env.Engine.SubmitRequest(env.Ctx, validSubmit())
	if err != nil {
		t.Fatal(err)
	}
	approved, err := env.Engine.ApproveRequest(env.Ctx, req.ID, it.ID, 12500, "admin")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != domain.RequestAccepted {
		t.Fatalf("expected accepted, got %s", approved.Status)
	}
	if approved.InterpreterID == nil || *approved.InterpreterID != it.ID {
		t.Fatalf("interpreter not assigned")
	}
	if approved.Amount == nil || *approved.Amount != 12500 {
		t.Fatalf("amount not set")
	}
	if approved.Interpreter == nil || approved.Interpreter.Name != "Luc Martin" {
		t.Fatalf("expected interpreter relation populated")
	}
	note, ok := env.Gateway.last()
	if !ok || note.Template != notify.TemplateRequestApproved {
		t.Fatalf("expected request-approved notification, got %+v", note)
	}
	if note.Vars["interpreter_name"] != "Luc Martin" {
		t.Fatalf("expected interpreter name in vars, got %v", note.Vars)
	}

	// persisted too
	got, err := env.Engine.GetRequest(env.Ctx, req.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.RequestAccepted || got.Interpreter == nil {
		t.Fatalf("approval not persisted: %+v", got)
	}
}

func TestApproveIsFinal(t *testing.T) {
	env := newTestEnv(t)
	it := acceptedInterpreter(t, env)
	req, _ := env.Engine.SubmitRequest(env.Ctx, validSubmit())
	if _, err := env.Engine.ApproveRequest(env.Ctx, req.ID, it.ID, 100, "admin"); err != nil {
		t.Fatal(err)
	}
	_, err := env.Engine.ApproveRequest(env.Ctx, req.ID, it.ID, 200, "admin")
	var ce engine.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected conflict on second approve, got %v", err)
	}
	_, err = env.Engine.RejectRequest(env.Ctx, req.ID, "changed my mind", "admin")
	if !errors.As(err, &ce) {
		t.Fatalf("expected conflict rejecting accepted request, got %v", err)
	}
	got, _ := env.Engine.GetRequest(env.Ctx, req.ID)
	if got.Amount == nil || *got.Amount != 100 {
		t.Fatalf("first approval must stand, got %+v", got.Amount)
	}
}

func TestApproveRequiresEligibleInterpreter(t *testing.T) {
	env := newTestEnv(t)
	req, _ := env.Engine.SubmitRequest(env.Ctx, validSubmit())
	pendingIt, err := env.Engine.CreateInterpreter(env.Ctx, engine.InterpreterOptions{
		Name: "Pending Person", Email: "pending@example.com", Phone: "1", Country: "US", Languages: []string{"en"},
	}, "admin")
	if err != nil {
		t.Fatal(err)
	}
	sentBefore := len(env.Gateway.all())

	_, err = env.Engine.ApproveRequest(env.Ctx, req.ID, pendingIt.ID, 100, "admin")
	var ve engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error for pending admission, got %v", err)
	}
	_, err = env.Engine.ApproveRequest(env.Ctx, req.ID, "no-such-interpreter", 100, "admin")
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found for unknown interpreter, got %v", err)
	}
	got, _ := env.Engine.GetRequest(env.Ctx, req.ID)
	if got.Status != domain.RequestPending {
		t.Fatalf("failed approval must not mutate the request")
	}
	if len(env.Gateway.all()) != sentBefore {
		t.Fatalf("failed approval must not notify")
	}
}

func TestRejectRequest(t *testing.T) {
	env := newTestEnv(t)
	req, _ := env.Engine.SubmitRequest(env.Ctx, validSubmit())
	rejected, err := env.Engine.RejectRequest(env.Ctx, req.ID, "no interpreter available", "admin")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != domain.RequestRejected {
		t.Fatalf("expected rejected, got %s", rejected.Status)
	}
	if rejected.RejectionReason != "no interpreter available" {
		t.Fatalf("rejection reason not recorded")
	}
	if rejected.AdditionalNotes != "room 4" {
		t.Fatalf("requester notes must not be overwritten")
	}
	if rejected.InterpreterID != nil {
		t.Fatalf("rejected request must have no interpreter")
	}
	note, ok := env.Gateway.last()
	if !ok || note.Template != notify.TemplateRequestRejected {
		t.Fatalf("expected request-rejected notification")
	}
	if note.Vars["reason"] != "no interpreter available" {
		t.Fatalf("reason missing from notification vars")
	}

	_, err = env.Engine.RejectRequest(env.Ctx, req.ID, "again", "admin")
	var ce engine.ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected conflict on second reject, got %v", err)
	}
	_, err = env.Engine.RejectRequest(env.Ctx, req.ID, "", "admin")
	var ve engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("empty reason must fail validation, got %v", err)
	}
}

func TestRequestPaymentDoesNotMutate(t *testing.T) {
	env := newTestEnv(t)
	it := acceptedInterpreter(t, env)
	req, _ := env.Engine.SubmitRequest(env.Ctx, validSubmit())
	approved, err := env.Engine.ApproveRequest(env.Ctx, req.ID, it.ID, 5000, "admin")
	if err != nil {
		t.Fatal(err)
	}
	if err := env.Engine.RequestPayment(env.Ctx, req.ID, 9999, "admin"); err != nil {
		t.Fatalf("request payment: %v", err)
	}
	note, ok := env.Gateway.last()
	if !ok || note.Template != notify.TemplatePaymentRequest {
		t.Fatalf("expected payment-request notification")
	}
	if note.Vars["amount"] != int64(9999) {
		t.Fatalf("notification amount mismatch: %v", note.Vars["amount"])
	}
	got, _ := env.Engine.GetRequest(env.Ctx, req.ID)
	if got.Amount == nil || *got.Amount != 5000 {
		t.Fatalf("payment request must not change the persisted amount")
	}
	if got.UpdatedAt != approved.UpdatedAt {
		t.Fatalf("payment request must not touch updated_at")
	}

	if err := env.Engine.RequestPayment(env.Ctx, "missing", 100, "admin"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNotificationFailureDoesNotFailOperation(t *testing.T) {
	env := newTestEnv(t)
	env.Gateway.err = errors.New("smtp down")
	req, err := env.Engine.SubmitRequest(env.Ctx, validSubmit())
	if err != nil {
		t.Fatalf("submit must succeed despite notify failure: %v", err)
	}
	got, err := env.Engine.GetRequest(env.Ctx, req.ID)
	if err != nil || got.Status != domain.RequestPending {
		t.Fatalf("request must be persisted: %v", err)
	}
}

func TestPostMessageRequiresAssignedInterpreter(t *testing.T) {
	env := newTestEnv(t)
	it := acceptedInterpreter(t, env)
	req, _ := env.Engine.SubmitRequest(env.Ctx, validSubmit())

	_, err := env.Engine.PostMessage(env.Ctx, req.ID, it.ID, "hello")
	var ve engine.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error on unassigned request, got %v", err)
	}

	if _, err := env.Engine.ApproveRequest(env.Ctx, req.ID, it.ID, 100, "admin"); err != nil {
		t.Fatal(err)
	}
	msg, err := env.Engine.PostMessage(env.Ctx, req.ID, it.ID, "hello")
	if err != nil {
		t.Fatalf("post after approval: %v", err)
	}
	if msg.Interpreter == nil || msg.Interpreter.ID != it.ID {
		t.Fatalf("author relation missing")
	}
	note, ok := env.Gateway.last()
	if !ok || note.Template != notify.TemplateMessageCreated {
		t.Fatalf("expected message-created notification")
	}

	_, err = env.Engine.PostMessage(env.Ctx, req.ID, it.ID, "")
	if !errors.As(err, &ve) {
		t.Fatalf("empty content must fail validation")
	}
	_, err = env.Engine.PostMessage(env.Ctx, "missing", it.ID, "hello")
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found for unknown request, got %v", err)
	}
}

func TestMessageThreadOrdering(t *testing.T) {
	env := newTestEnv(t)
	it := acceptedInterpreter(t, env)
	req, _ := env.Engine.SubmitRequest(env.Ctx, validSubmit())
	if _, err := env.Engine.ApproveRequest(env.Ctx, req.ID, it.ID, 100, "admin"); err != nil {
		t.Fatal(err)
	}
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, content := range []string{"first", "second", "third"} {
		offset := time.Duration(i) * time.Minute
		env.Engine.Now = func() time.Time { return base.Add(offset) }
		if _, err := env.Engine.PostMessage(env.Ctx, req.ID, it.ID, content); err != nil {
			t.Fatal(err)
		}
	}
	msgs, err := env.Engine.ListMessagesByRequest(env.Ctx, req.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i, want := range []string{"first", "second", "third"} {
		if msgs[i].Content != want {
			t.Fatalf("thread out of order: %v", msgs)
		}
		if msgs[i].Interpreter == nil {
			t.Fatalf("author not populated on message %d", i)
		}
	}

	other, _ := env.Engine.SubmitRequest(env.Ctx, validSubmit())
	if _, err := env.Engine.ApproveRequest(env.Ctx, other.ID, it.ID, 100, "admin"); err != nil {
		t.Fatal(err)
	}
	msgs, err = env.Engine.ListMessagesByRequest(env.Ctx, other.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Fatalf("threads must be scoped per request")
	}
}

func TestMessageUpdateDelete(t *testing.T) {
	env := newTestEnv(t)
	it := acceptedInterpreter(t, env)
	req, _ := env.Engine.SubmitRequest(env.Ctx, validSubmit())
	if _, err := env.Engine.ApproveRequest(env.Ctx, req.ID, it.ID, 100, "admin"); err != nil {
		t.Fatal(err)
	}
	msg, err := env.Engine.PostMessage(env.Ctx, req.ID, it.ID, "draft")
	if err != nil {
		t.Fatal(err)
	}
	updated, err := env.Engine.UpdateMessage(env.Ctx, msg.ID, "final", it.ID)
	if err != nil || updated.Content != "final" {
		t.Fatalf("update: %v", err)
	}
	if err := env.Engine.DeleteMessage(env.Ctx, msg.ID, it.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.Engine.GetMessage(env.Ctx, msg.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := env.Engine.DeleteMessage(env.Ctx, msg.ID, it.ID); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("double delete must report not found")
	}
}

func TestInterpreterValidation(t *testing.T) {
	env := newTestEnv(t)
	opts := engine.InterpreterOptions{
		Name: "Mia", Email: "mia@example.com", Phone: "1", Country: "DE", Languages: []string{"de"},
	}
	it, err := env.Engine.CreateInterpreter(env.Ctx, opts, "admin")
	if err != nil {
		t.Fatal(err)
	}
	if it.Status != domain.AdmissionPending {
		t.Fatalf("new interpreters start pending, got %s", it.Status)
	}
	var ve engine.ValidationError
	if _, err := env.Engine.CreateInterpreter(env.Ctx, opts, "admin"); !errors.As(err, &ve) {
		t.Fatalf("duplicate email must fail, got %v", err)
	}
	opts.Email = "other@example.com"
	opts.Languages = nil
	if _, err := env.Engine.CreateInterpreter(env.Ctx, opts, "admin"); !errors.As(err, &ve) {
		t.Fatalf("empty languages must fail, got %v", err)
	}
	if _, err := env.Engine.SetInterpreterStatus(env.Ctx, it.ID, "banned", "admin"); !errors.As(err, &ve) {
		t.Fatalf("unknown admission status must fail")
	}
}

func TestListRequestsForInterpreter(t *testing.T) {
	env := newTestEnv(t)
	it := acceptedInterpreter(t, env)
	mine, _ := env.Engine.SubmitRequest(env.Ctx, validSubmit())
	if _, err := env.Engine.ApproveRequest(env.Ctx, mine.ID, it.ID, 100, "admin"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.Engine.SubmitRequest(env.Ctx, validSubmit()); err != nil {
		t.Fatal(err)
	}
	items, err := env.Engine.ListRequestsForInterpreter(env.Ctx, it.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ID != mine.ID {
		t.Fatalf("expected only the assigned request, got %+v", items)
	}
	items, err = env.Engine.ListRequestsForInterpreter(env.Ctx, "someone-else")
	if err != nil || len(items) != 0 {
		t.Fatalf("expected empty list for unassigned interpreter")
	}
}

func TestListRequestsOrdering(t *testing.T) {
	env := newTestEnv(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		offset := time.Duration(i) * time.Hour
		env.Engine.Now = func() time.Time { return base.Add(offset) }
		r, err := env.Engine.SubmitRequest(env.Ctx, validSubmit())
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, r.ID)
	}
	items, err := env.Engine.ListRequests(env.Ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(items))
	}
	if items[0].ID != ids[2] || items[2].ID != ids[0] {
		t.Fatalf("expected newest first ordering")
	}
}
