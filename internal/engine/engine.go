package engine

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"regexp"
	"time"

	"github.com/google/uuid"

	"linguadesk/internal/config"
	"linguadesk/internal/domain"
	"linguadesk/internal/events"
	"linguadesk/internal/notify"
	"linguadesk/internal/repo"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Notify notify.Gateway
	Config *config.Config
	Logger *log.Logger
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config, gateway notify.Gateway) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Notify: gateway,
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.Default()
}

// sendNotification delivers through the gateway after the surrounding mutation
// has committed. Delivery is best-effort: a failure is logged, never surfaced,
// so a flaky mail relay cannot fail an already persisted operation.
func (e Engine) sendNotification(ctx context.Context, recipient, template string, vars notify.Vars) {
	if e.Notify == nil {
		return
	}
	if err := e.Notify.Send(ctx, recipient, template, vars); err != nil {
		e.logger().Printf("notify: template=%s to=%s failed: %v", template, recipient, err)
	}
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var urgencyLevels = map[string]bool{"low": true, "medium": true, "high": true}

// SubmitOptions are parameters for the public request submission.
type SubmitOptions struct {
	FullName               string
	Email                  string
	Phone                  string
	PreferredContactMethod string

	LanguageFrom    string
	LanguageTo      string
	ServiceType     string
	ScheduledAt     string
	Location        string
	DurationMinutes int

	InterpreterType     string
	SpecialRequirements string

	Reason          string
	UrgencyLevel    string
	AdditionalNotes string
}

func (o SubmitOptions) validate() error {
	checks := []struct{ field, value string }{
		{"full_name", o.FullName},
		{"email", o.Email},
		{"phone", o.Phone},
		{"preferred_contact_method", o.PreferredContactMethod},
		{"language_from", o.LanguageFrom},
		{"language_to", o.LanguageTo},
		{"service_type", o.ServiceType},
		{"scheduled_at", o.ScheduledAt},
		{"location", o.Location},
		{"interpreter_type", o.InterpreterType},
		{"reason", o.Reason},
		{"urgency_level", o.UrgencyLevel},
	}
	for _, c := range checks {
		if err := required(c.field, c.value); err != nil {
			return err
		}
	}
	if !emailPattern.MatchString(o.Email) {
		return ValidationError{Field: "email", Reason: "is not a valid email address"}
	}
	if o.DurationMinutes <= 0 {
		return ValidationError{Field: "duration_minutes", Reason: "must be a positive integer"}
	}
	if _, err := time.Parse(time.RFC3339, o.ScheduledAt); err != nil {
		return ValidationError{Field: "scheduled_at", Reason: "must be an RFC 3339 date-time"}
	}
	if !urgencyLevels[o.UrgencyLevel] {
		return ValidationError{Field: "urgency_level", Reason: "must be low, medium or high"}
	}
	return nil
}

// SubmitRequest creates a new interpretation request in pending state and
// notifies the requester that it was received.
func (e Engine) SubmitRequest(ctx context.Context, opts SubmitOptions) (domain.Request, error) {
	if err := opts.validate(); err != nil {
		return domain.Request{}, err
	}
	scheduled, _ := time.Parse(time.RFC3339, opts.ScheduledAt)
	now := e.now().UTC().Format(time.RFC3339)
	req := domain.Request{
		ID:                     uuid.New().String(),
		FullName:               opts.FullName,
		Email:                  opts.Email,
		Phone:                  opts.Phone,
		PreferredContactMethod: opts.PreferredContactMethod,
		LanguageFrom:           opts.LanguageFrom,
		LanguageTo:             opts.LanguageTo,
		ServiceType:            opts.ServiceType,
		ScheduledAt:            scheduled.UTC().Format(time.RFC3339),
		Location:               opts.Location,
		DurationMinutes:        opts.DurationMinutes,
		InterpreterType:        opts.InterpreterType,
		SpecialRequirements:    opts.SpecialRequirements,
		Reason:                 opts.Reason,
		UrgencyLevel:           opts.UrgencyLevel,
		AdditionalNotes:        opts.AdditionalNotes,
		Status:                 domain.RequestPending,
		PaymentStatus:          domain.PaymentUnpaid,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Request{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertRequest(ctx, tx, req); err != nil {
		return domain.Request{}, err
	}
	if err := e.Events.Append(ctx, tx, events.RequestSubmitted, "request", req.ID, "public", events.EventPayload{
		"email":         req.Email,
		"service_type":  req.ServiceType,
		"urgency_level": req.UrgencyLevel,
	}); err != nil {
		return domain.Request{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Request{}, err
	}
	e.sendNotification(ctx, req.Email, notify.TemplateRequestReceived, e.serviceVars(req))
	return req, nil
}

// GetRequest returns one request with its assigned interpreter populated.
func (e Engine) GetRequest(ctx context.Context, id string) (domain.Request, error) {
	req, err := e.Repo.GetRequest(ctx, id)
	if err != nil {
		return req, err
	}
	if req.InterpreterID != nil {
		it, err := e.Repo.GetInterpreter(ctx, *req.InterpreterID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return req, err
		}
		if err == nil {
			req.Interpreter = &it
		}
	}
	return req, nil
}

// ListRequests returns all requests, most recent first.
func (e Engine) ListRequests(ctx context.Context) ([]domain.Request, error) {
	return e.Repo.ListRequests(ctx)
}

// ListRequestsForInterpreter returns accepted requests assigned to the caller.
// The interpreter id must come from a verified identity, never from the payload.
func (e Engine) ListRequestsForInterpreter(ctx context.Context, interpreterID string) ([]domain.Request, error) {
	return e.Repo.ListRequestsForInterpreter(ctx, interpreterID)
}

// ApproveRequest assigns an interpreter and a price to a pending request.
// Only interpreters with accepted admission are assignable. The transition is
// conditional on the current status being pending; a lost race or an already
// terminal request surfaces as ConflictError.
func (e Engine) ApproveRequest(ctx context.Context, id, interpreterID string, amount int64, actorID string) (domain.Request, error) {
	req, err := e.Repo.GetRequest(ctx, id)
	if err != nil {
		return domain.Request{}, err
	}
	it, err := e.Repo.GetInterpreter(ctx, interpreterID)
	if err != nil {
		return domain.Request{}, err
	}
	if it.Status != domain.AdmissionAccepted {
		return domain.Request{}, ValidationError{Field: "interpreter_id", Reason: "interpreter admission status is not accepted"}
	}
	if amount <= 0 {
		return domain.Request{}, ValidationError{Field: "amount", Reason: "must be a positive integer"}
	}
	now := e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Request{}, err
	}
	defer tx.Rollback()
	ok, err := e.Repo.ApproveRequestTx(ctx, tx, id, interpreterID, amount, now)
	if err != nil {
		return domain.Request{}, err
	}
	if !ok {
		return domain.Request{}, ConflictError{RequestID: id, Status: req.Status}
	}
	if err := e.Events.Append(ctx, tx, events.RequestApproved, "request", id, actorID, events.EventPayload{
		"interpreter_id": interpreterID,
		"amount":         amount,
	}); err != nil {
		return domain.Request{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Request{}, err
	}
	req.Status = domain.RequestAccepted
	req.InterpreterID = &interpreterID
	req.Amount = &amount
	req.UpdatedAt = now
	req.Interpreter = &it

	vars := e.serviceVars(req)
	vars["interpreter_name"] = it.Name
	e.sendNotification(ctx, req.Email, notify.TemplateRequestApproved, vars)
	return req, nil
}

// RejectRequest moves a pending request to rejected, recording the reason in
// its own field. The requester's additional notes are left untouched.
func (e Engine) RejectRequest(ctx context.Context, id, reason, actorID string) (domain.Request, error) {
	if reason == "" {
		return domain.Request{}, ValidationError{Field: "reason", Reason: "is required"}
	}
	req, err := e.Repo.GetRequest(ctx, id)
	if err != nil {
		return domain.Request{}, err
	}
	now := e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Request{}, err
	}
	defer tx.Rollback()
	ok, err := e.Repo.RejectRequestTx(ctx, tx, id, reason, now)
	if err != nil {
		return domain.Request{}, err
	}
	if !ok {
		return domain.Request{}, ConflictError{RequestID: id, Status: req.Status}
	}
	if err := e.Events.Append(ctx, tx, events.RequestRejected, "request", id, actorID, events.EventPayload{
		"reason": reason,
	}); err != nil {
		return domain.Request{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Request{}, err
	}
	req.Status = domain.RequestRejected
	req.RejectionReason = reason
	req.UpdatedAt = now

	vars := e.serviceVars(req)
	vars["reason"] = reason
	e.sendNotification(ctx, req.Email, notify.TemplateRequestRejected, vars)
	return req, nil
}

// RequestPayment sends a payment-request notification to the requester. The
// request row is not mutated: the amount lives only in the notification, which
// matches how Approve remains the single writer of the persisted price.
func (e Engine) RequestPayment(ctx context.Context, id string, amount int64, actorID string) error {
	if amount <= 0 {
		return ValidationError{Field: "amount", Reason: "must be a positive integer"}
	}
	req, err := e.Repo.GetRequest(ctx, id)
	if err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Events.Append(ctx, tx, events.PaymentRequested, "request", id, actorID, events.EventPayload{
		"amount": amount,
	}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	now := e.now().UTC()
	currency := "USD"
	orgName, orgEmail, orgPhone := "", "", ""
	if e.Config != nil {
		currency = e.Config.Organization.Currency
		orgName = e.Config.Organization.Name
		orgEmail = e.Config.Organization.Email
		orgPhone = e.Config.Organization.Phone
	}
	e.sendNotification(ctx, req.Email, notify.TemplatePaymentRequest, notify.Vars{
		"full_name":     req.FullName,
		"amount":        amount,
		"currency":      currency,
		"due_date":      now.Format("2006-01-02"),
		"organization":  orgName,
		"contact_email": orgEmail,
		"contact_phone": orgPhone,
		"year":          now.Year(),
	})
	return nil
}

func (e Engine) serviceVars(req domain.Request) notify.Vars {
	return notify.Vars{
		"full_name":        req.FullName,
		"language_from":    req.LanguageFrom,
		"language_to":      req.LanguageTo,
		"service_type":     req.ServiceType,
		"scheduled_at":     req.ScheduledAt,
		"location":         req.Location,
		"duration_minutes": req.DurationMinutes,
	}
}
