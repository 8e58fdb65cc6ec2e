package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"linguadesk/internal/domain"
	"linguadesk/internal/events"
	"linguadesk/internal/repo"
)

// InterpreterOptions are parameters for registering an interpreter profile.
type InterpreterOptions struct {
	Name      string
	Email     string
	Phone     string
	Country   string
	Languages []string
}

func (o InterpreterOptions) validate() error {
	checks := []struct{ field, value string }{
		{"name", o.Name},
		{"email", o.Email},
		{"phone", o.Phone},
		{"country", o.Country},
	}
	for _, c := range checks {
		if err := required(c.field, c.value); err != nil {
			return err
		}
	}
	if !emailPattern.MatchString(o.Email) {
		return ValidationError{Field: "email", Reason: "is not a valid email address"}
	}
	if len(o.Languages) == 0 {
		return ValidationError{Field: "languages", Reason: "must list at least one language"}
	}
	return nil
}

// CreateInterpreter registers a new interpreter profile in pending admission
// state. Email addresses are unique.
func (e Engine) CreateInterpreter(ctx context.Context, opts InterpreterOptions, actorID string) (domain.Interpreter, error) {
	if err := opts.validate(); err != nil {
		return domain.Interpreter{}, err
	}
	if _, err := e.Repo.GetInterpreterByEmail(ctx, opts.Email); err == nil {
		return domain.Interpreter{}, ValidationError{Field: "email", Reason: "is already registered"}
	} else if !errors.Is(err, repo.ErrNotFound) {
		return domain.Interpreter{}, err
	}
	now := e.now().UTC().Format(time.RFC3339)
	it := domain.Interpreter{
		ID:        uuid.New().String(),
		Name:      opts.Name,
		Email:     opts.Email,
		Phone:     opts.Phone,
		Country:   opts.Country,
		Languages: opts.Languages,
		Status:    domain.AdmissionPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Interpreter{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertInterpreter(ctx, tx, it); err != nil {
		return domain.Interpreter{}, err
	}
	if err := e.Events.Append(ctx, tx, events.InterpreterCreated, "interpreter", it.ID, actorID, events.EventPayload{
		"email": it.Email,
	}); err != nil {
		return domain.Interpreter{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Interpreter{}, err
	}
	return it, nil
}

// GetInterpreter returns one interpreter profile.
func (e Engine) GetInterpreter(ctx context.Context, id string) (domain.Interpreter, error) {
	return e.Repo.GetInterpreter(ctx, id)
}

// ListInterpreters returns all interpreter profiles, most recent first.
func (e Engine) ListInterpreters(ctx context.Context) ([]domain.Interpreter, error) {
	return e.Repo.ListInterpreters(ctx)
}

var admissionStatuses = map[string]bool{
	domain.AdmissionPending:  true,
	domain.AdmissionAccepted: true,
	domain.AdmissionRejected: true,
}

// SetInterpreterStatus updates an interpreter's admission status. Accepted
// interpreters become assignable to requests.
func (e Engine) SetInterpreterStatus(ctx context.Context, id, status, actorID string) (domain.Interpreter, error) {
	if !admissionStatuses[status] {
		return domain.Interpreter{}, ValidationError{Field: "status", Reason: "must be pending, accepted or rejected"}
	}
	it, err := e.Repo.GetInterpreter(ctx, id)
	if err != nil {
		return domain.Interpreter{}, err
	}
	now := e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Interpreter{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateInterpreterStatus(ctx, tx, id, status, now); err != nil {
		return domain.Interpreter{}, err
	}
	if err := e.Events.Append(ctx, tx, events.InterpreterStatusChanged, "interpreter", id, actorID, events.EventPayload{
		"status": status,
	}); err != nil {
		return domain.Interpreter{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Interpreter{}, err
	}
	it.Status = status
	it.UpdatedAt = now
	return it, nil
}
