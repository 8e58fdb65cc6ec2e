package auth

import (
	"context"
	"errors"
	"fmt"

	"linguadesk/internal/domain"
	"linguadesk/internal/repo"
)

// Roles carried by verified identities.
const (
	RoleAdmin       = "admin"
	RoleInterpreter = "interpreter"
)

// AuthError indicates a missing or invalid credential.
type AuthError struct {
	Reason string
}

func (e AuthError) Error() string {
	if e.Reason == "" {
		return "authentication required"
	}
	return e.Reason
}

// ForbiddenError indicates a verified identity without the required role.
type ForbiddenError struct {
	Role string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("role %s required", e.Role)
}

// Identity is a verified caller. SubjectID is the interpreter id for
// interpreter role callers, the API key id for admin callers.
type Identity struct {
	SubjectID string
	Role      string
}

func (i Identity) IsAdmin() bool       { return i.Role == RoleAdmin }
func (i Identity) IsInterpreter() bool { return i.Role == RoleInterpreter }

// Service resolves identities against stored profiles.
type Service struct {
	Repo repo.Repo
}

// ResolveInterpreter maps a token subject to an interpreter profile. Unknown
// subjects and interpreters without accepted admission are both rejected, so a
// revoked interpreter loses access even with a valid token.
func (s Service) ResolveInterpreter(ctx context.Context, subjectID string) (domain.Interpreter, error) {
	it, err := s.Repo.GetInterpreter(ctx, subjectID)
	if errors.Is(err, repo.ErrNotFound) {
		return domain.Interpreter{}, AuthError{Reason: "unknown subject"}
	}
	if err != nil {
		return domain.Interpreter{}, err
	}
	if it.Status != domain.AdmissionAccepted {
		return domain.Interpreter{}, AuthError{Reason: "interpreter admission status is not accepted"}
	}
	return it, nil
}

// ResolveAPIKey maps a presented API key to an admin identity.
func (s Service) ResolveAPIKey(ctx context.Context, key string) (Identity, error) {
	stored, err := s.Repo.GetAPIKeyByHash(ctx, repo.HashAPIKey(key))
	if errors.Is(err, repo.ErrNotFound) {
		return Identity{}, AuthError{Reason: "unknown api key"}
	}
	if err != nil {
		return Identity{}, err
	}
	return Identity{SubjectID: stored.ID, Role: RoleAdmin}, nil
}
