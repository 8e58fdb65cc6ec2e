package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/golang-jwt/jwt/v5"

	"linguadesk/internal/engine/auth"
)

type AuthConfig struct {
	JWTSecret string
	Logger    *log.Logger
}

// Principal is the verified caller attached to the request context. SubjectID
// is the interpreter id for interpreter callers and the API key id for admins.
type Principal struct {
	SubjectID string
	Role      string
	Source    string
}

type principalKey struct{}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func principalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func requireAdmin(ctx context.Context) (Principal, huma.StatusError) {
	p, ok := principalFromContext(ctx)
	if !ok {
		return Principal{}, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil)
	}
	if p.Role != auth.RoleAdmin {
		return Principal{}, newAPIError(http.StatusForbidden, "forbidden", "admin role required", nil)
	}
	return p, nil
}

func requireInterpreter(ctx context.Context) (Principal, huma.StatusError) {
	p, ok := principalFromContext(ctx)
	if !ok {
		return Principal{}, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil)
	}
	if p.Role != auth.RoleInterpreter {
		return Principal{}, newAPIError(http.StatusForbidden, "forbidden", "interpreter role required", nil)
	}
	return p, nil
}

type jwtClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

func authenticateJWT(ctx context.Context, token, secret string, svc auth.Service) (Principal, error) {
	if strings.TrimSpace(secret) == "" {
		return Principal{}, errors.New("jwt secret not configured")
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &jwtClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return Principal{}, err
	}
	if !parsed.Valid {
		return Principal{}, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return Principal{}, errors.New("subject claim required")
	}
	role := claims.Role
	if role == "" {
		role = auth.RoleInterpreter
	}
	if role == auth.RoleInterpreter {
		// A valid token is not enough: the profile must still hold an
		// accepted admission.
		if _, err := svc.ResolveInterpreter(ctx, claims.Subject); err != nil {
			return Principal{}, err
		}
	}
	return Principal{SubjectID: claims.Subject, Role: role, Source: "jwt"}, nil
}

func bearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

func newAuthMiddleware(basePath string, cfg AuthConfig, svc auth.Service) func(http.Handler) http.Handler {
	healthPath := path.Join(basePath, "health")
	submitPath := path.Join(basePath, "requests")
	openAPIPath := path.Join(basePath, "openapi.json")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if basePath != "" && !strings.HasPrefix(req.URL.Path, basePath) {
				next.ServeHTTP(w, req)
				return
			}
			switch req.URL.Path {
			case healthPath, openAPIPath:
				next.ServeHTTP(w, req)
				return
			case submitPath:
				// Request submission is the public intake form.
				if req.Method == http.MethodPost {
					next.ServeHTTP(w, req)
					return
				}
			}

			authz := strings.TrimSpace(req.Header.Get("Authorization"))
			apiKeyHeader := strings.TrimSpace(req.Header.Get("X-Api-Key"))

			if authz != "" {
				token, ok := bearerToken(authz)
				if !ok {
					respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid_credentials", "invalid credentials", nil))
					return
				}
				principal, err := authenticateJWT(req.Context(), token, cfg.JWTSecret, svc)
				if err != nil {
					respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid_credentials", "invalid credentials", nil))
					return
				}
				next.ServeHTTP(w, req.WithContext(withPrincipal(req.Context(), principal)))
				return
			}

			if apiKeyHeader != "" {
				identity, err := svc.ResolveAPIKey(req.Context(), apiKeyHeader)
				if err != nil {
					respondStatusError(w, newAPIError(http.StatusUnauthorized, "invalid_credentials", "invalid credentials", nil))
					return
				}
				principal := Principal{SubjectID: identity.SubjectID, Role: identity.Role, Source: "api_key"}
				next.ServeHTTP(w, req.WithContext(withPrincipal(req.Context(), principal)))
				return
			}

			respondStatusError(w, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil))
		})
	}
}

func respondStatusError(w http.ResponseWriter, err huma.StatusError) {
	status := http.StatusInternalServerError
	if e, ok := err.(interface{ GetStatus() int }); ok {
		status = e.GetStatus()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(err)
}
