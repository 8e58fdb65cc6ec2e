package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"linguadesk/internal/engine"
	"linguadesk/internal/engine/auth"
	"linguadesk/internal/repo"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
	Auth     AuthConfig
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"conflict"`
	Message string         `json:"message" example:"request is not pending"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true" example:"{\"status\":\"accepted\"}"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Linguadesk API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	authSvc := auth.Service{Repo: cfg.Engine.Repo}
	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth, authSvc))
	hcfg := huma.DefaultConfig("Linguadesk API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerHealth(group)
	registerRequests(group, cfg.Engine)
	registerMessages(group, cfg.Engine)
	registerInterpreters(group, cfg.Engine)
	registerMe(group, cfg.Engine)
	registerEvents(group, cfg.Engine)
	registerNotifications(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var ve engine.ValidationError
	if errors.As(err, &ve) {
		details := map[string]any{}
		if ve.Field != "" {
			details["field"] = ve.Field
		}
		return newAPIError(http.StatusBadRequest, "validation_failed", err.Error(), details)
	}
	var ce engine.ConflictError
	if errors.As(err, &ce) {
		return newAPIError(http.StatusConflict, "conflict", err.Error(), map[string]any{"status": ce.Status})
	}
	var ae auth.AuthError
	if errors.As(err, &ae) {
		return newAPIError(http.StatusUnauthorized, "unauthorized", err.Error(), nil)
	}
	var fe auth.ForbiddenError
	if errors.As(err, &fe) {
		return newAPIError(http.StatusForbidden, "forbidden", err.Error(), map[string]any{"role": fe.Role})
	}
	if errors.Is(err, repo.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			applyAuthSecurity(oas, basePath)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func applyAuthSecurity(oas *huma.OpenAPI, basePath string) {
	if oas == nil {
		return
	}
	if oas.Components == nil {
		oas.Components = &huma.Components{}
	}
	if oas.Components.SecuritySchemes == nil {
		oas.Components.SecuritySchemes = map[string]*huma.SecurityScheme{}
	}
	oas.Components.SecuritySchemes["bearerAuth"] = &huma.SecurityScheme{
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
	oas.Components.SecuritySchemes["apiKeyAuth"] = &huma.SecurityScheme{
		Type: "apiKey",
		In:   "header",
		Name: "X-Api-Key",
	}
	security := []map[string][]string{
		{"bearerAuth": {}},
		{"apiKeyAuth": {}},
	}
	oas.Security = security
	healthPath := path.Join("/", basePath, "health")
	submitPath := path.Join("/", basePath, "requests")
	for route, item := range oas.Paths {
		for method, op := range map[string]*huma.Operation{
			http.MethodGet: item.Get, http.MethodPut: item.Put, http.MethodPost: item.Post,
			http.MethodDelete: item.Delete, http.MethodPatch: item.Patch,
		} {
			if op == nil {
				continue
			}
			if route == healthPath || (route == submitPath && method == http.MethodPost) {
				op.Security = []map[string][]string{}
				continue
			}
			op.Security = security
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Linguadesk API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
    <p style="padding: 1rem; font-family: sans-serif; color: #444;">
      Authenticate with Authorization: Bearer &lt;token&gt; or X-Api-Key.
    </p>
  </body>
</html>`, specURL)
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "ok"}}, nil
	})
}

func registerRequests(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "submit-request",
		Method:        http.MethodPost,
		Path:          "/requests",
		Summary:       "Submit interpretation request",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body SubmitRequestRequest `json:"body"`
	}) (*struct {
		Body RequestResponse `json:"body"`
	}, error) {
		req, err := e.SubmitRequest(ctx, engine.SubmitOptions{
			FullName:               input.Body.FullName,
			Email:                  input.Body.Email,
			Phone:                  input.Body.Phone,
			PreferredContactMethod: input.Body.PreferredContactMethod,
			LanguageFrom:           input.Body.LanguageFrom,
			LanguageTo:             input.Body.LanguageTo,
			ServiceType:            input.Body.ServiceType,
			ScheduledAt:            input.Body.ScheduledAt,
			Location:               input.Body.Location,
			DurationMinutes:        input.Body.DurationMinutes,
			InterpreterType:        input.Body.InterpreterType,
			SpecialRequirements:    input.Body.SpecialRequirements,
			Reason:                 input.Body.Reason,
			UrgencyLevel:           input.Body.UrgencyLevel,
			AdditionalNotes:        input.Body.AdditionalNotes,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body RequestResponse `json:"body"`
		}{Body: requestResponse(req)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-requests",
		Method:      http.MethodGet,
		Path:        "/requests",
		Summary:     "List interpretation requests",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []RequestResponse `json:"body"`
	}, error) {
		if _, authErr := requireAdmin(ctx); authErr != nil {
			return nil, authErr
		}
		items, err := e.ListRequests(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []RequestResponse `json:"body"`
		}{Body: mapRequests(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-my-requests",
		Method:      http.MethodGet,
		Path:        "/requests/mine",
		Summary:     "List requests assigned to the caller",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []RequestResponse `json:"body"`
	}, error) {
		principal, authErr := requireInterpreter(ctx)
		if authErr != nil {
			return nil, authErr
		}
		items, err := e.ListRequestsForInterpreter(ctx, principal.SubjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []RequestResponse `json:"body"`
		}{Body: mapRequests(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-request",
		Method:      http.MethodGet,
		Path:        "/requests/{id}",
		Summary:     "Get interpretation request",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body RequestResponse `json:"body"`
	}, error) {
		principal, ok := principalFromContext(ctx)
		if !ok {
			return nil, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		}
		req, err := e.GetRequest(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		if principal.Role != auth.RoleAdmin && !assignedTo(req.InterpreterID, principal) {
			// A request the caller is not assigned to does not exist for them.
			return nil, newAPIError(http.StatusNotFound, "not_found", "not found", nil)
		}
		return &struct {
			Body RequestResponse `json:"body"`
		}{Body: requestResponse(req)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "approve-request",
		Method:      http.MethodPost,
		Path:        "/requests/{id}/approve",
		Summary:     "Approve request and assign interpreter",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		ID   string                `path:"id"`
		Body ApproveRequestRequest `json:"body"`
	}) (*struct {
		Body RequestResponse `json:"body"`
	}, error) {
		principal, authErr := requireAdmin(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if input.Body.InterpreterID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "interpreter_id is required", nil)
		}
		req, err := e.ApproveRequest(ctx, input.ID, input.Body.InterpreterID, input.Body.Amount, principal.SubjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body RequestResponse `json:"body"`
		}{Body: requestResponse(req)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "reject-request",
		Method:      http.MethodPost,
		Path:        "/requests/{id}/reject",
		Summary:     "Reject request",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
		},
	}, func(ctx context.Context, input *struct {
		ID   string               `path:"id"`
		Body RejectRequestRequest `json:"body"`
	}) (*struct {
		Body RequestResponse `json:"body"`
	}, error) {
		principal, authErr := requireAdmin(ctx)
		if authErr != nil {
			return nil, authErr
		}
		req, err := e.RejectRequest(ctx, input.ID, input.Body.Reason, principal.SubjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body RequestResponse `json:"body"`
		}{Body: requestResponse(req)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "request-payment",
		Method:      http.MethodPost,
		Path:        "/requests/{id}/payment-request",
		Summary:     "Send payment request notification",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   string                `path:"id"`
		Body PaymentRequestRequest `json:"body"`
	}) (*struct {
		Body map[string]string `json:"body"`
	}, error) {
		principal, authErr := requireAdmin(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if err := e.RequestPayment(ctx, input.ID, input.Body.Amount, principal.SubjectID); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body map[string]string `json:"body"`
		}{Body: map[string]string{"status": "sent"}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-request-messages",
		Method:      http.MethodGet,
		Path:        "/requests/{id}/messages",
		Summary:     "List a request's message thread",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body []MessageResponse `json:"body"`
	}, error) {
		principal, ok := principalFromContext(ctx)
		if !ok {
			return nil, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		}
		req, err := e.GetRequest(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		if principal.Role != auth.RoleAdmin && !assignedTo(req.InterpreterID, principal) {
			return nil, newAPIError(http.StatusNotFound, "not_found", "not found", nil)
		}
		items, err := e.ListMessagesByRequest(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []MessageResponse `json:"body"`
		}{Body: mapMessages(items)}, nil
	})
}

func assignedTo(interpreterID *string, p Principal) bool {
	return p.Role == auth.RoleInterpreter && interpreterID != nil && *interpreterID == p.SubjectID
}

func registerMessages(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-message",
		Method:        http.MethodPost,
		Path:          "/messages",
		Summary:       "Post message to a request thread",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateMessageRequest `json:"body"`
	}) (*struct {
		Body MessageResponse `json:"body"`
	}, error) {
		principal, authErr := requireInterpreter(ctx)
		if authErr != nil {
			return nil, authErr
		}
		if input.Body.RequestID == "" {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "request_id is required", nil)
		}
		msg, err := e.PostMessage(ctx, input.Body.RequestID, principal.SubjectID, input.Body.Content)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MessageResponse `json:"body"`
		}{Body: messageResponse(msg)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-messages",
		Method:      http.MethodGet,
		Path:        "/messages",
		Summary:     "List messages",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []MessageResponse `json:"body"`
	}, error) {
		if _, authErr := requireAdmin(ctx); authErr != nil {
			return nil, authErr
		}
		items, err := e.ListMessages(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []MessageResponse `json:"body"`
		}{Body: mapMessages(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-message",
		Method:      http.MethodGet,
		Path:        "/messages/{id}",
		Summary:     "Get message",
		Errors:      []int{http.StatusUnauthorized, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body MessageResponse `json:"body"`
	}, error) {
		principal, ok := principalFromContext(ctx)
		if !ok {
			return nil, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		}
		msg, err := e.GetMessage(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		if principal.Role != auth.RoleAdmin && msg.InterpreterID != principal.SubjectID {
			return nil, newAPIError(http.StatusNotFound, "not_found", "not found", nil)
		}
		return &struct {
			Body MessageResponse `json:"body"`
		}{Body: messageResponse(msg)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-message",
		Method:      http.MethodPatch,
		Path:        "/messages/{id}",
		Summary:     "Update message content",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   string               `path:"id"`
		Body UpdateMessageRequest `json:"body"`
	}) (*struct {
		Body MessageResponse `json:"body"`
	}, error) {
		principal, ok := principalFromContext(ctx)
		if !ok {
			return nil, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		}
		existing, err := e.GetMessage(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		if principal.Role != auth.RoleAdmin && existing.InterpreterID != principal.SubjectID {
			return nil, newAPIError(http.StatusForbidden, "forbidden", "only the author can edit a message", nil)
		}
		msg, err := e.UpdateMessage(ctx, input.ID, input.Body.Content, principal.SubjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MessageResponse `json:"body"`
		}{Body: messageResponse(msg)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-message",
		Method:      http.MethodDelete,
		Path:        "/messages/{id}",
		Summary:     "Delete message",
		Errors: []int{
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		principal, ok := principalFromContext(ctx)
		if !ok {
			return nil, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		}
		existing, err := e.GetMessage(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		if principal.Role != auth.RoleAdmin && existing.InterpreterID != principal.SubjectID {
			return nil, newAPIError(http.StatusForbidden, "forbidden", "only the author can delete a message", nil)
		}
		if err := e.DeleteMessage(ctx, input.ID, principal.SubjectID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerInterpreters(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-interpreter",
		Method:        http.MethodPost,
		Path:          "/interpreters",
		Summary:       "Register interpreter profile",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateInterpreterRequest `json:"body"`
	}) (*struct {
		Body InterpreterResponse `json:"body"`
	}, error) {
		principal, authErr := requireAdmin(ctx)
		if authErr != nil {
			return nil, authErr
		}
		it, err := e.CreateInterpreter(ctx, engine.InterpreterOptions{
			Name:      input.Body.Name,
			Email:     input.Body.Email,
			Phone:     input.Body.Phone,
			Country:   input.Body.Country,
			Languages: input.Body.Languages,
		}, principal.SubjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body InterpreterResponse `json:"body"`
		}{Body: interpreterResponse(it)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-interpreters",
		Method:      http.MethodGet,
		Path:        "/interpreters",
		Summary:     "List interpreters",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []InterpreterResponse `json:"body"`
	}, error) {
		if _, authErr := requireAdmin(ctx); authErr != nil {
			return nil, authErr
		}
		items, err := e.ListInterpreters(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []InterpreterResponse `json:"body"`
		}{Body: mapInterpreters(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-interpreter",
		Method:      http.MethodGet,
		Path:        "/interpreters/{id}",
		Summary:     "Get interpreter",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body InterpreterResponse `json:"body"`
	}, error) {
		if _, authErr := requireAdmin(ctx); authErr != nil {
			return nil, authErr
		}
		it, err := e.GetInterpreter(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body InterpreterResponse `json:"body"`
		}{Body: interpreterResponse(it)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-interpreter-status",
		Method:      http.MethodPatch,
		Path:        "/interpreters/{id}/status",
		Summary:     "Update interpreter admission status",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusNotFound,
		},
	}, func(ctx context.Context, input *struct {
		ID   string                      `path:"id"`
		Body SetInterpreterStatusRequest `json:"body"`
	}) (*struct {
		Body InterpreterResponse `json:"body"`
	}, error) {
		principal, authErr := requireAdmin(ctx)
		if authErr != nil {
			return nil, authErr
		}
		it, err := e.SetInterpreterStatus(ctx, input.ID, input.Body.Status, principal.SubjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body InterpreterResponse `json:"body"`
		}{Body: interpreterResponse(it)}, nil
	})
}

func registerMe(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "me",
		Method:      http.MethodGet,
		Path:        "/me",
		Summary:     "Caller identity",
		Errors:      []int{http.StatusUnauthorized},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body map[string]any `json:"body"`
	}, error) {
		principal, ok := principalFromContext(ctx)
		if !ok {
			return nil, newAPIError(http.StatusUnauthorized, "unauthorized", "authentication required", nil)
		}
		body := map[string]any{
			"subject_id": principal.SubjectID,
			"role":       principal.Role,
			"source":     principal.Source,
		}
		if principal.Role == auth.RoleInterpreter {
			if it, err := e.GetInterpreter(ctx, principal.SubjectID); err == nil {
				body["interpreter"] = interpreterResponse(it)
			}
		}
		return &struct {
			Body map[string]any `json:"body"`
		}{Body: body}, nil
	})
}

func registerEvents(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "List recent events",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Limit      int    `query:"limit" default:"50"`
		Type       string `query:"type"`
		EntityKind string `query:"entity_kind"`
		EntityID   string `query:"entity_id"`
	}) (*struct {
		Body []EventResponse `json:"body"`
	}, error) {
		if _, authErr := requireAdmin(ctx); authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.LatestEvents(ctx, input.Limit, input.Type, input.EntityKind, input.EntityID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []EventResponse `json:"body"`
		}{Body: mapEvents(items)}, nil
	})
}

func registerNotifications(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-notifications",
		Method:      http.MethodGet,
		Path:        "/notifications",
		Summary:     "List notification delivery attempts",
		Errors:      []int{http.StatusUnauthorized, http.StatusForbidden},
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit" default:"50"`
	}) (*struct {
		Body []NotificationResponse `json:"body"`
	}, error) {
		if _, authErr := requireAdmin(ctx); authErr != nil {
			return nil, authErr
		}
		items, err := e.Repo.ListNotifications(ctx, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []NotificationResponse `json:"body"`
		}{Body: mapNotifications(items)}, nil
	})
}
