package linguadesksdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Linguadesk HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Request represents the API request model.
type Request struct {
	ID              string `json:"id"`
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	LanguageFrom    string `json:"language_from"`
	LanguageTo      string `json:"language_to"`
	ServiceType     string `json:"service_type"`
	ScheduledAt     string `json:"scheduled_at"`
	Status          string `json:"status"`
	InterpreterID   string `json:"interpreter_id,omitempty"`
	Amount          int64  `json:"amount,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// Interpreter represents an interpreter profile.
type Interpreter struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Country   string   `json:"country"`
	Languages []string `json:"languages"`
	Status    string   `json:"status"`
}

// Message represents a thread entry.
type Message struct {
	ID            string `json:"id"`
	RequestID     string `json:"request_id"`
	InterpreterID string `json:"interpreter_id"`
	Content       string `json:"content"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

// SubmitRequestInput carries the public intake fields.
type SubmitRequestInput struct {
	FullName               string `json:"full_name"`
	Email                  string `json:"email"`
	Phone                  string `json:"phone"`
	PreferredContactMethod string `json:"preferred_contact_method"`
	LanguageFrom           string `json:"language_from"`
	LanguageTo             string `json:"language_to"`
	ServiceType            string `json:"service_type"`
	ScheduledAt            string `json:"scheduled_at"`
	Location               string `json:"location"`
	DurationMinutes        int    `json:"duration_minutes"`
	InterpreterType        string `json:"interpreter_type"`
	SpecialRequirements    string `json:"special_requirements,omitempty"`
	Reason                 string `json:"reason"`
	UrgencyLevel           string `json:"urgency_level"`
	AdditionalNotes        string `json:"additional_notes,omitempty"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// SubmitRequest submits a new interpretation request. No auth required.
func (c *Client) SubmitRequest(ctx context.Context, in SubmitRequestInput) (Request, error) {
	var resp Request
	err := c.do(ctx, http.MethodPost, "v1/requests", in, &resp)
	return resp, err
}

// ListRequests returns all requests (admin).
func (c *Client) ListRequests(ctx context.Context) ([]Request, error) {
	var resp []Request
	err := c.do(ctx, http.MethodGet, "v1/requests", nil, &resp)
	return resp, err
}

// MyRequests returns accepted requests assigned to the authenticated interpreter.
func (c *Client) MyRequests(ctx context.Context) ([]Request, error) {
	var resp []Request
	err := c.do(ctx, http.MethodGet, "v1/requests/mine", nil, &resp)
	return resp, err
}

// GetRequest fetches one request.
func (c *Client) GetRequest(ctx context.Context, id string) (Request, error) {
	var resp Request
	err := c.do(ctx, http.MethodGet, "v1/requests/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// ApproveRequest approves a pending request (admin).
func (c *Client) ApproveRequest(ctx context.Context, id, interpreterID string, amount int64) (Request, error) {
	body := map[string]any{"interpreter_id": interpreterID, "amount": amount}
	var resp Request
	err := c.do(ctx, http.MethodPost, "v1/requests/"+url.PathEscape(id)+"/approve", body, &resp)
	return resp, err
}

// RejectRequest rejects a pending request (admin).
func (c *Client) RejectRequest(ctx context.Context, id, reason string) (Request, error) {
	body := map[string]any{"reason": reason}
	var resp Request
	err := c.do(ctx, http.MethodPost, "v1/requests/"+url.PathEscape(id)+"/reject", body, &resp)
	return resp, err
}

// RequestPayment triggers a payment-request notification (admin).
func (c *Client) RequestPayment(ctx context.Context, id string, amount int64) error {
	body := map[string]any{"amount": amount}
	return c.do(ctx, http.MethodPost, "v1/requests/"+url.PathEscape(id)+"/payment-request", body, nil)
}

// PostMessage posts a message to a request thread (interpreter).
func (c *Client) PostMessage(ctx context.Context, requestID, content string) (Message, error) {
	body := map[string]any{"request_id": requestID, "content": content}
	var resp Message
	err := c.do(ctx, http.MethodPost, "v1/messages", body, &resp)
	return resp, err
}

// ThreadMessages returns a request's message thread in posting order.
func (c *Client) ThreadMessages(ctx context.Context, requestID string) ([]Message, error) {
	var resp []Message
	err := c.do(ctx, http.MethodGet, "v1/requests/"+url.PathEscape(requestID)+"/messages", nil, &resp)
	return resp, err
}

// ListInterpreters returns interpreter profiles (admin).
func (c *Client) ListInterpreters(ctx context.Context) ([]Interpreter, error) {
	var resp []Interpreter
	err := c.do(ctx, http.MethodGet, "v1/interpreters", nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
