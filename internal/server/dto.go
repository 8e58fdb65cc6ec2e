package server

import (
	"linguadesk/internal/domain"
)

// Request payloads

type SubmitRequestRequest struct {
	FullName               string `json:"full_name"`
	Email                  string `json:"email" format:"email"`
	Phone                  string `json:"phone"`
	PreferredContactMethod string `json:"preferred_contact_method"`
	LanguageFrom           string `json:"language_from"`
	LanguageTo             string `json:"language_to"`
	ServiceType            string `json:"service_type"`
	ScheduledAt            string `json:"scheduled_at" format:"date-time"`
	Location               string `json:"location"`
	DurationMinutes        int    `json:"duration_minutes"`
	InterpreterType        string `json:"interpreter_type"`
	SpecialRequirements    string `json:"special_requirements,omitempty"`
	Reason                 string `json:"reason"`
	UrgencyLevel           string `json:"urgency_level" enum:"low,medium,high"`
	AdditionalNotes        string `json:"additional_notes,omitempty"`
}

type ApproveRequestRequest struct {
	InterpreterID string `json:"interpreter_id"`
	Amount        int64  `json:"amount"`
}

type RejectRequestRequest struct {
	Reason string `json:"reason"`
}

type PaymentRequestRequest struct {
	Amount int64 `json:"amount"`
}

type CreateMessageRequest struct {
	RequestID string `json:"request_id"`
	Content   string `json:"content"`
}

type UpdateMessageRequest struct {
	Content string `json:"content"`
}

type CreateInterpreterRequest struct {
	Name      string   `json:"name"`
	Email     string   `json:"email" format:"email"`
	Phone     string   `json:"phone"`
	Country   string   `json:"country"`
	Languages []string `json:"languages"`
}

type SetInterpreterStatusRequest struct {
	Status string `json:"status" enum:"pending,accepted,rejected"`
}

// Response payloads

type RequestResponse struct {
	ID                     string               `json:"id"`
	FullName               string               `json:"full_name"`
	Email                  string               `json:"email"`
	Phone                  string               `json:"phone"`
	PreferredContactMethod string               `json:"preferred_contact_method"`
	LanguageFrom           string               `json:"language_from"`
	LanguageTo             string               `json:"language_to"`
	ServiceType            string               `json:"service_type"`
	ScheduledAt            string               `json:"scheduled_at" format:"date-time"`
	Location               string               `json:"location"`
	DurationMinutes        int                  `json:"duration_minutes"`
	InterpreterType        string               `json:"interpreter_type"`
	SpecialRequirements    string               `json:"special_requirements,omitempty"`
	Reason                 string               `json:"reason"`
	UrgencyLevel           string               `json:"urgency_level" enum:"low,medium,high"`
	AdditionalNotes        string               `json:"additional_notes,omitempty"`
	Status                 string               `json:"status" enum:"pending,accepted,rejected"`
	InterpreterID          *string              `json:"interpreter_id,omitempty"`
	Amount                 *int64               `json:"amount,omitempty"`
	PaymentStatus          string               `json:"payment_status" enum:"unpaid,paid"`
	RejectionReason        string               `json:"rejection_reason,omitempty"`
	Interpreter            *InterpreterResponse `json:"interpreter,omitempty"`
	CreatedAt              string               `json:"created_at" format:"date-time"`
	UpdatedAt              string               `json:"updated_at" format:"date-time"`
}

type InterpreterResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Country   string   `json:"country"`
	Languages []string `json:"languages"`
	Status    string   `json:"status" enum:"pending,accepted,rejected"`
	CreatedAt string   `json:"created_at" format:"date-time"`
	UpdatedAt string   `json:"updated_at" format:"date-time"`
}

type MessageResponse struct {
	ID            string               `json:"id"`
	RequestID     string               `json:"request_id"`
	InterpreterID string               `json:"interpreter_id"`
	Content       string               `json:"content"`
	Interpreter   *InterpreterResponse `json:"interpreter,omitempty"`
	Request       *RequestResponse     `json:"request,omitempty"`
	CreatedAt     string               `json:"created_at" format:"date-time"`
	UpdatedAt     string               `json:"updated_at" format:"date-time"`
}

type EventResponse struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json,omitempty"`
}

type NotificationResponse struct {
	ID        int64  `json:"id"`
	Recipient string `json:"recipient"`
	Template  string `json:"template"`
	VarsJSON  string `json:"vars_json"`
	Status    string `json:"status" enum:"sent,failed"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

func requestResponse(r domain.Request) RequestResponse {
	resp := RequestResponse{
		ID:                     r.ID,
		FullName:               r.FullName,
		Email:                  r.Email,
		Phone:                  r.Phone,
		PreferredContactMethod: r.PreferredContactMethod,
		LanguageFrom:           r.LanguageFrom,
		LanguageTo:             r.LanguageTo,
		ServiceType:            r.ServiceType,
		ScheduledAt:            r.ScheduledAt,
		Location:               r.Location,
		DurationMinutes:        r.DurationMinutes,
		InterpreterType:        r.InterpreterType,
		SpecialRequirements:    r.SpecialRequirements,
		Reason:                 r.Reason,
		UrgencyLevel:           r.UrgencyLevel,
		AdditionalNotes:        r.AdditionalNotes,
		Status:                 r.Status,
		InterpreterID:          r.InterpreterID,
		Amount:                 r.Amount,
		PaymentStatus:          r.PaymentStatus,
		RejectionReason:        r.RejectionReason,
		CreatedAt:              r.CreatedAt,
		UpdatedAt:              r.UpdatedAt,
	}
	if r.Interpreter != nil {
		it := interpreterResponse(*r.Interpreter)
		resp.Interpreter = &it
	}
	return resp
}

func mapRequests(items []domain.Request) []RequestResponse {
	res := make([]RequestResponse, 0, len(items))
	for _, r := range items {
		res = append(res, requestResponse(r))
	}
	return res
}

func interpreterResponse(it domain.Interpreter) InterpreterResponse {
	return InterpreterResponse{
		ID:        it.ID,
		Name:      it.Name,
		Email:     it.Email,
		Phone:     it.Phone,
		Country:   it.Country,
		Languages: it.Languages,
		Status:    it.Status,
		CreatedAt: it.CreatedAt,
		UpdatedAt: it.UpdatedAt,
	}
}

func mapInterpreters(items []domain.Interpreter) []InterpreterResponse {
	res := make([]InterpreterResponse, 0, len(items))
	for _, it := range items {
		res = append(res, interpreterResponse(it))
	}
	return res
}

func messageResponse(m domain.Message) MessageResponse {
	resp := MessageResponse{
		ID:            m.ID,
		RequestID:     m.RequestID,
		InterpreterID: m.InterpreterID,
		Content:       m.Content,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.Interpreter != nil {
		it := interpreterResponse(*m.Interpreter)
		resp.Interpreter = &it
	}
	if m.Request != nil {
		r := requestResponse(*m.Request)
		resp.Request = &r
	}
	return resp
}

func mapMessages(items []domain.Message) []MessageResponse {
	res := make([]MessageResponse, 0, len(items))
	for _, m := range items {
		res = append(res, messageResponse(m))
	}
	return res
}

func mapEvents(items []domain.Event) []EventResponse {
	res := make([]EventResponse, 0, len(items))
	for _, e := range items {
		res = append(res, EventResponse{
			ID:         e.ID,
			TS:         e.TS,
			Type:       e.Type,
			EntityKind: e.EntityKind,
			EntityID:   e.EntityID,
			ActorID:    e.ActorID,
			Payload:    e.Payload,
		})
	}
	return res
}

func mapNotifications(items []domain.Notification) []NotificationResponse {
	res := make([]NotificationResponse, 0, len(items))
	for _, n := range items {
		res = append(res, NotificationResponse{
			ID:        n.ID,
			Recipient: n.Recipient,
			Template:  n.Template,
			VarsJSON:  n.VarsJSON,
			Status:    n.Status,
			Error:     n.Error,
			CreatedAt: n.CreatedAt,
		})
	}
	return res
}
