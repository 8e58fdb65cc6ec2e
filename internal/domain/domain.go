package domain

const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
)

const (
	AdmissionPending  = "pending"
	AdmissionAccepted = "accepted"
	AdmissionRejected = "rejected"
)

const (
	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

type Request struct {
	ID                     string  `json:"id"`
	FullName               string  `json:"full_name"`
	Email                  string  `json:"email"`
	Phone                  string  `json:"phone"`
	PreferredContactMethod string  `json:"preferred_contact_method"`
	LanguageFrom           string  `json:"language_from"`
	LanguageTo             string  `json:"language_to"`
	ServiceType            string  `json:"service_type"`
	ScheduledAt            string  `json:"scheduled_at" format:"date-time"`
	Location               string  `json:"location"`
	DurationMinutes        int     `json:"duration_minutes"`
	InterpreterType        string  `json:"interpreter_type"`
	SpecialRequirements    string  `json:"special_requirements,omitempty"`
	Reason                 string  `json:"reason"`
	UrgencyLevel           string  `json:"urgency_level" enum:"low,medium,high"`
	AdditionalNotes        string  `json:"additional_notes,omitempty"`
	Status                 string  `json:"status" enum:"pending,accepted,rejected"`
	InterpreterID          *string `json:"interpreter_id,omitempty"`
	Amount                 *int64  `json:"amount,omitempty"`
	PaymentStatus          string  `json:"payment_status" enum:"unpaid,paid"`
	RejectionReason        string  `json:"rejection_reason,omitempty"`
	CreatedAt              string  `json:"created_at" format:"date-time"`
	UpdatedAt              string  `json:"updated_at" format:"date-time"`

	Interpreter *Interpreter `json:"interpreter,omitempty"`
}

type Interpreter struct {
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

type Message struct {
	ID            string `json:"id"`
	RequestID     string `json:"request_id"`
	InterpreterID string `json:"interpreter_id"`
	Content       string `json:"content"`
	CreatedAt     string `json:"created_at" format:"date-time"`
	UpdatedAt     string `json:"updated_at" format:"date-time"`

	Interpreter *Interpreter `json:"interpreter,omitempty"`
	Request     *Request     `json:"request,omitempty"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}

// Notification is a persisted record of one delivery attempt through the
// notification gateway. Delivery itself is best-effort; the record is the audit trail.
type Notification struct {
	ID        int64  `json:"id"`
	Recipient string `json:"recipient"`
	Template  string `json:"template"`
	VarsJSON  string `json:"vars_json"`
	Status    string `json:"status" enum:"sent,failed"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type APIKey struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
