package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"linguadesk/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

const requestColumns = `id,full_name,email,phone,preferred_contact_method,language_from,language_to,service_type,scheduled_at,location,duration_minutes,interpreter_type,special_requirements,reason,urgency_level,additional_notes,status,interpreter_id,amount,payment_status,rejection_reason,created_at,updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (domain.Request, error) {
	var r domain.Request
	var specialReq, additionalNotes, interpreterID, rejectionReason sql.NullString
	var amount sql.NullInt64
	err := row.Scan(&r.ID, &r.FullName, &r.Email, &r.Phone, &r.PreferredContactMethod,
		&r.LanguageFrom, &r.LanguageTo, &r.ServiceType, &r.ScheduledAt, &r.Location,
		&r.DurationMinutes, &r.InterpreterType, &specialReq, &r.Reason, &r.UrgencyLevel,
		&additionalNotes, &r.Status, &interpreterID, &amount, &r.PaymentStatus,
		&rejectionReason, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return r, ErrNotFound
	}
	if err != nil {
		return r, err
	}
	if specialReq.Valid {
		r.SpecialRequirements = specialReq.String
	}
	if additionalNotes.Valid {
		r.AdditionalNotes = additionalNotes.String
	}
	if interpreterID.Valid {
		r.InterpreterID = &interpreterID.String
	}
	if amount.Valid {
		r.Amount = &amount.Int64
	}
	if rejectionReason.Valid {
		r.RejectionReason = rejectionReason.String
	}
	return r, nil
}

func (r Repo) InsertRequest(ctx context.Context, tx *sql.Tx, req domain.Request) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO requests(`+requestColumns+`)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		req.ID, req.FullName, req.Email, req.Phone, req.PreferredContactMethod,
		req.LanguageFrom, req.LanguageTo, req.ServiceType, req.ScheduledAt, req.Location,
		req.DurationMinutes, req.InterpreterType, nullable(req.SpecialRequirements),
		req.Reason, req.UrgencyLevel, nullable(req.AdditionalNotes), req.Status,
		nullableStringPtr(req.InterpreterID), nullableInt64Ptr(req.Amount), req.PaymentStatus,
		nullable(req.RejectionReason), req.CreatedAt, req.UpdatedAt)
	return err
}

func (r Repo) GetRequest(ctx context.Context, id string) (domain.Request, error) {
	return scanRequest(r.DB.QueryRowContext(ctx, `SELECT `+requestColumns+` FROM requests WHERE id=?`, id))
}

func (r Repo) ListRequests(ctx context.Context) ([]domain.Request, error) {
	return r.listRequests(ctx, `SELECT `+requestColumns+` FROM requests ORDER BY created_at DESC, id DESC`)
}

func (r Repo) ListRequestsForInterpreter(ctx context.Context, interpreterID string) ([]domain.Request, error) {
	return r.listRequests(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE status=? AND interpreter_id=? ORDER BY created_at DESC, id DESC`,
		domain.RequestAccepted, interpreterID)
}

func (r Repo) listRequests(ctx context.Context, query string, args ...any) ([]domain.Request, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, req)
	}
	return res, rows.Err()
}

// ApproveRequestTx transitions pending -> accepted, assigning the interpreter
// and price. Returns false when the row was not in pending (lost race or
// already terminal); the caller maps that to a conflict.
func (r Repo) ApproveRequestTx(ctx context.Context, tx *sql.Tx, id, interpreterID string, amount int64, updatedAt string) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE requests SET status=?, interpreter_id=?, amount=?, updated_at=? WHERE id=? AND status=?`,
		domain.RequestAccepted, interpreterID, amount, updatedAt, id, domain.RequestPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// RejectRequestTx transitions pending -> rejected recording the reason.
func (r Repo) RejectRequestTx(ctx context.Context, tx *sql.Tx, id, reason, updatedAt string) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE requests SET status=?, rejection_reason=?, updated_at=? WHERE id=? AND status=?`,
		domain.RequestRejected, reason, updatedAt, id, domain.RequestPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanInterpreter(row rowScanner) (domain.Interpreter, error) {
	var it domain.Interpreter
	var languages string
	err := row.Scan(&it.ID, &it.Name, &it.Email, &it.Phone, &it.Country, &languages, &it.Status, &it.CreatedAt, &it.UpdatedAt)
	if err == sql.ErrNoRows {
		return it, ErrNotFound
	}
	if err != nil {
		return it, err
	}
	if err := json.Unmarshal([]byte(languages), &it.Languages); err != nil {
		return it, err
	}
	return it, nil
}

const interpreterColumns = `id,name,email,phone,country,languages_json,status,created_at,updated_at`

func (r Repo) InsertInterpreter(ctx context.Context, tx *sql.Tx, it domain.Interpreter) error {
	languages, err := json.Marshal(it.Languages)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO interpreters(`+interpreterColumns+`) VALUES (?,?,?,?,?,?,?,?,?)`,
		it.ID, it.Name, it.Email, it.Phone, it.Country, string(languages), it.Status, it.CreatedAt, it.UpdatedAt)
	return err
}

func (r Repo) GetInterpreter(ctx context.Context, id string) (domain.Interpreter, error) {
	return scanInterpreter(r.DB.QueryRowContext(ctx, `SELECT `+interpreterColumns+` FROM interpreters WHERE id=?`, id))
}

func (r Repo) GetInterpreterByEmail(ctx context.Context, email string) (domain.Interpreter, error) {
	return scanInterpreter(r.DB.QueryRowContext(ctx, `SELECT `+interpreterColumns+` FROM interpreters WHERE email=?`, email))
}

func (r Repo) ListInterpreters(ctx context.Context) ([]domain.Interpreter, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+interpreterColumns+` FROM interpreters ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Interpreter
	for rows.Next() {
		it, err := scanInterpreter(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, it)
	}
	return res, rows.Err()
}

func (r Repo) UpdateInterpreterStatus(ctx context.Context, tx *sql.Tx, id, status, updatedAt string) error {
	res, err := tx.ExecContext(ctx, `UPDATE interpreters SET status=?, updated_at=? WHERE id=?`, status, updatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const messageColumns = `id,request_id,interpreter_id,content,created_at,updated_at`

func scanMessage(row rowScanner) (domain.Message, error) {
	var m domain.Message
	err := row.Scan(&m.ID, &m.RequestID, &m.InterpreterID, &m.Content, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return m, ErrNotFound
	}
	return m, err
}

func (r Repo) InsertMessage(ctx context.Context, tx *sql.Tx, m domain.Message) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO messages(`+messageColumns+`) VALUES (?,?,?,?,?,?)`,
		m.ID, m.RequestID, m.InterpreterID, m.Content, m.CreatedAt, m.UpdatedAt)
	return err
}

func (r Repo) GetMessage(ctx context.Context, id string) (domain.Message, error) {
	return scanMessage(r.DB.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE id=?`, id))
}

func (r Repo) ListMessages(ctx context.Context) ([]domain.Message, error) {
	return r.listMessages(ctx, `SELECT `+messageColumns+` FROM messages ORDER BY created_at ASC, id ASC`)
}

func (r Repo) ListMessagesByRequest(ctx context.Context, requestID string) ([]domain.Message, error) {
	return r.listMessages(ctx, `SELECT `+messageColumns+` FROM messages WHERE request_id=? ORDER BY created_at ASC, id ASC`, requestID)
}

func (r Repo) listMessages(ctx context.Context, query string, args ...any) ([]domain.Message, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (r Repo) UpdateMessageContent(ctx context.Context, tx *sql.Tx, id, content, updatedAt string) error {
	res, err := tx.ExecContext(ctx, `UPDATE messages SET content=?, updated_at=? WHERE id=?`, content, updatedAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) DeleteMessage(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r Repo) LatestEvents(ctx context.Context, limit int, evtType, entityKind, entityID string) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id,ts,type,entity_kind,entity_id,actor_id,payload_json FROM events WHERE 1=1`
	var args []any
	if evtType != "" {
		query += " AND type=?"
		args = append(args, evtType)
	}
	if entityKind != "" {
		query += " AND entity_kind=?"
		args = append(args, entityKind)
	}
	if entityID != "" {
		query += " AND entity_id=?"
		args = append(args, entityID)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)
	return r.queryEvents(ctx, query, args...)
}

// EventsAfter returns events with IDs greater than the cursor in ascending order.
func (r Repo) EventsAfter(ctx context.Context, limit int, cursor int64) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.queryEvents(ctx, `SELECT id,ts,type,entity_kind,entity_id,actor_id,payload_json FROM events WHERE id>? ORDER BY id ASC LIMIT ?`, cursor, limit)
}

// LatestEventID returns the most recent event ID.
func (r Repo) LatestEventID(ctx context.Context) (int64, error) {
	var id int64
	err := r.DB.QueryRowContext(ctx, `SELECT COALESCE(MAX(id),0) FROM events`).Scan(&id)
	return id, err
}

func (r Repo) queryEvents(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		var entityID, payload sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &entityID, &e.ActorID, &payload); err != nil {
			return nil, err
		}
		if entityID.Valid {
			e.EntityID = entityID.String
		}
		if payload.Valid {
			e.Payload = payload.String
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (r Repo) ListNotifications(ctx context.Context, limit int) ([]domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, `SELECT id,recipient,template,vars_json,status,error,created_at FROM notifications ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var errText sql.NullString
		if err := rows.Scan(&n.ID, &n.Recipient, &n.Template, &n.VarsJSON, &n.Status, &errText, &n.CreatedAt); err != nil {
			return nil, err
		}
		if errText.Valid {
			n.Error = errText.String
		}
		res = append(res, n)
	}
	return res, rows.Err()
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}

func nullableInt64Ptr(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
