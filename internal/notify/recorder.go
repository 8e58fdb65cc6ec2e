package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// Recorder wraps a Gateway and persists every delivery attempt to the
// notifications table, sent or failed. The wrapped gateway's error is returned
// unchanged so callers keep their own failure policy.
type Recorder struct {
	DB   *sql.DB
	Next Gateway
	Now  func() time.Time
}

func (r Recorder) Send(ctx context.Context, recipient, template string, vars Vars) error {
	sendErr := r.Next.Send(ctx, recipient, template, vars)

	now := r.Now
	if now == nil {
		now = time.Now
	}
	status := "sent"
	errText := ""
	if sendErr != nil {
		status = "failed"
		errText = sendErr.Error()
	}
	data, err := json.Marshal(vars)
	if err != nil {
		data = []byte("{}")
	}
	_, _ = r.DB.ExecContext(ctx, `INSERT INTO notifications(recipient,template,vars_json,status,error,created_at) VALUES (?,?,?,?,?,?)`,
		recipient, template, string(data), status, nullableStr(errText), now().UTC().Format(time.RFC3339))
	return sendErr
}

func nullableStr(v string) any {
	if v == "" {
		return nil
	}
	return v
}
