package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"linguadesk/internal/domain"
	"linguadesk/internal/events"
	"linguadesk/internal/notify"
	"linguadesk/internal/repo"
)

// PostMessage appends a message to an approved request's thread. The author is
// the verified caller identity, never taken from the payload. Requests without
// an assigned interpreter have no thread yet.
func (e Engine) PostMessage(ctx context.Context, requestID, authorID, content string) (domain.Message, error) {
	if content == "" {
		return domain.Message{}, ValidationError{Field: "content", Reason: "is required"}
	}
	req, err := e.Repo.GetRequest(ctx, requestID)
	if err != nil {
		return domain.Message{}, err
	}
	if req.InterpreterID == nil {
		return domain.Message{}, ValidationError{Field: "request_id", Reason: "request has no interpreter assigned"}
	}
	author, err := e.Repo.GetInterpreter(ctx, authorID)
	if err != nil {
		return domain.Message{}, err
	}
	now := e.now().UTC().Format(time.RFC3339)
	msg := domain.Message{
		ID:            uuid.New().String(),
		RequestID:     requestID,
		InterpreterID: authorID,
		Content:       content,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Message{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.InsertMessage(ctx, tx, msg); err != nil {
		return domain.Message{}, err
	}
	if err := e.Events.Append(ctx, tx, events.MessagePosted, "message", msg.ID, authorID, events.EventPayload{
		"request_id": requestID,
	}); err != nil {
		return domain.Message{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Message{}, err
	}
	msg.Interpreter = &author
	msg.Request = &req

	e.sendNotification(ctx, req.Email, notify.TemplateMessageCreated, notify.Vars{
		"full_name":        req.FullName,
		"interpreter_name": author.Name,
		"service_type":     req.ServiceType,
		"content":          content,
	})
	return msg, nil
}

// GetMessage returns one message with its author and request populated.
func (e Engine) GetMessage(ctx context.Context, id string) (domain.Message, error) {
	msg, err := e.Repo.GetMessage(ctx, id)
	if err != nil {
		return msg, err
	}
	if err := e.attachAuthor(ctx, &msg); err != nil {
		return msg, err
	}
	req, err := e.Repo.GetRequest(ctx, msg.RequestID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return msg, err
	}
	if err == nil {
		msg.Request = &req
	}
	return msg, nil
}

// ListMessages returns all messages, oldest first, authors populated.
func (e Engine) ListMessages(ctx context.Context) ([]domain.Message, error) {
	msgs, err := e.Repo.ListMessages(ctx)
	if err != nil {
		return nil, err
	}
	return msgs, e.attachAuthors(ctx, msgs)
}

// ListMessagesByRequest returns a request's thread in posting order.
func (e Engine) ListMessagesByRequest(ctx context.Context, requestID string) ([]domain.Message, error) {
	if _, err := e.Repo.GetRequest(ctx, requestID); err != nil {
		return nil, err
	}
	msgs, err := e.Repo.ListMessagesByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return msgs, e.attachAuthors(ctx, msgs)
}

// UpdateMessage replaces a message's content.
func (e Engine) UpdateMessage(ctx context.Context, id, content, actorID string) (domain.Message, error) {
	if content == "" {
		return domain.Message{}, ValidationError{Field: "content", Reason: "is required"}
	}
	msg, err := e.Repo.GetMessage(ctx, id)
	if err != nil {
		return domain.Message{}, err
	}
	now := e.now().UTC().Format(time.RFC3339)
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Message{}, err
	}
	defer tx.Rollback()
	if err := e.Repo.UpdateMessageContent(ctx, tx, id, content, now); err != nil {
		return domain.Message{}, err
	}
	if err := e.Events.Append(ctx, tx, events.MessageUpdated, "message", id, actorID, nil); err != nil {
		return domain.Message{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Message{}, err
	}
	msg.Content = content
	msg.UpdatedAt = now
	return msg, e.attachAuthor(ctx, &msg)
}

// DeleteMessage removes a message from its thread.
func (e Engine) DeleteMessage(ctx context.Context, id, actorID string) error {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Repo.DeleteMessage(ctx, tx, id); err != nil {
		return err
	}
	if err := e.Events.Append(ctx, tx, events.MessageDeleted, "message", id, actorID, nil); err != nil {
		return err
	}
	return tx.Commit()
}

func (e Engine) attachAuthor(ctx context.Context, msg *domain.Message) error {
	it, err := e.Repo.GetInterpreter(ctx, msg.InterpreterID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	msg.Interpreter = &it
	return nil
}

func (e Engine) attachAuthors(ctx context.Context, msgs []domain.Message) error {
	cache := map[string]*domain.Interpreter{}
	for i := range msgs {
		id := msgs[i].InterpreterID
		if it, ok := cache[id]; ok {
			msgs[i].Interpreter = it
			continue
		}
		it, err := e.Repo.GetInterpreter(ctx, id)
		if errors.Is(err, repo.ErrNotFound) {
			cache[id] = nil
			continue
		}
		if err != nil {
			return err
		}
		cache[id] = &it
		msgs[i].Interpreter = &it
	}
	return nil
}
