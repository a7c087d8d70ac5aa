package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-booking/internal/model"
)

func (s *Store) appendOutbox(evt *model.OutboxEvent) {
	if evt.ID == uuid.Nil {
		evt.ID = uuid.New()
	}
	now := time.Now().UTC()
	evt.CreatedAt, evt.UpdatedAt = now, now
	evt.Status = model.OutboxStatusPending
	s.outbox = append(s.outbox, copyEvent(evt))
}

func copyEvent(e *model.OutboxEvent) *model.OutboxEvent {
	cp := *e
	cp.Payload = append([]byte(nil), e.Payload...)
	return &cp
}

func (s *Store) findEvent(id uuid.UUID) (*model.OutboxEvent, error) {
	for _, e := range s.outbox {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, fmt.Errorf("outbox event %s: %w", id, model.ErrNotFound)
}

// OutboxEvents returns a snapshot of the outbox, oldest first.
func (s *Store) OutboxEvents() []*model.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.OutboxEvent, 0, len(s.outbox))
	for _, e := range s.outbox {
		out = append(out, copyEvent(e))
	}
	return out
}

type outboxRepository Store

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendOutbox(event)
	return nil
}

func (r *outboxRepository) ClaimPending(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*model.OutboxEvent
	for _, e := range s.outbox {
		if len(out) >= limit {
			break
		}
		if e.Status != model.OutboxStatusPending {
			continue
		}
		e.Status = model.OutboxStatusProcessing
		e.UpdatedAt = time.Now().UTC()
		out = append(out, copyEvent(e))
	}
	return out, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.findEvent(id)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	e.Status = model.OutboxStatusProcessed
	e.ErrorMessage = nil
	e.ProcessedAt = &now
	e.UpdatedAt = now
	return nil
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, maxRetries int) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.findEvent(id)
	if err != nil {
		return err
	}
	e.RetryCount++
	e.ErrorMessage = &errMsg
	e.UpdatedAt = time.Now().UTC()
	if e.RetryCount >= maxRetries {
		e.Status = model.OutboxStatusFailed
	} else {
		e.Status = model.OutboxStatusPending
	}
	return nil
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.outbox[:0]
	var deleted int64
	for _, e := range s.outbox {
		if e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	s.outbox = kept
	return deleted, nil
}
