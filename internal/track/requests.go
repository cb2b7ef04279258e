// ABOUTME: Request record manager - registration, completion, idempotent cancellation
// ABOUTME: Maintains the derived "processing" flag other components poll for outstanding work

package track

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/2389/quill/internal/state"
)

// ErrRequestNotFound indicates an id with no live record.
var ErrRequestNotFound = errors.New("request not found")

// ErrUnknownProvider indicates a provider outside the enumerated list.
var ErrUnknownProvider = errors.New("unknown provider")

// Status is the lifecycle state of a request record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

// Providers enumerates the accepted provider names.
var Providers = []string{"anthropic", "openai", "google", "local"}

// Request is one tracked asynchronous operation. A record exists from
// registration until its completion callback has run, never longer.
type Request struct {
	ID         string
	Status     Status
	CreatedAt  time.Time
	FinishedAt time.Time
	Provider   string
	Model      string
	Payload    any
	Result     any
	Error      string
}

// Journal receives request lifecycle events for persistence. A nil journal
// disables persistence.
type Journal interface {
	Begin(req Request) error
	Finish(req Request) error
}

const (
	itemsPath      = "requests.items"
	processingPath = "requests.processing"
)

// Requests manages the request records in the state store.
type Requests struct {
	store   *state.Store
	journal Journal
	logger  *slog.Logger
}

// NewRequests creates a request manager on the given store.
// Pass nil journal to skip persistence, nil logger for the default.
func NewRequests(store *state.Store, journal Journal, logger *slog.Logger) *Requests {
	if logger == nil {
		logger = slog.Default()
	}
	return &Requests{
		store:   store,
		journal: journal,
		logger:  logger.With("component", "requests"),
	}
}

// Register creates a pending record and returns its id.
// The provider must be in the enumerated list and the model non-empty.
func (r *Requests) Register(provider, model string, payload any) (string, error) {
	if !slices.Contains(Providers, provider) {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, provider)
	}
	if model == "" {
		return "", fmt.Errorf("model is required")
	}

	id := uuid.New().String()
	req := Request{
		ID:        id,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
		Provider:  provider,
		Model:     model,
		Payload:   payload,
	}

	if ok, reason := r.store.Set(itemsPath+"."+id, encode(req), nil); !ok {
		return "", fmt.Errorf("storing request: %s", reason)
	}
	r.recomputeProcessing()

	if r.journal != nil {
		if err := r.journal.Begin(req); err != nil {
			r.logger.Warn("journal begin failed", "request_id", id, "error", err)
		}
	}

	r.logger.Debug("request registered",
		"request_id", id,
		"provider", provider,
		"model", model)
	return id, nil
}

// Complete marks a pending record completed with its result.
func (r *Requests) Complete(id string, result any) error {
	return r.finish(id, StatusCompleted, result, "")
}

// Fail marks a pending record errored.
func (r *Requests) Fail(id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return r.finish(id, StatusError, nil, msg)
}

// Cancel marks a pending record cancelled and clears it. Cancellation is
// idempotent: cancelling an unknown, already-finished, or already-cancelled
// request is a no-op returning false, and the cleanup side effects run
// exactly once.
func (r *Requests) Cancel(id string) bool {
	req, err := r.Get(id)
	if err != nil || req.Status != StatusPending {
		return false
	}
	if err := r.finish(id, StatusCancelled, nil, ""); err != nil {
		return false
	}
	if err := r.Clear(id); err != nil {
		r.logger.Warn("clearing cancelled request", "request_id", id, "error", err)
	}
	r.logger.Debug("request cancelled", "request_id", id)
	return true
}

// Clear removes a record after its callback has run and recomputes the
// processing flag.
func (r *Requests) Clear(id string) error {
	if _, err := r.Get(id); err != nil {
		return err
	}
	r.store.Delete(itemsPath + "." + id)
	r.recomputeProcessing()
	return nil
}

// Get returns the record for id.
func (r *Requests) Get(id string) (Request, error) {
	raw, err := r.store.Get(itemsPath + "." + id)
	if err != nil {
		return Request{}, fmt.Errorf("%w: %q", ErrRequestNotFound, id)
	}
	return decode(id, raw), nil
}

// All returns every live record.
func (r *Requests) All() []Request {
	raw, err := r.store.Get(itemsPath)
	if err != nil {
		return nil
	}
	items, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	out := make([]Request, 0, len(items))
	for id, v := range items {
		out = append(out, decode(id, v))
	}
	slices.SortFunc(out, func(a, b Request) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

// Processing reports whether any request is outstanding. This derived flag
// is the single source of truth other components poll.
func (r *Requests) Processing() bool {
	raw, err := r.store.Get(processingPath)
	if err != nil {
		return false
	}
	b, _ := raw.(bool)
	return b
}

func (r *Requests) finish(id string, status Status, result any, errMsg string) error {
	req, err := r.Get(id)
	if err != nil {
		return err
	}
	if req.Status != StatusPending {
		return fmt.Errorf("request %q already %s", id, req.Status)
	}
	req.Status = status
	req.FinishedAt = time.Now().UTC()
	req.Result = result
	req.Error = errMsg

	if ok, reason := r.store.Set(itemsPath+"."+id, encode(req), nil); !ok {
		return fmt.Errorf("storing request: %s", reason)
	}
	if r.journal != nil {
		if err := r.journal.Finish(req); err != nil {
			r.logger.Warn("journal finish failed", "request_id", id, "error", err)
		}
	}
	return nil
}

// recomputeProcessing counts remaining pending entries and stores the flag.
func (r *Requests) recomputeProcessing() {
	pending := 0
	for _, req := range r.All() {
		if req.Status == StatusPending {
			pending++
		}
	}
	r.store.Set(processingPath, pending > 0, nil)
}

func encode(req Request) map[string]any {
	return map[string]any{
		"status":      string(req.Status),
		"created_at":  req.CreatedAt,
		"finished_at": req.FinishedAt,
		"provider":    req.Provider,
		"model":       req.Model,
		"payload":     req.Payload,
		"result":      req.Result,
		"error":       req.Error,
	}
}

func decode(id string, raw any) Request {
	m, ok := raw.(map[string]any)
	if !ok {
		return Request{ID: id}
	}
	req := Request{ID: id}
	if s, ok := m["status"].(string); ok {
		req.Status = Status(s)
	}
	if ts, ok := m["created_at"].(time.Time); ok {
		req.CreatedAt = ts
	}
	if ts, ok := m["finished_at"].(time.Time); ok {
		req.FinishedAt = ts
	}
	if s, ok := m["provider"].(string); ok {
		req.Provider = s
	}
	if s, ok := m["model"].(string); ok {
		req.Model = s
	}
	req.Payload = m["payload"]
	req.Result = m["result"]
	if s, ok := m["error"].(string); ok {
		req.Error = s
	}
	return req
}
