// Package audit writes one JSON line per session lifecycle event.
package audit

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

const (
	ActionSignIn  = "sign_in"
	ActionSignOut = "sign_out"
	ActionRestore = "session_restore"
)

// Event is one audit record.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	User      string    `json:"user,omitempty"` // user id, or the submitted email for failed sign-ins
	Role      string    `json:"role,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
	TraceID   string    `json:"trace_id,omitempty"`
}

// Logger writes audit events to a dedicated writer, separate from the diagnostic log.
type Logger struct {
	out zerolog.Logger
	now func() time.Time
}

// New returns a Logger writing to w.
func New(w io.Writer) *Logger {
	return &Logger{
		out: zerolog.New(w),
		now: time.Now,
	}
}

// Record writes an event. A nil Logger discards it.
func (l *Logger) Record(ctx context.Context, action, user, role string, err error) {
	if l == nil {
		return
	}

	ev := Event{
		Timestamp: l.now().UTC(),
		Action:    action,
		User:      user,
		Role:      role,
		Success:   err == nil,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		ev.TraceID = sc.TraceID().String()
	}

	l.out.Log().Interface("audit_event", ev).Send()

	log.Ctx(ctx).Debug().Str("action", action).Bool("success", ev.Success).Msg("audit event recorded")
}
