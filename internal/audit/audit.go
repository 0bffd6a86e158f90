// Package audit records who did what to which record. Writes are best-effort:
// a failed audit insert is logged and never fails the request that caused it.
package audit

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/leadflow-crm/api/internal/middleware"
	"github.com/leadflow-crm/api/internal/store"
)

type Logger struct {
	queries *store.Queries
	log     *slog.Logger
}

func NewLogger(queries *store.Queries, log *slog.Logger) *Logger {
	return &Logger{queries: queries, log: log}
}

type Entry struct {
	ActorID    *uuid.UUID
	Action     string
	EntityType string
	EntityID   string
	Meta       map[string]any
}

func (l *Logger) Record(ctx context.Context, e Entry) {
	var meta []byte
	if e.Meta != nil {
		var err error
		meta, err = json.Marshal(e.Meta)
		if err != nil {
			l.log.Error("audit meta marshal failed", "action", e.Action, "error", err)
			meta = nil
		}
	}

	err := l.queries.InsertAuditLog(ctx, store.InsertAuditLogParams{
		ActorID:    e.ActorID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Meta:       meta,
		RequestID:  middleware.RequestIDFromContext(ctx),
	})
	if err != nil {
		l.log.Error("audit insert failed", "action", e.Action, "entity", e.EntityType, "error", err)
	}
}
