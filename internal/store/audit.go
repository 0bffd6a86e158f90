package store

import (
	"context"

	"github.com/google/uuid"
)

type InsertAuditLogParams struct {
	ActorID    *uuid.UUID
	Action     string
	EntityType string
	EntityID   string
	Meta       []byte
	RequestID  string
}

func (q *Queries) InsertAuditLog(ctx context.Context, arg InsertAuditLogParams) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO audit_log (actor_id, action, entity_type, entity_id, meta, request_id)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		arg.ActorID, arg.Action, arg.EntityType, arg.EntityID, arg.Meta, arg.RequestID)
	return err
}
