package importer

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/leadflow-crm/api/internal/store"
)

// queriesStore adapts store.Queries to the importer's Store, translating
// pgx.ErrNoRows into a plain miss.
type queriesStore struct {
	q *store.Queries
}

func NewQueriesStore(q *store.Queries) Store {
	return queriesStore{q: q}
}

func (s queriesStore) FindActiveEntity(ctx context.Context, kind store.EntityKind, name string) (uuid.UUID, bool, error) {
	entity, err := s.q.FindActiveEntityByName(ctx, kind, name)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return entity.ID, true, nil
}

func (s queriesStore) OldestActiveEntity(ctx context.Context, kind store.EntityKind) (uuid.UUID, bool, error) {
	entity, err := s.q.OldestActiveEntity(ctx, kind)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}
	return entity.ID, true, nil
}

func (s queriesStore) CreateEntity(ctx context.Context, kind store.EntityKind, name, description string, createdBy uuid.UUID) (uuid.UUID, error) {
	entity, err := s.q.CreateEntity(ctx, store.CreateEntityParams{
		Kind:        kind,
		Name:        name,
		Description: description,
		CreatedBy:   createdBy,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return entity.ID, nil
}

func (s queriesStore) BulkInsertLeads(ctx context.Context, leads []store.CreateLeadParams) (int64, error) {
	return s.q.BulkInsertLeads(ctx, leads)
}
