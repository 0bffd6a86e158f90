package importer

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/leadflow-crm/api/internal/store"
)

// Store is the slice of the persistence layer the importer needs. A miss is
// reported as found=false, never as an error.
type Store interface {
	FindActiveEntity(ctx context.Context, kind store.EntityKind, name string) (uuid.UUID, bool, error)
	OldestActiveEntity(ctx context.Context, kind store.EntityKind) (uuid.UUID, bool, error)
	CreateEntity(ctx context.Context, kind store.EntityKind, name, description string, createdBy uuid.UUID) (uuid.UUID, error)
	BulkInsertLeads(ctx context.Context, leads []store.CreateLeadParams) (int64, error)
}

// entityResolver maps raw product/source cell values to catalog ids for one
// import run. Lookups are substring, case-insensitive; misses auto-create.
// The per-run cache guarantees a distinct name is created at most once even
// when it repeats across rows.
type entityResolver struct {
	store    Store
	acting   uuid.UUID
	defaults map[store.EntityKind]uuid.UUID
	cache    map[string]uuid.UUID
}

func newEntityResolver(s Store, acting uuid.UUID) *entityResolver {
	return &entityResolver{
		store:    s,
		acting:   acting,
		defaults: map[store.EntityKind]uuid.UUID{},
		cache:    map[string]uuid.UUID{},
	}
}

var defaultEntities = map[store.EntityKind]struct {
	name        string
	description string
}{
	store.EntityProduct: {"General Service", "Default product for CSV uploads"},
	store.EntitySource:  {"CSV Upload", "Default source for CSV uploads"},
}

// bootstrap pins the fallback entity for each kind: the oldest active row,
// created fresh when the active catalog is empty.
func (r *entityResolver) bootstrap(ctx context.Context) error {
	for kind, def := range defaultEntities {
		id, found, err := r.store.OldestActiveEntity(ctx, kind)
		if err != nil {
			return &PersistenceError{Op: "load default " + string(kind), Err: err}
		}
		if !found {
			id, err = r.store.CreateEntity(ctx, kind, def.name, def.description, r.acting)
			if err != nil {
				return &PersistenceError{Op: "create default " + string(kind), Err: err}
			}
		}
		r.defaults[kind] = id
	}
	return nil
}

// resolve returns the catalog id for a raw cell value. Blank values fall
// back to the run's default entity.
func (r *entityResolver) resolve(ctx context.Context, kind store.EntityKind, raw string) (uuid.UUID, error) {
	if raw == "" {
		return r.defaults[kind], nil
	}

	key := string(kind) + "\x00" + strings.ToLower(raw)
	if id, ok := r.cache[key]; ok {
		return id, nil
	}

	id, found, err := r.store.FindActiveEntity(ctx, kind, raw)
	if err != nil {
		return uuid.Nil, &PersistenceError{Op: "find " + string(kind), Err: err}
	}
	if !found {
		id, err = r.store.CreateEntity(ctx, kind, raw, "Auto-created from CSV upload: "+raw, r.acting)
		if err != nil {
			return uuid.Nil, &PersistenceError{Op: "create " + string(kind), Err: err}
		}
	}
	r.cache[key] = id
	return id, nil
}
