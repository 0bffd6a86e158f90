package store

import (
	"context"

	"github.com/google/uuid"
)

const catalogColumns = `id, name, description, is_active, created_by, created_at, updated_at`

func scanCatalogEntity(row interface{ Scan(dest ...any) error }) (CatalogEntity, error) {
	var e CatalogEntity
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.IsActive, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

// FindActiveEntityByName does the import pipeline's case-insensitive
// substring match. Oldest match wins so repeated imports stay stable.
func (q *Queries) FindActiveEntityByName(ctx context.Context, kind EntityKind, name string) (CatalogEntity, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+catalogColumns+` FROM `+kind.table()+`
		WHERE is_active AND name ILIKE '%' || $1 || '%'
		ORDER BY created_at
		LIMIT 1`, name)
	return scanCatalogEntity(row)
}

func (q *Queries) OldestActiveEntity(ctx context.Context, kind EntityKind) (CatalogEntity, error) {
	row := q.db.QueryRow(ctx, `
		SELECT `+catalogColumns+` FROM `+kind.table()+`
		WHERE is_active
		ORDER BY created_at
		LIMIT 1`)
	return scanCatalogEntity(row)
}

type CreateEntityParams struct {
	Kind        EntityKind
	Name        string
	Description string
	CreatedBy   uuid.UUID
}

func (q *Queries) CreateEntity(ctx context.Context, arg CreateEntityParams) (CatalogEntity, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO `+arg.Kind.table()+` (name, description, is_active, created_by)
		VALUES ($1, $2, TRUE, $3)
		RETURNING `+catalogColumns,
		arg.Name, arg.Description, arg.CreatedBy)
	return scanCatalogEntity(row)
}

func (q *Queries) ListActiveEntities(ctx context.Context, kind EntityKind) ([]CatalogEntity, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+catalogColumns+` FROM `+kind.table()+`
		WHERE is_active
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entities := []CatalogEntity{}
	for rows.Next() {
		e, err := scanCatalogEntity(rows)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}
