package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"pension_site/internal/domain"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) UpsertContent(ctx context.Context, c domain.ContentRecord) error {
	if len(c.RawJSON) == 0 {
		return fmt.Errorf("upsert content %d: empty document", c.PropertyID)
	}
	_, err := r.db.ExecContext(ctx, upsertContentSQL,
		c.PropertyID,
		valStr(c.Name),
		string(c.RawJSON),
		c.FetchedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert content %d: %w", c.PropertyID, err)
	}
	return nil
}

func (r *Repo) LogMiss(ctx context.Context, id int64, status int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertMissSQL, id, status, reason)
	return err
}

func (r *Repo) GetContent(ctx context.Context, id int64) (domain.ContentRecord, error) {
	var (
		rec  domain.ContentRecord
		name sql.NullString
		raw  []byte
	)
	err := r.db.QueryRowContext(ctx, getContentSQL, id).Scan(&rec.PropertyID, &name, &raw, &rec.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ContentRecord{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ContentRecord{}, fmt.Errorf("get content %d: %w", id, err)
	}
	if name.Valid {
		n := name.String
		rec.Name = &n
	}
	rec.RawJSON = raw
	return rec, nil
}

func (r *Repo) ListProperties(ctx context.Context, q domain.PropertiesQuery) (domain.PropertiesPage, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	after := int64(0)
	if q.Cursor != nil {
		after = *q.Cursor
	}

	// one extra row tells whether another page exists
	rows, err := r.db.QueryContext(ctx, listPropertiesSQL, after, limit+1)
	if err != nil {
		return domain.PropertiesPage{}, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var out []domain.PropertySummary
	for rows.Next() {
		var (
			ps      domain.PropertySummary
			name    sql.NullString
			fetched sql.NullTime
		)
		if err := rows.Scan(&ps.ID, &name, &fetched); err != nil {
			return domain.PropertiesPage{}, err
		}
		if name.Valid {
			n := name.String
			ps.Name = &n
		}
		if fetched.Valid {
			ps.FetchedAt = fetched.Time.UTC().Format(time.RFC3339)
		}
		out = append(out, ps)
	}
	if err := rows.Err(); err != nil {
		return domain.PropertiesPage{}, err
	}

	page := domain.PropertiesPage{Items: out}
	if len(out) > limit {
		page.Items = out[:limit]
		next := out[limit-1].ID
		page.NextCursor = &next
	}
	return page, nil
}
