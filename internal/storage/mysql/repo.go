// Package mysql stores records as JSON documents in a single MySQL table,
// partitioned by kind. It is the relational alternative to the Mongo store.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"meiras_yachting/internal/adapters/observability"
	"meiras_yachting/internal/domain"
)

const backend = "mysql"

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func encode(rec domain.Record) ([]byte, error) {
	rec.ID = ""
	return json.Marshal(rec)
}

func decode(id string, doc []byte, kind domain.Kind) (domain.Record, error) {
	var rec domain.Record
	if err := json.Unmarshal(doc, &rec); err != nil {
		return domain.Record{}, err
	}
	rec.ID = id
	return rec.ForKind(kind), nil
}

func (r *Repo) Create(ctx context.Context, kind domain.Kind, rec domain.Record) (out domain.Record, err error) {
	defer func(start time.Time) { observability.ObserveStore(backend, "create", err, time.Since(start)) }(time.Now())

	rec = rec.ForKind(kind)
	if err := rec.Validate(kind); err != nil {
		return domain.Record{}, err
	}
	doc, err := encode(rec)
	if err != nil {
		return domain.Record{}, err
	}
	rec.ID = uuid.NewString()
	if _, err := r.db.ExecContext(ctx, insertRecordSQL, rec.ID, string(kind), string(doc)); err != nil {
		return domain.Record{}, err
	}
	return rec, nil
}

func (r *Repo) GetByID(ctx context.Context, kind domain.Kind, id string) (out domain.Record, err error) {
	defer func(start time.Time) { observability.ObserveStore(backend, "get", err, time.Since(start)) }(time.Now())

	var (
		rid string
		doc []byte
	)
	if err := r.db.QueryRowContext(ctx, getRecordSQL, string(kind), id).Scan(&rid, &doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Record{}, domain.ErrNotFound
		}
		return domain.Record{}, err
	}
	return decode(rid, doc, kind)
}

func (r *Repo) List(ctx context.Context, kind domain.Kind) (out []domain.Record, err error) {
	defer func(start time.Time) { observability.ObserveStore(backend, "list", err, time.Since(start)) }(time.Now())

	rows, err := r.db.QueryContext(ctx, listRecordsSQL, string(kind))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs := []domain.Record{}
	for rows.Next() {
		var (
			id  string
			doc []byte
		)
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, err
		}
		rec, err := decode(id, doc, kind)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *Repo) Replace(ctx context.Context, kind domain.Kind, id string, rec domain.Record) (out domain.Record, err error) {
	defer func(start time.Time) { observability.ObserveStore(backend, "replace", err, time.Since(start)) }(time.Now())

	rec = rec.ForKind(kind)
	if err := rec.Validate(kind); err != nil {
		return domain.Record{}, err
	}
	doc, err := encode(rec)
	if err != nil {
		return domain.Record{}, err
	}
	res, err := r.db.ExecContext(ctx, replaceRecordSQL, string(doc), string(kind), id)
	if err != nil {
		return domain.Record{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.Record{}, err
	}
	if n == 0 {
		// MySQL reports 0 affected rows when nothing changed; tell that apart
		// from a missing row.
		var one int
		if err := r.db.QueryRowContext(ctx, existsRecordSQL, string(kind), id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.Record{}, domain.ErrNotFound
			}
			return domain.Record{}, err
		}
	}
	rec.ID = id
	return rec, nil
}
