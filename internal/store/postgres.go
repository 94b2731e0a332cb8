package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parley-labs/parley/internal/domain"
)

// dbtx is the subset of pgxpool.Pool / pgx.Tx the store needs.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres implements Store over a single chat_records table. Every entity
// lives in the doc JSONB column; the filterable natural-key attributes are
// lifted into plain columns. Each statement touches at most one row, so the
// only atomicity on offer is per-record.
type Postgres struct {
	db dbtx
}

// NewPostgres creates a Postgres store over an injected pool. The pool is
// constructed once at process start and shared; the store never builds its
// own connection.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{db: pool}
}

const recordColumns = `id, record_type, thread_id, owner_user_id, file_name, chunk_index, published, is_deleted, created_at, doc`

func (p *Postgres) Find(ctx context.Context, f Filter, opts FindOptions) ([]Record, error) {
	where, args := buildWhere(f, 0)

	query := fmt.Sprintf(`SELECT %s FROM chat_records WHERE %s`, recordColumns, where)
	switch opts.Sort {
	case SortCreatedAsc:
		query += ` ORDER BY created_at ASC, id ASC`
	case SortCreatedDesc:
		query += ` ORDER BY created_at DESC, id DESC`
	}
	if opts.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, opts.Limit)
	}
	if opts.Skip > 0 {
		query += fmt.Sprintf(` OFFSET %d`, opts.Skip)
	}

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := scanRecord(rows, &rec); err != nil {
			return nil, classify(err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	return records, nil
}

func (p *Postgres) FindOne(ctx context.Context, f Filter) (*Record, error) {
	where, args := buildWhere(f, 0)

	var rec Record
	row := p.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM chat_records WHERE %s LIMIT 1`, recordColumns, where),
		args...,
	)
	if err := scanRecord(row, &rec); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(err)
	}

	return &rec, nil
}

func (p *Postgres) InsertOne(ctx context.Context, rec Record) error {
	_, err := p.db.Exec(ctx,
		`INSERT INTO chat_records (`+recordColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		rec.ID, rec.Type, rec.ThreadID, rec.OwnerID, rec.FileName,
		rec.ChunkIndex, rec.Published, rec.IsDeleted, rec.CreatedAt, rec.Doc,
	)
	return classify(err)
}

func (p *Postgres) UpdateOne(ctx context.Context, f Filter, rec Record, upsert bool) (UpdateResult, error) {
	if !upsert {
		where, args := buildWhere(f, 9)
		tag, err := p.db.Exec(ctx,
			`UPDATE chat_records SET
				record_type = $1, thread_id = $2, owner_user_id = $3,
				file_name = $4, chunk_index = $5, published = $6,
				is_deleted = $7, created_at = $8, doc = $9
			 WHERE id IN (SELECT id FROM chat_records WHERE `+where+` LIMIT 1)`,
			append([]any{
				rec.Type, rec.ThreadID, rec.OwnerID, rec.FileName,
				rec.ChunkIndex, rec.Published, rec.IsDeleted, rec.CreatedAt, rec.Doc,
			}, args...)...,
		)
		if err != nil {
			return UpdateResult{}, classify(err)
		}
		n := tag.RowsAffected()
		return UpdateResult{MatchedCount: n, ModifiedCount: n}, nil
	}

	target, err := conflictTarget(f, rec)
	if err != nil {
		return UpdateResult{}, err
	}

	var id string
	var inserted bool
	err = p.db.QueryRow(ctx,
		`INSERT INTO chat_records (`+recordColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT `+target+` DO UPDATE SET
			id = EXCLUDED.id,
			record_type = EXCLUDED.record_type,
			thread_id = EXCLUDED.thread_id,
			owner_user_id = EXCLUDED.owner_user_id,
			file_name = EXCLUDED.file_name,
			chunk_index = EXCLUDED.chunk_index,
			published = EXCLUDED.published,
			is_deleted = EXCLUDED.is_deleted,
			created_at = EXCLUDED.created_at,
			doc = EXCLUDED.doc
		 RETURNING id, (xmax = 0) AS inserted`,
		rec.ID, rec.Type, rec.ThreadID, rec.OwnerID, rec.FileName,
		rec.ChunkIndex, rec.Published, rec.IsDeleted, rec.CreatedAt, rec.Doc,
	).Scan(&id, &inserted)
	if err != nil {
		return UpdateResult{}, classify(err)
	}

	if inserted {
		return UpdateResult{UpsertedID: id}, nil
	}
	return UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (p *Postgres) FindOneAndUpdate(ctx context.Context, f Filter, rec Record, upsert bool) (*Record, error) {
	if !upsert {
		where, args := buildWhere(f, 9)
		var stored Record
		row := p.db.QueryRow(ctx,
			`UPDATE chat_records SET
				record_type = $1, thread_id = $2, owner_user_id = $3,
				file_name = $4, chunk_index = $5, published = $6,
				is_deleted = $7, created_at = $8, doc = $9
			 WHERE id IN (SELECT id FROM chat_records WHERE `+where+` LIMIT 1)
			 RETURNING `+recordColumns,
			append([]any{
				rec.Type, rec.ThreadID, rec.OwnerID, rec.FileName,
				rec.ChunkIndex, rec.Published, rec.IsDeleted, rec.CreatedAt, rec.Doc,
			}, args...)...,
		)
		if err := scanRecord(row, &stored); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil
			}
			return nil, classify(err)
		}
		return &stored, nil
	}

	target, err := conflictTarget(f, rec)
	if err != nil {
		return nil, err
	}

	var stored Record
	row := p.db.QueryRow(ctx,
		`INSERT INTO chat_records (`+recordColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT `+target+` DO UPDATE SET
			id = EXCLUDED.id,
			record_type = EXCLUDED.record_type,
			thread_id = EXCLUDED.thread_id,
			owner_user_id = EXCLUDED.owner_user_id,
			file_name = EXCLUDED.file_name,
			chunk_index = EXCLUDED.chunk_index,
			published = EXCLUDED.published,
			is_deleted = EXCLUDED.is_deleted,
			created_at = EXCLUDED.created_at,
			doc = EXCLUDED.doc
		 RETURNING `+recordColumns,
		rec.ID, rec.Type, rec.ThreadID, rec.OwnerID, rec.FileName,
		rec.ChunkIndex, rec.Published, rec.IsDeleted, rec.CreatedAt, rec.Doc,
	)
	if err := scanRecord(row, &stored); err != nil {
		return nil, classify(err)
	}

	return &stored, nil
}

func (p *Postgres) MarkDeleted(ctx context.Context, id string) (int64, error) {
	tag, err := p.db.Exec(ctx,
		`UPDATE chat_records
		 SET is_deleted = TRUE, doc = jsonb_set(doc, '{isDeleted}', 'true'::jsonb)
		 WHERE id = $1`,
		id,
	)
	if err != nil {
		return 0, classify(err)
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) DeleteOne(ctx context.Context, f Filter) (int64, error) {
	where, args := buildWhere(f, 0)
	tag, err := p.db.Exec(ctx,
		`DELETE FROM chat_records
		 WHERE id IN (SELECT id FROM chat_records WHERE `+where+` LIMIT 1)`,
		args...,
	)
	if err != nil {
		return 0, classify(err)
	}
	return tag.RowsAffected(), nil
}

// conflictTarget picks the unique index matching the filter's natural key.
// Document metadata and chunk records upsert on their (threadId, fileName[,
// chunkIndex]) keys; everything else upserts on id.
func conflictTarget(f Filter, rec Record) (string, error) {
	if f.ID != "" {
		return `(id)`, nil
	}

	if f.ThreadID != "" && f.FileName != "" {
		switch rec.Type {
		case string(domain.ChatDocumentType):
			return `(thread_id, file_name) WHERE record_type = 'CHAT_DOCUMENT'`, nil
		case string(domain.DocumentChunkType):
			if f.ChunkIndex != nil {
				return `(thread_id, file_name, chunk_index) WHERE record_type = 'DOCUMENT_CHUNK'`, nil
			}
		}
	}

	return "", domain.NewDomainError(domain.ErrCodeInternalError, "upsert filter has no supported natural key")
}

func buildWhere(f Filter, offset int) (string, []any) {
	var conds []string
	var args []any

	add := func(format string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(format, offset+len(args)))
	}

	if f.ID != "" {
		add("id = $%d", f.ID)
	}
	if f.Type != "" {
		add("record_type = $%d", f.Type)
	}
	if f.ThreadID != "" {
		add("thread_id = $%d", f.ThreadID)
	}
	if f.OwnerID != "" {
		add("owner_user_id = $%d", f.OwnerID)
	}
	if f.FileName != "" {
		add("file_name = $%d", f.FileName)
	}
	if f.ChunkIndex != nil {
		add("chunk_index = $%d", *f.ChunkIndex)
	}
	if f.IsDeleted != nil {
		add("is_deleted = $%d", *f.IsDeleted)
	}
	if f.VisibleToUser != "" {
		add("(published OR owner_user_id = $%d)", f.VisibleToUser)
	}

	if len(conds) == 0 {
		return "TRUE", nil
	}
	return strings.Join(conds, " AND "), args
}

func scanRecord(row pgx.Row, rec *Record) error {
	return row.Scan(
		&rec.ID, &rec.Type, &rec.ThreadID, &rec.OwnerID, &rec.FileName,
		&rec.ChunkIndex, &rec.Published, &rec.IsDeleted, &rec.CreatedAt, &rec.Doc,
	)
}

// classify maps driver failures to the domain taxonomy. Anything the
// application cannot resolve at this layer is surfaced as store
// unavailability; callers retry whole operations, not statements.
func classify(err error) error {
	if err == nil {
		return nil
	}
	return domain.NewDomainErrorWithCause(domain.ErrCodeStoreUnavailable, "store operation failed", err)
}
