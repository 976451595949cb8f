package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/uptrace/bun"

	"github.com/mkoziy/workforce/warehouse/internal/retry"
)

// DefaultChunkSize is used when ChunkOptions.Size is not positive.
const DefaultChunkSize = 1000

// ChunkOptions controls chunked writes. Every chunk commits in its own
// transaction, retried on transient lock errors.
type ChunkOptions struct {
	Size   int
	Retry  retry.Config
	Logger *slog.Logger
	Table  string

	// Final runs inside the last chunk's transaction, after its rows.
	Final func(ctx context.Context, tx bun.Tx) error
	// OnCommit is called after each chunk commits.
	OnCommit func(chunk, rows int)
}

func (o ChunkOptions) size() int {
	if o.Size <= 0 {
		return DefaultChunkSize
	}
	return o.Size
}

type chunkWriter[T any] func(ctx context.Context, tx bun.Tx, chunk []T) error

// writeChunked splits rows and commits each chunk separately. It returns
// the number of rows in committed chunks, which on error is the durable
// partial progress.
func writeChunked[T any](ctx context.Context, db *bun.DB, rows []T, opts ChunkOptions, write chunkWriter[T]) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	size := opts.size()
	total := (len(rows) + size - 1) / size
	written := 0

	for i := 0; i < len(rows); i += size {
		end := min(i+size, len(rows))
		chunk := rows[i:end]
		index := i/size + 1
		last := end == len(rows)

		err := retry.Do(ctx, opts.Retry, func(ctx context.Context) error {
			return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
				if err := write(ctx, tx, chunk); err != nil {
					return err
				}
				if last && opts.Final != nil {
					return opts.Final(ctx, tx)
				}
				return nil
			})
		})
		if err != nil {
			return written, fmt.Errorf("chunk %d/%d of %s: %w", index, total, opts.Table, err)
		}

		written += len(chunk)
		if opts.Logger != nil {
			opts.Logger.Info("chunk committed", "table", opts.Table, "chunk", index, "chunks", total, "rows", len(chunk))
		}
		if opts.OnCommit != nil {
			opts.OnCommit(index, len(chunk))
		}
	}

	return written, nil
}

// InsertChunked appends rows in chunks.
func InsertChunked[T any](ctx context.Context, db *bun.DB, rows []T, opts ChunkOptions) (int, error) {
	return writeChunked(ctx, db, rows, opts, func(ctx context.Context, tx bun.Tx, chunk []T) error {
		_, err := tx.NewInsert().Model(&chunk).Exec(ctx)
		return err
	})
}

// UpsertChunked inserts rows, replacing the update columns of rows that
// conflict on the key columns.
func UpsertChunked[T any](ctx context.Context, db *bun.DB, rows []T, keys, update []string, opts ChunkOptions) (int, error) {
	conflict := "CONFLICT (" + strings.Join(keys, ", ") + ") DO UPDATE"
	return writeChunked(ctx, db, rows, opts, func(ctx context.Context, tx bun.Tx, chunk []T) error {
		q := tx.NewInsert().Model(&chunk).On(conflict)
		for _, col := range update {
			q = q.Set("? = EXCLUDED.?", bun.Ident(col), bun.Ident(col))
		}
		_, err := q.Exec(ctx)
		return err
	})
}

// InsertIgnoreChunked inserts rows, skipping any that conflict on the key
// columns. Existing rows are never modified.
func InsertIgnoreChunked[T any](ctx context.Context, db *bun.DB, rows []T, keys []string, opts ChunkOptions) (int, error) {
	conflict := "CONFLICT (" + strings.Join(keys, ", ") + ") DO NOTHING"
	return writeChunked(ctx, db, rows, opts, func(ctx context.Context, tx bun.Tx, chunk []T) error {
		_, err := tx.NewInsert().Model(&chunk).On(conflict).Returning("NULL").Exec(ctx)
		return err
	})
}
