package io

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"csvrows/internal/config"
	"csvrows/internal/logging"
	"csvrows/internal/util"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultDbTimeout = 5 * time.Minute
	rollbackTimeout  = 5 * time.Second
)

// dbPool is the part of *pgxpool.Pool the writer uses.
type dbPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Close()
}

// pgxPoolNewFunc opens the pool; tests replace it.
var pgxPoolNewFunc = func(ctx context.Context, connStr string) (dbPool, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// PostgresWriter loads records into a PostgreSQL table, either with COPY FROM or with a
// custom SQL command run once per record.
type PostgresWriter struct {
	connStr     string
	targetTable string
	loaderCfg   *config.LoaderConfig
}

// NewPostgresWriter creates a PostgresWriter. loaderCfg may be nil.
func NewPostgresWriter(connStr, targetTable string, loaderCfg *config.LoaderConfig) *PostgresWriter {
	return &PostgresWriter{connStr: connStr, targetTable: targetTable, loaderCfg: loaderCfg}
}

// Write loads records into the configured table. The connection is opened and closed
// within the call.
func (pw *PostgresWriter) Write(records []map[string]interface{}, _ string) error {
	if len(records) == 0 {
		logging.Logf(logging.Info, "PostgresWriter: No records to write to table '%s'. Skipping.", pw.targetTable)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultDbTimeout)
	defer cancel()

	connStr := util.ExpandEnvUniversal(pw.connStr)
	pool, err := pgxPoolNewFunc(ctx, connStr)
	if err != nil {
		masked := util.MaskCredentials(connStr)
		logging.Logf(logging.Error, "PostgresWriter failed to create connection pool: %s", masked)
		return fmt.Errorf("PostgresWriter failed to create connection pool (using %s): %w", masked, err)
	}
	defer pool.Close()

	if !pw.customSQL() {
		return pw.loadUsingCopy(ctx, pool, records)
	}

	if err := pw.execInTx(ctx, pool, pw.loaderCfg.Preload, "preload"); err != nil {
		return err
	}
	if err := pw.loadWithCustomSQL(ctx, pool, records); err != nil {
		return err
	}
	return pw.execInTx(ctx, pool, pw.loaderCfg.Postload, "postload")
}

// Close is a no-op; the pool lives only for one Write.
func (pw *PostgresWriter) Close() error {
	return nil
}

func (pw *PostgresWriter) customSQL() bool {
	return pw.loaderCfg != nil && strings.ToLower(pw.loaderCfg.Mode) == config.LoaderModeSQL
}

// withTx runs fn in a transaction, committing on success and rolling back otherwise.
func withTx(ctx context.Context, pool dbPool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", timeoutErr(ctx, err))
	}
	if err := fn(tx); err != nil {
		rbCtx, rbCancel := context.WithTimeout(context.Background(), rollbackTimeout)
		defer rbCancel()
		if rbErr := tx.Rollback(rbCtx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			logging.Logf(logging.Error, "PostgresWriter: failed to roll back transaction: %v", rbErr)
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", timeoutErr(ctx, err))
	}
	return nil
}

// timeoutErr prefers the context error when the deadline caused err.
func timeoutErr(ctx context.Context, err error) error {
	if ctx.Err() != nil && !errors.Is(err, ctx.Err()) {
		return fmt.Errorf("%w (%v)", ctx.Err(), err)
	}
	return err
}

// execInTx runs preload or postload commands in one transaction.
func (pw *PostgresWriter) execInTx(ctx context.Context, pool dbPool, commands []string, stage string) error {
	if len(commands) == 0 {
		return nil
	}
	err := withTx(ctx, pool, func(tx pgx.Tx) error {
		for i, cmd := range commands {
			logging.Logf(logging.Debug, "Executing %s command #%d: %s", stage, i+1, cmd)
			if _, err := tx.Exec(ctx, cmd); err != nil {
				return fmt.Errorf("command #%d failed ('%s'): %w", i+1, cmd, timeoutErr(ctx, err))
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("PostgresWriter (%s): %w", stage, err)
	}
	logging.Logf(logging.Info, "PostgresWriter (%s): executed %d commands.", stage, len(commands))
	return nil
}

// loadUsingCopy inserts all records with COPY FROM, columns in sorted order.
func (pw *PostgresWriter) loadUsingCopy(ctx context.Context, pool dbPool, records []map[string]interface{}) error {
	columns := columnsOf(records)
	rows := make([][]interface{}, len(records))
	for i, rec := range records {
		rows[i] = rowValues(rec, columns)
	}
	logging.Logf(logging.Debug, "PostgresWriter (COPY): columns for table '%s': %v", pw.targetTable, columns)

	count, err := pool.CopyFrom(ctx, tableIdentifier(pw.targetTable), columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			logging.Logf(logging.Error, "PostgresWriter (COPY) failed for table '%s'. PG Error Code: %s, Message: %s, Detail: %s", pw.targetTable, pgErr.Code, pgErr.Message, pgErr.Detail)
		}
		return fmt.Errorf("PostgresWriter (COPY) failed for table '%s': %w", pw.targetTable, timeoutErr(ctx, err))
	}
	if count != int64(len(records)) {
		logging.Logf(logging.Warning, "PostgresWriter (COPY): expected to copy %d rows to table '%s', driver reported %d.", len(records), pw.targetTable, count)
	} else {
		logging.Logf(logging.Info, "PostgresWriter (COPY): inserted %d rows into table '%s'.", count, pw.targetTable)
	}
	return nil
}

// loadWithCustomSQL runs the loader command once per record, with the record's values as
// positional parameters in sorted column order. With a positive batch size each batch
// is one transaction and any failure aborts the load. Otherwise every record gets its
// own transaction and failures are logged and skipped.
func (pw *PostgresWriter) loadWithCustomSQL(ctx context.Context, pool dbPool, records []map[string]interface{}) error {
	if pw.loaderCfg.Command == "" {
		return fmt.Errorf("PostgresWriter (SQL): loader command is missing")
	}
	columns := columnsOf(records)
	command := pw.loaderCfg.Command
	logging.Logf(logging.Debug, "PostgresWriter (SQL): parameter order for command: %v", columns)

	batchSize := pw.loaderCfg.BatchSize
	if batchSize <= 0 {
		failed := 0
		for i, rec := range records {
			if ctx.Err() != nil {
				return fmt.Errorf("PostgresWriter (SQL): cancelled before record %d: %w", i, ctx.Err())
			}
			err := withTx(ctx, pool, func(tx pgx.Tx) error {
				_, err := tx.Exec(ctx, command, rowValues(rec, columns)...)
				return err
			})
			if err != nil {
				if ctx.Err() != nil {
					return fmt.Errorf("PostgresWriter (SQL): record %d: %w", i, timeoutErr(ctx, err))
				}
				failed++
				logging.Logf(logging.Error, "PostgresWriter (SQL): record %d failed: %v. Record data (masked): %v", i, err, util.MaskSensitiveData(rec))
			}
		}
		if failed > 0 {
			logging.Logf(logging.Warning, "PostgresWriter (SQL): %d of %d records failed for table '%s'.", failed, len(records), pw.targetTable)
		} else {
			logging.Logf(logging.Info, "PostgresWriter (SQL): executed command for all %d records.", len(records))
		}
		return nil
	}

	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]
		err := withTx(ctx, pool, func(tx pgx.Tx) error {
			batch := &pgx.Batch{}
			for _, rec := range chunk {
				batch.Queue(command, rowValues(rec, columns)...)
			}
			br := tx.SendBatch(ctx, batch)
			for k := range chunk {
				if _, err := br.Exec(); err != nil {
					_ = br.Close()
					return fmt.Errorf("record %d failed: %w", start+k, timeoutErr(ctx, err))
				}
			}
			return br.Close()
		})
		if err != nil {
			return fmt.Errorf("PostgresWriter (SQL): batch %d-%d failed: %w", start, end-1, err)
		}
		logging.Logf(logging.Debug, "PostgresWriter (SQL): committed batch %d-%d.", start, end-1)
	}
	logging.Logf(logging.Info, "PostgresWriter (SQL): executed command for all %d records in batches of %d.", len(records), batchSize)
	return nil
}

// tableIdentifier splits "schema.table" so each part is quoted separately.
func tableIdentifier(name string) pgx.Identifier {
	return pgx.Identifier(strings.Split(name, "."))
}
