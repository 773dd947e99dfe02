// Package exec runs mapped statements against a database: it binds input
// properties to placeholders, applies the namespace cache, and materializes
// rows through the statement's result shape.
package exec

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quillmap/quill/internal/loader"
	"github.com/quillmap/quill/internal/sqlmap"
)

// DB is the subset of database/sql both *sql.DB and *sql.Tx satisfy.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Executor runs the statements of one configuration against one database.
type Executor struct {
	db     DB
	config *loader.Configuration
	binder *binder
	logger *zap.Logger
}

// New returns an Executor over db using config's statements.
func New(db DB, config *loader.Configuration) *Executor {
	return &Executor{
		db:     db,
		config: config,
		binder: &binder{
			descriptors: config.Descriptors(),
			handlers:    config.TypeHandlers(),
		},
		logger: config.Logger(),
	}
}

// BindParams converts positional call arguments into the statement input
// value using the declared signature and the configured naming mode.
func (e *Executor) BindParams(sig sqlmap.Signature, args ...interface{}) interface{} {
	names := sqlmap.BuildParamNames(sig, e.config.Settings.UseActualParamNames)
	return names.Bind(args)
}

// SelectOne runs a select expected to match at most one row. No match
// returns nil; more than one is an error.
func (e *Executor) SelectOne(ctx context.Context, id string, param interface{}) (interface{}, error) {
	rows, err := e.SelectBounded(ctx, id, param, sqlmap.NoRowBounds)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return rows[0], nil
	default:
		return nil, &TooManyResultsError{ID: id, Count: len(rows)}
	}
}

// SelectList runs a select and collects every mapped row.
func (e *Executor) SelectList(ctx context.Context, id string, param interface{}) ([]interface{}, error) {
	return e.SelectBounded(ctx, id, param, sqlmap.NoRowBounds)
}

// SelectBounded runs a select collecting only the bounded window of rows.
func (e *Executor) SelectBounded(ctx context.Context, id string, param interface{}, bounds sqlmap.RowBounds) ([]interface{}, error) {
	return e.query(ctx, id, param, bounds, nil)
}

// SelectWithHandler streams each mapped row to handler instead of
// collecting. Handler-driven selects bypass the cache.
func (e *Executor) SelectWithHandler(ctx context.Context, id string, param interface{}, handler sqlmap.ResultHandler) error {
	_, err := e.query(ctx, id, param, sqlmap.NoRowBounds, handler)
	return err
}

func (e *Executor) query(ctx context.Context, id string, param interface{}, bounds sqlmap.RowBounds, handler sqlmap.ResultHandler) ([]interface{}, error) {
	ms, ok := e.config.MappedStatement(id)
	if !ok {
		return nil, &StatementNotFoundError{ID: id}
	}
	if !ms.IsSelect() {
		return nil, fmt.Errorf("exec: statement %q is not a select", id)
	}
	bound := ms.Source.BoundSQL()
	args, err := e.binder.args(bound, param)
	if err != nil {
		return nil, err
	}

	execID := uuid.NewString()
	log := e.logger.With(zap.String("exec_id", execID), zap.String("statement", id))

	cacheable := handler == nil && ms.UseCache && e.config.Settings.CacheEnabled
	var key string
	if cacheable {
		key = cacheKey(id, bound.SQL, args, bounds)
		if rows, ok := e.cachedRows(ctx, ms, key); ok {
			log.Debug("cache hit", zap.Int("rows", len(rows)))
			return rows, nil
		}
	}

	start := time.Now()
	rs, err := e.db.QueryContext(ctx, bound.SQL, args...)
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}
	defer rs.Close()

	mapper := &rowMapper{config: e.config, stmt: ms}
	rows, err := mapper.mapRows(rs, bounds, handler)
	if err != nil {
		return nil, err
	}
	log.Debug("query done",
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", time.Since(start)))

	if cacheable {
		e.storeRows(ctx, ms, key, rows)
	}
	return rows, nil
}

// Update runs a mutating statement and returns the affected row count. The
// namespace cache is cleared when the statement flushes.
func (e *Executor) Update(ctx context.Context, id string, param interface{}) (int64, error) {
	ms, ok := e.config.MappedStatement(id)
	if !ok {
		return 0, &StatementNotFoundError{ID: id}
	}
	if ms.IsSelect() {
		return 0, fmt.Errorf("exec: statement %q is a select", id)
	}
	bound := ms.Source.BoundSQL()
	args, err := e.binder.args(bound, param)
	if err != nil {
		return 0, err
	}

	log := e.logger.With(zap.String("exec_id", uuid.NewString()), zap.String("statement", id))
	if ms.FlushCache {
		if ch, ok := e.config.Cache(namespaceOf(id)); ok {
			if err := ch.Clear(ctx); err != nil {
				log.Warn("cache flush failed", zap.Error(err))
			}
		}
	}

	res, err := e.db.ExecContext(ctx, bound.SQL, args...)
	if err != nil {
		log.Error("exec failed", zap.Error(err))
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		affected = 0
	}
	log.Debug("exec done", zap.Int64("affected", affected))
	return affected, nil
}

// Insert runs an insert statement. It is Update under the statement's
// declared kind.
func (e *Executor) Insert(ctx context.Context, id string, param interface{}) (int64, error) {
	return e.Update(ctx, id, param)
}

// Delete runs a delete statement.
func (e *Executor) Delete(ctx context.Context, id string, param interface{}) (int64, error) {
	return e.Update(ctx, id, param)
}
