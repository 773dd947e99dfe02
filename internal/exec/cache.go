package exec

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/quillmap/quill/internal/sqlmap"
)

// cacheKey derives a stable key from everything that shapes the row set:
// the statement, its final SQL, the bound arguments, and the window.
func cacheKey(id, sql string, args []interface{}, bounds sqlmap.RowBounds) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d:%d\x00", id, sql, bounds.Offset, bounds.Limit)
	for _, a := range args {
		fmt.Fprintf(h, "%v\x00", a)
	}
	return id + ":" + hex.EncodeToString(h.Sum(nil)[:16])
}

func namespaceOf(statementID string) string {
	if i := strings.LastIndex(statementID, "."); i >= 0 {
		return statementID[:i]
	}
	return statementID
}

// cachedRows loads a cached row set, rebuilding each row as the statement's
// declared type. A miss or an undecodable entry reads as a miss.
func (e *Executor) cachedRows(ctx context.Context, ms *sqlmap.MappedStatement, key string) ([]interface{}, bool) {
	ch, ok := e.config.Cache(namespaceOf(ms.ID))
	if !ok {
		return nil, false
	}
	data, err := ch.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false
	}
	rowType := resultType(ms)
	rows := make([]interface{}, 0, len(raw))
	for _, r := range raw {
		row, err := decodeRow(r, rowType)
		if err != nil {
			return nil, false
		}
		rows = append(rows, row)
	}
	return rows, true
}

// storeRows serializes a row set into the namespace cache. Rows that do not
// serialize are simply not cached.
func (e *Executor) storeRows(ctx context.Context, ms *sqlmap.MappedStatement, key string, rows []interface{}) {
	ch, ok := e.config.Cache(namespaceOf(ms.ID))
	if !ok {
		return
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := ch.Set(ctx, key, data, 0); err != nil {
		e.logger.Warn("cache store failed",
			zap.String("statement", ms.ID),
			zap.Error(err))
	}
}

func resultType(ms *sqlmap.MappedStatement) reflect.Type {
	if ms.ResultMap != nil {
		return ms.ResultMap.Type
	}
	return ms.ResultType
}

func decodeRow(data json.RawMessage, typ reflect.Type) (interface{}, error) {
	if typ == nil || typ.Kind() == reflect.Map {
		var row map[string]interface{}
		if err := json.Unmarshal(data, &row); err != nil {
			return nil, err
		}
		return row, nil
	}
	ptr := reflect.New(typ)
	if err := json.Unmarshal(data, ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}
