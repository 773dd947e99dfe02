package exec

import (
	"database/sql"
	"reflect"
	"strings"

	"github.com/quillmap/quill/internal/loader"
	"github.com/quillmap/quill/internal/reflection"
	"github.com/quillmap/quill/internal/sqlmap"
)

// rowMapper materializes result rows into the statement's declared shape,
// either through an explicit result map or by auto-mapping columns onto
// properties.
type rowMapper struct {
	config *loader.Configuration
	stmt   *sqlmap.MappedStatement
}

// mapRows walks the row set, materializing each row and handing it to the
// handler when one is set, collecting it otherwise. Bounds window the rows
// after materialization order is fixed, before collection.
func (m *rowMapper) mapRows(rows *sql.Rows, bounds sqlmap.RowBounds, handler sqlmap.ResultHandler) ([]interface{}, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []interface{}
	seen := 0
	for rows.Next() {
		holders := make([]interface{}, len(cols))
		for i := range holders {
			holders[i] = new(interface{})
		}
		if err := rows.Scan(holders...); err != nil {
			return nil, err
		}
		if seen < bounds.Offset {
			seen++
			continue
		}
		if bounds.Limit >= 0 && seen-bounds.Offset >= bounds.Limit {
			break
		}
		seen++
		values := make([]interface{}, len(cols))
		for i, h := range holders {
			values[i] = *(h.(*interface{}))
		}
		row, err := m.mapRow(cols, values)
		if err != nil {
			return nil, err
		}
		if handler != nil {
			if err := handler.HandleResult(row); err != nil {
				return nil, err
			}
			continue
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (m *rowMapper) mapRow(cols []string, values []interface{}) (interface{}, error) {
	if m.stmt.ResultMap != nil {
		return m.mapWithResultMap(m.stmt.ResultMap, cols, values)
	}
	return m.mapWithResultType(m.stmt.ResultType, cols, values)
}

func (m *rowMapper) mapWithResultMap(rm *sqlmap.ResultMap, cols []string, values []interface{}) (interface{}, error) {
	desc, err := m.config.Descriptors().Descriptor(rm.Type)
	if err != nil {
		return nil, err
	}
	inst, err := desc.Instantiate()
	if err != nil {
		return nil, err
	}
	obj := inst.Interface()
	target := reflection.MetaObjectFor(obj, m.config.Descriptors())
	index := columnIndex(cols)

	for _, mapping := range rm.Mappings {
		if mapping.NestedResultMap != "" {
			nested, ok := m.config.ResultMap(mapping.NestedResultMap)
			if !ok {
				continue
			}
			child, err := m.mapWithResultMap(nested, cols, values)
			if err != nil {
				return nil, err
			}
			if err := target.SetValue(mapping.Property, child); err != nil {
				return nil, err
			}
			continue
		}
		column := mapping.Column
		if column == "" {
			column = mapping.Property
		}
		idx, ok := index[strings.ToLower(column)]
		if !ok {
			continue
		}
		converted, err := m.convert(values[idx], mapping.Type, desc, mapping.Property)
		if err != nil {
			return nil, err
		}
		if err := target.SetValue(mapping.Property, converted); err != nil {
			return nil, err
		}
	}

	if rm.AutoMapping && m.config.Settings.AutoMappingEnabled {
		if err := m.autoMap(target, desc, rm.MappedColumns, cols, values); err != nil {
			return nil, err
		}
	}
	return finalize(inst, rm.Type), nil
}

// autoMap assigns unclaimed columns to properties matched case-insensitively,
// with underscores stripped when the setting asks for it.
func (m *rowMapper) autoMap(target *reflection.MetaObject, desc *reflection.Descriptor, claimed map[string]bool, cols []string, values []interface{}) error {
	for i, col := range cols {
		if claimed != nil && claimed[strings.ToLower(col)] {
			continue
		}
		name := col
		if m.config.Settings.MapUnderscoreToCamelCase {
			name = strings.ReplaceAll(name, "_", "")
		}
		prop, ok := desc.FindPropertyName(name)
		if !ok || !desc.HasSetter(prop) {
			continue
		}
		converted, err := m.convert(values[i], nil, desc, prop)
		if err != nil {
			return err
		}
		if err := target.SetValue(prop, converted); err != nil {
			return err
		}
	}
	return nil
}

func (m *rowMapper) mapWithResultType(typ reflect.Type, cols []string, values []interface{}) (interface{}, error) {
	switch {
	case typ == nil || typ.Kind() == reflect.Map:
		row := make(map[string]interface{}, len(cols))
		for i, col := range cols {
			row[col] = normalize(values[i])
		}
		return row, nil
	case typ.Kind() == reflect.Struct:
		rm := sqlmap.NewResultMap(m.stmt.ID+"-inline", typ, nil, true, m.stmt.Resource)
		return m.mapWithResultMap(rm, cols, values)
	default:
		if len(values) == 0 {
			return nil, nil
		}
		return m.config.TypeHandlers().Convert(normalize(values[0]), typ)
	}
}

// convert coerces a driver value to the mapping's declared type, falling
// back to the property's setter type when the mapping declares none.
func (m *rowMapper) convert(value interface{}, declared reflect.Type, desc *reflection.Descriptor, property string) (interface{}, error) {
	target := declared
	if target == nil {
		if t, err := desc.SetterType(property); err == nil {
			target = t
		}
	}
	value = normalize(value)
	if target == nil || value == nil {
		return value, nil
	}
	return m.config.TypeHandlers().Convert(value, target)
}

// normalize rewrites raw driver byte slices as strings so they convert and
// compare like the text they carry.
func normalize(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func columnIndex(cols []string) map[string]int {
	index := make(map[string]int, len(cols))
	for i, col := range cols {
		index[strings.ToLower(col)] = i
	}
	return index
}

// finalize unwraps the pointer Instantiate added for struct shapes so rows
// come back as values of the declared type.
func finalize(inst reflect.Value, typ reflect.Type) interface{} {
	if typ.Kind() == reflect.Struct && inst.Kind() == reflect.Ptr {
		return inst.Elem().Interface()
	}
	return inst.Interface()
}
