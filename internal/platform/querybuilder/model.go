package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// dbField is an exported struct field mapped to a column by its db tag.
type dbField struct {
	index  int
	column string
}

var fieldCache sync.Map // reflect.Type -> []dbField

// InsertModel builds a single-row INSERT from the db-tagged fields of model.
// The suffix (usually an ON CONFLICT clause) is appended verbatim and may
// reference the inserted values through EXCLUDED.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	if strings.TrimSpace(table) == "" {
		return "", nil, fmt.Errorf("insert table is required")
	}

	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return "", nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return "", nil, fmt.Errorf("model must be struct, got %s", value.Kind())
	}

	fields := fieldsOf(value.Type())
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("model %s has no db columns", value.Type())
	}

	var b binder
	columns := make([]string, 0, len(fields))
	placeholders := make([]string, 0, len(fields))
	for _, f := range fields {
		columns = append(columns, f.column)
		placeholders = append(placeholders, b.bind(value.Field(f.index).Interface()))
	}

	query := "INSERT INTO " + table + " (" + strings.Join(columns, ", ") + ") VALUES (" + strings.Join(placeholders, ", ") + ")"
	if suffix = strings.TrimSpace(suffix); suffix != "" {
		query += " " + suffix
	}
	return query, b.args, nil
}

func fieldsOf(typ reflect.Type) []dbField {
	if cached, ok := fieldCache.Load(typ); ok {
		return cached.([]dbField)
	}

	fields := make([]dbField, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		column, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		column = strings.TrimSpace(column)
		if column == "" || column == "-" {
			continue
		}
		fields = append(fields, dbField{index: i, column: column})
	}
	fieldCache.Store(typ, fields)
	return fields
}
