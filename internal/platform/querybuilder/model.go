package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// InsertModel inserts the db-tagged exported fields of one struct.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	return InsertModels(table, []any{model}, suffix)
}

// InsertModels builds one multi-row insert; every model must share the same type.
func InsertModels[T any](table string, models []T, suffix string) (string, []any, error) {
	if len(models) == 0 {
		return "", nil, fmt.Errorf("insert models are required")
	}

	builder := InsertInto(table).Suffix(suffix)
	var first reflect.Type
	for i, model := range models {
		value, err := structValue(model)
		if err != nil {
			return "", nil, fmt.Errorf("model %d: %w", i, err)
		}
		if first == nil {
			first = value.Type()
		} else if value.Type() != first {
			return "", nil, fmt.Errorf("model %d: type %s differs from %s", i, value.Type(), first)
		}

		fields := taggedFields(value.Type())
		if len(fields) == 0 {
			return "", nil, fmt.Errorf("model %d: no db columns", i)
		}
		if i == 0 {
			columns := make([]string, 0, len(fields))
			for _, f := range fields {
				columns = append(columns, f.column)
			}
			builder.Columns(columns...)
		}
		values := make([]any, 0, len(fields))
		for _, f := range fields {
			values = append(values, value.Field(f.index).Interface())
		}
		builder.Values(values...)
	}
	return builder.ToSQL()
}

type taggedField struct {
	index  int
	column string
}

func structValue(model any) (reflect.Value, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer || value.Kind() == reflect.Interface {
		if value.IsNil() {
			return reflect.Value{}, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("model must be struct, got %s", value.Kind())
	}
	return value, nil
}

func taggedFields(typ reflect.Type) []taggedField {
	out := make([]taggedField, 0, typ.NumField())
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
		out = append(out, taggedField{index: i, column: column})
	}
	return out
}
