package executor

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"sql-executor/internal/db"
)

// MapRows maps normalized rows onto values of T by matching column
// names to exported struct fields, via the `db` tag first and a
// case-insensitive field-name match second. Columns without a matching
// field are ignored; NULL columns leave the field at its zero value.
func MapRows[T any](rows []db.Row) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		var item T
		if err := mapRow(row, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// MapBatches drains a batch stream, mapping every batch onto T. The
// stream is closed before returning.
func MapBatches[T any](ctx context.Context, stream *BatchStream) ([][]T, error) {
	defer stream.Close(ctx)
	var out [][]T
	for stream.Next(ctx) {
		batch, err := MapRows[T](stream.Batch())
		if err != nil {
			return out, err
		}
		out = append(out, batch)
	}
	if err := stream.Err(); err != nil {
		return out, err
	}
	return out, stream.Close(ctx)
}

func mapRow(row db.Row, dest any) error {
	v := reflect.ValueOf(dest).Elem()
	t := v.Type()
	if t.Kind() != reflect.Struct {
		return fmt.Errorf("cannot map row into %s, want a struct", t)
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		val, ok := lookupColumn(row, field)
		if !ok || val == nil {
			continue
		}
		if err := assign(v.Field(i), val); err != nil {
			return fmt.Errorf("column for field %s.%s: %w", t.Name(), field.Name, err)
		}
	}
	return nil
}

func lookupColumn(row db.Row, field reflect.StructField) (any, bool) {
	if tag, ok := field.Tag.Lookup("db"); ok && tag != "" && tag != "-" {
		v, ok := row[tag]
		return v, ok
	}
	if v, ok := row[field.Name]; ok {
		return v, true
	}
	for name, v := range row {
		if strings.EqualFold(name, field.Name) {
			return v, true
		}
	}
	return nil, false
}

func assign(field reflect.Value, val any) error {
	rv := reflect.ValueOf(val)
	if rv.Type().AssignableTo(field.Type()) {
		field.Set(rv)
		return nil
	}
	if rv.Type().ConvertibleTo(field.Type()) {
		field.Set(rv.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", val, field.Type())
}
