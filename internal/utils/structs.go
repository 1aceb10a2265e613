package utils

import (
	"fmt"
	"reflect"
)

const ColumnTag = "db"

// columnFields calls fn for every exported field carrying a db tag other
// than "-". It panics on anything but a struct or pointer to one.
func columnFields(input any, fn func(column string, value reflect.Value)) {
	v := reflect.ValueOf(input)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		panic(fmt.Sprintf("utils: expected struct, got %s", v.Kind()))
	}

	t := v.Type()
	for i := range t.NumField() {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		column := field.Tag.Get(ColumnTag)
		if column == "" || column == "-" {
			continue
		}

		fn(column, v.Field(i))
	}
}

// StructTagValues lists the column names of a db-tagged struct in field
// order.
func StructTagValues(input any) []string {
	columns := make([]string, 0)
	columnFields(input, func(column string, _ reflect.Value) {
		columns = append(columns, column)
	})
	return columns
}

// StructToMap maps column names to field values, ready for squirrel's
// SetMap.
func StructToMap(input any) map[string]any {
	out := make(map[string]any)
	columnFields(input, func(column string, value reflect.Value) {
		out[column] = value.Interface()
	})
	return out
}

func ErrorWrapOrNil(err error, msg string) error {
	if err == nil || msg == "" {
		return err
	}
	return fmt.Errorf("%s: %w", msg, err)
}
