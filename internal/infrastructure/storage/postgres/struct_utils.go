package postgres

import (
	"reflect"
	"sync"
)

var columnCache sync.Map // map[reflect.Type][]string

// ExtractDBColumns returns the column names from the "db" tags of T in
// field order. Embedded structs are flattened. The result is cached per type.
//
// Usage:
//
//	columns := ExtractDBColumns[entity.Product]()
//	// Returns: ["id", "store_id", "stock", "cost", "type", "affects_inventory"]
func ExtractDBColumns[T any]() []string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if cols, ok := columnCache.Load(t); ok {
		return append([]string(nil), cols.([]string)...)
	}
	cols := extractColumnsFromType(t)
	columnCache.Store(t, cols)
	return append([]string(nil), cols...)
}

func extractColumnsFromType(t reflect.Type) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var cols []string
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.Anonymous {
			cols = append(cols, extractColumnsFromType(field.Type)...)
			continue
		}

		tag := field.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		cols = append(cols, tag)
	}
	return cols
}
