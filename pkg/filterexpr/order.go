package filterexpr

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// orderParams is the decoded primary/secondary sort key pair Bind writes
// into the caller's params struct via reflection.
type orderParams struct {
	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

// parseOrderBy validates raw (an order_by string like "name desc, id")
// against schema and fills in the stable two-key sort the dictionary and
// geoword list queries always emit, falling back to schema's defaults
// when raw names no key and padding a missing secondary key so ties
// never depend on SQLite's unspecified row order.
func parseOrderBy(raw string, schema OrderSchema) (orderParams, error) {
	if schema.Fields == nil {
		schema.Fields = map[string]OrderField{}
	}
	if schema.DefaultPrimary == "" {
		return orderParams{}, errors.New("order schema default primary key required")
	}
	if schema.FallbackKey == "" {
		return orderParams{}, errors.New("order schema fallback key required")
	}
	if _, ok := schema.Fields[schema.DefaultPrimary]; !ok {
		return orderParams{}, fmt.Errorf("order key %q missing from schema fields", schema.DefaultPrimary)
	}
	if _, ok := schema.Fields[schema.FallbackKey]; !ok {
		return orderParams{}, fmt.Errorf("fallback order key %q missing from schema fields", schema.FallbackKey)
	}

	ord := orderParams{
		PrimaryKey:    schema.DefaultPrimary,
		PrimaryDesc:   schema.DefaultPrimaryDesc,
		SecondaryKey:  schema.FallbackKey,
		SecondaryDesc: schema.FallbackDesc,
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ord, nil
	}

	seen := make(map[string]struct{}, 2)
	idx := 0
	for _, seg := range strings.Split(raw, ",") {
		key, desc, ok, err := parseOrderSegment(seg, schema.Fields)
		if err != nil {
			return orderParams{}, err
		}
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			return orderParams{}, fmt.Errorf("duplicate order key %q", key)
		}
		seen[key] = struct{}{}

		switch idx {
		case 0:
			ord.PrimaryKey, ord.PrimaryDesc = key, desc
		case 1:
			ord.SecondaryKey, ord.SecondaryDesc = key, desc
		default:
			return orderParams{}, errors.New("order_by supports at most two keys")
		}
		idx++
	}

	return resolveTieBreak(ord, schema)
}

// parseOrderSegment parses one comma-separated "key" or "key asc|desc"
// segment, reporting ok=false for a blank segment so the caller's index
// counter only advances on a real key.
func parseOrderSegment(seg string, fields map[string]OrderField) (key string, desc bool, ok bool, err error) {
	seg = strings.TrimSpace(seg)
	if seg == "" {
		return "", false, false, nil
	}

	parts := strings.Fields(seg)
	if len(parts) == 0 {
		return "", false, false, nil
	}
	key = parts[0]
	if _, known := fields[key]; !known {
		return "", false, false, fmt.Errorf("field %q cannot be used for ordering", key)
	}

	switch len(parts) {
	case 1:
		return key, false, true, nil
	case 2:
		switch strings.ToLower(parts[1]) {
		case "asc":
			return key, false, true, nil
		case "desc":
			return key, true, true, nil
		default:
			return "", false, false, fmt.Errorf("invalid direction %q for field %q", parts[1], key)
		}
	default:
		return "", false, false, fmt.Errorf("invalid order segment %q", seg)
	}
}

// resolveTieBreak fills a missing secondary key from the schema fallback
// and, if the caller's secondary collides with the primary, swaps in any
// other schema field so the sort always has two distinct keys.
func resolveTieBreak(ord orderParams, schema OrderSchema) (orderParams, error) {
	if ord.SecondaryKey == "" {
		ord.SecondaryKey = schema.FallbackKey
		ord.SecondaryDesc = schema.FallbackDesc
	}
	if ord.SecondaryKey != ord.PrimaryKey {
		return ord, nil
	}

	for key := range schema.Fields {
		if key != ord.PrimaryKey {
			ord.SecondaryKey, ord.SecondaryDesc = key, false
			return ord, nil
		}
	}
	return orderParams{}, errors.New("order schema requires at least two distinct keys for stable ordering")
}

func setOrderParams(dst any, ord orderParams) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.New("binding must be a non-nil pointer")
	}
	target := rv.Elem()
	if target.Kind() != reflect.Struct {
		return errors.New("binding must point to a struct")
	}

	for _, f := range []struct {
		name string
		val  reflect.Value
	}{
		{"PrimaryKey", reflect.ValueOf(ord.PrimaryKey)},
		{"PrimaryDesc", reflect.ValueOf(ord.PrimaryDesc)},
		{"SecondaryKey", reflect.ValueOf(ord.SecondaryKey)},
		{"SecondaryDesc", reflect.ValueOf(ord.SecondaryDesc)},
	} {
		if err := setReflectField(target, f.name, f.val); err != nil {
			return err
		}
	}
	return nil
}

func setReflectField(target reflect.Value, name string, value reflect.Value) error {
	field := target.FieldByName(name)
	if !field.IsValid() {
		return fmt.Errorf("params struct %s has no field named %q", target.Type(), name)
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field %q on params struct", name)
	}

	switch field.Kind() {
	case reflect.Interface:
		field.Set(value)
		return nil
	case reflect.Ptr:
		elemType := field.Type().Elem()
		if !value.Type().ConvertibleTo(elemType) {
			return fmt.Errorf("field %q must be %s-compatible, got %s", name, elemType, value.Type())
		}
		if field.IsNil() {
			field.Set(reflect.New(elemType))
		}
		field.Elem().Set(value.Convert(elemType))
		return nil
	default:
		if !value.Type().ConvertibleTo(field.Type()) {
			return fmt.Errorf("field %q must be %s-compatible, got %s", name, field.Type(), value.Type())
		}
		field.Set(value.Convert(field.Type()))
		return nil
	}
}
