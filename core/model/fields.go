package model

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// FieldChange is one field-level mutation, as recorded in the change log.
type FieldChange struct {
	// Field is the entity struct field name.
	Field string
	// Value is the canonical string encoding of the new value.
	Value string
}

// ChildSlot describes one transient nested-entity field on an incoming
// record, together with the reference field the resolved keys land in.
type ChildSlot struct {
	// Entities are the nested values; nil entries are skipped.
	Entities []Entity
	// Ref is the name of the reference field on the parent.
	Ref string
	// Single indicates a one-to-one relationship (scalar ref field).
	Single bool
}

type fieldPolicy struct {
	name string
	mode string // scalar, union, ids
}

// policies returns the persisted-field policies for an entity type, in
// declaration order. Children and untagged fields are excluded.
func policies(t reflect.Type) []fieldPolicy {
	var out []fieldPolicy
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			out = append(out, policies(f.Type)...)
			continue
		}
		tag := f.Tag.Get("merge")
		switch {
		case tag == "scalar" || tag == "union" || tag == "ids":
			out = append(out, fieldPolicy{name: f.Name, mode: tag})
		}
	}
	return out
}

func structValue(e Entity) reflect.Value {
	return reflect.ValueOf(e).Elem()
}

// Diff returns the field-level changes that turn old into new. A nil old
// is treated as an empty entity of new's kind, so every populated field
// of new is reported.
func Diff(old, new Entity) []FieldChange {
	if old == nil {
		old, _ = New(new.Kind())
	}
	ov := structValue(old)
	nv := structValue(new)

	var changes []FieldChange
	for _, p := range policies(nv.Type()) {
		oldVal := encodeField(ov.FieldByName(p.name), p.mode)
		newVal := encodeField(nv.FieldByName(p.name), p.mode)
		if oldVal != newVal {
			changes = append(changes, FieldChange{Field: p.name, Value: newVal})
		}
	}
	return changes
}

// ApplyChange sets a single field from its change-log encoding.
func ApplyChange(e Entity, field, value string) error {
	v := structValue(e)
	for _, p := range policies(v.Type()) {
		if p.name != field {
			continue
		}
		return decodeField(v.FieldByName(p.name), p.mode, value)
	}
	return fmt.Errorf("entity kind %q has no mergeable field %q", e.Kind(), field)
}

// MergeFields folds src into dst in place: scalar fields follow
// last-non-null-wins, set-valued fields and known ids merge by union.
// Nested children and keys are not touched.
func MergeFields(dst, src Entity) error {
	if dst.Kind() != src.Kind() {
		return fmt.Errorf("cannot merge %q into %q", src.Kind(), dst.Kind())
	}
	dv := structValue(dst)
	sv := structValue(src)
	for _, p := range policies(dv.Type()) {
		df := dv.FieldByName(p.name)
		sf := sv.FieldByName(p.name)
		switch p.mode {
		case "scalar":
			if !sf.IsZero() {
				df.Set(sf)
			}
		case "union":
			merged := df.Interface().(StringSet).Union(sf.Interface().(StringSet))
			df.Set(reflect.ValueOf(merged))
		case "ids":
			merged := df.Interface().(IDSet).Clone()
			for source, id := range sf.Interface().(IDSet) {
				if id == "" {
					continue
				}
				if merged == nil {
					merged = IDSet{}
				}
				merged[source] = id
			}
			if merged != nil {
				df.Set(reflect.ValueOf(merged))
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the entity's persisted fields. Transient
// children are carried over by reference.
func Clone(e Entity) Entity {
	out, _ := New(e.Kind())
	ov := structValue(out)
	ov.Set(structValue(e))
	// Break aliasing on the mutable collection types.
	ov.FieldByName("Base").FieldByName("KnownIDs").Set(reflect.ValueOf(e.ExternalIDs().Clone()))
	return out
}

// Children returns the transient nested-entity slots of an incoming
// record, resolved from the children:<Ref> and child:<Ref> tags.
func Children(e Entity) []ChildSlot {
	v := structValue(e)
	t := v.Type()

	var out []ChildSlot
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("merge")
		switch {
		case strings.HasPrefix(tag, "children:"):
			slot := ChildSlot{Ref: strings.TrimPrefix(tag, "children:")}
			fv := v.Field(i)
			for j := 0; j < fv.Len(); j++ {
				if child, ok := fv.Index(j).Interface().(Entity); ok && !fv.Index(j).IsNil() {
					slot.Entities = append(slot.Entities, child)
				}
			}
			out = append(out, slot)
		case strings.HasPrefix(tag, "child:"):
			slot := ChildSlot{Ref: strings.TrimPrefix(tag, "child:"), Single: true}
			if !v.Field(i).IsNil() {
				slot.Entities = append(slot.Entities, v.Field(i).Interface().(Entity))
			}
			out = append(out, slot)
		}
	}
	return out
}

// SetRef stores a resolved child key on the parent's reference field:
// union fields grow by Add, scalar fields are overwritten.
func SetRef(e Entity, field, key string) error {
	v := structValue(e)
	fv := v.FieldByName(field)
	if !fv.IsValid() {
		return fmt.Errorf("entity kind %q has no reference field %q", e.Kind(), field)
	}
	switch fv.Interface().(type) {
	case StringSet:
		fv.Set(reflect.ValueOf(fv.Interface().(StringSet).Add(key)))
	case string:
		fv.SetString(key)
	default:
		return fmt.Errorf("reference field %q on %q is not a string or set", field, e.Kind())
	}
	return nil
}

func encodeField(v reflect.Value, mode string) string {
	switch mode {
	case "union":
		return v.Interface().(StringSet).Encode()
	case "ids":
		return v.Interface().(IDSet).Encode()
	default:
		switch v.Kind() {
		case reflect.String:
			return v.String()
		case reflect.Int, reflect.Int64:
			return strconv.FormatInt(v.Int(), 10)
		default:
			return fmt.Sprintf("%v", v.Interface())
		}
	}
}

func decodeField(v reflect.Value, mode, value string) error {
	switch mode {
	case "union":
		var s StringSet
		if err := json.Unmarshal([]byte(value), &s); err != nil {
			return fmt.Errorf("decode set value: %w", err)
		}
		v.Set(reflect.ValueOf(s))
	case "ids":
		var s IDSet
		if err := json.Unmarshal([]byte(value), &s); err != nil {
			return fmt.Errorf("decode id set value: %w", err)
		}
		v.Set(reflect.ValueOf(s))
	default:
		switch v.Kind() {
		case reflect.String:
			v.SetString(value)
		case reflect.Int, reflect.Int64:
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("decode numeric value: %w", err)
			}
			v.SetInt(n)
		default:
			return fmt.Errorf("unsupported scalar field kind %s", v.Kind())
		}
	}
	return nil
}
