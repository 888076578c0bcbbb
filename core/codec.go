package core

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/pkg/errors"
)

// Naming is the field naming convention of a backend.
type Naming int

const (
	// CamelCase is the document store convention and the canonical entity naming.
	CamelCase Naming = iota
	// SnakeCase is the relational convention (PostgREST, SQL).
	SnakeCase
)

func (n Naming) String() string {
	if n == SnakeCase {
		return "snake_case"
	}
	return "camelCase"
}

var errMissingField = errors.New("required field is missing")

// SnakeRenamer is implemented by entities whose snake_case names are not
// the mechanical conversion of their canonical names.
type SnakeRenamer interface {
	SnakeFields() map[string]string // {canonical: snake}
}

type (
	fieldInfo struct {
		canonical string
		snake     string
		required  bool
		index     []int
		typ       reflect.Type
	}

	typeInfo struct {
		name    string
		fields  []fieldInfo
		byCamel map[string]*fieldInfo
	}
)

var typeInfos sync.Map // {reflect.Type: *typeInfo}

func typeInfoFor(t reflect.Type) *typeInfo {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if ti, ok := typeInfos.Load(t); ok {
		return ti.(*typeInfo)
	}

	var overrides map[string]string
	if r, ok := reflect.Zero(t).Interface().(SnakeRenamer); ok {
		overrides = r.SnakeFields()
	}

	ti := &typeInfo{
		name:    strings.ToLower(t.Name()),
		byCamel: make(map[string]*fieldInfo),
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" { // unexported
			continue
		}
		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		parts := strings.Split(tag, ",")
		name := parts[0]
		if name == "" {
			name = sf.Name
		}
		required := true
		for _, opt := range parts[1:] {
			if opt == "omitempty" {
				required = false
			}
		}
		snake, ok := overrides[name]
		if !ok {
			snake = ToSnakeCase(name)
		}
		ti.fields = append(ti.fields, fieldInfo{
			canonical: name,
			snake:     snake,
			required:  required,
			index:     sf.Index,
			typ:       sf.Type,
		})
	}
	for i := range ti.fields {
		f := &ti.fields[i]
		ti.byCamel[f.canonical] = f
	}

	actual, _ := typeInfos.LoadOrStore(t, ti)
	return actual.(*typeInfo)
}

func (f *fieldInfo) wireName(naming Naming) string {
	if naming == SnakeCase {
		return f.snake
	}
	return f.canonical
}

// FieldName returns the wire name of the canonical field of entity type T.
// Unknown fields are converted mechanically.
func FieldName[T any](canonical string, naming Naming) string {
	var zero T
	ti := typeInfoFor(reflect.TypeOf(zero))
	if f, ok := ti.byCamel[canonical]; ok {
		return f.wireName(naming)
	}
	if naming == SnakeCase {
		return ToSnakeCase(canonical)
	}
	return canonical
}

// Encode returns the transport representation of entity v. Absent optional fields are omitted.
func Encode(v interface{}, naming Naming) (Row, error) {
	return encode(v, naming, false)
}

// EncodeWithNulls is Encode with absent optional fields kept as explicit nulls,
// so that an update clears them.
func EncodeWithNulls(v interface{}, naming Naming) (Row, error) {
	return encode(v, naming, true)
}

func encode(v interface{}, naming Naming, keepNulls bool) (Row, error) {
	ti := typeInfoFor(reflect.TypeOf(v))

	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding %s", ti.name)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, errors.Wrapf(err, "encoding %s", ti.name)
	}

	row := make(Row, len(ti.fields))
	for i := range ti.fields {
		f := &ti.fields[i]
		val, ok := fields[f.canonical]
		if !ok || val == nil {
			if keepNulls {
				row[f.wireName(naming)] = nil
			}
			continue
		}
		row[f.wireName(naming)] = val
	}
	return row, nil
}

// Decode builds an entity of type T from its transport representation.
// Unknown keys are ignored. A missing required field or a value of the wrong type yields a *DecodeError.
func Decode[T any](row Row, naming Naming) (T, error) {
	var out T
	ti := typeInfoFor(reflect.TypeOf(out))
	if row == nil {
		return out, &DecodeError{Entity: ti.name, Err: errors.New("empty payload")}
	}

	target := reflect.ValueOf(&out).Elem()
	for i := range ti.fields {
		f := &ti.fields[i]
		val, ok := row[f.wireName(naming)]
		if !ok || val == nil {
			if f.required {
				return out, &DecodeError{Entity: ti.name, Field: f.canonical, Err: errMissingField}
			}
			continue
		}
		data, err := json.Marshal(val)
		if err != nil {
			return out, &DecodeError{Entity: ti.name, Field: f.canonical, Err: err}
		}
		ptr := reflect.New(f.typ)
		if err := json.Unmarshal(data, ptr.Interface()); err != nil {
			return out, &DecodeError{Entity: ti.name, Field: f.canonical, Err: err}
		}
		target.FieldByIndex(f.index).Set(ptr.Elem())
	}
	return out, nil
}

// DecodeAll decodes every row, failing on the first bad one.
func DecodeAll[T any](rows []Row, naming Naming) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		v, err := Decode[T](row, naming)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ToSnakeCase converts a camelCase name, keeping acronyms together: profilePictureURL -> profile_picture_url.
func ToSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// UnmarshalEnum decodes a JSON string restricted to the allowed values.
func UnmarshalEnum(data []byte, allowed ...string) (string, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", err
	}
	for _, a := range allowed {
		if s == a {
			return s, nil
		}
	}
	return "", errors.Errorf("invalid value %q (allowed: %s)", s, strings.Join(allowed, ", "))
}
