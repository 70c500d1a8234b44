package extractor

import (
	"strconv"

	"github.com/tidwall/gjson"
)

// NotDetected replaces any field the backend did not return.
const NotDetected = "Tidak terdeteksi"

// ParsedStatusSuccess is the parsed status of a recognized document.
const ParsedStatusSuccess = "success"

// Document is a read-only view over a parsed JSON subtree. Every accessor is
// total: missing keys, nulls and type mismatches yield zero values.
type Document struct {
	v gjson.Result
}

// NewDocument wraps raw JSON.
func NewDocument(raw []byte) Document {
	return Document{v: gjson.ParseBytes(raw)}
}

// Exists reports whether the document holds a JSON object.
func (d Document) Exists() bool {
	return d.v.IsObject()
}

// Raw returns the JSON text exactly as the backend sent it.
func (d Document) Raw() string {
	if !d.v.Exists() {
		return ""
	}
	return d.v.Raw
}

// Status is the parsed status field ("success", "not_ktp", ...).
func (d Document) Status() string {
	return d.Get("status")
}

// Lookup returns the field at path as text. It reports false for missing
// and null values.
func (d Document) Lookup(path string) (string, bool) {
	if !d.v.IsObject() {
		return "", false
	}
	r := d.v.Get(escape(path))
	if !r.Exists() || r.Type == gjson.Null {
		return "", false
	}
	return r.String(), true
}

// Get returns the field at path, or "".
func (d Document) Get(path string) string {
	s, _ := d.Lookup(path)
	return s
}

// GetOr returns the field at path, or def when it is missing or null.
func (d Document) GetOr(path, def string) string {
	if s, ok := d.Lookup(path); ok {
		return s
	}
	return def
}

// Field is GetOr with the "not detected" placeholder.
func (d Document) Field(path string) string {
	return d.GetOr(path, NotDetected)
}

// Present reports whether path holds a non-empty, truthy value.
func (d Document) Present(path string) bool {
	if !d.v.IsObject() {
		return false
	}
	r := d.v.Get(escape(path))
	switch r.Type {
	case gjson.String:
		return r.Str != ""
	case gjson.Number:
		return r.Num != 0
	case gjson.True:
		return true
	case gjson.JSON:
		if r.IsArray() {
			return len(r.Array()) > 0
		}
		return len(r.Map()) > 0
	default:
		return false
	}
}

// Object returns the nested object at path. The result is empty when the
// value is missing or not an object.
func (d Document) Object(path string) Document {
	if !d.v.IsObject() {
		return Document{}
	}
	r := d.v.Get(escape(path))
	if !r.IsObject() {
		return Document{}
	}
	return Document{v: r}
}

// List returns the objects of the array at path, skipping non-object items.
func (d Document) List(path string) []Document {
	if !d.v.IsObject() {
		return nil
	}
	r := d.v.Get(escape(path))
	if !r.IsArray() {
		return nil
	}
	var out []Document
	for _, item := range r.Array() {
		if item.IsObject() {
			out = append(out, Document{v: item})
		}
	}
	return out
}

// Entry is one scalar leaf of a flattened document.
type Entry struct {
	Path  string
	Value string
}

// Flatten lists every scalar leaf in document order. Nested keys are joined
// with dots and array items are addressed by index.
func (d Document) Flatten() []Entry {
	var out []Entry
	flatten("", d.v, &out)
	return out
}

func flatten(prefix string, r gjson.Result, out *[]Entry) {
	switch {
	case r.IsObject():
		r.ForEach(func(key, value gjson.Result) bool {
			flatten(join(prefix, key.String()), value, out)
			return true
		})
	case r.IsArray():
		i := 0
		r.ForEach(func(_, value gjson.Result) bool {
			flatten(join(prefix, strconv.Itoa(i)), value, out)
			i++
			return true
		})
	case r.Exists() && prefix != "":
		v := r.String()
		if r.Type == gjson.Null {
			v = ""
		}
		*out = append(*out, Entry{Path: prefix, Value: v})
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// escape protects gjson wildcard characters in field names while keeping
// dots as path separators.
func escape(path string) string {
	var b []byte
	for i := 0; i < len(path); i++ {
		switch c := path[i]; c {
		case '*', '?', '|', '#', '@', '!', '\\':
			b = append(b, '\\', c)
		default:
			b = append(b, c)
		}
	}
	return string(b)
}
