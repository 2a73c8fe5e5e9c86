// Package pdf implements the low-level structure of PDF documents: the COS
// object graph, cross-reference recovery, and the stream filter pipeline.
package pdf

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ObjectType represents the type of a PDF object
type ObjectType int

const (
	ObjNull ObjectType = iota
	ObjBoolean
	ObjInteger
	ObjReal
	ObjString
	ObjName
	ObjArray
	ObjDictionary
	ObjStream
	ObjReference
)

// Object represents a PDF object
type Object interface {
	Type() ObjectType
	String() string
}

// Null represents a PDF null object
type Null struct{}

func (n Null) Type() ObjectType { return ObjNull }
func (n Null) String() string   { return "null" }

// Boolean represents a PDF boolean object
type Boolean bool

func (b Boolean) Type() ObjectType { return ObjBoolean }
func (b Boolean) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Integer represents a PDF integer object
type Integer int64

func (i Integer) Type() ObjectType { return ObjInteger }
func (i Integer) String() string   { return strconv.FormatInt(int64(i), 10) }

// Real represents a PDF real number object
type Real float64

func (r Real) Type() ObjectType { return ObjReal }
func (r Real) String() string   { return strconv.FormatFloat(float64(r), 'f', -1, 64) }

// String represents a PDF string object
type String struct {
	Value []byte
	IsHex bool
}

func (s String) Type() ObjectType { return ObjString }
func (s String) String() string {
	if s.IsHex {
		return fmt.Sprintf("<%X>", s.Value)
	}
	return fmt.Sprintf("(%s)", string(s.Value))
}

// Text returns the string value as text, honoring UTF-16BE and UTF-8 BOMs.
func (s String) Text() string {
	if len(s.Value) >= 2 && s.Value[0] == 0xFE && s.Value[1] == 0xFF {
		return decodeUTF16BE(s.Value[2:])
	}
	if len(s.Value) >= 3 && s.Value[0] == 0xEF && s.Value[1] == 0xBB && s.Value[2] == 0xBF {
		return string(s.Value[3:])
	}
	return decodePDFDocEncoding(s.Value)
}

// Name represents a PDF name object
type Name string

func (n Name) Type() ObjectType { return ObjName }
func (n Name) String() string   { return "/" + string(n) }

// Array represents a PDF array object
type Array []Object

func (a Array) Type() ObjectType { return ObjArray }
func (a Array) String() string {
	var parts []string
	for _, obj := range a {
		parts = append(parts, obj.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Dictionary represents a PDF dictionary object. Duplicate keys seen during
// parsing overwrite earlier ones.
type Dictionary map[Name]Object

func (d Dictionary) Type() ObjectType { return ObjDictionary }
func (d Dictionary) String() string {
	var parts []string
	for k, v := range d {
		parts = append(parts, k.String()+" "+v.String())
	}
	return "<<" + strings.Join(parts, " ") + ">>"
}

// Get returns the value for a key, or nil if absent.
func (d Dictionary) Get(key string) Object {
	return d[Name(key)]
}

// GetName returns the name value for a key
func (d Dictionary) GetName(key string) (Name, bool) {
	if n, ok := d.Get(key).(Name); ok {
		return n, true
	}
	return "", false
}

// GetInt returns the integer value for a key
func (d Dictionary) GetInt(key string) (int64, bool) {
	switch v := d.Get(key).(type) {
	case Integer:
		return int64(v), true
	case Real:
		return int64(v), true
	}
	return 0, false
}

// GetFloat returns the numeric value for a key
func (d Dictionary) GetFloat(key string) (float64, bool) {
	switch v := d.Get(key).(type) {
	case Integer:
		return float64(v), true
	case Real:
		return float64(v), true
	}
	return 0, false
}

// GetBool returns the boolean value for a key
func (d Dictionary) GetBool(key string) (bool, bool) {
	if b, ok := d.Get(key).(Boolean); ok {
		return bool(b), true
	}
	return false, false
}

// GetArray returns the array value for a key
func (d Dictionary) GetArray(key string) (Array, bool) {
	if a, ok := d.Get(key).(Array); ok {
		return a, true
	}
	return nil, false
}

// GetDict returns the dictionary value for a key
func (d Dictionary) GetDict(key string) (Dictionary, bool) {
	if dict, ok := d.Get(key).(Dictionary); ok {
		return dict, true
	}
	return nil, false
}

// intDefault reads an integer key with a fallback, used for decode parameters.
func (d Dictionary) intDefault(key string, def int) int {
	if d == nil {
		return def
	}
	if v, ok := d.GetInt(key); ok {
		return int(v)
	}
	return def
}

// streamPayload locates the raw bytes of a stream in its source. The bytes
// are not read until first use.
type streamPayload struct {
	src    io.ReaderAt
	offset int64
	length int64
}

// Stream represents a PDF stream object: a metadata dictionary plus a raw
// byte payload. The payload is either held in memory (detached streams,
// tests) or located in the underlying byte source and read lazily.
type Stream struct {
	Dictionary Dictionary

	data    []byte
	payload *streamPayload
}

// NewStream builds a detached stream over in-memory bytes.
func NewStream(dict Dictionary, data []byte) Stream {
	if dict == nil {
		dict = make(Dictionary)
	}
	return Stream{Dictionary: dict, data: data}
}

func (s Stream) Type() ObjectType { return ObjStream }
func (s Stream) String() string {
	return s.Dictionary.String() + " stream...endstream"
}

// Raw returns the undecoded stream bytes, reading them from the source on
// first access.
func (s Stream) Raw() ([]byte, error) {
	if s.data != nil || s.payload == nil {
		return s.data, nil
	}
	buf := make([]byte, s.payload.length)
	n, err := s.payload.src.ReadAt(buf, s.payload.offset)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read stream at %d: %w", s.payload.offset, err)
	}
	return buf[:n], nil
}

// Decode applies the stream's filter chain and returns the decoded bytes.
func (s Stream) Decode() ([]byte, error) {
	data, _, err := s.DecodeWithResult()
	return data, err
}

// Reference represents a PDF indirect object reference. Identity is the
// (number, generation) pair.
type Reference struct {
	Number     int
	Generation int
}

func (r Reference) Type() ObjectType { return ObjReference }
func (r Reference) String() string {
	return fmt.Sprintf("%d %d R", r.Number, r.Generation)
}

// decodeUTF16BE decodes UTF-16BE encoded bytes to string
func decodeUTF16BE(data []byte) string {
	if len(data)%2 != 0 {
		data = append(data, 0)
	}

	var runes []rune
	for i := 0; i < len(data); i += 2 {
		r := rune(data[i])<<8 | rune(data[i+1])
		// Surrogate pairs
		if r >= 0xD800 && r <= 0xDBFF && i+3 < len(data) {
			r2 := rune(data[i+2])<<8 | rune(data[i+3])
			if r2 >= 0xDC00 && r2 <= 0xDFFF {
				r = 0x10000 + (r-0xD800)*0x400 + (r2 - 0xDC00)
				i += 2
			}
		}
		runes = append(runes, r)
	}

	return string(runes)
}

// decodePDFDocEncoding decodes PDFDocEncoding bytes, treated as Latin-1.
func decodePDFDocEncoding(data []byte) string {
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}
