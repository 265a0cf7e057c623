package meta

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Tag is one head directive: an element name, ordered attributes, and
// optional text content.
type Tag struct {
	Name    string `json:"tag"`
	Attrs   Attrs  `json:"attributes,omitempty"`
	Content string `json:"content,omitempty"`
}

// Attr is a single attribute. A Bare attribute renders without a value.
type Attr struct {
	Key   string
	Value string
	Bare  bool
}

// Attrs is an ordered attribute list. Its JSON form is an object whose keys
// keep the list order.
type Attrs []Attr

// Get returns the value of the named attribute.
func (as Attrs) Get(key string) (string, bool) {
	for _, a := range as {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// MarshalJSON implements json.Marshaler.
func (as Attrs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, a := range as {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(a.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if a.Bare {
			buf.WriteString("true")
			continue
		}
		value, err := json.Marshal(a.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, preserving key order.
// Boolean true becomes a bare attribute; false and null are dropped.
func (as *Attrs) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*as = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("attributes: expected object, got %v", tok)
	}

	var out Attrs
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		switch v := valTok.(type) {
		case string:
			out = append(out, Attr{Key: key, Value: v})
		case bool:
			if v {
				out = append(out, Attr{Key: key, Bare: true})
			}
		case nil:
		default:
			return fmt.Errorf("attributes: unsupported value for %q", key)
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*as = out
	return nil
}

// named returns a <meta name=… content=…> tag.
func named(name, content string) Tag {
	return Tag{
		Name: "meta",
		Attrs: Attrs{
			{Key: "name", Value: name},
			{Key: "content", Value: content},
		},
	}
}
