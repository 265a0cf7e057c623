package routetree

import (
	"encoding/json"
	"strings"
)

// Param is a matched parameter value: a single segment for a named
// parameter, or the ordered remaining segments for a catch-all.
type Param struct {
	values   []string
	catchAll bool
}

// NamedParam returns a single-segment parameter value.
func NamedParam(value string) Param {
	return Param{values: []string{value}}
}

// CatchAllParam returns a catch-all parameter value.
func CatchAllParam(segments ...string) Param {
	return Param{values: append([]string(nil), segments...), catchAll: true}
}

// IsCatchAll reports whether the parameter came from a catch-all segment.
func (p Param) IsCatchAll() bool {
	return p.catchAll
}

// String returns the named value, or the catch-all segments joined by "/".
func (p Param) String() string {
	return strings.Join(p.values, "/")
}

// Values returns the matched segments. A named parameter has exactly one.
func (p Param) Values() []string {
	return append([]string(nil), p.values...)
}

// MarshalJSON encodes a named parameter as a string and a catch-all as an
// array of strings.
func (p Param) MarshalJSON() ([]byte, error) {
	if p.catchAll {
		if p.values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(p.values)
	}
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts either encoding produced by MarshalJSON.
func (p *Param) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*p = CatchAllParam(list...)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*p = NamedParam(s)
	return nil
}

// Params maps parameter names to matched values. When one name appears at
// two depths of the same path, the deeper segment wins.
type Params map[string]Param

// Get returns the parameter as a string, or "" when absent.
func (ps Params) Get(name string) string {
	return ps[name].String()
}

// List returns the parameter's segments, or nil when absent.
func (ps Params) List(name string) []string {
	p, ok := ps[name]
	if !ok {
		return nil
	}
	return p.Values()
}

// Has reports whether the parameter was bound.
func (ps Params) Has(name string) bool {
	_, ok := ps[name]
	return ok
}

// Clone returns a copy of the parameter set.
func (ps Params) Clone() Params {
	out := make(Params, len(ps))
	for k, v := range ps {
		out[k] = Param{values: append([]string(nil), v.values...), catchAll: v.catchAll}
	}
	return out
}
