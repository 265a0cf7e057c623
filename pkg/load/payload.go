package load

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"

	perrors "github.com/vango-go/pageload/internal/errors"
	"github.com/vango-go/pageload/pkg/meta"
)

// ErrPayloadShape reports JSON that is not exactly one of the three
// result shapes.
var ErrPayloadShape = errors.New("payload does not match a load result")

type successWire struct {
	Props any        `json:"props"`
	Meta  *meta.Meta `json:"meta,omitempty"`
}

type notFoundWire struct {
	NotFound bool `json:"notFound"`
}

type redirectWire struct {
	Redirect string `json:"redirect"`
}

// Encode returns the JSON payload for res:
//
//	{"props":…,"meta":…}   Success ("props" is always present)
//	{"notFound":true}      NotFound
//	{"redirect":"/path"}   Redirect
//
// A nil res fails with an error wrapping ErrPayloadShape.
func Encode(res Result) ([]byte, error) {
	if res == nil {
		return nil, shapeError("result is nil")
	}
	wire := Match(res,
		func(s Success) any { return successWire{Props: s.Props, Meta: s.Meta} },
		func(NotFound) any { return notFoundWire{NotFound: true} },
		func(r Redirect) any { return redirectWire{Redirect: r.To} },
	)
	return json.Marshal(wire)
}

// Decode parses a payload produced by Encode. Success props are returned
// as json.RawMessage. Anything that is not exactly one well-formed shape
// fails with an error wrapping ErrPayloadShape.
func Decode(data []byte) (Result, error) {
	if !gjson.ValidBytes(data) {
		return nil, shapeError("payload is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, shapeError("payload is not a JSON object")
	}

	props := root.Get("props")
	notFound := root.Get("notFound")
	redirect := root.Get("redirect")

	shapes := 0
	for _, r := range []gjson.Result{props, notFound, redirect} {
		if r.Exists() {
			shapes++
		}
	}
	if shapes != 1 {
		return nil, shapeError("payload must carry exactly one of props, notFound, redirect")
	}

	switch {
	case props.Exists():
		s := Success{Props: json.RawMessage(props.Raw)}
		if m := root.Get("meta"); m.Exists() && m.Type != gjson.Null {
			s.Meta = new(meta.Meta)
			if err := json.Unmarshal([]byte(m.Raw), s.Meta); err != nil {
				return nil, shapeError("invalid meta: " + err.Error())
			}
		}
		return s, nil

	case notFound.Exists():
		if notFound.Type != gjson.True {
			return nil, shapeError("notFound must be true")
		}
		return NotFound{}, nil

	default:
		if redirect.Type != gjson.String || redirect.String() == "" {
			return nil, shapeError("redirect must be a non-empty string")
		}
		return Redirect{To: redirect.String()}, nil
	}
}

func shapeError(detail string) error {
	return perrors.New("E111").WithDetail(detail).Wrap(ErrPayloadShape)
}
