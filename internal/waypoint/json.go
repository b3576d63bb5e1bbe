package waypoint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const exportSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "definitions": {
    "points": {"type": "array"}
  },
  "oneOf": [
    {"$ref": "#/definitions/points"},
    {
      "type": "object",
      "anyOf": [
        {"required": ["structures"], "properties": {"structures": {"$ref": "#/definitions/points"}}},
        {"required": ["exports"], "properties": {"exports": {"$ref": "#/definitions/points"}}}
      ]
    }
  ]
}`

var schema = jsonschema.MustCompileString("waypoints.schema.json", exportSchema)

// JSONOptions filters imported points against an existing list.
type JSONOptions struct {
	DedupAgainst []Waypoint
	DedupRadius  float64
}

type jsonPoint struct {
	X *json.Number `json:"x"`
	Y *json.Number `json:"y"`
	Z *json.Number `json:"z"`
}

// ParseJSON accepts a bare array of {x,y?,z} objects or an object carrying a
// "structures" or "exports" array. Elements that are not objects with numeric
// x and z are dropped; only the document shape is validated.
func ParseJSON(data []byte, opts JSONOptions) ([]Waypoint, error) {
	var doc any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse waypoint json: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("validate waypoint json: %w", err)
	}

	raw, err := pointsField(data)
	if err != nil {
		return nil, err
	}

	var points []json.RawMessage
	if err := json.Unmarshal(raw, &points); err != nil {
		return nil, fmt.Errorf("parse waypoint json: %w", err)
	}

	out := make([]Waypoint, 0, len(points))
	for _, rawPoint := range points {
		var p jsonPoint
		d := json.NewDecoder(bytes.NewReader(rawPoint))
		d.UseNumber()
		if err := d.Decode(&p); err != nil {
			continue
		}
		w, ok := p.waypoint()
		if !ok {
			continue
		}
		if opts.DedupRadius > 0 && nearAny(w, opts.DedupAgainst, opts.DedupRadius) {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func LoadJSONFile(path string, opts JSONOptions) ([]Waypoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read waypoint json: %w", err)
	}
	return ParseJSON(data, opts)
}

func pointsField(data []byte) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		return json.RawMessage(trimmed), nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("parse waypoint json: %w", err)
	}
	if raw, ok := obj["structures"]; ok {
		return raw, nil
	}
	return obj["exports"], nil
}

func (p jsonPoint) waypoint() (Waypoint, bool) {
	x, ok := asInt(p.X)
	if !ok {
		return Waypoint{}, false
	}
	z, ok := asInt(p.Z)
	if !ok {
		return Waypoint{}, false
	}
	if y, ok := asInt(p.Y); ok {
		return New(x, y, z), true
	}
	return NewXZ(x, z), true
}

func asInt(n *json.Number) (int, bool) {
	if n == nil {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return int(i), true
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return int(math.Floor(f)), true
}

func nearAny(w Waypoint, list []Waypoint, radius float64) bool {
	for _, other := range list {
		if w.HorizontalDist(other.Center()) <= radius {
			return true
		}
	}
	return false
}
