package diagram

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaError reports a diagram that does not match the block/connection shape.
type SchemaError struct {
	Reason string
}

func (e *SchemaError) Error() string {
	return "invalid diagram: " + e.Reason
}

func schemaErrorf(format string, args ...any) error {
	return &SchemaError{Reason: fmt.Sprintf(format, args...)}
}

// wire types use pointers so that absent fields can be told apart from
// zero values.
type wireBlock struct {
	ID         *string   `json:"id"`
	Type       *string   `json:"type"`
	Title      *string   `json:"title"`
	Components *[]string `json:"components"`
	Annotation *string   `json:"annotation"`
}

type wireConnection struct {
	Source *string `json:"source"`
	Target *string `json:"target"`
	Label  *string `json:"label"`
}

type wireDiagram struct {
	Blocks      *[]wireBlock      `json:"blocks"`
	Connections *[]wireConnection `json:"connections"`
}

// Decode parses a candidate diagram and validates it. Any field of the wrong
// JSON type, any missing required field, or a block count other than
// BlockCount yields a *SchemaError.
func Decode(data []byte) (Diagram, error) {
	var w wireDiagram
	if err := json.Unmarshal(data, &w); err != nil {
		return Diagram{}, schemaErrorf("malformed JSON: %v", err)
	}

	if w.Blocks == nil {
		return Diagram{}, schemaErrorf("missing blocks")
	}
	if n := len(*w.Blocks); n != BlockCount {
		return Diagram{}, schemaErrorf("expected %d blocks, got %d", BlockCount, n)
	}
	if w.Connections == nil {
		return Diagram{}, schemaErrorf("missing connections")
	}

	d := Diagram{
		Blocks:      make([]Block, 0, len(*w.Blocks)),
		Connections: make([]Connection, 0, len(*w.Connections)),
	}
	for i, wb := range *w.Blocks {
		switch {
		case wb.ID == nil:
			return Diagram{}, schemaErrorf("blocks[%d]: missing id", i)
		case wb.Type == nil:
			return Diagram{}, schemaErrorf("blocks[%d]: missing type", i)
		case wb.Title == nil:
			return Diagram{}, schemaErrorf("blocks[%d]: missing title", i)
		case wb.Components == nil:
			return Diagram{}, schemaErrorf("blocks[%d]: missing components", i)
		}
		b := Block{
			ID:         *wb.ID,
			Type:       Category(*wb.Type),
			Title:      *wb.Title,
			Components: *wb.Components,
		}
		if wb.Annotation != nil {
			b.Annotation = *wb.Annotation
		}
		d.Blocks = append(d.Blocks, b)
	}
	for i, wc := range *w.Connections {
		switch {
		case wc.Source == nil:
			return Diagram{}, schemaErrorf("connections[%d]: missing source", i)
		case wc.Target == nil:
			return Diagram{}, schemaErrorf("connections[%d]: missing target", i)
		}
		c := Connection{Source: *wc.Source, Target: *wc.Target}
		if wc.Label != nil {
			c.Label = *wc.Label
		}
		d.Connections = append(d.Connections, c)
	}

	if err := Validate(d); err != nil {
		return Diagram{}, err
	}
	return d, nil
}

// Validate checks an already-typed diagram: exactly BlockCount blocks, each
// with an id, a known category, a non-empty title and a non-empty component
// list; every connection names a source and a target.
//
// Category uniqueness and connection referential integrity are not checked
// here; see Lint.
func Validate(d Diagram) error {
	if n := len(d.Blocks); n != BlockCount {
		return schemaErrorf("expected %d blocks, got %d", BlockCount, n)
	}
	for i, b := range d.Blocks {
		if strings.TrimSpace(b.ID) == "" {
			return schemaErrorf("blocks[%d]: missing id", i)
		}
		if !b.Type.Valid() {
			return schemaErrorf("blocks[%d]: unknown type %q", i, b.Type)
		}
		if strings.TrimSpace(b.Title) == "" {
			return schemaErrorf("blocks[%d]: missing title", i)
		}
		if len(b.Components) == 0 {
			return schemaErrorf("blocks[%d]: missing components", i)
		}
	}
	for i, c := range d.Connections {
		if c.Source == "" {
			return schemaErrorf("connections[%d]: missing source", i)
		}
		if c.Target == "" {
			return schemaErrorf("connections[%d]: missing target", i)
		}
	}
	return nil
}
