package format

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

func init() {
	Register("generic", func() Handler { return &Generic{} })
}

// Generic builds a structural view of arbitrary XML payloads: elements
// become keys, attributes are stored under "@name", mixed character data
// under "#text", and repeated elements collapse into lists. The tree is
// placed under the "metadata" key so it cannot collide with the envelope.
type Generic struct{}

func (h *Generic) Parse(rec *RawRecord) (Record, error) {
	out := envelope(rec)
	if rec.Deleted || len(rec.Metadata) == 0 {
		return out, nil
	}

	tree := Record{}
	dec := xml.NewDecoder(bytes.NewReader(rec.Metadata))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("generic: decode %s: %w", rec.Identifier, err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		node, err := parseElement(dec, start)
		if err != nil {
			return nil, fmt.Errorf("generic: decode %s: %w", rec.Identifier, err)
		}
		mergeChild(tree, start.Name.Local, node)
	}
	out["metadata"] = tree
	return out, nil
}

// parseElement consumes one element and its children. Text-only elements
// without attributes come back as plain strings, everything else as a
// nested Record.
func parseElement(dec *xml.Decoder, start xml.StartElement) (any, error) {
	node := Record{}
	for _, attr := range start.Attr {
		if attr.Name.Local == "xmlns" || attr.Name.Space == "xmlns" {
			continue
		}
		node["@"+attr.Name.Local] = attr.Value
	}

	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := parseElement(dec, t)
			if err != nil {
				return nil, err
			}
			mergeChild(node, t.Name.Local, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			value := strings.TrimSpace(text.String())
			if len(node) == 0 {
				return value, nil
			}
			if value != "" {
				node["#text"] = value
			}
			return node, nil
		}
	}
}

// mergeChild inserts a child value, promoting repeated keys to slices.
func mergeChild(node Record, key string, value any) {
	existing, ok := node[key]
	if !ok {
		node[key] = value
		return
	}
	if list, ok := existing.([]any); ok {
		node[key] = append(list, value)
		return
	}
	node[key] = []any{existing, value}
}
