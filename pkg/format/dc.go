package format

import (
	"encoding/xml"
	"fmt"
)

func init() {
	Register("dc", func() Handler { return &DublinCore{} })
}

// DublinCore parses oai_dc payloads: the fifteen Dublin Core elements,
// each collected as a list of values.
type DublinCore struct{}

// dcContainer matches the oai_dc:dc wrapper by local name, so payloads
// with or without namespace prefixes decode the same way.
type dcContainer struct {
	XMLName     xml.Name `xml:"dc"`
	Title       []string `xml:"title"`
	Creator     []string `xml:"creator"`
	Subject     []string `xml:"subject"`
	Description []string `xml:"description"`
	Publisher   []string `xml:"publisher"`
	Contributor []string `xml:"contributor"`
	Date        []string `xml:"date"`
	Type        []string `xml:"type"`
	Format      []string `xml:"format"`
	Identifier  []string `xml:"identifier"`
	Source      []string `xml:"source"`
	Language    []string `xml:"language"`
	Relation    []string `xml:"relation"`
	Coverage    []string `xml:"coverage"`
	Rights      []string `xml:"rights"`
}

func (h *DublinCore) Parse(rec *RawRecord) (Record, error) {
	out := envelope(rec)
	if rec.Deleted || len(rec.Metadata) == 0 {
		return out, nil
	}

	var dc dcContainer
	if err := xml.Unmarshal(rec.Metadata, &dc); err != nil {
		return nil, fmt.Errorf("dc: decode %s: %w", rec.Identifier, err)
	}

	put := func(key string, values []string) {
		if len(values) > 0 {
			out[key] = values
		}
	}
	put("title", dc.Title)
	put("creator", dc.Creator)
	put("subject", dc.Subject)
	put("description", dc.Description)
	put("publisher", dc.Publisher)
	put("contributor", dc.Contributor)
	put("date", dc.Date)
	put("type", dc.Type)
	put("format", dc.Format)
	put("source", dc.Source)
	put("language", dc.Language)
	put("relation", dc.Relation)
	put("coverage", dc.Coverage)
	put("rights", dc.Rights)
	if len(dc.Identifier) > 0 {
		// The envelope already claims "identifier" for the OAI identifier.
		out["dc_identifier"] = dc.Identifier
	}
	return out, nil
}
