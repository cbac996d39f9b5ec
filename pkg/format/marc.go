package format

import (
	"encoding/xml"
	"fmt"
)

func init() {
	Register("marc", func() Handler { return &Marc{} })
}

// Marc parses MARCXML payloads into leader, control fields and data fields.
type Marc struct{}

type marcRecord struct {
	XMLName       xml.Name `xml:"record"`
	Leader        string   `xml:"leader"`
	ControlFields []struct {
		Tag   string `xml:"tag,attr"`
		Value string `xml:",chardata"`
	} `xml:"controlfield"`
	DataFields []struct {
		Tag       string `xml:"tag,attr"`
		Ind1      string `xml:"ind1,attr"`
		Ind2      string `xml:"ind2,attr"`
		Subfields []struct {
			Code  string `xml:"code,attr"`
			Value string `xml:",chardata"`
		} `xml:"subfield"`
	} `xml:"datafield"`
}

func (h *Marc) Parse(rec *RawRecord) (Record, error) {
	out := envelope(rec)
	if rec.Deleted || len(rec.Metadata) == 0 {
		return out, nil
	}

	var mr marcRecord
	if err := xml.Unmarshal(rec.Metadata, &mr); err != nil {
		return nil, fmt.Errorf("marc: decode %s: %w", rec.Identifier, err)
	}

	if mr.Leader != "" {
		out["leader"] = mr.Leader
	}

	if len(mr.ControlFields) > 0 {
		control := make(map[string]string, len(mr.ControlFields))
		for _, cf := range mr.ControlFields {
			control[cf.Tag] = cf.Value
		}
		out["control"] = control
	}

	if len(mr.DataFields) > 0 {
		fields := make([]Record, 0, len(mr.DataFields))
		for _, df := range mr.DataFields {
			subfields := make(map[string][]string, len(df.Subfields))
			for _, sf := range df.Subfields {
				subfields[sf.Code] = append(subfields[sf.Code], sf.Value)
			}
			fields = append(fields, Record{
				"tag":       df.Tag,
				"ind1":      df.Ind1,
				"ind2":      df.Ind2,
				"subfields": subfields,
			})
		}
		out["fields"] = fields
	}
	return out, nil
}
