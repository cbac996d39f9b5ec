package format

import (
	"encoding/xml"
	"fmt"
	"strings"
)

func init() {
	Register("mods", func() Handler { return &Mods{} })
}

// Mods parses MODS payloads: titles, names with roles, identifiers,
// origin info, subjects and the free-text abstract.
type Mods struct{}

type modsRecord struct {
	XMLName   xml.Name `xml:"mods"`
	TitleInfo []struct {
		Title    string `xml:"title"`
		SubTitle string `xml:"subTitle"`
	} `xml:"titleInfo"`
	Names []struct {
		Type      string   `xml:"type,attr"`
		NameParts []string `xml:"namePart"`
		Roles     []string `xml:"role>roleTerm"`
	} `xml:"name"`
	TypeOfResource string `xml:"typeOfResource"`
	Identifiers    []struct {
		Type  string `xml:"type,attr"`
		Value string `xml:",chardata"`
	} `xml:"identifier"`
	OriginInfo struct {
		Publisher  string   `xml:"publisher"`
		DateIssued []string `xml:"dateIssued"`
		Places     []string `xml:"place>placeTerm"`
	} `xml:"originInfo"`
	Languages []string `xml:"language>languageTerm"`
	Abstract  string   `xml:"abstract"`
	Subjects  []struct {
		Topics     []string `xml:"topic"`
		Geographic []string `xml:"geographic"`
	} `xml:"subject"`
}

func (h *Mods) Parse(rec *RawRecord) (Record, error) {
	out := envelope(rec)
	if rec.Deleted || len(rec.Metadata) == 0 {
		return out, nil
	}

	var mr modsRecord
	if err := xml.Unmarshal(rec.Metadata, &mr); err != nil {
		return nil, fmt.Errorf("mods: decode %s: %w", rec.Identifier, err)
	}

	var titles []string
	for _, ti := range mr.TitleInfo {
		title := strings.TrimSpace(ti.Title)
		if sub := strings.TrimSpace(ti.SubTitle); sub != "" {
			title = title + " : " + sub
		}
		if title != "" {
			titles = append(titles, title)
		}
	}
	if len(titles) > 0 {
		out["title"] = titles
	}

	var names []Record
	for _, n := range mr.Names {
		name := Record{"name": strings.Join(n.NameParts, ", ")}
		if n.Type != "" {
			name["type"] = n.Type
		}
		if len(n.Roles) > 0 {
			name["roles"] = n.Roles
		}
		names = append(names, name)
	}
	if len(names) > 0 {
		out["names"] = names
	}

	if len(mr.Identifiers) > 0 {
		ids := make([]Record, 0, len(mr.Identifiers))
		for _, id := range mr.Identifiers {
			ids = append(ids, Record{"type": id.Type, "value": strings.TrimSpace(id.Value)})
		}
		out["identifiers"] = ids
	}

	origin := Record{}
	if mr.OriginInfo.Publisher != "" {
		origin["publisher"] = mr.OriginInfo.Publisher
	}
	if len(mr.OriginInfo.DateIssued) > 0 {
		origin["dateIssued"] = mr.OriginInfo.DateIssued
	}
	if len(mr.OriginInfo.Places) > 0 {
		origin["places"] = mr.OriginInfo.Places
	}
	if len(origin) > 0 {
		out["origin"] = origin
	}

	var subjects []string
	for _, s := range mr.Subjects {
		subjects = append(subjects, s.Topics...)
		subjects = append(subjects, s.Geographic...)
	}
	if len(subjects) > 0 {
		out["subjects"] = subjects
	}

	if mr.TypeOfResource != "" {
		out["typeOfResource"] = mr.TypeOfResource
	}
	if len(mr.Languages) > 0 {
		out["languages"] = mr.Languages
	}
	if mr.Abstract != "" {
		out["abstract"] = mr.Abstract
	}
	return out, nil
}
