package format

import (
	"encoding/xml"
	"fmt"
	"strings"
)

func init() {
	Register("lido", func() Handler { return &Lido{} })
}

// Lido parses LIDO payloads, the format Arthub serves museum objects in.
// It flattens the wrap/set nesting into record identification, titles,
// work types, repository holdings, production events and resource links.
type Lido struct{}

type lidoRecord struct {
	XMLName xml.Name `xml:"lido"`
	RecIDs  []struct {
		Type  string `xml:"type,attr"`
		Value string `xml:",chardata"`
	} `xml:"lidoRecID"`
	PublishedIDs []string `xml:"objectPublishedID"`
	Category     struct {
		Term string `xml:"term"`
	} `xml:"category"`
	Descriptive struct {
		WorkTypes       []string `xml:"objectClassificationWrap>objectWorkTypeWrap>objectWorkType>term"`
		Classifications []string `xml:"objectClassificationWrap>classificationWrap>classification>term"`
		Titles          []string `xml:"objectIdentificationWrap>titleWrap>titleSet>appellationValue"`
		Descriptions    []string `xml:"objectIdentificationWrap>objectDescriptionWrap>objectDescriptionSet>descriptiveNoteValue"`
		Repositories    []struct {
			Name   string `xml:"repositoryName>legalBodyName>appellationValue"`
			WorkID string `xml:"workID"`
		} `xml:"objectIdentificationWrap>repositoryWrap>repositorySet"`
		Events []lidoEvent `xml:"eventWrap>eventSet>event"`
	} `xml:"descriptiveMetadata"`
	Administrative struct {
		RecordIDs     []string `xml:"recordWrap>recordID"`
		RecordType    string   `xml:"recordWrap>recordType>term"`
		RecordSources []string `xml:"recordWrap>recordSource>legalBodyName>appellationValue"`
		Resources     []string `xml:"resourceWrap>resourceSet>resourceRepresentation>linkResource"`
	} `xml:"administrativeMetadata"`
}

type lidoEvent struct {
	Type   string `xml:"eventType>term"`
	Actors []struct {
		Name string `xml:"actor>nameActorSet>appellationValue"`
		Role string `xml:"roleActor>term"`
	} `xml:"eventActor>actorInRole"`
	EarliestDate string `xml:"eventDate>date>earliestDate"`
	LatestDate   string `xml:"eventDate>date>latestDate"`
}

func (h *Lido) Parse(rec *RawRecord) (Record, error) {
	out := envelope(rec)
	if rec.Deleted || len(rec.Metadata) == 0 {
		return out, nil
	}

	var lr lidoRecord
	if err := xml.Unmarshal(rec.Metadata, &lr); err != nil {
		return nil, fmt.Errorf("lido: decode %s: %w", rec.Identifier, err)
	}

	if len(lr.RecIDs) > 0 {
		out["recordID"] = strings.TrimSpace(lr.RecIDs[0].Value)
		if t := lr.RecIDs[0].Type; t != "" {
			out["recordIDType"] = t
		}
	}
	if len(lr.PublishedIDs) > 0 {
		out["publishedID"] = lr.PublishedIDs
	}
	if lr.Category.Term != "" {
		out["category"] = lr.Category.Term
	}

	d := lr.Descriptive
	if len(d.Titles) > 0 {
		out["title"] = d.Titles
	}
	if len(d.WorkTypes) > 0 {
		out["workTypes"] = d.WorkTypes
	}
	if len(d.Classifications) > 0 {
		out["classifications"] = d.Classifications
	}
	if len(d.Descriptions) > 0 {
		out["descriptions"] = d.Descriptions
	}
	if len(d.Repositories) > 0 {
		repos := make([]Record, 0, len(d.Repositories))
		for _, r := range d.Repositories {
			repo := Record{}
			if r.Name != "" {
				repo["name"] = r.Name
			}
			if r.WorkID != "" {
				repo["workID"] = r.WorkID
			}
			if len(repo) > 0 {
				repos = append(repos, repo)
			}
		}
		if len(repos) > 0 {
			out["repositories"] = repos
		}
	}
	if len(d.Events) > 0 {
		events := make([]Record, 0, len(d.Events))
		for _, e := range d.Events {
			event := Record{}
			if e.Type != "" {
				event["type"] = e.Type
			}
			if len(e.Actors) > 0 {
				actors := make([]Record, 0, len(e.Actors))
				for _, a := range e.Actors {
					actor := Record{"name": a.Name}
					if a.Role != "" {
						actor["role"] = a.Role
					}
					actors = append(actors, actor)
				}
				event["actors"] = actors
			}
			if e.EarliestDate != "" {
				event["earliestDate"] = e.EarliestDate
			}
			if e.LatestDate != "" {
				event["latestDate"] = e.LatestDate
			}
			events = append(events, event)
		}
		out["events"] = events
	}

	a := lr.Administrative
	if len(a.RecordIDs) > 0 {
		out["adminRecordIDs"] = a.RecordIDs
	}
	if a.RecordType != "" {
		out["recordType"] = a.RecordType
	}
	if len(a.RecordSources) > 0 {
		out["recordSources"] = a.RecordSources
	}
	if len(a.Resources) > 0 {
		out["resources"] = a.Resources
	}
	return out, nil
}
