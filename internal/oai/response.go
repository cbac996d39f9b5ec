package oai

import (
	"bytes"
	"encoding/xml"
	"strings"

	"github.com/thedatahub/arthub-core/pkg/format"
)

// Identify describes the remote repository, from the Identify verb.
type Identify struct {
	RepositoryName    string `xml:"repositoryName"`
	BaseURL           string `xml:"baseURL"`
	ProtocolVersion   string `xml:"protocolVersion"`
	AdminEmail        string `xml:"adminEmail"`
	EarliestDatestamp string `xml:"earliestDatestamp"`
	DeletedRecord     string `xml:"deletedRecord"`
	Granularity       string `xml:"granularity"`
}

// response is the OAI-PMH envelope. Elements are matched by local name so
// namespaced and plain responses decode alike.
type response struct {
	XMLName     xml.Name    `xml:"OAI-PMH"`
	Date        string      `xml:"responseDate"`
	Fault       oaiFault    `xml:"error"`
	ListRecords listRecords `xml:"ListRecords"`
	Identify    Identify    `xml:"Identify"`
}

type oaiFault struct {
	Code    string `xml:"code,attr"`
	Message string `xml:",chardata"`
}

type listRecords struct {
	Records []xmlRecord      `xml:"record"`
	Token   *resumptionToken `xml:"resumptionToken"`
}

type resumptionToken struct {
	Value            string `xml:",chardata"`
	Cursor           int    `xml:"cursor,attr"`
	CompleteListSize int    `xml:"completeListSize,attr"`
}

type xmlRecord struct {
	Header struct {
		Status     string   `xml:"status,attr"`
		Identifier string   `xml:"identifier"`
		Datestamp  string   `xml:"datestamp"`
		Sets       []string `xml:"setSpec"`
	} `xml:"header"`
	Metadata struct {
		Raw []byte `xml:",innerxml"`
	} `xml:"metadata"`
	About []struct {
		Raw []byte `xml:",innerxml"`
	} `xml:"about"`
}

func (r *xmlRecord) toRaw() *format.RawRecord {
	raw := &format.RawRecord{
		Identifier: r.Header.Identifier,
		Datestamp:  r.Header.Datestamp,
		Sets:       r.Header.Sets,
		Deleted:    strings.EqualFold(r.Header.Status, "deleted"),
		Metadata:   bytes.TrimSpace(r.Metadata.Raw),
	}
	for _, a := range r.About {
		raw.About = append(raw.About, bytes.TrimSpace(a.Raw))
	}
	return raw
}

// Page is one ListRecords response: its records plus the continuation
// token and the cursor/size attributes, when the endpoint reports them.
type Page struct {
	Records          []*format.RawRecord
	Token            string
	Cursor           int
	CompleteListSize int
}

func (r *response) page() *Page {
	p := &Page{Records: make([]*format.RawRecord, 0, len(r.ListRecords.Records))}
	for i := range r.ListRecords.Records {
		p.Records = append(p.Records, r.ListRecords.Records[i].toRaw())
	}
	if t := r.ListRecords.Token; t != nil {
		p.Token = strings.TrimSpace(t.Value)
		p.Cursor = t.Cursor
		p.CompleteListSize = t.CompleteListSize
	}
	return p
}
