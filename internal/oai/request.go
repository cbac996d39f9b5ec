package oai

import (
	"fmt"
	"net/url"
)

const (
	VerbListRecords = "ListRecords"
	VerbIdentify    = "Identify"
)

// Request holds the parameters of one protocol request. A resumption token
// suppresses all other parameters: per protocol, the token encodes them.
type Request struct {
	Verb   string
	Prefix string
	Set    string
	From   string
	Until  string
	Token  string
}

// Query returns the wire parameters for this request.
func (r Request) Query() url.Values {
	vals := url.Values{}
	addIfExists(vals, "verb", r.Verb)
	if r.Token != "" {
		vals.Set("resumptionToken", r.Token)
		return vals
	}
	if r.Verb == VerbIdentify {
		return vals
	}
	addIfExists(vals, "metadataPrefix", r.Prefix)
	addIfExists(vals, "set", r.Set)
	addIfExists(vals, "from", r.From)
	addIfExists(vals, "until", r.Until)
	return vals
}

// URL joins the endpoint base URL with the encoded query.
func (r Request) URL(endpoint string) (string, error) {
	if endpoint == "" {
		return "", wrapError(CodeConfigInvalid, false, fmt.Errorf("endpoint is required"))
	}
	if r.Verb == "" {
		return "", wrapError(CodeConfigInvalid, false, fmt.Errorf("verb is required"))
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", wrapError(CodeConfigInvalid, false, fmt.Errorf("invalid endpoint URL: %w", err))
	}
	u.RawQuery = r.Query().Encode()
	return u.String(), nil
}

// addIfExists adds a key value pair only if value is nonempty.
func addIfExists(vals url.Values, key, value string) {
	if value != "" {
		vals.Add(key, value)
	}
}
