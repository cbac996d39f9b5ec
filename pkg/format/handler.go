// Package format maps raw OAI-PMH metadata records into structured values.
//
// A Handler turns the verbatim XML payload of one record into a Record.
// Handlers are looked up in a registry by name, or inferred from the
// harvest's metadata prefix; callers may register their own implementations
// alongside the built-in ones (dc, marc, mods, lido, generic, raw).
package format

// Handler parses one raw record into a structured Record.
type Handler interface {
	Parse(rec *RawRecord) (Record, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(rec *RawRecord) (Record, error)

func (f HandlerFunc) Parse(rec *RawRecord) (Record, error) { return f(rec) }

// envelope returns a Record pre-populated with the header fields every
// handler carries over: identifier, datestamp, deleted and set membership.
func envelope(rec *RawRecord) Record {
	out := Record{
		KeyIdentifier: rec.Identifier,
		KeyDatestamp:  rec.Datestamp,
		KeyDeleted:    rec.Deleted,
	}
	if len(rec.Sets) > 0 {
		out[KeySets] = rec.Sets
	}
	return out
}
