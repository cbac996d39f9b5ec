package format

func init() {
	Register("raw", func() Handler { return &Raw{} })
}

// Raw passes the metadata payload through unmodified, alongside the
// envelope fields. Useful for piping harvested XML into other tools.
type Raw struct{}

func (h *Raw) Parse(rec *RawRecord) (Record, error) {
	out := envelope(rec)
	out["raw"] = string(rec.Metadata)
	if len(rec.About) > 0 {
		about := make([]string, 0, len(rec.About))
		for _, a := range rec.About {
			about = append(about, string(a))
		}
		out["about"] = about
	}
	return out, nil
}
