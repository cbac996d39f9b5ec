package format

// Record represents a single parsed metadata record as key-value pairs.
type Record = map[string]any

// Envelope keys present on every parsed record.
const (
	KeyIdentifier = "identifier"
	KeyDatestamp  = "datestamp"
	KeyDeleted    = "deleted"
	KeySets       = "sets"
)

// RawRecord is one harvested metadata record before parsing: the OAI-PMH
// header fields plus the verbatim metadata payload.
type RawRecord struct {
	// Identifier is the unique OAI identifier of the item.
	Identifier string

	// Datestamp is the datestamp of the record, as reported by the endpoint.
	Datestamp string

	// Sets lists the setSpec memberships of the item.
	Sets []string

	// Deleted is true when the header carries status="deleted". Deleted
	// records usually have no metadata payload.
	Deleted bool

	// Metadata holds the verbatim XML inside the <metadata> element.
	Metadata []byte

	// About holds the verbatim XML of any <about> containers.
	About [][]byte
}

// Iterator provides streaming access to records.
type Iterator[T any] interface {
	// Next advances to the next record. Returns false when done or on error.
	Next() bool

	// Value returns the current record. Only valid after Next() returns true.
	Value() T

	// Err returns any error encountered during iteration.
	Err() error

	// Close releases resources. Must be called when done.
	Close() error
}

// --- Validation Types ---

type ValidationResult struct {
	Valid     bool
	Message   string
	Code      string
	Retryable bool
}
