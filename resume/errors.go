package resume

import "fmt"

// NotSerializableError reports a value that cannot survive a persist/restore
// cycle. It carries the access path from the verification root, the
// offending type (or function) name, and a remediation hint. It is a
// development-time hard stop; letting the value through would silently lose
// data on resume.
type NotSerializableError struct {
	Path string
	Type string
	Hint string
}

func (e *NotSerializableError) Error() string {
	return fmt.Sprintf("not serializable at %s: %s (%s)", e.Path, e.Type, e.Hint)
}

// MalformedRecordError reports a persisted edge record whose token count
// does not match its tag, or whose tokens cannot be parsed. It indicates
// corrupted persisted state, not ordinary staleness, and should fail the
// whole container load.
type MalformedRecordError struct {
	Record string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed subscription record %q: %s", e.Record, e.Reason)
}
