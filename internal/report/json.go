package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
)

// jsonReport emits JSON lines: one object per record, records separated by a
// newline, no trailing newline. Fields appear in the order they were
// recorded; a field recorded twice appears twice, matching the record's
// actual content over a schema.
type jsonReport struct {
	mu     *sync.Mutex
	w      io.Writer
	closer io.Closer
	// label tags stdout records with a report_suffix field, since nothing
	// else identifies which report a line belongs to there.
	label  string
	first  bool
	values []string
}

func (r *jsonReport) NewRecord() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flush()
}

// SetField is a no-op for JSON: absent fields are simply not emitted.
func (r *jsonReport) SetField(string) {}

func (r *jsonReport) Str(field, value string) {
	encoded, err := json.Marshal(value)
	if err != nil {
		// Marshal of a string cannot fail; keep the field on principle.
		encoded = []byte(`""`)
	}
	r.mu.Lock()
	r.values = append(r.values, fmt.Sprintf("%q:%s", field, encoded))
	r.mu.Unlock()
}

func (r *jsonReport) Int(field string, v uint64) {
	r.mu.Lock()
	r.values = append(r.values, fmt.Sprintf("%q:%d", field, v))
	r.mu.Unlock()
}

func (r *jsonReport) Close() error {
	r.mu.Lock()
	r.flush()
	r.mu.Unlock()
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// flush writes the pending record. Caller holds the lock.
func (r *jsonReport) flush() {
	if len(r.values) == 0 {
		return
	}
	var b strings.Builder
	if !r.first {
		b.WriteByte('\n')
	}
	r.first = false
	b.WriteByte('{')
	if r.label != "" {
		fmt.Fprintf(&b, "%q:%q,", "report_suffix", r.label)
	}
	b.WriteString(strings.Join(r.values, ","))
	b.WriteByte('}')
	_, _ = io.WriteString(r.w, b.String())
	r.values = r.values[:0]
}
