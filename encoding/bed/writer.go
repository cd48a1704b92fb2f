package bed

import (
	"io"

	"github.com/grailbio/base/tsv"
)

// Writer emits BED rows: chromosome, start, end and an optional name
// column.  Rows are written exactly as given; ordering is the caller's
// business.
type Writer struct {
	tw *tsv.Writer
}

// NewWriter returns a Writer that buffers output for w.  Flush must be
// called once all rows are written.
func NewWriter(w io.Writer) *Writer {
	return &Writer{tw: tsv.NewWriter(w)}
}

// WriteTrackLine writes a "track" line carrying the given attributes, e.g.
// `db="hg38"`.
func (w *Writer) WriteTrackLine(attrs string) error {
	w.tw.WriteString("track " + attrs)
	return w.tw.EndLine()
}

// Write writes one row.  An empty name produces a three-column row.
func (w *Writer) Write(chrName string, start, end int64, name string) error {
	w.tw.WriteString(chrName)
	w.tw.WriteInt64(start)
	w.tw.WriteInt64(end)
	if name != "" {
		w.tw.WriteString(name)
	}
	return w.tw.EndLine()
}

// Flush writes buffered rows to the underlying writer.
func (w *Writer) Flush() error {
	return w.tw.Flush()
}
