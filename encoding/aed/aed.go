// Package aed reads gene annotations in the Affymetrix/ChAS "AED" layout: a
// fixed-size preamble of type and namespace declarations followed by
// tab-separated rows
//
//   chromosome  start  stop  name  value  strand  category  [ignored...]
//
// Minus-strand rows store their coordinates in transcription order, so start
// may exceed stop; normalizing them is left to the consumer, which also
// decides which categories count as coding.
package aed

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/overlapmap/util"
)

// Opts controls how an annotation file is read.
type Opts struct {
	// HeaderLines is the number of preamble lines to skip before the first
	// annotation row.
	HeaderLines int
}

// DefaultOpts matches the Genes.aed files exported by ChAS, which carry an
// eleven-line preamble.
var DefaultOpts = Opts{
	HeaderLines: 11,
}

// Record is a single annotation row.
type Record struct {
	ChrName  string
	Start    int64
	Stop     int64
	Name     string
	Strand   string
	Category string
	// Line is the 1-based line of the row in its file.
	Line int
}

// String formats the record's columns the way they appear in the file
// (without the value column).
func (r Record) String() string {
	return fmt.Sprintf("%s\t%d\t%d\t%s\t%s\t%s", r.ChrName, r.Start, r.Stop, r.Name, r.Strand, r.Category)
}

// MalformedAnnotationError is returned for an annotation row that can't be
// parsed.  It identifies the offending row.
type MalformedAnnotationError struct {
	Path string
	Line int
	Row  string
	Err  error
}

func (e *MalformedAnnotationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("line %d: malformed annotation row %q: %v", e.Line, e.Row, e.Err)
	}
	return fmt.Sprintf("%s:%d: malformed annotation row %q: %v", e.Path, e.Line, e.Row, e.Err)
}

func (e *MalformedAnnotationError) Unwrap() error {
	return e.Err
}

// aedRow lists the leading AED columns.  Coordinates are kept as strings so
// that parse failures can be reported with the row attached.
type aedRow struct {
	Chr      string
	Start    string
	Stop     string
	Name     string
	Value    string
	Strand   string
	Category string
}

// numAEDColumns is the number of leading columns every row must have.
const numAEDColumns = 7

func newAEDRow(fields []string) aedRow {
	return aedRow{
		Chr:      fields[0],
		Start:    fields[1],
		Stop:     fields[2],
		Name:     fields[3],
		Value:    fields[4],
		Strand:   fields[5],
		Category: fields[6],
	}
}

func (r aedRow) String() string {
	return strings.Join([]string{r.Chr, r.Start, r.Stop, r.Name, r.Value, r.Strand, r.Category}, "\t")
}

// ReadRecords parses every annotation row from r.  name is used in error
// messages.  The first malformed row aborts the read.
func ReadRecords(r io.Reader, name string, opts Opts) ([]Record, error) {
	br := bufio.NewReaderSize(r, 64<<10)
	for i := 0; i < opts.HeaderLines; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, err
		}
	}
	scanner := tsv.NewReader(br)
	scanner.Comment = '#'
	scanner.LazyQuotes = true
	scanner.FieldsPerRecord = -1

	var records []Record
	for {
		// Raw fields, so that short rows can be reported instead of decoded.
		fields, err := scanner.Reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := len(records) + opts.HeaderLines + 1
			if perr, ok := err.(*csv.ParseError); ok {
				line = perr.StartLine + opts.HeaderLines
			}
			return nil, &MalformedAnnotationError{Path: name, Line: line, Row: strings.Join(fields, "\t"), Err: err}
		}
		line, _ := scanner.FieldPos(0)
		line += opts.HeaderLines
		if len(fields) < numAEDColumns {
			return nil, &MalformedAnnotationError{
				Path: name,
				Line: line,
				Row:  strings.Join(fields, "\t"),
				Err:  fmt.Errorf("%d column(s), want at least %d", len(fields), numAEDColumns),
			}
		}
		row := newAEDRow(fields)
		rec, err := parseRow(row)
		if err != nil {
			return nil, &MalformedAnnotationError{Path: name, Line: line, Row: row.String(), Err: err}
		}
		rec.Line = line
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row aedRow) (rec Record, err error) {
	if row.Chr == "" {
		return rec, fmt.Errorf("empty chromosome")
	}
	if rec.Start, err = strconv.ParseInt(row.Start, 10, 64); err != nil {
		return rec, fmt.Errorf("start: %v", err)
	}
	if rec.Stop, err = strconv.ParseInt(row.Stop, 10, 64); err != nil {
		return rec, fmt.Errorf("stop: %v", err)
	}
	if rec.Start < 0 || rec.Stop < 0 {
		return rec, fmt.Errorf("negative coordinate")
	}
	rec.ChrName = row.Chr
	rec.Name = row.Name
	rec.Strand = row.Strand
	rec.Category = row.Category
	return rec, nil
}

// Read reads the annotation file at path, which may be gzipped.
func Read(ctx context.Context, path string, opts Opts) (records []Record, err error) {
	in, err := util.OpenReader(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if records, err = ReadRecords(in, path, opts); err != nil {
		return nil, err
	}
	log.Printf("%s: read %d annotation row(s)", path, len(records))
	return records, nil
}
