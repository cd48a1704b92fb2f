// Package fasta reads reference contig lengths: the genome "universe" that
// coding regions are complemented against.  Lengths may come from a FASTA
// index (*.fai), a two-column bedtools-style genome file, a Picard sequence
// dictionary (*.dict), or a FASTA file, which is indexed on the fly.  See
// http://www.htslib.org/doc/faidx.html for the index format.
package fasta

import (
	"bytes"
	"context"
	_ "embed" // for the GRCh38 genome file
	"io"
	"io/ioutil"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/overlapmap/util"
	"github.com/pkg/errors"
)

// RefLength is the name and length of one reference contig.
type RefLength struct {
	Name   string
	Length uint64
}

// grch38Genome holds the primary-assembly contig lengths of GRCh38, in the
// order of the UCSC hg38 FASTA index.
//
//go:embed data/grch38.genome
var grch38Genome string

// GRCh38 returns the embedded GRCh38 primary-assembly contig lengths.
func GRCh38() []RefLength {
	refs, err := ReadFai(strings.NewReader(grch38Genome))
	if err != nil {
		log.Panicf("embedded GRCh38 genome file: %v", err)
	}
	return refs
}

// ReadFai reads reference lengths from the first two columns of a FASTA
// index or genome file, preserving file order.  Further columns are
// ignored.
func ReadFai(r io.Reader) ([]RefLength, error) {
	tr := tsv.NewReader(r)
	tr.Comment = '#'
	tr.FieldsPerRecord = -1
	var refs []RefLength
	seen := make(map[string]bool)
	for {
		fields, err := tr.Reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrap(err, "couldn't read reference lengths")
		}
		line, _ := tr.FieldPos(0)
		if len(fields) < 2 {
			return nil, errors.Errorf("line %d: want name and length, got %d column(s)", line, len(fields))
		}
		length, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: reference %s length", line, fields[0])
		}
		if err := checkRef(seen, fields[0], length); err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		refs = append(refs, RefLength{Name: fields[0], Length: uint64(length)})
	}
	if len(refs) == 0 {
		return nil, errors.New("no reference lengths found")
	}
	return refs, nil
}

// ReadDict reads reference lengths from the @SQ lines of a SAM header, which
// is what a Picard sequence dictionary is.
func ReadDict(r io.Reader) ([]RefLength, error) {
	text, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't read sequence dictionary")
	}
	header, err := sam.NewHeader(text, nil)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't parse sequence dictionary")
	}
	var refs []RefLength
	seen := make(map[string]bool)
	for _, ref := range header.Refs() {
		if err := checkRef(seen, ref.Name(), int64(ref.Len())); err != nil {
			return nil, err
		}
		refs = append(refs, RefLength{Name: ref.Name(), Length: uint64(ref.Len())})
	}
	if len(refs) == 0 {
		return nil, errors.New("sequence dictionary has no @SQ lines")
	}
	return refs, nil
}

func checkRef(seen map[string]bool, name string, length int64) error {
	if name == "" {
		return errors.New("empty reference name")
	}
	if length <= 0 {
		return errors.Errorf("reference %s has non-positive length %d", name, length)
	}
	if seen[name] {
		return errors.Errorf("reference %s listed twice", name)
	}
	seen[name] = true
	return nil
}

// ReadReferenceLengths reads contig lengths from path, choosing the parser
// by extension (ignoring a trailing .gz): *.dict is read as a SAM header;
// *.fa, *.fasta and *.fna are indexed with GenerateIndex first; anything
// else is read as an index or genome file.  An empty path selects the
// embedded GRCh38 lengths.
func ReadReferenceLengths(ctx context.Context, path string) (refs []RefLength, err error) {
	if path == "" {
		log.Debug.Printf("using embedded GRCh38 reference lengths")
		return GRCh38(), nil
	}
	in, err := util.OpenReader(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	switch filepath.Ext(strings.TrimSuffix(path, ".gz")) {
	case ".dict":
		refs, err = ReadDict(in)
	case ".fa", ".fasta", ".fna":
		var idx bytes.Buffer
		if err = GenerateIndex(&idx, in); err != nil {
			return nil, errors.Wrapf(err, "%s: couldn't index FASTA", path)
		}
		refs, err = ReadFai(&idx)
	default:
		refs, err = ReadFai(in)
	}
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	log.Printf("%s: read %d reference length(s)", path, len(refs))
	return refs, nil
}
