package overlapmap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/overlapmap/encoding/aed"
	"github.com/grailbio/overlapmap/interval"
)

// GeneRegion is the whole extent of one gene's coding records on one
// chromosome.
type GeneRegion struct {
	Gene string
	interval.Entry
}

type geneKey struct {
	gene, chrName string
}

// codingRow is the part of an annotation record that survives filtering;
// exact duplicates of it are dropped.
type codingRow struct {
	geneKey
	start, stop int64
}

// CondenseGenes reduces the annotation to one GeneRegion per (gene,
// chromosome).  Only records whose category contains codingCategory take
// part; the rest are dropped silently.  Minus-strand coordinates are swapped
// so that start <= stop everywhere downstream.
//
// The result is sorted by chromosome (byte order), start, stop and gene, as
// interval.Complement requires.  A coding record with a strand other than
// "+" or "-", or with start > stop after normalization, yields
// *aed.MalformedAnnotationError.
func CondenseGenes(records []aed.Record, codingCategory string) ([]GeneRegion, error) {
	var (
		keys    []geneKey
		entries []interval.Entry
		seen    = make(map[codingRow]bool)
		nCoding int
	)
	for _, rec := range records {
		if !strings.Contains(rec.Category, codingCategory) {
			continue
		}
		nCoding++
		start, stop := rec.Start, rec.Stop
		switch rec.Strand {
		case "+":
		case "-":
			start, stop = stop, start
		default:
			return nil, malformed(rec, fmt.Errorf("strand %q is neither + nor -", rec.Strand))
		}
		if start > stop {
			return nil, malformed(rec, fmt.Errorf("start %d exceeds stop %d on the %s strand", start, stop, rec.Strand))
		}
		if stop >= interval.PosTypeMax {
			return nil, malformed(rec, fmt.Errorf("stop %d out of range", stop))
		}
		row := codingRow{geneKey{rec.Name, rec.ChrName}, start, stop}
		if seen[row] {
			continue
		}
		seen[row] = true
		keys = append(keys, row.geneKey)
		entries = append(entries, interval.Entry{
			ChrName: rec.ChrName,
			Start0:  interval.PosType(start),
			End:     interval.PosType(stop),
		})
	}
	merged, err := interval.MergePerKey(keys, entries)
	if err != nil {
		return nil, err
	}
	regions := make([]GeneRegion, 0, len(merged))
	for key, entry := range merged {
		regions = append(regions, GeneRegion{Gene: key.gene, Entry: entry})
	}
	sort.Slice(regions, func(i, j int) bool {
		ri, rj := regions[i], regions[j]
		if ri.ChrName != rj.ChrName {
			return ri.ChrName < rj.ChrName
		}
		if ri.Start0 != rj.Start0 {
			return ri.Start0 < rj.Start0
		}
		if ri.End != rj.End {
			return ri.End < rj.End
		}
		return ri.Gene < rj.Gene
	})
	log.Printf("condensed %d coding record(s) (%d distinct) into %d gene region(s)", nCoding, len(entries), len(regions))
	return regions, nil
}

func malformed(rec aed.Record, err error) error {
	return &aed.MalformedAnnotationError{Line: rec.Line, Row: rec.String(), Err: err}
}
