package overlapmap

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/overlapmap/encoding/bed"
	"github.com/grailbio/overlapmap/encoding/fasta"
	"github.com/grailbio/overlapmap/interval"
)

// toIntervalLengths converts reference lengths to interval coordinates,
// rejecting contigs too long for interval.PosType.
func toIntervalLengths(refs []fasta.RefLength) ([]interval.RefLength, error) {
	lengths := make([]interval.RefLength, len(refs))
	for i, ref := range refs {
		if ref.Length >= interval.PosTypeMax {
			return nil, &interval.InvalidIntervalError{
				Entry:  interval.Entry{ChrName: ref.Name},
				Reason: "chromosome length out of range",
			}
		}
		lengths[i] = interval.RefLength{Name: ref.Name, Length: interval.PosType(ref.Length)}
	}
	return lengths, nil
}

// BuildNonCoding returns the complement of the gene regions within the
// reference, and the union of the gene regions it was taken from.  genes
// must be sorted as CondenseGenes sorts them.
//
// Every reference contig is represented: one whole-length region when it
// carries no genes, nothing when it is entirely coding.  A gene on a contig
// missing from refs fails with *interval.UnknownChromosomeError.
func BuildNonCoding(genes []GeneRegion, refs []fasta.RefLength) ([]interval.Entry, *interval.Union, error) {
	lengths, err := toIntervalLengths(refs)
	if err != nil {
		return nil, nil, err
	}
	entries := make([]interval.Entry, len(genes))
	for i, g := range genes {
		entries[i] = g.Entry
	}
	coding, err := interval.NewUnionFromEntries(entries)
	if err != nil {
		return nil, nil, err
	}
	regions, err := coding.Complement(lengths)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("built %d non-coding region(s) over %d chromosome(s)", len(regions), len(lengths))
	return regions, &coding, nil
}

// DropCodingProbes returns the probes that lie outside every coding
// interval.  A probe on the first base of a gene is coding even though it
// touches the end of the preceding non-coding region.  probes is not
// modified.
func DropCodingProbes(probes []bed.Probe, coding *interval.Union) []bed.Probe {
	kept := make([]bed.Probe, 0, len(probes))
	for _, p := range probes {
		if !coding.ContainsByName(p.ChrName, p.Pos) {
			kept = append(kept, p)
		}
	}
	log.Printf("%d of %d probe(s) lie inside coding genes", len(probes)-len(kept), len(probes))
	return kept
}
