package overlapmap

import (
	"fmt"

	"github.com/biogo/store/llrb"
	"github.com/grailbio/base/log"
	"github.com/grailbio/overlapmap/interval"
)

// MaskedRegion is one row of the mask BED.  Start and Stop are the positions
// of the first and last probe kept after trimming, not the bounds of the
// enclosing non-coding region.
type MaskedRegion struct {
	ChrName string
	Start   interval.PosType
	Stop    interval.PosType
	Label   string
}

// Compare orders mask regions by natural chromosome order, then start, then
// stop.  Labels are derived from the coordinates and don't take part.
func (m MaskedRegion) Compare(c llrb.Comparable) int {
	m2 := c.(MaskedRegion)
	if diff := CompareChrNames(m.ChrName, m2.ChrName); diff != 0 {
		return diff
	}
	if m.Start != m2.Start {
		if m.Start < m2.Start {
			return -1
		}
		return 1
	}
	if m.Stop != m2.Stop {
		if m.Stop < m2.Stop {
			return -1
		}
		return 1
	}
	return 0
}

// maskLabel is the name column of a mask row.
func maskLabel(start, stop interval.PosType) string {
	return fmt.Sprintf("%d-%d", start, stop)
}

// TrimRegions turns probe groups into mask regions.  A group of L probes is
// discarded when L < 2*margin; otherwise margin-1 probes are dropped from
// each end and the span of the remaining run becomes a MaskedRegion.  With
// margin 1 nothing is trimmed, and only single-probe groups are discarded.
//
// Identical (chromosome, start, stop) regions are reported once.  The result
// is sorted by natural chromosome order ("chr2" before "chr10"), then start
// and stop.
func TrimRegions(groups []RegionProbes, margin int) ([]MaskedRegion, error) {
	if margin < 1 {
		return nil, &InputValidationError{Field: "margin", Msg: fmt.Sprintf("%d is not a positive probe count", margin)}
	}
	var (
		tree       = llrb.Tree{}
		nDiscarded int
	)
	for _, g := range groups {
		n := len(g.Probes)
		if n < 2*margin {
			nDiscarded++
			continue
		}
		kept := g.Probes[margin-1 : n-(margin-1)]
		start, stop := kept[0].Pos, kept[len(kept)-1].Pos
		tree.Insert(MaskedRegion{
			ChrName: g.Region.ChrName,
			Start:   start,
			Stop:    stop,
			Label:   maskLabel(start, stop),
		})
	}
	masked := make([]MaskedRegion, 0, tree.Len())
	tree.Do(func(c llrb.Comparable) bool {
		masked = append(masked, c.(MaskedRegion))
		return false
	})
	log.Printf("trimmed %d probe group(s) with margin %d: %d discarded, %d mask region(s)",
		len(groups), margin, nDiscarded, len(masked))
	return masked, nil
}
