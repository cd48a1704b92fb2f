package interval

import (
	"fmt"

	"github.com/grailbio/base/log"
)

// Entry represents a single interval, with 0-based coordinates.
type Entry struct {
	ChrName string
	Start0  PosType
	End     PosType
}

func (e Entry) String() string {
	return fmt.Sprintf("%s:[%d,%d)", e.ChrName, e.Start0, e.End)
}

// RefLength is the length of one reference contig.
type RefLength struct {
	Name   string
	Length PosType
}

// Contains returns whether pos lies within e.  Unlike the rest of this
// package, both boundaries count as inside: a probe sitting exactly on
// e.End is assigned to e.
func Contains(e Entry, pos PosType) bool {
	return e.Start0 <= pos && pos <= e.End
}

// Union is implemented as a collection of length-2N sequences, where N is the
// number of intervals on a chromosome, the (0-based) start position of
// interval #k (numbering from zero) is in element [2k] and the end position
// is in element [2k+1], and the intervals are stored in increasing order.
type Union struct {
	// nameMap is a chromosome-keyed map with disjoint-interval-set values.
	nameMap map[string][]PosType
	// names lists the chromosomes in input order.
	names []string
	// lastChrIntervals points to the disjoint-interval-set for the most recently
	// queried chromosome.
	lastChrIntervals []PosType
	// lastChrName is the name of the last queried chromosome.  If it's
	// nonempty, it must be in sync with lastChrIntervals.
	lastChrName string
	// lastPosPlus1 is 1 plus the last spot-queried position.
	lastPosPlus1 PosType
	// lastIdx is SearchPosTypes(lastChrIntervals, lastPosPlus1).  Cached to
	// accelerate sequential queries.
	lastIdx EndpointIndex
	// isSequential is true if all queries since the last chromosome change have
	// been in order of nondecreasing position.
	isSequential bool
}

// NewUnionFromEntries initializes a Union from entries sorted by start
// within each chromosome, with each chromosome's entries contiguous.
// Overlapping and touching intervals are merged, and empty ones are dropped
// (an empty entry still counts as a mention of its chromosome).
func NewUnionFromEntries(entries []Entry) (u Union, err error) {
	u.nameMap = make(map[string][]PosType)
	prevChr := ""
	var prevStart, prevEnd PosType
	var chrIntervals []PosType
	flush := func() {
		if prevEnd != -1 {
			chrIntervals = append(chrIntervals, prevStart, prevEnd)
		}
		u.nameMap[prevChr] = chrIntervals
		u.names = append(u.names, prevChr)
	}
	totBases := 0
	for _, entry := range entries {
		if entry.ChrName == "" {
			return Union{}, &InvalidIntervalError{Entry: entry, Reason: "empty chromosome name"}
		}
		if entry.Start0 < 0 {
			return Union{}, &InvalidIntervalError{Entry: entry, Reason: "negative start coordinate"}
		}
		if entry.End < entry.Start0 {
			return Union{}, &InvalidIntervalError{Entry: entry, Reason: "end precedes start"}
		}
		if prevChr != entry.ChrName {
			if prevChr != "" {
				flush()
			}
			prevChr = entry.ChrName
			if _, found := u.nameMap[prevChr]; found {
				return Union{}, &InvalidIntervalError{Entry: entry, Reason: "unsorted input (split chromosome)"}
			}
			chrIntervals = []PosType{}
			if entry.End == entry.Start0 {
				// Distinguish between 'mentioned' chromosomes without any covered
				// bases and unmentioned chromosomes.
				prevStart = -1
				prevEnd = -1
				continue
			}
			prevStart = entry.Start0
			prevEnd = entry.End
			totBases += int(entry.End - entry.Start0)
			continue
		}
		if entry.End == entry.Start0 {
			continue
		}
		if prevEnd == -1 {
			prevStart = entry.Start0
			prevEnd = entry.End
			totBases += int(entry.End - entry.Start0)
			continue
		}
		if entry.Start0 < prevStart {
			return Union{}, &InvalidIntervalError{Entry: entry, Reason: fmt.Sprintf("unsorted input (follows start %d)", prevStart)}
		}
		if entry.Start0 > prevEnd {
			// New interval doesn't overlap previous one, so we can save the previous
			// one.
			chrIntervals = append(chrIntervals, prevStart, prevEnd)
			prevStart = entry.Start0
			prevEnd = entry.End
			totBases += int(entry.End - entry.Start0)
			continue
		}
		// Intervals overlap or touch, merge them.
		if entry.End > prevEnd {
			totBases += int(entry.End - prevEnd)
			prevEnd = entry.End
		}
	}
	if prevChr != "" {
		flush()
	}
	u.lastChrName = ""
	log.Debug.Printf("interval union built over %d chromosome(s), %d base(s) covered", len(u.names), totBases)
	return u, nil
}

// Names returns the chromosomes mentioned by the union, in input order.
func (u *Union) Names() []string {
	return u.names
}

// Endpoints returns the sorted endpoint sequence for chrName, or nil if the
// chromosome was never mentioned.  The caller must not modify the result.
func (u *Union) Endpoints(chrName string) []PosType {
	return u.nameMap[chrName]
}

// ContainsByName checks whether the (0-based) interval [pos, pos+1) is
// contained within the Union.
func (u *Union) ContainsByName(chrName string, pos PosType) bool {
	posPlus1 := pos + 1
	if chrName != u.lastChrName {
		u.lastChrName = chrName
		u.lastChrIntervals = u.nameMap[chrName]
		// Force a full search on the first query for a contig.
		if u.lastChrIntervals == nil {
			return false
		}
		u.lastIdx = NewEndpointIndex(pos, u.lastChrIntervals)
		u.lastPosPlus1 = posPlus1
		u.isSequential = true
		return u.lastIdx.Contained()
	}
	if u.lastChrIntervals == nil {
		return false
	}
	if u.isSequential {
		if posPlus1 >= u.lastPosPlus1 {
			u.lastIdx.Update(pos, u.lastChrIntervals)
			u.lastPosPlus1 = posPlus1
			return u.lastIdx.Contained()
		}
		u.isSequential = false
	}
	return SearchPosTypes(u.lastChrIntervals, posPlus1).Contained()
}

// Complement returns the gaps of the union within [0, length) of every
// reference in lengths, ordered by lengths and then by position.  A
// reference the union never mentions yields one whole-length interval; a
// fully covered reference yields nothing.
//
// It fails with *UnknownChromosomeError if the union mentions a chromosome
// absent from lengths, and with *InvalidIntervalError if an interval extends
// past its chromosome's length.
func (u *Union) Complement(lengths []RefLength) ([]Entry, error) {
	known := make(map[string]PosType, len(lengths))
	for _, ref := range lengths {
		if ref.Length <= 0 {
			return nil, &InvalidIntervalError{Entry: Entry{ChrName: ref.Name, End: ref.Length}, Reason: "non-positive chromosome length"}
		}
		if _, found := known[ref.Name]; found {
			return nil, &InvalidIntervalError{Entry: Entry{ChrName: ref.Name, End: ref.Length}, Reason: "duplicate chromosome length"}
		}
		known[ref.Name] = ref.Length
	}
	for _, name := range u.names {
		if _, found := known[name]; !found {
			return nil, &UnknownChromosomeError{ChrName: name}
		}
	}
	var gaps []Entry
	for _, ref := range lengths {
		endpoints := u.nameMap[ref.Name]
		if n := len(endpoints); n > 0 && endpoints[n-1] > ref.Length {
			return nil, &InvalidIntervalError{
				Entry:  Entry{ChrName: ref.Name, Start0: endpoints[n-2], End: endpoints[n-1]},
				Reason: fmt.Sprintf("extends past chromosome length %d", ref.Length),
			}
		}
		var prevEnd PosType
		for i := 0; i < len(endpoints); i += 2 {
			if endpoints[i] > prevEnd {
				gaps = append(gaps, Entry{ChrName: ref.Name, Start0: prevEnd, End: endpoints[i]})
			}
			prevEnd = endpoints[i+1]
		}
		if prevEnd < ref.Length {
			gaps = append(gaps, Entry{ChrName: ref.Name, Start0: prevEnd, End: ref.Length})
		}
	}
	return gaps, nil
}

// Complement is a wrapper for NewUnionFromEntries followed by
// Union.Complement.
func Complement(sorted []Entry, lengths []RefLength) ([]Entry, error) {
	u, err := NewUnionFromEntries(sorted)
	if err != nil {
		return nil, err
	}
	return u.Complement(lengths)
}
