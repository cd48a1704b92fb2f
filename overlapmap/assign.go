package overlapmap

import (
	"context"
	"runtime"
	"sort"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/overlapmap/encoding/bed"
	"github.com/grailbio/overlapmap/interval"
	"v.io/x/lib/vlog"
)

// RegionProbes is a non-coding region together with the probes it contains,
// in ascending position order.
type RegionProbes struct {
	Region interval.Entry
	Probes []bed.Probe
}

// chrRegions holds one chromosome's regions sorted by start, with the
// lookup columns used by the sweep.
type chrRegions struct {
	name    string
	regions []interval.Entry
	starts  []interval.PosType
	// maxEnds[i] is the largest End among regions[0..i].  When it reaches
	// below a probe, no earlier region can contain the probe either.
	maxEnds []interval.PosType
	probes  []bed.Probe
}

func newChrRegions(name string, regions []interval.Entry) *chrRegions {
	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Start0 < regions[j].Start0
	})
	c := &chrRegions{
		name:    name,
		regions: regions,
		starts:  make([]interval.PosType, len(regions)),
		maxEnds: make([]interval.PosType, len(regions)),
	}
	var maxEnd interval.PosType = -1
	for i, r := range regions {
		c.starts[i] = r.Start0
		if r.End > maxEnd {
			maxEnd = r.End
		}
		c.maxEnds[i] = maxEnd
	}
	return c
}

// assign sweeps c.probes, which must be sorted by position, against the
// regions.  It returns one group per region that received probes, in region
// order, and the number of probes that fell outside every region.
func (c *chrRegions) assign() (groups []RegionProbes, nDropped int, err error) {
	byRegion := make([][]bed.Probe, len(c.regions))
	var idx interval.EndpointIndex
	for _, probe := range c.probes {
		pos := probe.Pos
		// idx is the number of regions starting at or before pos.
		idx = interval.ExpsearchPosType(c.starts, pos+1, idx)
		if idx == 0 || c.maxEnds[idx-1] < pos {
			nDropped++
			continue
		}
		cand := int(idx) - 1
		if cand == 0 || c.maxEnds[cand-1] < pos {
			if interval.Contains(c.regions[cand], pos) {
				byRegion[cand] = append(byRegion[cand], probe)
			} else {
				nDropped++
			}
			continue
		}
		// An earlier region reaches pos.  Only inconsistent region lists get
		// here, so a linear scan is fine.
		var matches []int
		for i := cand; i >= 0; i-- {
			if interval.Contains(c.regions[i], pos) {
				matches = append(matches, i)
			}
		}
		if len(matches) > 1 {
			overlapping := make([]interval.Entry, len(matches))
			for i, m := range matches {
				overlapping[len(matches)-1-i] = c.regions[m]
			}
			return nil, 0, &OverlappingRegionError{Probe: probe, Regions: overlapping}
		}
		byRegion[matches[0]] = append(byRegion[matches[0]], probe)
	}
	for i, probes := range byRegion {
		if len(probes) > 0 {
			groups = append(groups, RegionProbes{Region: c.regions[i], Probes: probes})
		}
	}
	return groups, nDropped, nil
}

// AssignProbes joins each probe to the non-coding region containing it,
// boundaries included.  Probes outside every region are dropped; a probe
// inside more than one region fails with *OverlappingRegionError.  A
// region's End is the first base of the following gene, so coding probes
// must be removed beforehand with DropCodingProbes.
//
// Chromosomes are processed in up to parallelism concurrent jobs (0 means
// runtime.NumCPU()).  The result does not depend on parallelism: groups
// follow the chromosome order of regions and then region start, and each
// group's probes are sorted by position, then ID.  Neither input is
// modified.
func AssignProbes(ctx context.Context, probes []bed.Probe, regions []interval.Entry, parallelism int) ([]RegionProbes, error) {
	var (
		chrs  []*chrRegions
		byChr = make(map[string][]interval.Entry)
	)
	for _, r := range regions {
		if _, found := byChr[r.ChrName]; !found {
			chrs = append(chrs, &chrRegions{name: r.ChrName})
		}
		byChr[r.ChrName] = append(byChr[r.ChrName], r)
	}
	chrIdx := make(map[string]int, len(chrs))
	for i, c := range chrs {
		chrs[i] = newChrRegions(c.name, byChr[c.name])
		chrIdx[c.name] = i
	}
	nUnplaced := 0
	for _, p := range probes {
		i, found := chrIdx[p.ChrName]
		if !found {
			nUnplaced++
			continue
		}
		chrs[i].probes = append(chrs[i].probes, p)
	}

	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if parallelism > len(chrs) {
		parallelism = len(chrs)
	}
	var (
		results  = make([][]RegionProbes, len(chrs))
		dropped  = make([]int, len(chrs))
		chrErrs  = make([]error, len(chrs))
		nChr     = len(chrs)
		nGroups  int
		nDropped = nUnplaced
	)
	if parallelism > 0 {
		err := traverse.Each(parallelism, func(jobIdx int) error {
			startIdx := (jobIdx * nChr) / parallelism
			endIdx := ((jobIdx + 1) * nChr) / parallelism
			for i := startIdx; i < endIdx; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				c := chrs[i]
				sort.Slice(c.probes, func(a, b int) bool {
					pa, pb := c.probes[a], c.probes[b]
					if pa.Pos != pb.Pos {
						return pa.Pos < pb.Pos
					}
					return pa.ID < pb.ID
				})
				results[i], dropped[i], chrErrs[i] = c.assign()
				vlog.VI(1).Infof("%s: %d probe(s), %d region(s), %d group(s), %d dropped",
					c.name, len(c.probes), len(c.regions), len(results[i]), dropped[i])
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	// Report the first failing chromosome in region order, whichever job hit
	// it first.
	for _, err := range chrErrs {
		if err != nil {
			return nil, err
		}
	}
	var groups []RegionProbes
	for i, g := range results {
		groups = append(groups, g...)
		nGroups += len(g)
		nDropped += dropped[i]
	}
	log.Printf("assigned %d probe(s) to %d non-coding region(s); %d probe(s) outside every region",
		len(probes)-nDropped, nGroups, nDropped)
	return groups, nil
}
