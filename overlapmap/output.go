package overlapmap

import (
	"context"
	"io"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/overlapmap/encoding/bed"
	"github.com/grailbio/overlapmap/interval"
)

// MaskTrackAttrs are the attributes of the track line that opens the mask
// BED.  The array-analysis software requires the line verbatim.
const MaskTrackAttrs = `db="hg38"`

// Names of the audit files written with Opts.KeepIntermediates.
const (
	CodingRegionsName    = "coding_regions.bed"
	NonCodingRegionsName = "noncoding_regions.bed"
	NonCodingProbesName  = "noncoding_probes.bed"
)

// stagedBED is a BED file that has been fully written but not yet moved to
// its final name.
type stagedBED struct {
	path   string
	out    file.File
	digest uint64
}

// stageBED creates path and lets fill write rows through a bed.Writer.  The
// caller must commit or discard the result; on error nothing is left behind.
func stageBED(ctx context.Context, path string, fill func(w *bed.Writer) error) (staged stagedBED, err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return staged, err
	}
	h := seahash.New()
	w := bed.NewWriter(io.MultiWriter(out.Writer(ctx), h))
	if err = fill(w); err == nil {
		err = w.Flush()
	}
	if err != nil {
		out.Discard(ctx)
		return staged, err
	}
	return stagedBED{path: path, out: out, digest: h.Sum64()}, nil
}

// commitBEDs moves staged files to their final names, in order.  If one
// fails, the rest are discarded and the ones already committed are removed,
// so a failed run leaves none of them.
func commitBEDs(ctx context.Context, staged []stagedBED) error {
	for i, s := range staged {
		if err := s.out.Close(ctx); err != nil {
			for _, rest := range staged[i+1:] {
				rest.out.Discard(ctx)
			}
			for _, done := range staged[:i] {
				if e := file.Remove(ctx, done.path); e != nil {
					log.Error.Printf("%s: remove after failed commit: %v", done.path, e)
				}
			}
			return errors.E(err, "write", s.path)
		}
	}
	return nil
}

func discardBEDs(ctx context.Context, staged []stagedBED) {
	for _, s := range staged {
		s.out.Discard(ctx)
	}
}

func stageMask(ctx context.Context, path string, masked []MaskedRegion) (stagedBED, error) {
	return stageBED(ctx, path, func(w *bed.Writer) error {
		if err := w.WriteTrackLine(MaskTrackAttrs); err != nil {
			return err
		}
		for _, m := range masked {
			if err := w.Write(m.ChrName, int64(m.Start), int64(m.Stop), m.Label); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteMask writes the mask BED: the track line, then one
// "chromosome start stop label" row per region, in the given order.  It
// returns the seahash digest of the file's contents.
func WriteMask(ctx context.Context, path string, masked []MaskedRegion) (digest uint64, err error) {
	staged, err := stageMask(ctx, path, masked)
	if err != nil {
		return 0, err
	}
	if err = commitBEDs(ctx, []stagedBED{staged}); err != nil {
		return 0, err
	}
	return staged.digest, nil
}

func stageCodingRegions(ctx context.Context, path string, genes []GeneRegion) (stagedBED, error) {
	return stageBED(ctx, path, func(w *bed.Writer) error {
		for _, g := range genes {
			if err := w.Write(g.ChrName, int64(g.Start0), int64(g.End), g.Gene); err != nil {
				return err
			}
		}
		return nil
	})
}

func stageNonCodingRegions(ctx context.Context, path string, regions []interval.Entry) (stagedBED, error) {
	return stageBED(ctx, path, func(w *bed.Writer) error {
		for _, r := range regions {
			if err := w.Write(r.ChrName, int64(r.Start0), int64(r.End), ""); err != nil {
				return err
			}
		}
		return nil
	})
}

// stageNonCodingProbes lists assigned probes as one-base intervals named
// "probeID|regionStart-regionEnd".
func stageNonCodingProbes(ctx context.Context, path string, groups []RegionProbes) (stagedBED, error) {
	return stageBED(ctx, path, func(w *bed.Writer) error {
		for _, g := range groups {
			suffix := "|" + maskLabel(g.Region.Start0, g.Region.End)
			for _, p := range g.Probes {
				if err := w.Write(p.ChrName, int64(p.Pos), int64(p.Pos)+1, p.ID+suffix); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
