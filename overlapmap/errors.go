package overlapmap

import (
	"fmt"

	"github.com/grailbio/overlapmap/encoding/bed"
	"github.com/grailbio/overlapmap/interval"
)

// InputValidationError is returned before any pipeline stage runs when the
// configuration is unusable: a missing or unreadable input, a missing
// output directory, or an out-of-range option.
type InputValidationError struct {
	// Field names the offending option.
	Field string
	Msg   string
	Err   error
}

func (e *InputValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Field, e.Msg, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Msg)
}

func (e *InputValidationError) Unwrap() error {
	return e.Err
}

// OverlappingRegionError means a probe fell inside more than one non-coding
// region.  Non-coding regions are disjoint by construction, so this is an
// internal-consistency failure and is never resolved by picking one.
type OverlappingRegionError struct {
	Probe   bed.Probe
	Regions []interval.Entry
}

func (e *OverlappingRegionError) Error() string {
	return fmt.Sprintf("probe %s at %s:%d lies in %d non-coding regions: %v",
		e.Probe.ID, e.Probe.ChrName, e.Probe.Pos, len(e.Regions), e.Regions)
}
