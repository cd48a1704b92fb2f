package interval

import "fmt"

// MergePerKey groups entries[i] under keys[i] and returns one interval per
// key, running from the smallest Start0 to the largest End of the group.
// Gaps between a group's entries are covered by the result, which is what a
// whole-gene extent needs (and not what a union of exons needs).
//
// All entries of one key must lie on the same chromosome.
func MergePerKey[K comparable](keys []K, entries []Entry) (map[K]Entry, error) {
	if len(keys) != len(entries) {
		return nil, fmt.Errorf("interval.MergePerKey: %d keys for %d entries", len(keys), len(entries))
	}
	merged := make(map[K]Entry, len(keys))
	for i, key := range keys {
		entry := entries[i]
		prev, found := merged[key]
		if !found {
			merged[key] = entry
			continue
		}
		if prev.ChrName != entry.ChrName {
			return nil, &InvalidIntervalError{
				Entry:  entry,
				Reason: fmt.Sprintf("key %v already has an interval on %s", key, prev.ChrName),
			}
		}
		if entry.Start0 < prev.Start0 {
			prev.Start0 = entry.Start0
		}
		if entry.End > prev.End {
			prev.End = entry.End
		}
		merged[key] = prev
	}
	return merged, nil
}
