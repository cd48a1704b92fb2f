package interval

import "fmt"

// InvalidIntervalError is returned when an interval has impossible
// coordinates, arrives out of order, or extends past its chromosome.
type InvalidIntervalError struct {
	Entry  Entry
	Reason string
}

func (e *InvalidIntervalError) Error() string {
	return fmt.Sprintf("invalid interval %v: %s", e.Entry, e.Reason)
}

// UnknownChromosomeError is returned when an interval names a chromosome that
// has no entry in the reference lengths.
type UnknownChromosomeError struct {
	ChrName string
}

func (e *UnknownChromosomeError) Error() string {
	return fmt.Sprintf("chromosome %q is not in the reference lengths", e.ChrName)
}
