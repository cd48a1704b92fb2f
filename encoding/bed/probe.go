// Package bed reads microarray probe positions from BED files.
package bed

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/overlapmap/interval"
	"github.com/grailbio/overlapmap/util"
)

// Probe is a single array probe.  Pos is the 0-based start column of its BED
// row; the end column is neither parsed nor checked.
type Probe struct {
	ChrName string
	Pos     interval.PosType
	ID      string
}

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

var (
	trackPrefix   = []byte("track")
	browserPrefix = []byte("browser")
)

// ReadProbes parses probe rows (chromosome, start, end, probe ID) from r.
// Blank lines, comments and track/browser lines are skipped.  name is used
// in error messages.
func ReadProbes(r io.Reader, name string) (probes []Probe, err error) {
	scanner := bufio.NewScanner(r)
	var tokens [4][]byte
	// Probes cluster on a few dozen chromosomes; share one copy of each name.
	chrNames := make(map[string]string)
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		curLine := scanner.Bytes()
		nToken := getTokens(tokens[:], curLine)
		if nToken == 0 || tokens[0][0] == '#' || bytes.Equal(tokens[0], trackPrefix) || bytes.Equal(tokens[0], browserPrefix) {
			continue
		}
		if nToken != 4 {
			return nil, fmt.Errorf("%s:%d: expected chromosome, start, end and probe ID, got %d column(s)", name, lineIdx, nToken)
		}
		// The end column is not used.
		var start int
		if start, err = strconv.Atoi(gunsafe.BytesToString(tokens[1])); err != nil {
			return nil, fmt.Errorf("%s:%d: start: %v", name, lineIdx, err)
		}
		if start < 0 || start >= interval.PosTypeMax {
			return nil, fmt.Errorf("%s:%d: start %d out of range", name, lineIdx, start)
		}
		// The tokens point into the scanner's buffer, so names must be copied.
		chrName, found := chrNames[gunsafe.BytesToString(tokens[0])]
		if !found {
			chrName = string(tokens[0])
			chrNames[chrName] = chrName
		}
		probes = append(probes, Probe{
			ChrName: chrName,
			Pos:     interval.PosType(start),
			ID:      string(tokens[3]),
		})
	}
	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %v", name, err)
	}
	return probes, nil
}

// ReadProbesFromPath is a wrapper for ReadProbes that takes a (possibly
// gzipped) path instead of an io.Reader.
func ReadProbesFromPath(ctx context.Context, path string) (probes []Probe, err error) {
	in, err := util.OpenReader(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if probes, err = ReadProbes(in, path); err != nil {
		return nil, err
	}
	log.Printf("%s: read %d probe(s)", path, len(probes))
	return probes, nil
}
