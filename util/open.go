// Package util holds small helpers shared by the overlap-map readers.
package util

import (
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
)

type readCloser struct {
	io.Reader
	ctx context.Context
	f   file.File
	gz  *gzip.Reader
}

func (r *readCloser) Close() (err error) {
	if r.gz != nil {
		err = r.gz.Close()
	}
	if cerr := r.f.Close(r.ctx); cerr != nil && err == nil {
		err = cerr
	}
	return
}

// OpenReader opens path through grailbio/base/file, so any registered scheme
// works, and transparently decompresses gzip input (detected by file
// extension).  The caller must Close the result.
func OpenReader(ctx context.Context, path string) (io.ReadCloser, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	rc := &readCloser{Reader: f.Reader(ctx), ctx: ctx, f: f}
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		if rc.gz, err = gzip.NewReader(rc.Reader); err != nil {
			_ = f.Close(ctx)
			return nil, errors.E(err, "gunzip", path)
		}
		rc.Reader = rc.gz
	}
	return rc, nil
}
