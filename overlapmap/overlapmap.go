// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package overlapmap computes the "overlap map" mask of a microarray design:
// the regions whose probes lie at least a given number of probes away from
// every protein-coding gene.  Array-analysis software loads the mask BED to
// hide calls in those regions from review.
//
// The pipeline is a single linear pass:
//
//   annotation rows -> CondenseGenes -> BuildNonCoding
//     -> DropCodingProbes -> AssignProbes -> TrimRegions -> WriteMask
//
// Any failing stage aborts the run, and no output file is left behind.
package overlapmap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/overlapmap/encoding/aed"
	"github.com/grailbio/overlapmap/encoding/bed"
	"github.com/grailbio/overlapmap/encoding/fasta"
)

// Opts configures Run.
type Opts struct {
	// Margin is the number of probes, counted along each non-coding region
	// from its edges, that separate masked probes from coding genes.
	Margin int
	// OutDir receives the mask BED (and audit files, if requested).
	OutDir string
	// AnnotationPath is the gene annotation (AED) file.
	AnnotationPath string
	// ProbesPath is the probe BED file.
	ProbesPath string
	// GenomePath supplies chromosome lengths: a FASTA index, two-column
	// genome file, sequence dictionary or FASTA file.  Empty selects the
	// built-in GRCh38 primary assembly.
	GenomePath string
	// OutputName is the mask BED's file name within OutDir.
	OutputName string
	// AnnotationHeaderLines is the number of preamble lines in the
	// annotation file.
	AnnotationHeaderLines int
	// CodingCategory selects coding annotation rows: any row whose category
	// contains it.
	CodingCategory string
	// Parallelism bounds the number of chromosomes assigned concurrently;
	// 0 means runtime.NumCPU().
	Parallelism int
	// KeepIntermediates also writes the condensed coding regions, the
	// non-coding regions and the probes assigned to them into OutDir.
	KeepIntermediates bool
}

// DefaultOpts holds the defaults for Run.  Paths have no default.
var DefaultOpts = Opts{
	Margin:                50,
	OutputName:            "probes_to_mask.bed",
	AnnotationHeaderLines: aed.DefaultOpts.HeaderLines,
	CodingCategory:        "coding",
}

// Result summarizes a successful run.
type Result struct {
	// OutputPath is the mask BED that was written.
	OutputPath string
	// Digest is the seahash of the mask BED's contents.  Identical inputs
	// and options give identical digests.
	Digest uint64

	NumAnnotationRecords int
	NumGeneRegions       int
	NumNonCodingRegions  int
	NumProbes            int
	NumCodingProbes      int
	NumAssignedProbes    int
	NumProbeGroups       int
	NumMaskedRegions     int
}

// Validate checks that opts can be run: the margin and header count are in
// range, the inputs exist and the output directory exists.  Every failure is
// an *InputValidationError.
func (opts *Opts) Validate(ctx context.Context) error {
	if opts.Margin < 1 {
		return &InputValidationError{Field: "margin", Msg: fmt.Sprintf("%d is not a positive probe count", opts.Margin)}
	}
	if opts.AnnotationHeaderLines < 0 {
		return &InputValidationError{Field: "annotation header lines", Msg: fmt.Sprintf("%d is negative", opts.AnnotationHeaderLines)}
	}
	if opts.CodingCategory == "" {
		return &InputValidationError{Field: "coding category", Msg: "empty"}
	}
	if opts.OutputName == "" || opts.OutputName != filepath.Base(opts.OutputName) {
		return &InputValidationError{Field: "output name", Msg: fmt.Sprintf("%q is not a plain file name", opts.OutputName)}
	}
	inputs := []struct{ field, path string }{
		{"annotation path", opts.AnnotationPath},
		{"probes path", opts.ProbesPath},
		{"genome path", opts.GenomePath},
	}
	for _, in := range inputs {
		if in.path == "" {
			if in.field == "genome path" {
				continue
			}
			return &InputValidationError{Field: in.field, Msg: "required"}
		}
		if _, err := file.Stat(ctx, in.path); err != nil {
			return &InputValidationError{Field: in.field, Msg: in.path, Err: err}
		}
	}
	if opts.OutDir == "" {
		return &InputValidationError{Field: "output directory", Msg: "required"}
	}
	// Object stores have no directories to check.
	if scheme, _, err := file.ParsePath(opts.OutDir); err == nil && scheme == "" {
		info, err := os.Stat(opts.OutDir)
		if err != nil {
			return &InputValidationError{Field: "output directory", Msg: opts.OutDir, Err: err}
		}
		if !info.IsDir() {
			return &InputValidationError{Field: "output directory", Msg: opts.OutDir + " is not a directory"}
		}
	}
	return nil
}

// Run validates opts, computes the mask regions and writes them to
// OutDir/OutputName.
func Run(ctx context.Context, opts Opts) (res Result, err error) {
	if err = opts.Validate(ctx); err != nil {
		return res, err
	}
	refs, err := fasta.ReadReferenceLengths(ctx, opts.GenomePath)
	if err != nil {
		return res, err
	}
	records, err := aed.Read(ctx, opts.AnnotationPath, aed.Opts{HeaderLines: opts.AnnotationHeaderLines})
	if err != nil {
		return res, err
	}
	res.NumAnnotationRecords = len(records)
	probes, err := bed.ReadProbesFromPath(ctx, opts.ProbesPath)
	if err != nil {
		return res, err
	}
	res.NumProbes = len(probes)

	genes, err := CondenseGenes(records, opts.CodingCategory)
	if err != nil {
		if merr, ok := err.(*aed.MalformedAnnotationError); ok {
			merr.Path = opts.AnnotationPath
		}
		return res, err
	}
	res.NumGeneRegions = len(genes)
	regions, coding, err := BuildNonCoding(genes, refs)
	if err != nil {
		return res, err
	}
	res.NumNonCodingRegions = len(regions)
	noncodingProbes := DropCodingProbes(probes, coding)
	res.NumCodingProbes = len(probes) - len(noncodingProbes)
	groups, err := AssignProbes(ctx, noncodingProbes, regions, opts.Parallelism)
	if err != nil {
		return res, err
	}
	res.NumProbeGroups = len(groups)
	for _, g := range groups {
		res.NumAssignedProbes += len(g.Probes)
	}
	masked, err := TrimRegions(groups, opts.Margin)
	if err != nil {
		return res, err
	}
	res.NumMaskedRegions = len(masked)

	// Every output is staged before any is committed.
	var staged []stagedBED
	stage := func(s stagedBED, err error) error {
		if err != nil {
			discardBEDs(ctx, staged)
			return err
		}
		staged = append(staged, s)
		return nil
	}
	res.OutputPath = file.Join(opts.OutDir, opts.OutputName)
	if err = stage(stageMask(ctx, res.OutputPath, masked)); err != nil {
		return res, errors.E(err, "write", res.OutputPath)
	}
	if opts.KeepIntermediates {
		if err = stage(stageCodingRegions(ctx, file.Join(opts.OutDir, CodingRegionsName), genes)); err != nil {
			return res, err
		}
		if err = stage(stageNonCodingRegions(ctx, file.Join(opts.OutDir, NonCodingRegionsName), regions)); err != nil {
			return res, err
		}
		if err = stage(stageNonCodingProbes(ctx, file.Join(opts.OutDir, NonCodingProbesName), groups)); err != nil {
			return res, err
		}
	}
	if err = commitBEDs(ctx, staged); err != nil {
		return res, err
	}
	res.Digest = staged[0].digest
	log.Printf("wrote %d mask region(s) to %s (seahash %016x)", len(masked), res.OutputPath, res.Digest)
	return res, nil
}
