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
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/overlapmap/overlapmap"
)

// registerFlags binds the command-line flags to opts.  The one-letter names
// are aliases kept for existing scripts.
func registerFlags(fs *flag.FlagSet, opts *overlapmap.Opts) {
	*opts = overlapmap.DefaultOpts
	for _, name := range []string{"num-probes", "N"} {
		fs.IntVar(&opts.Margin, name, opts.Margin, "Number of probes on each edge of a non-coding region that separate masked probes from coding genes")
	}
	for _, name := range []string{"outdir", "O"} {
		fs.StringVar(&opts.OutDir, name, opts.OutDir, "Output directory (required)")
	}
	for _, name := range []string{"genes-aed", "G"} {
		fs.StringVar(&opts.AnnotationPath, name, opts.AnnotationPath, "Gene annotation AED path (required)")
	}
	for _, name := range []string{"probes-bed", "P"} {
		fs.StringVar(&opts.ProbesPath, name, opts.ProbesPath, "Probe BED path (required)")
	}
	fs.StringVar(&opts.GenomePath, "genome", opts.GenomePath, "Chromosome lengths: .fai, two-column .genome, .dict or FASTA; empty = built-in GRCh38")
	fs.StringVar(&opts.OutputName, "output-name", opts.OutputName, "Mask BED file name within -outdir")
	fs.IntVar(&opts.AnnotationHeaderLines, "aed-header-lines", opts.AnnotationHeaderLines, "Number of preamble lines in the AED file")
	fs.StringVar(&opts.CodingCategory, "coding-category", opts.CodingCategory, "AED category substring selecting coding genes")
	fs.IntVar(&opts.Parallelism, "parallelism", opts.Parallelism, "Maximum number of chromosomes processed concurrently; 0 = runtime.NumCPU()")
	fs.BoolVar(&opts.KeepIntermediates, "keep-intermediates", opts.KeepIntermediates, "Also write the coding regions, non-coding regions and assigned probes to -outdir")
}

func bioOverlapMapUsage() {
	fmt.Printf("Usage: %s [OPTIONS] -outdir dir -genes-aed Genes.aed -probes-bed probes.bed\n", os.Args[0])
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
}

func main() {
	var opts overlapmap.Opts
	registerFlags(flag.CommandLine, &opts)
	flag.Usage = bioOverlapMapUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 0 {
		log.Fatalf("Unexpected positional arguments; please check flag syntax: '%s'", strings.Join(flag.Args(), " "))
	}
	ctx := vcontext.Background()
	res, err := overlapmap.Run(ctx, opts)
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("%d of %d probe(s) lie in non-coding regions; %d mask region(s) written to %s",
		res.NumAssignedProbes, res.NumProbes, res.NumMaskedRegions, res.OutputPath)
	log.Debug.Printf("exiting")
}
