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

/*
Given a microarray probe BED and a gene annotation (ChAS Genes.aed),
bio-overlap-map writes the "overlap map" mask BED: the stretches of the
genome whose probes are at least -num-probes probes away from every coding
gene.  ChAS hides calls inside these regions from review.

Coding genes are complemented against the chromosome lengths (GRCh38 by
default; see -genome) to get the non-coding regions.  Each probe is assigned
to the non-coding region containing it, and each region's probe list loses
num-probes-1 probes from either edge.  Regions with fewer than 2*num-probes
probes are dropped.  Each surviving region is written as

    chromosome  first-kept-probe  last-kept-probe  first-last

below a 'track db="hg38"' line.

Sample usage:
bio-overlap-map \
    -num-probes 50 \
    -outdir /path/to/output \
    -genes-aed Genes.aed \
    -probes-bed probes.bed
*/
package main
