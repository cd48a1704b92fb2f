package overlapmap

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/overlapmap/encoding/aed"
	"github.com/grailbio/overlapmap/interval"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/require"
)

const aedPreamble = "bio:sequence(aed:String)\tbio:start(aed:Integer)\tbio:end(aed:Integer)\taed:name(aed:String)\taed:value(aed:String)\tbio:strand(aed:Rational)\taed:category(aed:String)\n" +
	"\tnamespace:affx(aed:URI)\thttp://affymetrix.com/ontology/\n" +
	"\tnamespace:dc(aed:URI)\thttp://purl.org/dc/elements/1.1/\n" +
	"\tnamespace:ucsc(aed:URI)\thttp://genome.ucsc.edu/goldenPath/help/hgTracksHelp.html\n" +
	"\taffx:ucscGenomeVersion(aed:String)\thg38\n" +
	"\tdc:creator(aed:String)\tChAS\n" +
	"\tdc:date(aed:DateTime)\t2021-11-01T00:00:00Z\n" +
	"\tdc:description(aed:String)\tcurated genes\n" +
	"\tnamespace:refseq(aed:URI)\thttp://www.ncbi.nlm.nih.gov/RefSeq/\n" +
	"\tnamespace:gnomad(aed:URI)\thttps://gnomad.broadinstitute.org/\n" +
	"\taffx:ucscGenomeAssembly(aed:String)\tGRCh38\n"

type pipelineFiles struct {
	dir                       string
	genome, annotation, probe string
	outDir                    string
}

func writeInputs(t *testing.T, dir, genome, annotation, probes string) pipelineFiles {
	f := pipelineFiles{
		dir:        dir,
		genome:     filepath.Join(dir, "test.genome"),
		annotation: filepath.Join(dir, "Genes.aed"),
		probe:      filepath.Join(dir, "probes.bed"),
		outDir:     filepath.Join(dir, "out"),
	}
	require.NoError(t, ioutil.WriteFile(f.genome, []byte(genome), 0644))
	require.NoError(t, ioutil.WriteFile(f.annotation, []byte(aedPreamble+annotation), 0644))
	require.NoError(t, ioutil.WriteFile(f.probe, []byte(probes), 0644))
	require.NoError(t, os.MkdirAll(f.outDir, 0755))
	return f
}

func (f pipelineFiles) opts(margin int) Opts {
	opts := DefaultOpts
	opts.Margin = margin
	opts.OutDir = f.outDir
	opts.AnnotationPath = f.annotation
	opts.ProbesPath = f.probe
	opts.GenomePath = f.genome
	return opts
}

const (
	scenarioGenome     = "chr1\t1000\nchr2\t500\nchr10\t300\n"
	scenarioAnnotation = "chr1\t200\t100\tGENE1\t\t-\trefseq/coding\t1\n" +
		"chr1\t120\t180\tGENE1\t\t-\trefseq/pseudogene\n" +
		"chr10\t0\t300\tGENE10\t\t+\trefseq/coding\n"
	scenarioProbes = "track name=probes\n" +
		"chr1\t10\t11\tp10\nchr1\t20\t21\tp20\nchr1\t30\t31\tp30\nchr1\t40\t41\tp40\nchr1\t50\t51\tp50\n" +
		"chr1\t250\t251\tp250\nchr1\t260\t261\tp260\nchr1\t270\t271\tp270\nchr1\t280\t281\tp280\n" +
		"chr1\t290\t291\tp290\nchr1\t990\t991\tp990\nchr1\t995\t996\tp995\n" +
		"chr1\t150\t151\tcoding\n" +
		"chr1\t100\t101\tgene_start\n" +
		"chr10\t100\t101\tcoding10\n" +
		"chr2\t5\t6\ta\nchr2\t400\t401\tb\nchr2\t450\t451\tc\nchr2\t499\t500\td\n"
)

func TestRunScenario(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	f := writeInputs(t, tempDir, scenarioGenome, scenarioAnnotation, scenarioProbes)

	res, err := Run(ctx, f.opts(2))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(f.outDir, "probes_to_mask.bed"), res.OutputPath)
	got, err := ioutil.ReadFile(res.OutputPath)
	require.NoError(t, err)
	require.Equal(t, "track db=\"hg38\"\n"+
		"chr1\t20\t40\t20-40\n"+
		"chr1\t260\t990\t260-990\n"+
		"chr2\t400\t450\t400-450\n", string(got))

	require.Equal(t, 3, res.NumAnnotationRecords)
	require.Equal(t, 2, res.NumGeneRegions)
	require.Equal(t, 3, res.NumNonCodingRegions)
	require.Equal(t, 19, res.NumProbes)
	require.Equal(t, 3, res.NumCodingProbes)
	require.Equal(t, 16, res.NumAssignedProbes)
	require.Equal(t, 3, res.NumProbeGroups)
	require.Equal(t, 3, res.NumMaskedRegions)

	// Nothing else is written by default.
	entries, err := ioutil.ReadDir(f.outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Reruns are byte-identical, whatever the parallelism.
	opts := f.opts(2)
	opts.Parallelism = 1
	res2, err := Run(ctx, opts)
	require.NoError(t, err)
	require.Equal(t, res.Digest, res2.Digest)
	got2, err := ioutil.ReadFile(res2.OutputPath)
	require.NoError(t, err)
	require.Equal(t, got, got2)
}

func TestRunMarginOne(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	f := writeInputs(t, tempDir, scenarioGenome, scenarioAnnotation, scenarioProbes)

	res, err := Run(ctx, f.opts(1))
	require.NoError(t, err)
	got, err := ioutil.ReadFile(res.OutputPath)
	require.NoError(t, err)
	require.Equal(t, "track db=\"hg38\"\n"+
		"chr1\t10\t50\t10-50\n"+
		"chr1\t250\t995\t250-995\n"+
		"chr2\t5\t499\t5-499\n", string(got))
}

func TestRunKeepIntermediates(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	f := writeInputs(t, tempDir, scenarioGenome, scenarioAnnotation, scenarioProbes)

	opts := f.opts(2)
	opts.KeepIntermediates = true
	opts.OutputName = "mask.bed"
	res, err := Run(ctx, opts)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(f.outDir, "mask.bed"), res.OutputPath)

	coding, err := ioutil.ReadFile(filepath.Join(f.outDir, CodingRegionsName))
	require.NoError(t, err)
	require.Equal(t, "chr1\t100\t200\tGENE1\nchr10\t0\t300\tGENE10\n", string(coding))

	noncoding, err := ioutil.ReadFile(filepath.Join(f.outDir, NonCodingRegionsName))
	require.NoError(t, err)
	require.Equal(t, "chr1\t0\t100\nchr1\t200\t1000\nchr2\t0\t500\n", string(noncoding))

	probes, err := ioutil.ReadFile(filepath.Join(f.outDir, NonCodingProbesName))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(probes), "\n"), "\n")
	require.Len(t, lines, 16)
	require.Equal(t, "chr1\t10\t11\tp10|0-100", lines[0])
	require.Equal(t, "chr2\t499\t500\td|0-500", lines[15])
}

func TestRunValidation(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	f := writeInputs(t, tempDir, scenarioGenome, scenarioAnnotation, scenarioProbes)

	tests := []struct {
		field  string
		modify func(*Opts)
	}{
		{"margin", func(o *Opts) { o.Margin = 0 }},
		{"annotation path", func(o *Opts) { o.AnnotationPath = filepath.Join(tempDir, "missing.aed") }},
		{"annotation path", func(o *Opts) { o.AnnotationPath = "" }},
		{"probes path", func(o *Opts) { o.ProbesPath = filepath.Join(tempDir, "missing.bed") }},
		{"genome path", func(o *Opts) { o.GenomePath = filepath.Join(tempDir, "missing.fai") }},
		{"output directory", func(o *Opts) { o.OutDir = filepath.Join(tempDir, "nodir") }},
		{"output directory", func(o *Opts) { o.OutDir = f.probe }},
		{"output directory", func(o *Opts) { o.OutDir = "" }},
		{"output name", func(o *Opts) { o.OutputName = "sub/mask.bed" }},
		{"coding category", func(o *Opts) { o.CodingCategory = "" }},
		{"annotation header lines", func(o *Opts) { o.AnnotationHeaderLines = -1 }},
	}
	for _, tt := range tests {
		opts := f.opts(2)
		tt.modify(&opts)
		_, err := Run(ctx, opts)
		var verr *InputValidationError
		require.True(t, errors.As(err, &verr), "%s: got %v", tt.field, err)
		require.Equal(t, tt.field, verr.Field)
	}
	entries, err := ioutil.ReadDir(f.outDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestRunFailuresLeaveNoOutput(t *testing.T) {
	ctx := vcontext.Background()
	tests := []struct {
		name       string
		genome     string
		annotation string
		check      func(t *testing.T, err error)
	}{
		{
			name:       "malformed annotation",
			genome:     scenarioGenome,
			annotation: "chr1\t100\t200\tG\t\t*\trefseq/coding\n",
			check: func(t *testing.T, err error) {
				var merr *aed.MalformedAnnotationError
				require.True(t, errors.As(err, &merr), "got %v", err)
				require.Equal(t, 12, merr.Line)
				require.Contains(t, merr.Error(), "Genes.aed:12")
			},
		},
		{
			name:       "non-numeric coordinate",
			genome:     scenarioGenome,
			annotation: "chr1\t100\t200\tG\t\t+\trefseq/coding\nchr1\tabc\t200\tG\t\t+\trefseq/coding\n",
			check: func(t *testing.T, err error) {
				var merr *aed.MalformedAnnotationError
				require.True(t, errors.As(err, &merr), "got %v", err)
				require.Equal(t, 13, merr.Line)
			},
		},
		{
			name:       "unknown chromosome",
			genome:     "chr1\t1000\n",
			annotation: "chr7\t100\t200\tG\t\t+\trefseq/coding\n",
			check: func(t *testing.T, err error) {
				var uerr *interval.UnknownChromosomeError
				require.True(t, errors.As(err, &uerr), "got %v", err)
				require.Equal(t, "chr7", uerr.ChrName)
			},
		},
		{
			name:       "gene past chromosome end",
			genome:     "chr1\t1000\n",
			annotation: "chr1\t900\t1100\tG\t\t+\trefseq/coding\n",
			check: func(t *testing.T, err error) {
				var ierr *interval.InvalidIntervalError
				require.True(t, errors.As(err, &ierr), "got %v", err)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir, cleanup := testutil.TempDir(t, "", "")
			defer cleanup()
			f := writeInputs(t, tempDir, tt.genome, tt.annotation, scenarioProbes)
			_, err := Run(ctx, f.opts(2))
			require.Error(t, err)
			tt.check(t, err)
			entries, err := ioutil.ReadDir(f.outDir)
			require.NoError(t, err)
			require.Empty(t, entries)
		})
	}
}

func TestRunEmbeddedGenome(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	f := writeInputs(t, tempDir, scenarioGenome,
		"chr21\t5000000\t6000000\tG\t\t+\trefseq/coding\n",
		"chr21\t100\t101\ta\nchr21\t200\t201\tb\nchr21\t7000000\t7000001\tc\nchr21\t7000100\t7000101\td\n"+
			"chrUn_KI270302v1\t5\t6\tunplaced\n")
	opts := f.opts(1)
	opts.GenomePath = ""
	res, err := Run(ctx, opts)
	require.NoError(t, err)
	got, err := ioutil.ReadFile(res.OutputPath)
	require.NoError(t, err)
	require.Equal(t, "track db=\"hg38\"\n"+
		"chr21\t100\t200\t100-200\n"+
		"chr21\t7000000\t7000100\t7000000-7000100\n", string(got))
	// 25 contigs, one of which is split in two by the gene.
	require.Equal(t, 26, res.NumNonCodingRegions)
}

func TestRunProbeOnGeneStart(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	f := writeInputs(t, tempDir, "chr1\t1000\n",
		"chr1\t100\t200\tG\t\t+\trefseq/coding\n",
		"chr1\t10\t11\ta\nchr1\t50\t51\tb\nchr1\t100\t101\tc_in_gene\n")
	res, err := Run(ctx, f.opts(1))
	require.NoError(t, err)
	got, err := ioutil.ReadFile(res.OutputPath)
	require.NoError(t, err)
	require.Equal(t, "track db=\"hg38\"\nchr1\t10\t50\t10-50\n", string(got))
	require.Equal(t, 1, res.NumCodingProbes)
}

func TestRunFailedCommitLeavesNoAuditFiles(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	f := writeInputs(t, tempDir, scenarioGenome, scenarioAnnotation, scenarioProbes)
	// A directory in the way makes the mask's final rename fail.
	blocker := filepath.Join(f.outDir, DefaultOpts.OutputName)
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "sub"), 0755))

	opts := f.opts(2)
	opts.KeepIntermediates = true
	_, err := Run(ctx, opts)
	require.Error(t, err)
	for _, name := range []string{CodingRegionsName, NonCodingRegionsName, NonCodingProbesName} {
		_, err := os.Stat(filepath.Join(f.outDir, name))
		require.True(t, os.IsNotExist(err), "%s: %v", name, err)
	}
	info, err := os.Stat(blocker)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
