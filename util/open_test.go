package util

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

func TestOpenReader(t *testing.T) {
	ctx := vcontext.Background()
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	const content = "chr1\t10\t11\tprobe1\n"
	plainPath := filepath.Join(tempDir, "probes.bed")
	assert.NoError(t, ioutil.WriteFile(plainPath, []byte(content), 0644))

	gzPath := filepath.Join(tempDir, "probes.bed.gz")
	out, err := os.Create(gzPath)
	assert.NoError(t, err)
	gz := gzip.NewWriter(out)
	_, err = gz.Write([]byte(content))
	assert.NoError(t, err)
	assert.NoError(t, gz.Close())
	assert.NoError(t, out.Close())

	for _, path := range []string{plainPath, gzPath} {
		r, err := OpenReader(ctx, path)
		assert.NoError(t, err)
		data, err := ioutil.ReadAll(r)
		assert.NoError(t, err)
		assert.NoError(t, r.Close())
		expect.EQ(t, string(data), content, "path %s", path)
	}

	_, err = OpenReader(ctx, filepath.Join(tempDir, "missing.bed"))
	expect.NotNil(t, err)
}
