package fetch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "upstream.csv")
	require.Nil(t, os.WriteFile(src, []byte("ANO;Codmun7\n2000;1100015\n"), 0o644))

	existing := filepath.Join(dir, "existing", "atlas_raw.csv")
	require.Nil(t, os.MkdirAll(filepath.Dir(existing), 0o755))
	require.Nil(t, os.WriteFile(existing, []byte("stale"), 0o644))

	testData := map[string]struct {
		dst        string
		force      bool
		downloaded bool
		expected   string
	}{
		"new destination": {
			dst:        filepath.Join(dir, "raw", "atlas", "atlas_raw.csv"),
			downloaded: true,
			expected:   "ANO;Codmun7\n2000;1100015\n",
		},
		"existing destination is kept": {
			dst:      existing,
			expected: "stale",
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			downloaded, err := File(context.Background(), src, td.dst, &Options{Force: td.force, Logger: zaptest.NewLogger(t)})
			require.Nil(t, err)
			assert.Equal(t, td.downloaded, downloaded)

			b, err := os.ReadFile(td.dst)
			require.Nil(t, err)
			assert.Equal(t, td.expected, string(b))
		})
	}
}

func TestFileForce(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "upstream.csv")
	require.Nil(t, os.WriteFile(src, []byte("fresh"), 0o644))
	dst := filepath.Join(dir, "atlas_raw.csv")
	require.Nil(t, os.WriteFile(dst, []byte("stale"), 0o644))

	downloaded, err := File(context.Background(), src, dst, &Options{Force: true})
	require.Nil(t, err)
	assert.True(t, downloaded)

	b, err := os.ReadFile(dst)
	require.Nil(t, err)
	assert.Equal(t, "fresh", string(b))
}

func TestFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := File(context.Background(), "", filepath.Join(dir, "a.csv"), nil)
	assert.True(t, errors.Is(err, ErrEmptySource))

	_, err = File(context.Background(), filepath.Join(dir, "missing.csv"), filepath.Join(dir, "b.csv"), nil)
	assert.NotNil(t, err)
}
