package codec

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapLister map[string][]string

func (m mapLister) ListFiles(dir string) ([]string, error) {
	files, ok := m[dir]
	if !ok {
		return nil, os.ErrNotExist
	}
	return files, nil
}

func TestReadLabels(t *testing.T) {
	input := "*people/alice\npeople/alice/3.jpg\n\n*people/bob\r\n*people/carol\n4.jpg\n"

	blocks, err := ReadLabels(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []LabelBlock{
		{Dir: "people/alice", Wrong: []string{"people/alice/3.jpg"}},
		{Dir: "people/bob"},
		{Dir: "people/carol", Wrong: []string{"4.jpg"}},
	}, blocks)
}

func TestReadLabels_FileBeforeDirectory(t *testing.T) {
	_, err := ReadLabels(strings.NewReader("orphan.jpg\n*dir\n"))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseLabels(t *testing.T) {
	lister := mapLister{
		"a": {"a/1.jpg", "a/2.jpg", "a/3.jpg", "a/4.jpg"},
		"b": {"b/1.jpg", "b/2.jpg"},
		"c": {},
	}
	input := "*a\na/2.jpg\n4.jpg\n*b\n*c\n"

	p, err := ParseLabels(strings.NewReader(input), lister)
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"a/1.jpg", "a/3.jpg"}, {"a/2.jpg"}, {"a/4.jpg"}, {"b/1.jpg", "b/2.jpg"},
	}, p.Actual.Partition())
	assert.Equal(t, [][]string{
		{"a/1.jpg", "a/2.jpg", "a/3.jpg", "a/4.jpg"}, {"b/1.jpg", "b/2.jpg"},
	}, p.Predicted.Partition())
}

func TestParseLabels_AllWrong(t *testing.T) {
	lister := mapLister{"a": {"a/1.jpg", "a/2.jpg"}}

	p, err := ParseLabels(strings.NewReader("*a\n1.jpg\n2.jpg\n"), lister)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a/1.jpg"}, {"a/2.jpg"}}, p.Actual.Partition())
	assert.Equal(t, [][]string{{"a/1.jpg", "a/2.jpg"}}, p.Predicted.Partition())
}

func TestParseLabels_Errors(t *testing.T) {
	lister := mapLister{"a": {"a/1.jpg"}}

	_, err := ParseLabels(strings.NewReader("*a\nghost.jpg\n"), lister)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = ParseLabels(strings.NewReader("*a\n*a\n"), lister)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = ParseLabels(strings.NewReader("*missing\n"), lister)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteLabelBlock_RoundTripsThroughSeen(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLabelBlock(&buf, "a", []string{"a/2.jpg"}))
	require.NoError(t, WriteLabelBlock(&buf, "b", nil))

	assert.Equal(t, "*a\na/2.jpg\n*b\n", buf.String())

	seen, err := SeenDirectories(&buf)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"a": {}, "b": {}}, seen)
}

func TestDirLister(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.jpg"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	files, err := DirLister{}.ListFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.jpg"), filepath.Join(dir, "b.jpg")}, files)
}
