package buffer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bethropolis/blockpatch/internal/patch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte, mode os.FileMode) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, mode))
	require.NoError(t, os.Chmod(p, mode))
	return p
}

func TestLoadSaveUTF8(t *testing.T) {
	p := writeFile(t, "page.jsx", []byte("const a = 1;\n"), 0o600)
	s := NewFileStore("utf-8")

	f, err := s.Load(p)
	require.NoError(t, err)
	assert.Equal(t, "const a = 1;\n", f.Document.String())
	assert.False(t, f.BOM)

	require.NoError(t, s.Save(f, patch.NewDocument("const a = 2;\n")))
	got, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "const a = 2;\n", string(got))

	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(p))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must not be left behind")
}

func TestBOMIsStrippedAndRestored(t *testing.T) {
	p := writeFile(t, "bom.txt", append([]byte{0xEF, 0xBB, 0xBF}, "hello"...), 0o644)
	s := NewFileStore("UTF-8")

	f, err := s.Load(p)
	require.NoError(t, err)
	assert.True(t, f.BOM)
	assert.Equal(t, "hello", f.Document.String())

	require.NoError(t, s.Save(f, patch.NewDocument("bye")))
	got, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, append([]byte{0xEF, 0xBB, 0xBF}, "bye"...), got)
}

func TestInvalidUTF8IsEncodingError(t *testing.T) {
	p := writeFile(t, "bad.txt", []byte("ok\xffno"), 0o644)
	_, err := NewFileStore("utf-8").Load(p)
	require.Error(t, err)
	assert.ErrorIs(t, err, patch.ErrEncoding)
	assert.Equal(t, patch.KindEncoding, patch.KindOf(err))
	assert.Contains(t, err.Error(), "offset 2")
}

func TestLatin1RoundTrip(t *testing.T) {
	// "café" in ISO-8859-1.
	p := writeFile(t, "latin.txt", []byte{'c', 'a', 'f', 0xE9}, 0o644)
	s := NewFileStore("ISO-8859-1")

	f, err := s.Load(p)
	require.NoError(t, err)
	assert.Equal(t, "café", f.Document.String())

	require.NoError(t, s.Save(f, patch.NewDocument("thé")))
	got, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, []byte{'t', 'h', 0xE9}, got)
}

func TestUnencodableTextFailsWithoutWriting(t *testing.T) {
	p := writeFile(t, "latin.txt", []byte("abc"), 0o644)
	s := NewFileStore("ISO-8859-1")
	f, err := s.Load(p)
	require.NoError(t, err)

	err = s.Save(f, patch.NewDocument("世界"))
	require.Error(t, err)
	assert.ErrorIs(t, err, patch.ErrEncoding)

	got, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestUnknownEncoding(t *testing.T) {
	p := writeFile(t, "x.txt", []byte("abc"), 0o644)
	_, err := NewFileStore("klingon-8").Load(p)
	require.Error(t, err)
	assert.ErrorIs(t, err, patch.ErrEncoding)
}

func TestBackup(t *testing.T) {
	p := writeFile(t, "conf.txt", []byte("old"), 0o644)
	s := NewFileStore("utf-8")
	s.Backup = true
	s.BackupSuffix = ".orig"

	f, err := s.Load(p)
	require.NoError(t, err)
	require.NoError(t, s.Save(f, patch.NewDocument("new")))

	backup, err := os.ReadFile(p + ".orig")
	require.NoError(t, err)
	assert.Equal(t, "old", string(backup))
	current, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "new", string(current))
}

func TestLoadMissing(t *testing.T) {
	_, err := NewFileStore("utf-8").Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.True(t, IsNotExist(err))

	_, err = NewFileStore("utf-8").Load(t.TempDir())
	assert.Error(t, err)
}

func TestBackupPath(t *testing.T) {
	s := NewFileStore("utf-8")
	assert.Equal(t, "a.js.bak", s.BackupPath("a.js"))
	s.BackupID = "1f2e3d4c"
	assert.Equal(t, "a.js.1f2e3d4c.bak", s.BackupPath("a.js"))
}
