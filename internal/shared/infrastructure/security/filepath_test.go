package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFilePath(t *testing.T) {
	t.Run("rejects empty path", func(t *testing.T) {
		_, err := ValidateFilePath("")
		assert.ErrorContains(t, err, "cannot be empty")
	})

	t.Run("rejects dangerous shell characters", func(t *testing.T) {
		for _, char := range dangerousChars {
			_, err := ValidateFilePath("/tmp/rows" + char + ".yaml")
			assert.ErrorContains(t, err, "forbidden character", "character %q", char)
		}
	})

	t.Run("resolves existing file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "rows.yaml")
		require.NoError(t, os.WriteFile(file, []byte("rows: []"), 0o600))

		got, err := ValidateFilePath(file)
		require.NoError(t, err)
		want, _ := filepath.EvalSymlinks(file)
		assert.Equal(t, want, got)
	})

	t.Run("cleans missing file", func(t *testing.T) {
		dir := t.TempDir()
		got, err := ValidateFilePath(filepath.Join(dir, "sub", "..", "p1.ics"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "p1.ics"), got)
	})

	t.Run("makes relative path absolute", func(t *testing.T) {
		got, err := ValidateFilePath("p1.ics")
		require.NoError(t, err)
		assert.True(t, filepath.IsAbs(got))
	})
}

func TestSafeReadFileAndCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p1.ics")

	f, err := SafeCreate(path)
	require.NoError(t, err)
	_, err = f.WriteString("BEGIN:VCALENDAR")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := SafeReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "BEGIN:VCALENDAR", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	_, err = SafeReadFile("rows;rm -rf.yaml")
	assert.Error(t, err)
}
