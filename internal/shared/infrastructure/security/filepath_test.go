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
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be empty")
	})

	t.Run("rejects shell metacharacters", func(t *testing.T) {
		for _, char := range forbiddenChars {
			path := "/tmp/rota" + char + "db"
			_, err := ValidateFilePath(path)
			assert.Error(t, err, "expected error for character %q", char)
			assert.Contains(t, err.Error(), "forbidden character")
		}
	})

	t.Run("accepts valid absolute path", func(t *testing.T) {
		tmpDir := t.TempDir()
		testFile := filepath.Join(tmpDir, "rota.db")
		require.NoError(t, os.WriteFile(testFile, []byte("x"), 0644))

		result, err := ValidateFilePath(testFile)
		assert.NoError(t, err)

		// On macOS, /var is a symlink to /private/var, so compare resolved paths
		expectedResolved, _ := filepath.EvalSymlinks(testFile)
		assert.Equal(t, expectedResolved, result)
	})

	t.Run("converts relative path to absolute", func(t *testing.T) {
		result, err := ValidateFilePath("rota.db")
		assert.NoError(t, err)
		assert.True(t, filepath.IsAbs(result))
	})

	t.Run("resolves symlinks", func(t *testing.T) {
		tmpDir := t.TempDir()
		realFile := filepath.Join(tmpDir, "real.db")
		require.NoError(t, os.WriteFile(realFile, []byte("x"), 0644))

		linkFile := filepath.Join(tmpDir, "link.db")
		require.NoError(t, os.Symlink(realFile, linkFile))

		result, err := ValidateFilePath(linkFile)
		assert.NoError(t, err)

		expectedResolved, _ := filepath.EvalSymlinks(realFile)
		assert.Equal(t, expectedResolved, result)
	})

	t.Run("accepts path that does not exist yet", func(t *testing.T) {
		tmpDir := t.TempDir()
		fresh := filepath.Join(tmpDir, "fresh.db")

		result, err := ValidateFilePath(fresh)
		assert.NoError(t, err)
		assert.Contains(t, result, "fresh.db")
	})

	t.Run("cleans traversal components", func(t *testing.T) {
		tmpDir := t.TempDir()
		testFile := filepath.Join(tmpDir, "subdir", "..", "rota.db")
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "rota.db"), []byte("x"), 0644))

		result, err := ValidateFilePath(testFile)
		assert.NoError(t, err)
		assert.NotContains(t, result, "..")
	})
}
