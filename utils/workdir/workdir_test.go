package workdir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireDir_CreatesDirectory(t *testing.T) {
	root := NewRoot(t.TempDir())
	child, err := root.AcquireDir("logs", false, false)
	require.NoError(t, err)

	info, err := os.Stat(child.Root())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestAcquireDir_DoubleAcquireWithoutExistOkFails(t *testing.T) {
	root := NewRoot(t.TempDir())
	_, err := root.AcquireDir("logs", false, false)
	require.NoError(t, err)

	_, err = root.AcquireDir("logs", false, false)
	assert.Error(t, err)
}

func TestAcquireDir_ExistOkReusesRegistration(t *testing.T) {
	root := NewRoot(t.TempDir())
	_, err := root.AcquireDir("logs", false, false)
	require.NoError(t, err)

	_, err = root.AcquireDir("logs", false, true)
	assert.NoError(t, err)
}

func TestAcquireDir_ForceEmptyRemovesExistingContent(t *testing.T) {
	base := t.TempDir()
	root := NewRoot(base)

	logsPath := filepath.Join(base, "logs")
	require.NoError(t, os.MkdirAll(logsPath, 0o755))
	stray := filepath.Join(logsPath, "stray.txt")
	require.NoError(t, os.WriteFile(stray, []byte("x"), 0o644))

	_, err := root.AcquireDir("logs", true, true)
	require.NoError(t, err)

	_, err = os.Stat(stray)
	assert.True(t, os.IsNotExist(err))
}

func TestAcquireFile_AutoAcquiresParentDir(t *testing.T) {
	root := NewRoot(t.TempDir())
	path, err := root.AcquireFile(filepath.Join("job-scripts", "generate.sh"), false)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}

func TestAcquireFile_RefusesPreexistingFileUnlessExistOk(t *testing.T) {
	base := t.TempDir()
	root := NewRoot(base)
	existing := filepath.Join(base, "status.txt")
	require.NoError(t, os.WriteFile(existing, []byte("0"), 0o644))

	_, err := root.AcquireFile("status.txt", false)
	assert.Error(t, err)

	_, err = root.AcquireFile("status.txt", true)
	assert.NoError(t, err)
}
