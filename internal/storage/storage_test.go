package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowedExtension(t *testing.T) {
	assert.True(t, AllowedExtension("scan.png"))
	assert.True(t, AllowedExtension("SCAN.JPG"))
	assert.True(t, AllowedExtension("chest.dcm"))
	assert.False(t, AllowedExtension("notes.pdf"))
	assert.False(t, AllowedExtension("script.sh"))
	assert.False(t, AllowedExtension("noextension"))
}

func TestUniqueFilenameNeverCollides(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		name := UniqueFilename("scan.png")
		require.False(t, seen[name], "duplicate generated name %s", name)
		seen[name] = true
		assert.True(t, strings.HasSuffix(name, ".png"))
	}
}

func TestUniqueFilenameDropsOriginalName(t *testing.T) {
	name := UniqueFilename("../../etc/passwd.PNG")
	assert.NotContains(t, name, "passwd")
	assert.NotContains(t, name, "/")
	assert.True(t, strings.HasSuffix(name, ".png"))
}

func TestPatientPath(t *testing.T) {
	id := uuid.MustParse("6f1f64e5-3f4c-41e2-9a3b-111111111111")
	assert.Equal(t, "patient_6f1f64e5-3f4c-41e2-9a3b-111111111111/x.png", PatientPath(id, "x.png"))
}

func TestLocalStoreRoundtrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	path := PatientPath(uuid.New(), "scan.png")
	require.NoError(t, store.Save(path, strings.NewReader("image-bytes")))
	assert.True(t, store.Exists(path))

	rc, err := store.Open(path)
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "image-bytes", string(content))

	require.NoError(t, store.Delete(path))
	assert.False(t, store.Exists(path))
}

func TestLocalStoreDeleteMissingFile(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete(PatientPath(uuid.New(), "gone.png")))
}

func TestLocalStoreRejectsPathEscape(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Save("../outside.png", strings.NewReader("x")))
	_, err = store.Open("../../etc/passwd")
	assert.Error(t, err)
}
