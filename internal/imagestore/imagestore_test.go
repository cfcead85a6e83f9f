package imagestore

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eshop-service/internal/errs"
)

func uploadFile(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("images", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&buf, mw.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })

	files := form.File["images"]
	require.Len(t, files, 1)
	return files[0]
}

func TestSaveAndRemove(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	url, err := store.Save(KindProduct, uploadFile(t, "my photo.png", []byte("png-bytes")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/images/products/"))
	assert.True(t, strings.HasSuffix(url, "_my_photo.png"))

	rel := strings.TrimPrefix(url, "/images/")
	onDisk := filepath.Join(store.BaseDir(), rel)
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)

	store.Remove(url)
	_, err = os.Stat(onDisk)
	assert.True(t, os.IsNotExist(err))
}

func TestSaveRejectsUnsupportedExtension(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save(KindProduct, uploadFile(t, "malware.exe", []byte("nope")))
	require.Error(t, err)
	assert.Equal(t, "UNSUPPORTED_IMAGE_TYPE", errs.CodeOf(err))
}

func TestSaveAllRollsBackOnFailure(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	files := []*multipart.FileHeader{
		uploadFile(t, "one.jpg", []byte("a")),
		uploadFile(t, "two.txt", []byte("b")),
	}
	_, err = store.SaveAll(KindProduct, files)
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, string(KindProduct)))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRemoveIgnoresTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	outside := filepath.Join(filepath.Dir(dir), "victim.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o644))
	defer os.Remove(outside)

	store.Remove("/images/../" + filepath.Base(outside))

	_, err = os.Stat(outside)
	assert.NoError(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "my_photo.png", sanitizeFilename("my photo.png"))
	assert.Equal(t, "shot.jpg", sanitizeFilename("../../etc/shot.jpg"))
	assert.Equal(t, "image", sanitizeFilename("???"))
}
