package files

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartHeaders(t *testing.T, parts map[string]string, order []string) []*multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, name := range order {
		fw, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(parts[name]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["files"]
}

func TestStageUploads(t *testing.T) {
	root := t.TempDir()
	m := NewManager(root, nil)

	headers := multipartHeaders(t, map[string]string{
		"z.csv":         "z",
		"../escape.csv": "a",
	}, []string{"z.csv", "../escape.csv"})

	paths, err := m.StageUploads("run-1", headers)
	require.NoError(t, err)
	require.Len(t, paths, 2)

	assert.Equal(t, filepath.Join(root, "run-1", "001_z.csv"), paths[0])
	assert.Equal(t, filepath.Join(root, "run-1", "002_escape.csv"), paths[1])

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "z", string(data))

	require.NoError(t, m.Cleanup("run-1"))
	_, err = os.Stat(m.RunDir("run-1"))
	assert.True(t, os.IsNotExist(err))
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "a.csv", sanitizeName(`C:\data\a.csv`))
	assert.Equal(t, "b.csv", sanitizeName("../../b.csv"))
	assert.Equal(t, "", sanitizeName(".."))
}
