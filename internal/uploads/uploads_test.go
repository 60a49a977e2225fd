package uploads

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

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"My cool movie.mov":          "My_cool_movie.mov",
		"../../../etc/passwd":        "etc_passwd",
		"i contain cool ümläuts.txt": "i_contain_cool_umlauts.txt",
		"café.png":                   "cafe.png",
		"  .hidden  ":                "hidden",
		"ñ":                          "n",
		"日本.jpg":                     "jpg",
		"???":                        "unnamed",
		"":                           "unnamed",
		`C:\fotos\silla.png`:         "C_fotos_silla.png",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeFilename(in), in)
	}
}

func fileHeader(t *testing.T, field, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File[field][0]
}

func TestSave_WritesAndOverwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "static", "uploads")
	s := Store{Dir: dir}

	ref, err := s.Save(fileHeader(t, "imagen", "silla roja.png", []byte("v1")))
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(dir)+"/silla_roja.png", ref)

	_, err = s.Save(fileHeader(t, "imagen", "silla roja.png", []byte("v2")))
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "silla_roja.png"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))
}

func TestSave_NilHeader(t *testing.T) {
	_, err := Store{Dir: t.TempDir()}.Save(nil)
	assert.ErrorIs(t, err, ErrNoFile)
}
