package gateway

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestForm_Encode(t *testing.T) {
	body, contentType, err := NewForm().
		Field("candidato_id", "12").
		File("archivo", "cv.pdf", strings.NewReader("contenido")).
		encode()
	require.NoError(t, err)

	mediaType, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)
	require.NotEmpty(t, params["boundary"])

	r := multipart.NewReader(body, params["boundary"])

	part, err := r.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "candidato_id", part.FormName())
	raw, _ := io.ReadAll(part)
	assert.Equal(t, "12", string(raw))

	part, err = r.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "archivo", part.FormName())
	assert.Equal(t, "cv.pdf", part.FileName())
	raw, _ = io.ReadAll(part)
	assert.Equal(t, "contenido", string(raw))

	_, err = r.NextPart()
	assert.ErrorIs(t, err, io.EOF)
}

func TestForm_EncodeReaderFailure(t *testing.T) {
	_, _, err := NewForm().File("archivo", "x.bin", failingReader{}).encode()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
}
