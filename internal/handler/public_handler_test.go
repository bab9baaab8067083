package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartBody(t *testing.T, files map[string][]string, texts map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for field, names := range files {
		for _, name := range names {
			part, err := writer.CreateFormFile(field, name)
			require.NoError(t, err)
			_, err = part.Write([]byte("payload"))
			require.NoError(t, err)
		}
	}
	for field, value := range texts {
		require.NoError(t, writer.WriteField(field, value))
	}
	require.NoError(t, writer.Close())
	return buf, writer.FormDataContentType()
}

func newMultipartContext(t *testing.T, code string, body *bytes.Buffer, contentType string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPost, "/submit/"+code, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	c.Request = req
	c.Params = gin.Params{{Key: "code", Value: code}}
	return c
}

func TestParseBatchGroupsPartsByRequirement(t *testing.T) {
	body, contentType := multipartBody(t,
		map[string][]string{
			"doc-1_file": {"cv.pdf", "cover.pdf"},
		},
		map[string]string{
			"doc-2_text": "a short abstract",
			"unrelated":  "ignored",
		},
	)
	c := newMultipartContext(t, "tok-1", body, contentType)

	h := NewPublicHandler(nil, nil, nil, 0)
	input, err := h.parseBatch(c)
	require.NoError(t, err)

	assert.Equal(t, "tok-1", input.Code)
	require.Len(t, input.Files["doc-1_file"], 0)
	require.Len(t, input.Files["doc-1"], 2)
	assert.Equal(t, "cv.pdf", input.Files["doc-1"][0].Name)
	assert.Equal(t, []byte("payload"), input.Files["doc-1"][0].Data)
	assert.Equal(t, "a short abstract", input.Texts["doc-2"])
	_, ok := input.Texts["unrelated"]
	assert.False(t, ok)
}

func TestParseBatchRejectsNonMultipart(t *testing.T) {
	c := newMultipartContext(t, "tok-1", bytes.NewBufferString("{}"), "application/json")

	h := NewPublicHandler(nil, nil, nil, 0)
	_, err := h.parseBatch(c)
	require.Error(t, err)
}
