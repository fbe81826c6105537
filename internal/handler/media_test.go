package handler_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/travel-journal/internal/apperror"
	"github.com/sakif/travel-journal/internal/handler"
)

// mockImages implements handler.ImageStore.
type mockImages struct {
	url     string
	removed bool
	content io.ReadCloser
	err     error

	gotName        string
	gotData        []byte
	gotSize        int64
	gotContentType string
	gotURL         string
}

func (m *mockImages) Upload(_ context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	m.gotName, m.gotSize, m.gotContentType = name, size, contentType
	m.gotData, _ = io.ReadAll(r)
	return m.url, m.err
}

func (m *mockImages) Delete(_ context.Context, imageURL string) (bool, error) {
	m.gotURL = imageURL
	return m.removed, m.err
}

func (m *mockImages) Open(_ context.Context, name string) (io.ReadCloser, error) {
	m.gotName = name
	return m.content, m.err
}

// multipartRequest builds a POST with a single file part.
func multipartRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/image-upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

type uploadBody struct {
	envelope
	ImageURL string `json:"imageUrl"`
}

func TestHandleUpload(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		m := &mockImages{url: "http://localhost:8000/uploads/abc.jpg"}
		h := handler.NewMediaHandler(m, 1<<20, testLogger())

		req := multipartRequest(t, "image", "beach.jpg", []byte("jpeg bytes"))
		rr := serve(t, http.MethodPost, "/image-upload", h.HandleUpload, req)

		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		body := decode[uploadBody](t, rr)
		assert.Equal(t, "http://localhost:8000/uploads/abc.jpg", body.ImageURL)
		assert.Equal(t, "beach.jpg", m.gotName)
		assert.Equal(t, []byte("jpeg bytes"), m.gotData)
		assert.Equal(t, int64(len("jpeg bytes")), m.gotSize)
	})

	t.Run("wrong field name", func(t *testing.T) {
		m := &mockImages{}
		h := handler.NewMediaHandler(m, 1<<20, testLogger())

		rr := serve(t, http.MethodPost, "/image-upload", h.HandleUpload,
			multipartRequest(t, "photo", "beach.jpg", []byte("x")))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "No image uploaded", decode[envelope](t, rr).Message)
		assert.Empty(t, m.gotName)
	})

	t.Run("not multipart", func(t *testing.T) {
		h := handler.NewMediaHandler(&mockImages{}, 1<<20, testLogger())

		rr := serve(t, http.MethodPost, "/image-upload", h.HandleUpload,
			jsonRequest(http.MethodPost, "/image-upload", `{}`))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("too large", func(t *testing.T) {
		m := &mockImages{}
		h := handler.NewMediaHandler(m, 512, testLogger())

		rr := serve(t, http.MethodPost, "/image-upload", h.HandleUpload,
			multipartRequest(t, "image", "big.jpg", bytes.Repeat([]byte("x"), 4096)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Image is too large", decode[envelope](t, rr).Message)
		assert.Empty(t, m.gotName)
	})

	t.Run("store failure", func(t *testing.T) {
		h := handler.NewMediaHandler(&mockImages{err: errors.New("bucket gone")}, 1<<20, testLogger())

		rr := serve(t, http.MethodPost, "/image-upload", h.HandleUpload,
			multipartRequest(t, "image", "a.png", []byte("x")))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestHandleDeleteImage(t *testing.T) {
	const target = "/delete-image?imageUrl=http%3A%2F%2Flocalhost%3A8000%2Fuploads%2Fabc.jpg"

	t.Run("deleted", func(t *testing.T) {
		m := &mockImages{removed: true}
		h := handler.NewMediaHandler(m, 1<<20, testLogger())

		rr := serve(t, http.MethodDelete, "/delete-image", h.HandleDelete,
			httptest.NewRequest(http.MethodDelete, target, nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.False(t, decode[envelope](t, rr).Error)
		assert.Equal(t, "http://localhost:8000/uploads/abc.jpg", m.gotURL)
	})

	t.Run("not found is still 200", func(t *testing.T) {
		h := handler.NewMediaHandler(&mockImages{removed: false}, 1<<20, testLogger())

		rr := serve(t, http.MethodDelete, "/delete-image", h.HandleDelete,
			httptest.NewRequest(http.MethodDelete, target, nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		body := decode[envelope](t, rr)
		assert.True(t, body.Error)
		assert.Equal(t, "Image not found", body.Message)
	})

	t.Run("missing parameter", func(t *testing.T) {
		m := &mockImages{err: apperror.ValidationFailed("imageUrl", "imageUrl parameter is required")}
		h := handler.NewMediaHandler(m, 1<<20, testLogger())

		rr := serve(t, http.MethodDelete, "/delete-image", h.HandleDelete,
			httptest.NewRequest(http.MethodDelete, "/delete-image", nil))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

// streamOnly hides any Seek method so the handler takes the io.Copy path.
type streamOnly struct{ io.Reader }

func (streamOnly) Close() error { return nil }

func TestHandleServe(t *testing.T) {
	t.Run("seekable content", func(t *testing.T) {
		m := &mockImages{content: nopSeekCloser{strings.NewReader("png bytes")}}
		h := handler.NewMediaHandler(m, 1<<20, testLogger())

		rr := serve(t, http.MethodGet, "/uploads/{name}", h.HandleServe,
			httptest.NewRequest(http.MethodGet, "/uploads/abc.png", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "png bytes", rr.Body.String())
		assert.Equal(t, "image/png", rr.Header().Get("Content-Type"))
		assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "abc.png", m.gotName)
	})

	t.Run("range request", func(t *testing.T) {
		m := &mockImages{content: nopSeekCloser{strings.NewReader("0123456789")}}
		h := handler.NewMediaHandler(m, 1<<20, testLogger())

		req := httptest.NewRequest(http.MethodGet, "/uploads/abc.png", nil)
		req.Header.Set("Range", "bytes=2-4")
		rr := serve(t, http.MethodGet, "/uploads/{name}", h.HandleServe, req)

		assert.Equal(t, http.StatusPartialContent, rr.Code)
		assert.Equal(t, "234", rr.Body.String())
	})

	t.Run("stream content", func(t *testing.T) {
		m := &mockImages{content: streamOnly{strings.NewReader("jpeg")}}
		h := handler.NewMediaHandler(m, 1<<20, testLogger())

		rr := serve(t, http.MethodGet, "/uploads/{name}", h.HandleServe,
			httptest.NewRequest(http.MethodGet, "/uploads/a.jpg", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "jpeg", rr.Body.String())
		assert.Equal(t, "image/jpeg", rr.Header().Get("Content-Type"))
	})

	t.Run("missing", func(t *testing.T) {
		h := handler.NewMediaHandler(&mockImages{err: apperror.NotFoundMessage("Image not found")}, 1<<20, testLogger())

		rr := serve(t, http.MethodGet, "/uploads/{name}", h.HandleServe,
			httptest.NewRequest(http.MethodGet, "/uploads/nope.png", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

type nopSeekCloser struct{ io.ReadSeeker }

func (nopSeekCloser) Close() error { return nil }
