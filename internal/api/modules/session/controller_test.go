package session_module

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethanbaker/lp-analysis/internal/images"
	"github.com/ethanbaker/lp-analysis/internal/stores/session"
	"github.com/ethanbaker/lp-analysis/pkg/sdk"
)

// newTestRouter wires the module against a real in-memory store and a
// temp-dir image storage
func newTestRouter(t *testing.T) (*gin.Engine, *session.InMemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := session.NewInMemoryStore()

	storage, err := images.NewStorage(t.TempDir())
	require.NoError(t, err)

	Init(s, images.NewNormalizer(storage))

	engine := gin.New()
	RegisterRoutes(engine.Group("/api"))

	return engine, s
}

func doJSON(engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

// pngBytes encodes a small solid-color PNG for upload tests
func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// uploadFile posts a multipart form with one file part under the given
// content type
func uploadFile(t *testing.T, engine *gin.Engine, path, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="upload.png"`)
	header.Set("Content-Type", contentType)

	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestCreateSession(t *testing.T) {
	engine, _ := newTestRouter(t)

	w := doJSON(engine, http.MethodPost, "/api/sessions", sdk.CreateSessionRequest{
		Title:       "Homepage hero test",
		Description: "Old hero vs new hero",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp sdk.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.ID)
	_, err := uuid.Parse(resp.ID)
	assert.NoError(t, err)

	assert.Equal(t, "Homepage hero test", resp.Title)
	assert.Equal(t, "Old hero vs new hero", resp.Description)
	assert.Equal(t, string(session.StatusDraft), resp.Status)
	assert.False(t, resp.CreatedAt.IsZero())
	assert.Empty(t, resp.ImageAFilename)
	assert.Empty(t, resp.ImageBFilename)
}

func TestCreateSession_MissingTitle(t *testing.T) {
	engine, _ := newTestRouter(t)

	w := doJSON(engine, http.MethodPost, "/api/sessions", map[string]string{
		"description": "no title here",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSession(t *testing.T) {
	engine, s := newTestRouter(t)

	sess, err := s.Create(context.Background(), "Pricing page", "")
	require.NoError(t, err)

	w := doJSON(engine, http.MethodGet, "/api/sessions/"+sess.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp sdk.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, sess.ID.String(), resp.ID)
	assert.Equal(t, "Pricing page", resp.Title)
}

func TestGetSession_NotFound(t *testing.T) {
	engine, _ := newTestRouter(t)

	tests := []struct {
		name string
		id   string
	}{
		{"unknown uuid", uuid.NewString()},
		{"malformed id", "not-a-uuid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(engine, http.MethodGet, "/api/sessions/"+tt.id, nil)
			assert.Equal(t, http.StatusNotFound, w.Code)
		})
	}
}

func TestListSessions(t *testing.T) {
	engine, s := newTestRouter(t)

	// Empty store still yields an array, not null
	w := doJSON(engine, http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))

	ctx := context.Background()
	_, err := s.Create(ctx, "first", "")
	require.NoError(t, err)
	second, err := s.Create(ctx, "second", "")
	require.NoError(t, err)

	w = doJSON(engine, http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp []sdk.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 2)

	// Most recent first
	assert.Equal(t, second.ID.String(), resp[0].ID)
	assert.Equal(t, "second", resp[0].Title)
	assert.Equal(t, "first", resp[1].Title)
}

func TestUploadImage(t *testing.T) {
	engine, s := newTestRouter(t)

	sess, err := s.Create(context.Background(), "Upload test", "")
	require.NoError(t, err)

	path := fmt.Sprintf("/api/upload?session_id=%s&image_type=image_a", sess.ID)
	w := uploadFile(t, engine, path, "image/png", pngBytes(t))
	require.Equal(t, http.StatusOK, w.Code)

	var resp sdk.UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "image_a uploaded successfully", resp.Message)
	assert.True(t, strings.HasSuffix(resp.Filename, "_image_a.jpg"), "stored as canonical jpeg: %s", resp.Filename)

	// The session now references the stored file
	fetched, err := s.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Filename, fetched.ImageAFilename)
	assert.Empty(t, fetched.ImageBFilename)
}

func TestUploadImage_ReplacesPrevious(t *testing.T) {
	engine, s := newTestRouter(t)

	sess, err := s.Create(context.Background(), "Replace test", "")
	require.NoError(t, err)

	path := fmt.Sprintf("/api/upload?session_id=%s&image_type=image_b", sess.ID)

	w := uploadFile(t, engine, path, "image/png", pngBytes(t))
	require.Equal(t, http.StatusOK, w.Code)
	var first sdk.UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))

	w = uploadFile(t, engine, path, "image/png", pngBytes(t))
	require.Equal(t, http.StatusOK, w.Code)
	var second sdk.UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))

	assert.NotEqual(t, first.Filename, second.Filename)

	fetched, err := s.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Filename, fetched.ImageBFilename)
}

func TestUploadImage_Errors(t *testing.T) {
	engine, s := newTestRouter(t)

	sess, err := s.Create(context.Background(), "Upload errors", "")
	require.NoError(t, err)

	tests := []struct {
		name        string
		path        string
		contentType string
		data        []byte
		code        int
	}{
		{
			name:        "unknown session",
			path:        fmt.Sprintf("/api/upload?session_id=%s&image_type=image_a", uuid.NewString()),
			contentType: "image/png",
			data:        pngBytes(t),
			code:        http.StatusNotFound,
		},
		{
			name:        "bad image_type",
			path:        fmt.Sprintf("/api/upload?session_id=%s&image_type=image_c", sess.ID),
			contentType: "image/png",
			data:        pngBytes(t),
			code:        http.StatusBadRequest,
		},
		{
			name:        "unsupported content type",
			path:        fmt.Sprintf("/api/upload?session_id=%s&image_type=image_a", sess.ID),
			contentType: "image/gif",
			data:        pngBytes(t),
			code:        http.StatusBadRequest,
		},
		{
			name:        "corrupt payload",
			path:        fmt.Sprintf("/api/upload?session_id=%s&image_type=image_a", sess.ID),
			contentType: "image/png",
			data:        []byte("definitely not a png"),
			code:        http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := uploadFile(t, engine, tt.path, tt.contentType, tt.data)
			assert.Equal(t, tt.code, w.Code)
		})
	}

	// None of the failed uploads should have touched the session
	fetched, err := s.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Empty(t, fetched.ImageAFilename)
	assert.Empty(t, fetched.ImageBFilename)
}

func TestUploadImage_MissingFilePart(t *testing.T) {
	engine, s := newTestRouter(t)

	sess, err := s.Create(context.Background(), "Missing file", "")
	require.NoError(t, err)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "no file here"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/upload?session_id=%s&image_type=image_a", sess.ID), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
