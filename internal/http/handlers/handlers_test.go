package handlers

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
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eleblu/bluswipe/internal/config"
	"github.com/eleblu/bluswipe/internal/metrics"
	"github.com/eleblu/bluswipe/internal/models"
	"github.com/eleblu/bluswipe/internal/rembg"
	"github.com/eleblu/bluswipe/internal/services/processor"
	"github.com/eleblu/bluswipe/internal/services/remover"
	"github.com/eleblu/bluswipe/internal/services/storage"
)

// sessionStub replaces the model session manager so handler tests run
// without an inference server.
type sessionStub struct {
	mu       sync.Mutex
	ready    bool
	model    string
	switches []string
	removeFn func(ctx context.Context, img image.Image) (image.Image, error)
}

func (s *sessionStub) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	if s.removeFn != nil {
		return s.removeFn(ctx, img)
	}
	return img, nil
}

func (s *sessionStub) Switch(_ context.Context, model string) error {
	if !rembg.KnownModel(model) {
		return fmt.Errorf("%w: %s", rembg.ErrUnknownModel, model)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = model
	s.switches = append(s.switches, model)
	return nil
}

func (s *sessionStub) Model() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

func (s *sessionStub) Ready() bool { return s.ready }

// envConfig tweaks the handler under test. Zero values select the
// production defaults.
type envConfig struct {
	maxDim   int
	maxBatch int
	notReady bool
}

type testEnv struct {
	handler  *Handler
	router   *gin.Engine
	store    *storage.StorageService
	session  *sessionStub
	settings *config.Settings
}

// newTestEnv builds the full handler stack on temp dirs. Redis points at a
// closed port; the cache and job layers degrade with warnings, which is
// exactly what these tests rely on.
func newTestEnv(t *testing.T, ec envConfig) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if ec.maxDim == 0 {
		ec.maxDim = processor.DefaultMaxDimension
	}
	if ec.maxBatch == 0 {
		ec.maxBatch = 10
	}

	dir := t.TempDir()
	settings, err := config.LoadSettings(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	settings.Set("paths.uploads", filepath.Join(dir, "uploads"))
	settings.Set("paths.outputs", filepath.Join(dir, "outputs"))
	settings.Set("web.max_batch_files", ec.maxBatch)

	cfg := &config.Config{Redis: config.RedisConfig{Addr: "127.0.0.1:1"}}
	store, err := storage.NewStorageService(cfg, settings, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	session := &sessionStub{ready: !ec.notReady, model: rembg.DefaultModel}
	svc := remover.NewService(session, processor.New(ec.maxDim), store, metrics.New(),
		remover.Config{MaxBatchFiles: ec.maxBatch}, zap.NewNop())

	handler := NewHandler(svc, store, nil, settings, zap.NewNop())

	router := gin.New()
	router.GET("/health", handler.Health)
	api := router.Group("/api")
	{
		api.POST("/remove-background", handler.RemoveBackground)
		api.POST("/add-background", handler.AddBackground)
		api.POST("/batch", handler.Batch)
		api.POST("/batch/async", handler.BatchAsync)
		api.GET("/jobs/:id", handler.JobStatus)
		api.GET("/download/:filename", handler.Download)
		api.GET("/models", handler.Models)
		api.GET("/stats", handler.Stats)
	}

	return &testEnv{
		handler:  handler,
		router:   router,
		store:    store,
		session:  session,
		settings: settings,
	}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// upload describes one file part of a multipart request.
type upload struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, target string, uploads []upload, fields map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, u := range uploads {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="%s"; filename="%s"`, u.field, u.filename))
		header.Set("Content-Type", u.contentType)
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(u.data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 90, G: 60, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pngUpload(t *testing.T, filename string, w, h int) upload {
	return upload{field: fileParamKey, filename: filename, contentType: "image/png", data: testPNG(t, w, h)}
}

func apiError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.False(t, resp.Success)
	return resp.Error
}
