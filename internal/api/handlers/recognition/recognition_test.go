package recognition

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	recognitionService "recipe-finder/internal/core/recognition"
	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type failingRecognizer struct{}

func (failingRecognizer) Name() string { return "failing" }

func (failingRecognizer) Recognize(context.Context, string) (*common.RecognitionResult, error) {
	return nil, errors.New("model unavailable")
}

func pngDataURI(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newTestRouter(t *testing.T, r recognitionService.Recognizer) *gin.Engine {
	t.Helper()
	q := recognitionService.NewQueue(r, config.QueueConfig{Workers: 1, MaxSize: 4})
	t.Cleanup(q.Close)

	engine := gin.New()
	NewHandler(q, recognitionService.NewImageValidator(1<<20)).Register(engine.Group("/api"))
	return engine
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/recognize-ingredients", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleRecognize(t *testing.T) {
	mock := recognitionService.NewMockRecognizer(0, 0, rand.New(rand.NewSource(7)))
	r := newTestRouter(t, mock)

	w := post(r, `{"imageData":"`+pngDataURI(t)+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var res common.RecognitionResult
	if err := common.ParseJSONBytes(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Ingredients) < 3 || len(res.Ingredients) > 6 {
		t.Fatalf("ingredients = %v", res.Ingredients)
	}
	if res.Confidence < 0.7 || res.Confidence > 1 {
		t.Fatalf("confidence = %v", res.Confidence)
	}
	if !strings.HasPrefix(res.Message, "Detected ") {
		t.Fatalf("message = %q", res.Message)
	}
}

func TestHandleRecognize_Errors(t *testing.T) {
	mock := recognitionService.NewMockRecognizer(0, 0, nil)
	r := newTestRouter(t, mock)

	cases := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{"empty body", ``, http.StatusBadRequest, "No image data provided."},
		{"missing image", `{}`, http.StatusBadRequest, "No image data provided."},
		{"malformed json", `{"imageData":`, http.StatusBadRequest, "Invalid request."},
		{"not a data uri", `{"imageData":"hello"}`, http.StatusBadRequest, "Image must be a data:image URI."},
		{"bad base64", `{"imageData":"data:image/png;base64,!!!"}`, http.StatusBadRequest, "Invalid image data."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := post(r, tc.body)
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tc.status, w.Body.String())
			}
			var resp common.ErrorResponse
			if err := common.ParseJSONBytes(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Message != tc.message {
				t.Fatalf("message = %q, want %q", resp.Message, tc.message)
			}
		})
	}
}

func TestHandleRecognize_ProviderFailure(t *testing.T) {
	r := newTestRouter(t, failingRecognizer{})

	w := post(r, `{"imageData":"`+pngDataURI(t)+`"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp common.ErrorResponse
	if err := common.ParseJSONBytes(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "Image processing failed." || resp.Code != "RECOGNITION_FAILED" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestRecognitionError(t *testing.T) {
	if err := recognitionError(common.ErrQueueFull); !errors.Is(err, common.ErrQueueFull) {
		t.Fatalf("queue full should pass through, got %v", err)
	}
	if err := recognitionError(context.DeadlineExceeded); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("deadline should pass through, got %v", err)
	}
	if err := recognitionError(recognitionService.ErrQueueClosed); !errors.Is(err, common.ErrServiceUnavailable) {
		t.Fatalf("closed queue = %v, want ErrServiceUnavailable", err)
	}
}
