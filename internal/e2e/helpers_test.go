package e2e

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"imagesaid/internal/config"
	"imagesaid/internal/httpapi"
	"imagesaid/internal/service"
	"imagesaid/pkg/types"
)

// fakeOllama records generate requests and answers with canned replies in
// order.
type fakeOllama struct {
	mu       sync.Mutex
	replies  []string
	requests []types.GenerateRequest
}

func (f *fakeOllama) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[{"name":"qwen2.5vl:3b","size":3200000000,"digest":"sha256:1"}]}`))
	})
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		var req types.GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		reply := "unnamed"
		if n := len(f.requests); n < len(f.replies) {
			reply = f.replies[n]
		}
		f.requests = append(f.requests, req)
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(types.GenerateResponse{Response: reply})
	})
	return mux
}

func (f *fakeOllama) seen() []types.GenerateRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.GenerateRequest(nil), f.requests...)
}

// newStack starts a fake Ollama and the API in front of it.
func newStack(t *testing.T, replies ...string) (*httptest.Server, *fakeOllama) {
	t.Helper()
	fo := &fakeOllama{replies: replies}
	upstream := httptest.NewServer(fo.handler())
	t.Cleanup(upstream.Close)

	cfg := config.Config{APIURL: upstream.URL, RequestTimeoutS: 10, ConnectTimeoutS: 2}
	svc := service.NewFromConfig(cfg, zerolog.Nop())
	srv := httptest.NewServer(httpapi.NewMux(svc))
	t.Cleanup(srv.Close)
	return srv, fo
}

func writeJPEG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 7), uint8(y * 3), uint8(x ^ y), 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func postJSON(t *testing.T, url string, body any) (*http.Response, []byte) {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp, out
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp, out
}
