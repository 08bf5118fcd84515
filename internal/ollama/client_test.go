package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"imagesaid/pkg/types"
)

func newTestClient() *Client { return NewClient(5*time.Second, 2*time.Second) }

func TestGenerate_SendsRequestAndReturnsResponse(t *testing.T) {
	var (
		mu  sync.Mutex
		got types.GenerateRequest
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method=%s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type=%q", ct)
		}
		// decode into a raw map too, so the stream flag must be present on the wire
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode: %v", err)
		}
		if v, ok := raw["stream"]; !ok || v != false {
			t.Errorf("stream=%v present=%v", v, ok)
		}
		b, _ := json.Marshal(raw)
		mu.Lock()
		_ = json.Unmarshal(b, &got)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"m","response":"A Red Sports Car\n","done":true}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := newTestClient()
	text, err := c.Generate(context.Background(), ts.URL+"///", types.GenerateRequest{
		Model:  "llava",
		Prompt: "name it",
		Images: []string{"aGVsbG8="},
		Stream: true, // forced off by the client
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "A Red Sports Car\n" {
		t.Fatalf("text=%q", text)
	}
	mu.Lock()
	defer mu.Unlock()
	if got.Model != "llava" || got.Prompt != "name it" || len(got.Images) != 1 || got.Images[0] != "aGVsbG8=" || got.Stream {
		t.Fatalf("unexpected request: %+v", got)
	}
}

func TestGenerate_HTTPErrorIsAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'nope' not found"}`))
	}))
	defer ts.Close()

	_, err := newTestClient().Generate(context.Background(), ts.URL, types.GenerateRequest{Model: "nope"})
	if !IsAPIError(err) {
		t.Fatalf("expected APIError, got %v", err)
	}
	ae := err.(*APIError)
	if ae.Status != http.StatusNotFound {
		t.Fatalf("status=%d", ae.Status)
	}
	if !strings.Contains(ae.Error(), "404") || !strings.Contains(ae.Error(), "not found") {
		t.Fatalf("message=%q", ae.Error())
	}
	if ae.StatusCode() != http.StatusBadGateway {
		t.Fatalf("http mapping=%d", ae.StatusCode())
	}
}

func TestGenerate_MalformedJSONIsParseError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response": `))
	}))
	defer ts.Close()

	_, err := newTestClient().Generate(context.Background(), ts.URL, types.GenerateRequest{})
	if !IsParseError(err) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestGenerate_UnreachableIsNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := newTestClient().Generate(context.Background(), url, types.GenerateRequest{})
	if !IsNetworkError(err) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if IsAPIError(err) || IsParseError(err) {
		t.Fatalf("misclassified: %v", err)
	}
	var ne *NetworkError
	if errors.As(err, &ne) && ne.StatusCode() != http.StatusBadGateway {
		t.Fatalf("status=%d", ne.StatusCode())
	}
}

func TestGenerate_TimeoutIsNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	c := NewClient(50*time.Millisecond, time.Second)
	_, err := c.Generate(context.Background(), ts.URL, types.GenerateRequest{})
	if !IsNetworkError(err) {
		t.Fatalf("expected NetworkError on timeout, got %v", err)
	}
	var ne *NetworkError
	if !errors.As(err, &ne) || ne.StatusCode() != http.StatusGatewayTimeout {
		t.Fatalf("timeout should map to 504, got %v", err)
	}
}

func TestListModels_DefaultsMissingDetails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method=%s", r.Method)
		}
		_, _ = w.Write([]byte(`{"models":[
			{"name":"qwen2.5vl:3b","size":3200000000,"digest":"abc","details":{"format":"gguf","family":"qwen25vl","parameter_size":"3.8B","quantization_level":"Q4_K_M"}},
			{"name":"bare"},
			{"name":"partial","details":{"family":"llava"}}
		]}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	models, err := newTestClient().ListModels(context.Background(), ts.URL+"/")
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 3 {
		t.Fatalf("len=%d", len(models))
	}
	if models[0].Name != "qwen2.5vl:3b" || models[0].Size != 3200000000 || models[0].Details.QuantizationLevel != "Q4_K_M" {
		t.Fatalf("first=%+v", models[0])
	}
	if models[1].Name != "bare" || models[1].Digest != "" || models[1].Details != (types.ModelDetails{}) {
		t.Fatalf("bare=%+v", models[1])
	}
	if models[2].Details.Family != "llava" || models[2].Details.Format != "" {
		t.Fatalf("partial=%+v", models[2])
	}
}

func TestListModels_EmptyAndErrors(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/empty/api/tags", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/broken/api/tags", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})
	mux.HandleFunc("/down/api/tags", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()
	c := newTestClient()

	models, err := c.ListModels(context.Background(), ts.URL+"/empty")
	if err != nil || models == nil || len(models) != 0 {
		t.Fatalf("empty: models=%v err=%v", models, err)
	}
	if _, err := c.ListModels(context.Background(), ts.URL+"/broken"); !IsParseError(err) {
		t.Fatalf("broken: %v", err)
	}
	_, err = c.ListModels(context.Background(), ts.URL+"/down")
	if !IsAPIError(err) || !strings.Contains(err.Error(), "unavailable") {
		t.Fatalf("down: %v", err)
	}
}

func TestPing(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("path=%s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`this body is not parsed`))
	}))
	defer ok.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	c := newTestClient()
	if err := c.Ping(context.Background(), ok.URL); err != nil {
		t.Fatalf("ping ok: %v", err)
	}
	if err := c.Ping(context.Background(), bad.URL); !IsAPIError(err) {
		t.Fatalf("ping bad: %v", err)
	}
}

func TestEndpoint(t *testing.T) {
	cases := []struct{ in, want string }{
		{"http://localhost:11434", "http://localhost:11434/api/tags"},
		{"http://localhost:11434/", "http://localhost:11434/api/tags"},
		{" http://h:1//  ", "http://h:1/api/tags"},
		{"http://proxy/ollama/", "http://proxy/ollama/api/tags"},
	}
	for _, c := range cases {
		if got := Endpoint(c.in, "/api/tags"); got != c.want {
			t.Fatalf("Endpoint(%q)=%q want %q", c.in, got, c.want)
		}
	}
}
