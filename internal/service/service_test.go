package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/jpeg"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagesaid/internal/config"
	"imagesaid/internal/ollama"
	"imagesaid/pkg/types"
)

type fakeOllama struct {
	pingErr  error
	models   []types.ModelInfo
	reply    string
	lastURL  string
	lastReq  types.GenerateRequest
	pingURLs []string
}

func (f *fakeOllama) Generate(_ context.Context, baseURL string, req types.GenerateRequest) (string, error) {
	f.lastURL, f.lastReq = baseURL, req
	return f.reply, nil
}

func (f *fakeOllama) ListModels(_ context.Context, baseURL string) ([]types.ModelInfo, error) {
	f.lastURL = baseURL
	return f.models, nil
}

func (f *fakeOllama) Ping(_ context.Context, baseURL string) error {
	f.pingURLs = append(f.pingURLs, baseURL)
	return f.pingErr
}

func newService(f *fakeOllama) *Service {
	return New(config.Config{APIURL: "http://default:11434", Model: "default-model"}, f, zerolog.Nop())
}

func TestTestConnection(t *testing.T) {
	f := &fakeOllama{}
	s := newService(f)

	st := s.TestConnection(context.Background(), "")
	assert.True(t, st.OK)
	assert.Equal(t, "Connection succeeded: Ollama is running", st.Message)
	assert.Equal(t, []string{"http://default:11434"}, f.pingURLs)

	f.pingErr = errors.New("dial tcp: connection refused")
	st = s.TestConnection(context.Background(), "http://other:1")
	assert.False(t, st.OK)
	assert.True(t, strings.HasPrefix(st.Message, "Connection failed: "))
	assert.Contains(t, st.Message, "connection refused")
	assert.Equal(t, "http://other:1", f.pingURLs[1])
}

func TestTestConnection_UnreachableRealClient(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	s := NewFromConfig(config.Config{APIURL: url, RequestTimeoutS: 2, ConnectTimeoutS: 1}, zerolog.Nop())
	st := s.TestConnection(context.Background(), "")
	assert.False(t, st.OK)
	assert.Contains(t, st.Message, "Connection failed: ")
}

func TestGenerateName_FillsDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "x.bin")
	require.NoError(t, os.WriteFile(p, []byte("data"), 0o644))
	f := &fakeOllama{reply: "tabby_cat_sleeping"}
	s := newService(f)

	res, err := s.GenerateName(context.Background(), types.NameRequest{ImagePath: p})
	require.NoError(t, err)
	assert.Equal(t, "tabby_cat_sleeping", res.NewName)
	assert.Equal(t, "http://default:11434", f.lastURL)
	assert.Equal(t, "default-model", f.lastReq.Model)

	_, err = s.GenerateName(context.Background(), types.NameRequest{ImagePath: p, APIURL: "http://x:1", Model: "llava"})
	require.NoError(t, err)
	assert.Equal(t, "http://x:1", f.lastURL)
	assert.Equal(t, "llava", f.lastReq.Model)
}

func TestGenerateName_PerModelContextLength(t *testing.T) {
	p := filepath.Join(t.TempDir(), "big.jpg")
	writeNoiseJPEG(t, p, 600, 400)
	f := &fakeOllama{reply: "city_skyline_night"}
	s := New(config.Config{
		APIURL:              "http://default:11434",
		Model:               "small-model",
		ContextLength:       4096,
		ModelContextLengths: map[string]int{"small-model": 128},
	}, f, zerolog.Nop())

	// 128 tokens is a 32 KiB budget for small-model.
	_, err := s.GenerateName(context.Background(), types.NameRequest{ImagePath: p})
	require.NoError(t, err)
	require.Len(t, f.lastReq.Images, 1)
	small := len(f.lastReq.Images[0])
	assert.LessOrEqual(t, small, base64.StdEncoding.EncodedLen(32*1024))

	// No entry for this model: the global 4096 applies and the image fits.
	_, err = s.GenerateName(context.Background(), types.NameRequest{ImagePath: p, Model: "other"})
	require.NoError(t, err)
	full := len(f.lastReq.Images[0])
	assert.Less(t, small, full)

	// An explicit request value wins over the per-model entry.
	_, err = s.GenerateName(context.Background(), types.NameRequest{ImagePath: p, ContextLength: 4096})
	require.NoError(t, err)
	assert.Equal(t, full, len(f.lastReq.Images[0]))
}

func writeNoiseJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	rng := rand.New(rand.NewSource(7))
	for i := range img.Pix {
		if i%4 == 3 {
			img.Pix[i] = 0xff
			continue
		}
		img.Pix[i] = byte(rng.Intn(256))
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestApplyRenames(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(src, []byte("j"), 0o644))

	n, err := newService(&fakeOllama{}).ApplyRenames([]types.RenameOperation{{OldPath: src, NewName: "sunset"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = os.Stat(filepath.Join(dir, "sunset.jpg"))
	assert.NoError(t, err)
}

func TestListModelsAndFiles(t *testing.T) {
	f := &fakeOllama{models: []types.ModelInfo{{Name: "llava"}}}
	s := newService(f)
	models, err := s.ListModels(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "llava", models[0].Name)
	assert.Equal(t, "http://default:11434", f.lastURL)

	p := filepath.Join(t.TempDir(), "a.webp")
	require.NoError(t, os.WriteFile(p, []byte("abc"), 0o644))
	u, err := s.ReadImageDataURL(p)
	require.NoError(t, err)
	assert.Equal(t, "data:image/webp;base64,YWJj", u)
	assert.Equal(t, int64(3), s.ImageInfo(p).Size)
}

func TestResolvePrompt(t *testing.T) {
	s := newService(&fakeOllama{})
	p, err := s.ResolvePrompt("")
	require.NoError(t, err)
	assert.Equal(t, s.Config().Prompt, p)
	_, err = s.ResolvePrompt("nope")
	assert.Error(t, err)
}

var _ Ollama = (*ollama.Client)(nil)
