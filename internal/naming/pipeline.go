// Package naming turns one image file into a suggested file name by asking a
// vision model to describe it.
package naming

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"imagesaid/internal/common/fsutil"
	"imagesaid/internal/compress"
	"imagesaid/internal/sanitize"
	"imagesaid/pkg/types"
)

const (
	// DefaultContextLength is used when a request carries no context length.
	DefaultContextLength = 4096
	// DefaultPrompt is used when neither the request nor the pipeline has one.
	DefaultPrompt = `Describe the image briefly as "scene_subject_action", for example "lawn_golden-retriever_catching-frisbee".`

	nameOnlyInstruction = "Reply with the file name only: no file extension, no quotes, no explanation."
)

// placeholderPrefixes mark identifiers a webview hands out when a drop did
// not resolve to a real file.
var placeholderPrefixes = []string{"blob:", "dev-", "browser-", "temp-"}

// Generator is the inference call the pipeline depends on.
type Generator interface {
	Generate(ctx context.Context, baseURL string, req types.GenerateRequest) (string, error)
}

// Pipeline runs load, compress, encode, infer and sanitize for one image.
// It holds no per-call state and is safe for concurrent use.
type Pipeline struct {
	gen    Generator
	prompt string
	log    zerolog.Logger
	now    func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDefaultPrompt sets the prompt used when a request has none.
func WithDefaultPrompt(p string) Option {
	return func(pl *Pipeline) {
		if strings.TrimSpace(p) != "" {
			pl.prompt = p
		}
	}
}

// WithLogger sets the pipeline logger. The default discards output.
func WithLogger(l zerolog.Logger) Option {
	return func(pl *Pipeline) { pl.log = l }
}

// New returns a Pipeline calling gen for inference.
func New(gen Generator, opts ...Option) *Pipeline {
	p := &Pipeline{gen: gen, prompt: DefaultPrompt, log: zerolog.Nop(), now: time.Now}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Budget returns the image byte budget for a context length in tokens.
// Values <= 0 select DefaultContextLength.
func Budget(contextLength int) int {
	if contextLength <= 0 {
		contextLength = DefaultContextLength
	}
	return contextLength * 1024 / 4
}

// Process produces a sanitized name for req.ImagePath.
func (p *Pipeline) Process(ctx context.Context, req types.NameRequest) (types.ProcessingResult, error) {
	start := p.now()
	log := p.log.With().Str("job", uuid.NewString()).Str("path", req.ImagePath).Logger()

	res, err := p.process(ctx, req, log)
	if err != nil {
		namesTotal.WithLabelValues("error").Inc()
		log.Warn().Err(err).Msg("naming failed")
		return types.ProcessingResult{}, err
	}
	elapsed := p.now().Sub(start)
	res.ProcessingTimeMS = uint64(elapsed.Milliseconds())
	if res.ProcessingTimeMS == 0 && elapsed > 0 {
		res.ProcessingTimeMS = 1
	}
	namesTotal.WithLabelValues("ok").Inc()
	log.Info().Str("name", res.NewName).Uint64("ms", res.ProcessingTimeMS).Msg("name generated")
	return res, nil
}

func (p *Pipeline) process(ctx context.Context, req types.NameRequest, log zerolog.Logger) (types.ProcessingResult, error) {
	if isPlaceholder(req.ImagePath) {
		return types.ProcessingResult{}, &InvalidPathError{Path: req.ImagePath}
	}
	data, err := fsutil.ReadFile(req.ImagePath)
	if err != nil {
		return types.ProcessingResult{}, err
	}

	payload := p.shrink(data, Budget(req.ContextLength), log)

	prompt := req.Prompt
	if strings.TrimSpace(prompt) == "" {
		prompt = p.prompt
	}
	reply, err := p.gen.Generate(ctx, req.APIURL, types.GenerateRequest{
		Model:  req.Model,
		Prompt: prompt + "\n" + nameOnlyInstruction,
		Images: []string{base64.StdEncoding.EncodeToString(payload)},
	})
	if err != nil {
		return types.ProcessingResult{}, err
	}
	log.Debug().Str("reply", reply).Msg("model replied")

	name := sanitize.Filename(reply)
	if name == "" {
		return types.ProcessingResult{}, &EmptyNameError{Raw: reply}
	}
	return types.ProcessingResult{NewName: name}, nil
}

// shrink compresses data to budget, falling back to the original bytes when
// compression fails. The fallback may exceed the budget.
func (p *Pipeline) shrink(data []byte, budget int, log zerolog.Logger) []byte {
	res, err := compress.Compress(data, budget)
	if err != nil {
		compressionTotal.WithLabelValues("fallback").Inc()
		log.Warn().Err(err).Int("budget", budget).Int("bytes", len(data)).
			Msg("compression failed, sending original image")
		return data
	}
	compressionTotal.WithLabelValues(string(res.Phase)).Inc()
	log.Debug().
		Str("phase", string(res.Phase)).
		Int("quality", res.Quality).
		Float64("scale", res.Scale).
		Int("from", res.OriginalSize).
		Int("to", len(res.Data)).
		Msg("image compressed")
	return res.Data
}

func isPlaceholder(path string) bool {
	for _, pfx := range placeholderPrefixes {
		if strings.HasPrefix(path, pfx) {
			return true
		}
	}
	return false
}
