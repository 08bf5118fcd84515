// Package service exposes the six host commands on top of the naming
// pipeline, the batch renamer and the Ollama client.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"imagesaid/internal/config"
	"imagesaid/internal/imagefile"
	"imagesaid/internal/naming"
	"imagesaid/internal/ollama"
	"imagesaid/internal/rename"
	"imagesaid/pkg/types"
)

const (
	connOK   = "Connection succeeded: Ollama is running"
	connFail = "Connection failed: "
)

// Ollama is the subset of *ollama.Client the service uses.
type Ollama interface {
	naming.Generator
	ListModels(ctx context.Context, baseURL string) ([]types.ModelInfo, error)
	Ping(ctx context.Context, baseURL string) error
}

// Service carries request defaults and the shared inference client. It is
// safe for concurrent use.
type Service struct {
	cfg      config.Config
	client   Ollama
	pipeline *naming.Pipeline
	log      zerolog.Logger
}

// New builds a Service from cfg (defaults applied) using client for every
// inference call.
func New(cfg config.Config, client Ollama, log zerolog.Logger) *Service {
	cfg = cfg.WithDefaults()
	return &Service{
		cfg:      cfg,
		client:   client,
		pipeline: naming.New(client, naming.WithDefaultPrompt(cfg.Prompt), naming.WithLogger(log)),
		log:      log,
	}
}

// NewFromConfig builds a Service with an Ollama client sized from cfg.
func NewFromConfig(cfg config.Config, log zerolog.Logger) *Service {
	cfg = cfg.WithDefaults()
	c := ollama.NewClient(
		time.Duration(cfg.RequestTimeoutS)*time.Second,
		time.Duration(cfg.ConnectTimeoutS)*time.Second,
	)
	return New(cfg, c, log)
}

// Config returns the effective configuration.
func (s *Service) Config() config.Config { return s.cfg }

func (s *Service) apiURL(u string) string {
	if strings.TrimSpace(u) == "" {
		return s.cfg.APIURL
	}
	return u
}

// TestConnection probes apiURL (or the default). It never returns an error;
// failures are reported in the status message.
func (s *Service) TestConnection(ctx context.Context, apiURL string) types.ConnectionStatus {
	u := s.apiURL(apiURL)
	if err := s.client.Ping(ctx, u); err != nil {
		s.log.Info().Str("api_url", u).Err(err).Msg("connection test failed")
		return types.ConnectionStatus{OK: false, Message: connFail + err.Error()}
	}
	return types.ConnectionStatus{OK: true, Message: connOK}
}

// GenerateName runs the naming pipeline. Empty api_url and model take the
// configured defaults. An unset context_length comes from the model's entry
// in model_context_lengths, then from context_length.
func (s *Service) GenerateName(ctx context.Context, req types.NameRequest) (types.ProcessingResult, error) {
	req.APIURL = s.apiURL(req.APIURL)
	if strings.TrimSpace(req.Model) == "" {
		req.Model = s.cfg.Model
	}
	if req.ContextLength <= 0 {
		req.ContextLength = s.cfg.ContextLengthFor(req.Model)
	}
	return s.pipeline.Process(ctx, req)
}

// ApplyRenames applies ops in order and returns how many were applied.
func (s *Service) ApplyRenames(ops []types.RenameOperation) (int, error) {
	n, err := rename.Apply(ops)
	if err != nil {
		s.log.Warn().Int("applied", n).Int("total", len(ops)).Err(err).Msg("rename batch stopped")
		return n, err
	}
	s.log.Info().Int("applied", n).Msg("rename batch applied")
	return n, nil
}

// ImageInfo returns best-effort metadata for path.
func (s *Service) ImageInfo(path string) types.ImageInfo { return imagefile.Stat(path) }

// ListModels lists the models installed on apiURL (or the default).
func (s *Service) ListModels(ctx context.Context, apiURL string) ([]types.ModelInfo, error) {
	return s.client.ListModels(ctx, s.apiURL(apiURL))
}

// ReadImageDataURL returns path as a base64 data URL.
func (s *Service) ReadImageDataURL(path string) (string, error) { return imagefile.DataURL(path) }

// ResolvePrompt returns the content of a configured prompt template, or the
// default prompt when name is empty.
func (s *Service) ResolvePrompt(name string) (string, error) { return s.cfg.ResolvePrompt(name) }
