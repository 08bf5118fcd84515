package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"imagesaid/internal/config"
	"imagesaid/internal/logging"
	"imagesaid/internal/service"
)

// app is the state shared by every subcommand, filled in PersistentPreRunE.
type app struct {
	out        io.Writer
	configPath string
	cfg        config.Config
	log        zerolog.Logger
	svc        *service.Service
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}
	root := &cobra.Command{
		Use:           "imagesaid",
		Short:         "Rename images with names suggested by a local vision model",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	d := config.Default()
	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", os.Getenv(config.EnvPrefix+"CONFIG"), "Config file (.yaml, .json or .toml)")
	pf.String("api-url", d.APIURL, "Ollama base URL")
	pf.String("model", d.Model, "Vision model name")
	pf.Int("context-length", d.ContextLength, "Model context length in tokens; sizes the image budget")
	pf.Int("timeout", d.RequestTimeoutS, "Per-request timeout in seconds")
	pf.String("log-level", d.LogLevel, "Log level: debug|info|warn|error|off")
	pf.String("log-format", d.LogFormat, "Log format: console|json")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg := config.Config{}
		if a.configPath != "" {
			c, err := config.Load(a.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg = c
		}
		cfg, err := cfg.ApplyEnv(os.LookupEnv)
		if err != nil {
			return err
		}
		applyFlags(cmd, &cfg)
		a.cfg = cfg.WithDefaults()
		a.log = logging.New(a.cfg.LogLevel, a.cfg.LogFormat, cmd.ErrOrStderr())
		a.svc = service.NewFromConfig(a.cfg, a.log)
		return nil
	}

	root.AddCommand(
		newServeCmd(a),
		newNameCmd(a),
		newRenameCmd(a),
		newModelsCmd(a),
		newPingCmd(a),
		newInfoCmd(a),
		newDataURLCmd(a),
	)
	return root
}

// applyFlags copies flags the user set explicitly over file and env values.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("api-url") {
		cfg.APIURL, _ = fs.GetString("api-url")
	}
	if fs.Changed("model") {
		cfg.Model, _ = fs.GetString("model")
	}
	if fs.Changed("context-length") {
		cfg.ContextLength, _ = fs.GetInt("context-length")
	}
	if fs.Changed("timeout") {
		cfg.RequestTimeoutS, _ = fs.GetInt("timeout")
	}
	if fs.Changed("log-level") {
		cfg.LogLevel, _ = fs.GetString("log-level")
	}
	if fs.Changed("log-format") {
		cfg.LogFormat, _ = fs.GetString("log-format")
	}
	if f := fs.Lookup("addr"); f != nil && f.Changed {
		cfg.Addr = f.Value.String()
	}
	if f := fs.Lookup("cors-origins"); f != nil && f.Changed {
		cfg.CORSOrigins = splitCSV(f.Value.String())
	}
}

// splitCSV splits a comma-separated list, trimming blanks and dropping
// empty items.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
