// Command nftpreview composites the layers of a project file into a preview
// and reports which layers were drawn.
//
// Usage:
//
//	nftpreview --project layers.yaml [--watch] [--timeout 30s] [--cache 64]
//
// Every flag can also be set in a config file (--config) or through an
// NFTPREVIEW_* environment variable, e.g. NFTPREVIEW_LOG_LEVEL=debug.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gogpu/nftpreview"
	"github.com/gogpu/nftpreview/store"
)

// Configuration keys, shared by flags, config file and environment.
const (
	keyProject   = "project"
	keyConfig    = "config"
	keyWatch     = "watch"
	keyTimeout   = "timeout"
	keyCache     = "cache"
	keyBaseDir   = "base-dir"
	keyUserAgent = "user-agent"
	keyLogLevel  = "log-level"

	envPrefix = "NFTPREVIEW"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	project   string
	watch     bool
	timeout   time.Duration
	cache     int
	baseDir   string
	userAgent string
	logLevel  slog.Level
}

func run(ctx context.Context, args []string, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "nftpreview: %v\n", err)
		return exitUsage
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: opts.logLevel}))
	nftpreview.SetLogger(logger)

	snap, err := store.LoadProject(opts.project)
	if err != nil {
		logger.Error("load project", "err", err)
		return exitFailure
	}
	s := store.NewFrom(snap)

	loader := nftpreview.NewImageLoader(
		nftpreview.WithBaseDir(opts.baseDir),
		nftpreview.WithTimeout(opts.timeout),
		nftpreview.WithCacheSize(opts.cache),
		nftpreview.WithUserAgent(opts.userAgent),
		nftpreview.WithLoaderLogger(logger),
	)
	comp := nftpreview.NewCompositor(loader, nftpreview.WithLogger(logger))
	preview := nftpreview.NewPreview(s, comp,
		nftpreview.WithEntrance(false, 0),
		nftpreview.WithPreviewLogger(logger),
	)

	if !opts.watch {
		out := preview.Render(ctx, s.Snapshot())
		report(logger, preview, out)
		if out.Kind == nftpreview.Failure {
			return exitFailure
		}
		return exitOK
	}

	preview.OnStatus(func(st nftpreview.Status) {
		switch {
		case st.Loading:
			logger.Debug("rendering")
		case st.Error != "":
			logger.Error("render failed", "err", st.Error)
		default:
			c := preview.Canvas()
			logger.Info("render done", "width", c.Width(), "height", c.Height())
		}
	})
	stopPreview := preview.Start(ctx)
	defer stopPreview()

	logger.Info("watching project", "path", opts.project)
	if err := store.Watch(ctx, opts.project, s, store.WithLogger(logger)); err != nil {
		logger.Error("watch project", "err", err)
		return exitFailure
	}
	return exitOK
}

func parseOptions(args []string, stderr io.Writer) (options, error) {
	fs := pflag.NewFlagSet("nftpreview", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringP(keyProject, "p", "", "project file (yaml, json or toml)")
	fs.StringP(keyConfig, "c", "", "config file with default flag values")
	fs.BoolP(keyWatch, "w", false, "re-render whenever the project file changes")
	fs.Duration(keyTimeout, nftpreview.DefaultLoadTimeout, "per-image load timeout (0 disables)")
	fs.Int(keyCache, 64, "number of decoded images to cache (0 disables)")
	fs.String(keyBaseDir, "", "directory relative asset paths resolve against (default: project directory)")
	fs.String(keyUserAgent, nftpreview.DefaultUserAgent, "User-Agent for http requests")
	fs.String(keyLogLevel, "info", "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return options{}, fmt.Errorf("bind flags: %w", err)
	}
	if path := v.GetString(keyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return options{}, fmt.Errorf("read config: %w", err)
		}
	}

	opts := options{
		project:   v.GetString(keyProject),
		watch:     v.GetBool(keyWatch),
		timeout:   v.GetDuration(keyTimeout),
		cache:     v.GetInt(keyCache),
		baseDir:   v.GetString(keyBaseDir),
		userAgent: v.GetString(keyUserAgent),
	}
	if opts.project == "" && fs.NArg() > 0 {
		opts.project = fs.Arg(0)
	}
	if opts.project == "" {
		return options{}, errors.New("no project file given (--project)")
	}
	if opts.baseDir == "" {
		opts.baseDir = filepath.Dir(opts.project)
	}
	if opts.cache < 0 {
		return options{}, fmt.Errorf("--%s must not be negative", keyCache)
	}
	if err := opts.logLevel.UnmarshalText([]byte(v.GetString(keyLogLevel))); err != nil {
		return options{}, fmt.Errorf("--%s: %w", keyLogLevel, err)
	}
	return opts, nil
}

func report(logger *slog.Logger, p *nftpreview.Preview, out nftpreview.Outcome) {
	for _, f := range out.Failed {
		logger.Warn("layer skipped", "layer", f.LayerID, "locator", f.Locator, "err", errors.Unwrap(f.Err))
	}
	c := p.Canvas()
	attrs := []any{
		"outcome", out.Kind,
		"drawn", strings.Join(out.Drawn, ","),
		"width", c.Width(),
		"height", c.Height(),
	}
	if msg := out.Message(); msg != "" {
		attrs = append(attrs, "message", msg)
	}
	if out.Kind == nftpreview.Failure {
		logger.Error("preview failed", attrs...)
		return
	}
	logger.Info("preview rendered", attrs...)
}
