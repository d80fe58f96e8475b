// Package main provides the CLI entry point for gopcodec.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/gopcodec/pkg/adapters/filesink"
	"github.com/user/gopcodec/pkg/adapters/ggrenderer"
	"github.com/user/gopcodec/pkg/adapters/imagesource"
	"github.com/user/gopcodec/pkg/adapters/logger"
	"github.com/user/gopcodec/pkg/adapters/metastore"
	"github.com/user/gopcodec/pkg/adapters/mp4container"
	"github.com/user/gopcodec/pkg/adapters/nullsink"
	"github.com/user/gopcodec/pkg/adapters/osfilesystem"
	"github.com/user/gopcodec/pkg/adapters/synthetic"
	"github.com/user/gopcodec/pkg/bitstream"
	"github.com/user/gopcodec/pkg/codec"
	"github.com/user/gopcodec/pkg/config"
	"github.com/user/gopcodec/pkg/orchestrator"
	"github.com/user/gopcodec/pkg/ports"
	"github.com/user/gopcodec/pkg/stages/decode"
	"github.com/user/gopcodec/pkg/stages/encode"
	"github.com/user/gopcodec/pkg/stages/export"
	"github.com/user/gopcodec/pkg/stages/load"
	"github.com/user/gopcodec/pkg/stages/store"
	"github.com/user/gopcodec/pkg/summarizer"
)

var version = "dev"

// Default size of synthetic input when no resolution is given.
const (
	syntheticWidth  = 128
	syntheticHeight = 96
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "gopcodec",
		Usage:   l10n.T("Encode and decode frame sequences with a GOP-based block codec"),
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file")},
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: l10n.T("Log level (debug, info, warn, error)")},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: l10n.T("Suppress all log output")},
		},
		Commands: []*cli.Command{
			encodeCommand(),
			decodeCommand(),
			inspectCommand(),
		},
	}
}

func encodeCommand() *cli.Command {
	return &cli.Command{
		Name:  "encode",
		Usage: l10n.T("Encode an image directory or a synthetic sequence"),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Category: l10n.T("Input"), Usage: l10n.T("Directory of PNG/JPEG frames (synthetic frames when omitted)")},
			&cli.IntFlag{Name: "synthetic-frames", Category: l10n.T("Input"), Usage: l10n.T("Number of synthetic frames")},
			&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Category: l10n.T("Input"), Usage: l10n.T("Frame width (0 = size of the first image)")},
			&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Category: l10n.T("Input"), Usage: l10n.T("Frame height (0 = size of the first image)")},
			&cli.IntFlag{Name: "channels", Category: l10n.T("Input"), Usage: l10n.T("Channels per pixel (1 or 3)")},

			&cli.IntFlag{Name: "block-size", Aliases: []string{"b"}, Category: l10n.T("Codec"), Usage: l10n.T("Macroblock size in pixels")},
			&cli.IntFlag{Name: "search-range", Aliases: []string{"s"}, Category: l10n.T("Codec"), Usage: l10n.T("Motion search range in pixels")},
			&cli.IntFlag{Name: "quality", Aliases: []string{"q"}, Category: l10n.T("Codec"), Usage: l10n.T("Compression quality (0-100, higher is better)")},
			&cli.IntFlag{Name: "gop-size", Aliases: []string{"g"}, Category: l10n.T("Codec"), Usage: l10n.T("Frames per group of pictures")},
			&cli.IntFlag{Name: "b-frame-interval", Category: l10n.T("Codec"), Usage: l10n.T("Every n-th frame in a GOP is a B-frame (0 = none)")},
			&cli.Float64Flag{Name: "frame-rate", Category: l10n.T("Codec"), Usage: l10n.T("Frame rate recorded in the metadata")},
			&cli.IntFlag{Name: "workers", Category: l10n.T("Codec"), Usage: l10n.T("Parallel P/B-frame workers (0 = one per CPU)")},

			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Category: l10n.T("Output"), Usage: l10n.T("Bitstream output path")},
			&cli.StringFlag{Name: "metadata", Aliases: []string{"m"}, Category: l10n.T("Output"), Usage: l10n.T("Metadata sidecar path (.zst compresses it)")},
			&cli.StringFlag{Name: "mp4", Category: l10n.T("Output"), Usage: l10n.T("Also write the stream as an MP4 file")},
			&cli.StringFlag{Name: "summary", Category: l10n.T("Output"), Usage: l10n.T("Output execution summary to file (Markdown format)")},

			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Category: l10n.T("Debug"), Usage: l10n.T("Enable debug output")},
			&cli.StringFlag{Name: "debug-dir", Category: l10n.T("Debug"), Usage: l10n.T("Directory for debug output")},
		},
		Action: runEncode,
	}
}

func decodeCommand() *cli.Command {
	return &cli.Command{
		Name:  "decode",
		Usage: l10n.T("Decode a stored stream and export frames as images"),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Category: l10n.T("Input"), Usage: l10n.T("Bitstream path")},
			&cli.StringFlag{Name: "metadata", Aliases: []string{"m"}, Category: l10n.T("Input"), Usage: l10n.T("Metadata sidecar path")},
			&cli.StringFlag{Name: "mp4", Category: l10n.T("Input"), Usage: l10n.T("Read the stream from an MP4 file instead of the bitstream")},

			&cli.StringFlag{Name: "playback", Aliases: []string{"p"}, Category: l10n.T("Playback"), Usage: l10n.T("Playback mode (normal, fast-forward, reverse)")},
			&cli.StringFlag{Name: "frames", Category: l10n.T("Playback"), Usage: l10n.T("Comma-separated frame numbers to decode")},
			&cli.BoolFlag{Name: "skip-corrupt", Category: l10n.T("Playback"), Usage: l10n.T("Skip corrupt frames instead of failing")},

			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Category: l10n.T("Output"), Usage: l10n.T("Directory for exported frames")},
			&cli.StringFlag{Name: "format", Category: l10n.T("Output"), Usage: l10n.T("Exported image format (png, jpg)")},
			&cli.IntFlag{Name: "export-quality", Category: l10n.T("Output"), Usage: l10n.T("JPEG quality for exported frames")},
		},
		Action: runDecode,
	}
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     l10n.T("Print a summary and the frame table of a stored stream"),
		ArgsUsage: "<metadata>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "frames", Usage: l10n.T("List every frame record")},
		},
		Action: runInspect,
	}
}

// loadConfig reads the optional config file and applies global flags.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.LoadFromFile(path); err != nil {
			return cfg, err
		}
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	return cfg, nil
}

func newLogger(c *cli.Context, cfg config.Config) (ports.Logger, error) {
	if c.Bool("quiet") {
		return logger.NewNoop(), nil
	}
	level, err := ports.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logger.NewConsole(level), nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func newOrchestrator(fs ports.FileSystem, renderer ports.Renderer, sink ports.DebugSink, log ports.Logger) *orchestrator.Orchestrator {
	container := mp4container.New()
	meta := metastore.New(fs)
	return orchestrator.New(
		encode.NewStage(sink, renderer, log),
		store.NewStage(fs, container, meta, log),
		load.NewStage(fs, container, meta),
		decode.NewStage(log),
		export.NewStage(fs, renderer),
		log,
	)
}

func runEncode(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	applyEncodeFlags(c, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := newLogger(c, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	fs := osfilesystem.New()
	renderer := ggrenderer.New()

	var sink ports.DebugSink = nullsink.New()
	if cfg.Debug {
		if err := fs.MkdirAll(cfg.DebugDir); err != nil {
			return fmt.Errorf("create debug directory: %w", err)
		}
		sink = filesink.New(cfg.DebugDir, fs, renderer)
	}

	src, err := newSource(fs, renderer, cfg.Input)
	if err != nil {
		return err
	}

	orch := newOrchestrator(fs, renderer, sink, log)
	result, runErr := orch.RunEncode(ctx, src, cfg.ToOrchestratorConfig())
	if runErr != nil && len(result.Files) == 0 {
		return runErr
	}

	if path := c.String("summary"); path != "" {
		summary := summarizer.NewBuilder().
			FromMetadata(result.Metadata).
			WithRawBytes(result.Stats.RawBytes).
			WithMP4Bytes(result.MP4Bytes).
			WithPSNR(result.Stats.PSNR()).
			WithFiles(result.Files).
			Build()
		writer := summarizer.NewWriter(summarizer.NewMarkdownFormatter(summarizer.WithTranslator(l10n.T)), fs)
		if err := writer.Write(path, summary); err != nil {
			log.Error("Failed to write summary: %s", err)
		} else {
			log.Info("Summary saved to %s", path)
		}
	}
	return runErr
}

func applyEncodeFlags(c *cli.Context, cfg *config.Config) {
	ints := map[string]*int{
		"synthetic-frames": &cfg.Input.SyntheticFrames,
		"width":            &cfg.Input.Width,
		"height":           &cfg.Input.Height,
		"channels":         &cfg.Input.Channels,
		"block-size":       &cfg.BlockSize,
		"search-range":     &cfg.SearchRange,
		"quality":          &cfg.Quality,
		"gop-size":         &cfg.GOPSize,
		"b-frame-interval": &cfg.BFrameInterval,
		"workers":          &cfg.Workers,
	}
	for name, dst := range ints {
		if c.IsSet(name) {
			*dst = c.Int(name)
		}
	}
	strs := map[string]*string{
		"input":     &cfg.Input.Dir,
		"output":    &cfg.Output.Bitstream,
		"metadata":  &cfg.Output.Metadata,
		"mp4":       &cfg.Output.MP4,
		"debug-dir": &cfg.DebugDir,
	}
	for name, dst := range strs {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	if c.IsSet("frame-rate") {
		cfg.FrameRate = c.Float64("frame-rate")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
}

func newSource(fs ports.FileSystem, renderer ports.Renderer, in config.InputConfig) (ports.FrameSource, error) {
	if in.Dir != "" {
		return imagesource.New(fs, renderer, imagesource.Options{
			Dir:      in.Dir,
			Width:    in.Width,
			Height:   in.Height,
			Channels: in.Channels,
		})
	}
	width, height := in.Width, in.Height
	if width == 0 || height == 0 {
		width, height = syntheticWidth, syntheticHeight
	}
	return synthetic.New(renderer, synthetic.Options{
		Width:    width,
		Height:   height,
		Channels: in.Channels,
		Frames:   in.SyntheticFrames,
	})
}

func runDecode(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	strs := map[string]*string{
		"input":    &cfg.Output.Bitstream,
		"metadata": &cfg.Output.Metadata,
		"mp4":      &cfg.Output.MP4,
		"playback": &cfg.Playback,
		"output":   &cfg.Export.Dir,
		"format":   &cfg.Export.Format,
	}
	for name, dst := range strs {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	if c.IsSet("skip-corrupt") {
		cfg.SkipCorrupt = c.Bool("skip-corrupt")
	}
	if c.IsSet("export-quality") {
		cfg.Export.Quality = c.Int("export-quality")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := newLogger(c, cfg)
	if err != nil {
		return err
	}

	oc := cfg.ToOrchestratorConfig()
	if s := c.String("frames"); s != "" {
		if oc.Frames, err = parseFrameList(s); err != nil {
			return err
		}
	}

	ctx, cancel := signalContext(log)
	defer cancel()

	fs := osfilesystem.New()
	renderer := ggrenderer.New()
	orch := newOrchestrator(fs, renderer, nullsink.New(), log)
	_, err = orch.RunDecode(ctx, oc)
	return err
}

// parseFrameList parses "1,4,7" into frame numbers.
func parseFrameList(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid frame number %q", part)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, errors.New("no frame numbers given")
	}
	return out, nil
}

func runInspect(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New(l10n.T("Metadata path argument is required"))
	}
	fs := osfilesystem.New()
	md, err := metastore.New(fs).Load(c.Args().First())
	if err != nil {
		return err
	}
	if err := md.Validate(); err != nil {
		return err
	}

	summary := summarizer.NewBuilder().FromMetadata(md).Build()
	out := c.App.Writer
	fmt.Fprint(out, summarizer.NewMarkdownFormatter(summarizer.WithTranslator(l10n.T)).Format(summary))

	if c.Bool("frames") {
		fmt.Fprintf(out, "\n| # | %s | %s | %s |\n|---|---|---|---|\n", l10n.T("Type"), l10n.T("Reference"), l10n.T("Bits"))
		for _, rec := range md.Frames {
			h := rec.Header()
			ref := "-"
			if inter, ok := rec.(*bitstream.InterRecord); ok {
				ref = strconv.Itoa(inter.Reference)
			}
			fmt.Fprintf(out, "| %d | %s | %s | %d |\n", h.Number, h.Type, ref, h.BitLength)
		}
	}

	order := codec.PlaybackOrder(md, codec.PlaybackFastForward)
	fmt.Fprintf(out, "\n%s: %d\n", l10n.T("Frames shown in fast-forward"), len(order))
	return nil
}
