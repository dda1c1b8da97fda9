package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/menta2k/avatarcrop"
	"github.com/menta2k/avatarcrop/internal/config"
	"github.com/menta2k/avatarcrop/internal/script"
	"github.com/menta2k/avatarcrop/internal/server"
	"github.com/menta2k/avatarcrop/internal/utils"
	"github.com/menta2k/avatarcrop/pkg/analyzer"
	"github.com/menta2k/avatarcrop/pkg/cropper"
	"github.com/menta2k/avatarcrop/pkg/imagestore"
	"github.com/menta2k/avatarcrop/pkg/processing"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func run() error {
	var args cliArgs
	cliCtx := kong.Parse(
		&args,
		kong.Name("avatar-crop"),
		kong.Description("Circular avatar cropping with pan and pinch gestures"),
		kong.UsageOnError(),
		kong.Vars{"version": avatarcrop.GetVersion()},
	)
	return cliCtx.Run(&args.Globals)
}

type Globals struct {
	Config  string           `help:"Path to a YAML config file" type:"path"`
	Verbose bool             `help:"Enable verbose logging" short:"v"`
	Version kong.VersionFlag `help:"Print version and exit"`
}

type cliArgs struct {
	Globals

	Crop  cropCmd  `cmd:"" help:"Replay a gesture script against an image and write the crop"`
	Serve serveCmd `cmd:"" help:"Serve a crop screen for an image over HTTP"`
}

// setup loads configuration and installs the logger
func (g *Globals) setup() (*config.Config, context.Context, context.CancelFunc, error) {
	cfg := config.Default()
	if g.Config != "" {
		loaded, err := config.LoadFromFile(g.Config)
		if err != nil {
			return nil, nil, nil, err
		}
		cfg = loaded
	} else if utils.FileExists(config.GetConfigPath()) {
		loaded, err := config.LoadFromFile(config.GetConfigPath())
		if err != nil {
			return nil, nil, nil, err
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	level, _ := zerolog.ParseLevel(cfg.Log.Level)
	if g.Verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Output(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).Level(level)
	zerolog.DefaultContextLogger = &log.Logger

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	return cfg, log.Logger.WithContext(ctx), cancel, nil
}

// prepare inspects the source image and builds the crop pipeline
func prepare(cfg *config.Config, imagePath string) (analyzer.ImageInfo, *cropper.Resolver, error) {
	if !utils.IsImageFile(imagePath) {
		return analyzer.ImageInfo{}, nil, fmt.Errorf("%s is not a supported image file", imagePath)
	}

	inspector := analyzer.NewWithConfig(analyzer.Config{
		SupportedFormats: []string{"jpeg", "png", "webp"},
		MinImageSize:     cfg.Crop.MinImageSize,
	})
	info, err := inspector.Inspect(imagePath)
	if err != nil {
		return analyzer.ImageInfo{}, nil, err
	}
	if err := inspector.ValidateInfo(info); err != nil {
		return analyzer.ImageInfo{}, nil, err
	}

	store, err := imagestore.New(cfg.Store.Kind, cfg.Store.Dir, cfg.Encoder())
	if err != nil {
		return analyzer.ImageInfo{}, nil, err
	}
	resolver := cropper.NewResolver(cropper.NewImagingEditor(processing.NewProcessor(), store), store)
	resolver.SetDisplaySize(cfg.DisplaySize())
	return info, resolver, nil
}

type cropCmd struct {
	Image  string `arg:"" help:"Source image (jpg, png, webp)" type:"existingfile"`
	Script string `help:"YAML gesture script" type:"existingfile" required:""`
	Out    string `help:"Write the decoded crop to this file instead of printing base64" type:"path"`
}

func (cmd *cropCmd) Run(g *Globals) error {
	cfg, ctx, cancel, err := g.setup()
	if err != nil {
		return err
	}
	defer cancel()

	info, resolver, err := prepare(cfg, cmd.Image)
	if err != nil {
		return err
	}
	gestures, err := script.Load(cmd.Script)
	if err != nil {
		return err
	}

	var result string
	var cropErr error
	screen := avatarcrop.NewWithLimits(ctx, avatarcrop.Props{
		Image:     cmd.Image,
		ImgWidth:  float64(info.Width),
		ImgHeight: float64(info.Height),
		Save:      func(encoded string) { result = encoded },
		OnError:   func(err error) { cropErr = err },
	}, resolver, cfg.Crop.Limits)
	defer screen.Close()

	gestures.Replay(screen)
	committed := screen.Committed()
	log.Ctx(ctx).Info().
		Float64("scale", committed.Scale).
		Float64("x", committed.Offset.X).
		Float64("y", committed.Offset.Y).
		Msg("gestures replayed")

	if err := screen.Confirm(); err != nil {
		return err
	}
	if err := screen.Wait(); err != nil {
		return err
	}
	if cropErr != nil {
		return cropErr
	}

	if cmd.Out == "" {
		_, err := fmt.Fprintln(os.Stdout, result)
		return err
	}
	if err := writeCrop(cfg.Encoder(), result, cmd.Out); err != nil {
		return err
	}
	log.Ctx(ctx).Info().Str("path", cmd.Out).Msg("wrote crop")
	return nil
}

// writeCrop stores an encoded crop at path. The bytes are written untouched
// when the extension already names the encoder's format.
func writeCrop(enc processing.Encoder, encoded, path string) error {
	ext := utils.GetFileExtension(path)
	if ext == "jpeg" {
		ext = processing.FormatJPEG
	}

	if ext == enc.Extension() {
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return fmt.Errorf("failed to decode crop: %w", err)
		}
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			return fmt.Errorf("failed to save %s: %w", path, err)
		}
		return nil
	}

	img, err := processing.DecodeBase64(encoded)
	if err != nil {
		return err
	}
	if err := processing.NewProcessor().SaveImage(img, path, ext, enc.Quality, enc.Lossless); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

type serveCmd struct {
	Image  string `arg:"" help:"Source image (jpg, png, webp)" type:"existingfile"`
	Listen string `help:"Listen address, overrides the config file"`
}

func (cmd *serveCmd) Run(g *Globals) error {
	cfg, ctx, cancel, err := g.setup()
	if err != nil {
		return err
	}
	defer cancel()

	info, resolver, err := prepare(cfg, cmd.Image)
	if err != nil {
		return err
	}

	addr := cfg.Server.ListenAddr
	if cmd.Listen != "" {
		addr = cmd.Listen
	}

	app := server.New(ctx, server.Config{
		ListenAddr: addr,
		ImagePath:  cmd.Image,
		ImgWidth:   info.Width,
		ImgHeight:  info.Height,
		Limits:     cfg.Crop.Limits,
		Resolver:   resolver,
		OnReady: func(addr string) {
			log.Ctx(ctx).Info().Msgf("Server started at %s", addr)
		},
		OnSave: func(encoded string) {
			log.Ctx(ctx).Info().Int("bytes", len(encoded)).Msg("crop saved")
		},
		OnRetake: func() {
			log.Ctx(ctx).Info().Msg("retake requested, shutting down")
			cancel()
		},
	})

	return app.Run(ctx)
}
