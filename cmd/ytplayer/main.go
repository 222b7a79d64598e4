package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/pflag"

	"ytplayer.app/ytplayer/config"
	"ytplayer.app/ytplayer/httphandlers"
	"ytplayer.app/ytplayer/interactive"
	"ytplayer.app/ytplayer/player"
	"ytplayer.app/ytplayer/resources"
	"ytplayer.app/ytplayer/utils"
)

var (
	//go:embed version.txt
	version string

	errNoflag = errors.New("no flag used")

	ErrAddrInUse = errors.New("address already in use")
	ErrNoSource  = errors.New("one of -u, -i or -l is required")
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, errNoflag) {
			pflag.Usage()
			os.Exit(0)
		}

		check(err)
	}
}

func run() error {
	exitCTX, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	config.RegisterFlags(pflag.CommandLine)
	pflag.Parse()

	settingsPath, err := config.DefaultPath()
	if err != nil {
		return err
	}

	cfg, err := config.Load(pflag.CommandLine, settingsPath)
	if err != nil {
		return err
	}

	if err := checkflags(cfg); err != nil {
		return err
	}

	if err := saveSettings(cfg, settingsPath); err != nil {
		return err
	}

	baseLogger, closeLog, err := openLog(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	logger := componentLogger(baseLogger, "cmd")

	whereToListen, err := utils.ListenAddress(cfg.Listen)
	if err != nil {
		return err
	}

	if utils.HostPortIsAlive(whereToListen) {
		return pkgerrors.Wrap(ErrAddrInUse, whereToListen)
	}

	s := httphandlers.NewServer(whereToListen)
	s.Logger = componentLogger(baseLogger, "httphandlers")

	serverStarted := make(chan error)
	go s.StartServer(serverStarted)
	if err := <-serverStarted; err != nil {
		return err
	}
	defer s.StopServer()

	scr, err := interactive.InitTcellNewScreen()
	if err != nil {
		return err
	}

	playerVars, err := player.Options{
		Autoplay:    player.Flag(cfg.Autoplay),
		Controls:    player.Flag(cfg.Controls),
		PlaysInline: player.Flag(true),
		Origin:      strings.TrimSuffix(s.URL(), "/"),
	}.PlayerVars()
	if err != nil {
		return err
	}

	p := player.New(s, templateSource(cfg.Template, componentLogger(baseLogger, "resources")),
		player.WithDelegate(scr),
		player.WithPlayerVars(playerVars),
		player.WithCommandTimeout(cfg.Timeout),
		player.WithLogger(componentLogger(baseLogger, "player")),
		player.WithErrorObserver(func(err error) {
			logger.Warn().Err(err).Msg("player event dropped")
		}),
	)

	title, err := load(exitCTX, p, cfg)
	if err != nil {
		return err
	}

	if params, ok := p.LastParameters(); ok {
		logger.Debug().Strs("Keys", params.Keys()).Msg("player loaded")
	}

	logger.Info().Str("URL", s.URL()).Msg("player page ready")
	if !cfg.NoBrowser {
		if err := open.Run(s.URL()); err != nil {
			logger.Error().Err(err).Msg("failed to open browser")
			fmt.Fprintf(os.Stderr, "Open %s in your browser.\n", s.URL())
		}
	}

	return scr.InterInit(exitCTX, p, title)
}

func check(err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Encountered error(s): %s\n", err)
		os.Exit(1)
	}
}

func load(ctx context.Context, p *player.Player, cfg *config.Config) (string, error) {
	switch {
	case cfg.URL != "":
		u, err := url.Parse(cfg.URL)
		if err != nil {
			return "", pkgerrors.Wrap(err, "load url parse error")
		}
		return cfg.URL, p.LoadVideoURL(ctx, u)
	case cfg.ListID != "":
		return "Playlist " + cfg.ListID, p.LoadPlaylistID(ctx, cfg.ListID)
	default:
		return cfg.VideoID, p.LoadVideoID(ctx, cfg.VideoID)
	}
}

func templateSource(tmpl string, logger zerolog.Logger) resources.Source {
	switch {
	case tmpl == "":
		return resources.Embedded()
	case strings.HasPrefix(tmpl, "http://"), strings.HasPrefix(tmpl, "https://"):
		return resources.Remote(tmpl, resources.WithLogger(logger))
	default:
		return resources.File(tmpl)
	}
}

// openLog returns the root logger at the configured level. Without a log
// file everything is discarded.
func openLog(cfg *config.Config) (zerolog.Logger, func(), error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Nop(), nil, pkgerrors.Wrap(err, "openLog level error")
	}

	if cfg.LogFile == "" {
		return zerolog.New(io.Discard).Level(level), func() {}, nil
	}

	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, pkgerrors.Wrap(err, "openLog file error")
	}

	return zerolog.New(f).Level(level), func() { f.Close() }, nil
}

func componentLogger(base zerolog.Logger, component string) zerolog.Logger {
	return base.With().Timestamp().Str("Component", component).Logger()
}

// saveSettings stores the resolved settings when --save was given.
func saveSettings(cfg *config.Config, path string) error {
	if !cfg.SaveSettings {
		return nil
	}

	if err := cfg.Save(path); err != nil {
		return pkgerrors.Wrap(err, "saveSettings error")
	}

	fmt.Fprintf(os.Stderr, "Settings saved to %s\n", path)
	return nil
}

func checkflags(cfg *config.Config) error {
	checkVerflag(cfg)

	if err := cfg.Validate(); err != nil {
		return pkgerrors.Wrap(err, "checkflags error")
	}

	if err := checkSourceflag(cfg); err != nil {
		return pkgerrors.Wrap(err, "checkflags error")
	}

	if err := checkTemplateflag(cfg); err != nil {
		return pkgerrors.Wrap(err, "checkflags error")
	}

	return nil
}

func checkSourceflag(cfg *config.Config) error {
	if cfg.URL == "" && cfg.VideoID == "" && cfg.ListID == "" {
		if pflag.NFlag() == 0 {
			return errNoflag
		}
		return ErrNoSource
	}

	if cfg.URL != "" {
		u, err := url.Parse(cfg.URL)
		if err != nil {
			return pkgerrors.Wrap(err, "checkSourceflag parse error")
		}

		if _, ok := utils.VideoIDFromURL(u); !ok {
			return pkgerrors.Wrap(player.ErrNoVideoID, "checkSourceflag")
		}
	}

	return nil
}

func checkTemplateflag(cfg *config.Config) error {
	if cfg.Template == "" || strings.HasPrefix(cfg.Template, "http://") || strings.HasPrefix(cfg.Template, "https://") {
		return nil
	}

	if _, err := os.Stat(cfg.Template); err != nil {
		return pkgerrors.Wrap(err, "checkTemplateflag error")
	}

	return nil
}

func checkVerflag(cfg *config.Config) {
	if cfg.Version {
		fmt.Printf("ytplayer Version: %s", version)
		os.Exit(0)
	}
}
