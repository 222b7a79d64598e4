package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ytplayer.app/ytplayer/config"
	"ytplayer.app/ytplayer/player"
)

func TestCheckSourceflag(t *testing.T) {
	tt := []struct {
		name    string
		cfg     config.Config
		wantErr error
	}{
		{`id`, config.Config{VideoID: "abc"}, nil},
		{`list`, config.Config{ListID: "PL1"}, nil},
		{`short link`, config.Config{URL: "https://youtu.be/abc"}, nil},
		{`url without id`, config.Config{URL: "https://www.youtube.com/feed"}, player.ErrNoVideoID},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := checkSourceflag(&tc.cfg)
			if tc.wantErr == nil && err != nil {
				t.Fatalf("%s: unexpected error: %s", tc.name, err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("%s: got: %v, want: %v.", tc.name, err, tc.wantErr)
			}
		})
	}
}

func TestTemplateSource(t *testing.T) {
	tt := []struct {
		name  string
		input string
		want  string
	}{
		{`bundled`, ``, `resources.embeddedSource`},
		{`remote`, `https://example.com/player.html`, `resources.remoteSource`},
		{`file`, `/tmp/player.html`, `resources.fileSource`},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			if got := typeName(templateSource(tc.input, zerolog.Nop())); got != tc.want {
				t.Fatalf("%s: got: %s, want: %s.", tc.name, got, tc.want)
			}
		})
	}
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}

func TestOpenLogKeepsGlobalLevel(t *testing.T) {
	before := zerolog.GlobalLevel()

	logger, closeLog, err := openLog(&config.Config{LogLevel: "warn"})
	if err != nil {
		t.Fatalf("openLog: %s", err)
	}
	defer closeLog()

	if logger.GetLevel() != zerolog.WarnLevel {
		t.Fatalf("level got: %s, want: warn.", logger.GetLevel())
	}
	if got := componentLogger(logger, "player").GetLevel(); got != zerolog.WarnLevel {
		t.Fatalf("component level got: %s, want: warn.", got)
	}
	if zerolog.GlobalLevel() != before {
		t.Fatalf("global level changed from %s to %s", before, zerolog.GlobalLevel())
	}

	if _, _, err := openLog(&config.Config{LogLevel: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestSaveSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ytplayer", "settings.json")

	cfg := &config.Config{Listen: "127.0.0.1:4300", Timeout: 2 * time.Second, LogLevel: "info"}
	if err := saveSettings(cfg, path); err != nil {
		t.Fatalf("saveSettings: %s", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("nothing should be written without --save, stat: %v", err)
	}

	cfg.SaveSettings = true
	if err := saveSettings(cfg, path); err != nil {
		t.Fatalf("saveSettings: %s", err)
	}

	got, err := config.Load(nil, path)
	if err != nil {
		t.Fatalf("Load: %s", err)
	}
	if got.Listen != "127.0.0.1:4300" || got.Timeout != 2*time.Second {
		t.Fatalf("got: %s %s, want: 127.0.0.1:4300 2s.", got.Listen, got.Timeout)
	}
}
