// Package config merges command line flags, YTPLAYER_* environment
// variables and the settings file into a validated Config.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	shorthand    string
	defaultValue T
	usage        string
}

var (
	videoURL = configVar[string]{
		envKey:    "YTPLAYER_URL",
		flagKey:   "url",
		shorthand: "u",
		usage:     "YouTube video URL to play.",
	}
	videoID = configVar[string]{
		envKey:    "YTPLAYER_ID",
		flagKey:   "id",
		shorthand: "i",
		usage:     "YouTube video ID to play.",
	}
	listID = configVar[string]{
		envKey:    "YTPLAYER_LIST",
		flagKey:   "list",
		shorthand: "l",
		usage:     "YouTube playlist ID to play.",
	}
	listen = configVar[string]{
		envKey:       "YTPLAYER_LISTEN",
		flagKey:      "listen",
		defaultValue: "127.0.0.1:3500",
		usage:        "Address the player page is served on. Port 0 picks a free port.",
	}
	template = configVar[string]{
		envKey:  "YTPLAYER_TEMPLATE",
		flagKey: "template",
		usage:   "Player page template, a file path or an http(s) URL. Empty uses the bundled one.",
	}
	timeout = configVar[time.Duration]{
		envKey:       "YTPLAYER_TIMEOUT",
		flagKey:      "timeout",
		defaultValue: 5 * time.Second,
		usage:        "Timeout of a single player command.",
	}
	autoplay = configVar[bool]{
		envKey:       "YTPLAYER_AUTOPLAY",
		flagKey:      "autoplay",
		defaultValue: true,
		usage:        "Start playback as soon as the player is ready.",
	}
	controls = configVar[bool]{
		envKey:       "YTPLAYER_CONTROLS",
		flagKey:      "controls",
		defaultValue: true,
		usage:        "Show the player controls.",
	}
	noBrowser = configVar[bool]{
		envKey:  "YTPLAYER_NO_BROWSER",
		flagKey: "no-browser",
		usage:   "Do not open the player page in the default browser.",
	}
	logFile = configVar[string]{
		envKey:  "YTPLAYER_LOG_FILE",
		flagKey: "log-file",
		usage:   "Write logs to this file.",
	}
	logLevel = configVar[string]{
		envKey:       "YTPLAYER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "info",
		usage:        "Logging level (trace, debug, info, warn, error, disabled).",
	}
	saveSettings = configVar[bool]{
		flagKey: "save",
		usage:   "Store listen, template, timeout, autoplay, controls and log level in the settings file.",
	}
	version = configVar[bool]{
		flagKey: "version",
		usage:   "Print version.",
	}
)

// Config is the resolved runtime configuration.
type Config struct {
	URL       string        `flag:"url" validate:"omitempty,url,excluded_with=VideoID ListID"`
	VideoID   string        `flag:"id" validate:"omitempty,excluded_with=ListID,excludesall=/?&#"`
	ListID    string        `flag:"list" validate:"omitempty,excludesall=/?&#"`
	Listen    string        `flag:"listen" validate:"required,listen_addr"`
	Template  string        `flag:"template"`
	Timeout   time.Duration `flag:"timeout" validate:"min=100ms,max=1m"`
	Autoplay  bool          `flag:"autoplay"`
	Controls  bool          `flag:"controls"`
	NoBrowser bool          `flag:"no-browser"`
	LogFile   string        `flag:"log-file"`
	LogLevel  string        `flag:"log-level" validate:"oneof=trace debug info warn error disabled"`
	Version   bool          `flag:"version"`

	SaveSettings bool `flag:"save"`
}

// settings is the persisted subset of Config.
type settings struct {
	Listen   string `json:"listen"`
	Template string `json:"template,omitempty"`
	Timeout  string `json:"timeout"`
	Autoplay bool   `json:"autoplay"`
	Controls bool   `json:"controls"`
	LogLevel string `json:"log-level"`
}

// RegisterFlags defines every configuration flag on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP(videoURL.flagKey, videoURL.shorthand, videoURL.defaultValue, videoURL.usage)
	fs.StringP(videoID.flagKey, videoID.shorthand, videoID.defaultValue, videoID.usage)
	fs.StringP(listID.flagKey, listID.shorthand, listID.defaultValue, listID.usage)
	fs.String(listen.flagKey, listen.defaultValue, listen.usage)
	fs.String(template.flagKey, template.defaultValue, template.usage)
	fs.Duration(timeout.flagKey, timeout.defaultValue, timeout.usage)
	fs.Bool(autoplay.flagKey, autoplay.defaultValue, autoplay.usage)
	fs.Bool(controls.flagKey, controls.defaultValue, controls.usage)
	fs.Bool(noBrowser.flagKey, noBrowser.defaultValue, noBrowser.usage)
	fs.String(logFile.flagKey, logFile.defaultValue, logFile.usage)
	fs.String(logLevel.flagKey, logLevel.defaultValue, logLevel.usage)
	fs.Bool(saveSettings.flagKey, saveSettings.defaultValue, saveSettings.usage)
	fs.Bool(version.flagKey, version.defaultValue, version.usage)
}

// DefaultPath is the settings file location, settings.json under the
// user configuration directory.
func DefaultPath() (string, error) {
	oscfg, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("DefaultPath: failed to get config dir: %w", err)
	}

	return filepath.Join(oscfg, "ytplayer", "settings.json"), nil
}

// Load resolves the configuration. Flags set on the command line win over
// the environment, the environment over the settings file at path, and
// the settings file over the defaults. A missing settings file is not an
// error. The result is not validated.
func Load(flags *pflag.FlagSet, path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
				return nil, fmt.Errorf("Load: failed to read %s: %w", path, err)
			}
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("Load: failed to bind flags: %w", err)
		}
	}

	bindEnv(v, videoURL, videoID, listID, listen, template, logFile, logLevel)
	bindEnv(v, timeout)
	bindEnv(v, autoplay, controls, noBrowser)

	setDefaults(v, videoURL, videoID, listID, listen, template, logFile, logLevel)
	setDefaults(v, timeout)
	setDefaults(v, autoplay, controls, noBrowser, saveSettings, version)

	return &Config{
		URL:       v.GetString(videoURL.flagKey),
		VideoID:   v.GetString(videoID.flagKey),
		ListID:    v.GetString(listID.flagKey),
		Listen:    v.GetString(listen.flagKey),
		Template:  v.GetString(template.flagKey),
		Timeout:   v.GetDuration(timeout.flagKey),
		Autoplay:  v.GetBool(autoplay.flagKey),
		Controls:  v.GetBool(controls.flagKey),
		NoBrowser: v.GetBool(noBrowser.flagKey),
		LogFile:   v.GetString(logFile.flagKey),
		LogLevel:  strings.ToLower(v.GetString(logLevel.flagKey)),
		Version:   v.GetBool(version.flagKey),

		SaveSettings: v.GetBool(saveSettings.flagKey),
	}, nil
}

func bindEnv[T any](v *viper.Viper, vars ...configVar[T]) {
	for _, cv := range vars {
		if cv.envKey == "" {
			continue
		}
		_ = v.BindEnv(cv.flagKey, cv.envKey)
	}
}

func setDefaults[T any](v *viper.Viper, vars ...configVar[T]) {
	for _, cv := range vars {
		v.SetDefault(cv.flagKey, cv.defaultValue)
	}
}

// Save writes the persisted part of c to path, creating the directory
// when needed.
func (c *Config) Save(path string) error {
	b, err := json.MarshalIndent(settings{
		Listen:   c.Listen,
		Template: c.Template,
		Timeout:  c.Timeout.String(),
		Autoplay: c.Autoplay,
		Controls: c.Controls,
		LogLevel: c.LogLevel,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("Save: failed to marshal json: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("Save: failed to create config dir: %w", err)
	}

	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("Save: failed to save config: %w", err)
	}

	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("flag")
	})
	_ = v.RegisterValidation("listen_addr", func(fl validator.FieldLevel) bool {
		_, port, err := net.SplitHostPort(fl.Field().String())
		if err != nil {
			return false
		}
		n, err := strconv.Atoi(port)
		return err == nil && n >= 0 && n <= 65535
	})

	return v
}

// Validate checks c and reports every invalid field by flag name.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		var message string
		switch fe.Tag() {
		case "required":
			message = fmt.Sprintf("--%s is required", fe.Field())
		case "min":
			message = fmt.Sprintf("--%s must be at least %s", fe.Field(), fe.Param())
		case "max":
			message = fmt.Sprintf("--%s must not exceed %s", fe.Field(), fe.Param())
		case "excluded_with":
			message = fmt.Sprintf("--%s can't be combined with another video source", fe.Field())
		case "listen_addr":
			message = fmt.Sprintf("--%s must be host:port", fe.Field())
		default:
			message = fmt.Sprintf("--%s is invalid (%s)", fe.Field(), fe.Tag())
		}
		msgs = append(msgs, message)
	}

	return errors.New(strings.Join(msgs, "; "))
}
