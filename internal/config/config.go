// Package config loads the application settings.
//
// Values are layered: flag defaults, then an optional YAML file, then
// WORDQUIZ_ environment variables, then flags set on the command line.
// Nested keys use "." in YAML and flags and "__" in environment variables,
// so WORDQUIZ_CONTENT__KIND sets content.kind.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "WORDQUIZ_"

// Config is the full application configuration.
type Config struct {
	DataDir string        `koanf:"data_dir" validate:"required"`
	Server  ServerConfig  `koanf:"server"`
	Storage StorageConfig `koanf:"storage"`
	Content ContentConfig `koanf:"content"`
	Auth    AuthConfig    `koanf:"auth"`
	Quiz    QuizConfig    `koanf:"quiz"`
	Log     LogConfig     `koanf:"log"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	SessionTTL      time.Duration `koanf:"session_ttl" validate:"gt=0"`
	SecureCookies   bool          `koanf:"secure_cookies"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gte=0"`
}

type StorageConfig struct {
	Driver string `koanf:"driver" validate:"oneof=sqlite postgres"`
	// DSN defaults to a sqlite file in the data directory.
	DSN string `koanf:"dsn"`
}

type ContentConfig struct {
	Kind            string        `koanf:"kind" validate:"oneof=http dir git"`
	Location        string        `koanf:"location" validate:"required"`
	Languages       []string      `koanf:"languages" validate:"min=1,dive,required"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	RefreshInterval time.Duration `koanf:"refresh_interval" validate:"gte=0"`
	Flashcards      string        `koanf:"flashcards" validate:"required"`
	Exercises       string        `koanf:"exercises" validate:"required"`
	Cloze           string        `koanf:"cloze" validate:"required"`
	Sentences       string        `koanf:"sentences" validate:"required"`
}

type AuthConfig struct {
	VerifyPasswords bool `koanf:"verify_passwords"`
}

type QuizConfig struct {
	// MasteryThreshold is the number of perfect sessions after which a word
	// is deactivated. Zero disables it.
	MasteryThreshold int `koanf:"mastery_threshold" validate:"gte=0"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// DefaultDataDir is the per-user data directory.
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, "wordquiz")
}

// Flags returns the command line flags, one per configuration key, with
// their defaults.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("wordquiz", pflag.ContinueOnError)
	fs.StringP("config", "c", "", "Path to a YAML configuration file")

	fs.String("data_dir", DefaultDataDir(), "Directory for the database and git checkouts")

	fs.String("server.addr", ":8080", "HTTP listen address")
	fs.Duration("server.session_ttl", 7*24*time.Hour, "Lifetime of a login session")
	fs.Bool("server.secure_cookies", false, "Mark session cookies as secure")
	fs.Duration("server.shutdown_timeout", 10*time.Second, "Graceful shutdown timeout")

	fs.String("storage.driver", "sqlite", "Database driver (sqlite or postgres)")
	fs.String("storage.dsn", "", "Database DSN")

	fs.String("content.kind", "dir", "Content source kind (http, dir or git)")
	fs.String("content.location", "content", "Base URL, directory or repository URL of the content")
	fs.StringSlice("content.languages", []string{"en", "fr"}, "Languages offered for practice")
	fs.Duration("content.timeout", 15*time.Second, "HTTP timeout for content downloads")
	fs.Duration("content.refresh_interval", 30*time.Minute, "Content refresh interval, 0 disables")
	fs.String("content.flashcards", "flashcards.txt", "Flashcard file name")
	fs.String("content.exercises", "exercises.txt", "Generated exercise file name")
	fs.String("content.cloze", "cloze.txt", "Cloze text file name")
	fs.String("content.sentences", "sentences.csv", "Sentence word list file name")

	fs.Bool("auth.verify_passwords", false, "Check passwords at login")
	fs.Int("quiz.mastery_threshold", 3, "Perfect sessions before a word is retired, 0 disables")

	fs.String("log.level", "info", "Log level (debug, info, warn, error)")
	fs.String("log.format", "text", "Log format (text or json)")
	return fs
}

// Load parses args and builds the configuration from every layer.
func Load(args []string) (*Config, error) {
	fs := Flags()
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}
	return load(fs)
}

func load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	path, _ := fs.GetString("config")
	if path == "" {
		path = os.Getenv(envPrefix + "CONFIG")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, envPrefix)), "__", ".")
		if key == "content.languages" {
			return key, strings.Split(value, ",")
		}
		return key, value
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// Unchanged flags only fill keys no other layer has set.
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Storage.DSN == "" && cfg.Storage.Driver == "sqlite" {
		cfg.Storage.DSN = filepath.Join(cfg.DataDir, "wordquiz.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return errors.New("invalid config: storage.dsn is required for postgres")
	}
	return nil
}
