// Package config reads lessfeed's environment configuration and builds the
// content source and analytics sink it describes.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/julianstephens/lessfeed/internal/analytics"
	"github.com/julianstephens/lessfeed/internal/content"
	"github.com/julianstephens/lessfeed/internal/keyring"
	"github.com/julianstephens/lessfeed/internal/logger"
	"github.com/julianstephens/lessfeed/internal/models"
)

const (
	EnvSupabaseURL  = "LESSFEED_SUPABASE_URL"
	EnvSupabaseKey  = "LESSFEED_SUPABASE_KEY"
	EnvContentFile  = "LESSFEED_CONTENT_FILE"
	EnvRedisAddr    = "LESSFEED_REDIS_ADDR"
	EnvRedisChannel = "LESSFEED_REDIS_CHANNEL"
	EnvDBConnection = "LESSFEED_DB_CONNECTION"
	EnvLang         = "LESSFEED_LANG"

	DefaultEnvFile = ".env"
)

// ErrNoContentSource is returned when neither a Supabase URL nor a content
// file is configured.
var ErrNoContentSource = errors.New("no content source configured: set " + EnvSupabaseURL + " or " + EnvContentFile)

var contentKeyFunc = keyring.GetContentKey

type Config struct {
	SupabaseURL  string
	SupabaseKey  string
	ContentFile  string
	RedisAddr    string
	RedisChannel string
	DBConnection string
	Lang         string
}

// Load reads envFile into the process environment (variables already set win)
// and returns the resulting configuration. A missing env file is not an error.
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
		logger.Debug("No env file found", "path", envFile)
	}
	return FromEnv(), nil
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() Config {
	return Config{
		SupabaseURL:  env(EnvSupabaseURL),
		SupabaseKey:  env(EnvSupabaseKey),
		ContentFile:  env(EnvContentFile),
		RedisAddr:    env(EnvRedisAddr),
		RedisChannel: env(EnvRedisChannel),
		DBConnection: env(EnvDBConnection),
		Lang:         env(EnvLang),
	}
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

// LangOverride returns the configured language, if any.
func (c Config) LangOverride() (models.Lang, bool) {
	if c.Lang == "" {
		return "", false
	}
	return models.LangFromCode(strings.ToLower(c.Lang)), true
}

// Backends holds the collaborators built from a Config.
type Backends struct {
	Source  content.Source
	Sink    analytics.Sink
	closers []func() error
}

// Close releases any connections the backends hold.
func (b *Backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open builds the content source and analytics sink. A content file takes
// precedence over Supabase. Analytics go to Redis when an address is set, to
// the Supabase RPC when Supabase is the content source, and to the log
// otherwise.
func (c Config) Open(ctx context.Context) (*Backends, error) {
	b := &Backends{}

	var supabase *content.SupabaseSource
	switch {
	case c.ContentFile != "":
		b.Source = content.NewFileSource(c.ContentFile)
	case c.SupabaseURL != "":
		key, err := c.supabaseKey()
		if err != nil {
			return nil, err
		}
		supabase, err = content.NewSupabaseSource(c.SupabaseURL, key)
		if err != nil {
			return nil, err
		}
		b.Source = supabase
	default:
		return nil, ErrNoContentSource
	}

	switch {
	case c.RedisAddr != "":
		sink, err := analytics.NewRedisSink(ctx, c.RedisAddr, c.RedisChannel)
		if err != nil {
			return nil, err
		}
		b.Sink = sink
		b.closers = append(b.closers, sink.Close)
	case supabase != nil:
		b.Sink = analytics.NewSupabaseSink(supabase)
	default:
		b.Sink = analytics.LogSink{}
	}

	return b, nil
}

// supabaseKey prefers the environment and falls back to the OS keyring.
func (c Config) supabaseKey() (string, error) {
	if c.SupabaseKey != "" {
		return c.SupabaseKey, nil
	}
	key, err := contentKeyFunc()
	if err != nil {
		return "", fmt.Errorf("%s is not set and no content key is stored in the keyring: %w", EnvSupabaseKey, err)
	}
	return key, nil
}
