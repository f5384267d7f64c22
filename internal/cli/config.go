package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/scatter/pkg/cache"
	"github.com/matzehuels/scatter/pkg/schema"
	"github.com/matzehuels/scatter/pkg/store"
)

// defaultConfigFile is read from the working directory when --config is not
// given. A missing default file is not an error.
const defaultConfigFile = "scatter.toml"

// Cache backends.
const (
	backendFile  = "file"
	backendRedis = "redis"
	backendMongo = "mongo"
	backendNone  = "none"
)

// Config is the scatter.toml file.
//
//	schema = "schema.yaml"
//	id_generator = "ulid"
//
//	[cache]
//	backend = "redis"
//	prefix = "prod:"
//
//	[cache.redis]
//	addr = "localhost:6379"
type Config struct {
	// Schema is the declaration file, relative to the config file.
	Schema string `toml:"schema"`

	// IDGenerator is "default", "uuid" or "ulid".
	IDGenerator string `toml:"id_generator"`

	// StrictSubtypes disables aliasing nodes whose schema only extends the
	// declared one.
	StrictSubtypes bool `toml:"strict_subtypes"`

	Cache CacheConfig `toml:"cache"`
	Serve ServeConfig `toml:"serve"`

	dir string
}

// CacheConfig selects and configures the record cache.
type CacheConfig struct {
	Backend string `toml:"backend"`

	// Dir overrides the file cache directory.
	Dir string `toml:"dir"`

	// Prefix scopes every key, so several projects can share a backend.
	Prefix string `toml:"prefix"`

	Redis RedisConfig `toml:"redis"`
	Mongo MongoConfig `toml:"mongo"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServeConfig configures "scatter serve".
type ServeConfig struct {
	Addr string `toml:"addr"`
}

func defaultConfig() *Config {
	return &Config{
		IDGenerator: "default",
		Cache: CacheConfig{
			Backend: backendFile,
			Redis:   RedisConfig{Addr: "localhost:6379"},
			Mongo:   MongoConfig{URI: "mongodb://localhost:27017"},
		},
		Serve: ServeConfig{Addr: ":8080"},
		dir:   ".",
	}
}

// loadConfig reads path over the defaults. An empty path tries
// defaultConfigFile and silently falls back to the defaults.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parse config %s: unknown key %q", path, undecoded[0].String())
	}
	cfg.dir = filepath.Dir(path)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if _, err := c.idGenerator(); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case backendFile, backendRedis, backendMongo, backendNone:
		return nil
	}
	return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
}

// SchemaPath resolves Schema relative to the config file.
func (c *Config) SchemaPath() string {
	if c.Schema == "" || filepath.IsAbs(c.Schema) {
		return c.Schema
	}
	return filepath.Join(c.dir, c.Schema)
}

func (c *Config) idGenerator() (store.IDGenerator, error) {
	switch c.IDGenerator {
	case "", "default":
		return nil, nil
	case "uuid":
		return store.UUIDGenerator, nil
	case "ulid":
		return store.ULIDGenerator, nil
	}
	return nil, fmt.Errorf("unknown id generator %q", c.IDGenerator)
}

// registry loads the schema file, or returns an empty registry when none is
// configured so that untyped dumps still load.
func (c *Config) registry() (*schema.Registry, error) {
	path := c.SchemaPath()
	if path == "" {
		return schema.Resolve(nil)
	}
	return schema.LoadRegistry(path)
}

// newStore builds an empty store from the configuration.
func (c *CLI) newStore() (*store.Store, error) {
	reg, err := c.Config.registry()
	if err != nil {
		return nil, err
	}
	gen, err := c.Config.idGenerator()
	if err != nil {
		return nil, err
	}
	return store.New(store.Options{
		Registry:              reg,
		IDGenerator:           gen,
		DisallowSubTypeAssign: c.Config.StrictSubtypes,
		Logger:                c.Logger,
	})
}

// newCache opens the configured backend wrapped with cache hooks.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.Config.Cache
	if noCache {
		cfg.Backend = backendNone
	}

	var (
		backend cache.Cache
		err     error
	)
	switch cfg.Backend {
	case backendNone:
		backend = cache.NewNullCache()
	case backendRedis:
		backend, err = cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	case backendMongo:
		backend, err = cache.NewMongoCache(ctx, cache.MongoOptions{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		})
	default:
		dir := cfg.Dir
		if dir == "" {
			if dir, err = cacheDir(); err != nil {
				c.Logger.Warn("no cache directory, caching disabled", "error", err)
				return cache.NewNullCache(), nil
			}
		}
		backend, err = cache.NewFileCache(dir)
	}
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("cache opened", "backend", cfg.Backend)
	return cache.Observed(backend), nil
}

// keyer scopes cache keys with the configured prefix.
func (c *CLI) keyer() cache.Keyer {
	if c.Config.Cache.Prefix == "" {
		return cache.NewDefaultKeyer()
	}
	return cache.NewScopedKeyer(nil, c.Config.Cache.Prefix)
}
