package core

import (
	"errors"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-yaml/yaml"
)

const DefaultListen = ":8080"

// Config is personagens base configuration
type Config struct {
	Server Server `yaml:"server" envPrefix:"PERSONAGENS_"`
}

type Server struct {
	Listen        string `yaml:"listen" env:"LISTEN"`
	Dsn           string `yaml:"dsn" env:"DSN"`
	RedisAddr     string `yaml:"redisAddr" env:"REDIS_ADDR"`
	RedisDB       int    `yaml:"redisDB" env:"REDIS_DB"`
	MemcachedAddr string `yaml:"memcachedAddr" env:"MEMCACHED_ADDR"`
	EnableTrace   bool   `yaml:"enableTrace" env:"ENABLE_TRACE"`
	TraceEndpoint string `yaml:"traceEndpoint" env:"TRACE_ENDPOINT"`
}

// Load reads the yaml file at path, then applies PERSONAGENS_* environment overrides.
// A missing file is not an error.
func (c *Config) Load(path string) error {
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		err = yaml.NewDecoder(f).Decode(c)
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
	case !os.IsNotExist(err):
		return err
	}

	if err := env.Parse(c); err != nil {
		return err
	}

	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}

	return nil
}
