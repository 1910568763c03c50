package server

import (
	"fmt"

	"github.com/openmined/syftbox/internal/server/auth"
)

const DefaultAddr = "127.0.0.1:8080"

type Config struct {
	HTTP    HTTPConfig  `mapstructure:"http"`
	DataDir string      `mapstructure:"data_dir"`
	DBPath  string      `mapstructure:"db_path"`
	Auth    auth.Config `mapstructure:"auth"`
}

type HTTPConfig struct {
	Addr      string `mapstructure:"addr"`
	CertFile  string `mapstructure:"cert_file"`
	KeyFile   string `mapstructure:"key_file"`
	EnableTLS bool   `mapstructure:"enable_tls"`
}

func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = DefaultAddr
	}
	if c.DataDir == "" {
		return fmt.Errorf("server `data_dir` is required")
	}
	if c.DBPath == "" {
		c.DBPath = c.DataDir + "/state.db"
	}
	return c.Auth.Validate()
}
