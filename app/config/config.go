package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	defaultConfigPath = "./config/config.json"
)

// Duration reads a time.Duration from a JSON string such as "5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	value := ""
	if err := json.Unmarshal(b, &value); err != nil {
		return err
	}

	var err error
	if d.Duration, err = time.ParseDuration(value); err != nil {
		return err
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

type Config struct {
	Env    string `json:"env"`
	HTTP   HTTP   `json:"http"`
	API    API    `json:"api"`
	State  State  `json:"state"`
	Flash  Flash  `json:"flash"`
	Cookie Cookie `json:"cookie"`
}

type HTTP struct {
	Addr string `json:"addr"`
}

// API locates the blog API. A zero timeout means no timeout.
type API struct {
	BaseURL string   `json:"base_url"`
	Timeout Duration `json:"timeout"`
}

// State is where per-browser view state lives.
type State struct {
	Path     string `json:"path"`
	InMemory bool   `json:"in_memory"`
}

type Flash struct {
	TTL Duration `json:"ttl"`
}

type Cookie struct {
	Name string `json:"name"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Env:    EnvLocal,
		HTTP:   HTTP{Addr: ":8080"},
		API:    API{BaseURL: "http://localhost:3000"},
		State:  State{Path: "data/badger"},
		Flash:  Flash{TTL: Duration{5 * time.Second}},
		Cookie: Cookie{Name: "blogdesk_session"},
	}
}

// MustLoad is wrapper of Load to panic if error occurred
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic("failed to load config file: " + err.Error())
	}
	return cfg
}

// Load reads the JSON file at path over the defaults. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := json.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("unknown env %q", c.Env)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if !c.State.InMemory && c.State.Path == "" {
		return fmt.Errorf("state.path is required unless state.in_memory is set")
	}
	return nil
}

// FetchPath fetches config path from either flag 'config' or environment variable.
// If both are empty default value will be returned
// flag > env > default
func FetchPath(args []string) (string, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	res := fs.String("config", "", "path to config file")
	if err := fs.Parse(args); err != nil {
		return "", err
	}

	if *res != "" {
		return *res, nil
	}

	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env, nil
	}

	return defaultConfigPath, nil
}
