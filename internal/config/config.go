package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

type Server struct {
	Port              string `json:"port"`
	RequestTimeoutSec int    `json:"request_timeout_sec"`
}

// API is the ByteFinance backend the session manager talks to.
type API struct {
	BaseURL    string `json:"base_url"`
	TimeoutSec int    `json:"timeout_sec"`
}

// Session holds durable client storage settings.
type Session struct {
	StorePath string `json:"store_path"`
}

type IEX struct {
	Enabled  bool   `json:"enabled"`
	APIKey   string `json:"api_key"`
	Endpoint string `json:"endpoint"`
}

type Finnhub struct {
	Enabled  bool   `json:"enabled"`
	APIKey   string `json:"api_key"`
	Endpoint string `json:"endpoint"`
}

type AlphaVantage struct {
	Enabled               bool   `json:"enabled"`
	APIKey                string `json:"api_key"`
	Endpoint              string `json:"endpoint"`
	MinRequestIntervalSec int    `json:"min_request_interval_sec"`
}

type Config struct {
	Server       Server       `json:"server"`
	API          API          `json:"api"`
	Session      Session      `json:"session"`
	IEX          IEX          `json:"iex"`
	Finnhub      Finnhub      `json:"finnhub"`
	AlphaVantage AlphaVantage `json:"alphavantage"`
}

func Default() Config {
	return Config{
		Server: Server{Port: "8080", RequestTimeoutSec: 10},
		API:    API{BaseURL: "http://127.0.0.1:8000/api", TimeoutSec: 15},
		Session: Session{
			StorePath: defaultStorePath(),
		},
		IEX: IEX{
			Enabled:  true,
			Endpoint: "https://cloud.iexapis.com/stable",
		},
		Finnhub: Finnhub{
			Enabled:  true,
			Endpoint: "https://finnhub.io/api/v1",
		},
		AlphaVantage: AlphaVantage{
			Enabled:  true,
			Endpoint: "https://www.alphavantage.co/query",
			// free tier allows 5 requests per minute
			MinRequestIntervalSec: 12,
		},
	}
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "bytefinance.db"
	}
	return filepath.Join(dir, "bytefinance", "session.db")
}

// Load reads JSON config from path. If path is empty or file does not exist,
// it returns defaults. Environment variables override select fields for secrecy.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.Server.RequestTimeoutSec = x
		}
	}
	if v := os.Getenv("BYTEFINANCE_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("BYTEFINANCE_API_TIMEOUT_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x > 0 {
			cfg.API.TimeoutSec = x
		}
	}
	if v := os.Getenv("BYTEFINANCE_SESSION_STORE"); v != "" {
		cfg.Session.StorePath = v
	}
	if v := os.Getenv("IEX_API_KEY"); v != "" {
		cfg.IEX.APIKey = v
	}
	if v := os.Getenv("IEX_ENDPOINT"); v != "" {
		cfg.IEX.Endpoint = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		cfg.Finnhub.APIKey = v
	}
	if v := os.Getenv("FINNHUB_ENDPOINT"); v != "" {
		cfg.Finnhub.Endpoint = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		cfg.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_ENDPOINT"); v != "" {
		cfg.AlphaVantage.Endpoint = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_MIN_INTERVAL_SEC"); v != "" {
		var x int
		fmt.Sscanf(v, "%d", &x)
		if x >= 0 {
			cfg.AlphaVantage.MinRequestIntervalSec = x
		}
	}
}
