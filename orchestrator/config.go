// Copyright 2025 TripWise
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package orchestrator

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the service configuration. Values load from an optional YAML
// file; environment variables override file values.
type Config struct {
	Server struct {
		Port         string   `yaml:"port"`
		CORSOrigins  []string `yaml:"cors_origins"`
		ReadTimeout  int      `yaml:"read_timeout_seconds"`
		WriteTimeout int      `yaml:"write_timeout_seconds"`
	} `yaml:"server"`

	LLM struct {
		GroqAPIKey string `yaml:"groq_api_key"`
		GroqModel  string `yaml:"groq_model"`
	} `yaml:"llm"`

	SMTP struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		From     string `yaml:"from"`
		Password string `yaml:"password"`
	} `yaml:"smtp"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Server.CORSOrigins = []string{"*"}
	cfg.Server.ReadTimeout = 30
	cfg.Server.WriteTimeout = 120
	cfg.SMTP.Port = "587"
	return cfg
}

// LoadConfig reads the YAML file at path (skipped when path is empty or the
// file does not exist) and applies environment overrides on top.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("GROQ_API_KEY"); v != "" {
		cfg.LLM.GroqAPIKey = v
	}
	if v := os.Getenv("GROQ_MODEL"); v != "" {
		cfg.LLM.GroqModel = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		cfg.SMTP.Port = v
	}
	if v := os.Getenv("SMTP_FROM"); v != "" {
		cfg.SMTP.From = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.SMTP.Password = v
	}
}
