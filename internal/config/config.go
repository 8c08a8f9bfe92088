// Package config loads the YAML configuration shared by the ocrsynth
// commands and the environment configuration of the worker.
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gardar/ocrsynth/pkg/fonts"
	"github.com/gardar/ocrsynth/pkg/gdocai"
	"github.com/gardar/ocrsynth/pkg/ocr"
	"github.com/gardar/ocrsynth/pkg/synth"
)

// FontsConfig lists the font files to load on top of the bundled Go fonts.
type FontsConfig struct {
	DefaultFamily string                       `yaml:"default_family"`
	Families      map[string]map[string]string `yaml:"families"` // family -> style name -> path
	Serif         []string                     `yaml:"serif"`    // families flagged as serif
	CJK           string                       `yaml:"cjk"`
}

// Config is the file format read by cmd/ocrsynth and cmd/gdocai.
type Config struct {
	synth.Options `yaml:",inline"`

	Fonts      FontsConfig       `yaml:"fonts"`
	FontMap    map[string]string `yaml:"font_map"` // hOCR x_font name -> family
	DocumentAI gdocai.Config     `yaml:"documentai"`
}

// Default returns a configuration with synth.DefaultOptions and the bundled
// fonts only.
func Default() *Config {
	return &Config{Options: synth.DefaultOptions()}
}

// Load reads a YAML configuration file. Keys missing from the file keep
// their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration data over Default.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: invalid YAML: %w", err)
	}
	if cfg.RotateText && cfg.RotateBackground {
		return nil, fmt.Errorf("config: %w", synth.ErrRotationConflict)
	}
	return cfg, nil
}

// Store builds the font store: the bundled fonts, then every configured
// family in sorted order, then the CJK font.
func (c *FontsConfig) Store() (*fonts.Store, error) {
	store, err := fonts.NewDefaultStore()
	if err != nil {
		return nil, err
	}
	serif := make(map[string]bool, len(c.Serif))
	for _, f := range c.Serif {
		serif[f] = true
	}

	families := make([]string, 0, len(c.Families))
	for family := range c.Families {
		families = append(families, family)
	}
	sort.Strings(families)
	for _, family := range families {
		for name, path := range c.Families[family] {
			style, err := ocr.ParseStyle(name)
			if err != nil {
				return nil, fmt.Errorf("config: family %q: %w", family, err)
			}
			if err := store.LoadFile(family, style, path, serif[family]); err != nil {
				return nil, err
			}
		}
	}
	if c.CJK != "" {
		if err := store.LoadCJKFile(c.CJK); err != nil {
			return nil, err
		}
	}
	if c.DefaultFamily != "" {
		store.SetDefaultFamily(c.DefaultFamily)
	}
	return store, nil
}

// FontFamily maps an hOCR font name through FontMap. Unmapped names pass
// through unchanged, so a family registered under the scanner's name works.
func (c *Config) FontFamily(xFont string) string {
	if family, ok := c.FontMap[xFont]; ok {
		return family
	}
	return xFont
}

// Worker holds the worker settings read from the environment.
type Worker struct {
	RedisAddr   string
	Concurrency int
	Queue       string
	Timeout     time.Duration
	ConfigPath  string // optional YAML file for fonts
}

// LoadWorker reads the worker settings from the environment.
func LoadWorker() (*Worker, error) {
	w := &Worker{
		RedisAddr:  getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		Queue:      getEnvOrDefault("WORKER_QUEUE", "default"),
		ConfigPath: os.Getenv("OCRSYNTH_CONFIG"),
	}
	var err error
	if w.Concurrency, err = getEnvAsIntOrDefault("WORKER_CONCURRENCY", 4); err != nil {
		return nil, err
	}
	if w.Concurrency < 1 {
		return nil, fmt.Errorf("config: WORKER_CONCURRENCY must be positive, got %d", w.Concurrency)
	}
	timeout, err := getEnvAsIntOrDefault("WORKER_TIMEOUT_SECONDS", 300)
	if err != nil {
		return nil, err
	}
	w.Timeout = time.Duration(timeout) * time.Second
	return w, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}
