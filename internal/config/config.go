// Package config provides configuration management.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"sales-enrich/internal/errors"
	"sales-enrich/internal/logging"
)

// Output backends understood by the storage adapter
const (
	BackendFile   = "file"
	BackendStdout = "stdout"
	BackendMemory = "memory"
	BackendGCS    = "gcs"
)

const (
	// DefaultBaseURL is the catalog endpoint all four request shapes hang off
	DefaultBaseURL = "https://dummyjson.com/products"

	// DefaultInputPath is where the sales records are read from
	DefaultInputPath = "data/sales_data.txt"

	// DefaultOutputPath is where the enriched report is written
	DefaultOutputPath = "data/enriched_sales_data.txt"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Catalog contains product API settings
	Catalog CatalogConfig `json:"catalog"`

	// Sales contains transaction source settings
	Sales SalesConfig `json:"sales"`

	// Output contains report sink settings
	Output OutputConfig `json:"output"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// CatalogConfig contains product API settings
type CatalogConfig struct {
	// BaseURL is the products endpoint
	BaseURL string `json:"base_url"`

	// Limit caps the number of products fetched; 0 fetches the API default page
	Limit int `json:"limit"`

	// UserAgent is sent with every request
	UserAgent string `json:"user_agent,omitempty"`
}

// SalesConfig contains transaction source settings
type SalesConfig struct {
	// InputPath is a pipe-delimited (.txt) or JSON (.json) transactions file
	InputPath string `json:"input_path"`
}

// OutputConfig contains report sink settings
type OutputConfig struct {
	// Backend is one of file, stdout, memory, gcs
	Backend string `json:"backend"`

	// Path is the report file for the file backend
	Path string `json:"path"`

	// Bucket and Object address the report for the gcs backend
	Bucket string `json:"bucket,omitempty"`
	Object string `json:"object,omitempty"`

	// Format is pipe (the fixed 12-column report) or json
	Format string `json:"format"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Catalog: CatalogConfig{
			BaseURL:   DefaultBaseURL,
			Limit:     0,
			UserAgent: "sales-enrich/0.1",
		},
		Sales: SalesConfig{
			InputPath: DefaultInputPath,
		},
		Output: OutputConfig{
			Backend: BackendFile,
			Path:    DefaultOutputPath,
			Format:  "pipe",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file.
// A missing file yields the defaults; .hcl files use HCL syntax, anything else JSON.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	config := Default()
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		if err := decodeHCL(path, data, config); err != nil {
			return nil, err
		}
	} else if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Catalog.BaseURL) == "" {
		return errors.Config("catalog.base_url must not be empty")
	}
	u, err := url.Parse(c.Catalog.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.Newf(errors.TypeConfig, "catalog.base_url is not an absolute URL: %q", c.Catalog.BaseURL)
	}
	if c.Catalog.Limit < 0 {
		return errors.Newf(errors.TypeConfig, "catalog.limit must be >= 0, got %d", c.Catalog.Limit)
	}

	switch c.Output.Backend {
	case BackendFile:
		if strings.TrimSpace(c.Output.Path) == "" {
			return errors.Config("output.path is required for the file backend")
		}
	case BackendGCS:
		if c.Output.Bucket == "" || c.Output.Object == "" {
			return errors.Config("output.bucket and output.object are required for the gcs backend")
		}
	case BackendStdout, BackendMemory:
	default:
		return errors.Newf(errors.TypeConfig, "unsupported output backend: %q", c.Output.Backend)
	}

	switch c.Output.Format {
	case "", "pipe", "json":
	default:
		return errors.Newf(errors.TypeConfig, "unsupported output format: %q", c.Output.Format)
	}
	return nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// hclFile mirrors Config with every block optional so partial files overlay the defaults.
type hclFile struct {
	Version string      `hcl:"version,optional"`
	Catalog *hclCatalog `hcl:"catalog,block"`
	Sales   *hclSales   `hcl:"sales,block"`
	Output  *hclOutput  `hcl:"output,block"`
	Logging *hclLogging `hcl:"logging,block"`
}

type hclCatalog struct {
	BaseURL   string `hcl:"base_url,optional"`
	Limit     *int   `hcl:"limit,optional"`
	UserAgent string `hcl:"user_agent,optional"`
}

type hclSales struct {
	InputPath string `hcl:"input_path,optional"`
}

type hclOutput struct {
	Backend string `hcl:"backend,optional"`
	Path    string `hcl:"path,optional"`
	Bucket  string `hcl:"bucket,optional"`
	Object  string `hcl:"object,optional"`
	Format  string `hcl:"format,optional"`
}

type hclLogging struct {
	Level       string `hcl:"level,optional"`
	Format      string `hcl:"format,optional"`
	Output      string `hcl:"output,optional"`
	Development *bool  `hcl:"development,optional"`
}

func decodeHCL(path string, data []byte, c *Config) error {
	var f hclFile
	if err := hclsimple.Decode(filepath.Base(path), data, nil, &f); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	if f.Version != "" {
		c.Version = f.Version
	}
	if f.Catalog != nil {
		overlay(&c.Catalog.BaseURL, f.Catalog.BaseURL)
		overlay(&c.Catalog.UserAgent, f.Catalog.UserAgent)
		if f.Catalog.Limit != nil {
			c.Catalog.Limit = *f.Catalog.Limit
		}
	}
	if f.Sales != nil {
		overlay(&c.Sales.InputPath, f.Sales.InputPath)
	}
	if f.Output != nil {
		overlay(&c.Output.Backend, f.Output.Backend)
		overlay(&c.Output.Path, f.Output.Path)
		overlay(&c.Output.Bucket, f.Output.Bucket)
		overlay(&c.Output.Object, f.Output.Object)
		overlay(&c.Output.Format, f.Output.Format)
	}
	if f.Logging != nil {
		overlay(&c.Logging.Level, f.Logging.Level)
		overlay(&c.Logging.Format, f.Logging.Format)
		overlay(&c.Logging.Output, f.Logging.Output)
		if f.Logging.Development != nil {
			c.Logging.Development = *f.Logging.Development
		}
	}
	return nil
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
