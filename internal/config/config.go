// Package config provides configuration management for the link auditor.
// It defines configuration structures and default values for crawl parameters.
package config

import (
	"net/url"
	"strings"
	"time"
)

// Extractor kinds selectable at crawl start
const (
	ExtractorScan = "scan" // line-based href/src string scan
	ExtractorDOM  = "dom"  // parsed document, relative links resolved
)

// Output formats for the final report
const (
	FormatText  = "text"
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// CrawlConfig holds crawler configuration
type CrawlConfig struct {
	// Basic crawling parameters
	RootURL        string        `mapstructure:"root_url" yaml:"root_url"`               // Domain root; also the in-domain prefix
	Concurrency    int           `mapstructure:"concurrency" yaml:"concurrency"`         // Number of concurrent workers
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"` // Per-fetch timeout
	CrawlTimeout   time.Duration `mapstructure:"crawl_timeout" yaml:"crawl_timeout"`     // Overall deadline (0=none)
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`           // HTTP User-Agent header
	Headers        []string      `mapstructure:"headers" yaml:"headers"`                 // Extra headers in "Name: Value" form

	// Link discovery
	Extractor  string `mapstructure:"extractor" yaml:"extractor"`     // "scan" or "dom"
	StrictHost bool   `mapstructure:"strict_host" yaml:"strict_host"` // Also require an exact host match for in-domain links

	// Output
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"` // text, table, json, yaml
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"` // Optional SQLite export of the report

	// Logging
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogFile  string `mapstructure:"log_file" yaml:"log_file"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *CrawlConfig {
	return &CrawlConfig{
		Concurrency:    8,
		RequestTimeout: 15 * time.Second,
		CrawlTimeout:   0, // no deadline
		UserAgent:      "LinkAudit/1.0",
		Extractor:      ExtractorScan,
		OutputFormat:   FormatText,
		LogLevel:       "info",
	}
}

// Validate checks if the configuration is valid
func (c *CrawlConfig) Validate() error {
	if c.RootURL == "" {
		return ErrNoRootURL
	}
	u, err := url.Parse(c.RootURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidRootURL
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.CrawlTimeout < 0 {
		return ErrInvalidCrawlTimeout
	}

	switch c.Extractor {
	case ExtractorScan, ExtractorDOM:
	default:
		return ErrUnknownExtractor
	}

	switch c.OutputFormat {
	case FormatText, FormatTable, FormatJSON, FormatYAML:
	default:
		return ErrUnknownFormat
	}

	for _, h := range c.Headers {
		if _, _, ok := ParseHeader(h); !ok {
			return ErrInvalidHeader
		}
	}

	return nil
}

// ParseHeader splits a "Name: Value" header. ok is false when either side is empty.
func ParseHeader(header string) (name, value string, ok bool) {
	colonIndex := strings.Index(header, ":")
	if colonIndex <= 0 {
		return "", "", false
	}
	name = strings.TrimSpace(header[:colonIndex])
	value = strings.TrimSpace(header[colonIndex+1:])
	if name == "" || value == "" {
		return "", "", false
	}
	return name, value, true
}

// HeaderMap converts the configured headers into a map, skipping malformed entries
func (c *CrawlConfig) HeaderMap() map[string]string {
	headers := make(map[string]string, len(c.Headers))
	for _, h := range c.Headers {
		if name, value, ok := ParseHeader(h); ok {
			headers[name] = value
		}
	}
	return headers
}
