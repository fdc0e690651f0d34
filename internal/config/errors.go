package config

import "errors"

var (
	// ErrNoRootURL is returned when no root URL is provided
	ErrNoRootURL = errors.New("no root URL provided")
	// ErrInvalidRootURL is returned when the root URL is not an absolute http(s) URL
	ErrInvalidRootURL = errors.New("root_url must be an absolute http or https URL")
	// ErrInvalidConcurrency is returned when concurrency is not greater than 0
	ErrInvalidConcurrency = errors.New("concurrency must be greater than 0")
	// ErrInvalidTimeout is returned when request timeout is not greater than 0
	ErrInvalidTimeout = errors.New("request_timeout must be greater than 0")
	// ErrInvalidCrawlTimeout is returned when the crawl deadline is negative
	ErrInvalidCrawlTimeout = errors.New("crawl_timeout cannot be negative")
	// ErrUnknownExtractor is returned for an extractor other than scan or dom
	ErrUnknownExtractor = errors.New("extractor must be 'scan' or 'dom'")
	// ErrUnknownFormat is returned for an unsupported output format
	ErrUnknownFormat = errors.New("output_format must be one of text, table, json, yaml")
	// ErrInvalidHeader is returned when a header is not in 'Name: Value' form
	ErrInvalidHeader = errors.New("headers must be in 'Name: Value' format")
)
