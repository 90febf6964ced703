package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Duration accepts "10s" style strings in YAML and JSON, and plain numbers
// as seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	return d.parse(n.Value)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var secs float64
		if err := json.Unmarshal(b, &secs); err != nil {
			return fmt.Errorf("duration: %s", string(b))
		}
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	s = strings.TrimSpace(s)
	if v, err := time.ParseDuration(s); err == nil {
		*d = Duration(v)
		return nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	return fmt.Errorf("invalid duration %q", s)
}

// FileConfig is the configuration file schema. Pointer fields distinguish an
// omitted option from an explicit zero.
type FileConfig struct {
	ExcludeDomains     []string  `yaml:"exclude_domains" json:"exclude_domains"`
	ExcludeExtensions  []string  `yaml:"exclude_extensions" json:"exclude_extensions"`
	UseDefaultExcludes *bool     `yaml:"use_default_excludes" json:"use_default_excludes"`
	MaxURLs            *int      `yaml:"max_urls" json:"max_urls"`
	MinWords           *int      `yaml:"min_words" json:"min_words"`
	DedupPrefixWords   *int      `yaml:"dedup_prefix_words" json:"dedup_prefix_words"`
	FetchTimeout       *Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
	WorkerCount        *int      `yaml:"worker_count" json:"worker_count"`

	UserAgent     string `yaml:"user_agent" json:"user_agent"`
	CommentPrefix string `yaml:"comment_prefix" json:"comment_prefix"`
	UniqueURLs    *bool  `yaml:"unique_urls" json:"unique_urls"`
	Extractor     string `yaml:"extractor" json:"extractor"`
	Resume        *bool  `yaml:"resume" json:"resume"`
	Ledger        string `yaml:"ledger" json:"ledger"`
	Verbose       *bool  `yaml:"verbose" json:"verbose"`

	Cache struct {
		Dir         string    `yaml:"dir" json:"dir"`
		MaxAge      *Duration `yaml:"max_age" json:"max_age"`
		Clear       bool      `yaml:"clear" json:"clear"`
		StrictPerms bool      `yaml:"strict_perms" json:"strict_perms"`
	} `yaml:"cache" json:"cache"`
}

// LoadConfigFile reads YAML or JSON into FileConfig. Unknown options are
// rejected so typos do not silently fall back to defaults.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := decodeJSON(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := decodeYAML(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	}
	return fc, nil
}

func decodeYAML(b []byte, fc *FileConfig) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(fc); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func decodeJSON(b []byte, fc *FileConfig) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(fc)
}

// ApplyFileConfig overlays every option present in fc onto cfg. Flags are
// applied afterwards by the caller and therefore win.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if fc.ExcludeDomains != nil {
		cfg.ExcludeDomains = append([]string{}, fc.ExcludeDomains...)
	}
	if fc.ExcludeExtensions != nil {
		cfg.ExcludeExtensions = append([]string{}, fc.ExcludeExtensions...)
	}
	if fc.UseDefaultExcludes != nil {
		cfg.UseDefaultExcludes = *fc.UseDefaultExcludes
	}
	if fc.MaxURLs != nil {
		cfg.MaxURLs = *fc.MaxURLs
	}
	if fc.MinWords != nil {
		cfg.MinWords = *fc.MinWords
	}
	if fc.DedupPrefixWords != nil {
		cfg.DedupPrefixWords = *fc.DedupPrefixWords
	}
	if fc.FetchTimeout != nil {
		cfg.FetchTimeout = time.Duration(*fc.FetchTimeout)
	}
	if fc.WorkerCount != nil {
		cfg.Workers = *fc.WorkerCount
	}
	if fc.UserAgent != "" {
		cfg.UserAgent = fc.UserAgent
	}
	if fc.CommentPrefix != "" {
		cfg.CommentPrefix = fc.CommentPrefix
	}
	if fc.UniqueURLs != nil {
		cfg.UniqueURLs = *fc.UniqueURLs
	}
	if fc.Extractor != "" {
		cfg.Extractor = fc.Extractor
	}
	if fc.Resume != nil {
		cfg.Resume = *fc.Resume
	}
	if fc.Ledger != "" {
		cfg.LedgerPath = fc.Ledger
	}
	if fc.Verbose != nil {
		cfg.Verbose = *fc.Verbose
	}
	if fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if fc.Cache.MaxAge != nil {
		cfg.CacheMaxAge = time.Duration(*fc.Cache.MaxAge)
	}
	if fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}
}
