package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix namespaces every environment variable read by ApplyEnvOverrides.
const EnvPrefix = "TEXTCORPUS_"

// ApplyEnvOverrides overrides cfg fields whose TEXTCORPUS_* variable is set.
// It sits between the config file and flags in precedence. Malformed values
// are reported together rather than ignored.
func ApplyEnvOverrides(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	var errs []error

	if v, ok := lookup("EXCLUDE_DOMAINS"); ok {
		cfg.ExcludeDomains = SplitList(v)
	}
	if v, ok := lookup("EXCLUDE_EXTENSIONS"); ok {
		cfg.ExcludeExtensions = SplitList(v)
	}
	setBool(&cfg.UseDefaultExcludes, "USE_DEFAULT_EXCLUDES", &errs)
	setInt(&cfg.MaxURLs, "MAX_URLS", &errs)
	setInt(&cfg.MinWords, "MIN_WORDS", &errs)
	setInt(&cfg.DedupPrefixWords, "DEDUP_PREFIX_WORDS", &errs)
	setInt(&cfg.Workers, "WORKERS", &errs)
	setDuration(&cfg.FetchTimeout, "FETCH_TIMEOUT", &errs)
	setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE", &errs)
	setBool(&cfg.CacheClear, "CACHE_CLEAR", &errs)
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS", &errs)
	setBool(&cfg.Resume, "RESUME", &errs)
	setBool(&cfg.UniqueURLs, "UNIQUE_URLS", &errs)
	setBool(&cfg.Verbose, "VERBOSE", &errs)

	if v, ok := lookup("USER_AGENT"); ok {
		cfg.UserAgent = v
	}
	if v, ok := lookup("EXTRACTOR"); ok {
		cfg.Extractor = v
	}
	if v, ok := lookup("CACHE_DIR"); ok {
		cfg.CacheDir = v
	}
	if v, ok := lookup("LEDGER"); ok {
		cfg.LedgerPath = v
	}
	return errors.Join(errs...)
}

// SplitList splits a comma separated option, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func setInt(dst *int, key string, errs *[]error) {
	v, ok := lookup(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
		return
	}
	*dst = n
}

func setDuration(dst *time.Duration, key string, errs *[]error) {
	v, ok := lookup(key)
	if !ok {
		return
	}
	var d Duration
	if err := d.parse(v); err != nil {
		*errs = append(*errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
		return
	}
	*dst = time.Duration(d)
}

func setBool(dst *bool, key string, errs *[]error) {
	v, ok := lookup(key)
	if !ok {
		return
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		*dst = true
	case "0", "false", "no", "off":
		*dst = false
	default:
		*errs = append(*errs, fmt.Errorf("%s%s: invalid boolean %q", EnvPrefix, key, v))
	}
}
