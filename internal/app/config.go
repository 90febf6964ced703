package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hyperifyio/textcorpus/internal/fetch"
	"github.com/hyperifyio/textcorpus/internal/gate"
	"github.com/hyperifyio/textcorpus/internal/urllist"
)

// Config holds runtime configuration for one corpus build.
type Config struct {
	InputPath string `validate:"required"`
	OutputDir string `validate:"required"`

	// Exclusion
	ExcludeDomains     []string
	ExcludeExtensions  []string
	UseDefaultExcludes bool

	// Gates
	MaxURLs          int `validate:"gte=0"`
	MinWords         int `validate:"gte=1"`
	DedupPrefixWords int `validate:"gte=1"`

	// Fetching
	FetchTimeout time.Duration `validate:"gt=0"`
	Workers      int           `validate:"gte=1,lte=512"`
	UserAgent    string

	// Input
	CommentPrefix string
	// UniqueURLs drops input URLs that repeat an earlier one after
	// canonicalization.
	UniqueURLs bool

	// Behavior
	Resume      bool
	Extractor   string `validate:"omitempty,oneof=structural readability"`
	CacheDir    string
	CacheMaxAge time.Duration `validate:"gte=0"`
	CacheClear  bool
	// CacheStrictPerms keeps the cache private to the current user.
	CacheStrictPerms bool
	LedgerPath       string
	Verbose          bool
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		UseDefaultExcludes: true,
		MinWords:           gate.DefaultMinWords,
		DedupPrefixWords:   gate.DefaultDedupPrefixWords,
		FetchTimeout:       fetch.DefaultTimeout,
		Workers:            1,
		CommentPrefix:      urllist.DefaultCommentPrefix,
		Extractor:          "structural",
	}
}

var validate = validator.New()

// ValidateConfig checks cfg against its struct tags and reports every
// offending field in one error.
func ValidateConfig(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s %s", e.Field(), describe(e)))
	}
	return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
}

func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", e.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	default:
		return fmt.Sprintf("failed validation '%s'", e.Tag())
	}
}
