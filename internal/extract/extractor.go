package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
)

// Extractor converts a fetched body into normalized plain text. Implementations
// must be deterministic and must never evaluate the content.
type Extractor interface {
	Extract(pageURL string, body []byte, contentType string) (string, error)
}

// Structural keeps every text node of the document; nothing is dropped as
// boilerplate.
type Structural struct{}

func (Structural) Extract(_ string, body []byte, contentType string) (string, error) {
	return Extract(body, contentType)
}

// Readability narrows HTML pages to the main article before stripping markup.
// Plain text bodies are handled exactly like Structural. Pages where no article
// can be found fall back to the whole document.
type Readability struct{}

func (Readability) Extract(pageURL string, body []byte, contentType string) (string, error) {
	kind := KindOf(contentType, body)
	if kind != KindHTML {
		return Extract(body, contentType)
	}
	doc, err := Decode(body, contentType, kind)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse page url: %w", err)
	}
	article, err := readability.FromReader(strings.NewReader(doc), u)
	if err != nil || strings.TrimSpace(article.Content) == "" {
		return FromHTML(doc), nil
	}
	return FromHTML(article.Content), nil
}

// ByName returns the extractor registered under name: "structural" (the
// default when name is empty) or "readability".
func ByName(name string) (Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "structural":
		return Structural{}, nil
	case "readability":
		return Readability{}, nil
	default:
		return nil, fmt.Errorf("unknown extractor %q", name)
	}
}
