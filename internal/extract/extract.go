package extract

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
)

// Kind tags the content variants the extractor knows how to handle.
type Kind int

const (
	KindUnsupported Kind = iota
	KindHTML
	KindPlainText
)

func (k Kind) String() string {
	switch k {
	case KindHTML:
		return "html"
	case KindPlainText:
		return "text"
	default:
		return "unsupported"
	}
}

var (
	// ErrUnsupported is returned for binary or otherwise non-text content.
	ErrUnsupported = errors.New("unsupported content type")
	// ErrUndecodable is returned when the declared charset is unknown.
	ErrUndecodable = errors.New("undecodable content")
)

// KindOf classifies a response by its declared content type, sniffing the
// body when nothing was declared.
func KindOf(contentType string, body []byte) Kind {
	ct := strings.TrimSpace(contentType)
	if ct == "" {
		ct = http.DetectContentType(body)
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0]))
	}
	switch mediaType {
	case "text/html", "application/xhtml+xml":
		return KindHTML
	case "text/plain", "text/markdown", "text/x-markdown":
		return KindPlainText
	default:
		return KindUnsupported
	}
}

// Decode converts body to UTF-8. A charset declared in contentType wins.
// Otherwise valid UTF-8 is taken as is; invalid HTML is sniffed for a BOM or
// <meta charset>, and invalid plain text has bad sequences replaced.
func Decode(body []byte, contentType string, kind Kind) (string, error) {
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if label := strings.TrimSpace(params["charset"]); label != "" {
			enc, err := htmlindex.Get(label)
			if err != nil {
				return "", fmt.Errorf("%w: charset %q", ErrUndecodable, label)
			}
			out, err := enc.NewDecoder().Bytes(body)
			if err != nil {
				return "", fmt.Errorf("%w: %v", ErrUndecodable, err)
			}
			return strings.TrimPrefix(string(out), "\uFEFF"), nil
		}
	}
	if utf8.Valid(body) {
		return strings.TrimPrefix(string(body), "\uFEFF"), nil
	}
	if kind == KindHTML {
		// BOM, <meta charset> prescan, then the windows-1252 fallback.
		enc, _, _ := charset.DetermineEncoding(body, "")
		out, err := enc.NewDecoder().Bytes(body)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUndecodable, err)
		}
		return strings.TrimPrefix(string(out), "\uFEFF"), nil
	}
	return strings.ToValidUTF8(string(body), "\uFFFD"), nil
}

// Extract turns a fetched body into normalized plain text. It never executes
// markup; HTML is parsed into a tree and only text nodes are kept.
func Extract(body []byte, contentType string) (string, error) {
	kind := KindOf(contentType, body)
	if kind == KindUnsupported {
		return "", ErrUnsupported
	}
	text, err := Decode(body, contentType, kind)
	if err != nil {
		return "", err
	}
	if kind == KindHTML {
		return FromHTML(text), nil
	}
	return FromPlainText(text), nil
}

// skipped elements contribute no text at all.
var skipped = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"iframe":   true,
	"object":   true,
	"svg":      true,
	"math":     true,
}

// block elements start and end a paragraph.
var block = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"body": true, "caption": true, "dd": true, "details": true, "div": true,
	"dl": true, "dt": true, "fieldset": true, "figcaption": true, "figure": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "header": true, "hr": true, "li": true, "main": true,
	"nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"summary": true, "table": true, "td": true, "th": true, "title": true,
	"tr": true, "ul": true, "br": true,
}

// FromHTML strips all markup from an HTML document. Paragraph boundaries
// become a single newline and other whitespace runs a single space.
func FromHTML(doc string) string {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil || root == nil {
		return ""
	}
	var b strings.Builder
	collectText(&b, root, false)
	return Normalize(b.String())
}

func collectText(b *strings.Builder, n *html.Node, inPre bool) {
	switch n.Type {
	case html.TextNode:
		data := n.Data
		if inPre {
			data = strings.ReplaceAll(data, "\r\n", "\n")
		} else {
			data = strings.Map(flattenNewline, data)
		}
		b.WriteString(data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		name := strings.ToLower(n.Data)
		if skipped[name] {
			return
		}
		if name == "pre" {
			inPre = true
		}
		if block[name] {
			b.WriteByte('\n')
		}
		defer func() {
			if block[name] {
				b.WriteByte('\n')
			}
		}()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(b, c, inPre)
	}
}

func flattenNewline(r rune) rune {
	if r == '\n' || r == '\r' {
		return ' '
	}
	return r
}

// FromPlainText normalizes plain text: blank lines separate paragraphs,
// single line breaks inside a paragraph become spaces.
func FromPlainText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	var b strings.Builder
	for i, para := range splitParagraphs(text) {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Map(flattenNewline, para))
	}
	return Normalize(b.String())
}

func splitParagraphs(text string) []string {
	lines := strings.Split(text, "\n")
	var out []string
	var cur []string
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if len(cur) > 0 {
				out = append(out, strings.Join(cur, "\n"))
				cur = cur[:0]
			}
			continue
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		out = append(out, strings.Join(cur, "\n"))
	}
	return out
}

// Normalize collapses whitespace inside each line to single spaces, drops
// empty lines so paragraphs are separated by exactly one newline, and trims
// the result.
func Normalize(s string) string {
	var b bytes.Buffer
	for _, line := range strings.Split(s, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Join(fields, " "))
	}
	return b.String()
}
