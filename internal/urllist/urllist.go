// Package urllist reads the one-URL-per-line input files.
package urllist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultCommentPrefix marks lines that are ignored.
const DefaultCommentPrefix = "#"

// Parse returns the non-blank, non-comment lines of r, trimmed. Duplicates are
// kept. An empty commentPrefix disables comment handling.
func Parse(r io.Reader, commentPrefix string) ([]string, error) {
	var urls []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if commentPrefix != "" && strings.HasPrefix(line, commentPrefix) {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return urls, nil
}

// Read loads the URL list at path.
func Read(path, commentPrefix string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url list: %w", err)
	}
	defer f.Close()
	urls, err := Parse(f, commentPrefix)
	if err != nil {
		return nil, fmt.Errorf("read url list: %w", err)
	}
	return urls, nil
}

// Limit caps urls at max entries; max <= 0 means no cap.
func Limit(urls []string, max int) []string {
	if max > 0 && len(urls) > max {
		return urls[:max]
	}
	return urls
}
