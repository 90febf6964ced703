package dataset

import (
	"fmt"

	"github.com/hyperifyio/textcorpus/internal/gate"
)

// Summary describes the size of a dataset directory.
type Summary struct {
	Files    int
	Words    int
	Chars    int
	Bytes    int64
	AvgWords int
}

// MB returns the document bytes in mebibytes.
func (s Summary) MB() float64 {
	return float64(s.Bytes) / (1024 * 1024)
}

// Stats counts documents and the words of their text bodies. The URL header
// line is not counted.
func Stats(dir string) (Summary, error) {
	var s Summary
	docs, err := List(dir)
	if err != nil {
		return s, fmt.Errorf("stats %s: %w", dir, err)
	}
	for _, d := range docs {
		url, text, err := ReadDocument(d.Path)
		if err != nil {
			return s, fmt.Errorf("stats: %w", err)
		}
		s.Files++
		s.Words += gate.WordCount(text)
		s.Chars += len([]rune(text))
		s.Bytes += int64(len(url) + 2 + len(text))
	}
	if s.Files > 0 {
		s.AvgWords = s.Words / s.Files
	}
	return s, nil
}
