package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperifyio/textcorpus/internal/gate"
)

// Document is one numbered file of a dataset.
type Document struct {
	Seq  int
	Path string
}

// ParseSeq returns the sequence number encoded in a document file name.
func ParseSeq(name string) (int, bool) {
	stem, ok := strings.CutSuffix(name, ".txt")
	if !ok || len(stem) < 4 {
		return 0, false
	}
	for _, r := range stem {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(stem)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// List returns the documents of dir ordered by sequence number. A missing
// directory yields no documents.
func List(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	docs := make([]Document, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if seq, ok := ParseSeq(e.Name()); ok {
			docs = append(docs, Document{Seq: seq, Path: filepath.Join(dir, e.Name())})
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Seq < docs[j].Seq })
	return docs, nil
}

// ReadDocument splits a document file back into its URL and text.
func ReadDocument(path string) (url, text string, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	url, text, ok := strings.Cut(string(b), "\n\n")
	if !ok {
		return "", "", fmt.Errorf("%s: missing header separator", path)
	}
	return url, text, nil
}

// ScanResult summarizes an existing dataset for resuming into it.
type ScanResult struct {
	Documents  int
	MaxSeq     int
	Signatures gate.SignatureSet
}

// Scan reads every document in dir, returning the highest sequence number and
// the duplicate signatures (first k words) of the stored texts.
func Scan(dir string, k int) (ScanResult, error) {
	res := ScanResult{Signatures: gate.SignatureSet{}}
	docs, err := List(dir)
	if err != nil {
		return res, fmt.Errorf("scan %s: %w", dir, err)
	}
	for _, d := range docs {
		_, text, err := ReadDocument(d.Path)
		if err != nil {
			return res, fmt.Errorf("scan: %w", err)
		}
		res.Signatures.Add(gate.Signature(text, k))
		res.Documents++
		if d.Seq > res.MaxSeq {
			res.MaxSeq = d.Seq
		}
	}
	return res, nil
}
