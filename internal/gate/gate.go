// Package gate holds the post-extraction filters: a minimum word count and a
// leading-words duplicate signature.
package gate

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

const (
	DefaultMinWords         = 50
	DefaultDedupPrefixWords = 8
)

var (
	ErrTooShort  = errors.New("too short")
	ErrDuplicate = errors.New("duplicate")
)

// WordCount splits on whitespace runs.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Length rejects text below Min words.
type Length struct {
	Min int
}

// Check returns the word count and ErrTooShort when it is below the minimum.
func (g Length) Check(text string) (int, error) {
	n := WordCount(text)
	if n < g.Min {
		return n, ErrTooShort
	}
	return n, nil
}

// Signature derives the duplicate key from the first k words of text,
// case-folded and single-space joined, hashed so keys stay a fixed size.
func Signature(text string, k int) string {
	if k <= 0 {
		k = DefaultDedupPrefixWords
	}
	words := strings.Fields(text)
	if len(words) > k {
		words = words[:k]
	}
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	sum := sha256.Sum256([]byte(strings.Join(words, " ")))
	return hex.EncodeToString(sum[:])
}

// SignatureSet remembers signatures seen during one run. It is not safe for
// concurrent use; the pipeline guards it with its run-state lock.
type SignatureSet map[string]struct{}

// Seen reports whether sig was added before.
func (s SignatureSet) Seen(sig string) bool {
	_, ok := s[sig]
	return ok
}

// Add records sig.
func (s SignatureSet) Add(sig string) {
	s[sig] = struct{}{}
}

// CheckAndAdd returns ErrDuplicate when sig is present and records it
// otherwise.
func (s SignatureSet) CheckAndAdd(sig string) error {
	if s.Seen(sig) {
		return ErrDuplicate
	}
	s.Add(sig)
	return nil
}
