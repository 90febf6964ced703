package dataset

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/textcorpus/internal/gate"
)

// MergeResult reports what Merge copied.
type MergeResult struct {
	OutputDir  string
	Inputs     int
	Scanned    int
	Written    int
	Duplicates int
}

// Merge copies the documents of inputs into out, renumbering them after any
// documents out already holds and dropping texts whose first k words were seen
// before, in out or in an earlier input. Copied URLs are appended to out's
// success manifest.
func Merge(ctx context.Context, out string, k int, inputs ...string) (MergeResult, error) {
	res := MergeResult{OutputDir: out}
	if len(inputs) == 0 {
		return res, errors.New("merge: no input directories")
	}
	outAbs, err := filepath.Abs(out)
	if err != nil {
		return res, fmt.Errorf("merge: %w", err)
	}
	existing, err := Scan(out, k)
	if err != nil {
		return res, fmt.Errorf("merge: %w", err)
	}
	ds, err := Open(out)
	if err != nil {
		return res, fmt.Errorf("merge: %w", err)
	}
	defer ds.Close()

	seen := existing.Signatures
	next := existing.MaxSeq + 1
	for _, in := range inputs {
		if inAbs, err := filepath.Abs(in); err == nil && inAbs == outAbs {
			return res, fmt.Errorf("merge: input %s is the output directory", in)
		}
		docs, err := List(in)
		if err != nil {
			return res, fmt.Errorf("merge: list %s: %w", in, err)
		}
		res.Inputs++
		for _, d := range docs {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			url, text, err := ReadDocument(d.Path)
			if err != nil {
				log.Warn().Err(err).Str("file", d.Path).Msg("skipping unreadable document")
				continue
			}
			res.Scanned++
			if err := seen.CheckAndAdd(gate.Signature(text, k)); err != nil {
				res.Duplicates++
				log.Debug().Str("file", d.Path).Msg("duplicate")
				continue
			}
			if _, err := ds.WriteDocument(next, url, text); err != nil {
				return res, fmt.Errorf("merge: %w", err)
			}
			if err := ds.AppendSuccess(url); err != nil {
				return res, fmt.Errorf("merge: %w", err)
			}
			next++
			res.Written++
		}
	}
	log.Info().Int("written", res.Written).Int("duplicates", res.Duplicates).Int("inputs", res.Inputs).Str("out", out).Msg("merged datasets")
	return res, nil
}
