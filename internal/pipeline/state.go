package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hyperifyio/textcorpus/internal/gate"
)

// Stage is the last step a URL completed.
type Stage int

const (
	StagePending Stage = iota
	StageExclusionChecked
	StageFetched
	StageExtracted
	StageLengthChecked
	StageDuplicateChecked
	StageWritten
)

var stageNames = [...]string{
	"pending",
	"exclusion_checked",
	"fetched",
	"extracted",
	"length_checked",
	"duplicate_checked",
	"written",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// Outcome is the terminal state of a URL.
type Outcome string

const (
	OutcomeSaved    Outcome = "saved"
	OutcomeFailed   Outcome = "failed"
	OutcomeExcluded Outcome = "excluded"
)

// Result describes what happened to one URL.
type Result struct {
	URL     string
	Stage   Stage
	Outcome Outcome
	Reason  string
	Seq     int
	Words   int
	Err     error
}

type state struct {
	mu         sync.Mutex
	next       int
	signatures gate.SignatureSet
	stats      Stats
}

// apply settles res against the shared state. The caller holds mu. A returned
// error means a manifest could not be appended.
func (s *state) apply(sink Sink, res *Result, sig, text string) error {
	if res.Outcome == "" {
		if s.signatures.Seen(sig) {
			res.Outcome, res.Reason, res.Err = OutcomeFailed, "duplicate", gate.ErrDuplicate
		} else {
			res.Stage = StageDuplicateChecked
			if _, err := sink.WriteDocument(s.next, res.URL, text); err != nil {
				res.Outcome, res.Reason, res.Err = OutcomeFailed, "write: "+err.Error(), err
			} else {
				res.Stage = StageWritten
				res.Outcome = OutcomeSaved
				res.Seq = s.next
				s.next++
				s.signatures.Add(sig)
			}
		}
	}

	switch res.Outcome {
	case OutcomeSaved:
		s.stats.Success++
		if err := sink.AppendSuccess(res.URL); err != nil {
			return fmt.Errorf("success manifest: %w", err)
		}
	case OutcomeExcluded:
		s.stats.Excluded++
	default:
		s.stats.Failed++
		switch {
		case errors.Is(res.Err, gate.ErrTooShort):
			s.stats.TooShort++
		case errors.Is(res.Err, gate.ErrDuplicate):
			s.stats.Duplicates++
		}
		if err := sink.AppendFailed(res.URL); err != nil {
			return fmt.Errorf("failed manifest: %w", err)
		}
	}
	return nil
}

func (s *state) snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
