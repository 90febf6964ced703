// Package pipeline drives URLs through exclusion, fetch, extraction, the
// length and duplicate gates, and finally the dataset writer.
//
// All run state that later URLs depend on (the next sequence number, the
// duplicate signatures, the manifests and the counters) lives in one state
// value guarded by a single mutex. Each URL enters that critical section
// exactly once, after its network and extraction work is done, so any number
// of workers can fetch concurrently while the dataset invariants hold.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/textcorpus/internal/dataset"
	"github.com/hyperifyio/textcorpus/internal/exclude"
	"github.com/hyperifyio/textcorpus/internal/extract"
	"github.com/hyperifyio/textcorpus/internal/fetch"
	"github.com/hyperifyio/textcorpus/internal/gate"
	"github.com/hyperifyio/textcorpus/internal/ledger"
	"github.com/hyperifyio/textcorpus/internal/urllist"
)

// ErrOutputNotEmpty is returned when the output directory already holds
// documents and the run was not asked to resume.
var ErrOutputNotEmpty = errors.New("output directory already holds documents")

// Excluder decides whether a URL is skipped before any network access.
type Excluder interface {
	Check(rawURL string) exclude.Verdict
}

// Fetcher retrieves one URL.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) (fetch.Response, error)
}

// Sink persists documents and manifest lines.
type Sink interface {
	Dir() string
	WriteDocument(seq int, url, text string) (string, error)
	AppendSuccess(url string) error
	AppendFailed(url string) error
}

// Recorder receives one entry per terminal outcome.
type Recorder interface {
	Record(ctx context.Context, e ledger.Entry) error
}

// Options tune a run. Zero values select the defaults.
type Options struct {
	MinWords         int
	DedupPrefixWords int
	Workers          int
	// MaxURLs caps how many input URLs are considered; zero means all.
	MaxURLs int
	// Resume continues numbering after the documents already in the output
	// directory and treats their texts as seen.
	Resume bool
}

func (o Options) withDefaults() Options {
	if o.MinWords <= 0 {
		o.MinWords = gate.DefaultMinWords
	}
	if o.DedupPrefixWords <= 0 {
		o.DedupPrefixWords = gate.DefaultDedupPrefixWords
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	return o
}

// Stats are the run counters. TooShort and Duplicates are broken out of
// Failed, so Success+Failed+Excluded is the number of URLs that reached a
// terminal outcome.
type Stats struct {
	Success    int
	Failed     int
	Excluded   int
	TooShort   int
	Duplicates int
	OutputDir  string
}

// Total returns the number of URLs with a terminal outcome.
func (s Stats) Total() int { return s.Success + s.Failed + s.Excluded }

// Pipeline wires the per-URL stages together.
type Pipeline struct {
	Options   Options
	Excluder  Excluder
	Fetcher   Fetcher
	Extractor extract.Extractor
	Sink      Sink
	// Recorder is optional.
	Recorder Recorder
}

// Run processes urls and returns the counters. When ctx is canceled no new
// URLs are started, in-flight fetches are abandoned without an outcome, and
// Run returns the counters so far together with the context error.
func (p *Pipeline) Run(ctx context.Context, urls []string) (Stats, error) {
	opts := p.Options.withDefaults()
	urls = urllist.Limit(urls, opts.MaxURLs)
	st, err := newState(p.Sink, opts)
	if err != nil {
		return Stats{OutputDir: p.Sink.Dir()}, err
	}
	log.Info().Int("urls", len(urls)).Int("workers", opts.Workers).Int("next_seq", st.next).Str("output", p.Sink.Dir()).Msg("processing URLs")

	jobs := make(chan job, opts.Workers)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(jobs)
		for i, u := range urls {
			select {
			case <-gctx.Done():
				return nil
			case jobs <- job{index: i + 1, url: u}:
			}
		}
		return nil
	})
	for w := 0; w < opts.Workers; w++ {
		g.Go(func() error {
			for j := range jobs {
				if gctx.Err() != nil {
					continue
				}
				log.Debug().Int("index", j.index).Int("of", len(urls)).Str("url", j.url).Msg("processing")
				if err := p.process(gctx, st, opts, j.url); err != nil {
					return err
				}
			}
			return nil
		})
	}
	err = g.Wait()
	stats := st.snapshot()
	if err == nil {
		err = ctx.Err()
	}
	return stats, err
}

type job struct {
	index int
	url   string
}

// process runs one URL through every stage. Only failures that make the whole
// dataset untrustworthy, such as a manifest append error, are returned.
func (p *Pipeline) process(ctx context.Context, st *state, opts Options, rawURL string) error {
	res := Result{URL: rawURL, Stage: StagePending}

	if v := p.Excluder.Check(rawURL); v.Excluded {
		res.Outcome = OutcomeExcluded
		res.Reason = string(v.Reason)
		return p.settle(ctx, st, res, "", "")
	}
	res.Stage = StageExclusionChecked

	resp, err := p.Fetcher.Get(ctx, rawURL)
	if err != nil {
		if ctx.Err() != nil {
			log.Debug().Str("url", rawURL).Msg("abandoned")
			return nil
		}
		res.Outcome, res.Reason, res.Err = OutcomeFailed, fetchReason(err), err
		return p.settle(ctx, st, res, "", "")
	}
	res.Stage = StageFetched

	text, err := p.Extractor.Extract(rawURL, resp.Body, resp.ContentType)
	if err != nil {
		res.Outcome, res.Reason, res.Err = OutcomeFailed, extractReason(err), err
		return p.settle(ctx, st, res, "", "")
	}
	res.Stage = StageExtracted

	words, err := gate.Length{Min: opts.MinWords}.Check(text)
	res.Words = words
	if err != nil {
		res.Outcome, res.Reason, res.Err = OutcomeFailed, fmt.Sprintf("too_short:%d", words), err
		return p.settle(ctx, st, res, "", "")
	}
	res.Stage = StageLengthChecked

	return p.settle(ctx, st, res, gate.Signature(text, opts.DedupPrefixWords), text)
}

// settle is the single critical section for a URL. A Result without an
// outcome is a candidate document: it is checked against the signature set
// and written, consuming a sequence number only on success.
func (p *Pipeline) settle(ctx context.Context, st *state, res Result, sig, text string) error {
	st.mu.Lock()
	err := st.apply(p.Sink, &res, sig, text)
	st.mu.Unlock()
	if err != nil {
		return err
	}
	logResult(res)
	if p.Recorder != nil {
		entry := ledger.Entry{URL: res.URL, Outcome: string(res.Outcome), Reason: res.Reason, Seq: res.Seq, Words: res.Words}
		if err := p.Recorder.Record(context.WithoutCancel(ctx), entry); err != nil {
			log.Warn().Err(err).Str("url", res.URL).Msg("ledger record failed")
		}
	}
	return nil
}

func logResult(res Result) {
	switch res.Outcome {
	case OutcomeSaved:
		log.Info().Str("url", res.URL).Str("outcome", string(res.Outcome)).Int("seq", res.Seq).Int("words", res.Words).Msg("saved")
	case OutcomeExcluded:
		log.Info().Str("url", res.URL).Str("outcome", string(res.Outcome)).Str("reason", res.Reason).Msg("excluded")
	default:
		ev := log.Info()
		if res.Stage < StageFetched {
			ev = log.Warn()
		}
		ev.Str("url", res.URL).Str("outcome", string(res.Outcome)).Str("reason", res.Reason).Str("stage", res.Stage.String()).Int("words", res.Words).Msg("failed")
	}
}

func fetchReason(err error) string {
	var fe *fetch.Error
	if errors.As(err, &fe) {
		return "fetch: " + fe.Reason
	}
	return "fetch: " + err.Error()
}

func extractReason(err error) string {
	switch {
	case errors.Is(err, extract.ErrUnsupported):
		return "extraction: unsupported content"
	case errors.Is(err, extract.ErrUndecodable):
		return "extraction: undecodable"
	default:
		return "extraction: " + err.Error()
	}
}

// newState prepares the run state against the sink's directory.
func newState(sink Sink, opts Options) (*state, error) {
	st := &state{
		next:       1,
		signatures: gate.SignatureSet{},
		stats:      Stats{OutputDir: sink.Dir()},
	}
	docs, err := dataset.List(sink.Dir())
	if err != nil {
		return nil, fmt.Errorf("list output: %w", err)
	}
	if len(docs) == 0 {
		return st, nil
	}
	if !opts.Resume {
		return nil, fmt.Errorf("%w: %s has %d documents", ErrOutputNotEmpty, sink.Dir(), len(docs))
	}
	scan, err := dataset.Scan(sink.Dir(), opts.DedupPrefixWords)
	if err != nil {
		return nil, err
	}
	st.next = scan.MaxSeq + 1
	st.signatures = scan.Signatures
	log.Info().Int("documents", scan.Documents).Int("next_seq", st.next).Msg("resuming")
	return st, nil
}
