package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hyperifyio/textcorpus/internal/dataset"
	"github.com/hyperifyio/textcorpus/internal/exclude"
	"github.com/hyperifyio/textcorpus/internal/extract"
	"github.com/hyperifyio/textcorpus/internal/fetch"
	"github.com/hyperifyio/textcorpus/internal/ledger"
)

// words returns n whitespace separated words starting with lead, so texts
// with different leads have different duplicate signatures.
func words(lead string, n int) string {
	f := make([]string, n)
	f[0] = lead
	for i := 1; i < n; i++ {
		f[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(f, " ")
}

// pages serves path -> body as text/plain; unknown paths are 404.
func pages(t *testing.T, m map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := m[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newPipeline(t *testing.T, dir string, opts Options, ex Excluder) *Pipeline {
	t.Helper()
	ds, err := dataset.Open(dir)
	if err != nil {
		t.Fatalf("open dataset: %v", err)
	}
	t.Cleanup(func() { _ = ds.Close() })
	if ex == nil {
		ex = exclude.NewRuleset(nil, nil, false)
	}
	return &Pipeline{
		Options:   opts,
		Excluder:  ex,
		Fetcher:   &fetch.Client{UserAgent: "textcorpus-test", Timeout: 2 * time.Second},
		Extractor: extract.Structural{},
		Sink:      ds,
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out
}

func TestRun_ExclusionScenario(t *testing.T) {
	srv := pages(t, map[string]string{"/ok": words("ok", 60)})
	dir := t.TempDir()
	p := newPipeline(t, dir, Options{}, exclude.NewRuleset(nil, nil, true))

	urls := []string{srv.URL + "/ok", "https://youtube.com/y", srv.URL + "/x.pdf"}
	stats, err := p.Run(context.Background(), urls)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Success != 1 || stats.Excluded != 2 || stats.Failed != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if got := readLines(t, filepath.Join(dir, dataset.SuccessManifest)); len(got) != 1 || got[0] != srv.URL+"/ok" {
		t.Fatalf("success manifest: %v", got)
	}
	if got := readLines(t, filepath.Join(dir, dataset.FailedManifest)); len(got) != 0 {
		t.Fatalf("excluded URLs must not reach the failed manifest: %v", got)
	}
}

func TestRun_LengthThreshold(t *testing.T) {
	srv := pages(t, map[string]string{
		"/49": words("short", 49),
		"/50": words("enough", 50),
	})
	dir := t.TempDir()
	p := newPipeline(t, dir, Options{}, nil)

	stats, err := p.Run(context.Background(), []string{srv.URL + "/49", srv.URL + "/50"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Success != 1 || stats.Failed != 1 || stats.TooShort != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	failed := readLines(t, filepath.Join(dir, dataset.FailedManifest))
	if len(failed) != 1 || failed[0] != srv.URL+"/49" {
		t.Fatalf("failed manifest: %v", failed)
	}
	url, text, err := dataset.ReadDocument(filepath.Join(dir, "0001.txt"))
	if err != nil || url != srv.URL+"/50" || text != words("enough", 50) {
		t.Fatalf("document: %q %q %v", url, text, err)
	}
}

func TestRun_DuplicateRace(t *testing.T) {
	same := words("Identical", 80)
	m := map[string]string{}
	var urls []string
	for i := 0; i < 8; i++ {
		path := fmt.Sprintf("/copy%d", i)
		m[path] = same
		urls = append(urls, path)
	}
	srv := pages(t, m)
	for i := range urls {
		urls[i] = srv.URL + urls[i]
	}
	dir := t.TempDir()
	p := newPipeline(t, dir, Options{Workers: 4}, nil)

	stats, err := p.Run(context.Background(), urls)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Success != 1 || stats.Duplicates != 7 || stats.Failed != 7 || stats.Total() != 8 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	docs, err := dataset.List(dir)
	if err != nil || len(docs) != 1 || docs[0].Seq != 1 {
		t.Fatalf("expected exactly one document, got %+v %v", docs, err)
	}
	if got := readLines(t, filepath.Join(dir, dataset.FailedManifest)); len(got) != 7 {
		t.Fatalf("failed manifest should list 7 duplicates, got %d", len(got))
	}
}

func TestRun_ContiguousSequenceUnderConcurrency(t *testing.T) {
	m := map[string]string{}
	var urls []string
	for i := 0; i < 25; i++ {
		path := fmt.Sprintf("/doc%d", i)
		m[path] = words(fmt.Sprintf("doc%d", i), 60+i)
		urls = append(urls, path)
	}
	for i := 0; i < 5; i++ {
		urls = append(urls, fmt.Sprintf("/missing%d", i))
	}
	srv := pages(t, m)
	for i := range urls {
		urls[i] = srv.URL + urls[i]
	}
	dir := t.TempDir()
	p := newPipeline(t, dir, Options{Workers: 4}, nil)

	stats, err := p.Run(context.Background(), urls)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Success != 25 || stats.Failed != 5 || stats.Total() != len(urls) {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	docs, err := dataset.List(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	success := map[string]bool{}
	for _, u := range readLines(t, filepath.Join(dir, dataset.SuccessManifest)) {
		success[u] = true
	}
	for i, d := range docs {
		if d.Seq != i+1 {
			t.Fatalf("sequence gap at %d: %+v", i, d)
		}
		url, _, err := dataset.ReadDocument(d.Path)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if !success[url] {
			t.Fatalf("%s saved but missing from success manifest", url)
		}
	}
	if len(docs) != 25 || len(success) != 25 {
		t.Fatalf("docs=%d success=%d", len(docs), len(success))
	}
}

func TestRun_FetchAndExtractionFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("\x89PNG\r\n\x1a\n"))
		case "/boom":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	dir := t.TempDir()
	p := newPipeline(t, dir, Options{}, nil)
	rec := &memRecorder{}
	p.Recorder = rec

	stats, err := p.Run(context.Background(), []string{srv.URL + "/png", srv.URL + "/boom", srv.URL + "/gone"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Failed != 3 || stats.Success != 0 || stats.TooShort != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	reasons := rec.reasons()
	want := []string{"extraction: unsupported content", "fetch: status 500", "fetch: status 404"}
	for i, w := range want {
		if reasons[i] != w {
			t.Fatalf("reason %d: got %q want %q", i, reasons[i], w)
		}
	}
}

func TestRun_TimeoutDoesNotStall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			select {
			case <-r.Context().Done():
			case <-time.After(3 * time.Second):
			}
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(words("fast", 55)))
	}))
	defer srv.Close()
	dir := t.TempDir()
	p := newPipeline(t, dir, Options{}, nil)
	p.Fetcher = &fetch.Client{UserAgent: "textcorpus-test", Timeout: 100 * time.Millisecond}

	start := time.Now()
	stats, err := p.Run(context.Background(), []string{srv.URL + "/slow", srv.URL + "/fast"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatalf("run stalled on slow URL")
	}
	if stats.Failed != 1 || stats.Success != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestRun_CancelStopsWithoutPartialFiles(t *testing.T) {
	started := make(chan struct{}, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-r.Context().Done()
	}))
	defer srv.Close()
	var urls []string
	for i := 0; i < 10; i++ {
		urls = append(urls, fmt.Sprintf("%s/hang%d", srv.URL, i))
	}
	dir := t.TempDir()
	p := newPipeline(t, dir, Options{Workers: 2}, nil)
	p.Fetcher = &fetch.Client{UserAgent: "textcorpus-test", Timeout: 10 * time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	stats, err := p.Run(ctx, urls)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if stats.Total() != 0 {
		t.Fatalf("abandoned URLs must not be counted: %+v", stats)
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Fatalf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestRun_ResumeContinuesSequenceAndSignatures(t *testing.T) {
	srv := pages(t, map[string]string{
		"/a": words("alpha", 60),
		"/b": words("beta", 60),
		"/c": words("gamma", 60),
		"/A": words("ALPHA", 70),
	})
	dir := t.TempDir()

	first := newPipeline(t, dir, Options{}, nil)
	if _, err := first.Run(context.Background(), []string{srv.URL + "/a", srv.URL + "/b"}); err != nil {
		t.Fatalf("first run: %v", err)
	}

	fresh := newPipeline(t, dir, Options{}, nil)
	if _, err := fresh.Run(context.Background(), []string{srv.URL + "/c"}); !errors.Is(err, ErrOutputNotEmpty) {
		t.Fatalf("expected ErrOutputNotEmpty, got %v", err)
	}

	resumed := newPipeline(t, dir, Options{Resume: true}, nil)
	stats, err := resumed.Run(context.Background(), []string{srv.URL + "/A", srv.URL + "/c"})
	if err != nil {
		t.Fatalf("resumed run: %v", err)
	}
	if stats.Success != 1 || stats.Duplicates != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	url, _, err := dataset.ReadDocument(filepath.Join(dir, "0003.txt"))
	if err != nil || url != srv.URL+"/c" {
		t.Fatalf("expected /c as 0003.txt, got %q %v", url, err)
	}
	if got := readLines(t, filepath.Join(dir, dataset.SuccessManifest)); len(got) != 3 {
		t.Fatalf("success manifest should span both runs: %v", got)
	}
}

func TestRun_MaxURLs(t *testing.T) {
	srv := pages(t, map[string]string{})
	var urls []string
	for i := 0; i < 5; i++ {
		urls = append(urls, fmt.Sprintf("%s/%d", srv.URL, i))
	}
	p := newPipeline(t, t.TempDir(), Options{MaxURLs: 2}, nil)
	stats, err := p.Run(context.Background(), urls)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.Total() != 2 {
		t.Fatalf("expected 2 URLs considered, got %+v", stats)
	}
}

func TestRun_RecorderSeesEveryOutcome(t *testing.T) {
	srv := pages(t, map[string]string{
		"/ok":    words("fine", 60),
		"/short": words("tiny", 10),
	})
	p := newPipeline(t, t.TempDir(), Options{}, exclude.NewRuleset([]string{"blocked.test"}, nil, false))
	rec := &memRecorder{}
	p.Recorder = rec

	stats, err := p.Run(context.Background(), []string{srv.URL + "/ok", srv.URL + "/short", "https://blocked.test/"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	got := rec.all()
	if len(got) != stats.Total() || len(got) != 3 {
		t.Fatalf("recorded %d entries for %+v", len(got), stats)
	}
	if got[0].Outcome != "saved" || got[0].Seq != 1 || got[0].Words != 60 {
		t.Fatalf("unexpected saved entry: %+v", got[0])
	}
	if got[1].Reason != "too_short:10" {
		t.Fatalf("unexpected too-short reason: %+v", got[1])
	}
	if got[2].Outcome != "excluded" || got[2].Reason != string(exclude.ReasonDomain) {
		t.Fatalf("unexpected excluded entry: %+v", got[2])
	}
}

func TestStage_String(t *testing.T) {
	if StageWritten.String() != "written" || Stage(42).String() != "stage(42)" {
		t.Fatalf("unexpected stage names")
	}
}

type memRecorder struct {
	mu      sync.Mutex
	entries []ledger.Entry
}

func (m *memRecorder) Record(_ context.Context, e ledger.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *memRecorder) all() []ledger.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ledger.Entry(nil), m.entries...)
}

func (m *memRecorder) reasons() []string {
	var out []string
	for _, e := range m.all() {
		out = append(out, e.Reason)
	}
	return out
}
