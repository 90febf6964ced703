// Package dataset owns the on-disk layout of a corpus directory: numbered
// document files plus the success and failed manifests.
package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	SuccessManifest = "success.txt"
	FailedManifest  = "failed.txt"
)

// WriteError reports a filesystem failure while persisting a document. No
// partial file is left under the final name when it is returned.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string { return fmt.Sprintf("write %s: %v", e.Path, e.Err) }
func (e *WriteError) Unwrap() error { return e.Err }

// ErrExists is wrapped in a WriteError when the target file already exists.
var ErrExists = errors.New("document already exists")

// FileName returns the zero-padded document name for seq, e.g. 0001.txt.
func FileName(seq int) string {
	return fmt.Sprintf("%04d.txt", seq)
}

// Dataset is an open corpus directory. Its methods are not safe for
// concurrent use; callers serialize access.
type Dataset struct {
	dir     string
	success *os.File
	failed  *os.File
}

// Open creates dir when needed and opens both manifests for appending.
func Open(dir string) (*Dataset, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("output dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	success, err := openAppend(filepath.Join(dir, SuccessManifest))
	if err != nil {
		return nil, err
	}
	failed, err := openAppend(filepath.Join(dir, FailedManifest))
	if err != nil {
		success.Close()
		return nil, err
	}
	return &Dataset{dir: dir, success: success, failed: failed}, nil
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	return f, nil
}

// Dir returns the dataset directory.
func (d *Dataset) Dir() string { return d.dir }

// Close closes both manifests.
func (d *Dataset) Close() error {
	return errors.Join(d.success.Close(), d.failed.Close())
}

// WriteDocument persists url and text as document seq. The content goes to a
// temporary file first and is renamed into place once synced.
func (d *Dataset) WriteDocument(seq int, url, text string) (string, error) {
	return writeDocument(d.dir, seq, url, text)
}

func writeDocument(dir string, seq int, url, text string) (string, error) {
	final := filepath.Join(dir, FileName(seq))
	if _, err := os.Stat(final); err == nil {
		return "", &WriteError{Path: final, Err: ErrExists}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", &WriteError{Path: final, Err: err}
	}
	f, err := os.CreateTemp(dir, ".partial-*.tmp")
	if err != nil {
		return "", &WriteError{Path: final, Err: err}
	}
	tmp := f.Name()
	fail := func(err error) (string, error) {
		f.Close()
		os.Remove(tmp)
		return "", &WriteError{Path: final, Err: err}
	}
	if _, err := f.WriteString(url + "\n\n" + text); err != nil {
		return fail(err)
	}
	if err := f.Sync(); err != nil {
		return fail(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", &WriteError{Path: final, Err: err}
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return "", &WriteError{Path: final, Err: err}
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return "", &WriteError{Path: final, Err: err}
	}
	return final, nil
}

// AppendSuccess records url in success.txt.
func (d *Dataset) AppendSuccess(url string) error {
	return appendLine(d.success, url)
}

// AppendFailed records url in failed.txt.
func (d *Dataset) AppendFailed(url string) error {
	return appendLine(d.failed, url)
}

func appendLine(f *os.File, url string) error {
	if _, err := f.WriteString(oneLine(url) + "\n"); err != nil {
		return fmt.Errorf("append %s: %w", filepath.Base(f.Name()), err)
	}
	return nil
}

func oneLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(strings.TrimSpace(s))
}
