package urllist

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParse_SkipsBlanksAndComments(t *testing.T) {
	in := "https://a.test/1\n\n   \n# a comment\n  https://a.test/2  \n; other\nhttps://a.test/1\n"
	got, err := Parse(strings.NewReader(in), "#")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []string{"https://a.test/1", "https://a.test/2", "; other", "https://a.test/1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	got, err = Parse(strings.NewReader(in), ";")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want = []string{"https://a.test/1", "# a comment", "https://a.test/2", "https://a.test/1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("custom prefix: got %v, want %v", got, want)
	}
}

func TestRead_Missing(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "nope.txt"), "#"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestRead_File(t *testing.T) {
	p := filepath.Join(t.TempDir(), "urls.txt")
	if err := os.WriteFile(p, []byte("https://a.test/\r\nhttps://b.test/\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Read(p, "#")
	if err != nil || len(got) != 2 || got[1] != "https://b.test/" {
		t.Fatalf("got %v %v", got, err)
	}
}

func TestLimit(t *testing.T) {
	urls := []string{"a", "b", "c"}
	if got := Limit(urls, 2); len(got) != 2 {
		t.Fatalf("got %v", got)
	}
	if got := Limit(urls, 0); len(got) != 3 {
		t.Fatalf("got %v", got)
	}
	if got := Limit(urls, 10); len(got) != 3 {
		t.Fatalf("got %v", got)
	}
}
