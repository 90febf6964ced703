package exclude

import "testing"

func TestCheck_DefaultsScenario(t *testing.T) {
	r := NewRuleset(nil, nil, true)
	cases := []struct {
		url      string
		excluded bool
		reason   Reason
	}{
		{"https://a.test/x", false, ReasonNone},
		{"https://youtube.com/y", true, ReasonDomain},
		{"https://a.test/x.pdf", true, ReasonExtension},
	}
	excluded := 0
	for _, tc := range cases {
		v := r.Check(tc.url)
		if v.Excluded != tc.excluded || v.Reason != tc.reason {
			t.Fatalf("%s: got %+v, want excluded=%v reason=%q", tc.url, v, tc.excluded, tc.reason)
		}
		if v.Excluded {
			excluded++
		}
	}
	if excluded != 2 {
		t.Fatalf("expected 2 excluded, got %d", excluded)
	}
}

func TestCheck_SubdomainAndCase(t *testing.T) {
	r := NewRuleset([]string{"Example.ORG"}, []string{".TXT"}, false)
	if v := r.Check("https://news.EXAMPLE.org/a"); !v.Excluded || v.Rule != "example.org" {
		t.Fatalf("expected subdomain match, got %+v", v)
	}
	if v := r.Check("https://notexample.org/a"); v.Excluded {
		t.Fatalf("suffix without dot boundary must not match: %+v", v)
	}
	if v := r.Check("https://ok.test/README.Txt"); !v.Excluded || v.Reason != ReasonExtension {
		t.Fatalf("expected extension match, got %+v", v)
	}
	if v := r.Check("https://ok.test/file.txt.html"); v.Excluded {
		t.Fatalf("unexpected extension match: %+v", v)
	}
}

func TestCheck_BareLabelEntries(t *testing.T) {
	r := NewRuleset(nil, nil, true)
	if v := r.Check("https://m.youtube.com/watch?v=1"); !v.Excluded {
		t.Fatalf("expected m.youtube.com excluded")
	}
	if v := r.Check("https://divine.example/"); v.Excluded {
		t.Fatalf("bare label must not match as substring: %+v", v)
	}
}

func TestCheck_Malformed(t *testing.T) {
	r := NewRuleset(nil, nil, false)
	for _, u := range []string{"not a url", "http://%zz", "/relative/path", ""} {
		v := r.Check(u)
		if !v.Excluded || v.Reason != ReasonMalformed {
			t.Fatalf("%q: expected malformed, got %+v", u, v)
		}
	}
}

func TestCheck_UserListsReplaceDefaults(t *testing.T) {
	r := NewRuleset([]string{"blocked.test"}, nil, false)
	if v := r.Check("https://youtube.com/x"); v.Excluded {
		t.Fatalf("defaults should be disabled: %+v", v)
	}
	if v := r.Check("https://a.test/x.pdf"); v.Excluded {
		t.Fatalf("default extensions should be disabled: %+v", v)
	}
	if v := r.Check("https://blocked.test/"); !v.Excluded {
		t.Fatalf("expected user domain to match")
	}
}

func TestCheck_Idempotent(t *testing.T) {
	r := NewRuleset([]string{"x.test"}, []string{"zip"}, true)
	urls := []string{"https://x.test/", "https://y.test/a.zip", "https://y.test/a", "::"}
	for _, u := range urls {
		first := r.Check(u)
		for i := 0; i < 3; i++ {
			if got := r.Check(u); got != first {
				t.Fatalf("%q: verdict changed from %+v to %+v", u, first, got)
			}
		}
	}
}
