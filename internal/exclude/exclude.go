package exclude

import (
	"net/url"
	"strings"
)

// Reason names the rule that rejected a URL.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonDomain    Reason = "excluded_domain"
	ReasonExtension Reason = "excluded_extension"
	ReasonMalformed Reason = "malformed"
)

// Verdict is the outcome of checking one URL against a Ruleset.
type Verdict struct {
	Excluded bool
	Reason   Reason
	// Rule is the matching domain or extension entry, empty when not excluded
	// or when the URL was malformed.
	Rule string
}

// Ruleset holds the blocked domains and file extensions. It is built once and
// never mutated afterwards, so concurrent Check calls are safe.
type Ruleset struct {
	domains    map[string]struct{}
	extensions map[string]struct{}
}

// NewRuleset builds a Ruleset from user supplied lists. When useDefaults is
// true the user lists are added to DefaultDomains and DefaultExtensions,
// otherwise they replace them.
func NewRuleset(domains, extensions []string, useDefaults bool) *Ruleset {
	r := &Ruleset{
		domains:    make(map[string]struct{}),
		extensions: make(map[string]struct{}),
	}
	if useDefaults {
		r.addDomains(DefaultDomains)
		r.addExtensions(DefaultExtensions)
	}
	r.addDomains(domains)
	r.addExtensions(extensions)
	return r
}

func (r *Ruleset) addDomains(list []string) {
	for _, d := range list {
		d = strings.Trim(strings.ToLower(strings.TrimSpace(d)), ".")
		if d != "" {
			r.domains[d] = struct{}{}
		}
	}
}

func (r *Ruleset) addExtensions(list []string) {
	for _, e := range list {
		e = strings.TrimLeft(strings.ToLower(strings.TrimSpace(e)), ".")
		if e != "" {
			r.extensions[e] = struct{}{}
		}
	}
}

// Len reports the number of domain and extension entries.
func (r *Ruleset) Len() (domains, extensions int) {
	return len(r.domains), len(r.extensions)
}

// Check decides whether rawURL is rejected before any network access. Domain
// rules are evaluated before extension rules.
func (r *Ruleset) Check(rawURL string) Verdict {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Verdict{Excluded: true, Reason: ReasonMalformed}
	}
	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return Verdict{Excluded: true, Reason: ReasonMalformed}
	}
	if rule, ok := r.matchDomain(host); ok {
		return Verdict{Excluded: true, Reason: ReasonDomain, Rule: rule}
	}
	if rule, ok := r.matchExtension(u.Path); ok {
		return Verdict{Excluded: true, Reason: ReasonExtension, Rule: rule}
	}
	return Verdict{}
}

// matchDomain tests the host and each parent domain against dotted entries,
// and each single label against bare entries such as "youtube".
func (r *Ruleset) matchDomain(host string) (string, bool) {
	if len(r.domains) == 0 {
		return "", false
	}
	for h := host; h != ""; {
		if _, ok := r.domains[h]; ok {
			return h, true
		}
		i := strings.IndexByte(h, '.')
		if i < 0 {
			break
		}
		h = h[i+1:]
	}
	for _, label := range strings.Split(host, ".") {
		if _, ok := r.domains[label]; ok {
			return label, true
		}
	}
	return "", false
}

func (r *Ruleset) matchExtension(path string) (string, bool) {
	if len(r.extensions) == 0 {
		return "", false
	}
	p := strings.ToLower(path)
	dot := strings.LastIndexByte(p, '.')
	if dot < 0 || strings.IndexByte(p[dot:], '/') >= 0 {
		return "", false
	}
	// Extensions may themselves contain dots, so walk every dot in the last
	// path segment rather than only the final one.
	seg := p[strings.LastIndexByte(p, '/')+1:]
	for i := 0; i < len(seg); i++ {
		if seg[i] != '.' {
			continue
		}
		if _, ok := r.extensions[seg[i+1:]]; ok {
			return seg[i+1:], true
		}
	}
	return "", false
}
