// classify.go — Per-request disposition: Block, Cacheable or PassThrough.
// Pure functions over the request; no state beyond the configured rule
// sets. Caching must never mask authentication flows or serve stale
// search/recommendation results, so anything matching those patterns is
// passed through even when a cached copy exists.
package classify

import (
	"net/url"
	"strings"
)

// Disposition is the three-way classification outcome.
type Disposition int

const (
	// PassThrough forwards the request unmodified. The safe default for
	// anything matching no explicit rule.
	PassThrough Disposition = iota
	// Block aborts the request without any upstream call.
	Block
	// Cacheable routes the request through the cache and dedup layers.
	Cacheable
)

// String implements fmt.Stringer for logs and test failures.
func (d Disposition) String() string {
	switch d {
	case Block:
		return "block"
	case Cacheable:
		return "cacheable"
	default:
		return "pass-through"
	}
}

// Request is the slice of an intercepted request the filter looks at.
// ResourceType carries the browser's resource classification tag
// (document, script, image, stylesheet, font, media, xhr, ...).
type Request struct {
	Method       string
	URL          string
	ResourceType string
}

// Defaults shared by every target. Scenario profiles extend, never
// replace, these sets.
var (
	defaultBlockedTypes = []string{"image", "stylesheet", "font", "media"}

	defaultBlockedDomains = []string{
		"doubleclick.net",
		"google-analytics.com",
		"googletagmanager.com",
		"googlesyndication.com",
		"facebook.net",
		"connect.facebook.com",
		"hotjar.com",
		"mixpanel.com",
		"segment.io",
		"adservice",
	}

	defaultAuthSegments = []string{"login", "signin", "logout", "auth"}
	defaultAuthParams   = []string{"token", "session", "auth"}

	defaultVolatileMarkers = []string{"api", "suggestions", "search", "recommendations"}
)

// Options configure a Filter beyond the built-in defaults.
type Options struct {
	// DomainBlocking toggles the blocked-domain substring check. The
	// resource-type check always applies.
	DomainBlocking bool
	// ExtraBlockedDomains extends the default tracker/ad substrings.
	ExtraBlockedDomains []string
	// ExtraVolatileMarkers extends the dynamic-content path markers for
	// the current target (supplied by the calling test scenario).
	ExtraVolatileMarkers []string
	// ExtraAuthParams extends the sensitive query parameter names.
	ExtraAuthParams []string
}

// Filter decides dispositions for intercepted requests. Immutable after
// construction; swap in a new Filter to change rules mid-run.
type Filter struct {
	domainBlocking  bool
	blockedTypes    map[string]struct{}
	blockedDomains  []string
	authSegments    []string
	authParams      map[string]struct{}
	volatileMarkers []string
}

// NewFilter builds a filter from the defaults plus opts.
func NewFilter(opts Options) *Filter {
	f := &Filter{
		domainBlocking: opts.DomainBlocking,
		blockedTypes:   make(map[string]struct{}, len(defaultBlockedTypes)),
		authParams:     make(map[string]struct{}),
	}
	for _, t := range defaultBlockedTypes {
		f.blockedTypes[t] = struct{}{}
	}
	f.blockedDomains = appendLowered(f.blockedDomains, defaultBlockedDomains)
	f.blockedDomains = appendLowered(f.blockedDomains, opts.ExtraBlockedDomains)
	f.authSegments = appendLowered(f.authSegments, defaultAuthSegments)
	for _, p := range defaultAuthParams {
		f.authParams[p] = struct{}{}
	}
	for _, p := range opts.ExtraAuthParams {
		f.authParams[strings.ToLower(p)] = struct{}{}
	}
	f.volatileMarkers = appendLowered(f.volatileMarkers, defaultVolatileMarkers)
	f.volatileMarkers = appendLowered(f.volatileMarkers, opts.ExtraVolatileMarkers)
	return f
}

func appendLowered(dst []string, src []string) []string {
	for _, s := range src {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			dst = append(dst, s)
		}
	}
	return dst
}

// Classify returns the disposition for req. Ambiguity (unparseable
// URLs, unknown shapes) defaults to PassThrough.
func (f *Filter) Classify(req Request) Disposition {
	if f.isBlocked(req) {
		return Block
	}
	if f.isCacheable(req) {
		return Cacheable
	}
	return PassThrough
}

// isBlocked applies the resource-type and blocked-domain rules.
func (f *Filter) isBlocked(req Request) bool {
	if _, ok := f.blockedTypes[strings.ToLower(req.ResourceType)]; ok {
		return true
	}
	if !f.domainBlocking {
		return false
	}
	lowered := strings.ToLower(req.URL)
	for _, domain := range f.blockedDomains {
		if strings.Contains(lowered, domain) {
			return true
		}
	}
	return false
}

// isCacheable applies the method, scheme, sensitivity and volatility
// rules to a request that is not blocked.
func (f *Filter) isCacheable(req Request) bool {
	if !strings.EqualFold(req.Method, "GET") {
		return false
	}
	lowered := strings.ToLower(req.URL)
	if strings.HasPrefix(lowered, "data:") || strings.HasPrefix(lowered, "blob:") {
		return false
	}

	parsed, err := url.Parse(req.URL)
	if err != nil {
		return false
	}
	path := strings.ToLower(parsed.Path)

	for _, segment := range strings.Split(path, "/") {
		for _, auth := range f.authSegments {
			if strings.Contains(segment, auth) {
				return false
			}
		}
	}
	for param := range parsed.Query() {
		if _, ok := f.authParams[strings.ToLower(param)]; ok {
			return false
		}
	}
	// Volatile markers match anywhere in the URL. Over-matching only
	// costs a cache miss; under-matching would serve stale dynamic
	// content that tests assert on.
	for _, marker := range f.volatileMarkers {
		if strings.Contains(lowered, marker) {
			return false
		}
	}
	return true
}
