package exportsync

import (
	"net/url"
	"strings"
)

// Candidate is a link selected for download and upload.
type Candidate struct {
	URL      string
	Filename string
}

// Matcher decides which links are candidates.
type Matcher struct {
	// Keyword must appear in the resolved URL.
	Keyword string

	// BaseURL resolves relative links.
	BaseURL string

	// IgnoreCase makes the keyword comparison case-insensitive.
	IgnoreCase bool
}

// Match resolves rawURL against the base URL and returns a Candidate when
// the result contains the keyword. It returns (nil, nil) for links that do
// not match, and an ENAMING error for matching links whose filename is
// empty or unsafe.
func (m *Matcher) Match(rawURL string) (*Candidate, error) {
	ref, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, Errorf(ENAMING, "invalid link %q: %v", rawURL, err)
	}
	if m.BaseURL != "" {
		base, err := url.Parse(m.BaseURL)
		if err != nil {
			return nil, Errorf(EINVALID, "invalid base URL %q: %v", m.BaseURL, err)
		}
		ref = base.ResolveReference(ref)
	}

	resolved := ref.String()
	if !m.contains(resolved) {
		return nil, nil
	}

	name, err := Filename(ref)
	if err != nil {
		return nil, err
	}
	return &Candidate{URL: resolved, Filename: name}, nil
}

func (m *Matcher) contains(s string) bool {
	if m.Keyword == "" {
		return false
	}
	if m.IgnoreCase {
		return strings.Contains(strings.ToLower(s), strings.ToLower(m.Keyword))
	}
	return strings.Contains(s, m.Keyword)
}

// Filename derives a local filename from the final segment of u's path.
// The segment is percent-decoded before it is checked, so encoded
// separators and dot segments cannot smuggle a traversal past the check.
// Names ending in PartialSuffix are refused.
func Filename(u *url.URL) (string, error) {
	escaped := u.EscapedPath()
	segment := escaped[strings.LastIndex(escaped, "/")+1:]

	name, err := url.PathUnescape(segment)
	if err != nil {
		return "", Errorf(ENAMING, "cannot decode filename in %s: %v", u, err)
	}
	name = strings.TrimSpace(name)

	switch {
	case name == "":
		return "", Errorf(ENAMING, "empty filename in %s", u)
	case name == ".", strings.Contains(name, ".."):
		return "", Errorf(ENAMING, "unsafe filename %q in %s", name, u)
	case strings.ContainsAny(name, "/\\\x00"):
		return "", Errorf(ENAMING, "unsafe filename %q in %s", name, u)
	case strings.HasSuffix(name, PartialSuffix):
		// Reserved for in-flight downloads, which CleanPartials removes.
		return "", Errorf(ENAMING, "reserved filename %q in %s", name, u)
	}
	return name, nil
}
