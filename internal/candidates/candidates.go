// Package candidates keeps the ordered, de-duplicated list of URLs waiting
// to be submitted for analysis.
package candidates

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ValidationError explains why a raw input was not accepted as a candidate.
type ValidationError struct {
	Input  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Is matches validation errors by reason so callers can use errors.Is
// against the exported sentinels.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Reason == e.Reason
}

// Sentinel validation failures, in the order they are checked.
var (
	ErrEmpty         = &ValidationError{Reason: "URL cannot be empty."}
	ErrMultipleURLs  = &ValidationError{Reason: "Please enter only one URL at a time (no commas)."}
	ErrContainsSpace = &ValidationError{Reason: "URL must not contain spaces."}
	ErrInvalidScheme = &ValidationError{Reason: "Please enter a valid URL (e.g., http://example.com or https://example.com)."}
)

// ErrIndexOutOfRange is returned by Remove for an index outside the set.
var ErrIndexOutOfRange = errors.New("candidate index out of range")

var schemePattern = regexp.MustCompile(`(?i)^https?://.+`)

// Validate checks raw against the candidate rules and returns the trimmed
// URL. Only the first failing rule is reported.
func Validate(raw string) (string, error) {
	u := strings.TrimSpace(raw)

	switch {
	case u == "":
		return "", withInput(ErrEmpty, raw)
	case strings.Contains(u, ","):
		return "", withInput(ErrMultipleURLs, raw)
	case strings.ContainsAny(u, " \t\r\n\f\v"):
		return "", withInput(ErrContainsSpace, raw)
	case !schemePattern.MatchString(u):
		return "", withInput(ErrInvalidScheme, raw)
	}

	return u, nil
}

func withInput(sentinel *ValidationError, raw string) *ValidationError {
	return &ValidationError{Input: raw, Reason: sentinel.Reason}
}

// Set is an insertion-ordered set of validated URLs. The zero value is
// ready to use. A Set is not safe for concurrent use.
type Set struct {
	index map[string]struct{}
	urls  []string
}

// New returns an empty Set.
func New() *Set {
	return &Set{}
}

// Add validates raw and appends it. Adding a URL that is already present
// succeeds without changing the set.
func (s *Set) Add(raw string) error {
	u, err := Validate(raw)
	if err != nil {
		return err
	}

	s.insert(u)

	return nil
}

// Merge adds every valid URL in urls and returns how many were new.
// Invalid entries are skipped.
func (s *Set) Merge(urls []string) int {
	added := 0

	for _, raw := range urls {
		u, err := Validate(raw)
		if err != nil {
			continue
		}

		if s.insert(u) {
			added++
		}
	}

	return added
}

// Remove deletes the URL at position i.
func (s *Set) Remove(i int) error {
	if i < 0 || i >= len(s.urls) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(s.urls))
	}

	delete(s.index, s.urls[i])
	s.urls = append(s.urls[:i], s.urls[i+1:]...)

	return nil
}

// Clear empties the set.
func (s *Set) Clear() {
	s.urls = nil
	s.index = nil
}

// URLs returns a copy of the pending URLs in insertion order.
func (s *Set) URLs() []string {
	out := make([]string, len(s.urls))
	copy(out, s.urls)

	return out
}

// Len returns the number of pending URLs.
func (s *Set) Len() int {
	return len(s.urls)
}

// Contains reports whether u is pending.
func (s *Set) Contains(u string) bool {
	_, ok := s.index[strings.TrimSpace(u)]
	return ok
}

func (s *Set) insert(u string) bool {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}

	if _, ok := s.index[u]; ok {
		return false
	}

	s.index[u] = struct{}{}
	s.urls = append(s.urls, u)

	return true
}
