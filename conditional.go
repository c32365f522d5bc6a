package main

import (
	"net/http"
	"time"
)

type Freshness int

const (
	MustSend Freshness = iota
	NotModified
)

// EvaluateConditional compares a resource modification time against an
// If-Modified-Since value. A value that does not parse as an HTTP-date is
// ignored.
func EvaluateConditional(modTime time.Time, ifModifiedSince string, present bool) Freshness {
	if !present {
		return MustSend
	}
	since, err := parseHTTPDate(ifModifiedSince)
	if err != nil {
		return MustSend
	}
	if modTime.After(since) {
		return MustSend
	}
	return NotModified
}

// Besides the HTTP-date forms, numeric zones and the UTC abbreviation are
// accepted, as mail-style date parsers do.
var extraDateLayouts = []string{time.RFC1123Z, time.RFC1123}

func parseHTTPDate(s string) (time.Time, error) {
	t, err := http.ParseTime(s)
	if err == nil {
		return t, nil
	}
	for _, layout := range extraDateLayouts {
		if t, lerr := time.Parse(layout, s); lerr == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

func formatHTTPDate(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}
