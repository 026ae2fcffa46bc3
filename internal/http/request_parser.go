// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for parsing and validating HTTP request data:
// query parameters, path variables and JSON bodies.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"cashcast/internal/core"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// ErrMalformedRequest marks input that could not be parsed at all. Handlers
// answer it with 400; parsed but invalid input gets 422.
var ErrMalformedRequest = errors.New("malformed request")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedRequest, fmt.Sprintf(format, args...))
}

// ParseMonthParam reads a YYYY-MM query parameter, returning fallback when it
// is absent.
func ParseMonthParam(query url.Values, key string, fallback core.Period) (core.Period, error) {
	v := sanitizeInput(query.Get(key))
	if v == "" {
		return fallback, nil
	}
	p, err := core.ParsePeriod(v)
	if err != nil {
		return core.Period{}, malformed("%s must be YYYY-MM", key)
	}
	return p, nil
}

// ParseIntParam reads an integer query parameter, returning fallback when it
// is absent.
func ParseIntParam(query url.Values, key string, fallback int) (int, error) {
	v := sanitizeInput(query.Get(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, malformed("%s must be an integer", key)
	}
	return n, nil
}

// ParseBoolParam reads a boolean query parameter; anything unparsable is false.
func ParseBoolParam(query url.Values, key string) bool {
	b, err := strconv.ParseBool(sanitizeInput(query.Get(key)))
	return err == nil && b
}

// ParseIDVar reads a positive integer path variable.
func ParseIDVar(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, malformed("%s must be a positive integer", name)
	}
	return id, nil
}

// DecodeJSON decodes a single JSON object from the request body into v.
// Unknown fields and trailing data are rejected. An empty body is an error
// unless allowEmpty is set, in which case v is left untouched.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF) && allowEmpty:
			return nil
		case errors.Is(err, io.EOF):
			return malformed("request body is empty")
		case errors.As(err, &maxErr):
			return malformed("request body exceeds %d bytes", maxErr.Limit)
		default:
			return malformed("invalid JSON body: %v", err)
		}
	}
	if dec.More() {
		return malformed("request body must contain a single JSON object")
	}
	return nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
