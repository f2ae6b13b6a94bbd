// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

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

	"motoinvest/internal/core"
)

const (
	maxJSONBody = 1 << 20
	maxChatBody = 4 * (10 << 20) // a few base64 images
)

var ErrBadBody = errors.New("invalid request body")

// ParseMonthParams extracts year and month from query parameters, using the
// month of today for missing values. Out-of-range values are an error.
func ParseMonthParams(query url.Values, today core.Date) (core.Month, error) {
	year, month := today.Year(), today.Month()
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return core.Month{}, fmt.Errorf("year %q: %w", v, core.ErrInvalidMonth)
		}
		year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return core.Month{}, fmt.Errorf("month %q: %w", v, core.ErrInvalidMonth)
		}
		month = m
	}
	return core.NewMonth(year, month)
}

// decodeJSON reads one JSON object of at most limit bytes into dst. Unknown
// fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	body := http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrBadBody)
		}
		return fmt.Errorf("%w: %w", ErrBadBody, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", ErrBadBody)
	}
	return nil
}

// sanitizeInput removes control characters except tab, newline and carriage
// return and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// amountString accepts a JSON number or string amount and returns it as text
// for the decimal parser.
type amountString string

func (a *amountString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountString(s)
		return nil
	}
	if string(b) == "null" {
		*a = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return core.ErrInvalidAmount
	}
	*a = amountString(n.String())
	return nil
}
