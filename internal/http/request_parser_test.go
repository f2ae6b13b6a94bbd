package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"motoinvest/internal/core"
)

func TestParseMonthParams(t *testing.T) {
	today := core.NewDate(2024, 5, 15)
	tests := []struct {
		name      string
		query     string
		wantYear  int
		wantMonth int
		wantErr   bool
	}{
		{"defaults to today", "", 2024, 5, false},
		{"explicit", "year=2023&month=12", 2023, 12, false},
		{"month only", "month=1", 2024, 1, false},
		{"month out of range", "month=13", 0, 0, true},
		{"month zero", "month=0", 0, 0, true},
		{"non-numeric year", "year=abc", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			m, err := ParseMonthParams(q, today)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", m)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.Year != tt.wantYear || m.Month != tt.wantMonth {
				t.Fatalf("got %d-%d, want %d-%d", m.Year, m.Month, tt.wantYear, tt.wantMonth)
			}
		})
	}
}

func TestAmountString(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{`"150,50"`, "150,50", false},
		{`150.5`, "150.5", false},
		{`0`, "0", false},
		{`null`, "", false},
		{`true`, "", true},
	}
	for _, tt := range tests {
		var a amountString
		err := json.Unmarshal([]byte(tt.in), &a)
		if (err != nil) != tt.wantErr {
			t.Fatalf("Unmarshal(%s) error = %v", tt.in, err)
		}
		if !tt.wantErr && string(a) != tt.want {
			t.Errorf("Unmarshal(%s) = %q, want %q", tt.in, a, tt.want)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	tests := []struct {
		name    string
		body    string
		limit   int64
		wantErr bool
	}{
		{"valid", `{"name":"Luz"}`, maxJSONBody, false},
		{"empty", ``, maxJSONBody, true},
		{"unknown field", `{"nome":"Luz"}`, maxJSONBody, true},
		{"trailing data", `{"name":"a"}{"name":"b"}`, maxJSONBody, true},
		{"too large", `{"name":"` + strings.Repeat("x", 64) + `"}`, 16, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := decodeJSON(httptest.NewRecorder(), r, tt.limit, &p)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrBadBody) {
				t.Fatalf("error %v should wrap ErrBadBody", err)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput("  Luz\x00\x07 de maio\n "); got != "Luz de maio" {
		t.Fatalf("sanitizeInput() = %q", got)
	}
}
