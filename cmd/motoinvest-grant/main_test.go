package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"motoinvest/internal/storage/memory"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr string
	}{
		{"defaults", []string{"-email", " moto@example.com "}, options{email: "moto@example.com", days: 30}, ""},
		{"custom days", []string{"-email=a@b.co", "-days=90"}, options{email: "a@b.co", days: 90}, ""},
		{"missing email", []string{"-days=5"}, options{}, "-email"},
		{"zero days", []string{"-email=a@b.co", "-days=0"}, options{}, "must be between"},
		{"unknown flag", []string{"-force"}, options{}, "flag provided but not defined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseArgs(tt.args, &bytes.Buffer{})
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseArgs: %v", err)
			}
			if got != tt.want {
				t.Errorf("parseArgs = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGrant(t *testing.T) {
	st := memory.New()
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	rec, err := grant(context.Background(), st, options{email: "Moto@Example.com", days: 30}, now)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if !rec.ExpiresAt.Equal(now.AddDate(0, 0, 30)) {
		t.Errorf("ExpiresAt = %v", rec.ExpiresAt)
	}

	got, err := st.GetAuthorization(context.Background(), "moto@example.com")
	if err != nil {
		t.Fatalf("GetAuthorization: %v", err)
	}
	if !got.ExpiresAt.Equal(rec.ExpiresAt) {
		t.Errorf("stored ExpiresAt = %v, want %v", got.ExpiresAt, rec.ExpiresAt)
	}

	if _, err := grant(context.Background(), st, options{email: "moto@example.com", days: 60}, now); err != nil {
		t.Fatalf("extend: %v", err)
	}
	got, _ = st.GetAuthorization(context.Background(), "moto@example.com")
	if !got.ExpiresAt.Equal(now.AddDate(0, 0, 60)) {
		t.Errorf("extended ExpiresAt = %v", got.ExpiresAt)
	}
}
