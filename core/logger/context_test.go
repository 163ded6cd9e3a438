package logger

import (
	"testing"
)

func TestRIDRoundTrip(t *testing.T) {
	rid := BuildRID(42, 7, 9)
	if rid != "42:7:9" {
		t.Fatalf("BuildRID = %q", rid)
	}
	ctx := WithRID(Background(), rid)
	if got := RIDFrom(ctx); got != rid {
		t.Fatalf("RIDFrom = %q, want %q", got, rid)
	}
}

func TestUpdateMetaRoundTrip(t *testing.T) {
	ctx := WithUpdateMeta(Background(), 11, 22, 33)
	if got := UpdateIDFrom(ctx); got != 11 {
		t.Fatalf("UpdateIDFrom = %d", got)
	}
	if got := UserIDFrom(ctx); got != 22 {
		t.Fatalf("UserIDFrom = %d", got)
	}
	if got := ChatIDFrom(ctx); got != 33 {
		t.Fatalf("ChatIDFrom = %d", got)
	}
}

func TestHandlerFrom(t *testing.T) {
	ctx := WithHandler(Background(), "schedule")
	if got := HandlerFrom(ctx); got != "schedule" {
		t.Fatalf("HandlerFrom = %q", got)
	}
	if got := HandlerFrom(Background()); got != "" {
		t.Fatalf("HandlerFrom on empty ctx = %q", got)
	}
}

func TestSanitize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"tabs\tand\nnewlines", "tabs\tand\nnewlines"},
		{"bell\x07char", "bellchar"},
		{"del\x7fchar", "delchar"},
	}
	for _, tc := range cases {
		if got := Sanitize(tc.in); got != tc.want {
			t.Fatalf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("abcdef", 3); got != "abc" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if got := SanitizeLimit("abc", 0); got != "" {
		t.Fatalf("SanitizeLimit with zero max = %q", got)
	}
}

func TestSummarizeStrings(t *testing.T) {
	joined, truncated := SummarizeStrings([]string{"a", "b", "c"}, 2)
	if joined != "a, b" || !truncated {
		t.Fatalf("SummarizeStrings = %q truncated=%v", joined, truncated)
	}
	joined, truncated = SummarizeStrings([]string{"a"}, 2)
	if joined != "a" || truncated {
		t.Fatalf("SummarizeStrings = %q truncated=%v", joined, truncated)
	}
}
