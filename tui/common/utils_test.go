package common

import "testing"

func TestTruncate(t *testing.T) {
	if got := Truncate("hello world", 6); got != "hello…" {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("short text should be untouched: %q", got)
	}
	if got := Truncate("anything", 0); got != "" {
		t.Fatalf("zero width should be empty: %q", got)
	}
}

func TestOneLine(t *testing.T) {
	if got := OneLine("  a\nb \t c  "); got != "a b c" {
		t.Fatalf("unexpected one-line form: %q", got)
	}
}

func TestPlural(t *testing.T) {
	if Plural(1, "vote", "votes") != "1 vote" || Plural(3, "vote", "votes") != "3 votes" {
		t.Fatalf("unexpected plural forms")
	}
}
