package daily

import (
	"testing"
	"time"
)

func TestDateKeyUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	ts := time.Date(2024, 3, 2, 5, 0, 0, 0, loc) // 2024-03-01 19:00 UTC
	if got := DateKey(ts); got != "2024-03-01" {
		t.Fatalf("expected 2024-03-01, got %s", got)
	}
}

func TestSeedStablePerDay(t *testing.T) {
	morning := time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)
	next := time.Date(2024, 3, 2, 1, 0, 0, 0, time.UTC)

	a := Seed(morning, "salt")
	if a <= 0 {
		t.Fatalf("expected positive seed, got %d", a)
	}
	if b := Seed(evening, "salt"); a != b {
		t.Fatalf("same day gave different seeds %d and %d", a, b)
	}
	if c := Seed(next, "salt"); a == c {
		t.Fatal("next day reused the seed")
	}
	if d := Seed(morning, "other"); a == d {
		t.Fatal("different salt reused the seed")
	}
}
