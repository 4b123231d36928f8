package repository

import (
	"testing"
	"time"
)

func TestNormalizeTimeframe(t *testing.T) {
	if got := NormalizeTimeframe(""); got != TF1Hour {
		t.Fatalf("expected default 1Hour, got %s", got)
	}
	if got := NormalizeTimeframe("1Day"); got != TF1Day {
		t.Fatalf("expected 1Day, got %s", got)
	}
	if got := NormalizeTimeframe("7Min"); got != TF1Hour {
		t.Fatalf("expected fallback to 1Hour, got %s", got)
	}
	if TF15Min.Step() != 15*time.Minute || TF1Hour.Step() != time.Hour {
		t.Fatalf("unexpected steps")
	}
}
