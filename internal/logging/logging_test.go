package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestOrDefaultReturnsGivenLogger(t *testing.T) {
	l := slog.Default()
	if OrDefault(l) != l {
		t.Fatal("expected OrDefault to return the given logger")
	}
}

func TestOrDefaultFallsBackWhenNil(t *testing.T) {
	if OrDefault(nil) == nil {
		t.Fatal("expected OrDefault(nil) to return a non-nil logger")
	}
}

func TestDetectorCallDoesNotPanic(t *testing.T) {
	DetectorCall(context.Background(), nil, "ATTRACTOR_DOGMATISM", "p1", true, 0.5)
}

func TestAnalyticCallDoesNotPanic(t *testing.T) {
	AnalyticCall(context.Background(), nil, "coordination_clusters", slog.Int("bucket_count", 3))
}
