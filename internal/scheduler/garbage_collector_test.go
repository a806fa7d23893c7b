package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/MrSnakeDoc/applink/internal/domain"
	"github.com/MrSnakeDoc/applink/internal/index"
	"github.com/MrSnakeDoc/applink/internal/logger"
)

func TestGarbageCollector_Collect(t *testing.T) {
	log := logger.New("error", false)
	memIndex := index.NewMemoryIndex()

	now := time.Now()
	memIndex.UpdateApps([]*domain.App{
		{Scheme: "spotify", Sources: []string{"file"}, UpdatedAt: now},
		{Scheme: "slack", Sources: []string{"file"}, Disabled: true, UpdatedAt: now.Add(-10 * 24 * time.Hour)},
		{Scheme: "zoommtg", Sources: []string{"file"}, Disabled: true, UpdatedAt: now.Add(-35 * 24 * time.Hour)},
	})

	link := &domain.AppLink{SourceURL: "https://example.com", WebURL: "https://example.com"}
	_ = memIndex.SaveLink(context.Background(), "expired", link, -time.Second)
	_ = memIndex.SaveLink(context.Background(), "fresh", link, time.Hour)

	gc := NewGarbageCollector(nil, memIndex, log, 24*time.Hour, 30*24*time.Hour)

	if err := gc.Collect(context.Background()); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if got := memIndex.Count(); got != 2 {
		t.Errorf("Expected 2 apps after GC, got %d", got)
	}
	if _, ok := memIndex.GetApp("spotify"); !ok {
		t.Error("Active app was incorrectly removed")
	}
	if _, ok := memIndex.GetApp("slack"); !ok {
		t.Error("Recently disabled app was incorrectly removed")
	}
	if _, ok := memIndex.GetApp("zoommtg"); ok {
		t.Error("Old disabled app was not removed")
	}
	if got := memIndex.LinkCount(); got != 1 {
		t.Errorf("Expected 1 cached link after GC, got %d", got)
	}
}
