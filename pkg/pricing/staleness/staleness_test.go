package staleness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		lastUpdated time.Time
		want        Level
	}{
		{"just updated", now, Fresh},
		{"six days old", now.Add(-6 * 24 * time.Hour), Fresh},
		{"exactly one week", now.Add(-7 * 24 * time.Hour), Fresh},
		{"just past one week", now.Add(-7*24*time.Hour - time.Second), Stale},
		{"two weeks old", now.Add(-14 * 24 * time.Hour), Stale},
		{"exactly thirty days", now.Add(-30 * 24 * time.Hour), Stale},
		{"just past thirty days", now.Add(-30*24*time.Hour - time.Second), Outdated},
		{"months old", now.Add(-90 * 24 * time.Hour), Outdated},
		{"never priced", time.Time{}, Outdated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.lastUpdated, now))
		})
	}
}
