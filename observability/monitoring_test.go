package observability

import (
	"fmt"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestMonitor_Refresh(t *testing.T) {
	req := require.New(t)
	m := NewMonitor(logs.GetLoggerFromLevel(slog.LevelDebug))

	// Given some traffic
	m.ResponseAccepted()
	m.ResponseAccepted()
	m.ResponseIgnored()
	m.NotificationDropped()
	m.SubscriptionOpened()
	m.SubscriptionOpened()
	m.SubscriptionClosed()
	m.Published("AB12X9", "s1", "multiple_choice")

	// When stats are refreshed
	stats := m.Refresh()

	// Then counters are reported
	req.Equal(uint64(2), stats.Accepted)
	req.Equal(uint64(1), stats.Ignored)
	req.Equal(uint64(1), stats.Published)
	req.Equal(uint64(1), stats.DroppedNotifications)
	req.Equal(int64(1), stats.Subscriptions)
	req.Len(stats.RecentActivity, 1)
	req.Equal("s1", stats.RecentActivity[0].Slide)
	req.Equal(stats, m.Latest())
}

func TestMonitor_ProcessSampled(t *testing.T) {
	req := require.New(t)
	m := NewMonitor(logs.GetLoggerFromLevel(slog.LevelDebug))

	m.ProcessSampled(12.5, 64*1024*1024)

	stats := m.Refresh()
	req.Equal(12.5, stats.CPUPercent)
	req.Equal(uint64(64), stats.RSSMb)
}

func TestMonitor_RecentActivityIsBounded(t *testing.T) {
	req := require.New(t)
	m := NewMonitor(logs.GetLoggerFromLevel(slog.LevelDebug))

	for i := 0; i < recentActivitySize+5; i++ {
		m.Published("AB12X9", fmt.Sprintf("s%d", i), "word_cloud")
	}

	stats := m.Refresh()
	req.Len(stats.RecentActivity, recentActivitySize)
	req.Equal(fmt.Sprintf("s%d", recentActivitySize+4), stats.RecentActivity[0].Slide)
}
