package observability

import (
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

const recentActivitySize = 20

type Activity struct {
	Session   string `json:"session"`
	Slide     string `json:"slide,omitempty"`
	Kind      string `json:"kind"`
	Timestamp string `json:"timestamp"`
}

// Stats is the live view served to operators.
type Stats struct {
	Accepted             uint64     `json:"accepted"`
	Ignored              uint64     `json:"ignored"`
	Published            uint64     `json:"published"`
	DroppedNotifications uint64     `json:"dropped_notifications"`
	Subscriptions        int64      `json:"subscriptions"`
	ResponsesPerSecond   float64    `json:"responses_per_second"`
	AllocMemMb           uint64     `json:"alloc_mem_mb"`
	NumGC                uint32     `json:"num_gc"`
	CPUPercent           float64    `json:"cpu_percent"`
	RSSMb                uint64     `json:"rss_mb"`
	RecentActivity       []Activity `json:"recent_activity"`
}

// Monitor keeps process-local counters next to the prometheus ones so they can
// be read back without scraping.
type Monitor struct {
	log    *slog.Logger
	mu     sync.RWMutex
	latest Stats

	accepted      uint64
	ignored       uint64
	published     uint64
	dropped       uint64
	subscriptions int64
	window        uint64
	lastCheck     time.Time
}

func NewMonitor(log *slog.Logger) *Monitor {
	return &Monitor{
		log:       log,
		lastCheck: time.Now(),
		latest:    Stats{RecentActivity: make([]Activity, 0)},
	}
}

func (m *Monitor) ResponseAccepted() {
	atomic.AddUint64(&m.accepted, 1)
	atomic.AddUint64(&m.window, 1)
	Responses.WithLabelValues("accepted").Inc()
}

func (m *Monitor) ResponseIgnored() {
	atomic.AddUint64(&m.ignored, 1)
	Responses.WithLabelValues("ignored").Inc()
}

func (m *Monitor) NotificationDropped() {
	atomic.AddUint64(&m.dropped, 1)
	NotificationsDropped.Inc()
}

func (m *Monitor) SubscriptionOpened() {
	atomic.AddInt64(&m.subscriptions, 1)
	ActiveSubscriptions.Inc()
}

func (m *Monitor) SubscriptionClosed() {
	atomic.AddInt64(&m.subscriptions, -1)
	ActiveSubscriptions.Dec()
}

// Published records a publish in the recent activity list, newest first.
func (m *Monitor) Published(session, slide, kind string) {
	atomic.AddUint64(&m.published, 1)
	PromptsPublished.WithLabelValues(kind).Inc()

	m.mu.Lock()
	defer m.mu.Unlock()
	entry := Activity{Session: session, Slide: slide, Kind: kind, Timestamp: time.Now().Format("15:04:05")}
	m.latest.RecentActivity = append([]Activity{entry}, m.latest.RecentActivity...)
	if len(m.latest.RecentActivity) > recentActivitySize {
		m.latest.RecentActivity = m.latest.RecentActivity[:recentActivitySize]
	}
}

// Refresh recomputes rates and memory figures.
func (m *Monitor) Refresh() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if elapsed := now.Sub(m.lastCheck).Seconds(); elapsed > 0 {
		m.latest.ResponsesPerSecond = float64(atomic.SwapUint64(&m.window, 0)) / elapsed
	}
	m.lastCheck = now

	m.latest.Accepted = atomic.LoadUint64(&m.accepted)
	m.latest.Ignored = atomic.LoadUint64(&m.ignored)
	m.latest.Published = atomic.LoadUint64(&m.published)
	m.latest.DroppedNotifications = atomic.LoadUint64(&m.dropped)
	m.latest.Subscriptions = atomic.LoadInt64(&m.subscriptions)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	m.latest.AllocMemMb = mem.Alloc / 1024 / 1024
	m.latest.NumGC = mem.NumGC

	m.log.Debug("Stats refreshed",
		"accepted", m.latest.Accepted,
		"responses_per_second", m.latest.ResponsesPerSecond,
		"subscriptions", m.latest.Subscriptions,
		"mem_mb", m.latest.AllocMemMb,
	)
	return m.snapshot()
}

// ProcessSampled stores the OS view of the process, taken by the reporter.
func (m *Monitor) ProcessSampled(cpuPercent float64, rssBytes uint64) {
	ProcessCPU.Set(cpuPercent)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest.CPUPercent = cpuPercent
	m.latest.RSSMb = rssBytes / 1024 / 1024
}

func (m *Monitor) Latest() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot()
}

func (m *Monitor) snapshot() Stats {
	s := m.latest
	s.RecentActivity = append([]Activity(nil), m.latest.RecentActivity...)
	return s
}
