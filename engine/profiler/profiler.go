// Package profiler aggregates frame timings and memory statistics and logs them periodically.
package profiler

import (
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Sample describes one rendered frame.
type Sample struct {
	FrameTime time.Duration
	Draws     int
}

// Report summarizes the frames of one interval.
type Report struct {
	Frames      int
	FPS         float64
	AvgFrame    time.Duration
	MaxFrame    time.Duration
	AvgDraws    float64
	HeapMB      float64
	SysMB       float64
	AllocRateMB float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
}

// Profiler tracks frame rate and memory statistics for performance monitoring.
// Stats are logged at Info once per interval.
type Profiler struct {
	logger   *zap.Logger
	interval time.Duration
	now      func() time.Time

	start      time.Time
	frames     int
	frameTotal time.Duration
	frameMax   time.Duration
	draws      int

	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// ProfilerOption is a functional option applied to a Profiler during construction.
type ProfilerOption func(*Profiler)

// WithInterval sets how often a report is produced. The default is one second.
func WithInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithLogger sets the logger reports are written to.
func WithLogger(logger *zap.Logger) ProfilerOption {
	return func(p *Profiler) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		if now != nil {
			p.now = now
		}
	}
}

// NewProfiler creates a Profiler.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Profiler: the profiler, with its interval starting now
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		logger:   zap.NewNop(),
		interval: time.Second,
		now:      time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.start = p.now()
	runtime.ReadMemStats(&p.memStats)
	p.lastGCCount = p.memStats.NumGC
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return p
}

// Tick records one frame. When the interval has elapsed it logs and returns a report and
// starts a new interval.
//
// Parameters:
//   - s: the frame sample
//
// Returns:
//   - Report: the interval report, zero when none was produced
//   - bool: whether a report was produced this tick
func (p *Profiler) Tick(s Sample) (Report, bool) {
	p.frames++
	p.frameTotal += s.FrameTime
	p.frameMax = max(p.frameMax, s.FrameTime)
	p.draws += s.Draws

	now := p.now()
	elapsed := now.Sub(p.start)
	if elapsed < p.interval {
		return Report{}, false
	}

	r := Report{
		Frames:   p.frames,
		FPS:      float64(p.frames) / elapsed.Seconds(),
		AvgFrame: p.frameTotal / time.Duration(p.frames),
		MaxFrame: p.frameMax,
		AvgDraws: float64(p.draws) / float64(p.frames),
	}
	p.readMemory(&r, elapsed)

	p.logger.Info("frame stats",
		zap.Float64("fps", r.FPS),
		zap.Duration("avg_frame", r.AvgFrame),
		zap.Duration("max_frame", r.MaxFrame),
		zap.Float64("avg_draws", r.AvgDraws),
		zap.Float64("heap_mb", r.HeapMB),
		zap.Float64("alloc_rate_mb", r.AllocRateMB),
		zap.Uint32("gc", r.GCCount),
		zap.Uint64("gc_last_pause_us", r.LastPauseUs),
		zap.Uint64("gc_max_pause_us", r.MaxPauseUs),
		zap.Float64("sys_mb", r.SysMB),
	)

	p.start = now
	p.frames = 0
	p.frameTotal = 0
	p.frameMax = 0
	p.draws = 0
	return r, true
}

func (p *Profiler) readMemory(r *Report, elapsed time.Duration) {
	runtime.ReadMemStats(&p.memStats)
	r.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	r.SysMB = float64(p.memStats.Sys) / 1024 / 1024
	r.AllocRateMB = float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 pauses.
	gc := p.memStats.NumGC
	r.GCCount = gc
	if gc > 0 {
		r.LastPauseUs = p.memStats.PauseNs[(gc-1)%256] / 1000
		from := p.lastGCCount
		if gc-from > 256 {
			from = gc - 256
		}
		for i := from; i < gc; i++ {
			r.MaxPauseUs = max(r.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}
	p.lastGCCount = gc
	p.lastTotalAlloc = p.memStats.TotalAlloc
}
