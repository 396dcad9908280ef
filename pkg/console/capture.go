package console

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/getmockd/gqldevkit/internal/fanout"
	"github.com/getmockd/gqldevkit/pkg/logging"
	"github.com/getmockd/gqldevkit/pkg/metrics"
)

// DefaultBufferSize is the number of lines kept when no size is configured.
const DefaultBufferSize = 1000

// maxLineLength splits runaway lines that never see a newline.
const maxLineLength = 64 << 10

// Stream names the standard stream a line was written to.
type Stream string

// Streams.
const (
	Stdout Stream = "stdout"
	Stderr Stream = "stderr"
)

// Line is one captured line of output.
type Line struct {
	Window   uint64    `json:"window"`
	Sequence uint64    `json:"sequence"`
	Stream   Stream    `json:"stream"`
	Text     string    `json:"text"`
	Time     time.Time `json:"time"`
}

// Subscription is a live feed of captured lines.
type Subscription = fanout.Subscription[Line]

type target struct {
	stream Stream
	file   **os.File
}

type redirect struct {
	target
	orig *os.File
	r, w *os.File
}

// Option configures a Capture.
type Option func(*Capture)

// WithBufferSize sets how many lines are retained.
func WithBufferSize(n int) Option {
	return func(c *Capture) {
		if n > 0 {
			c.max = n
		}
	}
}

// WithTargets replaces the redirected file variables. Tests point these at
// their own files instead of the process streams.
func WithTargets(stdout, stderr **os.File) Option {
	return func(c *Capture) {
		c.targets = nil
		if stdout != nil {
			c.targets = append(c.targets, target{stream: Stdout, file: stdout})
		}
		if stderr != nil {
			c.targets = append(c.targets, target{stream: Stderr, file: stderr})
		}
	}
}

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Capture) { c.log = logging.OrNop(log) }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Capture) { c.metrics = m }
}

// WithSubscriberBuffer sets how many lines a subscriber may have queued
// before it is dropped.
func WithSubscriberBuffer(n int) Option {
	return func(c *Capture) { c.subBuf = n }
}

// Capture redirects standard streams on demand.
type Capture struct {
	// toggle serializes Enable and Disable.
	toggle sync.Mutex
	active []*redirect
	pumps  sync.WaitGroup

	mu      sync.RWMutex
	enabled bool
	window  uint64
	seq     uint64
	lines   []Line
	max     int
	hub     *fanout.Hub[Line]

	targets []target
	subBuf  int
	log     *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates a disabled Capture.
func New(opts ...Option) *Capture {
	c := &Capture{
		max: DefaultBufferSize,
		targets: []target{
			{stream: Stdout, file: &os.Stdout},
			{stream: Stderr, file: &os.Stderr},
		},
		log: logging.Nop(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.lines = make([]Line, 0, c.max)
	c.hub = fanout.NewHub[Line](c.subBuf, func() {
		c.metrics.ObserveSubscriberDropped(metrics.StreamConsole)
	})
	return c
}

// Enable starts capturing. It is a no-op when already enabled.
func (c *Capture) Enable() error {
	c.toggle.Lock()
	defer c.toggle.Unlock()

	if c.Enabled() {
		return nil
	}

	redirects := make([]*redirect, 0, len(c.targets))
	for _, t := range c.targets {
		r, w, err := os.Pipe()
		if err != nil {
			for _, rd := range redirects {
				rd.r.Close()
				rd.w.Close()
			}
			return fmt.Errorf("failed to create %s pipe: %w", t.stream, err)
		}
		redirects = append(redirects, &redirect{target: t, orig: *t.file, r: r, w: w})
	}

	c.mu.Lock()
	c.enabled = true
	c.window++
	c.seq = 0
	window := c.window
	c.mu.Unlock()

	for _, rd := range redirects {
		*rd.file = rd.w
		c.pumps.Add(1)
		go c.pump(rd)
	}
	c.active = redirects

	c.metrics.SetConsoleEnabled(true)
	c.log.Debug("console capture enabled", "window", window)
	return nil
}

// Disable restores the original files and waits until everything written
// before the call has been forwarded and captured. Buffered history is kept.
// It is a no-op when already disabled.
func (c *Capture) Disable() error {
	c.toggle.Lock()
	defer c.toggle.Unlock()

	if !c.Enabled() {
		return nil
	}

	var firstErr error
	for _, rd := range c.active {
		*rd.file = rd.orig
		if err := rd.w.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close %s pipe: %w", rd.stream, err)
		}
	}
	c.pumps.Wait()
	for _, rd := range c.active {
		rd.r.Close()
	}
	c.active = nil

	c.mu.Lock()
	c.enabled = false
	window := c.window
	c.mu.Unlock()

	c.metrics.SetConsoleEnabled(false)
	c.log.Debug("console capture disabled", "window", window)
	return firstErr
}

// SetEnabled enables or disables capture.
func (c *Capture) SetEnabled(on bool) error {
	if on {
		return c.Enable()
	}
	return c.Disable()
}

// Enabled reports whether capture is on.
func (c *Capture) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled
}

// Window returns the number of the current (or most recent) capture window.
// It is zero before the first Enable.
func (c *Capture) Window() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.window
}

// Lines returns the buffered lines, oldest first.
func (c *Capture) Lines() []Line {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Subscribe returns the buffered lines and a subscription receiving every
// line captured after them.
func (c *Capture) Subscribe() ([]Line, *Subscription) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	history := make([]Line, len(c.lines))
	copy(history, c.lines)
	return history, c.hub.Subscribe()
}

// Close disables capture and ends every subscription.
func (c *Capture) Close() error {
	err := c.Disable()
	c.hub.Close()
	return err
}

func (c *Capture) pump(rd *redirect) {
	defer c.pumps.Done()

	buf := make([]byte, 32<<10)
	var partial []byte
	for {
		n, err := rd.r.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			if _, werr := rd.orig.Write(chunk); werr != nil {
				c.log.Debug("console forward failed", "stream", rd.stream, "error", werr)
			}
			partial = append(partial, chunk...)
			partial = c.emit(rd.stream, partial, false)
		}
		if err != nil {
			c.emit(rd.stream, partial, true)
			return
		}
	}
}

// emit appends every complete line in data and returns the remainder. With
// flush set, a trailing partial line is emitted too.
func (c *Capture) emit(stream Stream, data []byte, flush bool) []byte {
	var texts []string
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			if len(data) >= maxLineLength || (flush && len(data) > 0) {
				texts = append(texts, string(bytes.TrimSuffix(data, []byte("\r"))))
				data = data[:0]
			}
			break
		}
		texts = append(texts, string(bytes.TrimSuffix(data[:i], []byte("\r"))))
		data = data[i+1:]
	}
	if len(texts) > 0 {
		c.append(stream, texts)
	}
	// Compact so the backing array does not grow without bound.
	return append(data[:0:0], data...)
}

func (c *Capture) append(stream Stream, texts []string) {
	c.mu.Lock()
	for _, text := range texts {
		c.seq++
		line := Line{
			Window:   c.window,
			Sequence: c.seq,
			Stream:   stream,
			Text:     text,
			Time:     c.now(),
		}
		if len(c.lines) >= c.max {
			c.lines = c.lines[1:]
		}
		c.lines = append(c.lines, line)
		c.hub.Publish(line)
	}
	c.mu.Unlock()

	for range texts {
		c.metrics.ObserveConsoleLine(string(stream))
	}
}
