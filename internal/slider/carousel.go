// Package slider holds the carousel and swipe state machines behind the hero
// and facility sliders. The renderer seeds initial slider markup from a fresh
// Carousel; browsers drive the same transitions through the page scripts.
package slider

import (
	"fmt"
	"sync"
	"time"
)

const (
	HeroInterval     = 5 * time.Second
	FacilityInterval = 4 * time.Second
)

// Policy decides how out-of-range navigation is treated.
type Policy int

const (
	// Wrap normalizes any index into range: >= total becomes 0, < 0 becomes total-1.
	Wrap Policy = iota
	// Strict ignores GoTo targets outside the range and freezes single-slide carousels.
	Strict
)

type Options struct {
	Interval        time.Duration
	Policy          Policy
	Start           int // initial index, normalized like GoTo under Wrap
	ResetOnNavigate bool
	OnChange        func(index int)
}

func HeroOptions() Options {
	return Options{Interval: HeroInterval, Policy: Wrap, ResetOnNavigate: true}
}

func FacilityOptions() Options {
	return Options{Interval: FacilityInterval, Policy: Strict}
}

type Carousel struct {
	mu    sync.Mutex
	index int
	total int
	opts  Options
	stop  chan struct{} // non-nil while autoplay runs
}

func New(total int, opts Options) *Carousel {
	if total < 0 {
		total = 0
	}
	c := &Carousel{total: total, index: opts.Start, opts: opts}
	c.normalizeLocked()
	return c
}

func (c *Carousel) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

func (c *Carousel) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Indicator is the 1-based, two-digit current slide label ("01").
func (c *Carousel) Indicator() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("%02d", c.index+1)
}

// TotalIndicator is the two-digit slide count; an empty carousel shows "01"
// because the placeholder slide still occupies one position.
func (c *Carousel) TotalIndicator() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.total == 0 {
		return "01"
	}
	return fmt.Sprintf("%02d", c.total)
}

// Progress is the width percentage of the indicator bar.
func (c *Carousel) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.total == 0 {
		return 0
	}
	return float64(c.index+1) / float64(c.total) * 100
}

// Reset replaces the slide count, rewinds to the first slide and restarts
// autoplay if it was running.
func (c *Carousel) Reset(total int) {
	c.mu.Lock()
	if total < 0 {
		total = 0
	}
	c.total = total
	c.index = 0
	running := c.stop != nil
	if running {
		c.startLocked()
	}
	c.mu.Unlock()
}

func (c *Carousel) Next() { c.navigate(func() bool { return c.stepLocked(1) }) }

func (c *Carousel) Prev() { c.navigate(func() bool { return c.stepLocked(-1) }) }

func (c *Carousel) GoTo(i int) {
	c.navigate(func() bool {
		if c.opts.Policy == Strict {
			if i < 0 || i >= c.total {
				return false
			}
			c.index = i
			return true
		}
		c.index = i
		c.normalizeLocked()
		return c.total > 0
	})
}

func (c *Carousel) navigate(move func() bool) {
	c.mu.Lock()
	if !move() {
		c.mu.Unlock()
		return
	}
	if c.opts.ResetOnNavigate && c.stop != nil {
		c.startLocked()
	}
	idx, cb := c.index, c.opts.OnChange
	c.mu.Unlock()
	if cb != nil {
		cb(idx)
	}
}

func (c *Carousel) stepLocked(delta int) bool {
	if c.total == 0 {
		return false
	}
	if c.opts.Policy == Strict && c.total <= 1 {
		return false
	}
	c.normalizeLocked()
	switch {
	case delta > 0:
		c.index = (c.index + 1) % c.total
	case c.index == 0:
		c.index = c.total - 1
	default:
		c.index--
	}
	return true
}

func (c *Carousel) normalizeLocked() {
	switch {
	case c.total == 0:
		c.index = 0
	case c.index >= c.total:
		c.index = 0
	case c.index < 0:
		c.index = c.total - 1
	}
}

// Start begins autoplay. A previous timer is always stopped first so at most
// one ticker exists per carousel.
func (c *Carousel) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startLocked()
}

func (c *Carousel) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Carousel) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stop != nil
}

func (c *Carousel) startLocked() {
	c.stopLocked()
	if c.opts.Interval <= 0 || c.total == 0 {
		return
	}
	if c.opts.Policy == Strict && c.total <= 1 {
		return
	}
	stop := make(chan struct{})
	c.stop = stop
	t := time.NewTicker(c.opts.Interval)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				c.tick(stop)
			}
		}
	}()
}

func (c *Carousel) stopLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

func (c *Carousel) tick(owner chan struct{}) {
	c.mu.Lock()
	if c.stop != owner || !c.stepLocked(1) {
		c.mu.Unlock()
		return
	}
	idx, cb := c.index, c.opts.OnChange
	c.mu.Unlock()
	if cb != nil {
		cb(idx)
	}
}
