package slider_test

import (
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"pension_site/internal/slider"
)

func TestCarousel_IndexStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, total := range []int{1, 2, 3, 7} {
		for _, start := range []int{-5, -1, 0, total - 1, total, total + 9} {
			c := slider.New(total, slider.Options{Policy: slider.Wrap, Start: start})
			if i := c.Index(); i < 0 || i >= total {
				t.Fatalf("total=%d start=%d: initial index %d out of range", total, start, i)
			}
			for step := 0; step < 200; step++ {
				switch rng.Intn(3) {
				case 0:
					c.Next()
				case 1:
					c.Prev()
				default:
					c.GoTo(rng.Intn(total*4+1) - total*2)
				}
				if i := c.Index(); i < 0 || i >= total {
					t.Fatalf("total=%d start=%d step=%d: index %d out of range", total, start, step, i)
				}
			}
		}
	}
}

func TestCarousel_WrapSemantics(t *testing.T) {
	c := slider.New(3, slider.HeroOptions())
	c.Prev()
	if c.Index() != 2 {
		t.Fatalf("prev from 0: got %d want 2", c.Index())
	}
	c.Next()
	if c.Index() != 0 {
		t.Fatalf("next from last: got %d want 0", c.Index())
	}
	c.GoTo(5)
	if c.Index() != 0 {
		t.Fatalf("goTo past end: got %d want 0", c.Index())
	}
	c.GoTo(-2)
	if c.Index() != 2 {
		t.Fatalf("goTo negative: got %d want 2", c.Index())
	}
	if got := c.Indicator(); got != "03" {
		t.Fatalf("indicator: %q", got)
	}
	if got := c.Progress(); got != 100 {
		t.Fatalf("progress: %v", got)
	}
}

func TestCarousel_StrictIgnoresOutOfRange(t *testing.T) {
	c := slider.New(3, slider.FacilityOptions())
	c.GoTo(1)
	c.GoTo(9)
	c.GoTo(-1)
	if c.Index() != 1 {
		t.Fatalf("strict goTo: got %d want 1", c.Index())
	}

	single := slider.New(1, slider.FacilityOptions())
	single.Next()
	single.Prev()
	if single.Index() != 0 {
		t.Fatalf("single slide moved to %d", single.Index())
	}
	single.Start()
	if single.Running() {
		t.Fatalf("autoplay must not run for a single slide")
	}
}

func TestCarousel_EmptyIsInert(t *testing.T) {
	c := slider.New(0, slider.HeroOptions())
	c.Next()
	c.Prev()
	c.GoTo(3)
	if c.Index() != 0 || c.TotalIndicator() != "01" || c.Progress() != 0 {
		t.Fatalf("unexpected empty carousel state: idx=%d total=%s", c.Index(), c.TotalIndicator())
	}
}

func TestCarousel_AutoplaySingleTimer(t *testing.T) {
	var changes int32
	opts := slider.Options{
		Interval: 10 * time.Millisecond,
		Policy:   slider.Wrap,
		OnChange: func(int) { atomic.AddInt32(&changes, 1) },
	}
	c := slider.New(4, opts)
	for i := 0; i < 5; i++ {
		c.Start()
	}
	time.Sleep(55 * time.Millisecond)
	c.Stop()
	got := atomic.LoadInt32(&changes)
	// five duplicate timers would have produced roughly five times as many ticks
	if got == 0 || got > 7 {
		t.Fatalf("expected ticks from a single timer, got %d", got)
	}
	if c.Running() {
		t.Fatalf("still running after Stop")
	}
	after := atomic.LoadInt32(&changes)
	time.Sleep(30 * time.Millisecond)
	if atomic.LoadInt32(&changes) != after {
		t.Fatalf("ticks after Stop")
	}
}

func TestCarousel_ManualNavigationResetsAutoplay(t *testing.T) {
	opts := slider.HeroOptions()
	opts.Interval = time.Hour
	c := slider.New(3, opts)
	c.Start()
	defer c.Stop()
	c.Next()
	if !c.Running() {
		t.Fatalf("autoplay should keep running after reset")
	}
	if c.Index() != 1 {
		t.Fatalf("index: %d", c.Index())
	}
}
