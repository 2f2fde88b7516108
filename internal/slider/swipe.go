package slider

import (
	"math"
	"sync"
)

const DefaultThreshold = 50.0

type Point struct{ X, Y float64 }

type Direction int

const (
	None Direction = iota
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "none"
	}
}

// Classify interprets a gesture. Only gestures whose horizontal displacement
// beats the vertical one and exceeds the threshold count.
func Classify(start, end Point, threshold float64) Direction {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	h := end.X - start.X
	v := math.Abs(end.Y - start.Y)
	if math.Abs(h) <= v {
		return None
	}
	switch {
	case h > threshold:
		return Right
	case h < -threshold:
		return Left
	}
	return None
}

// Swipe tracks one touch gesture at a time and fires exactly one callback per
// recognized gesture.
type Swipe struct {
	mu        sync.Mutex
	threshold float64
	onLeft    func()
	onRight   func()
	start     Point
	active    bool
}

func NewSwipe(threshold float64, onLeft, onRight func()) *Swipe {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Swipe{threshold: threshold, onLeft: onLeft, onRight: onRight}
}

// Attach wires a swipe detector to a carousel: swiping left advances,
// swiping right goes back.
func Attach(c *Carousel, threshold float64) *Swipe {
	return NewSwipe(threshold, c.Next, c.Prev)
}

func (s *Swipe) TouchStart(p Point) {
	s.mu.Lock()
	s.start, s.active = p, true
	s.mu.Unlock()
}

// TouchEnd closes the gesture. A TouchEnd without a preceding TouchStart is ignored.
func (s *Swipe) TouchEnd(p Point) Direction {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return None
	}
	s.active = false
	d := Classify(s.start, p, s.threshold)
	s.mu.Unlock()

	switch d {
	case Left:
		if s.onLeft != nil {
			s.onLeft()
		}
	case Right:
		if s.onRight != nil {
			s.onRight()
		}
	}
	return d
}
