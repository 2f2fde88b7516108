package slider_test

import (
	"testing"

	"pension_site/internal/slider"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name       string
		start, end slider.Point
		want       slider.Direction
	}{
		{"right", slider.Point{X: 0, Y: 0}, slider.Point{X: 80, Y: 10}, slider.Right},
		{"left", slider.Point{X: 200, Y: 50}, slider.Point{X: 100, Y: 40}, slider.Left},
		{"below threshold", slider.Point{X: 0, Y: 0}, slider.Point{X: 50, Y: 0}, slider.None},
		{"vertical dominates", slider.Point{X: 0, Y: 0}, slider.Point{X: 70, Y: 90}, slider.None},
		{"equal displacement", slider.Point{X: 0, Y: 0}, slider.Point{X: -60, Y: 60}, slider.None},
	}
	for _, tc := range cases {
		if got := slider.Classify(tc.start, tc.end, 0); got != tc.want {
			t.Fatalf("%s: got %s want %s", tc.name, got, tc.want)
		}
	}
}

func TestSwipe_ExactlyOneCallbackPerGesture(t *testing.T) {
	var left, right int
	s := slider.NewSwipe(slider.DefaultThreshold, func() { left++ }, func() { right++ })

	s.TouchStart(slider.Point{X: 300, Y: 100})
	s.TouchEnd(slider.Point{X: 100, Y: 110})
	// a second end without a new start is not a gesture
	s.TouchEnd(slider.Point{X: 0, Y: 110})

	s.TouchStart(slider.Point{X: 0, Y: 0})
	s.TouchEnd(slider.Point{X: 51, Y: 0})

	if left != 1 || right != 1 {
		t.Fatalf("left=%d right=%d, want 1/1", left, right)
	}
}

func TestAttach_DrivesCarousel(t *testing.T) {
	c := slider.New(3, slider.Options{Policy: slider.Wrap})
	s := slider.Attach(c, 0)

	s.TouchStart(slider.Point{X: 200})
	s.TouchEnd(slider.Point{X: 100})
	if c.Index() != 1 {
		t.Fatalf("left swipe should advance, index=%d", c.Index())
	}
	s.TouchStart(slider.Point{X: 100})
	s.TouchEnd(slider.Point{X: 300})
	if c.Index() != 0 {
		t.Fatalf("right swipe should go back, index=%d", c.Index())
	}
}
