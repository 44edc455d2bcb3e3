package viewport_test

import (
	"math"
	"testing"

	"github.com/wudi/excerptkit/geom"
	"github.com/wudi/excerptkit/viewport"
)

func TestPdfPageStacking(t *testing.T) {
	v := viewport.NewPdfViewport()
	v.SetPageDimensions(0, 600, 800)
	v.SetPageDimensions(1, 600, 600)
	v.SetPageDimensions(2, 600, 400)

	cases := []struct {
		page int
		want float64
	}{
		{0, 0},
		{1, 810},  // 800 + 10 gap
		{2, 1420}, // 800 + 10 + 600 + 10
	}
	for _, tc := range cases {
		got, ok := v.PageOffset(tc.page)
		if !ok {
			t.Fatalf("PageOffset(%d) unresolvable", tc.page)
		}
		if got != tc.want {
			t.Errorf("PageOffset(%d) = %v, want %v", tc.page, got, tc.want)
		}
	}

	// Offsets must be strictly increasing in page order.
	prev := -1.0
	for page := 0; page < 3; page++ {
		off, _ := v.PageOffset(page)
		if off <= prev {
			t.Fatalf("page %d offset %v not strictly greater than %v", page, off, prev)
		}
		prev = off
	}

	if _, ok := v.PageOffset(7); ok {
		t.Error("unknown page should be unresolvable")
	}
}

func TestPdfPageStackingOutOfOrderReports(t *testing.T) {
	// Pages render out of order; offsets must still follow ascending index.
	v := viewport.NewPdfViewport()
	v.SetPageDimensions(2, 600, 400)
	v.SetPageDimensions(0, 600, 800)
	v.SetPageDimensions(1, 600, 600)

	got, _ := v.PageOffset(2)
	if got != 1420 {
		t.Fatalf("PageOffset(2) = %v, want 1420", got)
	}
}

func TestPdfPageAtContentY(t *testing.T) {
	v := viewport.NewPdfViewport()
	v.SetPageDimensions(0, 600, 800)
	v.SetPageDimensions(1, 600, 600)

	cases := []struct {
		name string
		y    float64
		want int
	}{
		{"inside page 0", 400, 0},
		{"bottom edge page 0", 800, 0},
		{"in the gap", 805, 0},
		{"top of page 1", 810, 1},
		{"inside page 1", 1200, 1},
		{"past the last page", 5000, 1},
		{"negative", -20, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := v.PageAtContentY(tc.y)
			if !ok {
				t.Fatal("unresolvable")
			}
			if got != tc.want {
				t.Fatalf("PageAtContentY(%v) = %d, want %d", tc.y, got, tc.want)
			}
		})
	}

	empty := viewport.NewPdfViewport()
	if _, ok := empty.PageAtContentY(100); ok {
		t.Error("no known pages should be unresolvable")
	}
}

func TestPdfPageScreenOrigin(t *testing.T) {
	v := viewport.NewPdfViewport()
	v.SetPageDimensions(0, 600, 800)
	v.SetPageDimensions(1, 600, 600)

	if _, ok := v.PageScreenOrigin(1); ok {
		t.Fatal("origin should be unresolvable before the panel mounts")
	}

	v.SetPanelRect(geom.ScreenRect{X: 0, Y: 0, W: 600, H: 900})
	got, ok := v.PageScreenOrigin(1)
	if !ok {
		t.Fatal("unresolvable after mount")
	}
	if got.X != 0 || got.Y != 810 {
		t.Fatalf("PageScreenOrigin(1) = %+v, want {0 810}", got)
	}

	v.SetScroll(300, 20)
	got, _ = v.PageScreenOrigin(1)
	if got.X != -20 || got.Y != 510 {
		t.Fatalf("PageScreenOrigin(1) after scroll = %+v, want {-20 510}", got)
	}
}

func TestPanelRectEqualSkipsNotification(t *testing.T) {
	v := viewport.NewPdfViewport()
	calls := 0
	unsub := v.Subscribe(func() { calls++ })
	defer unsub()

	rect := geom.ScreenRect{X: 0, Y: 0, W: 600, H: 900}
	v.SetPanelRect(rect)
	if calls != 1 {
		t.Fatalf("first SetPanelRect: %d notifications, want 1", calls)
	}
	v.SetPanelRect(rect)
	if calls != 1 {
		t.Fatalf("value-equal SetPanelRect must not notify, got %d", calls)
	}
	v.SetPanelRect(geom.ScreenRect{X: 0, Y: 0, W: 600, H: 901})
	if calls != 2 {
		t.Fatalf("changed SetPanelRect: %d notifications, want 2", calls)
	}
}

func TestSubscribeUnregister(t *testing.T) {
	v := viewport.NewWorkspaceViewport()
	calls := 0
	unsub := v.Subscribe(func() { calls++ })
	v.Pan(5, 5)
	unsub()
	v.Pan(5, 5)
	if calls != 1 {
		t.Fatalf("got %d notifications after unregister, want 1", calls)
	}
}

func TestWorkspaceTransformScenario(t *testing.T) {
	v := viewport.NewWorkspaceViewport()
	v.SetPanelRect(geom.ScreenRect{X: 0, Y: 0, W: 1000, H: 800})
	v.SetWorldTransform(100, 50, 2)

	sp, ok := v.WorldToScreen(geom.WorldPoint{X: 10, Y: 10})
	if !ok {
		t.Fatal("unresolvable")
	}
	if sp.X != 120 || sp.Y != 70 {
		t.Fatalf("WorldToScreen = %+v, want {120 70}", sp)
	}

	wp, ok := v.ScreenToWorld(geom.ScreenPoint{X: 120, Y: 70})
	if !ok {
		t.Fatal("unresolvable")
	}
	if wp.X != 10 || wp.Y != 10 {
		t.Fatalf("ScreenToWorld = %+v, want {10 10}", wp)
	}
}

func TestWorkspaceRoundTrip(t *testing.T) {
	v := viewport.NewWorkspaceViewport()
	v.SetPanelRect(geom.ScreenRect{X: 40, Y: 30, W: 1000, H: 800})
	v.SetWorldTransform(-250.5, 99.25, 1.75)

	for _, p := range []geom.ScreenPoint{
		{X: 40, Y: 30}, {X: 500, Y: 430}, {X: 1039.5, Y: 829.5},
	} {
		w, ok := v.ScreenToWorld(p)
		if !ok {
			t.Fatalf("ScreenToWorld(%+v) unresolvable", p)
		}
		back, ok := v.WorldToScreen(w)
		if !ok {
			t.Fatalf("WorldToScreen(%+v) unresolvable", w)
		}
		if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
			t.Fatalf("round trip of %+v gave %+v", p, back)
		}
	}
}

func TestWorkspaceZoomAtPointKeepsCursorFixed(t *testing.T) {
	v := viewport.NewWorkspaceViewport()
	v.SetPanelRect(geom.ScreenRect{X: 100, Y: 0, W: 800, H: 600})
	v.SetWorldTransform(40, -20, 1)

	cursor := geom.ScreenPoint{X: 420, Y: 310}
	before, _ := v.ScreenToWorld(cursor)

	v.ZoomAtPoint(cursor.X, cursor.Y, 1.5)
	after, _ := v.ScreenToWorld(cursor)

	if math.Abs(after.X-before.X) > 1e-9 || math.Abs(after.Y-before.Y) > 1e-9 {
		t.Fatalf("world point under cursor moved: before %+v after %+v", before, after)
	}
	if v.Scale() != 1.5 {
		t.Fatalf("scale = %v, want 1.5", v.Scale())
	}
}

func TestWorkspaceScaleClamp(t *testing.T) {
	v := viewport.NewWorkspaceViewport()
	v.SetWorldTransform(0, 0, 100)
	if v.Scale() != viewport.DefaultMaxScale {
		t.Fatalf("scale = %v, want clamped to %v", v.Scale(), viewport.DefaultMaxScale)
	}
	v.SetScale(0.0001)
	if v.Scale() != viewport.DefaultMinScale {
		t.Fatalf("scale = %v, want clamped to %v", v.Scale(), viewport.DefaultMinScale)
	}

	// Clamp bounds are per-instance.
	v.MaxScale = 5
	v.SetScale(8)
	if v.Scale() != 5 {
		t.Fatalf("scale = %v, want per-instance max 5", v.Scale())
	}
}

func TestWorkspaceUnmountedIsUnresolvable(t *testing.T) {
	v := viewport.NewWorkspaceViewport()
	if _, ok := v.WorldToScreen(geom.WorldPoint{X: 1, Y: 1}); ok {
		t.Error("WorldToScreen should be unresolvable without a panel rect")
	}
	if _, ok := v.ScreenToWorld(geom.ScreenPoint{X: 1, Y: 1}); ok {
		t.Error("ScreenToWorld should be unresolvable without a panel rect")
	}

	v.SetPanelRect(geom.ScreenRect{W: 100, H: 100})
	v.ClearPanelRect()
	if _, ok := v.WorldToScreen(geom.WorldPoint{}); ok {
		t.Error("WorldToScreen should be unresolvable after unmount")
	}
}
