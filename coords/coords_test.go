package coords_test

import (
	"math"
	"testing"

	"github.com/wudi/excerptkit/anchor"
	"github.com/wudi/excerptkit/coords"
	"github.com/wudi/excerptkit/geom"
	"github.com/wudi/excerptkit/viewport"
)

// testRig wires a service with the PDF panel on the left (600px wide) and
// the workspace panel to its right, the usual split layout.
type testRig struct {
	pdf *viewport.PdfViewport
	ws  *viewport.WorkspaceViewport
	svc *coords.Service
}

func newRig() *testRig {
	pdf := viewport.NewPdfViewport()
	pdf.SetPanelRect(geom.ScreenRect{X: 0, Y: 0, W: 600, H: 900})
	pdf.SetPageDimensions(0, 600, 800)
	pdf.SetPageDimensions(1, 600, 600)

	ws := viewport.NewWorkspaceViewport()
	ws.SetPanelRect(geom.ScreenRect{X: 600, Y: 0, W: 1000, H: 900})
	ws.SetWorldTransform(0, 0, 1)

	return &testRig{pdf: pdf, ws: ws, svc: coords.NewService(pdf, ws)}
}

func near(a, b geom.ScreenPoint) bool {
	return math.Abs(a.X-b.X) < 1e-9 && math.Abs(a.Y-b.Y) < 1e-9
}

func TestPageToScreenStacking(t *testing.T) {
	r := newRig()
	got, ok := r.svc.PageToScreen(1, 0, 0)
	if !ok {
		t.Fatal("unresolvable")
	}
	if got.X != 0 || got.Y != 810 {
		t.Fatalf("PageToScreen(1,0,0) = %+v, want {0 810}", got)
	}
}

func TestPdfToScreenNormalized(t *testing.T) {
	r := newRig()
	p := geom.PdfPoint{DocumentID: "doc", PageIndex: 1, X: 0.5, Y: 0.25, Kind: geom.PdfNormalized}
	got, ok := r.svc.PdfToScreen(p)
	if !ok {
		t.Fatal("unresolvable")
	}
	want := geom.ScreenPoint{X: 300, Y: 810 + 150}
	if !near(got, want) {
		t.Fatalf("PdfToScreen = %+v, want %+v", got, want)
	}
}

func TestPdfToScreenAbsoluteScalesWithZoom(t *testing.T) {
	r := newRig()
	r.pdf.SetZoom(2)
	p := geom.PdfPoint{DocumentID: "doc", PageIndex: 0, X: 100, Y: 50, Kind: geom.PdfAbsolute}
	got, ok := r.svc.PdfToScreen(p)
	if !ok {
		t.Fatal("unresolvable")
	}
	if !near(got, geom.ScreenPoint{X: 200, Y: 100}) {
		t.Fatalf("PdfToScreen = %+v, want {200 100}", got)
	}
}

func TestPdfRoundTrip(t *testing.T) {
	r := newRig()
	r.pdf.SetScroll(120, 15)

	for _, p := range []geom.PdfPoint{
		{DocumentID: "doc", PageIndex: 0, X: 0.25, Y: 0.75, Kind: geom.PdfNormalized},
		{DocumentID: "doc", PageIndex: 1, X: 0.9, Y: 0.1, Kind: geom.PdfNormalized},
	} {
		sp, ok := r.svc.PdfToScreen(p)
		if !ok {
			t.Fatalf("PdfToScreen(%+v) unresolvable", p)
		}
		back, ok := r.svc.ScreenToPdf(sp, "doc")
		if !ok {
			t.Fatalf("ScreenToPdf(%+v) unresolvable", sp)
		}
		if back.PageIndex != p.PageIndex {
			t.Fatalf("round trip page %d -> %d", p.PageIndex, back.PageIndex)
		}
		if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
			t.Fatalf("round trip of %+v gave %+v", p, back)
		}
	}
}

func TestScreenToPdfMissingPanelIsUnresolvable(t *testing.T) {
	r := newRig()
	r.pdf.ClearPanelRect()
	if _, ok := r.svc.ScreenToPdf(geom.ScreenPoint{X: 10, Y: 10}, "doc"); ok {
		t.Fatal("expected unresolvable without panel rect")
	}
	if _, ok := r.svc.PdfToScreen(geom.PdfPoint{DocumentID: "doc", X: 0.5, Y: 0.5, Kind: geom.PdfNormalized}); ok {
		t.Fatal("expected unresolvable without panel rect")
	}
}

func TestScreenToWorldBoundsCheck(t *testing.T) {
	r := newRig()
	// Inside the workspace panel.
	if _, ok := r.svc.ScreenToWorld(geom.ScreenPoint{X: 700, Y: 100}); !ok {
		t.Error("point inside workspace panel should resolve")
	}
	// Inside the PDF panel: ambiguous global point, must not convert.
	if _, ok := r.svc.ScreenToWorld(geom.ScreenPoint{X: 100, Y: 100}); ok {
		t.Error("point in the PDF panel must not resolve to world space")
	}
	// WorldToScreen has no bounds check: far off-screen worlds convert.
	if _, ok := r.svc.WorldToScreen(geom.WorldPoint{X: -1e4, Y: -1e4}); !ok {
		t.Error("WorldToScreen should not bounds-check")
	}
}

func TestComposedTransformEquivalence(t *testing.T) {
	r := newRig()
	r.pdf.SetScroll(50, 0)
	r.ws.SetWorldTransform(100, 50, 2)

	p := geom.PdfPoint{DocumentID: "doc", PageIndex: 1, X: 0.3, Y: 0.6, Kind: geom.PdfNormalized}

	composed, ok := r.svc.PdfToWorld(p)
	if !ok {
		t.Fatal("PdfToWorld unresolvable")
	}

	sp, ok := r.svc.PdfToScreen(p)
	if !ok {
		t.Fatal("PdfToScreen unresolvable")
	}
	twoHop, ok := r.ws.ScreenToWorld(sp)
	if !ok {
		t.Fatal("ScreenToWorld unresolvable")
	}

	if composed != twoHop {
		t.Fatalf("composed %+v != two-hop %+v", composed, twoHop)
	}

	// And back.
	back, ok := r.svc.WorldToPdf(composed, "doc")
	if !ok {
		t.Fatal("WorldToPdf unresolvable")
	}
	if back.PageIndex != p.PageIndex || math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
		t.Fatalf("WorldToPdf(PdfToWorld(p)) = %+v, want %+v", back, p)
	}
}

func TestContainingPanelOrder(t *testing.T) {
	r := newRig()
	cases := []struct {
		name  string
		p     geom.ScreenPoint
		panel geom.Panel
		ok    bool
	}{
		{"pdf interior", geom.ScreenPoint{X: 100, Y: 100}, geom.PanelPdf, true},
		{"shared edge goes to pdf first", geom.ScreenPoint{X: 600, Y: 100}, geom.PanelPdf, true},
		{"workspace interior", geom.ScreenPoint{X: 900, Y: 100}, geom.PanelWorkspace, true},
		{"outside both", geom.ScreenPoint{X: 1700, Y: 100}, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			panel, ok := r.svc.ContainingPanel(tc.p)
			if ok != tc.ok || panel != tc.panel {
				t.Fatalf("ContainingPanel(%+v) = %q,%v want %q,%v", tc.p, panel, ok, tc.panel, tc.ok)
			}
		})
	}
}

func TestToPanelPoint(t *testing.T) {
	r := newRig()
	pp, ok := r.svc.ToPanelPoint(geom.ScreenPoint{X: 650, Y: 40})
	if !ok {
		t.Fatal("unresolvable")
	}
	if pp.Panel != geom.PanelWorkspace || pp.X != 50 || pp.Y != 40 {
		t.Fatalf("ToPanelPoint = %+v", pp)
	}
	if _, ok := r.svc.ToPanelPoint(geom.ScreenPoint{X: -5, Y: -5}); ok {
		t.Fatal("point outside both panels should be unresolvable")
	}
}

func TestAnchorResolution(t *testing.T) {
	r := newRig()
	r.svc.RegisterCanvasObject(anchor.CanvasObject{
		ID:       "card-1",
		Type:     anchor.ObjectNote,
		Position: geom.WorldPoint{X: 100, Y: 200},
		Size:     geom.Size{Width: 40, Height: 20},
	})

	t.Run("pdf region resolves at trailing edge", func(t *testing.T) {
		a := anchor.PdfRegionAnchor{
			DocumentID: "doc", PageIndex: 0,
			Rect: geom.NormalizedRect{X: 0.1, Y: 0.1, W: 0.2, H: 0.2},
		}
		got, ok := r.svc.AnchorToScreen(a)
		if !ok {
			t.Fatal("unresolvable")
		}
		// Right edge x = 0.3*600, center y = 0.2*800.
		if !near(got, geom.ScreenPoint{X: 180, Y: 160}) {
			t.Fatalf("got %+v, want {180 160}", got)
		}
	})

	t.Run("text anchor uses first bounding rect", func(t *testing.T) {
		a := anchor.PdfTextAnchor{
			DocumentID: "doc", PageIndex: 0,
			BoundingRects: []geom.NormalizedRect{
				{X: 0.1, Y: 0.1, W: 0.2, H: 0.2},
				{X: 0.5, Y: 0.5, W: 0.1, H: 0.1},
			},
		}
		got, ok := r.svc.AnchorToScreen(a)
		if !ok {
			t.Fatal("unresolvable")
		}
		if !near(got, geom.ScreenPoint{X: 180, Y: 160}) {
			t.Fatalf("got %+v, want {180 160}", got)
		}
	})

	t.Run("text anchor without rects is unresolvable", func(t *testing.T) {
		a := anchor.PdfTextAnchor{DocumentID: "doc", PageIndex: 0}
		if _, ok := r.svc.AnchorToScreen(a); ok {
			t.Fatal("expected unresolvable")
		}
	})

	t.Run("object anchor connection points", func(t *testing.T) {
		cases := []struct {
			cp   geom.ConnectionPoint
			want geom.WorldPoint
		}{
			{geom.ConnectLeft, geom.WorldPoint{X: 100, Y: 210}},
			{geom.ConnectRight, geom.WorldPoint{X: 140, Y: 210}},
			{geom.ConnectTop, geom.WorldPoint{X: 120, Y: 200}},
			{geom.ConnectBottom, geom.WorldPoint{X: 120, Y: 220}},
			{geom.ConnectCenter, geom.WorldPoint{X: 120, Y: 210}},
		}
		for _, tc := range cases {
			a := anchor.CanvasObjectAnchor{WorkspaceID: "ws", ObjectID: "card-1", ConnectionPoint: tc.cp}
			got, ok := r.svc.AnchorToWorld(a)
			if !ok {
				t.Fatalf("%s unresolvable", tc.cp)
			}
			if got != tc.want {
				t.Fatalf("%s = %+v, want %+v", tc.cp, got, tc.want)
			}
		}
	})

	t.Run("object anchor follows position updates", func(t *testing.T) {
		a := anchor.CanvasObjectAnchor{WorkspaceID: "ws", ObjectID: "card-1", ConnectionPoint: geom.ConnectCenter}
		r.svc.UpdateCanvasObjectPosition("card-1", geom.WorldPoint{X: 0, Y: 0})
		got, _ := r.svc.AnchorToWorld(a)
		if (got != geom.WorldPoint{X: 20, Y: 10}) {
			t.Fatalf("after move: %+v, want {20 10}", got)
		}
	})

	t.Run("unregistered object is unresolvable", func(t *testing.T) {
		a := anchor.CanvasObjectAnchor{WorkspaceID: "ws", ObjectID: "ghost"}
		if _, ok := r.svc.AnchorToScreen(a); ok {
			t.Fatal("expected unresolvable")
		}
	})

	t.Run("point anchor", func(t *testing.T) {
		a := anchor.CanvasPointAnchor{WorkspaceID: "ws", Point: geom.WorldPoint{X: 5, Y: 6}}
		got, ok := r.svc.AnchorToScreen(a)
		if !ok {
			t.Fatal("unresolvable")
		}
		if !near(got, geom.ScreenPoint{X: 605, Y: 6}) {
			t.Fatalf("got %+v, want {605 6}", got)
		}
	})
}

func TestRectVisibility(t *testing.T) {
	r := newRig()

	t.Run("fully visible", func(t *testing.T) {
		vis, ok := r.svc.PdfRectToScreen(0, geom.NormalizedRect{X: 0.1, Y: 0.1, W: 0.2, H: 0.2})
		if !ok {
			t.Fatal("unresolvable")
		}
		if !vis.FullyVisible || !vis.PartiallyVisible {
			t.Fatalf("want fully+partially visible, got %+v", vis)
		}
	})

	t.Run("scrolled partially out", func(t *testing.T) {
		r.pdf.SetScroll(100, 0)
		defer r.pdf.SetScroll(0, 0)
		vis, ok := r.svc.PdfRectToScreen(0, geom.NormalizedRect{X: 0.1, Y: 0, W: 0.2, H: 0.2})
		if !ok {
			t.Fatal("unresolvable")
		}
		if vis.FullyVisible {
			t.Error("rect crossing the panel top must not be fully visible")
		}
		if !vis.PartiallyVisible {
			t.Error("rect crossing the panel top should still be partially visible")
		}
	})

	t.Run("world rect scales", func(t *testing.T) {
		r.ws.SetWorldTransform(0, 0, 2)
		defer r.ws.SetWorldTransform(0, 0, 1)
		vis, ok := r.svc.WorldRectToScreen(geom.WorldRect{X: 10, Y: 10, W: 50, H: 25})
		if !ok {
			t.Fatal("unresolvable")
		}
		want := geom.ScreenRect{X: 620, Y: 20, W: 100, H: 50}
		if !vis.Rect.Equal(want) {
			t.Fatalf("rect = %+v, want %+v", vis.Rect, want)
		}
		if !vis.FullyVisible {
			t.Error("expected fully visible")
		}
	})

	t.Run("world rect beyond panel is not visible", func(t *testing.T) {
		vis, ok := r.svc.WorldRectToScreen(geom.WorldRect{X: 5000, Y: 5000, W: 10, H: 10})
		if !ok {
			t.Fatal("unresolvable")
		}
		if vis.FullyVisible || vis.PartiallyVisible {
			t.Fatalf("expected invisible, got %+v", vis)
		}
	})
}

func TestCalculateLinkEndpoints(t *testing.T) {
	r := newRig()
	r.svc.RegisterCanvasObject(anchor.CanvasObject{
		ID: "card-1", Position: geom.WorldPoint{X: 100, Y: 200}, Size: geom.Size{Width: 40, Height: 20},
	})

	link := anchor.Link{
		ID: "l1",
		Source: anchor.PdfRegionAnchor{
			DocumentID: "doc", PageIndex: 0,
			Rect: geom.NormalizedRect{X: 0.1, Y: 0.1, W: 0.2, H: 0.2},
		},
		Target: anchor.CanvasObjectAnchor{WorkspaceID: "ws", ObjectID: "card-1", ConnectionPoint: geom.ConnectLeft},
	}

	ep := r.svc.CalculateLinkEndpoints(link)
	if !ep.IsVisible {
		t.Fatal("both anchors resolvable; link should be visible")
	}
	if !ep.SourceInPanel || !ep.TargetInPanel {
		t.Fatalf("both endpoints in panels, got %+v", ep)
	}
	if !near(ep.Source, geom.ScreenPoint{X: 180, Y: 160}) {
		t.Fatalf("source = %+v", ep.Source)
	}
	if !near(ep.Target, geom.ScreenPoint{X: 700, Y: 210}) {
		t.Fatalf("target = %+v", ep.Target)
	}

	t.Run("unresolvable target yields sentinel, not origin", func(t *testing.T) {
		r.svc.UnregisterCanvasObject("card-1")
		ep := r.svc.CalculateLinkEndpoints(link)
		if ep.IsVisible {
			t.Error("link with unresolvable target must not be visible")
		}
		if ep.Target != coords.OffscreenSentinel {
			t.Errorf("target = %+v, want sentinel", ep.Target)
		}
		if ep.TargetInPanel {
			t.Error("unresolved endpoint cannot be in a panel")
		}
	})

	t.Run("endpoint scrolled out of panel", func(t *testing.T) {
		r.svc.RegisterCanvasObject(anchor.CanvasObject{
			ID: "card-1", Position: geom.WorldPoint{X: 5000, Y: 5000}, Size: geom.Size{Width: 40, Height: 20},
		})
		ep := r.svc.CalculateLinkEndpoints(link)
		if !ep.IsVisible {
			t.Error("both anchors resolve; off-panel is still visible=true")
		}
		if ep.TargetInPanel {
			t.Error("target far outside the panel must report TargetInPanel=false")
		}
	})
}

func TestRegistryInvalidationHook(t *testing.T) {
	r := newRig()
	calls := 0
	unsub := r.svc.OnInvalidate(func() { calls++ })

	r.svc.RegisterCanvasObject(anchor.CanvasObject{ID: "a"})
	r.svc.UpdateCanvasObjectPosition("a", geom.WorldPoint{X: 1, Y: 1})
	r.svc.UpdateCanvasObjectSize("a", geom.Size{Width: 10, Height: 10})
	r.svc.UnregisterCanvasObject("a")
	if calls != 4 {
		t.Fatalf("got %d invalidations, want 4", calls)
	}

	// Mutations on unknown IDs are no-ops.
	r.svc.UpdateCanvasObjectPosition("missing", geom.WorldPoint{})
	r.svc.UnregisterCanvasObject("missing")
	if calls != 4 {
		t.Fatalf("no-op mutations must not invalidate, got %d", calls)
	}

	unsub()
	r.svc.RegisterCanvasObject(anchor.CanvasObject{ID: "b"})
	if calls != 4 {
		t.Fatalf("unregistered hook ran, got %d", calls)
	}
}
