package viewport

import "github.com/wudi/excerptkit/geom"

// WorkspaceViewport is the camera over the infinite canvas. (WorldX, WorldY)
// is the panel-relative screen offset of the world origin and Scale is the
// zoom factor, so a world point p appears on screen at
//
//	panelOrigin + (WorldX, WorldY) + p*Scale
//
// Scale is clamped to [MinScale, MaxScale] on every write.
type WorkspaceViewport struct {
	notifier

	MinScale float64
	MaxScale float64

	worldX float64
	worldY float64
	scale  float64

	panelRect    geom.ScreenRect
	panelRectSet bool
}

// NewWorkspaceViewport returns a store with the world origin at the panel
// origin, scale 1, and no panel bounds.
func NewWorkspaceViewport() *WorkspaceViewport {
	return &WorkspaceViewport{
		MinScale: DefaultMinScale,
		MaxScale: DefaultMaxScale,
		scale:    1,
	}
}

// Subscribe registers fn to run synchronously after every state change.
// The returned func unregisters it.
func (v *WorkspaceViewport) Subscribe(fn func()) func() { return v.subscribe(fn) }

// SetWorldTransform sets the world-origin offset and scale in one update.
func (v *WorkspaceViewport) SetWorldTransform(worldX, worldY, scale float64) {
	scale = clamp(scale, v.MinScale, v.MaxScale)
	if v.worldX == worldX && v.worldY == worldY && v.scale == scale {
		return
	}
	v.worldX = worldX
	v.worldY = worldY
	v.scale = scale
	v.notify()
}

// Pan shifts the world origin by a screen-space delta.
func (v *WorkspaceViewport) Pan(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	v.worldX += dx
	v.worldY += dy
	v.notify()
}

// SetScale sets the zoom factor, clamped, keeping the world origin offset.
func (v *WorkspaceViewport) SetScale(scale float64) {
	scale = clamp(scale, v.MinScale, v.MaxScale)
	if scale == v.scale {
		return
	}
	v.scale = scale
	v.notify()
}

// WorldTransform returns the current origin offset and scale.
func (v *WorkspaceViewport) WorldTransform() (worldX, worldY, scale float64) {
	return v.worldX, v.worldY, v.scale
}

// Scale returns the current zoom factor.
func (v *WorkspaceViewport) Scale() float64 { return v.scale }

// SetPanelRect records the panel's screen bounds, skipping value-equal
// updates to avoid notification feedback loops.
func (v *WorkspaceViewport) SetPanelRect(rect geom.ScreenRect) {
	if v.panelRectSet && v.panelRect.Equal(rect) {
		return
	}
	v.panelRect = rect
	v.panelRectSet = true
	v.notify()
}

// ClearPanelRect marks the panel as unmounted.
func (v *WorkspaceViewport) ClearPanelRect() {
	if !v.panelRectSet {
		return
	}
	v.panelRectSet = false
	v.notify()
}

// PanelRect returns the panel bounds, if mounted.
func (v *WorkspaceViewport) PanelRect() (geom.ScreenRect, bool) {
	return v.panelRect, v.panelRectSet
}

// WorldToScreen converts a world point to screen space. It performs no
// bounds check: off-screen world points convert fine, which drag previews
// rely on. Unresolvable when the panel is unmounted.
func (v *WorkspaceViewport) WorldToScreen(p geom.WorldPoint) (geom.ScreenPoint, bool) {
	if !v.panelRectSet {
		return geom.ScreenPoint{}, false
	}
	return geom.ScreenPoint{
		X: v.panelRect.X + v.worldX + p.X*v.scale,
		Y: v.panelRect.Y + v.worldY + p.Y*v.scale,
	}, true
}

// ScreenToWorld converts a screen point to world space without a bounds
// check; see WorldToScreen. Unresolvable when the panel is unmounted.
func (v *WorkspaceViewport) ScreenToWorld(p geom.ScreenPoint) (geom.WorldPoint, bool) {
	if !v.panelRectSet {
		return geom.WorldPoint{}, false
	}
	return geom.WorldPoint{
		X: (p.X - v.panelRect.X - v.worldX) / v.scale,
		Y: (p.Y - v.panelRect.Y - v.worldY) / v.scale,
	}, true
}

// ZoomAtPoint multiplies the scale by factor while keeping the world point
// under the given screen position stationary. A no-op when the panel is
// unmounted or the clamped scale does not change.
func (v *WorkspaceViewport) ZoomAtPoint(screenX, screenY float64, factor float64) {
	if !v.panelRectSet {
		return
	}
	newScale := clamp(v.scale*factor, v.MinScale, v.MaxScale)
	if newScale == v.scale {
		return
	}
	anchor, _ := v.ScreenToWorld(geom.ScreenPoint{X: screenX, Y: screenY})
	v.scale = newScale
	v.worldX = screenX - v.panelRect.X - anchor.X*newScale
	v.worldY = screenY - v.panelRect.Y - anchor.Y*newScale
	v.notify()
}
