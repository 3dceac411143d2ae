package geom

// Zoom limits enforced by the zoom controls. ToScene itself assumes a
// positive zoom and never checks it.
const (
	MinZoom = 0.02
	MaxZoom = 32.0

	// WheelStep is the zoom factor applied per wheel notch.
	WheelStep = 1.05
)

// Viewport maps device (pointer) coordinates onto the scene.
// Origin is the canvas element's offset on the device, Pan the scene
// translation in device pixels.
type Viewport struct {
	Origin Point   `json:"origin"`
	Pan    Point   `json:"pan"`
	Zoom   float64 `json:"zoom"`
}

// NewViewport returns a viewport at the given pan and zoom with a zero origin.
func NewViewport(pan Point, zoom float64) Viewport {
	return Viewport{Pan: pan, Zoom: clampZoom(zoom)}
}

// ToScene converts a device point into scene coordinates:
// scene = (device - origin - pan) / zoom.
func ToScene(device, origin, pan Point, zoom float64) Point {
	return Point{
		X: (device.X - origin.X - pan.X) / zoom,
		Y: (device.Y - origin.Y - pan.Y) / zoom,
	}
}

// ToScene converts a device point into scene coordinates.
func (v Viewport) ToScene(device Point) Point {
	return ToScene(device, v.Origin, v.Pan, v.Zoom)
}

// ToDevice converts a scene point back to device coordinates.
func (v Viewport) ToDevice(p Point) Point {
	return Point{
		X: p.X*v.Zoom + v.Pan.X + v.Origin.X,
		Y: p.Y*v.Zoom + v.Pan.Y + v.Origin.Y,
	}
}

// Matrix returns the scene-to-device transform.
func (v Viewport) Matrix() Matrix2D {
	return Translate(v.Origin.X+v.Pan.X, v.Origin.Y+v.Pan.Y).Multiply(Scale(v.Zoom, v.Zoom))
}

// PanBy shifts the pan by a device-pixel delta.
func (v Viewport) PanBy(dx, dy float64) Viewport {
	v.Pan = Point{X: v.Pan.X + dx, Y: v.Pan.Y + dy}
	return v
}

// ZoomAt scales the zoom by factor while keeping the scene point under the
// device point fixed. The result is clamped to [MinZoom, MaxZoom].
func (v Viewport) ZoomAt(device Point, factor float64) Viewport {
	if factor <= 0 {
		return v
	}
	anchor := v.ToScene(device)
	v.Zoom = clampZoom(v.Zoom * factor)
	local := device.Sub(v.Origin)
	v.Pan = Point{
		X: local.X - anchor.X*v.Zoom,
		Y: local.Y - anchor.Y*v.Zoom,
	}
	return v
}

func clampZoom(z float64) float64 {
	switch {
	case z < MinZoom:
		return MinZoom
	case z > MaxZoom:
		return MaxZoom
	}
	return z
}
