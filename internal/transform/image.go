package transform

import (
	"fmt"

	"github.com/inamate/canvas/internal/geom"
)

// ImageMode selects how resizing an image treats its crop window.
type ImageMode string

const (
	// ModeScale rescales the crop window with the box, so the visible
	// content appears to scale.
	ModeScale ImageMode = "scale"
	// ModeCrop leaves the crop window where it is in content space, so the
	// box reveals more or less of the content.
	ModeCrop ImageMode = "crop"
)

// ParseImageMode validates a mode name.
func ParseImageMode(s string) (ImageMode, error) {
	switch m := ImageMode(s); m {
	case ModeScale, ModeCrop:
		return m, nil
	}
	return "", fmt.Errorf("unknown image resize mode %q", s)
}

// Window is an image's crop window in box-relative coordinates: Origin is the
// content offset, Size the content size.
type Window = geom.Rect

// ResizeImage resizes an image box like Resize and derives its new crop
// window. win may be nil, meaning the content fills the box.
//
// In ModeScale a nil window stays nil; otherwise offset and size scale by the
// per-axis box ratio. In ModeCrop a nil window becomes the initial full box,
// and the offset shifts against the box movement so the content stays fixed
// on the canvas.
func ResizeImage(mode ImageMode, h Handle, dx, dy float64, box geom.Rect, win *Window) (geom.Rect, *Window) {
	next := Resize(h, dx, dy, box, Lock{})

	switch mode {
	case ModeCrop:
		w := Window{Width: box.Width, Height: box.Height}
		if win != nil {
			w = *win
		}
		w.X -= next.X - box.X
		w.Y -= next.Y - box.Y
		return next, &w
	default:
		if win == nil {
			return next, nil
		}
		rx, ry := next.Width/box.Width, next.Height/box.Height
		w := Window{
			X:      win.X * rx,
			Y:      win.Y * ry,
			Width:  win.Width * rx,
			Height: win.Height * ry,
		}
		return next, &w
	}
}

// Crop resizes the content window itself while the outer box stays put.
// Corners scale the window by the horizontal delta and keep its aspect,
// holding the opposite content corner fixed; edges resize one axis freely.
// Both dimensions stay at or above MinSize.
func Crop(h Handle, dx, dy float64, win Window) Window {
	if !h.Valid() {
		return win
	}
	base := Window{X: win.X, Y: win.Y, Width: max(MinSize, win.Width), Height: max(MinSize, win.Height)}

	if h.IsCorner() {
		aspect := base.Width / base.Height
		w := base.Width + dx
		if h.west() {
			w = base.Width - dx
		}
		w = max(MinSize, w)
		ht := w / aspect
		if ht < MinSize {
			ht = MinSize
			w = ht * aspect
		}
		return place(h, base, w, ht)
	}

	rawW, rawH := rawSize(h, dx, dy, base.Width, base.Height)
	w, ht := base.Width, base.Height
	if h == E || h == W {
		w = max(MinSize, rawW)
	} else {
		ht = max(MinSize, rawH)
	}
	return place(h, base, w, ht)
}

// MoveCrop pans the content window by (dx, dy) inside a fixed box.
func MoveCrop(win Window, dx, dy float64) Window {
	win.X += dx
	win.Y += dy
	return win
}
