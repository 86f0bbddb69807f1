package layout

import (
	"github.com/ovecast/ovecast/pkg/errors"
)

// Bounds is the canvas size in pixels, fetched once per configuration
// session from the canvas service.
type Bounds struct {
	W int `json:"w"`
	H int `json:"h"`
}

// Rect is an absolute pixel rectangle on the canvas.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// SplitAxis is the canvas dimension along which the outputs of one cell
// are tiled when a cell produces more than one payload.
type SplitAxis string

// Split axes.
const (
	SplitWidth  SplitAxis = "width"
	SplitHeight SplitAxis = "height"
)

// SplitAxisFor resolves the effective split axis. An explicit axis wins;
// otherwise wide rectangles split along width and tall ones along height.
func SplitAxisFor(explicit string, r Rect) (SplitAxis, error) {
	switch explicit {
	case "":
		if r.W > r.H {
			return SplitWidth, nil
		}
		return SplitHeight, nil
	case string(SplitWidth):
		return SplitWidth, nil
	case string(SplitHeight):
		return SplitHeight, nil
	}
	return "", errors.New(errors.ErrCodeInvalidCellConfig, "unknown split axis: %s", explicit)
}

// Resolve turns a validated placement request into a pixel rectangle.
//
// Grid-derived modes tile the canvas into cols×rows cells sized by floor
// division; cell and grid indices are 1-based in the request and
// converted here. Automatic placement derives the tile from the cell
// number and fails with CAPACITY_EXCEEDED once the derived column runs
// past the grid.
func Resolve(a PlacementArgs, mode DisplayMode, bounds Bounds, rows, cols int) (Rect, error) {
	cellW, cellH := bounds.W/cols, bounds.H/rows

	switch mode {
	case ModeAutomatic:
		col, row := (a.Cell()-1)/rows, (a.Cell()-1)%rows
		if col >= cols {
			return Rect{}, errors.New(errors.ErrCodeCapacityExceeded, "unable to display cell - limit reached")
		}
		return Rect{X: col * cellW, Y: row * cellH, W: cellW, H: cellH}, nil

	case ModeGrid:
		return Rect{X: (*a.Col - 1) * cellW, Y: (*a.Row - 1) * cellH, W: cellW, H: cellH}, nil

	case ModePixel:
		return Rect{X: *a.X, Y: *a.Y, W: *a.Width, H: *a.Height}, nil

	case ModeFlex:
		// Spans are exclusive on the upper bound, so the extent is the
		// raw index difference.
		xSpan, ySpan := a.To.X-a.From.X, a.To.Y-a.From.Y
		return Rect{
			X: (a.From.X - 1) * cellW,
			Y: (a.From.Y - 1) * cellH,
			W: cellW * xSpan,
			H: cellH * ySpan,
		}, nil
	}
	return Rect{}, errors.New(errors.ErrCodeInvalidMode, "unknown display mode: %s", mode)
}

// Split returns the i-th of n equal sub-rectangles of r stacked along
// the given axis. Sub-rectangles are pairwise non-overlapping and tile r
// up to the floor-division remainder (at most n-1 pixels on the split
// axis), which stays unassigned.
func Split(r Rect, axis SplitAxis, i, n int) Rect {
	if n <= 1 {
		return r
	}
	switch axis {
	case SplitWidth:
		w := r.W / n
		return Rect{X: r.X + i*w, Y: r.Y, W: w, H: r.H}
	default:
		h := r.H / n
		return Rect{X: r.X, Y: r.Y + i*h, W: r.W, H: h}
	}
}
