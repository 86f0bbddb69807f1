// Package layout resolves cell placement requests into pixel rectangles
// on a canvas.
//
// A placement request carries at most one of three competing idioms:
//
//   - pixel: an explicit rectangle (x, y, width, height)
//   - grid: an explicit tile (row, col) of the rows×cols canvas grid
//   - flex: a span (from, to) of grid cells, exclusive upper bound
//
// When none of the idioms is present the cell is placed automatically
// from its cell number. Validation classifies each idiom independently
// and rejects requests that mix idioms or specify one only partially.
package layout

import (
	"github.com/ovecast/ovecast/pkg/errors"
)

// DisplayMode is the resolved placement idiom for one cell invocation.
type DisplayMode int

// Display modes, one per placement idiom plus the automatic default.
const (
	ModeFlex DisplayMode = iota
	ModePixel
	ModeGrid
	ModeAutomatic
)

// String returns the mode name for logging.
func (m DisplayMode) String() string {
	switch m {
	case ModeFlex:
		return "flex"
	case ModePixel:
		return "pixel"
	case ModeGrid:
		return "grid"
	case ModeAutomatic:
		return "automatic"
	}
	return "unknown"
}

// Span is a 1-based (column, row) grid coordinate used by the flex idiom.
type Span struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// PlacementArgs is the validated argument record for one cell placement.
// Optional fields are pointers; nil means "not specified". CellNo is
// required for every request.
type PlacementArgs struct {
	CellNo *int  `json:"cell_no"`
	Row    *int  `json:"row,omitempty"`
	Col    *int  `json:"col,omitempty"`
	X      *int  `json:"x,omitempty"`
	Y      *int  `json:"y,omitempty"`
	Width  *int  `json:"width,omitempty"`
	Height *int  `json:"height,omitempty"`
	From   *Span `json:"from,omitempty"`
	To     *Span `json:"to,omitempty"`

	// Split optionally forces the axis multi-output sections are
	// tiled along ("width" or "height").
	Split string `json:"split,omitempty"`
}

// Cell returns the 1-based cell number. Callers must have run Validate
// first; it guarantees CellNo is present.
func (a PlacementArgs) Cell() int {
	if a.CellNo == nil {
		return 0
	}
	return *a.CellNo
}

// validationStatus classifies one idiom's fields within a request.
type validationStatus int

const (
	statusValidated validationStatus = iota // all required fields present
	statusEmpty                             // all fields absent
	statusError                             // partially present or malformed
)

func validatePixels(a PlacementArgs) validationStatus {
	switch {
	case a.Width != nil && a.Height != nil && a.X != nil && a.Y != nil:
		return statusValidated
	case a.Width == nil && a.Height == nil && a.X == nil && a.Y == nil:
		return statusEmpty
	default:
		return statusError
	}
}

func validateGrid(a PlacementArgs) validationStatus {
	switch {
	case a.Row != nil && a.Col != nil:
		return statusValidated
	case a.Row == nil && a.Col == nil:
		return statusEmpty
	default:
		return statusError
	}
}

func validateFlex(a PlacementArgs) validationStatus {
	switch {
	case a.From != nil && a.To != nil && a.To.X > a.From.X && a.To.Y > a.From.Y:
		return statusValidated
	case a.From == nil && a.To == nil:
		return statusEmpty
	default:
		// Covers both a one-sided span and a span with to <= from
		// on either axis.
		return statusError
	}
}

// Validate classifies a placement request into its display mode.
//
// Exactly one idiom may be fully specified, or all three must be absent
// (automatic placement). Any other combination, including a malformed
// flex span, is an INVALID_CELL_CONFIG error. A missing cell number is
// reported first as MISSING_CELL_ID.
func Validate(a PlacementArgs) (DisplayMode, error) {
	if a.CellNo == nil {
		return 0, errors.New(errors.ErrCodeMissingCellID, "no id provided")
	}

	statuses := [3]validationStatus{validateFlex(a), validatePixels(a), validateGrid(a)}
	modes := [3]DisplayMode{ModeFlex, ModePixel, ModeGrid}

	var validated, empty int
	mode := ModeAutomatic
	for i, s := range statuses {
		switch s {
		case statusValidated:
			validated++
			mode = modes[i]
		case statusEmpty:
			empty++
		}
	}

	if validated != 1 && empty != len(statuses) {
		return 0, errors.New(errors.ErrCodeInvalidCellConfig, "invalid cell config")
	}
	if empty == len(statuses) {
		return ModeAutomatic, nil
	}
	return mode, nil
}
