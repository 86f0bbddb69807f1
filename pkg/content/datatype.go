// Package content classifies notebook output payloads and transforms
// them into servable documents.
//
// Classification maps a MIME type, an optional host display hint, and a
// payload sniff onto a closed DataType enumeration. Formatting turns the
// raw payload into the document a canvas render app can load: HTML-family
// payloads are wrapped into full documents via embedded templates, media
// payloads resolve to their source URL, and geometry payloads become
// map-viewer configurations.
package content

import (
	"strings"

	"github.com/ovecast/ovecast/pkg/errors"
)

// DataType is the semantic kind of one output payload. It is derived
// per output and never persisted.
type DataType string

// Content kinds, in the order the classifier prefers them.
const (
	Audio     DataType = "audio"
	DataFrame DataType = "dataframe"
	GeoJSON   DataType = "geojson"
	HTML      DataType = "html"
	JPEG      DataType = "jpg"
	JSON      DataType = "json"
	LaTeX     DataType = "latex"
	Markdown  DataType = "markdown"
	PNG       DataType = "png"
	SVG       DataType = "svg"
	Video     DataType = "videos"
)

// DisplayHint is a host-supplied hint about how the payload was
// displayed (e.g. the notebook rendered it through an audio widget).
type DisplayHint string

// Display hints recognized by the classifier.
const (
	HintNone    DisplayHint = ""
	HintAudio   DisplayHint = "audio"
	HintVideo   DisplayHint = "video"
	HintYouTube DisplayHint = "youtube"
)

// Classify maps a MIME type onto a DataType. The host's display hint
// wins for HTML payloads that wrap media embeds; HTML payloads carrying
// a dataframe marker classify as tabular data. text/plain and unknown
// MIME types yield ok=false: the output is suppressed, never an error.
func Classify(mimeType string, hint DisplayHint, payload string) (DataType, bool) {
	switch {
	case (hint == HintAudio) && strings.Contains(mimeType, "text/html"):
		return Audio, true
	case (hint == HintVideo || hint == HintYouTube) && strings.Contains(mimeType, "text/html"):
		return Video, true
	case strings.Contains(mimeType, "text/html"):
		if strings.Contains(payload, "dataframe") {
			return DataFrame, true
		}
		return HTML, true
	case strings.Contains(mimeType, "image/png"):
		return PNG, true
	case strings.Contains(mimeType, "image/jpeg"):
		return JPEG, true
	case strings.Contains(mimeType, "image/svg+xml"):
		return SVG, true
	case strings.Contains(mimeType, "text/latex"):
		return LaTeX, true
	case strings.Contains(mimeType, "text/markdown"):
		return Markdown, true
	case strings.Contains(mimeType, "application/geo+json"):
		return GeoJSON, true
	case strings.Contains(mimeType, "application/json"):
		return JSON, true
	default:
		return "", false
	}
}

// IsMedia reports whether the kind must resolve to an external media URL.
func (d DataType) IsMedia() bool {
	return d == Video || d == Audio
}

// FileExt returns the asset file extension for the kind. HTML-family
// kinds serialize to HTML documents and GeoJSON to a JSON map config.
// Media kinds have no local representation.
func (d DataType) FileExt() (string, error) {
	switch d {
	case LaTeX, Markdown, HTML, DataFrame, JSON:
		return "html", nil
	case GeoJSON:
		return "json", nil
	case PNG, JPEG, SVG:
		return string(d), nil
	}
	return "", errors.New(errors.ErrCodeUnsupportedData, "raw media not supported")
}

// App is the canvas render application identifier a section points at.
type App string

// Canvas render applications.
const (
	AppHTML   App = "html"
	AppImages App = "images"
	AppSVG    App = "svg"
	AppMaps   App = "maps"
	AppVideos App = "videos"
	AppAudio  App = "audio"
)

// AppFor maps a DataType onto its render application. The mapping is
// closed; an unmapped kind is a programming error, not user input.
func AppFor(d DataType) (App, error) {
	switch d {
	case HTML, DataFrame, LaTeX, Markdown, JSON:
		return AppHTML, nil
	case PNG, JPEG:
		return AppImages, nil
	case SVG:
		return AppSVG, nil
	case GeoJSON:
		return AppMaps, nil
	case Video:
		return AppVideos, nil
	case Audio:
		return AppAudio, nil
	}
	return "", errors.New(errors.ErrCodeUnknownDataType, "unknown data type: %s", d)
}
