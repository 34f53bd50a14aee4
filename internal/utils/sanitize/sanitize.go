package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// drawing is a cached bluemonday policy that keeps the SVG shapes a sketch is
// made of and drops everything else: scripts, event handlers, links, foreign
// objects and styles.
// It's safe for concurrent use as bluemonday.Policy is read-only after build.
// WARNING: Never call mutating helpers (e.g. AddAttr, AllowElements) on this policy
// after initialization as it would create a data race.
var drawing = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("svg", "g", "path", "line", "polyline", "polygon", "circle", "ellipse", "rect")
	p.AllowNoAttrs().OnElements("svg", "g")
	p.AllowAttrs("width", "height", "viewbox", "xmlns", "preserveaspectratio").OnElements("svg")
	p.AllowAttrs(
		"d", "points", "transform",
		"x", "y", "x1", "y1", "x2", "y2",
		"cx", "cy", "r", "rx", "ry", "width", "height",
		"stroke", "stroke-width", "stroke-linecap", "stroke-linejoin", "stroke-opacity",
		"fill", "fill-opacity", "opacity",
	).OnElements("g", "path", "line", "polyline", "polygon", "circle", "ellipse", "rect")
	return p
}()

// The HTML tokenizer lowercases attribute names; SVG ones are case sensitive.
var svgAttrCase = strings.NewReplacer(
	" viewbox=", " viewBox=",
	" preserveaspectratio=", " preserveAspectRatio=",
)

// Drawing sanitizes an SVG sketch before it is stored. Shapes and their
// geometry survive, anything executable is removed.
//
// Examples:
//   - `<svg viewBox="0 0 10 10"><path d="M0 0L5 5"/></svg>` -> unchanged
//   - `<svg onload="x()"><script>x()</script><path d="M1 1"/></svg>` -> `<svg><path d="M1 1"/></svg>`
//   - `<foreignObject><p>hi</p></foreignObject>` -> "hi"
func Drawing(svg string) string {
	if strings.TrimSpace(svg) == "" {
		return ""
	}
	return strings.TrimSpace(svgAttrCase.Replace(drawing.Sanitize(svg)))
}
