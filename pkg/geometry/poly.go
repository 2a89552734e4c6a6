// Package geometry implements the plan's geometric variable bindings: the
// placement CSP over polygons described in spec.md §4.3 — area variables
// with a monotonically shrinking max-region and an eventual assigned
// placement, path variables with an assigned centre-line and swept
// corridor, defined (immutable) workspace regions, and the within/
// disjunction constraints that relate them.
//
// Polygon primitives come from github.com/paulmach/orb; boolean set
// operations (the intersections and differences §4.3's `resolve` and
// `resolve_path` require) come from github.com/akavel/polyclip-go. Neither
// appears in the teacher (dungo's own geometry is an int tile grid), so
// both are named, not grounded, dependencies — see DESIGN.md.
package geometry

import (
	"math"
	"sort"

	"github.com/akavel/polyclip-go"
	"github.com/paulmach/orb"
)

// Poly is a simple (single-ring, no holes) polygon — every area this
// planner reasons about (tables, reach bands, goal regions, placements) is
// modeled without holes, which keeps `resolve`'s grid sweep and the
// disjunction checks straightforward.
type Poly orb.Ring

// Empty reports whether p has fewer than 3 vertices.
func (p Poly) Empty() bool { return len(p) < 3 }

// Area returns the unsigned area of p via the shoelace formula.
func (p Poly) Area() float64 {
	if len(p) < 3 {
		return 0
	}
	sum := 0.0
	n := len(p)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += p[i][0]*p[j][1] - p[j][0]*p[i][1]
	}
	return math.Abs(sum) / 2
}

// Centroid returns the area-weighted centroid of p.
func (p Poly) Centroid() orb.Point {
	if len(p) == 0 {
		return orb.Point{}
	}
	if len(p) < 3 {
		return p[0]
	}
	cx, cy, area := 0.0, 0.0, 0.0
	n := len(p)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := p[i][0]*p[j][1] - p[j][0]*p[i][1]
		area += cross
		cx += (p[i][0] + p[j][0]) * cross
		cy += (p[i][1] + p[j][1]) * cross
	}
	if area == 0 {
		return p[0]
	}
	area /= 2
	cx /= 6 * area
	cy /= 6 * area
	return orb.Point{cx, cy}
}

// Bounds returns the axis-aligned bounding box of p as (minX, minY, maxX,
// maxY).
func (p Poly) Bounds() (minX, minY, maxX, maxY float64) {
	if len(p) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = p[0][0], p[0][1]
	maxX, maxY = p[0][0], p[0][1]
	for _, pt := range p[1:] {
		minX = math.Min(minX, pt[0])
		minY = math.Min(minY, pt[1])
		maxX = math.Max(maxX, pt[0])
		maxY = math.Max(maxY, pt[1])
	}
	return
}

// Contains reports whether point pt lies inside p (or on its boundary,
// within tol), via the standard ray-casting test.
func (p Poly) Contains(pt orb.Point, tol float64) bool {
	if len(p) < 3 {
		return false
	}
	x, y := pt[0], pt[1]
	inside := false
	n := len(p)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := p[i][0], p[i][1]
		xj, yj := p[j][0], p[j][1]
		if math.Abs(xi-x) <= tol && math.Abs(yi-y) <= tol {
			return true
		}
		intersect := ((yi > y) != (yj > y)) &&
			(x < (xj-xi)*(y-yi)/(yj-yi)+xi)
		if intersect {
			inside = !inside
		}
	}
	return inside
}

// Rect returns an axis-aligned rectangle polygon with the given lower-left
// corner and dimensions.
func Rect(x, y, width, height float64) Poly {
	return Poly{
		{x, y},
		{x + width, y},
		{x + width, y + height},
		{x, y + height},
	}
}

func toClip(p Poly) polyclip.Polygon {
	contour := make(polyclip.Contour, len(p))
	for i, pt := range p {
		contour[i] = polyclip.Point{X: pt[0], Y: pt[1]}
	}
	return polyclip.Polygon{contour}
}

func fromClip(cp polyclip.Polygon) []Poly {
	out := make([]Poly, 0, len(cp))
	for _, contour := range cp {
		if len(contour) < 3 {
			continue
		}
		poly := make(Poly, len(contour))
		for i, pt := range contour {
			poly[i] = orb.Point{pt.X, pt.Y}
		}
		out = append(out, poly)
	}
	return out
}

// Intersect returns the intersection of a and b. The result may be empty
// (no overlap), a single polygon, or — when a and b overlap in two
// disconnected places — more than one polygon; callers that require a
// single simply-connected region (spec.md §4.3 `unify`) treat a
// multi-polygon result as failure.
func Intersect(a, b Poly) []Poly {
	if a.Empty() || b.Empty() {
		return nil
	}
	return fromClip(toClip(a).Construct(polyclip.INTERSECTION, toClip(b)))
}

// Difference returns a minus the union of every polygon in subtract.
func Difference(a Poly, subtract []Poly) []Poly {
	if a.Empty() {
		return nil
	}
	result := toClip(a)
	for _, s := range subtract {
		if s.Empty() {
			continue
		}
		result = result.Construct(polyclip.DIFFERENCE, toClip(s))
	}
	return fromClip(result)
}

// Union returns the union of all polygons in ps.
func Union(ps []Poly) []Poly {
	var result polyclip.Polygon
	first := true
	for _, p := range ps {
		if p.Empty() {
			continue
		}
		if first {
			result = toClip(p)
			first = false
			continue
		}
		result = result.Construct(polyclip.UNION, toClip(p))
	}
	if first {
		return nil
	}
	return fromClip(result)
}

// Translate returns p shifted by (dx, dy).
func Translate(p Poly, dx, dy float64) Poly {
	out := make(Poly, len(p))
	for i, pt := range p {
		out[i] = orb.Point{pt[0] + dx, pt[1] + dy}
	}
	return out
}

// Erode approximates eroding p by distance d using a Manhattan
// structuring element: the intersection of p translated by (±d, 0) and
// (0, ±d) with itself. For an axis-aligned rectangle this equals true
// disc erosion; for other shapes the eroded region is at least as large
// as the exact offset curve would give, since the four translates cover
// less than the full disc. It is deterministic and cheap, and serves the
// body-inflation use spec.md §4.3 `resolve_path` describes.
func Erode(p Poly, d float64) []Poly {
	if d <= 0 {
		return []Poly{p}
	}
	current := []Poly{p}
	shifts := [4][2]float64{{-d, 0}, {d, 0}, {0, -d}, {0, d}}
	for _, sh := range shifts {
		var next []Poly
		for _, c := range current {
			next = append(next, Intersect(c, Translate(p, sh[0], sh[1]))...)
		}
		current = next
		if len(current) == 0 {
			return nil
		}
	}
	return current
}

// Buffer returns the polyline path buffered by halfWidth on each side —
// the swept corridor for a moving object following path (spec.md §4.3
// `resolve_path`: "assigned corridor is the path buffered by the erosion
// distance"). Each segment becomes a rectangle extended by halfWidth past
// its endpoints (a square-capped approximation of a rounded capsule); the
// corridor is the union of all segment rectangles.
func Buffer(path []orb.Point, halfWidth float64) []Poly {
	if len(path) < 2 {
		return nil
	}
	var segments []Poly
	for i := 0; i < len(path)-1; i++ {
		a, b := path[i], path[i+1]
		dx, dy := b[0]-a[0], b[1]-a[1]
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		ux, uy := dx/length, dy/length // along-segment unit vector
		px, py := -uy, ux              // perpendicular unit vector

		ax := a[0] - ux*halfWidth
		ay := a[1] - uy*halfWidth
		bx := b[0] + ux*halfWidth
		by := b[1] + uy*halfWidth

		segments = append(segments, Poly{
			{ax + px*halfWidth, ay + py*halfWidth},
			{bx + px*halfWidth, by + py*halfWidth},
			{bx - px*halfWidth, by - py*halfWidth},
			{ax - px*halfWidth, ay - py*halfWidth},
		})
	}
	return Union(segments)
}

// LargestByArea returns the polygon in ps with the largest area, and its
// index. It panics if ps is empty — callers must check length first.
func LargestByArea(ps []Poly) (Poly, int) {
	best, bestIdx := ps[0], 0
	for i, p := range ps[1:] {
		if p.Area() > best.Area() {
			best, bestIdx = p, i+1
		}
	}
	return best, bestIdx
}

// sortedKeys returns the sorted keys of a string-keyed map, used wherever
// this package must iterate a map in a deterministic order (spec.md §5
// determinism requirement on collection iteration order).
func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
