package geometry

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/PetervDooren/PyDPOCL/pkg/ptypes"
)

// buffer is the small numerical tolerance spec.md §4.3's `resolve` and
// `unify` allow when checking polygon containment ("up to a small
// numerical buffer"). 1e-6 is ten times the 1e-7 tolerance spec.md §8
// tests containment at, and far below the 1 cm grid-sweep step size.
const buffer = 1e-6

// gridStep is the 1 cm grid-sampling step `resolve` sweeps candidate boxes
// at (spec.md §4.3 step 4). Units are whatever the problem's polygons use
// (this planner treats them as metres, per spec.md §6.2's object
// dimensions), so 1 cm is 0.01.
const gridStep = 0.01

// Placeloc is the placement record for one area variable (spec.md §4.3).
type Placeloc struct {
	Owner          ptypes.Argument // the object variable this area names the location of
	Width, Length  float64         // object dimensions; zero until grounded
	MaxRegion      Poly            // current upper-bound polygon; monotonically shrinking
	Assigned       *Poly           // concrete placed rectangle, once grounded
	Within         []string        // area/defined-area ids this area is constrained within
	InverseWithin  []string        // area ids constrained within this one
	Disjoint       []string        // area or path ids this area must not overlap, once both assigned
}

// PathRecord is the placement record for one path variable (spec.md
// §4.3).
type PathRecord struct {
	Mover         ptypes.Argument
	Width, Length float64
	StartArea     string
	GoalArea      string
	Centerline    []orb.Point // assigned, once resolved
	Corridor      *Poly       // assigned swept corridor, once resolved
	Disjoint      []string
}

// DefinedArea is an immutable named workspace region: the base/table,
// robot reach regions, goal regions (spec.md §4.3). Its Within relation is
// pre-seeded by the loader (e.g. every defined area is within base).
type DefinedArea struct {
	ID      string
	Polygon Poly
	Within  []string
}

// Bindings is the geometric variable bindings aggregate: area variables,
// path variables, and defined areas, plus the within/disjunction relations
// between them (spec.md §4.3).
type Bindings struct {
	BaseAreaID string
	Defined    map[string]*DefinedArea
	Areas      map[string]*Placeloc
	Paths      map[string]*PathRecord
}

// New returns an empty geometric bindings aggregate.
func New(baseAreaID string) *Bindings {
	return &Bindings{
		BaseAreaID: baseAreaID,
		Defined:    make(map[string]*DefinedArea),
		Areas:      make(map[string]*Placeloc),
		Paths:      make(map[string]*PathRecord),
	}
}

// RegisterDefined adds an immutable named region. within lists the ids
// (defined or not, though normally defined) this region is contained in;
// the base area is typically its own sole Within entry's root.
func (b *Bindings) RegisterDefined(id string, polygon Poly, within []string) {
	if _, ok := b.Defined[id]; ok {
		return
	}
	b.Defined[id] = &DefinedArea{ID: id, Polygon: polygon, Within: within}
}

// RegisterArea adds an area variable with an empty owning object and its
// max-region initialized to the base area (spec.md §4.6 step 2: area
// arguments register with an empty owning-object field).
func (b *Bindings) RegisterArea(id string) {
	if _, ok := b.Areas[id]; ok {
		return
	}
	b.Areas[id] = &Placeloc{MaxRegion: b.basePolygon()}
}

// RegisterPath adds a path variable.
func (b *Bindings) RegisterPath(id string) {
	if _, ok := b.Paths[id]; ok {
		return
	}
	b.Paths[id] = &PathRecord{}
}

func (b *Bindings) basePolygon() Poly {
	if base, ok := b.Defined[b.BaseAreaID]; ok {
		return base.Polygon
	}
	return nil
}

// SetOwner links an area variable's owning object (spec.md §4.6 step 3).
func (b *Bindings) SetOwner(areaID string, owner ptypes.Argument) {
	if a, ok := b.Areas[areaID]; ok {
		a.Owner = owner
	}
}

// SetDimensions sets an area variable's object dimensions once the owning
// object is grounded.
func (b *Bindings) SetDimensions(areaID string, width, length float64) {
	if a, ok := b.Areas[areaID]; ok {
		a.Width, a.Length = width, length
	}
	if p, ok := b.Paths[areaID]; ok {
		p.Width, p.Length = width, length
	}
}

// polygonOf resolves an area or defined-area id to its current best-known
// polygon: the assigned placement if grounded, else the max-region, else
// (for a defined area) the immutable polygon.
func (b *Bindings) polygonOf(id string) (Poly, bool) {
	if a, ok := b.Areas[id]; ok {
		if a.Assigned != nil {
			return *a.Assigned, true
		}
		return a.MaxRegion, true
	}
	if d, ok := b.Defined[id]; ok {
		return d.Polygon, true
	}
	return nil, false
}

// Within records that area "A is constrained within B" (spec.md §4.3's
// `unify(A, B)` alias), intersecting A's max-region with B's current
// polygon and recursively propagating the shrink to every area already
// constrained within A. It is idempotent: a within-constraint already
// recorded between A and B is a no-op returning true without
// re-intersecting (spec.md §4.3, "The contract is idempotent-when-true").
func (b *Bindings) Within(areaA, areaB string) bool {
	a, ok := b.Areas[areaA]
	if !ok {
		return false
	}
	for _, w := range a.Within {
		if w == areaB {
			return true
		}
	}
	bPoly, ok := b.polygonOf(areaB)
	if !ok {
		return false
	}
	shrunk, ok := b.intersectMaxRegion(a, bPoly)
	if !ok {
		return false
	}
	a.MaxRegion = shrunk
	a.Within = append(a.Within, areaB)
	if bArea, ok := b.Areas[areaB]; ok {
		bArea.InverseWithin = append(bArea.InverseWithin, areaA)
	}
	queue := append([]string(nil), a.InverseWithin...)
	seen := map[string]bool{areaA: true}
	for len(queue) > 0 {
		childID := queue[0]
		queue = queue[1:]
		child := b.Areas[childID]
		if child == nil || seen[childID] {
			continue
		}
		seen[childID] = true
		queue = append(queue, child.InverseWithin...)
		narrowed, ok := b.intersectMaxRegion(child, a.MaxRegion)
		if !ok {
			return false
		}
		child.MaxRegion = narrowed
	}
	return true
}

// intersectMaxRegion intersects area's current max-region with newBound,
// rejecting the result if it stops being a single polygon or becomes too
// small to admit area's object (spec.md §4.3 `unify`: "rejects if the
// result becomes a non-polygon ... or is too small to admit A's object").
func (b *Bindings) intersectMaxRegion(area *Placeloc, newBound Poly) (Poly, bool) {
	pieces := Intersect(area.MaxRegion, newBound)
	if len(pieces) != 1 {
		return nil, false
	}
	result := pieces[0]
	if area.Width > 0 && area.Length > 0 {
		needed := (area.Width + 2*buffer) * (area.Length + 2*buffer)
		if result.Area()+buffer < needed {
			return nil, false
		}
	}
	return result, true
}

// AddDisjunction declares that areaA and areaB (or a path id) must not
// overlap once both are grounded. Symmetric and idempotent (spec.md
// §4.3).
func (b *Bindings) AddDisjunction(idA, idB string) {
	addOnce := func(id, other string) {
		if a, ok := b.Areas[id]; ok {
			for _, d := range a.Disjoint {
				if d == other {
					return
				}
			}
			a.Disjoint = append(a.Disjoint, other)
			return
		}
		if p, ok := b.Paths[id]; ok {
			for _, d := range p.Disjoint {
				if d == other {
					return
				}
			}
			p.Disjoint = append(p.Disjoint, other)
		}
	}
	addOnce(idA, idB)
	addOnce(idB, idA)
}

// RemoveDisjunction removes a previously declared disjunction, used by
// movable-obstacle discovery (spec.md §4.4 step 4) when a discovered
// obstacle's disjunction with a path variable is lifted so a move step can
// relocate it instead.
func (b *Bindings) RemoveDisjunction(idA, idB string) {
	remove := func(id, other string) {
		if a, ok := b.Areas[id]; ok {
			a.Disjoint = removeID(a.Disjoint, other)
			return
		}
		if p, ok := b.Paths[id]; ok {
			p.Disjoint = removeID(p.Disjoint, other)
		}
	}
	remove(idA, idB)
	remove(idB, idA)
}

func removeID(ids []string, target string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// disjointAssignedPolygons returns the assigned (or defined) polygons of
// every id in ids that currently has one.
func (b *Bindings) disjointAssignedPolygons(ids []string) []Poly {
	var out []Poly
	for _, id := range ids {
		if a, ok := b.Areas[id]; ok && a.Assigned != nil {
			out = append(out, *a.Assigned)
			continue
		}
		if p, ok := b.Paths[id]; ok && p.Corridor != nil {
			out = append(out, *p.Corridor)
			continue
		}
		if d, ok := b.Defined[id]; ok {
			out = append(out, d.Polygon)
		}
	}
	return out
}

// Resolve assigns a concrete placement polygon to the area variable
// named id, following spec.md §4.3's five-step `resolve` algorithm
// exactly: intersect the base with every within-constraint (substituting
// assigned polygons where available), subtract assigned disjunctions,
// reuse an existing bounding box if everything already-within fits, else
// grid-sweep from the lower-left corner of the candidate region in 1 cm
// steps. Resolve is deterministic: fixed iteration order over Within,
// Disjoint, and the grid sweep.
func (b *Bindings) Resolve(id string) bool {
	area, ok := b.Areas[id]
	if !ok || area.Assigned != nil {
		return ok
	}

	disjunctMax, ok := b.disjunctMaxRegion(area)
	if !ok || disjunctMax.Empty() {
		return false
	}

	aMin, haveMin := b.inverseWithinUnion(area)

	if haveMin {
		if box, ok := fittingBox(aMin, area.Width, area.Length, disjunctMax); ok {
			area.Assigned = &box
			return true
		}
	}

	box, ok := gridSweep(disjunctMax, area.Width, area.Length, aMin, haveMin)
	if !ok {
		return false
	}
	area.Assigned = &box
	return true
}

// disjunctMaxRegion computes step 1 of `resolve`: base ∩ (within
// constraints, substituting assigned polygons where available) minus the
// union of assigned disjunction polygons.
func (b *Bindings) disjunctMaxRegion(area *Placeloc) (Poly, bool) {
	current := area.MaxRegion
	for _, w := range area.Within {
		poly, ok := b.polygonOf(w)
		if !ok {
			continue
		}
		pieces := Intersect(current, poly)
		if len(pieces) != 1 {
			return Poly{}, false
		}
		current = pieces[0]
	}
	subtract := b.disjointAssignedPolygons(area.Disjoint)
	if len(subtract) == 0 {
		return current, true
	}
	pieces := Difference(current, subtract)
	if len(pieces) == 0 {
		return Poly{}, false
	}
	best, _ := LargestByArea(pieces)
	return best, true
}

// inverseWithinUnion computes step 2: the union of assigned polygons of
// everything constrained within this area, if any such assignment exists.
func (b *Bindings) inverseWithinUnion(area *Placeloc) (Poly, bool) {
	var assigned []Poly
	for _, child := range area.InverseWithin {
		if ca, ok := b.Areas[child]; ok && ca.Assigned != nil {
			assigned = append(assigned, *ca.Assigned)
		}
	}
	if len(assigned) == 0 {
		return Poly{}, false
	}
	pieces := Union(assigned)
	if len(pieces) != 1 {
		return Poly{}, false
	}
	return pieces[0], true
}

// fittingBox implements step 3: if a bounding box of aMin with the
// object's dimensions fits inside disjunctMax (with buffer), return it.
func fittingBox(aMin Poly, width, length float64, disjunctMax Poly) (Poly, bool) {
	minX, minY, maxX, maxY := aMin.Bounds()
	w, h := maxX-minX, maxY-minY
	boxW, boxH := math.Max(w, width), math.Max(h, length)
	box := Rect(minX, minY, boxW, boxH)
	if containsWithBuffer(disjunctMax, box) {
		return box, true
	}
	return Poly{}, false
}

// gridSweep implements step 4: grid-sample candidate boxes inside
// disjunctMax from the lower-left corner of its bounding box, stepping by
// gridStep in x then y, accepting the first box contained (plus buffer)
// in disjunctMax. If aMin exists, the swept box is grown to guarantee it
// contains aMin.
func gridSweep(disjunctMax Poly, width, length float64, aMin Poly, haveMin bool) (Poly, bool) {
	if width <= 0 {
		width = gridStep
	}
	if length <= 0 {
		length = gridStep
	}
	minX, minY, maxX, maxY := disjunctMax.Bounds()
	var aMinX, aMinY, aMaxX, aMaxY float64
	if haveMin {
		aMinX, aMinY, aMaxX, aMaxY = aMin.Bounds()
	}
	for y := minY; y <= maxY-length+buffer; y += gridStep {
		for x := minX; x <= maxX-width+buffer; x += gridStep {
			boxW, boxH := width, length
			bx, by := x, y
			if haveMin {
				bx = math.Min(bx, aMinX)
				by = math.Min(by, aMinY)
				boxW = math.Max(boxW, aMaxX-bx)
				boxH = math.Max(boxH, aMaxY-by)
			}
			box := Rect(bx, by, boxW, boxH)
			if containsWithBuffer(disjunctMax, box) {
				return box, true
			}
		}
	}
	return Poly{}, false
}

// containsWithBuffer reports whether outer contains inner, up to a small
// numerical buffer: every vertex of inner must lie within outer after
// growing outer's tolerance by buffer, checked via the shrink-by-buffer
// trick of testing that inner has (almost) full overlap with outer.
func containsWithBuffer(outer, inner Poly) bool {
	pieces := Intersect(outer, inner)
	if len(pieces) != 1 {
		return false
	}
	return math.Abs(pieces[0].Area()-inner.Area()) <= buffer+1e-9*inner.Area()
}

// ConflictingAssigned returns the ids of other area variables, not
// already declared disjoint from id, whose assigned polygon intersects
// id's current max-region. The UGGV refinement operator uses this to
// turn a failed Resolve into targeted geometric threat flaws (spec.md
// §4.7).
func (b *Bindings) ConflictingAssigned(id string) []string {
	area, ok := b.Areas[id]
	if !ok {
		return nil
	}
	var out []string
	for _, otherID := range sortedKeys(b.Areas) {
		if otherID == id {
			continue
		}
		other := b.Areas[otherID]
		if other.Assigned == nil {
			continue
		}
		skip := false
		for _, d := range area.Disjoint {
			if d == otherID {
				skip = true
				break
			}
		}
		if skip {
			continue
		}
		if len(Intersect(area.MaxRegion, *other.Assigned)) > 0 {
			out = append(out, otherID)
		}
	}
	return out
}

// ResolveAll resolves every unassigned area variable, smallest max-region
// first, leaving already-assigned variables untouched (spec.md §4.3).
func (b *Bindings) ResolveAll() bool {
	ids := sortedKeys(b.Areas)
	type entry struct {
		id   string
		area float64
	}
	pending := make([]entry, 0, len(ids))
	for _, id := range ids {
		if b.Areas[id].Assigned == nil {
			pending = append(pending, entry{id, b.Areas[id].MaxRegion.Area()})
		}
	}
	for i := 1; i < len(pending); i++ {
		for j := i; j > 0 && pending[j-1].area > pending[j].area; j-- {
			pending[j-1], pending[j] = pending[j], pending[j-1]
		}
	}
	for _, e := range pending {
		if !b.Resolve(e.id) {
			return false
		}
	}
	return true
}

// Clone returns a structurally independent deep copy of b.
func (b *Bindings) Clone() *Bindings {
	clone := New(b.BaseAreaID)
	for id, d := range b.Defined {
		nd := &DefinedArea{ID: d.ID, Polygon: append(Poly(nil), d.Polygon...), Within: append([]string(nil), d.Within...)}
		clone.Defined[id] = nd
	}
	for id, a := range b.Areas {
		na := &Placeloc{
			Owner:         a.Owner,
			Width:         a.Width,
			Length:        a.Length,
			MaxRegion:     append(Poly(nil), a.MaxRegion...),
			Within:        append([]string(nil), a.Within...),
			InverseWithin: append([]string(nil), a.InverseWithin...),
			Disjoint:      append([]string(nil), a.Disjoint...),
		}
		if a.Assigned != nil {
			assigned := append(Poly(nil), *a.Assigned...)
			na.Assigned = &assigned
		}
		clone.Areas[id] = na
	}
	for id, p := range b.Paths {
		np := &PathRecord{
			Mover:      p.Mover,
			Width:      p.Width,
			Length:     p.Length,
			StartArea:  p.StartArea,
			GoalArea:   p.GoalArea,
			Centerline: append([]orb.Point(nil), p.Centerline...),
			Disjoint:   append([]string(nil), p.Disjoint...),
		}
		if p.Corridor != nil {
			corridor := append(Poly(nil), *p.Corridor...)
			np.Corridor = &corridor
		}
		clone.Paths[id] = np
	}
	return clone
}

// Validate checks invariant G2 for every grounded area: the assigned
// polygon lies within the current max-region and, if object dimensions
// are set, has area at least the object's footprint.
func (b *Bindings) Validate() error {
	for _, id := range sortedKeys(b.Areas) {
		a := b.Areas[id]
		if a.Assigned == nil {
			continue
		}
		if !containsWithBuffer(a.MaxRegion, *a.Assigned) {
			return fmt.Errorf("geometry: area %s assigned polygon escapes its max-region", id)
		}
		if a.Width > 0 && a.Length > 0 && a.Assigned.Area()+buffer < a.Width*a.Length {
			return fmt.Errorf("geometry: area %s assigned polygon too small for its object", id)
		}
	}
	return nil
}
