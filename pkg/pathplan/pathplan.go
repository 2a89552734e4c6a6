// Package pathplan implements the plan's path resolver: corridor routing
// through eroded free space and the movable-obstacle discovery that
// reintroduces symbolic work when a straight-line route is blocked
// (spec.md §4.3 `resolve_path`, §4.4).
//
// The corridor/polyline shape is styled on dungo's pkg/carving/corridor.go
// (CorridorRouter over a polyline of Points); the grid discretisation and
// A* search reuse gonum.org/v1/gonum/graph/path, named because the teacher
// has no pathfinding library of its own and gonum is already a pack
// dependency surface (viamrobotics/rdk's go.mod). Movable-obstacle
// discovery's uniform-cost search is hand-rolled over container/heap,
// styled on katalvlaran/lvlath/dijkstra's lazy-decrease-key Dijkstra,
// because it needs every predecessor achieving the minimum cost — a
// multi-predecessor back-trace gonum's path.Shortest does not expose.
package pathplan

import (
	"container/heap"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/PetervDooren/PyDPOCL/pkg/geometry"
)

// gridResolution is the cell size the grid-A* fallback discretises free
// space at (spec.md §4.3: "grid-A* at 10 cm resolution is an acceptable
// fallback").
const gridResolution = 0.10

// Resolve assigns a concrete centre-line and swept corridor to the path
// variable named id (spec.md §4.3 `resolve_path`). It returns false if the
// start and goal centroids fall in different components of the eroded
// free space — the caller then invokes DiscoverMovableObstacles.
func Resolve(b *geometry.Bindings, id string) bool {
	p, ok := b.Paths[id]
	if !ok || p.Corridor != nil {
		return ok
	}

	freeSpace, ok := freeSpaceOf(b, p)
	if !ok || len(freeSpace) == 0 {
		return false
	}

	halfWidth := math.Min(p.Width, p.Length) / 2
	eroded := erodeAll(freeSpace, halfWidth)
	if len(eroded) == 0 {
		return false
	}

	startArea := b.Areas[p.StartArea]
	goalArea := b.Areas[p.GoalArea]
	if startArea == nil || goalArea == nil {
		return false
	}
	start := regionPolygon(startArea).Centroid()
	goal := regionPolygon(goalArea).Centroid()

	component, ok := singleComponentContaining(eroded, start, goal)
	if !ok {
		return false
	}

	centerline, ok := routeGridAStar(component, start, goal)
	if !ok {
		return false
	}

	corridorPieces := geometry.Buffer(centerline, halfWidth)
	if len(corridorPieces) == 0 {
		return false
	}
	corridor, _ := geometry.LargestByArea(corridorPieces)

	p.Centerline = centerline
	p.Corridor = &corridor
	return true
}

// freeSpaceOf computes the base polygon minus the assigned polygons of
// the area variables in a PathRecord's own Disjoint set. A PathRecord
// carries no within-constraints, so none are intersected, and Disjoint
// entries that are defined areas, path variables, or still-unassigned
// areas are not subtracted.
func freeSpaceOf(b *geometry.Bindings, p *geometry.PathRecord) ([]geometry.Poly, bool) {
	base, ok := b.Defined[b.BaseAreaID]
	if !ok {
		return nil, false
	}
	current := []geometry.Poly{base.Polygon}
	var subtract []geometry.Poly
	for _, id := range p.Disjoint {
		if a, ok := b.Areas[id]; ok && a.Assigned != nil {
			subtract = append(subtract, *a.Assigned)
		}
	}
	if len(subtract) == 0 {
		return current, true
	}
	var out []geometry.Poly
	for _, c := range current {
		out = append(out, geometry.Difference(c, subtract)...)
	}
	return out, len(out) > 0
}

func erodeAll(polys []geometry.Poly, d float64) []geometry.Poly {
	var out []geometry.Poly
	for _, p := range polys {
		out = append(out, geometry.Erode(p, d)...)
	}
	return out
}

func regionPolygon(a *geometry.Placeloc) geometry.Poly {
	if a.Assigned != nil {
		return *a.Assigned
	}
	return a.MaxRegion
}

// singleComponentContaining returns the element of components whose
// polygon contains both start and goal, if exactly one such element
// exists across the (possibly multi-polygon) free space.
func singleComponentContaining(components []geometry.Poly, start, goal orb.Point) (geometry.Poly, bool) {
	for _, c := range components {
		if c.Contains(start, 1e-6) && c.Contains(goal, 1e-6) {
			return c, true
		}
	}
	return nil, false
}

// routeGridAStar discretises component at gridResolution and runs A* from
// the grid cell nearest start to the one nearest goal, using Euclidean
// distance as both edge weight and heuristic (admissible since it never
// overestimates the true shortest 4-connected path).
func routeGridAStar(component geometry.Poly, start, goal orb.Point) ([]orb.Point, bool) {
	minX, minY, maxX, maxY := component.Bounds()
	cols := int((maxX-minX)/gridResolution) + 2
	rows := int((maxY-minY)/gridResolution) + 2
	if cols <= 0 || rows <= 0 {
		return nil, false
	}

	cellID := func(col, row int) int64 { return int64(row*cols + col) }
	cellCenter := func(col, row int) orb.Point {
		return orb.Point{minX + (float64(col)+0.5)*gridResolution, minY + (float64(row)+0.5)*gridResolution}
	}
	inside := make([][]bool, rows)
	for r := 0; r < rows; r++ {
		inside[r] = make([]bool, cols)
		for c := 0; c < cols; c++ {
			inside[r][c] = component.Contains(cellCenter(c, r), 1e-6)
		}
	}
	nearestCell := func(pt orb.Point) (int, int, bool) {
		bestCol, bestRow, bestDist := -1, -1, math.Inf(1)
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				if !inside[r][c] {
					continue
				}
				center := cellCenter(c, r)
				d := math.Hypot(center[0]-pt[0], center[1]-pt[1])
				if d < bestDist {
					bestDist, bestCol, bestRow = d, c, r
				}
			}
		}
		return bestCol, bestRow, bestCol >= 0
	}

	startCol, startRow, ok := nearestCell(start)
	if !ok {
		return nil, false
	}
	goalCol, goalRow, ok := nearestCell(goal)
	if !ok {
		return nil, false
	}

	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if inside[r][c] {
				g.AddNode(simple.Node(cellID(c, r)))
			}
		}
	}
	addEdge := func(c1, r1, c2, r2 int) {
		if c2 < 0 || c2 >= cols || r2 < 0 || r2 >= rows {
			return
		}
		if !inside[r1][c1] || !inside[r2][c2] {
			return
		}
		w := math.Hypot(float64(c1-c2), float64(r1-r2)) * gridResolution
		g.SetWeightedEdge(simple.WeightedEdge{F: simple.Node(cellID(c1, r1)), T: simple.Node(cellID(c2, r2)), W: w})
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if !inside[r][c] {
				continue
			}
			addEdge(c, r, c+1, r)
			addEdge(c, r, c, r+1)
		}
	}

	startNode := simple.Node(cellID(startCol, startRow))
	goalNode := simple.Node(cellID(goalCol, goalRow))
	heuristic := func(x, y graph.Node) float64 {
		xc, xr := int(x.ID())%cols, int(x.ID())/cols
		yc, yr := int(y.ID())%cols, int(y.ID())/cols
		return math.Hypot(float64(xc-yc), float64(xr-yr)) * gridResolution
	}
	shortest, _ := path.AStar(startNode, goalNode, g, heuristic)
	nodes, _ := shortest.To(goalNode.ID())
	if len(nodes) == 0 {
		return nil, false
	}

	out := make([]orb.Point, 0, len(nodes)+2)
	out = append(out, start)
	for _, n := range nodes {
		col, row := int(n.ID())%cols, int(n.ID())/cols
		out = append(out, cellCenter(col, row))
	}
	out = append(out, goal)
	return out, true
}

// obstacleNode is a node in the movable-obstacle connectivity graph: it is
// either a component of the eroded free space or a disjoint area/path
// argument (spec.md §4.4 step 1).
type obstacleNode struct {
	id        string
	isObstacle bool
	polygon   geometry.Poly
}

// DiscoverMovableObstacles runs spec.md §4.4's movable-obstacle discovery
// for the path variable named id, once Resolve has failed on it. It
// returns every minimum-cost ordered set of obstacles whose removal
// reconnects the start and goal components.
func DiscoverMovableObstacles(b *geometry.Bindings, id string) [][]string {
	p, ok := b.Paths[id]
	if !ok {
		return nil
	}
	freeSpace, ok := freeSpaceOf(b, p)
	if !ok {
		freeSpace = nil
	}
	halfWidth := math.Min(p.Width, p.Length) / 2
	components := erodeAll(freeSpace, halfWidth)

	startArea := b.Areas[p.StartArea]
	goalArea := b.Areas[p.GoalArea]
	if startArea == nil || goalArea == nil {
		return nil
	}
	start := regionPolygon(startArea).Centroid()
	goal := regionPolygon(goalArea).Centroid()

	nodes := make(map[string]*obstacleNode)
	var startNode, goalNode string
	for i, c := range components {
		id := componentID(i)
		nodes[id] = &obstacleNode{id: id, polygon: c}
		if c.Contains(start, 1e-6) {
			startNode = id
		}
		if c.Contains(goal, 1e-6) {
			goalNode = id
		}
	}
	for _, obsID := range sortedDisjoint(p.Disjoint) {
		if a, ok := b.Areas[obsID]; ok && a.Assigned != nil {
			nodes[obsID] = &obstacleNode{id: obsID, isObstacle: true, polygon: *a.Assigned}
		}
	}
	if startNode == "" || goalNode == "" {
		return nil
	}

	adj := buildAdjacency(nodes, halfWidth)
	dist, preds := uniformCostSearch(nodes, adj, startNode)
	if _, ok := dist[goalNode]; !ok {
		return nil
	}

	var sets [][]string
	backtrace(goalNode, startNode, preds, nodes, nil, &sets)
	return sets
}

func componentID(i int) string {
	return "__component_" + itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var digits []byte
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

func sortedDisjoint(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}

// buildAdjacency adds an edge between any two nodes whose polygons
// intersect once both are inflated by halfWidth (spec.md §4.4 step 1).
func buildAdjacency(nodes map[string]*obstacleNode, halfWidth float64) map[string][]string {
	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	adj := make(map[string][]string)
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := nodes[ids[i]], nodes[ids[j]]
			inflatedA := inflate(a.polygon, halfWidth)
			if len(geometry.Intersect(inflatedA, b.polygon)) > 0 {
				adj[ids[i]] = append(adj[ids[i]], ids[j])
				adj[ids[j]] = append(adj[ids[j]], ids[i])
			}
		}
	}
	return adj
}

func inflate(p geometry.Poly, d float64) geometry.Poly {
	minX, minY, maxX, maxY := p.Bounds()
	return geometry.Rect(minX-d, minY-d, (maxX-minX)+2*d, (maxY-minY)+2*d)
}

// searchItem is one entry in the uniform-cost search's priority queue.
type searchItem struct {
	id   string
	cost int
}

type searchQueue []searchItem

func (q searchQueue) Len() int            { return len(q) }
func (q searchQueue) Less(i, j int) bool  { return q[i].cost < q[j].cost }
func (q searchQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *searchQueue) Push(x interface{}) { *q = append(*q, x.(searchItem)) }
func (q *searchQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// uniformCostSearch runs Dijkstra from start where entering a component
// node costs 0 and entering an obstacle node costs 1 (spec.md §4.4 step
// 2), accumulating every predecessor that achieves the minimum distance
// to each node so every minimum-cost path can be back-traced.
func uniformCostSearch(nodes map[string]*obstacleNode, adj map[string][]string, start string) (map[string]int, map[string][]string) {
	dist := map[string]int{start: 0}
	preds := make(map[string][]string)
	pq := &searchQueue{{id: start, cost: 0}}
	heap.Init(pq)
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(searchItem)
		if cur.cost > dist[cur.id] {
			continue
		}
		for _, next := range adj[cur.id] {
			step := 0
			if nodes[next].isObstacle {
				step = 1
			}
			nd := cur.cost + step
			best, seen := dist[next]
			switch {
			case !seen || nd < best:
				dist[next] = nd
				preds[next] = []string{cur.id}
				heap.Push(pq, searchItem{id: next, cost: nd})
			case nd == best:
				preds[next] = append(preds[next], cur.id)
			}
		}
	}
	return dist, preds
}

// backtrace enumerates every minimum-cost path from goal back to start,
// emitting the ordered list of obstacle nodes traversed on each (spec.md
// §4.4 step 3).
func backtrace(node, start string, preds map[string][]string, nodes map[string]*obstacleNode, trail []string, out *[][]string) {
	next := trail
	if nodes[node] != nil && nodes[node].isObstacle {
		next = append([]string{node}, trail...)
	}
	if node == start {
		*out = append(*out, next)
		return
	}
	for _, p := range preds[node] {
		backtrace(p, start, preds, nodes, next, out)
	}
}
