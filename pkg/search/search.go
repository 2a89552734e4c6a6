// Package search implements the planner's single-threaded best-first
// search driver: the frontier, the pop/expand/insert loop, and the
// report it returns on solution, timeout, or frontier exhaustion
// (spec.md §2, §4.9 "frontier", §5 "concurrency & resource model", §7).
//
// It is the Go rendering of the original implementation's
// POCLPlanner.solve(k, cutoff): a heapq-backed frontier there becomes a
// container/heap here, popped in the same lexicographic order pkg/heuristic
// computes, with the same k-solutions/wall-clock-cutoff stopping rule.
package search

import (
	"container/heap"
	"time"

	"go.uber.org/zap"

	"github.com/PetervDooren/PyDPOCL/pkg/heuristic"
	"github.com/PetervDooren/PyDPOCL/pkg/plan"
	"github.com/PetervDooren/PyDPOCL/pkg/refine"
)

// Options configures one search run, mirroring the original's
// solve(k, cutoff) parameters (spec.md §2, §5).
type Options struct {
	// K stops the search once this many solutions have been found. 0
	// means unbounded (run until the frontier is exhausted or Cutoff
	// fires).
	K int
	// Cutoff bounds wall-clock time. 0 means no cutoff.
	Cutoff time.Duration
}

// Report is the run's outcome summary, returned whether the search found
// solutions, exhausted the frontier, or hit Cutoff (spec.md §7: "the
// driver returns the list of completed plans found so far plus a
// report").
type Report struct {
	PlanningTime time.Duration
	Expanded     int // plans popped with remaining flaws and handed to refine.Expand
	Visited      int // every plan popped from the frontier, including pruned and solved ones
	LeavesPruned int // popped, internally consistent plans whose expansion yielded no internally consistent children
	Terminated   bool
	PlansFound   int
}

// frontier is the min-heap over plans ordered by heuristic.OrderKey
// (spec.md §4.9, §5: "a single min-heap ordered by the lexicographic
// plan key").
type frontier struct {
	items []*plan.Plan
	keys  []heuristic.OrderKey
}

func (f *frontier) Len() int { return len(f.items) }

func (f *frontier) Less(i, j int) bool { return f.keys[i].Less(f.keys[j]) }

func (f *frontier) Swap(i, j int) {
	f.items[i], f.items[j] = f.items[j], f.items[i]
	f.keys[i], f.keys[j] = f.keys[j], f.keys[i]
}

func (f *frontier) Push(x any) {
	p := x.(*plan.Plan)
	f.items = append(f.items, p)
	f.keys = append(f.keys, heuristic.KeyOf(p))
}

func (f *frontier) Pop() any {
	n := len(f.items)
	item := f.items[n-1]
	f.items = f.items[:n-1]
	f.keys = f.keys[:n-1]
	return item
}

// Run executes the search loop: pop the frontier's lowest-keyed plan;
// discard it if its ordering graph has gone inconsistent (spec.md §4.1,
// checked lazily at pop time); accept it as a solution if it carries no
// flaws; otherwise hand it to pkg/refine and push every internally
// consistent child back onto the frontier with a freshly computed
// heuristic value. Cancellation is checked once per iteration against
// opts.Cutoff (spec.md §5 "Cancellation").
func Run(env *refine.Env, calc *heuristic.Calculator, initial *plan.Plan, opts Options, logger *zap.SugaredLogger) ([]*plan.Plan, Report) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	start := time.Now()
	f := &frontier{}
	heap.Init(f)
	pushPlan(f, calc, initial)

	var solutions []*plan.Plan
	var report Report

	for {
		if opts.Cutoff > 0 && time.Since(start) > opts.Cutoff {
			report.Terminated = true
			logger.Infow("search cutoff reached", "visited", report.Visited, "expanded", report.Expanded)
			break
		}
		if f.Len() == 0 {
			break
		}

		p := heap.Pop(f).(*plan.Plan)
		report.Visited++

		if !p.IsInternallyConsistent() {
			continue
		}

		if p.Flaws.Len() == 0 {
			p.Solved = true
			solutions = append(solutions, p)
			logger.Debugw("plan solved", "id", p.ID, "cost", p.Cost, "depth", p.Depth)
			if opts.K > 0 && len(solutions) >= opts.K {
				break
			}
			continue
		}

		report.Expanded++
		children := refine.Expand(env, p)
		pushed := 0
		for _, child := range children {
			if !child.IsInternallyConsistent() {
				continue
			}
			pushPlan(f, calc, child)
			pushed++
		}
		if pushed == 0 {
			report.LeavesPruned++
		}
	}

	report.PlanningTime = time.Since(start)
	report.PlansFound = len(solutions)
	return solutions, report
}

func pushPlan(f *frontier, calc *heuristic.Calculator, p *plan.Plan) {
	p.Heuristic = calc.HPlan(p)
	heap.Push(f, p)
}
