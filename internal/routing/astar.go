package routing

import (
	"container/heap"

	"github.com/piwi3910/PlantLayout/internal/grid"
	"github.com/piwi3910/PlantLayout/internal/model"
)

var stepDirs = [4]model.Point{{X: 0, Y: 1}, {X: 0, Y: -1}, {X: 1, Y: 0}, {X: -1, Y: 0}}

type node struct {
	p     model.Point
	g, f  int
	index int
}

// openSet orders nodes by f, then x, then y.
type openSet []*node

func (pq openSet) Len() int { return len(pq) }
func (pq openSet) Less(i, j int) bool {
	a, b := pq[i], pq[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.p.X != b.p.X {
		return a.p.X < b.p.X
	}
	return a.p.Y < b.p.Y
}
func (pq openSet) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}
func (pq *openSet) Push(x any) {
	n := x.(*node)
	n.index = len(*pq)
	*pq = append(*pq, n)
}
func (pq *openSet) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

// FindPath returns a shortest 4-connected path from start to goal over the
// free cells of obstacles, using unit step costs and the Manhattan
// heuristic. The start cell itself may be occupied. When start equals goal
// the search is skipped and [start, goal] is returned. The boolean is false
// when no path exists; the path is then nil.
func FindPath(obstacles *grid.Grid, start, goal model.Point) (model.Path, bool) {
	if start == goal {
		return model.Path{start, goal}, true
	}
	if !obstacles.InBounds(start.X, start.Y) || !obstacles.InBounds(goal.X, goal.Y) {
		return nil, false
	}

	w := obstacles.Width
	idx := func(p model.Point) int { return p.Y*w + p.X }

	size := obstacles.Width * obstacles.Height
	gScore := make([]int, size)
	cameFrom := make([]int, size)
	closed := make([]bool, size)
	for i := range gScore {
		gScore[i] = -1
		cameFrom[i] = -1
	}

	open := &openSet{}
	heap.Init(open)
	gScore[idx(start)] = 0
	heap.Push(open, &node{p: start, g: 0, f: model.Manhattan(start, goal)})

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		ci := idx(cur.p)
		if closed[ci] {
			continue
		}
		closed[ci] = true

		if cur.p == goal {
			return reconstruct(cameFrom, ci, w), true
		}

		for _, d := range stepDirs {
			next := model.Point{X: cur.p.X + d.X, Y: cur.p.Y + d.Y}
			if !obstacles.Free(next) {
				continue
			}
			ni := idx(next)
			if closed[ni] {
				continue
			}
			g := cur.g + 1
			if gScore[ni] >= 0 && g >= gScore[ni] {
				continue
			}
			gScore[ni] = g
			cameFrom[ni] = ci
			heap.Push(open, &node{p: next, g: g, f: g + model.Manhattan(next, goal)})
		}
	}
	return nil, false
}

func reconstruct(cameFrom []int, end, w int) model.Path {
	var rev model.Path
	for i := end; i >= 0; i = cameFrom[i] {
		rev = append(rev, model.Point{X: i % w, Y: i / w})
	}
	path := make(model.Path, len(rev))
	for i, p := range rev {
		path[len(rev)-1-i] = p
	}
	return path
}
