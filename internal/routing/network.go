package routing

import (
	"context"
	"fmt"
	"runtime"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/piwi3910/PlantLayout/internal/grid"
	"github.com/piwi3910/PlantLayout/internal/model"
)

// Options controls access-point resolution and routing.
type Options struct {
	SearchRadius int  `toml:"search_radius" env:"SEARCH_RADIUS" validate:"gte=0"`
	Lookahead    bool `toml:"lookahead" env:"LOOKAHEAD"`
	Workers      int  `toml:"workers" env:"WORKERS" validate:"gte=0"` // 0 uses GOMAXPROCS
}

// DefaultOptions returns the standard routing options.
func DefaultOptions() Options {
	return Options{
		SearchRadius: DefaultSearchRadius,
		Lookahead:    true,
	}
}

// Segment is the route between two consecutive stations of the sequence.
// When Found is false Path is the two-point placeholder [Start, Goal].
type Segment struct {
	From  int         `json:"from"`
	To    int         `json:"to"`
	Start model.Point `json:"start"`
	Goal  model.Point `json:"goal"`
	Path  model.Path  `json:"path"`
	Found bool        `json:"found"`
}

// Network is the routed path network of one layout.
type Network struct {
	AccessPoints map[int]model.Point `json:"access_points"`
	Unresolved   []int               `json:"unresolved,omitempty"`
	Segments     []Segment           `json:"segments"`
	Obstacles    *grid.Grid          `json:"-"`
}

// Failures counts segments for which no path was found.
func (n *Network) Failures() int {
	count := 0
	for _, s := range n.Segments {
		if !s.Found {
			count++
		}
	}
	return count
}

// TotalLength sums the steps of every found path.
func (n *Network) TotalLength() int {
	total := 0
	for _, s := range n.Segments {
		if s.Found {
			total += s.Path.Steps()
		}
	}
	return total
}

// Planner routes finished layouts.
type Planner struct {
	opts   Options
	logger *log.Logger
}

// NewPlanner creates a planner. A nil logger falls back to log.Default().
func NewPlanner(opts Options, logger *log.Logger) *Planner {
	if logger == nil {
		logger = log.Default()
	}
	return &Planner{opts: opts, logger: logger}
}

// Plan resolves one access point per station in sequence order and routes
// every consecutive pair. A malformed layout is the only fatal input error.
// Missing paths and unresolved stations are reported on the Network.
func (p *Planner) Plan(ctx context.Context, layout model.LayoutResult) (*Network, error) {
	res, err := NewResolver(layout, p.opts.SearchRadius)
	if err != nil {
		return nil, err
	}

	seq := layout.ProcessSequence
	net := &Network{
		AccessPoints: make(map[int]model.Point, len(seq)),
		Obstacles:    res.Obstacles(),
	}

	first, err := res.Resolve(seq[0])
	if err != nil {
		return nil, err
	}
	net.AccessPoints[seq[0]] = first

	// Endpoints are fixed sequentially since each lookahead depends on the
	// previous station's point.
	net.Segments = make([]Segment, 0, max(len(seq)-1, 0))
	for i := 0; i+1 < len(seq); i++ {
		cur, next := seq[i], seq[i+1]
		start := net.AccessPoints[cur]

		var goal model.Point
		if p.opts.Lookahead && i < len(seq)-2 {
			goal, err = res.ResolveLookahead(start, next, seq[i+2])
		} else {
			goal, err = res.Resolve(next)
		}
		if err != nil {
			return nil, err
		}
		net.AccessPoints[next] = goal
		net.Segments = append(net.Segments, Segment{From: cur, To: next, Start: start, Goal: goal})
	}

	net.Unresolved = res.Unresolved()
	for _, id := range net.Unresolved {
		p.logger.Warn("access point unresolved, using occupied center", "station", id, "point", net.AccessPoints[id])
	}

	workers := p.opts.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range net.Segments {
		seg := &net.Segments[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			path, ok := FindPath(net.Obstacles, seg.Start, seg.Goal)
			if !ok {
				path = model.Path{seg.Start, seg.Goal}
			}
			seg.Path = path
			seg.Found = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("routing interrupted: %w", err)
	}

	for _, seg := range net.Segments {
		if seg.Found {
			p.logger.Debug("segment routed", "from", seg.From, "to", seg.To, "steps", seg.Path.Steps())
		} else {
			p.logger.Warn("no path between stations", "from", seg.From, "to", seg.To, "start", seg.Start, "goal", seg.Goal)
		}
	}
	p.logger.Info("routing complete",
		"segments", len(net.Segments),
		"failures", net.Failures(),
		"unresolved", len(net.Unresolved),
		"length", net.TotalLength())
	return net, nil
}
