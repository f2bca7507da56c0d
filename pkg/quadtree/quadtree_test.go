package quadtree

import (
	"math/rand"
	"testing"

	"github.com/chazu/fixturedrc/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pt struct {
	id      int
	p       geom.Point
	visited bool
}

func (p *pt) Position() geom.Point { return p.p }
func (p *pt) Visited() bool        { return p.visited }
func (p *pt) SetVisited(v bool)    { p.visited = v }

func ids(items []*pt) map[int]bool {
	out := make(map[int]bool, len(items))
	for _, it := range items {
		out[it.id] = true
	}
	return out
}

func randomPoints(r *rand.Rand, n int, b geom.Box) []*pt {
	pts := make([]*pt, n)
	for i := range pts {
		pts[i] = &pt{id: i, p: geom.Pt(
			b.Min.X+r.Float64()*b.Width(),
			b.Min.Y+r.Float64()*b.Height(),
		)}
	}
	return pts
}

func TestQueryRangeReturnsEveryInsertedPoint(t *testing.T) {
	bounds := geom.NewBox(0, 0, 100, 100)
	for seed := int64(1); seed <= 5; seed++ {
		r := rand.New(rand.NewSource(seed))
		pts := randomPoints(r, 200, bounds)
		r.Shuffle(len(pts), func(i, j int) { pts[i], pts[j] = pts[j], pts[i] })

		tree := New[*pt](bounds)
		for _, p := range pts {
			require.True(t, tree.Insert(p))
		}
		got := tree.QueryRange(bounds)
		assert.Len(t, got, len(pts))
		assert.Len(t, ids(got), len(pts), "no duplicates")
		assert.Equal(t, len(pts), tree.Len())
	}
}

func TestQueryRangeMatchesBruteForce(t *testing.T) {
	bounds := geom.NewBox(-50, -50, 50, 50)
	r := rand.New(rand.NewSource(42))
	pts := randomPoints(r, 300, bounds)
	tree := New[*pt](bounds)
	for _, p := range pts {
		tree.Insert(p)
	}

	queries := []geom.Box{
		geom.NewBox(0, 0, 10, 10),
		geom.NewBox(-50, -50, 0, 0),
		geom.NewBox(-5, -50, 5, 50),
		geom.NewBox(60, 60, 70, 70),
	}
	for _, q := range queries {
		want := map[int]bool{}
		for _, p := range pts {
			if q.Contains(p.p) {
				want[p.id] = true
			}
		}
		assert.Equal(t, want, ids(tree.QueryRange(q)))
	}
}

func TestInsertOutOfBounds(t *testing.T) {
	bounds := geom.NewBox(0, 0, 10, 10)
	tree := New[*pt](bounds)
	out := &pt{id: 99, p: geom.Pt(10.0001, 5)}
	assert.False(t, tree.Insert(out))
	assert.True(t, tree.Insert(&pt{id: 1, p: geom.Pt(10, 10)}), "bounds are inclusive")

	assert.NotContains(t, ids(tree.QueryRange(geom.NewBox(-100, -100, 100, 100))), 99)
	assert.NotContains(t, ids(tree.All()), 99)
	assert.Equal(t, 1, tree.Len())
}

func TestLazyNonRetroactiveCapacity(t *testing.T) {
	tree := New[*pt](geom.NewBox(0, 0, 8, 8))
	for i := 0; i < MaxPointsPerNode+1; i++ {
		tree.Insert(&pt{id: i, p: geom.Pt(1, 1)})
	}
	assert.Len(t, tree.root.items, MaxPointsPerNode+1)
	assert.Nil(t, tree.root.children[0], "no subdivision until the node overflows")

	tree.Insert(&pt{id: 10, p: geom.Pt(7, 7)})
	require.NotNil(t, tree.root.children[0])
	assert.Len(t, tree.root.items, MaxPointsPerNode+1, "stored items stay put")
	assert.Len(t, tree.root.children[TopRight].items, 1)
	for _, q := range []int{BottomLeft, BottomRight, TopLeft} {
		assert.Empty(t, tree.root.children[q].items)
	}
}

func TestQuadrantBoundaryGoesLowerLeft(t *testing.T) {
	tree := New[*pt](geom.NewBox(0, 0, 8, 8))
	for i := 0; i <= MaxPointsPerNode; i++ {
		tree.Insert(&pt{id: i, p: geom.Pt(0, 0)})
	}
	tree.Insert(&pt{id: 100, p: geom.Pt(4, 4)})
	tree.Insert(&pt{id: 101, p: geom.Pt(4, 4.5)})
	tree.Insert(&pt{id: 102, p: geom.Pt(4.5, 4)})

	assert.Equal(t, 100, tree.root.children[BottomLeft].items[0].id)
	assert.Equal(t, 101, tree.root.children[TopLeft].items[0].id)
	assert.Equal(t, 102, tree.root.children[BottomRight].items[0].id)
}

func TestVisitedSweep(t *testing.T) {
	bounds := geom.NewBox(0, 0, 100, 100)
	r := rand.New(rand.NewSource(7))
	pts := randomPoints(r, 64, bounds)
	tree := New[*pt](bounds)
	for _, p := range pts {
		tree.Insert(p)
	}

	for i, p := range pts {
		if i%3 == 0 {
			p.SetVisited(true)
		}
	}
	unvisited := tree.QueryUnvisited()
	for _, p := range unvisited {
		assert.False(t, p.visited)
	}
	assert.Len(t, unvisited, len(pts)-(len(pts)+2)/3)

	tree.ResetVisited()
	assert.Len(t, tree.QueryUnvisited(), len(pts))
	tree.ResetVisited()
	assert.Len(t, tree.QueryUnvisited(), len(pts), "reset is idempotent")
}

func TestAllOrderIsNodeThenChildren(t *testing.T) {
	tree := New[*pt](geom.NewBox(0, 0, 8, 8))
	for i := 0; i < 12; i++ {
		tree.Insert(&pt{id: i, p: geom.Pt(float64(i%8), float64(i%8))})
	}
	all := tree.All()
	require.Len(t, all, 12)
	for i := 0; i <= MaxPointsPerNode; i++ {
		assert.Equal(t, i, all[i].id)
	}
	assert.GreaterOrEqual(t, tree.Depth(), 1)
}
