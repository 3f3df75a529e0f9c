package graph

import (
	"github.com/aretw0/lattice/pkg/domain"
)

// Canvas geometry used to place new nodes clear of existing ones.
const (
	DialogWidth  = 450.0
	DialogHeight = 400.0
	Padding      = 30.0
	HeaderHeight = 93.0
	NodeWidth    = 300.0
	NodeHeight   = 200.0

	minX = 20.0
	minY = HeaderHeight + 20
)

// FindOptimalPosition picks where the next node goes. An empty canvas starts at
// (400, 143). Otherwise it tries, relative to the top-most node: above it, to its
// right, to its left and above-right, taking the first candidate that stays on
// the canvas and does not overlap a node. When all collide the node goes right of
// the right-most node.
func FindOptimalPosition(nodes []domain.Node) domain.Position {
	if len(nodes) == 0 {
		return domain.Position{X: 400, Y: HeaderHeight + 50}
	}

	top := nodes[0].Position
	for _, n := range nodes[1:] {
		if n.Position.Y < top.Y {
			top = n.Position
		}
	}

	above := max(minY, top.Y-DialogHeight-Padding)
	candidates := []domain.Position{
		{X: top.X, Y: above},
		{X: top.X + NodeWidth + 50, Y: top.Y},
		{X: max(minX, top.X-DialogWidth-Padding), Y: top.Y},
		{X: top.X + 200, Y: above},
	}
	for _, c := range candidates {
		if c.X >= minX && c.Y >= minY && !overlapsAny(c, nodes) {
			return c
		}
	}

	right := nodes[0].Position
	for _, n := range nodes[1:] {
		if n.Position.X > right.X {
			right = n.Position
		}
	}
	return domain.Position{X: right.X + NodeWidth + 50, Y: max(HeaderHeight+50, top.Y)}
}

func overlapsAny(p domain.Position, nodes []domain.Node) bool {
	for _, n := range nodes {
		if overlaps(p, n.Position) {
			return true
		}
	}
	return false
}

// overlaps reports whether a dialog-sized box at p comes within Padding of a
// node-sized box at n.
func overlaps(p, n domain.Position) bool {
	return !(p.X > n.X+NodeWidth+Padding ||
		p.X+DialogWidth < n.X-Padding ||
		p.Y > n.Y+NodeHeight+Padding ||
		p.Y+DialogHeight < n.Y-Padding)
}
