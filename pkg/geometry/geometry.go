// Package geometry provides the Chebyshev (l-infinity) predicates used by the
// spatial query kernels.
//
// All boxes are axis-aligned cubes described by a center and a level; the half
// side length of a box at a given level is derived from the root extent via
// LevelToRad. Balls are l-infinity balls, i.e. axis-aligned cubes of half side
// equal to the ball radius. No Euclidean distances are computed anywhere.
package geometry

import "math"

// MaxDims is the largest supported number of spatial dimensions.
const MaxDims = 4

// LevelToRad returns half the side length of a box at the given level.
// Level 0 is the root box, whose side length is rootExtent.
func LevelToRad(rootExtent float64, level int) float64 {
	return math.Ldexp(rootExtent, -(level + 1))
}

// ChebyshevDistance returns the l-infinity distance between two points.
// Both slices must have the same length.
func ChebyshevDistance(a, b []float64) float64 {
	var dist float64
	for ax := range a {
		d := math.Abs(a[ax] - b[ax])
		if d > dist {
			dist = d
		}
	}
	return dist
}

// IsAdjacentOrOverlapping reports whether the closures of two boxes intersect.
// Boxes that merely touch along a face, edge or corner count as adjacent.
// The comparison allows one ULP of slack on the summed half sides so that
// centers computed through different roundings still register as touching.
func IsAdjacentOrOverlapping(rootExtent float64, c1 []float64, l1 int, c2 []float64, l2 int) bool {
	limit := LevelToRad(rootExtent, l1) + LevelToRad(rootExtent, l2)
	limit = math.Nextafter(limit, math.Inf(1))
	for ax := range c1 {
		if math.Abs(c1[ax]-c2[ax]) > limit {
			return false
		}
	}
	return true
}

// BallBoxOverlap reports whether an l-infinity ball overlaps a box with the
// given center and half side. Touching counts as overlapping.
func BallBoxOverlap(ballCenter []float64, radius float64, boxCenter []float64, boxRad float64) bool {
	return ChebyshevDistance(ballCenter, boxCenter) <= boxRad+radius
}
