// Package query implements the ball-vs-box spatial queries against a
// linearised 2^d-tree: peer lists, area queries, the leaves-to-balls
// transpose, and space-invader distance reductions.
//
// All queries share the same skeleton. Peer lists are computed once per tree
// and cover, for every box, its adjacent neighbourhood with same-or-larger
// boxes. A ball query locates its guiding box by radius, then expands the
// guiding box's peer list through a stackful tree walk, touching only the
// subtrees that can contain overlapping leaves. Variable-length outputs are
// assembled with the two-pass count/scan/write pattern, one work item per
// box, ball, or list element.
package query

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/boxquery/pkg/boxtree"
)

// MaxLevelsGranularity is the quantisation step for the walk stack bound.
// Rounding the bound up keeps it stable across trees of similar depth.
const MaxLevelsGranularity = 10

// MaxLevels returns the walk stack bound for a tree of the given depth:
// nlevels rounded up to a multiple of MaxLevelsGranularity.
func MaxLevels(nlevels int) int {
	return (nlevels + MaxLevelsGranularity - 1) / MaxLevelsGranularity * MaxLevelsGranularity
}

// ============================================================================
// Results
// ============================================================================

// PeerListLookup maps every box of a tree to its peer list in CSR form.
//
// A box p is a peer of box b if p is adjacent to or overlapping b, p is at
// the same or a higher level than b, and no child of p satisfies both
// conditions. The peer list of the root is {0}.
type PeerListLookup struct {
	// PeerListStarts has nboxes+1 entries; the peers of box b are
	// PeerLists[PeerListStarts[b]:PeerListStarts[b+1]].
	PeerListStarts []int32 `json:"peer_list_starts"`

	// PeerLists holds the concatenated per-box peer lists.
	PeerLists []int32 `json:"peer_lists"`
}

// PeersOf returns the peer list of one box as a subslice.
func (p *PeerListLookup) PeersOf(box int32) []int32 {
	return p.PeerLists[p.PeerListStarts[box]:p.PeerListStarts[box+1]]
}

// AreaQueryResult maps every query ball to the leaf boxes it overlaps in the
// l-infinity sense, in CSR form.
type AreaQueryResult struct {
	// LeavesNearBallStarts has nballs+1 entries; the leaves overlapping
	// ball i are LeavesNearBallLists[starts[i]:starts[i+1]].
	LeavesNearBallStarts []int32 `json:"leaves_near_ball_starts"`

	// LeavesNearBallLists holds the concatenated per-ball leaf lists.
	LeavesNearBallLists []int32 `json:"leaves_near_ball_lists"`
}

// LeavesNear returns the leaf list of one ball as a subslice.
func (a *AreaQueryResult) LeavesNear(ball int32) []int32 {
	return a.LeavesNearBallLists[a.LeavesNearBallStarts[ball]:a.LeavesNearBallStarts[ball+1]]
}

// LeavesToBallsLookup is the transpose of an area query: for every box of
// the tree, the balls overlapping it, in CSR form indexed by global box id.
// Only leaf boxes have non-empty entries; within one box the ball ids are
// sorted ascending.
type LeavesToBallsLookup struct {
	// BallsNearBoxStarts has nboxes+1 entries.
	BallsNearBoxStarts []int32 `json:"balls_near_box_starts"`

	// BallsNearBoxLists holds the concatenated per-box ball lists.
	BallsNearBoxLists []int32 `json:"balls_near_box_lists"`
}

// BallsNear returns the ball list of one box as a subslice.
func (l *LeavesToBallsLookup) BallsNear(box int32) []int32 {
	return l.BallsNearBoxLists[l.BallsNearBoxStarts[box]:l.BallsNearBoxStarts[box+1]]
}

// ============================================================================
// Ball Sets
// ============================================================================

// BallSet is a batch of l-infinity query balls in structure-of-arrays
// layout: Centers[axis][ball] and Radii[ball].
type BallSet struct {
	Centers [][]float64 `json:"centers"`
	Radii   []float64   `json:"radii"`
}

// NBalls returns the number of balls in the set.
func (b *BallSet) NBalls() int {
	return len(b.Radii)
}

// LoadCenter appends the center coordinates of ball i to dst and returns the
// extended slice.
func (b *BallSet) LoadCenter(dst []float64, i int32) []float64 {
	for ax := range b.Centers {
		dst = append(dst, b.Centers[ax][i])
	}
	return dst
}

// Validate checks the ball set against the dimensionality of a tree. The
// checks mirror the call preconditions: every axis must carry one coordinate
// per ball, and coordinates must be finite.
func (b *BallSet) Validate(dimensions int) error {
	if len(b.Centers) != dimensions {
		return fmt.Errorf("%w: ball centers have %d axes, tree has %d",
			ErrShapeMismatch, len(b.Centers), dimensions)
	}
	for ax, c := range b.Centers {
		if len(c) != len(b.Radii) {
			return fmt.Errorf("%w: centers axis %d has %d entries, radii has %d",
				ErrShapeMismatch, ax, len(c), len(b.Radii))
		}
		for i, v := range c {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: ball %d center axis %d is %v", ErrShapeMismatch, i, ax, v)
			}
		}
	}
	for i, r := range b.Radii {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return fmt.Errorf("%w: ball %d radius is %v", ErrShapeMismatch, i, r)
		}
	}
	return nil
}

// DecodeBallSet reads a ball set from r.
func DecodeBallSet(r io.Reader) (*BallSet, error) {
	var b BallSet
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return nil, fmt.Errorf("failed to decode ball set: %w", err)
	}
	return &b, nil
}

// LoadBallSetFile reads a ball set from a file.
func LoadBallSetFile(path string) (*BallSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ball set: %w", err)
	}
	defer f.Close()
	return DecodeBallSet(f)
}

// checkPeerListShape verifies a caller-supplied peer list against the tree.
func checkPeerListShape(t *boxtree.Tree, peers *PeerListLookup) error {
	if len(peers.PeerListStarts) != int(t.NBoxes())+1 {
		return fmt.Errorf("%w: peer list starts has %d entries, want %d",
			ErrPeerListSize, len(peers.PeerListStarts), t.NBoxes()+1)
	}
	return nil
}
