package query

import (
	"fmt"
	"slices"

	"github.com/boxquery/pkg/boxtree"
	"github.com/boxquery/pkg/collections"
	"github.com/boxquery/pkg/geometry"
)

// ============================================================================
// Result Verifier
// ============================================================================

// VerifyPeerLists re-checks a peer list lookup against its tree: CSR shape,
// the root's singleton list, no duplicates within one list, and the
// adjacency and level conditions for every listed peer. It is a debugging
// aid, not part of the query path.
func VerifyPeerLists(t *boxtree.Tree, peers *PeerListLookup) error {
	if err := collections.ValidateCSR(peers.PeerListStarts, peers.PeerLists); err != nil {
		return fmt.Errorf("peer lists: %w", err)
	}
	if err := checkPeerListShape(t, peers); err != nil {
		return err
	}

	root := peers.PeersOf(0)
	if len(root) != 1 || root[0] != 0 {
		return fmt.Errorf("peer list of root must be [0], got %v", root)
	}

	var cbuf, pbuf [geometry.MaxDims]float64
	seen := collections.NewVersionedBitset(int(t.NBoxes()))

	for box := int32(0); box < t.NBoxes(); box++ {
		seen.Reset()
		level := t.Level(box)
		center := t.LoadCenter(cbuf[:0], box)

		for _, peer := range peers.PeersOf(box) {
			if peer < 0 || peer >= t.NBoxes() {
				return fmt.Errorf("box %d lists out-of-range peer %d", box, peer)
			}
			if seen.Test(int(peer)) {
				return fmt.Errorf("box %d lists peer %d twice", box, peer)
			}
			seen.Set(int(peer))

			if t.Level(peer) > level {
				return fmt.Errorf("box %d (level %d) lists smaller peer %d (level %d)",
					box, level, peer, t.Level(peer))
			}
			peerCenter := t.LoadCenter(pbuf[:0], peer)
			if !geometry.IsAdjacentOrOverlapping(t.RootExtent, center, level, peerCenter, t.Level(peer)) {
				return fmt.Errorf("box %d lists non-adjacent peer %d", box, peer)
			}
		}
	}
	return nil
}

// VerifyAreaQuery re-checks an area query result: CSR shape, and for every
// listed box that it is a leaf, that it overlaps its ball, and that it
// appears only once in the ball's list.
func VerifyAreaQuery(t *boxtree.Tree, balls *BallSet, aq *AreaQueryResult) error {
	if err := collections.ValidateCSR(aq.LeavesNearBallStarts, aq.LeavesNearBallLists); err != nil {
		return fmt.Errorf("area query: %w", err)
	}
	if len(aq.LeavesNearBallStarts) != balls.NBalls()+1 {
		return fmt.Errorf("%w: area query starts has %d entries, want %d",
			ErrShapeMismatch, len(aq.LeavesNearBallStarts), balls.NBalls()+1)
	}

	var cbuf, lbuf [geometry.MaxDims]float64
	seen := collections.NewVersionedBitset(int(t.NBoxes()))

	for ball := int32(0); ball < int32(balls.NBalls()); ball++ {
		seen.Reset()
		center := balls.LoadCenter(cbuf[:0], ball)
		radius := balls.Radii[ball]

		for _, leaf := range aq.LeavesNear(ball) {
			if leaf < 0 || leaf >= t.NBoxes() {
				return fmt.Errorf("ball %d lists out-of-range box %d", ball, leaf)
			}
			if seen.Test(int(leaf)) {
				return fmt.Errorf("ball %d lists leaf %d twice", ball, leaf)
			}
			seen.Set(int(leaf))

			if !t.IsLeaf(leaf) {
				return fmt.Errorf("ball %d lists non-leaf box %d", ball, leaf)
			}
			leafCenter := t.LoadCenter(lbuf[:0], leaf)
			if !geometry.BallBoxOverlap(center, radius, leafCenter, t.Radius(leaf)) {
				return fmt.Errorf("ball %d lists non-overlapping leaf %d", ball, leaf)
			}
		}
	}
	return nil
}

// VerifyTranspose checks that lbl is the transpose of aq: every (ball, leaf)
// pair of the area query appears as (leaf, ball) in the lookup, the totals
// match, and per-box ball lists are sorted.
func VerifyTranspose(t *boxtree.Tree, aq *AreaQueryResult, lbl *LeavesToBallsLookup) error {
	if err := collections.ValidateCSR(lbl.BallsNearBoxStarts, lbl.BallsNearBoxLists); err != nil {
		return fmt.Errorf("leaves-to-balls: %w", err)
	}
	if len(lbl.BallsNearBoxStarts) != int(t.NBoxes())+1 {
		return fmt.Errorf("%w: lookup starts has %d entries, want %d",
			ErrShapeMismatch, len(lbl.BallsNearBoxStarts), t.NBoxes()+1)
	}
	if len(lbl.BallsNearBoxLists) != len(aq.LeavesNearBallLists) {
		return fmt.Errorf("lookup has %d entries, area query has %d",
			len(lbl.BallsNearBoxLists), len(aq.LeavesNearBallLists))
	}

	for box := int32(0); box < t.NBoxes(); box++ {
		ballsNear := lbl.BallsNear(box)
		for i, ball := range ballsNear {
			if i > 0 && ballsNear[i-1] > ball {
				return fmt.Errorf("box %d ball list is not sorted", box)
			}
			found := false
			for _, leaf := range aq.LeavesNear(ball) {
				if leaf == box {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("lookup pairs box %d with ball %d, area query does not", box, ball)
			}
		}
	}

	for ball := int32(0); ball+1 < int32(len(aq.LeavesNearBallStarts)); ball++ {
		for _, leaf := range aq.LeavesNear(ball) {
			if leaf < 0 || leaf >= t.NBoxes() || !slices.Contains(lbl.BallsNear(leaf), ball) {
				return fmt.Errorf("area query pairs ball %d with leaf %d, lookup does not", ball, leaf)
			}
		}
	}
	return nil
}
