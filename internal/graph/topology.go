// Package graph implements the audio signal-processing graph manager: it
// builds the fixed node set once per session and performs the idempotent
// disconnect/reconnect rewiring that moves an effect in and out of the
// signal path.
package graph

import (
	"fmt"

	"github.com/auraplay/auraplay/internal/domain"
)

// NodeID identifies a node in the signal graph.
type NodeID string

// The fixed node set. Node identities never change after initialization;
// only the edges after the band chain do.
const (
	NodeSource      NodeID = "source"
	NodeGain        NodeID = "gain"
	NodeReverb      NodeID = "reverb"
	NodeTone        NodeID = "tone"
	NodeAnalyser    NodeID = "analyser"
	NodeDestination NodeID = "destination"
)

// BandNode returns the node ID of the i-th equalizer band.
func BandNode(i int) NodeID {
	return NodeID(fmt.Sprintf("band%d", i))
}

// Edge is a directed connection between two nodes.
type Edge struct {
	From NodeID
	To   NodeID
}

// DeriveTopology returns the complete edge list for the given active effect.
// It is a pure function of its argument: the rewiring operation derives the
// wiring fresh on every call instead of patching incrementally, which is what
// makes repeated calls with the same argument idempotent.
//
// The shape is always source -> gain -> band0..band5 -> [effect] ->
// analyser -> destination, with exactly one path and one outgoing edge
// per node.
func DeriveTopology(active domain.EffectKind) []Edge {
	edges := []Edge{
		{NodeSource, NodeGain},
		{NodeGain, BandNode(0)},
	}
	for i := 0; i < domain.BandCount-1; i++ {
		edges = append(edges, Edge{BandNode(i), BandNode(i + 1)})
	}

	tail := BandNode(domain.BandCount - 1)
	switch active {
	case domain.EffectReverb:
		edges = append(edges, Edge{tail, NodeReverb})
		tail = NodeReverb
	case domain.EffectTone:
		edges = append(edges, Edge{tail, NodeTone})
		tail = NodeTone
	}

	edges = append(edges,
		Edge{tail, NodeAnalyser},
		Edge{NodeAnalyser, NodeDestination},
	)
	return edges
}
