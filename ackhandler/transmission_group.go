package ackhandler

import "github.com/dengqian/quic-sentpacket/protocol"

// transmissionGroup is the set of sequence numbers that are retransmissions
// of one logical payload. It is shared by pointer across every
// transmissionRecord that belongs to it, so merging two groups on
// retransmission is a single pointer swap rather than a copy, and newest
// is kept current without a second lookup.
type transmissionGroup struct {
	members map[protocol.PacketNumber]struct{}
	newest  protocol.PacketNumber
}

func newTransmissionGroup(sn protocol.PacketNumber) *transmissionGroup {
	return &transmissionGroup{
		members: map[protocol.PacketNumber]struct{}{sn: {}},
		newest:  sn,
	}
}

func (g *transmissionGroup) add(sn protocol.PacketNumber) {
	g.members[sn] = struct{}{}
	if sn > g.newest {
		g.newest = sn
	}
}

func (g *transmissionGroup) remove(sn protocol.PacketNumber) {
	delete(g.members, sn)
}

// sorted returns the group's members in ascending order, newest last.
func (g *transmissionGroup) sorted() []protocol.PacketNumber {
	out := make([]protocol.PacketNumber, 0, len(g.members))
	for sn := range g.members {
		out = append(out, sn)
	}
	// insertion sort: groups are small (almost always 1-3 members)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
