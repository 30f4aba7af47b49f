package ackhandler

import "github.com/dengqian/quic-sentpacket/protocol"

// defaultNackThreshold is the required NACK count before a packet is
// declared lost absent the early-retransmit exception.
const defaultNackThreshold = 3

// detectLostPackets is a pure function over the table snapshot and the
// largest SN the peer has observed: it returns every pending SN at or
// below largestObserved whose nack count has crossed the required
// threshold, applying the RFC 5827 early-retransmit exception when no
// packet has been sent beyond what the peer already acked.
func detectLostPackets(table *unackedPacketMap, largestObserved protocol.PacketNumber) []protocol.PacketNumber {
	largestSent, ok := table.largestSent()
	if !ok {
		return nil
	}
	var lost []protocol.PacketNumber
	for _, sn := range table.ascending() {
		if sn > largestObserved {
			break
		}
		r := table.mustGet(sn)
		if !r.pending {
			continue
		}
		required := defaultNackThreshold
		if r.hasRetransmittableFrames() && largestSent == largestObserved {
			if d := int(largestObserved - sn); d < required {
				required = d
			}
		}
		if r.nackCount >= required {
			lost = append(lost, sn)
		}
	}
	return lost
}
