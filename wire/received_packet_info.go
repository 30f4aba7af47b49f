package wire

import (
	"time"

	"github.com/dengqian/quic-sentpacket/protocol"
)

// SequenceNumberSet is an unordered set of packet numbers, used for the
// missing-packets and revived-packets lists of a ReceivedPacketInfo.
type SequenceNumberSet map[protocol.PacketNumber]struct{}

// NewSequenceNumberSet builds a SequenceNumberSet from the given packet
// numbers.
func NewSequenceNumberSet(pns ...protocol.PacketNumber) SequenceNumberSet {
	s := make(SequenceNumberSet, len(pns))
	for _, pn := range pns {
		s[pn] = struct{}{}
	}
	return s
}

// Contains reports whether pn is a member of the set.
func (s SequenceNumberSet) Contains(pn protocol.PacketNumber) bool {
	_, ok := s[pn]
	return ok
}

// ReceivedPacketInfo is the already-decoded content of one incoming ACK
// frame. Decoding the wire representation of an ACK frame into this struct
// is the packet-serialization/parsing layer's job; this package only
// consumes the result.
type ReceivedPacketInfo struct {
	// LargestObserved is the highest packet number the peer reports having
	// seen.
	LargestObserved protocol.PacketNumber
	// MissingPackets are packet numbers at or below LargestObserved that the
	// peer has not reported receiving.
	MissingPackets SequenceNumberSet
	// RevivedPackets are packet numbers the peer reconstructed via FEC
	// without receiving the original transmission.
	RevivedPackets SequenceNumberSet
	// IsTruncated is true when the peer's missing-packets list was cut short
	// by a frame-size limit.
	IsTruncated bool
	// DeltaTimeLargestObserved is the peer-reported delay between receiving
	// LargestObserved and sending this ACK.
	DeltaTimeLargestObserved time.Duration
}

// IsAwaitingPacket reports whether pn is still awaited by the peer, i.e. it
// is at or below LargestObserved and listed as missing. Packet numbers above
// LargestObserved are reported as not awaited.
func (r *ReceivedPacketInfo) IsAwaitingPacket(pn protocol.PacketNumber) bool {
	return pn <= r.LargestObserved && r.MissingPackets.Contains(pn)
}

// CongestionFeedbackFrame is an opaque placeholder for the gQUIC-style
// out-of-band congestion feedback frame a sent-packet manager forwards to
// its congestion controller unexamined. Its wire format is out of scope
// for this package.
type CongestionFeedbackFrame struct {
	Payload []byte
}
