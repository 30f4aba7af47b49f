package ackhandler

import (
	"time"

	"github.com/dengqian/quic-sentpacket/protocol"
	"github.com/dengqian/quic-sentpacket/wire"
)

// SerializedPacket is what the packet serializer hands to OnSerialized: a
// just-built packet that has not yet hit the wire.
type SerializedPacket struct {
	SequenceNumber       protocol.PacketNumber
	SequenceNumberLength protocol.PacketNumberLength
	Length               protocol.ByteCount
	Frames               *wire.RetransmittableFrames // nil for pure-ACK packets
}

// transmissionRecord is the per-SN state kept in the unacked-packet table.
type transmissionRecord struct {
	sentTime             time.Time
	bytesSent            protocol.ByteCount
	frames               *wire.RetransmittableFrames // nil once neutered or for pure-ACK packets
	sequenceNumberLength protocol.PacketNumberLength
	nackCount            int
	pending              bool
	group                *transmissionGroup
}

func newTransmissionRecord(pkt SerializedPacket) *transmissionRecord {
	return &transmissionRecord{
		bytesSent:            pkt.Length,
		frames:               pkt.Frames,
		sequenceNumberLength: pkt.SequenceNumberLength,
		group:                newTransmissionGroup(pkt.SequenceNumber),
	}
}

func (r *transmissionRecord) hasRetransmittableFrames() bool {
	return r.frames != nil
}

func (r *transmissionRecord) isCryptoHandshake() bool {
	return r.frames != nil && r.frames.HasCryptoHandshake
}
