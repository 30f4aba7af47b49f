package protocol

// PacketNumber identifies a single wire transmission. Packet numbers are
// monotonically increasing and are never reused within a connection.
type PacketNumber int64

// InvalidPacketNumber is returned where no packet number is available, e.g.
// by the pending-retransmission queue's peek when the queue is empty.
const InvalidPacketNumber PacketNumber = -1

// ByteCount is a number of bytes.
type ByteCount int64

// PacketNumberLength is the number of bytes used to encode a packet number
// on the wire. It is preserved on a transmission record so that a
// retransmission can be faithfully re-serialized.
type PacketNumberLength uint8

const (
	PacketNumberLen1 PacketNumberLength = 1
	PacketNumberLen2 PacketNumberLength = 2
	PacketNumberLen4 PacketNumberLength = 4
	PacketNumberLen6 PacketNumberLength = 6
)
