package ackhandler

import "github.com/dengqian/quic-sentpacket/protocol"

// AckNotifierRegistry is the external observer of per-sequence-number
// acks. The sent-packet manager borrows a non-owning reference to one and
// never owns its lifetime.
type AckNotifierRegistry interface {
	// OnSerializedPacket is called from OnSerialized for every packet that
	// carries retransmittable frames.
	OnSerializedPacket(pkt SerializedPacket)
	// OnPacketAcked is called from the ack sweep for every SN the peer
	// reports as received.
	OnPacketAcked(sn protocol.PacketNumber)
	// UpdateSequenceNumber is called from OnRetransmitted, so registrations
	// keyed on the old SN follow the payload to its new SN.
	UpdateSequenceNumber(oldSN, newSN protocol.PacketNumber)
}

// NopAckNotifierRegistry is an AckNotifierRegistry that discards every
// event. It is the default used when a caller has no use for per-SN ack
// notification (e.g. no stream-level retransmission bookkeeping above this
// layer).
type NopAckNotifierRegistry struct{}

var _ AckNotifierRegistry = NopAckNotifierRegistry{}

func (NopAckNotifierRegistry) OnSerializedPacket(SerializedPacket)             {}
func (NopAckNotifierRegistry) OnPacketAcked(protocol.PacketNumber)             {}
func (NopAckNotifierRegistry) UpdateSequenceNumber(_, _ protocol.PacketNumber) {}

// MapAckNotifierRegistry is a straightforward AckNotifierRegistry backed by
// a map of per-SN callbacks, keyed by sequence number rather than carried
// on the frame itself.
type MapAckNotifierRegistry struct {
	onAcked map[protocol.PacketNumber]func()
}

var _ AckNotifierRegistry = &MapAckNotifierRegistry{}

func NewMapAckNotifierRegistry() *MapAckNotifierRegistry {
	return &MapAckNotifierRegistry{onAcked: make(map[protocol.PacketNumber]func())}
}

// Register arranges for cb to run when sn is acked. Registering twice for
// the same SN overwrites the earlier callback.
func (r *MapAckNotifierRegistry) Register(sn protocol.PacketNumber, cb func()) {
	r.onAcked[sn] = cb
}

func (r *MapAckNotifierRegistry) OnSerializedPacket(pkt SerializedPacket) {}

func (r *MapAckNotifierRegistry) OnPacketAcked(sn protocol.PacketNumber) {
	if cb, ok := r.onAcked[sn]; ok {
		cb()
		delete(r.onAcked, sn)
	}
}

func (r *MapAckNotifierRegistry) UpdateSequenceNumber(oldSN, newSN protocol.PacketNumber) {
	cb, ok := r.onAcked[oldSN]
	if !ok {
		return
	}
	delete(r.onAcked, oldSN)
	r.onAcked[newSN] = cb
}
