package ackhandler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dengqian/quic-sentpacket/protocol"
)

func TestMapAckNotifierRegistryFiresOnAck(t *testing.T) {
	r := NewMapAckNotifierRegistry()
	fired := false
	r.Register(1, func() { fired = true })

	r.OnPacketAcked(2)
	assert.False(t, fired, "a different SN must not fire the callback")

	r.OnPacketAcked(1)
	assert.True(t, fired)
}

func TestMapAckNotifierRegistryFiresOnceAfterAck(t *testing.T) {
	r := NewMapAckNotifierRegistry()
	count := 0
	r.Register(1, func() { count++ })

	r.OnPacketAcked(1)
	r.OnPacketAcked(1)
	assert.Equal(t, 1, count)
}

func TestMapAckNotifierRegistryUpdateSequenceNumberFollowsPayload(t *testing.T) {
	r := NewMapAckNotifierRegistry()
	fired := false
	r.Register(1, func() { fired = true })

	r.UpdateSequenceNumber(1, 2)
	r.OnPacketAcked(1)
	assert.False(t, fired, "the callback moved to the new SN")

	r.OnPacketAcked(2)
	assert.True(t, fired)
}

func TestMapAckNotifierRegistryUpdateSequenceNumberWithoutRegistrationIsNoop(t *testing.T) {
	r := NewMapAckNotifierRegistry()
	r.UpdateSequenceNumber(1, 2)
	assert.NotPanics(t, func() { r.OnPacketAcked(2) })
}

func TestNopAckNotifierRegistryDiscardsEverything(t *testing.T) {
	var r AckNotifierRegistry = NopAckNotifierRegistry{}
	assert.NotPanics(t, func() {
		r.OnSerializedPacket(SerializedPacket{})
		r.OnPacketAcked(protocol.PacketNumber(1))
		r.UpdateSequenceNumber(1, 2)
	})
}
