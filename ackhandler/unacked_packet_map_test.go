package ackhandler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dengqian/quic-sentpacket/protocol"
	"github.com/dengqian/quic-sentpacket/wire"
)

func newRetransmittableRecord(table *unackedPacketMap, sn protocol.PacketNumber) {
	table.add(SerializedPacket{
		SequenceNumber:       sn,
		SequenceNumberLength: protocol.PacketNumberLen4,
		Length:               1000,
		Frames:               &wire.RetransmittableFrames{Frames: struct{}{}, EncryptionLevel: protocol.EncryptionForwardSecure},
	})
}

func TestUnackedPacketMapAddAndRemove(t *testing.T) {
	table := newUnackedPacketMap()
	newRetransmittableRecord(table, 1)
	assert.True(t, table.isUnacked(1))
	table.remove(1)
	assert.False(t, table.isUnacked(1))
}

func TestUnackedPacketMapAddDuplicatePanics(t *testing.T) {
	table := newUnackedPacketMap()
	newRetransmittableRecord(table, 1)
	assert.Panics(t, func() { newRetransmittableRecord(table, 1) })
}

func TestUnackedPacketMapSetPendingTracksSentTimeAndBytes(t *testing.T) {
	table := newUnackedPacketMap()
	newRetransmittableRecord(table, 1)
	now := time.Now()
	table.setPending(1, now, 1200)

	assert.True(t, table.isPending(1))
	r := table.mustGet(1)
	assert.Equal(t, now, r.sentTime)
	assert.Equal(t, protocol.ByteCount(1200), r.bytesSent)
}

func TestUnackedPacketMapOnRetransmittedMovesFramesAndMergesGroup(t *testing.T) {
	table := newUnackedPacketMap()
	newRetransmittableRecord(table, 1)
	table.setPending(1, time.Now(), 1000)

	table.onRetransmitted(1, 2, protocol.PacketNumberLen2)

	old := table.mustGet(1)
	assert.False(t, old.hasRetransmittableFrames(), "old record's frames move to the new SN")
	newRecord := table.mustGet(2)
	assert.True(t, newRecord.hasRetransmittableFrames())
	assert.Same(t, old.group, newRecord.group)
	assert.Equal(t, protocol.PacketNumber(2), old.group.newest)
}

func TestUnackedPacketMapOnRetransmittedPanicsWithoutFrames(t *testing.T) {
	table := newUnackedPacketMap()
	newRetransmittableRecord(table, 1)
	table.neuter(1)
	assert.Panics(t, func() { table.onRetransmitted(1, 2, protocol.PacketNumberLen2) })
}

func TestUnackedPacketMapNeuterKeepsRecord(t *testing.T) {
	table := newUnackedPacketMap()
	newRetransmittableRecord(table, 1)
	table.neuter(1)

	assert.True(t, table.isUnacked(1))
	assert.False(t, table.mustGet(1).hasRetransmittableFrames())
}

func TestUnackedPacketMapNack(t *testing.T) {
	table := newUnackedPacketMap()
	newRetransmittableRecord(table, 1)
	table.nack(1, 2)
	assert.Equal(t, 2, table.mustGet(1).nackCount)
	// nack never lowers an existing count.
	table.nack(1, 1)
	assert.Equal(t, 2, table.mustGet(1).nackCount)
	table.nack(1, 5)
	assert.Equal(t, 5, table.mustGet(1).nackCount)
}

func TestUnackedPacketMapHasPendingPackets(t *testing.T) {
	table := newUnackedPacketMap()
	newRetransmittableRecord(table, 1)
	assert.False(t, table.hasPendingPackets())
	assert.False(t, table.hasMultiplePendingPackets())

	table.setPending(1, time.Now(), 1000)
	assert.True(t, table.hasPendingPackets())
	assert.False(t, table.hasMultiplePendingPackets())

	newRetransmittableRecord(table, 2)
	table.setPending(2, time.Now(), 1000)
	assert.True(t, table.hasMultiplePendingPackets())
}

func TestUnackedPacketMapLargestSentSurvivesRemoval(t *testing.T) {
	table := newUnackedPacketMap()
	newRetransmittableRecord(table, 1)
	newRetransmittableRecord(table, 2)

	largest, ok := table.largestSent()
	require.True(t, ok)
	assert.Equal(t, protocol.PacketNumber(2), largest)

	table.remove(2)
	table.remove(1)

	// The early-retransmit check needs this value to persist even once
	// the table is empty (the ack sweep removes acked records before loss
	// detection runs).
	largest, ok = table.largestSent()
	require.True(t, ok)
	assert.Equal(t, protocol.PacketNumber(2), largest)
}

func TestUnackedPacketMapLeastUnackedSent(t *testing.T) {
	table := newUnackedPacketMap()
	newRetransmittableRecord(table, 5)
	newRetransmittableRecord(table, 2)
	newRetransmittableRecord(table, 9)

	least, ok := table.leastUnackedSent()
	require.True(t, ok)
	assert.Equal(t, protocol.PacketNumber(2), least)
}

func TestUnackedPacketMapClearPreviousRetransmissions(t *testing.T) {
	table := newUnackedPacketMap()
	newRetransmittableRecord(table, 1)
	table.setPending(1, time.Now(), 1000)
	table.onRetransmitted(1, 2, protocol.PacketNumberLen4) // group {1,2}, SN1 neutered
	table.setNotPending(1)                                 // as a real RTO fire does before enqueuing
	table.setPending(2, time.Now(), 1000)

	newRetransmittableRecord(table, 3)
	table.setPending(3, time.Now(), 1000)

	table.clearPreviousRetransmissions(1)

	assert.False(t, table.isUnacked(1), "non-pending, non-newest record should be dropped")
	assert.True(t, table.isUnacked(2), "group's newest record survives")
	assert.True(t, table.isUnacked(3), "unrelated pending record survives")
}

func TestUnackedPacketMapClearPreviousRetransmissionsSkipsPendingAndNewest(t *testing.T) {
	table := newUnackedPacketMap()
	newRetransmittableRecord(table, 1)
	table.setPending(1, time.Now(), 1000) // still pending: not eligible

	table.clearPreviousRetransmissions(5)

	assert.True(t, table.isUnacked(1))
}

func TestUnackedPacketMapAscendingOrder(t *testing.T) {
	table := newUnackedPacketMap()
	newRetransmittableRecord(table, 3)
	newRetransmittableRecord(table, 1)
	newRetransmittableRecord(table, 2)

	assert.Equal(t, []protocol.PacketNumber{1, 2, 3}, table.ascending())
}

func TestUnackedPacketMapFirstPendingRetransmittableSentTimePrefersEarliestOverLast(t *testing.T) {
	table := newUnackedPacketMap()
	base := time.Unix(0, 0)
	newRetransmittableRecord(table, 1)
	table.setPending(1, base, 1000)
	newRetransmittableRecord(table, 2)
	table.setPending(2, base.Add(10*time.Millisecond), 1000)

	earliest, ok := table.firstPendingRetransmittableSentTime()
	require.True(t, ok)
	assert.Equal(t, base, earliest)

	latest, ok := table.lastPacketSentTime()
	require.True(t, ok)
	assert.Equal(t, base.Add(10*time.Millisecond), latest)
}
