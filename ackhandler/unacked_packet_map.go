package ackhandler

import (
	"fmt"
	"sort"
	"time"

	"github.com/dengqian/quic-sentpacket/protocol"
)

// unackedPacketMap is a keyed collection from sequence number to
// transmission record, iterable in ascending SN order. It carries
// transmission-group and nack-count bookkeeping alongside each record so
// retransmission identity survives across wire transmissions.
type unackedPacketMap struct {
	records map[protocol.PacketNumber]*transmissionRecord

	pendingCryptoPacketCount int

	// largestSentSN is a high-water mark of every sequence number ever
	// inserted into this table. It deliberately does not track the records map,
	// since the ack sweep in OnAck removes acked records before loss
	// detection runs; the early-retransmit exception needs to know whether
	// anything was sent beyond largest_observed, not merely whether
	// anything is still unacked beyond it.
	largestSentSN    protocol.PacketNumber
	hasLargestSentSN bool
}

func newUnackedPacketMap() *unackedPacketMap {
	return &unackedPacketMap{records: make(map[protocol.PacketNumber]*transmissionRecord)}
}

func (m *unackedPacketMap) add(pkt SerializedPacket) {
	if _, ok := m.records[pkt.SequenceNumber]; ok {
		panic(fmt.Sprintf("ackhandler: duplicate sequence number %d", pkt.SequenceNumber))
	}
	m.records[pkt.SequenceNumber] = newTransmissionRecord(pkt)
	m.markSent(pkt.SequenceNumber)
}

func (m *unackedPacketMap) markSent(sn protocol.PacketNumber) {
	if !m.hasLargestSentSN || sn > m.largestSentSN {
		m.largestSentSN = sn
		m.hasLargestSentSN = true
	}
}

// onRetransmitted creates a new record under newSN, moves the old
// record's frames to it, and merges the two groups.
func (m *unackedPacketMap) onRetransmitted(oldSN, newSN protocol.PacketNumber, newLength protocol.PacketNumberLength) {
	old, ok := m.records[oldSN]
	if !ok {
		panic(fmt.Sprintf("ackhandler: retransmitting unknown sequence number %d", oldSN))
	}
	if !old.hasRetransmittableFrames() {
		panic(fmt.Sprintf("ackhandler: retransmitting sequence number %d with no frames", oldSN))
	}
	group := old.group
	next := &transmissionRecord{
		frames:               old.frames,
		sequenceNumberLength: newLength,
		group:                group,
	}
	old.frames = nil
	group.add(newSN)
	m.records[newSN] = next
	m.markSent(newSN)
}

func (m *unackedPacketMap) setPending(sn protocol.PacketNumber, sentTime time.Time, bytes protocol.ByteCount) {
	r := m.mustGet(sn)
	r.pending = true
	r.sentTime = sentTime
	r.bytesSent = bytes
}

func (m *unackedPacketMap) setNotPending(sn protocol.PacketNumber) {
	if r, ok := m.records[sn]; ok {
		r.pending = false
	}
}

func (m *unackedPacketMap) remove(sn protocol.PacketNumber) {
	delete(m.records, sn)
}

// neuter clears the record's retransmittable frames but keeps the record,
// preserving group history when a sibling has been acked but this SN's
// bytes are still tracked by the congestion controller.
func (m *unackedPacketMap) neuter(sn protocol.PacketNumber) {
	if r, ok := m.records[sn]; ok {
		r.frames = nil
	}
}

func (m *unackedPacketMap) nack(sn protocol.PacketNumber, minNacks int) {
	r, ok := m.records[sn]
	if !ok {
		return
	}
	if r.nackCount < minNacks {
		r.nackCount = minNacks
	}
}

// clearPreviousRetransmissions drops the k oldest records that are
// non-pending and are not the newest of their group, used on truncated
// ACK frames to let the peer's missing-packets list shrink.
func (m *unackedPacketMap) clearPreviousRetransmissions(k int) {
	if k <= 0 {
		return
	}
	for _, sn := range m.ascending() {
		if k == 0 {
			return
		}
		r := m.records[sn]
		if r.pending || sn == r.group.newest {
			continue
		}
		delete(m.records, sn)
		k--
	}
}

func (m *unackedPacketMap) isUnacked(sn protocol.PacketNumber) bool {
	_, ok := m.records[sn]
	return ok
}

func (m *unackedPacketMap) isPending(sn protocol.PacketNumber) bool {
	r, ok := m.records[sn]
	return ok && r.pending
}

func (m *unackedPacketMap) hasPendingPackets() bool {
	for _, r := range m.records {
		if r.pending {
			return true
		}
	}
	return false
}

func (m *unackedPacketMap) hasMultiplePendingPackets() bool {
	count := 0
	for _, r := range m.records {
		if r.pending {
			count++
			if count > 1 {
				return true
			}
		}
	}
	return false
}

func (m *unackedPacketMap) hasUnackedRetransmittableFrames() bool {
	for _, r := range m.records {
		if r.hasRetransmittableFrames() {
			return true
		}
	}
	return false
}

func (m *unackedPacketMap) leastUnackedSent() (protocol.PacketNumber, bool) {
	least := protocol.InvalidPacketNumber
	found := false
	for sn := range m.records {
		if !found || sn < least {
			least = sn
			found = true
		}
	}
	return least, found
}

// largestSent returns the highest sequence number ever inserted into this
// table, regardless of whether it has since been acked and removed. See
// the largestSentSN field comment for why this must survive removal.
func (m *unackedPacketMap) largestSent() (protocol.PacketNumber, bool) {
	return m.largestSentSN, m.hasLargestSentSN
}

// firstPendingSentTime returns the send time of the oldest pending record.
func (m *unackedPacketMap) firstPendingSentTime() (time.Time, bool) {
	var earliest time.Time
	var earliestSN protocol.PacketNumber
	found := false
	for sn, r := range m.records {
		if !r.pending {
			continue
		}
		if !found || sn < earliestSN {
			earliest = r.sentTime
			earliestSN = sn
			found = true
		}
	}
	return earliest, found
}

// firstPendingRetransmittableSentTime returns the send time of the oldest
// pending record that still carries frames. This is the TLP timer's
// preferred base over the last packet sent, since the earliest
// retransmittable packet is the one actually being probed for loss.
func (m *unackedPacketMap) firstPendingRetransmittableSentTime() (time.Time, bool) {
	var earliest time.Time
	var earliestSN protocol.PacketNumber
	found := false
	for sn, r := range m.records {
		if !r.pending || !r.hasRetransmittableFrames() {
			continue
		}
		if !found || sn < earliestSN {
			earliest = r.sentTime
			earliestSN = sn
			found = true
		}
	}
	return earliest, found
}

func (m *unackedPacketMap) lastPacketSentTime() (time.Time, bool) {
	var latest time.Time
	var latestSN protocol.PacketNumber
	found := false
	for sn, r := range m.records {
		if !r.pending {
			continue
		}
		if !found || sn > latestSN {
			latest = r.sentTime
			latestSN = sn
			found = true
		}
	}
	return latest, found
}

func (m *unackedPacketMap) get(sn protocol.PacketNumber) (*transmissionRecord, bool) {
	r, ok := m.records[sn]
	return r, ok
}

func (m *unackedPacketMap) mustGet(sn protocol.PacketNumber) *transmissionRecord {
	r, ok := m.records[sn]
	if !ok {
		panic(fmt.Sprintf("ackhandler: sequence number %d not in table", sn))
	}
	return r
}

// ascending returns every tracked sequence number in ascending order.
func (m *unackedPacketMap) ascending() []protocol.PacketNumber {
	out := make([]protocol.PacketNumber, 0, len(m.records))
	for sn := range m.records {
		out = append(out, sn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m *unackedPacketMap) len() int {
	return len(m.records)
}
