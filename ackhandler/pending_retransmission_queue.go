package ackhandler

import (
	"github.com/dengqian/quic-sentpacket/protocol"
)

// pendingRetransmission is one entry of the pending-retransmission queue:
// a sequence number awaiting resend, together with why.
type pendingRetransmission struct {
	sn     protocol.PacketNumber
	reason protocol.TransmissionType
}

// pendingRetransmissionQueue is an ordered SN -> reason mapping. Order is
// only guaranteed FIFO within a reason class, so a plain FIFO slice plus a
// membership map is sufficient and keeps removal by SN O(1) amortized via
// a tombstone map rather than a slice search.
type pendingRetransmissionQueue struct {
	order  []protocol.PacketNumber
	reason map[protocol.PacketNumber]protocol.TransmissionType
}

func newPendingRetransmissionQueue() *pendingRetransmissionQueue {
	return &pendingRetransmissionQueue{reason: make(map[protocol.PacketNumber]protocol.TransmissionType)}
}

// enqueue adds sn with the given reason. At most one entry per SN exists
// at a time; re-enqueuing an already-queued SN overwrites its reason
// without duplicating the FIFO slot.
func (q *pendingRetransmissionQueue) enqueue(sn protocol.PacketNumber, reason protocol.TransmissionType) {
	if _, ok := q.reason[sn]; !ok {
		q.order = append(q.order, sn)
	}
	q.reason[sn] = reason
}

func (q *pendingRetransmissionQueue) contains(sn protocol.PacketNumber) bool {
	_, ok := q.reason[sn]
	return ok
}

func (q *pendingRetransmissionQueue) remove(sn protocol.PacketNumber) {
	delete(q.reason, sn)
}

func (q *pendingRetransmissionQueue) isEmpty() bool {
	q.compact()
	return len(q.order) == 0
}

// peekFront returns the head of the queue without removing it.
func (q *pendingRetransmissionQueue) peekFront() (protocol.PacketNumber, protocol.TransmissionType, bool) {
	q.compact()
	if len(q.order) == 0 {
		return protocol.InvalidPacketNumber, protocol.NotRetransmission, false
	}
	sn := q.order[0]
	return sn, q.reason[sn], true
}

// popFront removes and returns the head of the queue.
func (q *pendingRetransmissionQueue) popFront() (protocol.PacketNumber, protocol.TransmissionType, bool) {
	sn, reason, ok := q.peekFront()
	if !ok {
		return sn, reason, false
	}
	q.order = q.order[1:]
	delete(q.reason, sn)
	return sn, reason, true
}

// compact drops any tombstoned entries (removed via remove) from the head
// of the FIFO slice so peekFront/isEmpty don't observe stale SNs.
func (q *pendingRetransmissionQueue) compact() {
	i := 0
	for i < len(q.order) {
		if _, ok := q.reason[q.order[i]]; ok {
			break
		}
		i++
	}
	if i > 0 {
		q.order = q.order[i:]
	}
}
