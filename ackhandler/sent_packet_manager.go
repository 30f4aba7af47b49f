package ackhandler

import (
	"fmt"
	"time"

	"github.com/dengqian/quic-sentpacket/congestion"
	"github.com/dengqian/quic-sentpacket/protocol"
	"github.com/dengqian/quic-sentpacket/utils"
	"github.com/dengqian/quic-sentpacket/wire"
)

// SentPacketManager tracks every outgoing packet from serialization to
// ack, loss, or abandonment, and drives the HANDSHAKE/TLP/RTO
// retransmission state machine.
type SentPacketManager struct {
	table                  *unackedPacketMap
	pendingRetransmissions *pendingRetransmissionQueue

	rttStats      *utils.RTTStats
	sendAlgorithm congestion.SendAlgorithm
	ackNotifier   AckNotifierRegistry
	stats         *utils.ConnectionStats
	clock         utils.Clock
	perspective   protocol.Perspective

	consecutiveRTOCount                  int
	consecutiveTLPCount                  int
	consecutiveCryptoRetransmissionCount int
}

// NewSentPacketManager constructs a manager ready to track packets.
// ackNotifier may be nil, in which case per-SN ack notification is
// discarded.
func NewSentPacketManager(sendAlgorithm congestion.SendAlgorithm, rttStats *utils.RTTStats, stats *utils.ConnectionStats, ackNotifier AckNotifierRegistry, clock utils.Clock, perspective protocol.Perspective) *SentPacketManager {
	if ackNotifier == nil {
		ackNotifier = NopAckNotifierRegistry{}
	}
	if clock == nil {
		clock = utils.RealClock{}
	}
	return &SentPacketManager{
		table:                  newUnackedPacketMap(),
		pendingRetransmissions: newPendingRetransmissionQueue(),
		rttStats:               rttStats,
		sendAlgorithm:          sendAlgorithm,
		ackNotifier:            ackNotifier,
		stats:                  stats,
		clock:                  clock,
		perspective:            perspective,
	}
}

// SetFromConfig applies negotiated connection configuration: it seeds the
// RTT estimate from cfg.InitialRoundTripTimeUs (server-only, and only
// before any real sample has landed) and, if cfg.CongestionControl asks
// for pacing, wraps sendAlgorithm in a PacingSender. Safe to call more
// than once; a already-paced sendAlgorithm is never double-wrapped.
func (m *SentPacketManager) SetFromConfig(cfg congestion.Config, perspective protocol.Perspective) {
	m.sendAlgorithm.SetFromConfig(cfg, perspective)
	if cfg.CongestionControl != congestion.PaceCongestionControlValue {
		return
	}
	if _, alreadyPaced := m.sendAlgorithm.(*congestion.PacingSender); alreadyPaced {
		return
	}
	m.sendAlgorithm = congestion.NewPacingSender(m.sendAlgorithm, 0)
}

// OnSerialized registers a just-serialized packet. If it carries
// retransmittable frames, the ACK-notifier registry is told about it and,
// if the frames are a crypto handshake, the pending-crypto-packet count
// goes up.
func (m *SentPacketManager) OnSerialized(pkt SerializedPacket) {
	m.table.add(pkt)
	if pkt.Frames == nil {
		return
	}
	m.ackNotifier.OnSerializedPacket(pkt)
	if pkt.Frames.HasCryptoHandshake {
		m.table.pendingCryptoPacketCount++
	}
}

// OnRetransmitted is called after the I/O layer has assigned newSN to a
// pending-retransmission entry: it removes that entry, rekeys the
// ACK-notifier, and folds newSN into oldSN's transmission group.
func (m *SentPacketManager) OnRetransmitted(oldSN, newSN protocol.PacketNumber, newLength protocol.PacketNumberLength) {
	if !m.pendingRetransmissions.contains(oldSN) {
		panic(fmt.Sprintf("ackhandler: OnRetransmitted called for %d, which is not pending retransmission", oldSN))
	}
	m.pendingRetransmissions.remove(oldSN)
	m.ackNotifier.UpdateSequenceNumber(oldSN, newSN)
	m.table.onRetransmitted(oldSN, newSN, newLength)
}

// OnSent is called after sn hit the wire. It reports whether the caller
// should (re)arm the retransmission timer: true if there were no other
// pending packets before this one, or if the current retransmission mode
// keeps a tight schedule (HANDSHAKE or TLP). If sn already left the table
// (raced with an ack), or the congestion controller declines to track it,
// OnSent returns false and the caller continues without arming anything.
func (m *SentPacketManager) OnSent(sn protocol.PacketNumber, sentTime time.Time, bytes protocol.ByteCount, transmissionType protocol.TransmissionType, hasRetransmittableData bool) (shouldArmTimer bool) {
	if !m.table.isUnacked(sn) {
		return false
	}
	hadPendingBefore := m.table.hasPendingPackets()

	if !m.sendAlgorithm.OnPacketSent(sentTime, sn, bytes, transmissionType, hasRetransmittableData) {
		m.table.remove(sn)
		return false
	}
	m.table.setPending(sn, sentTime, bytes)

	if !hadPendingBefore {
		return true
	}
	return m.retransmissionMode() != modeRTO
}

// OnAck atomically processes one incoming ACK frame: it updates the RTT
// estimate, sweeps the table acking everything not reported missing,
// cleans up revived and truncated entries, raises nack counts and runs
// loss detection, and finally resets the consecutive-retransmission
// counters if this ACK made forward progress.
func (m *SentPacketManager) OnAck(info *wire.ReceivedPacketInfo, ackReceiveTime time.Time) error {
	if largest, ok := m.table.largestSent(); ok && info.LargestObserved > largest {
		return ErrAckForUnsentPacket
	}

	largestObservedWasUnacked := m.table.isUnacked(info.LargestObserved)

	m.maybeUpdateRTT(info, ackReceiveTime, largestObservedWasUnacked)

	for _, sn := range m.table.ascending() {
		if sn > info.LargestObserved {
			break
		}
		if !m.table.isUnacked(sn) {
			// Already removed by a sibling's group cleanup earlier in this
			// sweep.
			continue
		}
		if info.MissingPackets.Contains(sn) {
			continue
		}
		m.markPacketHandled(sn, true)
		m.ackNotifier.OnPacketAcked(sn)
	}

	for sn := range info.RevivedPackets {
		if !m.table.isUnacked(sn) {
			continue
		}
		r, _ := m.table.get(sn)
		if !r.pending {
			m.table.remove(sn)
		} else {
			m.table.neuter(sn)
		}
	}

	if info.IsTruncated {
		m.table.clearPreviousRetransmissions(len(info.MissingPackets) / 2)
	}

	for sn := range info.MissingPackets {
		if sn > info.LargestObserved {
			continue
		}
		if r, ok := m.table.get(sn); ok && r.pending {
			m.table.nack(sn, int(info.LargestObserved-sn))
		}
	}
	for _, lostSN := range detectLostPackets(m.table, info.LargestObserved) {
		m.onPacketLost(lostSN, ackReceiveTime)
	}

	if largestObservedWasUnacked {
		m.consecutiveRTOCount = 0
		m.consecutiveTLPCount = 0
		m.consecutiveCryptoRetransmissionCount = 0
	}
	return nil
}

func (m *SentPacketManager) onPacketLost(sn protocol.PacketNumber, lostTime time.Time) {
	r, ok := m.table.get(sn)
	if !ok {
		return
	}
	m.stats.PacketsLost.Add(1)
	m.sendAlgorithm.OnPacketLost(sn, lostTime)
	m.sendAlgorithm.OnPacketAbandoned(sn, r.bytesSent)
	if r.hasRetransmittableFrames() {
		m.pendingRetransmissions.enqueue(sn, protocol.NackRetransmission)
		r.pending = false
	} else {
		m.table.remove(sn)
	}
}

// markPacketHandled treats the ack or abandonment of sn, propagating the
// effect to its whole transmission group: the newest-in-group record's
// crypto-handshake bookkeeping is updated, a spurious-retransmission stat
// is recorded if sn isn't the group's newest member, and every group
// member is either dropped from the table or neutered.
func (m *SentPacketManager) markPacketHandled(sn protocol.PacketNumber, acked bool) {
	r, ok := m.table.get(sn)
	if !ok {
		panic(fmt.Sprintf("ackhandler: markPacketHandled on untracked sequence number %d", sn))
	}
	if r.pending {
		if acked {
			m.sendAlgorithm.OnPacketAcked(sn, r.bytesSent)
		} else {
			m.sendAlgorithm.OnPacketAbandoned(sn, r.bytesSent)
		}
		r.pending = false
	}

	group := r.group
	if group.newest != sn {
		m.stats.PacketsSpuriouslyRetransmitted.Add(1)
	}

	if newest, ok := m.table.get(group.newest); ok && newest.isCryptoHandshake() {
		m.table.pendingCryptoPacketCount--
	}

	members := group.sorted()
	for i := len(members) - 1; i >= 0; i-- {
		member := members[i]
		m.pendingRetransmissions.remove(member)
		mr, ok := m.table.get(member)
		if !ok {
			continue
		}
		if mr.isCryptoHandshake() {
			if mr.pending {
				mr.pending = false
				m.sendAlgorithm.OnPacketAbandoned(member, mr.bytesSent)
			}
		}
		if !mr.pending {
			m.table.remove(member)
			group.remove(member)
		} else {
			m.table.neuter(member)
		}
	}
}

// maybeUpdateRTT samples RTT from the largest observed SN's round trip,
// correcting for the peer's reported ack delay. It requires that SN still
// be unacked going into this ACK frame, since a lower SN's delta would mix
// in ack-aggregation delay.
func (m *SentPacketManager) maybeUpdateRTT(info *wire.ReceivedPacketInfo, ackReceiveTime time.Time, largestObservedWasUnacked bool) {
	if !largestObservedWasUnacked {
		return
	}
	r, ok := m.table.get(info.LargestObserved)
	if !ok || r.sentTime.IsZero() {
		return
	}
	sendDelta := ackReceiveTime.Sub(r.sentTime)
	if sendDelta <= 0 {
		return
	}
	var sample time.Duration
	if sendDelta > info.DeltaTimeLargestObserved {
		sample = sendDelta - info.DeltaTimeLargestObserved
	} else if !m.rttStats.HasMeasurement() {
		sample = sendDelta
	} else {
		return
	}
	m.rttStats.UpdateRTT(sample)
	m.sendAlgorithm.UpdateRTT(sample)
}

// NextPendingRetransmission peeks the head of the pending-retransmission
// queue without dequeuing it: the entry stays pending until the I/O layer
// round-trips it through OnRetransmitted, which is what actually removes
// it. Panics if the queue is empty.
func (m *SentPacketManager) NextPendingRetransmission() (sn protocol.PacketNumber, reason protocol.TransmissionType, frames *wire.RetransmittableFrames, length protocol.PacketNumberLength) {
	sn, reason, ok := m.pendingRetransmissions.peekFront()
	if !ok {
		panic("ackhandler: NextPendingRetransmission called on an empty queue")
	}
	r := m.table.mustGet(sn)
	if !r.hasRetransmittableFrames() {
		panic(fmt.Sprintf("ackhandler: pending retransmission %d has no frames", sn))
	}
	return sn, reason, r.frames, r.sequenceNumberLength
}

// HasPendingRetransmission reports whether NextPendingRetransmission would
// succeed.
func (m *SentPacketManager) HasPendingRetransmission() bool {
	return !m.pendingRetransmissions.isEmpty()
}

// TimeUntilSend delegates to the congestion controller.
func (m *SentPacketManager) TimeUntilSend(now time.Time, transmissionType protocol.TransmissionType, isRetransmittable bool) time.Duration {
	return m.sendAlgorithm.TimeUntilSend(now, transmissionType, isRetransmittable, m.table.pendingCryptoPacketCount > 0)
}

// RetransmitUnacked forces retransmission of every tracked packet,
// optionally restricted to initial-level packets. Frameless singleton-group
// records are simply dropped instead of retransmitted.
func (m *SentPacketManager) RetransmitUnacked(initialOnly bool) {
	for _, sn := range m.table.ascending() {
		r := m.table.mustGet(sn)
		if initialOnly && (!r.hasRetransmittableFrames() || r.frames.EncryptionLevel != protocol.EncryptionInitial) {
			continue
		}
		if !r.hasRetransmittableFrames() {
			if len(r.group.members) == 1 {
				m.table.remove(sn)
			}
			continue
		}
		if r.pending {
			r.pending = false
			m.sendAlgorithm.OnPacketAbandoned(sn, r.bytesSent)
		}
		m.pendingRetransmissions.enqueue(sn, protocol.RTORetransmission)
	}
}
