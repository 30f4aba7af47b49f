package ackhandler

import (
	"time"

	"github.com/dengqian/quic-sentpacket/protocol"
)

// retransmissionMode selects the HANDSHAKE/TLP/RTO regime in priority
// order. It is selected fresh every time, never latched.
func (m *SentPacketManager) retransmissionMode() retransmissionMode {
	if m.table.pendingCryptoPacketCount > 0 {
		return modeHandshake
	}
	if m.consecutiveTLPCount < defaultMaxTailLossProbes && m.table.hasUnackedRetransmittableFrames() {
		return modeTLP
	}
	return modeRTO
}

// OnRetransmissionTimeout handles the armed timer firing. Panics if no
// packets are pending, since the timer should never have been armed in
// that state.
func (m *SentPacketManager) OnRetransmissionTimeout() {
	if !m.table.hasPendingPackets() {
		panic("ackhandler: OnRetransmissionTimeout called with no pending packets")
	}
	switch m.retransmissionMode() {
	case modeHandshake:
		m.retransmitCryptoPackets()
	case modeTLP:
		m.retransmitTLP()
	case modeRTO:
		m.retransmitRTO()
	}
}

func (m *SentPacketManager) retransmitCryptoPackets() {
	if m.consecutiveCryptoRetransmissionCount < maxHandshakeRetransmissionBackoffs {
		m.consecutiveCryptoRetransmissionCount++
	}
	found := false
	for _, sn := range m.table.ascending() {
		r := m.table.mustGet(sn)
		if !r.pending || !r.isCryptoHandshake() {
			continue
		}
		found = true
		m.pendingRetransmissions.enqueue(sn, protocol.TLPRetransmission)
		r.pending = false
		m.sendAlgorithm.OnPacketAbandoned(sn, r.bytesSent)
		m.stats.CryptoRetransmitCount.Add(1)
	}
	if !found {
		panic("ackhandler: HANDSHAKE mode selected but no pending crypto packet found")
	}
}

func (m *SentPacketManager) retransmitTLP() {
	m.consecutiveTLPCount++
	m.stats.TLPCount.Add(1)
	var target protocol.PacketNumber
	found := false
	for _, sn := range m.table.ascending() {
		r := m.table.mustGet(sn)
		if !r.pending || !r.hasRetransmittableFrames() || r.isCryptoHandshake() {
			continue
		}
		target = sn
		found = true
		break
	}
	if !found {
		panic("ackhandler: TLP mode selected but no eligible pending packet found")
	}
	m.pendingRetransmissions.enqueue(target, protocol.TLPRetransmission)
}

func (m *SentPacketManager) retransmitRTO() {
	retransmitted := false
	for _, sn := range m.table.ascending() {
		r := m.table.mustGet(sn)
		if !r.pending {
			continue
		}
		r.pending = false
		if r.hasRetransmittableFrames() {
			m.pendingRetransmissions.enqueue(sn, protocol.RTORetransmission)
			retransmitted = true
		}
	}
	m.sendAlgorithm.OnRetransmissionTimeout(retransmitted)
	if retransmitted {
		m.consecutiveRTOCount++
		m.stats.RTOCount.Add(1)
	}
}

// GetRetransmissionTime computes the absolute deadline for the next timer,
// The second return value is false if there is no timer
// to arm (no pending packets).
func (m *SentPacketManager) GetRetransmissionTime(now time.Time) (time.Time, bool) {
	if !m.table.hasPendingPackets() {
		return time.Time{}, false
	}
	switch m.retransmissionMode() {
	case modeHandshake:
		return now.Add(m.cryptoRetransmissionDelay()), true
	case modeTLP:
		return m.tailLossProbeDeadline(now), true
	case modeRTO:
		return m.rtoDeadline(now), true
	default:
		panic("ackhandler: unhandled retransmission mode")
	}
}

func (m *SentPacketManager) cryptoRetransmissionDelay() time.Duration {
	srtt := m.sendAlgorithm.SmoothedRTT()
	delay := minHandshakeTimeout
	if d := time.Duration(float64(srtt) * 1.5); d > delay {
		delay = d
	}
	return delay << uint(m.consecutiveCryptoRetransmissionCount)
}

// tailLossProbeDeadline uses the earliest pending retransmittable packet's
// send time as the TLP base, rather than the most recently sent packet,
// since that's the packet actually being probed for loss.
func (m *SentPacketManager) tailLossProbeDeadline(now time.Time) time.Time {
	base, ok := m.table.firstPendingRetransmittableSentTime()
	if !ok {
		base, _ = m.table.lastPacketSentTime()
	}
	srtt := m.rttStats.SmoothedRTT()
	var delay time.Duration
	if m.table.hasMultiplePendingPackets() {
		delay = 2 * srtt
		if minTailLossProbeTimeout > delay {
			delay = minTailLossProbeTimeout
		}
	} else {
		delay = time.Duration(float64(srtt)*1.5) + delayedAckTime
		if d := 2 * srtt; d > delay {
			delay = d
		}
	}
	deadline := base.Add(delay)
	if now.After(deadline) {
		return now
	}
	return deadline
}

func (m *SentPacketManager) rtoDeadline(now time.Time) time.Time {
	first, _ := m.table.firstPendingSentTime()
	delay := m.retransmissionDelay()
	deadline := first.Add(delay)
	floor := now.Add(time.Duration(float64(m.rttStats.SmoothedRTT()) * 1.5))
	if floor.After(deadline) {
		return floor
	}
	return deadline
}

// retransmissionDelay computes rto_delay
func (m *SentPacketManager) retransmissionDelay() time.Duration {
	delay := m.sendAlgorithm.RetransmissionDelay()
	if delay == 0 {
		delay = defaultRetransmissionTime
	}
	if delay < minRetransmissionTime {
		delay = minRetransmissionTime
	}
	shift := m.consecutiveRTOCount
	if shift > 10 {
		shift = 10
	}
	delay = delay << uint(shift)
	if delay > maxRetransmissionTime {
		delay = maxRetransmissionTime
	}
	return delay
}
