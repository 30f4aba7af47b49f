package congestion

import (
	"time"

	"github.com/dengqian/quic-sentpacket/protocol"
	"github.com/dengqian/quic-sentpacket/wire"
)

// minPacingDelay is the smallest delay the pacer will ever impose; below
// this the sent-packet manager should just send immediately, per the
// teacher's pacer granularity of roughly one microsecond.
const minPacingDelay = time.Microsecond

// maxBurstPackets bounds how many packets may be sent back-to-back before
// pacing kicks in, so a connection can still use a newly-grown congestion
// window promptly instead of trickling it out one packet at a time.
const maxBurstPackets = 10

// PacingSender decorates a SendAlgorithm with output pacing: it spreads
// packets evenly across a congestion window's worth of an RTT instead of
// releasing the whole window in one burst. It wraps the SendAlgorithm
// contract directly so the outer object has the same interface as the
// controller it decorates, rather than being wired as a separate field on
// the sent-packet manager.
type PacingSender struct {
	SendAlgorithm

	maxDatagramSize protocol.ByteCount
	budget          protocol.ByteCount
	lastSentTime    time.Time
}

var _ SendAlgorithm = &PacingSender{}

// NewPacingSender wraps inner with output pacing.
func NewPacingSender(inner SendAlgorithm, maxDatagramSize protocol.ByteCount) *PacingSender {
	if maxDatagramSize <= 0 {
		maxDatagramSize = defaultMaxDatagramSize
	}
	return &PacingSender{
		SendAlgorithm:   inner,
		maxDatagramSize: maxDatagramSize,
		budget:          maxBurstPackets * maxDatagramSize,
	}
}

func (p *PacingSender) OnPacketSent(sentTime time.Time, pn protocol.PacketNumber, bytes protocol.ByteCount, transmissionType protocol.TransmissionType, isRetransmittable bool) bool {
	sent := p.SendAlgorithm.OnPacketSent(sentTime, pn, bytes, transmissionType, isRetransmittable)
	if !isRetransmittable {
		return sent
	}
	if !p.lastSentTime.IsZero() {
		p.budget += p.bandwidthBudget(sentTime.Sub(p.lastSentTime))
		if max := maxBurstPackets * p.maxDatagramSize; p.budget > max {
			p.budget = max
		}
	}
	p.lastSentTime = sentTime
	if bytes > p.budget {
		p.budget = 0
	} else {
		p.budget -= bytes
	}
	return sent
}

func (p *PacingSender) TimeUntilSend(now time.Time, transmissionType protocol.TransmissionType, isRetransmittable bool, isHandshake bool) time.Duration {
	if d := p.SendAlgorithm.TimeUntilSend(now, transmissionType, isRetransmittable, isHandshake); d > 0 {
		return d
	}
	if !isRetransmittable || p.budget >= p.maxDatagramSize {
		return 0
	}
	srtt := p.SendAlgorithm.SmoothedRTT()
	cwnd := p.SendAlgorithm.GetCongestionWindow()
	if srtt <= 0 || cwnd <= 0 {
		return 0
	}
	delay := time.Duration(float64(srtt) * float64(p.maxDatagramSize) / float64(cwnd))
	if delay < minPacingDelay {
		return 0
	}
	return delay
}

// bandwidthBudget converts elapsed time into freshly-earned send budget at
// the inner controller's current estimated sending rate.
func (p *PacingSender) bandwidthBudget(elapsed time.Duration) protocol.ByteCount {
	srtt := p.SendAlgorithm.SmoothedRTT()
	cwnd := p.SendAlgorithm.GetCongestionWindow()
	if srtt <= 0 {
		return 0
	}
	rate := float64(cwnd) / srtt.Seconds()
	return protocol.ByteCount(rate * elapsed.Seconds())
}

func (p *PacingSender) OnIncomingFeedbackFrame(frame *wire.CongestionFeedbackFrame, receiveTime time.Time) {
	p.SendAlgorithm.OnIncomingFeedbackFrame(frame, receiveTime)
}
