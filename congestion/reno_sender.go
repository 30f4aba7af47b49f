package congestion

import (
	"time"

	"github.com/dengqian/quic-sentpacket/protocol"
	"github.com/dengqian/quic-sentpacket/utils"
	"github.com/dengqian/quic-sentpacket/wire"
)

const (
	// defaultMaxDatagramSize is the fallback packet size used when the
	// caller doesn't supply a path-specific MTU.
	defaultMaxDatagramSize protocol.ByteCount = 1252
	// initialCongestionWindowPackets is the standard TCP/QUIC initial
	// window, expressed in packets.
	initialCongestionWindowPackets = 10
	// minCongestionWindowPackets is the floor cwnd never drops below.
	minCongestionWindowPackets = 2
	// renoBeta is the multiplicative cwnd cutback applied on loss.
	renoBeta = 0.5
)

// RenoSender is a plain additive-increase/multiplicative-decrease
// congestion controller: slow start until the first loss, then
// congestion-avoidance growth of one segment per RTT worth of acks. It
// exists so this module is runnable and testable end to end without
// requiring a caller to supply their own SendAlgorithm.
type RenoSender struct {
	rttStats  *utils.RTTStats
	connStats *utils.ConnectionStats

	maxDatagramSize protocol.ByteCount
	congestionWindow protocol.ByteCount
	slowstartThreshold protocol.ByteCount

	bytesInFlight protocol.ByteCount

	numAckedPackets uint64
}

var _ SendAlgorithm = &RenoSender{}

// NewRenoSender constructs a RenoSender with the standard initial window.
func NewRenoSender(rttStats *utils.RTTStats, connStats *utils.ConnectionStats, initialMaxDatagramSize protocol.ByteCount) *RenoSender {
	if initialMaxDatagramSize <= 0 {
		initialMaxDatagramSize = defaultMaxDatagramSize
	}
	s := &RenoSender{
		rttStats:            rttStats,
		connStats:           connStats,
		maxDatagramSize:     initialMaxDatagramSize,
		congestionWindow:    initialCongestionWindowPackets * initialMaxDatagramSize,
		slowstartThreshold:  protocol.ByteCount(1) << 62, // unbounded until the first loss
	}
	return s
}

func (s *RenoSender) SetFromConfig(cfg Config, perspective protocol.Perspective) {
	if cfg.InitialRoundTripTimeUs > 0 && !s.rttStats.HasMeasurement() && perspective == protocol.PerspectiveServer {
		s.rttStats.SetInitialRTT(time.Duration(cfg.InitialRoundTripTimeUs) * time.Microsecond)
	}
}

func (s *RenoSender) UpdateRTT(sample time.Duration) {
	s.rttStats.UpdateRTT(sample)
}

func (s *RenoSender) OnPacketSent(sentTime time.Time, pn protocol.PacketNumber, bytes protocol.ByteCount, transmissionType protocol.TransmissionType, isRetransmittable bool) bool {
	if !isRetransmittable {
		return true
	}
	s.bytesInFlight += bytes
	return true
}

func (s *RenoSender) OnPacketAcked(pn protocol.PacketNumber, bytes protocol.ByteCount) {
	s.removeFromFlight(bytes)
	s.numAckedPackets++
	if s.inSlowStart() {
		s.congestionWindow += bytes
		return
	}
	// Congestion avoidance: grow roughly one segment per window of acks.
	if s.congestionWindow > 0 {
		s.congestionWindow += (s.maxDatagramSize * bytes) / s.congestionWindow
	}
}

func (s *RenoSender) OnPacketAbandoned(pn protocol.PacketNumber, bytes protocol.ByteCount) {
	s.removeFromFlight(bytes)
}

func (s *RenoSender) OnPacketLost(pn protocol.PacketNumber, lostTime time.Time) {
	s.slowstartThreshold = protocol.ByteCount(float64(s.congestionWindow) * renoBeta)
	s.congestionWindow = s.slowstartThreshold
	if min := minCongestionWindowPackets * s.maxDatagramSize; s.congestionWindow < min {
		s.congestionWindow = min
	}
}

func (s *RenoSender) OnRetransmissionTimeout(retransmitted bool) {
	if !retransmitted {
		return
	}
	s.slowstartThreshold = s.congestionWindow / 2
	s.congestionWindow = minCongestionWindowPackets * s.maxDatagramSize
}

func (s *RenoSender) OnIncomingFeedbackFrame(frame *wire.CongestionFeedbackFrame, receiveTime time.Time) {
	// RenoSender does not consume out-of-band feedback frames; gQUIC-style
	// bandwidth/receive-window feedback is a non-goal of this module.
}

func (s *RenoSender) TimeUntilSend(now time.Time, transmissionType protocol.TransmissionType, isRetransmittable bool, isHandshake bool) time.Duration {
	if s.bytesInFlight >= s.congestionWindow {
		return time.Millisecond
	}
	return 0
}

func (s *RenoSender) SmoothedRTT() time.Duration {
	return s.rttStats.SmoothedRTT()
}

func (s *RenoSender) RetransmissionDelay() time.Duration {
	if !s.rttStats.HasMeasurement() {
		return 0
	}
	return s.rttStats.SmoothedRTT() + 4*s.rttStats.MeanDeviation()
}

func (s *RenoSender) BandwidthEstimate() uint64 {
	srtt := s.rttStats.SmoothedRTT()
	if srtt <= 0 {
		return 0
	}
	return uint64(float64(s.congestionWindow) * 8 / srtt.Seconds())
}

func (s *RenoSender) GetCongestionWindow() protocol.ByteCount {
	return s.congestionWindow
}

func (s *RenoSender) inSlowStart() bool {
	return s.congestionWindow < s.slowstartThreshold
}

func (s *RenoSender) removeFromFlight(bytes protocol.ByteCount) {
	if bytes > s.bytesInFlight {
		s.bytesInFlight = 0
		return
	}
	s.bytesInFlight -= bytes
}
