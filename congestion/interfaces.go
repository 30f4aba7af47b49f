package congestion

import (
	"time"

	"github.com/dengqian/quic-sentpacket/protocol"
	"github.com/dengqian/quic-sentpacket/wire"
)

// SendAlgorithm is the narrow interface the sent-packet manager uses to
// consult the congestion controller. It receives only data and returns
// only data: implementations must never call back into the sent-packet
// manager, since OnAck must run atomically from any external observer's
// perspective.
type SendAlgorithm interface {
	// SetFromConfig applies connection configuration, e.g. an initial RTT
	// negotiated out of band.
	SetFromConfig(cfg Config, perspective protocol.Perspective)
	// UpdateRTT informs the controller of a new RTT sample.
	UpdateRTT(sample time.Duration)
	// OnPacketSent is consulted for every packet right after it hits the
	// wire. It may return false to decline tracking the packet (e.g. a
	// pure-ACK packet a real congestion controller doesn't want to count
	// against cwnd); the sent-packet manager then removes the packet from
	// its own table instead of marking it pending.
	OnPacketSent(sentTime time.Time, pn protocol.PacketNumber, bytes protocol.ByteCount, transmissionType protocol.TransmissionType, isRetransmittable bool) bool
	// OnPacketAcked reports that pn, sent with bytes bytes, was acknowledged.
	OnPacketAcked(pn protocol.PacketNumber, bytes protocol.ByteCount)
	// OnPacketAbandoned reports that pn is no longer being tracked for
	// congestion-window purposes, without necessarily having been lost
	// (e.g. a superseded crypto retransmission).
	OnPacketAbandoned(pn protocol.PacketNumber, bytes protocol.ByteCount)
	// OnPacketLost reports that pn was declared lost by the loss detector.
	OnPacketLost(pn protocol.PacketNumber, lostTime time.Time)
	// OnRetransmissionTimeout reports that the RTO timer fired.
	// retransmitted is true iff at least one packet was actually enqueued
	// for retransmission as a result.
	OnRetransmissionTimeout(retransmitted bool)
	// OnIncomingFeedbackFrame delivers an out-of-band congestion feedback
	// frame to the controller.
	OnIncomingFeedbackFrame(frame *wire.CongestionFeedbackFrame, receiveTime time.Time)
	// TimeUntilSend returns how long the caller should wait, from now,
	// before sending another packet (pacing).
	TimeUntilSend(now time.Time, transmissionType protocol.TransmissionType, isRetransmittable bool, isHandshake bool) time.Duration
	// SmoothedRTT returns the controller's current RTT estimate.
	SmoothedRTT() time.Duration
	// RetransmissionDelay returns the controller's suggested RTO base
	// delay, or zero if it has no opinion yet (the sent-packet manager
	// falls back to a default in that case).
	RetransmissionDelay() time.Duration
	// BandwidthEstimate returns the controller's current bandwidth
	// estimate in bits per second.
	BandwidthEstimate() uint64
	// GetCongestionWindow returns the current congestion window in bytes.
	GetCongestionWindow() protocol.ByteCount
}

// Config is the subset of connection configuration recognized by the
// sent-packet manager and its congestion controller.
type Config struct {
	// InitialRoundTripTimeUs seeds the RTT estimate before any sample has
	// been taken. Only honored if we are the server.
	InitialRoundTripTimeUs uint32
	// CongestionControl selects the congestion-control algorithm. The only
	// value this module interprets directly is "PACE", which enables the
	// pacing decorator.
	CongestionControl string
}

// PaceCongestionControlValue is the Config.CongestionControl value that
// enables pacing.
const PaceCongestionControlValue = "PACE"
