package ackhandler

import (
	"time"

	"github.com/dengqian/quic-sentpacket/congestion"
	"github.com/dengqian/quic-sentpacket/protocol"
	"github.com/dengqian/quic-sentpacket/wire"
)

// fakeSendAlgorithm is a hand-written congestion.SendAlgorithm double used
// to exercise behavior (the OnPacketSent refusal path, fixed RTT/RTO
// suggestions) that the reference RenoSender doesn't produce on its own.
type fakeSendAlgorithm struct {
	smoothedRTT         time.Duration
	retransmissionDelay time.Duration
	congestionWindow    protocol.ByteCount
	refuseSent          bool

	sentCalls      []protocol.PacketNumber
	ackedCalls     []protocol.PacketNumber
	abandonedCalls []protocol.PacketNumber
	lostCalls      []protocol.PacketNumber
	rtoCalls       []bool
	configCalls    []congestion.Config
}

var _ congestion.SendAlgorithm = &fakeSendAlgorithm{}

func (f *fakeSendAlgorithm) SetFromConfig(cfg congestion.Config, _ protocol.Perspective) {
	f.configCalls = append(f.configCalls, cfg)
}

func (f *fakeSendAlgorithm) UpdateRTT(time.Duration) {}

func (f *fakeSendAlgorithm) OnPacketSent(_ time.Time, pn protocol.PacketNumber, _ protocol.ByteCount, _ protocol.TransmissionType, _ bool) bool {
	f.sentCalls = append(f.sentCalls, pn)
	return !f.refuseSent
}

func (f *fakeSendAlgorithm) OnPacketAcked(pn protocol.PacketNumber, _ protocol.ByteCount) {
	f.ackedCalls = append(f.ackedCalls, pn)
}

func (f *fakeSendAlgorithm) OnPacketAbandoned(pn protocol.PacketNumber, _ protocol.ByteCount) {
	f.abandonedCalls = append(f.abandonedCalls, pn)
}

func (f *fakeSendAlgorithm) OnPacketLost(pn protocol.PacketNumber, _ time.Time) {
	f.lostCalls = append(f.lostCalls, pn)
}

func (f *fakeSendAlgorithm) OnRetransmissionTimeout(retransmitted bool) {
	f.rtoCalls = append(f.rtoCalls, retransmitted)
}

func (f *fakeSendAlgorithm) OnIncomingFeedbackFrame(*wire.CongestionFeedbackFrame, time.Time) {}

func (f *fakeSendAlgorithm) TimeUntilSend(time.Time, protocol.TransmissionType, bool, bool) time.Duration {
	return 0
}

func (f *fakeSendAlgorithm) SmoothedRTT() time.Duration { return f.smoothedRTT }

func (f *fakeSendAlgorithm) RetransmissionDelay() time.Duration { return f.retransmissionDelay }

func (f *fakeSendAlgorithm) BandwidthEstimate() uint64 { return 0 }

func (f *fakeSendAlgorithm) GetCongestionWindow() protocol.ByteCount { return f.congestionWindow }
