package congestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dengqian/quic-sentpacket/protocol"
	"github.com/dengqian/quic-sentpacket/utils"
)

func newTestPacingSender() *PacingSender {
	inner := NewRenoSender(utils.NewRTTStats(), utils.NewConnectionStats(), 1000)
	return NewPacingSender(inner, 1000)
}

func TestPacingSenderDelegatesCongestionWindow(t *testing.T) {
	p := newTestPacingSender()
	assert.Equal(t, protocol.ByteCount(10000), p.GetCongestionWindow())
}

func TestPacingSenderAllowsBurstBeforePacing(t *testing.T) {
	p := newTestPacingSender()
	now := time.Now()
	d := p.TimeUntilSend(now, protocol.NotRetransmission, true, false)
	assert.Zero(t, d)
}

func TestPacingSenderDelaysAfterBudgetExhausted(t *testing.T) {
	p := newTestPacingSender()
	p.SendAlgorithm.UpdateRTT(100 * time.Millisecond)
	now := time.Now()
	p.budget = 0
	d := p.TimeUntilSend(now, protocol.NotRetransmission, true, false)
	assert.Greater(t, d, time.Duration(0))
}

func TestPacingSenderIgnoresNonRetransmittablePackets(t *testing.T) {
	p := newTestPacingSender()
	p.budget = 0
	d := p.TimeUntilSend(time.Now(), protocol.NotRetransmission, false, false)
	assert.Zero(t, d)
}

func TestPacingSenderRefillsBudgetOverTime(t *testing.T) {
	p := newTestPacingSender()
	p.SendAlgorithm.UpdateRTT(10 * time.Millisecond)
	now := time.Now()
	p.OnPacketSent(now, 1, 1000, protocol.NotRetransmission, true)
	before := p.budget
	p.OnPacketSent(now.Add(5*time.Millisecond), 2, 1000, protocol.NotRetransmission, true)
	assert.NotEqual(t, before, p.budget)
}
