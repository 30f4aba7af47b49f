package utils

import "time"

const (
	// rttAlpha is the weight given to a new RTT sample when updating the
	// smoothed RTT, expressed as the TCP-style EWMA used throughout the
	// retrieval pack's congestion controllers.
	rttAlpha = 0.125
	// rttBeta is the weight given to a new sample's deviation from the
	// smoothed RTT when updating the mean deviation.
	rttBeta = 0.25
)

// RTTStats tracks the smoothed RTT, mean deviation, and minimum RTT for one
// path. It is fed exclusively by the RTT sampler (ackhandler.maybeUpdateRTT)
// and read by the congestion controller and by the retransmission-timer
// calculator.
type RTTStats struct {
	hasMeasurement bool
	minRTT         time.Duration
	latestRTT      time.Duration
	smoothedRTT    time.Duration
	meanDeviation  time.Duration
}

// NewRTTStats returns a fresh, unmeasured RTTStats.
func NewRTTStats() *RTTStats {
	return &RTTStats{}
}

// HasMeasurement reports whether any sample has been recorded yet.
func (r *RTTStats) HasMeasurement() bool { return r.hasMeasurement }

// MinRTT is the lowest sample observed so far, or zero if none.
func (r *RTTStats) MinRTT() time.Duration { return r.minRTT }

// LatestRTT is the most recent sample.
func (r *RTTStats) LatestRTT() time.Duration { return r.latestRTT }

// SmoothedRTT is the exponentially-weighted moving average of samples.
func (r *RTTStats) SmoothedRTT() time.Duration { return r.smoothedRTT }

// MeanDeviation is the exponentially-weighted mean absolute deviation of
// samples from SmoothedRTT, used by RetransmissionDelay to size the RTO.
func (r *RTTStats) MeanDeviation() time.Duration { return r.meanDeviation }

// SetInitialRTT seeds the smoothed RTT before any real sample has arrived,
// per the initial_round_trip_time_us configuration option. It has no effect
// once a real measurement has been taken.
func (r *RTTStats) SetInitialRTT(rtt time.Duration) {
	if r.hasMeasurement {
		return
	}
	r.latestRTT = rtt
	r.smoothedRTT = rtt
}

// UpdateRTT records a new RTT sample (already corrected for the peer's
// reported ack delay by the caller).
func (r *RTTStats) UpdateRTT(sample time.Duration) {
	if sample <= 0 {
		return
	}
	if r.minRTT == 0 || sample < r.minRTT {
		r.minRTT = sample
	}
	r.latestRTT = sample
	if !r.hasMeasurement {
		r.smoothedRTT = sample
		r.meanDeviation = sample / 2
		r.hasMeasurement = true
		return
	}
	delta := r.smoothedRTT - sample
	if delta < 0 {
		delta = -delta
	}
	r.meanDeviation = time.Duration((1-rttBeta)*float64(r.meanDeviation) + rttBeta*float64(delta))
	r.smoothedRTT = time.Duration((1-rttAlpha)*float64(r.smoothedRTT) + rttAlpha*float64(sample))
}
