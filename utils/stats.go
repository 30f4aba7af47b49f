package utils

import "sync/atomic"

// ConnectionStats is a write-only stats surface: the sent-packet manager
// only ever increments these counters, it never reads them back. It is
// shared by reference with whatever reporting layer the connection uses;
// atomic counters keep it safe to read from another goroutine without
// synchronizing with the single-threaded manager.
type ConnectionStats struct {
	CryptoRetransmitCount          atomic.Uint64
	TLPCount                       atomic.Uint64
	RTOCount                       atomic.Uint64
	PacketsLost                    atomic.Uint64
	PacketsSpuriouslyRetransmitted atomic.Uint64
}

// NewConnectionStats returns a zeroed ConnectionStats.
func NewConnectionStats() *ConnectionStats {
	return &ConnectionStats{}
}
