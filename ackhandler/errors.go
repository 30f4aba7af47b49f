package ackhandler

import "errors"

// ErrAckForUnsentPacket is returned by OnAck when the peer reports having
// observed a sequence number we never sent. This is the one genuinely
// recoverable error in this package; the caller is expected to treat it as
// a protocol violation and close the connection. Everything else OnAck
// rejects is a programmer-error invariant violation and panics instead.
var ErrAckForUnsentPacket = errors.New("ackhandler: received ack for an unsent packet")
