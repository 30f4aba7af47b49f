package wire

import "github.com/dengqian/quic-sentpacket/protocol"

// RetransmittableFrames is the opaque handle a transmission record holds
// onto the payload of a sent packet. The sent-packet manager never
// interprets Frames; it only moves the handle between records on
// retransmission and hands it back to the caller via
// NextPendingRetransmission so the I/O layer can re-serialize it.
type RetransmittableFrames struct {
	// Frames is the serializer's opaque payload handle. Decoding or
	// re-encoding it is the caller's responsibility.
	Frames interface{}
	// HasCryptoHandshake marks a packet carrying handshake data, which
	// drives the HANDSHAKE retransmission mode.
	HasCryptoHandshake bool
	// EncryptionLevel is the level the payload was protected with.
	EncryptionLevel protocol.EncryptionLevel
}
