package channel

import (
	"errors"
	"time"

	"github.com/moltbook/privacy/internal/crypto"
)

var (
	ErrNotParticipant    = errors.New("Not a channel participant")
	ErrMissingFields     = errors.New("Missing required fields")
	ErrChannelIDMismatch = errors.New("Channel ID mismatch")
)

// SendRequest is the inbound request to post an encrypted message. The
// server never inspects Nonce or Ciphertext beyond checking they are
// non-empty.
type SendRequest struct {
	ChannelID          string `json:"channelId"`
	Nonce              []byte `json:"nonce"`
	Ciphertext         []byte `json:"ciphertext"`
	EphemeralPublicKey string `json:"ephemeralPubKey,omitempty"`
}

// EncryptedMessage is a stored message envelope.
type EncryptedMessage struct {
	ID                 string `json:"id"`
	ChannelID          string `json:"channelId"`
	SenderDID          string `json:"senderDid"`
	Timestamp          int64  `json:"timestamp"`
	Nonce              []byte `json:"nonce"`
	Ciphertext         []byte `json:"ciphertext"`
	EphemeralPublicKey string `json:"ephemeralPubKey,omitempty"`
}

// ValidateSend checks a send request against the target channel and
// sender, in order: participant membership, required-field presence,
// then channel id agreement.
func ValidateSend(req SendRequest, ch Channel, senderDID string) error {
	if !Contains(ch.Participants, senderDID) {
		return ErrNotParticipant
	}
	if req.ChannelID == "" || len(req.Nonce) == 0 || len(req.Ciphertext) == 0 {
		return ErrMissingFields
	}
	if req.ChannelID != ch.ID {
		return ErrChannelIDMismatch
	}
	return nil
}

// NewEnvelope stamps a validated send request into a stored message
// envelope: a fresh message id, the sender DID, and the current
// wall-clock timestamp in milliseconds.
func NewEnvelope(req SendRequest, senderDID string, now time.Time) EncryptedMessage {
	return EncryptedMessage{
		ID:                 crypto.NewPrefixedID("msg"),
		ChannelID:          req.ChannelID,
		SenderDID:          senderDID,
		Timestamp:          now.UnixMilli(),
		Nonce:              req.Nonce,
		Ciphertext:         req.Ciphertext,
		EphemeralPublicKey: req.EphemeralPublicKey,
	}
}

// IsExpired reports whether msg is expired under a channel TTL:
// now - timestamp > ttl*1000. A nil ttlSeconds means the channel has no
// TTL and no message ever expires.
func IsExpired(msg EncryptedMessage, ttlSeconds *int64, now time.Time) bool {
	if ttlSeconds == nil {
		return false
	}
	return now.UnixMilli()-msg.Timestamp > *ttlSeconds*1000
}
