package channel

import (
	"errors"
	"time"

	"github.com/moltbook/privacy/internal/crypto"
)

// InvitationStatus is one of the four states in the invitation state
// machine.
type InvitationStatus string

const (
	StatusPending  InvitationStatus = "pending"
	StatusAccepted InvitationStatus = "accepted"
	StatusRejected InvitationStatus = "rejected"
	StatusExpired  InvitationStatus = "expired"
)

// InvitationTTL is the fixed invitation lifetime: 7 days, treated as a
// hard contract rather than a per-channel configurable default.
const InvitationTTL = 7 * 24 * time.Hour

// ErrIllegalState is returned when accept or reject is attempted on an
// invitation that is not pending.
var ErrIllegalState = errors.New("illegal state")

// ErrNotInvitee is returned when the actor attempting to accept or
// reject an invitation is not its named invitee.
var ErrNotInvitee = errors.New("invitation not addressed to caller")

// Invitation conveys a wrapped channel key from an inviter to an
// invitee and tracks acceptance state.
type Invitation struct {
	ID         string           `json:"id"`
	ChannelID  string           `json:"channelId"`
	InviterDID string           `json:"inviterDid"`
	InviteeDID string           `json:"inviteeDid"`
	CreatedAt  int64            `json:"createdAt"`
	ExpiresAt  int64            `json:"expiresAt"`
	WrappedKey []byte           `json:"wrappedKey"`
	Nonce      []byte           `json:"nonce"`
	Status     InvitationStatus `json:"status"`
}

// NewInvitation builds a pending invitation with a 7-day expiry.
func NewInvitation(channelID, inviterDID, inviteeDID string, wrappedKey, nonce []byte, now time.Time) Invitation {
	return Invitation{
		ID:         crypto.NewPrefixedID("inv"),
		ChannelID:  channelID,
		InviterDID: inviterDID,
		InviteeDID: inviteeDID,
		CreatedAt:  now.UnixMilli(),
		ExpiresAt:  now.Add(InvitationTTL).UnixMilli(),
		WrappedKey: wrappedKey,
		Nonce:      nonce,
		Status:     StatusPending,
	}
}

func (inv Invitation) isExpired(now time.Time) bool {
	return now.UnixMilli() > inv.ExpiresAt
}

// ExpireIfOverdue lazily promotes a pending invitation to expired if its
// expiry has passed. It is called on every read path.
// Returns true if a transition occurred.
func (inv *Invitation) ExpireIfOverdue(now time.Time) bool {
	if inv.Status == StatusPending && inv.isExpired(now) {
		inv.Status = StatusExpired
		return true
	}
	return false
}

// Accept transitions a pending invitation to accepted, unless it has
// expired, in which case it transitions to expired instead and returns
// nil (the expired record, not an error). Only actorDID ==
// inv.InviteeDID may call this; the façade enforces that check before
// invoking this method, and this method re-checks it for safety when
// called directly.
func (inv *Invitation) Accept(actorDID string, now time.Time) error {
	if actorDID != inv.InviteeDID {
		return ErrNotInvitee
	}
	if inv.Status != StatusPending {
		return ErrIllegalState
	}
	if inv.isExpired(now) {
		inv.Status = StatusExpired
		return nil
	}
	inv.Status = StatusAccepted
	return nil
}

// Reject transitions a pending invitation to rejected. Only
// actorDID == inv.InviteeDID may call this.
func (inv *Invitation) Reject(actorDID string) error {
	if actorDID != inv.InviteeDID {
		return ErrNotInvitee
	}
	if inv.Status != StatusPending {
		return ErrIllegalState
	}
	inv.Status = StatusRejected
	return nil
}
