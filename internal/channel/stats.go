package channel

import "time"

// Stats is the statistics view of a channel and its current messages:
// participant count, non-expired message count, the most recent
// non-expired message timestamp (if any), and whether the policy is
// credential-gated.
type Stats struct {
	ParticipantCount int    `json:"participantCount"`
	MessageCount     int    `json:"messageCount"`
	LastActivity     *int64 `json:"lastActivity,omitempty"`
	CredentialGated  bool   `json:"credentialGated"`
}

// ComputeStats derives Stats from a channel and its messages, excluding
// any message expired under the channel's TTL.
func ComputeStats(ch Channel, messages []EncryptedMessage, now time.Time) Stats {
	var ttl *int64
	if ch.Metadata != nil {
		ttl = ch.Metadata.MessageTTLSeconds
	}

	stats := Stats{
		ParticipantCount: len(ch.Participants),
		CredentialGated:  ch.Access.Kind == PolicyCredentialGated,
	}

	var lastActivity int64
	haveActivity := false
	for _, m := range messages {
		if IsExpired(m, ttl, now) {
			continue
		}
		stats.MessageCount++
		if !haveActivity || m.Timestamp > lastActivity {
			lastActivity = m.Timestamp
			haveActivity = true
		}
	}
	if haveActivity {
		stats.LastActivity = &lastActivity
	}
	return stats
}
