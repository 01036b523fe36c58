package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/moltbook/privacy/internal/channel"
	"github.com/moltbook/privacy/internal/identity"
)

// Adapter layers record shapes, secondary indices, and lazy-expiry
// bookkeeping on top of a raw BlobStore.
type Adapter struct {
	store BlobStore
}

// NewAdapter wraps store.
func NewAdapter(store BlobStore) *Adapter {
	return &Adapter{store: store}
}

// --- agents ---

func (a *Adapter) SaveAgent(ctx context.Context, agent identity.Agent) error {
	data, err := json.Marshal(agent)
	if err != nil {
		return fmt.Errorf("marshal agent: %w", err)
	}
	return a.store.Put(ctx, agentKey(agent.DID), data)
}

func (a *Adapter) AgentExists(ctx context.Context, did string) (bool, error) {
	return a.store.Head(ctx, agentKey(did))
}

func (a *Adapter) GetAgent(ctx context.Context, did string) (identity.Agent, error) {
	data, err := a.store.Get(ctx, agentKey(did))
	if err != nil {
		return identity.Agent{}, err
	}
	var agent identity.Agent
	if err := json.Unmarshal(data, &agent); err != nil {
		return identity.Agent{}, fmt.Errorf("unmarshal agent: %w", err)
	}
	return agent, nil
}

// AgentSearchFilter narrows SearchAgents. Zero values mean unconstrained.
type AgentSearchFilter struct {
	Capabilities       []string
	MinReputation      int
	CredentialContract string
	CredentialSchema   string
}

// SearchAgents prefix-lists the agent namespace, skips per-agent index
// blobs by their name suffix, and keeps only records satisfying every
// constraint set on filter.
func (a *Adapter) SearchAgents(ctx context.Context, filter AgentSearchFilter) ([]identity.Agent, error) {
	keys, err := a.store.List(ctx, agentsPrefix)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}

	var results []identity.Agent
	for _, key := range keys {
		if strings.HasSuffix(key, "/channels.json") || strings.HasSuffix(key, "/invitations.json") {
			continue
		}
		data, err := a.store.Get(ctx, key)
		if err != nil {
			continue
		}
		var agent identity.Agent
		if err := json.Unmarshal(data, &agent); err != nil {
			continue
		}
		if matchesFilter(agent, filter) {
			results = append(results, agent)
		}
	}
	return results, nil
}

func matchesFilter(agent identity.Agent, filter AgentSearchFilter) bool {
	for _, want := range filter.Capabilities {
		if !channel.Contains(agent.Profile.Capabilities, want) {
			return false
		}
	}
	if agent.Profile.Reputation < filter.MinReputation {
		return false
	}
	if filter.CredentialContract != "" {
		if !agent.HasVerifiedCredential(filter.CredentialContract, filter.CredentialSchema) {
			return false
		}
	}
	return true
}

// --- per-agent indices ---

func (a *Adapter) readIndex(ctx context.Context, key string) ([]string, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		if err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("unmarshal index %s: %w", key, err)
	}
	return ids, nil
}

func (a *Adapter) writeIndex(ctx context.Context, key string, ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshal index %s: %w", key, err)
	}
	return a.store.Put(ctx, key, data)
}

func (a *Adapter) appendToIndex(ctx context.Context, key, id string) error {
	ids, err := a.readIndex(ctx, key)
	if err != nil {
		return err
	}
	if channel.Contains(ids, id) {
		return nil
	}
	ids = append(ids, id)
	return a.writeIndex(ctx, key, ids)
}

func (a *Adapter) removeFromIndex(ctx context.Context, key, id string) error {
	ids, err := a.readIndex(ctx, key)
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, existing := range ids {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	return a.writeIndex(ctx, key, kept)
}

// --- channels ---

// SaveChannel persists ch and appends its id, idempotently, to every
// participant's channel-id index.
func (a *Adapter) SaveChannel(ctx context.Context, ch channel.Channel) error {
	data, err := json.Marshal(ch)
	if err != nil {
		return fmt.Errorf("marshal channel: %w", err)
	}
	if err := a.store.Put(ctx, channelKey(ch.ID), data); err != nil {
		return err
	}
	for _, did := range ch.Participants {
		if err := a.appendToIndex(ctx, agentChannelsIndexKey(did), ch.ID); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) GetChannel(ctx context.Context, channelID string) (channel.Channel, error) {
	data, err := a.store.Get(ctx, channelKey(channelID))
	if err != nil {
		return channel.Channel{}, err
	}
	var ch channel.Channel
	if err := json.Unmarshal(data, &ch); err != nil {
		return channel.Channel{}, fmt.Errorf("unmarshal channel: %w", err)
	}
	return ch, nil
}

// ListChannelsForAgent resolves an agent's channel-id index into full
// channel records, skipping any id that no longer resolves.
func (a *Adapter) ListChannelsForAgent(ctx context.Context, did string) ([]channel.Channel, error) {
	ids, err := a.readIndex(ctx, agentChannelsIndexKey(did))
	if err != nil {
		return nil, err
	}
	var channels []channel.Channel
	for _, id := range ids {
		ch, err := a.GetChannel(ctx, id)
		if err != nil {
			continue
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

// DeleteChannel removes ch from every participant's index, deletes every
// message under its prefix, deletes every invitation addressed into it,
// and finally deletes the channel record itself.
func (a *Adapter) DeleteChannel(ctx context.Context, channelID string) error {
	ch, err := a.GetChannel(ctx, channelID)
	if err != nil {
		return err
	}

	for _, did := range ch.Participants {
		if err := a.removeFromIndex(ctx, agentChannelsIndexKey(did), channelID); err != nil {
			return err
		}
	}

	messageKeys, err := a.store.List(ctx, channelMessagePrefix(channelID))
	if err != nil {
		return fmt.Errorf("list messages for delete: %w", err)
	}
	for _, key := range messageKeys {
		if err := a.store.Delete(ctx, key); err != nil {
			return err
		}
	}

	invitationKeys, err := a.store.List(ctx, invitationsPrefix)
	if err != nil {
		return fmt.Errorf("list invitations for delete: %w", err)
	}
	for _, key := range invitationKeys {
		data, err := a.store.Get(ctx, key)
		if err != nil {
			continue
		}
		var inv channel.Invitation
		if err := json.Unmarshal(data, &inv); err != nil {
			continue
		}
		if inv.ChannelID != channelID {
			continue
		}
		if err := a.store.Delete(ctx, key); err != nil {
			return err
		}
		if err := a.removeFromIndex(ctx, agentInvitationsIndexKey(inv.InviteeDID), inv.ID); err != nil {
			return err
		}
	}

	return a.store.Delete(ctx, channelKey(channelID))
}

// --- invitations ---

// SaveInvitation persists inv and appends its id to the invitee's
// invitation-id index.
func (a *Adapter) SaveInvitation(ctx context.Context, inv channel.Invitation) error {
	data, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("marshal invitation: %w", err)
	}
	if err := a.store.Put(ctx, invitationKey(inv.ID), data); err != nil {
		return err
	}
	return a.appendToIndex(ctx, agentInvitationsIndexKey(inv.InviteeDID), inv.ID)
}

func (a *Adapter) GetInvitation(ctx context.Context, invitationID string) (channel.Invitation, error) {
	data, err := a.store.Get(ctx, invitationKey(invitationID))
	if err != nil {
		return channel.Invitation{}, err
	}
	var inv channel.Invitation
	if err := json.Unmarshal(data, &inv); err != nil {
		return channel.Invitation{}, fmt.Errorf("unmarshal invitation: %w", err)
	}
	return inv, nil
}

// SaveInvitationTransition persists an invitation whose status already
// changed in memory (accept, reject, or lazy expiry), without touching
// the index.
func (a *Adapter) SaveInvitationTransition(ctx context.Context, inv channel.Invitation) error {
	data, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("marshal invitation: %w", err)
	}
	return a.store.Put(ctx, invitationKey(inv.ID), data)
}

// ListPendingInvitations walks did's invitation index, fetches each
// record, lazily flips any pending-but-overdue invitation to expired
// (writing the transition back), and returns only the ones that are
// still pending afterward.
func (a *Adapter) ListPendingInvitations(ctx context.Context, did string, now time.Time) ([]channel.Invitation, error) {
	ids, err := a.readIndex(ctx, agentInvitationsIndexKey(did))
	if err != nil {
		return nil, err
	}

	var pending []channel.Invitation
	for _, id := range ids {
		inv, err := a.GetInvitation(ctx, id)
		if err != nil {
			continue
		}
		if inv.ExpireIfOverdue(now) {
			if err := a.SaveInvitationTransition(ctx, inv); err != nil {
				return nil, err
			}
		}
		if inv.Status == channel.StatusPending {
			pending = append(pending, inv)
		}
	}
	return pending, nil
}

// --- messages ---

func (a *Adapter) SaveMessage(ctx context.Context, channelID string, msg channel.EncryptedMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return a.store.Put(ctx, channelMessageKey(channelID, msg.ID), data)
}

// MessageListOptions controls pagination of ListMessages.
type MessageListOptions struct {
	Limit  int
	Before *int64
	After  *int64
}

// ListMessages enumerates every message object under channelID's prefix,
// applies the before/after timestamp window, orders by timestamp
// descending, and truncates to Limit. The corpus is small enough that
// naive get-per-object enumeration is acceptable.
func (a *Adapter) ListMessages(ctx context.Context, channelID string, opts MessageListOptions) ([]channel.EncryptedMessage, error) {
	keys, err := a.store.List(ctx, channelMessagePrefix(channelID))
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	var messages []channel.EncryptedMessage
	for _, key := range keys {
		data, err := a.store.Get(ctx, key)
		if err != nil {
			continue
		}
		var msg channel.EncryptedMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if opts.Before != nil && msg.Timestamp >= *opts.Before {
			continue
		}
		if opts.After != nil && msg.Timestamp <= *opts.After {
			continue
		}
		messages = append(messages, msg)
	}

	sort.Slice(messages, func(i, j int) bool {
		return messages[i].Timestamp > messages[j].Timestamp
	})

	if opts.Limit > 0 && len(messages) > opts.Limit {
		messages = messages[:opts.Limit]
	}
	return messages, nil
}

// DeleteExpiredMessages deletes every message in channelID older than
// the channel's TTL and reports how many were removed. Used by the
// background sweeper.
func (a *Adapter) DeleteExpiredMessages(ctx context.Context, channelID string, ttlSeconds int64, now time.Time) (int, error) {
	keys, err := a.store.List(ctx, channelMessagePrefix(channelID))
	if err != nil {
		return 0, fmt.Errorf("list messages for sweep: %w", err)
	}

	cutoff := now.UnixMilli() - ttlSeconds*1000
	removed := 0
	for _, key := range keys {
		data, err := a.store.Get(ctx, key)
		if err != nil {
			continue
		}
		var msg channel.EncryptedMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Timestamp < cutoff {
			if err := a.store.Delete(ctx, key); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}
