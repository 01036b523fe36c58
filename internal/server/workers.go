package server

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/moltbook/privacy/internal/storage"
)

// runExpirySweeper periodically walks every channel with a message TTL
// and deletes messages past it, lazily physically removing expired
// entries rather than only filtering them at read time.
func (s *Server) runExpirySweeper(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Minute):
			runID := uuid.New().String()
			n, err := s.sweepExpiredMessages(ctx)
			if err != nil {
				log.Printf("[worker] sweep %s: %v", runID, err)
				continue
			}
			if n > 0 {
				log.Printf("[worker] sweep %s: pruned %d expired messages", runID, n)
			}
		}
	}
}

func (s *Server) sweepExpiredMessages(ctx context.Context) (int, error) {
	agentDIDs, err := s.allAgentDIDs(ctx)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool)
	total := 0
	now := time.Now()
	for _, did := range agentDIDs {
		channels, err := s.adapter.ListChannelsForAgent(ctx, did)
		if err != nil {
			return total, err
		}
		for _, ch := range channels {
			if seen[ch.ID] || ch.Metadata == nil || ch.Metadata.MessageTTLSeconds == nil {
				continue
			}
			seen[ch.ID] = true
			n, err := s.adapter.DeleteExpiredMessages(ctx, ch.ID, *ch.Metadata.MessageTTLSeconds, now)
			if err != nil {
				return total, err
			}
			total += n
		}
	}
	return total, nil
}

func (s *Server) allAgentDIDs(ctx context.Context) ([]string, error) {
	agents, err := s.adapter.SearchAgents(ctx, storage.AgentSearchFilter{})
	if err != nil {
		return nil, err
	}
	dids := make([]string, 0, len(agents))
	for _, a := range agents {
		dids = append(dids, a.DID)
	}
	return dids, nil
}
