package server

import (
	"context"

	"github.com/moltbook/privacy/internal/channel"
	"github.com/moltbook/privacy/internal/storage"
)

// storageLookup adapts the storage.Adapter's agent records to the
// channel.AgentLookup interface AssembleChannel needs.
type storageLookup struct {
	ctx     context.Context
	adapter *storage.Adapter
}

func (l storageLookup) PublicKey(did string) (string, bool) {
	agent, err := l.adapter.GetAgent(l.ctx, did)
	if err != nil {
		return "", false
	}
	return agent.PublicKey, true
}

var _ channel.AgentLookup = storageLookup{}
