package storage

import "net/url"

// Exact blob key layout matters: external backup and migration tooling
// depends on it, so these are the only place key strings are built.

func agentKey(did string) string {
	return "privacy/agents/" + url.QueryEscape(did) + ".json"
}

func agentChannelsIndexKey(did string) string {
	return "privacy/agents/" + url.QueryEscape(did) + "/channels.json"
}

func agentInvitationsIndexKey(did string) string {
	return "privacy/agents/" + url.QueryEscape(did) + "/invitations.json"
}

func channelKey(channelID string) string {
	return "privacy/channels/" + channelID + "/metadata.json"
}

func channelMessageKey(channelID, messageID string) string {
	return "privacy/channels/" + channelID + "/messages/" + messageID + ".json"
}

func channelMessagePrefix(channelID string) string {
	return "privacy/channels/" + channelID + "/messages/"
}

func invitationKey(invitationID string) string {
	return "privacy/invitations/" + invitationID + ".json"
}

const (
	agentsPrefix      = "privacy/agents/"
	invitationsPrefix = "privacy/invitations/"
)
