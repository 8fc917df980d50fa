package domain

import "time"

// Agent is a monitored node's registration record. Agents register through
// the discovery API; the engine only reads them for absence detection.
type Agent struct {
	// ID is the unique identifier for this agent.
	ID string `json:"id"`

	// Fingerprint is the hardware-derived identity reported at registration.
	Fingerprint string `json:"fingerprint"`

	// Hostname is the node's reported hostname.
	Hostname string `json:"hostname"`

	// TenantID is the tenant the agent was assigned to.
	TenantID string `json:"tenant_id"`

	// Licensed marks agents counted against the license. Only licensed
	// agents participate in absence detection.
	Licensed bool `json:"licensed"`

	// IgnoreAlerts opts the agent out of alerting entirely.
	IgnoreAlerts bool `json:"ignore_alerts"`

	// LastSeen is the last time the agent reported in.
	LastSeen time.Time `json:"last_seen"`

	// RegisteredAt is when the agent first registered.
	RegisteredAt time.Time `json:"registered_at"`
}

// AgentRef identifies an agent by its (tenant, host) pair.
// This is the grouping key absence candidates are produced under.
type AgentRef struct {
	TenantID string `json:"tenant_id"`
	Host     string `json:"host"`
}
