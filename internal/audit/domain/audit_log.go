package domain

import "time"

// AuditLog represents an audit event.
type AuditLog struct {
	ID        string
	ActorID   string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}

// Actions recorded by the engine's mutations.
const (
	ActionRoleAssign           = "role.assign"
	ActionRoleRevoke           = "role.revoke"
	ActionAgentAssign          = "agent.assign"
	ActionAgentDeactivate      = "agent.deactivate"
	ActionAgentRequestCreate   = "agent_request.create"
	ActionAgentRequestAccept   = "agent_request.accept"
	ActionAgentRequestReject   = "agent_request.reject"
	ActionAgentRequestComplete = "agent_request.complete"
	ActionProfileVerify        = "profile.verify"
	ActionSupportCreate        = "support.create"
	ActionProductCreate        = "product.create"
	ActionProductDelete        = "product.delete"
)
