package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequest(t *testing.T) {
	tests := []struct {
		name   string
		cmd    string
		args   []string
		method string
		fields map[string]interface{}
	}{
		{
			name:   "check",
			cmd:    "check",
			args:   []string{"-kind", "artist_profile", "-id", "art-1"},
			method: "/marketplace.v1.MarketplaceService/ResolvePermissions",
			fields: map[string]interface{}{"kind": "artist_profile", "id": "art-1"},
		},
		{
			name:   "assign role",
			cmd:    "assign-role",
			args:   []string{"-user", "usr-emma", "-role", "artist"},
			method: "/marketplace.v1.MarketplaceService/AssignRole",
			fields: map[string]interface{}{"user_id": "usr-emma", "role": "artist"},
		},
		{
			name:   "accept request",
			cmd:    "accept-request",
			args:   []string{"-id", "req-1"},
			method: "/marketplace.v1.MarketplaceService/AcceptAgentRequest",
			fields: map[string]interface{}{"id": "req-1", "agent_id": ""},
		},
		{
			name:   "request agent",
			cmd:    "request-agent",
			args:   []string{"-artist", "art-1", "-location", "Miami, FL"},
			method: "/marketplace.v1.MarketplaceService/RequestAgent",
			fields: map[string]interface{}{"artist_id": "art-1", "location": "Miami, FL"},
		},
		{
			name:   "deactivate agent",
			cmd:    "deactivate-agent",
			args:   []string{"-agent", "agt-1", "-artist", "art-1"},
			method: "/marketplace.v1.MarketplaceService/DeactivateAgent",
			fields: map[string]interface{}{"agent_id": "agt-1", "artist_id": "art-1"},
		},
		{
			name:   "verify defaults",
			cmd:    "verify",
			args:   []string{"-id", "art-1"},
			method: "/marketplace.v1.MarketplaceService/VerifyProfile",
			fields: map[string]interface{}{"kind": "artist", "profile_id": "art-1", "verified": true},
		},
		{
			name:   "onboarding",
			cmd:    "onboarding",
			method: "/marketplace.v1.MarketplaceService/OnboardingStatus",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			method, fields, err := buildRequest(tc.cmd, tc.args)
			require.NoError(t, err)
			assert.Equal(t, tc.method, method)
			assert.Equal(t, tc.fields, fields)
		})
	}
}

func TestBuildRequest_Errors(t *testing.T) {
	_, _, err := buildRequest("promote", nil)
	assert.Error(t, err)

	_, _, err = buildRequest("roles", []string{"-user", "u1", "extra"})
	assert.Error(t, err)

	_, _, err = buildRequest("roles", []string{"-nope"})
	assert.Error(t, err)
}

func TestSignToken_RequiresSubject(t *testing.T) {
	_, err := signToken("/does/not/matter.pem", "", 0)
	assert.Error(t, err)
}
