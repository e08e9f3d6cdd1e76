// Package provider binds an AgentState to the MLS core, the same role
// original_source/.../provider.rs's MySgmProvider plays: a single facade
// over storage, randomness, and signing that the rest of the agent
// borrows for the lifetime of one invocation (spec.md §4.2, §9).
package provider

import (
	"crypto/rand"
	"io"

	"github.com/germtb/sgmagent/internal/mls"
	"github.com/germtb/sgmagent/internal/state"
)

// Provider is constructed once per invocation and discarded at save time;
// it is never captured past the end of main (spec.md §9 "borrowing
// discipline").
type Provider struct {
	agentState *state.AgentState
	rand       io.Reader
}

// New builds a Provider over s, using crypto/rand for randomness.
func New(s *state.AgentState) *Provider {
	return &Provider{agentState: s, rand: rand.Reader}
}

// State returns the agent state the provider is bound to.
func (p *Provider) State() *state.AgentState {
	return p.agentState
}

// Storage returns the MLS storage map owned by the agent state.
func (p *Provider) Storage() mls.Store {
	return p.agentState.Store
}

// Rand returns the source of cryptographic randomness.
func (p *Provider) Rand() io.Reader {
	return p.rand
}

// Sign signs payload with the agent's own signature key.
func (p *Provider) Sign(payload []byte) []byte {
	return p.agentState.SignatureKeyPair.Sign(payload)
}

// SignatureScheme returns the name of the agent's signature algorithm.
func (p *Provider) SignatureScheme() string {
	return p.agentState.SignatureKeyPair.Scheme
}

// Ciphersuite returns the agent's pinned MLS ciphersuite.
func (p *Provider) Ciphersuite() mls.Ciphersuite {
	return p.agentState.Ciphersuite
}

// ProtocolVersion returns the agent's pinned MLS protocol version.
func (p *Provider) ProtocolVersion() mls.ProtocolVersion {
	return p.agentState.ProtocolVersion
}

// LoadGroup loads a group the agent is a member of.
func (p *Provider) LoadGroup(gid string) (*mls.Group, bool, error) {
	return mls.Load(p.agentState.Store, gid)
}
