// Package mocks provides scripted llm.Provider doubles.
package mocks

import (
	"context"
	"sync"

	"github.com/voxellab/greenlight/llm"
)

// Turn is one scripted provider response: either Text or Err.
type Turn struct {
	Text string
	Err  error
}

// ScriptedProvider replays a fixed sequence of turns. When the script runs
// out, the last turn repeats. It records every request for assertions.
type ScriptedProvider struct {
	ProviderName string
	Script       []Turn

	mu       sync.Mutex
	calls    int
	Requests []*llm.ChatRequest
}

// NewScripted builds a provider replaying the given turns.
func NewScripted(turns ...Turn) *ScriptedProvider {
	return &ScriptedProvider{ProviderName: "scripted", Script: turns}
}

// TextTurns builds a provider replaying plain text responses.
func TextTurns(texts ...string) *ScriptedProvider {
	turns := make([]Turn, len(texts))
	for i, s := range texts {
		turns[i] = Turn{Text: s}
	}
	return NewScripted(turns...)
}

func (p *ScriptedProvider) Name() string { return p.ProviderName }

// Calls returns how many completions were requested.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// LastRequest returns the most recent recorded request, or nil.
func (p *ScriptedProvider) LastRequest() *llm.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Requests) == 0 {
		return nil
	}
	return p.Requests[len(p.Requests)-1]
}

// Completion replays the next scripted turn.
func (p *ScriptedProvider) Completion(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	p.mu.Lock()
	idx := p.calls
	p.calls++
	p.Requests = append(p.Requests, req)
	p.mu.Unlock()

	if len(p.Script) == 0 {
		return &llm.ChatResponse{Provider: p.ProviderName}, nil
	}
	if idx >= len(p.Script) {
		idx = len(p.Script) - 1
	}
	turn := p.Script[idx]
	if turn.Err != nil {
		return nil, turn.Err
	}
	return &llm.ChatResponse{
		Provider: p.ProviderName,
		Model:    req.Model,
		Choices: []llm.ChatChoice{
			{Message: llm.Message{Role: llm.RoleAssistant, Content: turn.Text}},
		},
	}, nil
}

// HealthCheck always reports healthy.
func (p *ScriptedProvider) HealthCheck(context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true}, nil
}
