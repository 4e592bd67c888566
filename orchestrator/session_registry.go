// Copyright 2025 TripWise
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package orchestrator

import "sync"

// SessionRegistry maps session identifiers to their conversation state. It
// is owned by the transport layer and injected where needed, never accessed
// as ambient process state. Sessions live for the process lifetime; there is
// no persistence across restarts.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	agent    *Agent
}

// NewSessionRegistry creates an empty registry backed by the given agent.
func NewSessionRegistry(agent *Agent) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*Session),
		agent:    agent,
	}
}

// GetOrCreate returns the session for the identifier, creating it on first
// contact. Safe for concurrent use; concurrent first contacts for the same
// identifier yield a single session.
func (r *SessionRegistry) GetOrCreate(id string) *Session {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s
	}
	s = r.agent.NewSession(id)
	r.sessions[id] = s
	activeSessions.Inc()
	return s
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
