package session

import (
	"context"
	"fmt"

	"gihan9a/draftsync/internal/draft"
	"gihan9a/draftsync/internal/utils"
)

// State is the position of a connection in its lifecycle
type State int

const (
	// AwaitingInit is the state before the baseline has been sent to the client
	AwaitingInit State = iota
	// Ready is the state in which syncText messages are accepted
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "awaiting-init"
}

// Session holds the baseline of one connection. It is owned by the goroutine
// serving that connection and is never shared, so it has no locking.
type Session struct {
	id       string
	baseline string
	state    State
}

// New allocates an empty session with a fresh connection ID
func New() *Session {
	return &Session{id: utils.NewConnectionID()}
}

// ID returns the connection ID
func (s *Session) ID() string {
	return s.id
}

// Initialize loads the baseline from the store
func (s *Session) Initialize(ctx context.Context, store draft.Reader, documentID string) error {
	text, err := store.Read(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to load baseline: %w", err)
	}
	s.baseline = text
	return nil
}

// Commit replaces the baseline
func (s *Session) Commit(text string) {
	s.baseline = text
}

// Baseline returns the current baseline
func (s *Session) Baseline() string {
	return s.baseline
}

// State returns the lifecycle state
func (s *Session) State() State {
	return s.state
}

// MarkReady records that the baseline has been sent to the client
func (s *Session) MarkReady() {
	s.state = Ready
}
