// Package session manages AI chat sessions: an ordered message transcript
// and a canvas, keyed by session ID. It is the thin C11 layer SPEC_FULL.md
// §4.11 describes; the contract it's specified against is feature/search,
// which feature/ai calls to ground assistant replies in real results.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/privasearch/search/types"
)

// Service holds live sessions in memory. Sessions don't survive process
// restart; durability is out of this spec's scope the same way the
// upstream HTTP/cookie session layer is (§1).
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*types.Session
}

// New returns an empty Service.
func New() *Service {
	return &Service{sessions: make(map[string]*types.Session)}
}

// Create starts a new session for userID and returns it.
func (s *Service) Create(ctx context.Context, userID string) *types.Session {
	now := time.Now().UTC()
	sess := &types.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session for id, or ok=false if it doesn't exist.
func (s *Service) Get(ctx context.Context, id string) (*types.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// AppendMessage appends msg to session id's transcript, assigning it an ID
// and timestamp if unset.
func (s *Service) AppendMessage(ctx context.Context, id string, msg types.Message) (types.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return types.Message{}, false
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	sess.Messages = append(sess.Messages, msg)
	sess.UpdatedAt = msg.CreatedAt
	return msg, true
}

// AppendBlock appends block to session id's canvas, assigning it an order
// index equal to its position if unset.
func (s *Service) AppendBlock(ctx context.Context, id string, block types.Block) (types.Block, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return types.Block{}, false
	}
	if block.ID == "" {
		block.ID = uuid.NewString()
	}
	block.Order = len(sess.Canvas.Blocks)
	sess.Canvas.Blocks = append(sess.Canvas.Blocks, block)
	sess.UpdatedAt = time.Now().UTC()
	return block, true
}

// Delete removes session id. Deleting an unknown session is a no-op.
func (s *Service) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
