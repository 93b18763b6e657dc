// Package companion runs the supportive chat conversation against a streaming
// language model.
package companion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	ErrUnavailable = errors.New("companion is not configured")
	ErrUpstream    = errors.New("companion upstream error")
	ErrEmptyPrompt = errors.New("prompt is empty")
)

const SystemPrompt = "You are a kind, empathetic, and supportive mental health companion. " +
	"Your goal is to listen, validate feelings, and provide a safe space. Do not give medical advice. " +
	"If the user expresses thoughts of self-harm or is in a crisis, gently guide them to the emergency resources provided in the app."

// Service keeps one conversation per session id. Replies within one session
// run one at a time so each sees the previous exchange.
type Service struct {
	llm Streamer

	mu            sync.Mutex
	conversations map[string][]Message
	turns         map[string]*sync.Mutex
}

// NewService returns a Service. A nil llm yields a Service whose Reply always
// fails with ErrUnavailable.
func NewService(llm Streamer) *Service {
	return &Service{
		llm:           llm,
		conversations: make(map[string][]Message),
		turns:         make(map[string]*sync.Mutex),
	}
}

func (s *Service) Available() bool {
	return s.llm != nil
}

// Reply sends prompt in the context of the session's conversation and streams
// the answer through onChunk. The exchange is kept only when the model
// answers without error.
func (s *Service) Reply(ctx context.Context, sessionID, prompt string, onChunk func(string) error) (string, error) {
	if s.llm == nil {
		return "", ErrUnavailable
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	turn := s.turnLock(sessionID)
	turn.Lock()
	defer turn.Unlock()

	msgs := s.History(sessionID)
	if len(msgs) == 0 {
		msgs = []Message{{Role: "system", Content: SystemPrompt}}
	}
	msgs = append(msgs, Message{Role: "user", Content: prompt})

	var full strings.Builder
	err := s.llm.Stream(ctx, msgs, func(delta string) error {
		full.WriteString(delta)
		if onChunk != nil {
			return onChunk(delta)
		}
		return nil
	})
	if err != nil {
		return full.String(), fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	s.mu.Lock()
	s.conversations[sessionID] = append(msgs, Message{Role: "assistant", Content: full.String()})
	s.mu.Unlock()
	return full.String(), nil
}

// History returns a copy of the conversation, including the system prompt
// once the first exchange has completed.
func (s *Service) History(sessionID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.conversations[sessionID]...)
}

func (s *Service) Forget(sessionID string) {
	s.mu.Lock()
	delete(s.conversations, sessionID)
	delete(s.turns, sessionID)
	s.mu.Unlock()
}

func (s *Service) turnLock(sessionID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.turns[sessionID]
	if !ok {
		l = &sync.Mutex{}
		s.turns[sessionID] = l
	}
	return l
}
