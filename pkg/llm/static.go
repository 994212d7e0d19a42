package llm

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// StaticProvider is the provider name for the offline Static generator.
const StaticProvider = "static"

// ResponderFunc produces content for a request without calling a model.
type ResponderFunc func(ctx context.Context, req Request) (string, error)

// Static is an offline Generator for development and tests. It answers from
// a responder function, or cycles through fixed contents when built with
// NewStatic. Requests are recorded.
type Static struct {
	mu        sync.Mutex
	responder ResponderFunc
	contents  []string
	next      int
	requests  []Request
}

// NewStatic returns a generator that replies with contents in order,
// repeating the last one once exhausted.
func NewStatic(contents ...string) *Static {
	return &Static{contents: contents}
}

// NewStaticResponder returns a generator backed by responder.
func NewStaticResponder(responder ResponderFunc) *Static {
	return &Static{responder: responder}
}

// Generate records the request and returns the next canned content.
func (s *Static) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	responder := s.responder
	var content string
	if responder == nil {
		if len(s.contents) == 0 {
			s.mu.Unlock()
			return nil, NewFatalError(errors.New("static generator has no content"))
		}
		index := s.next
		if index >= len(s.contents) {
			index = len(s.contents) - 1
		}
		content = s.contents[index]
		s.next++
	}
	s.mu.Unlock()

	if responder != nil {
		var err error
		content, err = responder(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	return &Response{
		RequestID: uuid.New().String(),
		Content:   content,
		Model:     StaticProvider,
	}, nil
}

// Requests returns a copy of the requests received so far.
func (s *Static) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}
