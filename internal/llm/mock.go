package llm

import (
	"context"
	"fmt"
	"sync"
)

// Mock is a scripted Client for tests and local debugging. Responses
// are returned in order; requests are recorded for assertions.
type Mock struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	Requests  []Request

	// Respond, when set, computes the reply from the request instead of
	// consuming the scripted queue. Useful when calls arrive concurrently
	// and arrival order is not deterministic.
	Respond func(Request) (string, error)
}

var _ Client = (*Mock)(nil)

// NewMock creates a Mock that replies with the given responses in order.
func NewMock(responses ...string) *Mock {
	return &Mock{responses: responses}
}

// FailWith queues an error to be returned before any remaining responses.
func (m *Mock) FailWith(err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, err)
	return m
}

func (m *Mock) Complete(_ context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)
	if m.Respond != nil {
		return m.Respond(req)
	}
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		return "", err
	}
	if len(m.responses) == 0 {
		return "", fmt.Errorf("mock: no response scripted for request %d", len(m.Requests))
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

// CallCount returns how many requests the mock has served.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
