package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PabloGalante/staffdesk/internal/domain"
)

// Call records one ContinueConversation request.
type Call struct {
	Instruction string
	History     []*domain.Message
}

// MockLLM is a scriptable domain.ModelGateway for local mode and tests.
// Unset funcs fall back to canned behaviour.
type MockLLM struct {
	Reply   func(ctx context.Context, history []*domain.Message, instruction string) (string, error)
	Image   func(ctx context.Context, prompt string) (*domain.GeneratedImage, error)
	Summary func(ctx context.Context, history []*domain.Message, instruction string) (domain.MinutesSummary, error)

	mu         sync.Mutex
	calls      []Call
	imageCalls []string
}

func NewMockLLM() *MockLLM {
	return &MockLLM{}
}

func (m *MockLLM) ContinueConversation(ctx context.Context, history []*domain.Message, instruction string) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Instruction: instruction, History: domain.CloneMessages(history)})
	m.mu.Unlock()

	if m.Reply != nil {
		return m.Reply(ctx, history, instruction)
	}

	var last string
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == domain.RoleUser {
			last = history[i].Text
			break
		}
	}
	return fmt.Sprintf("Got it. You said %q; I'll get on it.", last), nil
}

func (m *MockLLM) GenerateImage(ctx context.Context, prompt string) (*domain.GeneratedImage, error) {
	m.mu.Lock()
	m.imageCalls = append(m.imageCalls, prompt)
	m.mu.Unlock()

	if m.Image != nil {
		return m.Image(ctx, prompt)
	}
	// 1x1 transparent PNG
	return &domain.GeneratedImage{
		Status:   domain.ImageReady,
		Data:     "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII=",
		MIMEType: "image/png",
	}, nil
}

func (m *MockLLM) SummarizeSession(ctx context.Context, history []*domain.Message, instruction string) (domain.MinutesSummary, error) {
	if m.Summary != nil {
		return m.Summary(ctx, history, instruction)
	}
	lines := strings.Count(Transcript(history), "\n")
	return domain.MinutesSummary{
		Title:   "Meeting summary",
		Content: fmt.Sprintf("The team exchanged %d messages.", lines),
	}, nil
}

// Calls returns the ContinueConversation requests seen so far.
func (m *MockLLM) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

func (m *MockLLM) ImagePrompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.imageCalls...)
}

var _ domain.ModelGateway = (*MockLLM)(nil)
