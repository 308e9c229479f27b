package eventbus

import (
	"sync"

	"github.com/bcroc/teamchat/internal/core"
	"github.com/bcroc/teamchat/internal/eventbus/rpc"
)

type MockBus struct {
	Messages chan Message
}

func NewMockBus() *MockBus {
	return &MockBus{Messages: make(chan Message)}
}

func (b *MockBus) Channel() <-chan Message {
	return b.Messages
}

func (b *MockBus) Close() error {
	close(b.Messages)
	return nil
}

func (b *MockBus) Push(r rpc.Rpc) error {
	payload, err := r.ToJSON()
	if err != nil {
		return err
	}
	b.Messages <- Message{Payload: payload}
	return nil
}

type MockPublisher struct {
	mu        sync.Mutex
	Published map[core.UserID][]rpc.Rpc
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{Published: make(map[core.UserID][]rpc.Rpc)}
}

func (p *MockPublisher) PublishClient(userID core.UserID, r rpc.Rpc) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Published[userID] = append(p.Published[userID], r)
	return nil
}
