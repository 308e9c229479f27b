package eventbus

import (
	"github.com/nats-io/nats.go"

	"github.com/bcroc/teamchat/internal/core"
	"github.com/bcroc/teamchat/internal/eventbus/rpc"
)

// NatsBus backs the signaling mailboxes with NATS subjects instead of redis
// channels. Selected by the `bus: nats` config key on the relay.
type NatsBus struct {
	nc *nats.Conn
}

func NatsPubSub(nc *nats.Conn) *NatsBus {
	return &NatsBus{nc: nc}
}

func (b *NatsBus) PublishClient(userID core.UserID, r rpc.Rpc) error {
	msg, err := r.ToJSON()
	if err != nil {
		return err
	}
	return b.nc.Publish(SignalMessages.buildChannel(userID), msg)
}

func (b *NatsBus) SubscribeClient(userID core.UserID) (Bus, error) {
	inbox := make(chan *nats.Msg, 64)
	sub, err := b.nc.ChanSubscribe(SignalMessages.buildChannel(userID), inbox)
	if err != nil {
		return nil, err
	}

	s := &natsSubscription{
		sub:      sub,
		inbox:    inbox,
		messages: make(chan Message),
		quit:     make(chan struct{}),
	}
	go s.pump()

	return s, nil
}

type natsSubscription struct {
	sub      *nats.Subscription
	inbox    chan *nats.Msg
	messages chan Message
	quit     chan struct{}
}

func (s *natsSubscription) pump() {
	defer close(s.messages)
	for {
		select {
		case msg, ok := <-s.inbox:
			if !ok {
				return
			}
			s.messages <- Message{Payload: msg.Data}
		case <-s.quit:
			return
		}
	}
}

func (s *natsSubscription) Channel() <-chan Message {
	return s.messages
}

func (s *natsSubscription) Close() error {
	close(s.quit)
	return s.sub.Unsubscribe()
}
