package eventbus

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/bcroc/teamchat/internal/core"
	"github.com/bcroc/teamchat/internal/eventbus/rpc"
)

// Channel namespaces the per-user signaling mailboxes on the bus.
type Channel string

const SignalMessages Channel = "signal"

func (c Channel) buildChannel(userID core.UserID) string {
	return string(c) + ":" + string(userID)
}

// Message is one raw signaling payload delivered by a Bus.
type Message struct {
	Payload []byte
}

// Bus is a live subscription. Close is the disposer: it must be called
// exactly once and ends the Channel stream.
type Bus interface {
	Channel() <-chan Message
	Close() error
}

// Publisher delivers a signaling RPC to one user's mailbox, wherever that
// user's websocket happens to be connected.
type Publisher interface {
	PublishClient(userID core.UserID, r rpc.Rpc) error
}

// Subscriber opens a user's mailbox.
type Subscriber interface {
	SubscribeClient(userID core.UserID) (Bus, error)
}

// Sender is the client-side outbound half of the signaling transport.
type Sender interface {
	Send(r rpc.Rpc) error
}

// Eventbus is the redis pub/sub backing of Publisher and Subscriber.
type Eventbus struct {
	rdb *redis.Client
}

func RedisPubSub(rdb *redis.Client) *Eventbus {
	return &Eventbus{rdb: rdb}
}

func (e *Eventbus) PublishClient(userID core.UserID, r rpc.Rpc) error {
	msg, err := r.ToJSON()
	if err != nil {
		return err
	}
	return e.rdb.Publish(context.Background(), SignalMessages.buildChannel(userID), msg).Err()
}

func (e *Eventbus) SubscribeClient(userID core.UserID) (Bus, error) {
	ctx := context.Background()
	pubsub := e.rdb.Subscribe(ctx, SignalMessages.buildChannel(userID))
	// Wait until the subscription is created
	if _, err := pubsub.Receive(ctx); err != nil {
		return nil, err
	}

	sub := &redisSubscription{
		pubsub:   pubsub,
		messages: make(chan Message),
	}
	go sub.pump()

	return sub, nil
}

type redisSubscription struct {
	pubsub   *redis.PubSub
	messages chan Message
}

func (s *redisSubscription) pump() {
	for msg := range s.pubsub.Channel() {
		s.messages <- Message{Payload: []byte(msg.Payload)}
	}
	close(s.messages)
}

func (s *redisSubscription) Channel() <-chan Message {
	return s.messages
}

func (s *redisSubscription) Close() error {
	return s.pubsub.Close()
}
