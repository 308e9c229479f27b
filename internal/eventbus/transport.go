package eventbus

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/bcroc/teamchat/internal/eventbus/rpc"
)

// WSTransport is the client side of the signaling channel: a websocket to
// the relay. It is a Bus for inbound events and a Sender for outbound RPCs.
type WSTransport struct {
	conn *websocket.Conn

	writeLock sync.Mutex
	messages  chan Message
	closeOnce sync.Once
}

func DialWS(ctx context.Context, url string) (*WSTransport, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	t := &WSTransport{
		conn:     conn,
		messages: make(chan Message),
	}
	go t.readPump()

	return t, nil
}

func (t *WSTransport) readPump() {
	defer close(t.messages)
	for {
		_, payload, err := t.conn.ReadMessage()
		if err != nil {
			return
		}
		t.messages <- Message{Payload: payload}
	}
}

func (t *WSTransport) Channel() <-chan Message {
	return t.messages
}

func (t *WSTransport) Send(r rpc.Rpc) error {
	msg, err := r.ToJSON()
	if err != nil {
		return err
	}

	t.writeLock.Lock()
	defer t.writeLock.Unlock()

	return t.conn.WriteMessage(websocket.TextMessage, msg)
}

func (t *WSTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		err = t.conn.Close()
	})
	return err
}
