package relay

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	"github.com/isqad/melody"
	"github.com/rs/zerolog/log"

	"github.com/bcroc/teamchat/internal/core"
	"github.com/bcroc/teamchat/internal/eventbus"
	"github.com/bcroc/teamchat/internal/eventbus/rpc"
	"github.com/bcroc/teamchat/internal/telemetry"
)

const (
	wsUserSessionKey         = "user"
	wsNameSessionKey         = "name"
	wsSubscriptionSessionKey = "subscription"
	wsCallSessionKey         = "call"
)

// WsHandler upgrades the client connection and opens the user's signaling
// mailbox. Identity comes from the gateway-set headers, the same contract
// the session service uses.
func WsHandler(subscriber eventbus.Subscriber, websocket *melody.Melody) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-Id")
		if userID == "" {
			userID = r.URL.Query().Get("uuid")
		}
		if userID == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		displayName := r.Header.Get("X-Display-Name")
		if displayName == "" {
			displayName = r.URL.Query().Get("name")
		}

		subscription, err := subscriber.SubscribeClient(core.UserID(userID))
		if err != nil {
			log.Error().Err(err).Str("service", "relay").Msg("subscribe signaling mailbox")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		sessions := make(map[string]interface{})
		sessions[wsUserSessionKey] = core.UserID(userID)
		sessions[wsNameSessionKey] = displayName
		sessions[wsSubscriptionSessionKey] = subscription

		if err := websocket.HandleRequestWithKeys(w, r, sessions); err != nil {
			log.Error().Err(err).Str("service", "relay").Msg("handle websocket request")
		}
	}
}

// ConnectHandler starts the mailbox pump: everything published to the
// user's channel is forwarded down the websocket until it closes.
func ConnectHandler() func(session *melody.Session) {
	return func(session *melody.Session) {
		subscription, err := sessionSubscription(sessionStore{session})
		if err != nil {
			log.Error().Err(err).Str("service", "relay").Msg("extract subscription")
			closeWsSession(sessionStore{session})
			return
		}

		go func() {
			for msg := range subscription.Channel() {
				if err := session.Write(msg.Payload); err != nil {
					log.Error().Err(err).Str("service", "relay").Msg("write to websocket")
					return
				}
			}
		}()
	}
}

// DisconnectHandler closes the mailbox and leaves the current room, so a
// dropped connection looks to the rest of the call like a leave.
func DisconnectHandler(publisher eventbus.Publisher, rooms Rooms) func(session *melody.Session) {
	return func(session *melody.Session) {
		defer closeWsSession(sessionStore{session})

		userID, err := sessionUser(sessionStore{session})
		if err != nil {
			log.Error().Err(err).Str("service", "relay").Msg("extract user from session")
			return
		}

		callID, ok := sessionCall(sessionStore{session})
		if !ok {
			return
		}

		ctx := context.Background()
		if err := rooms.Remove(ctx, callID, userID); err != nil {
			log.Error().Err(err).Str("service", "relay").Msg("remove from room on disconnect")
			return
		}
		fanout(ctx, publisher, rooms, callID, userID,
			rpc.NewParticipantLeftRpc(rpc.ParticipantLeftParams{CallID: callID, UserID: userID}))
	}
}

// HandleMessage routes one inbound RPC: peer-addressed messages go to the
// target's mailbox, room-scoped ones fan out to everyone else in the call.
func HandleMessage(publisher eventbus.Publisher, rooms Rooms) func(*melody.Session, []byte) {
	return func(session *melody.Session, payload []byte) {
		userID, err := sessionUser(sessionStore{session})
		if err != nil {
			log.Error().Err(err).Str("service", "relay").Msg("extract user from session")
			return
		}

		message, err := rpc.RpcFromReader(bytes.NewReader(payload))
		if err != nil {
			telemetry.SignalingOpCounter.WithLabelValues("unknown", "error", "malformed").Inc()
			log.Error().Err(err).Str("service", "relay").Str("user", string(userID)).Msg("parse rpc")
			return
		}

		if err := route(sessionStore{session}, publisher, rooms, userID, message); err != nil {
			telemetry.SignalingOpCounter.WithLabelValues(string(message.GetMethod()), "error", "route").Inc()
			log.Error().Err(err).Str("service", "relay").Str("method", string(message.GetMethod())).Msg("route rpc")
			return
		}
		telemetry.SignalingOpCounter.WithLabelValues(string(message.GetMethod()), "ok", "").Inc()
	}
}

// keyStore is the slice of the websocket session the router needs: the
// display name for join fanout and the current-call marker used on
// disconnect.
type keyStore interface {
	Set(key string, value interface{})
	Get(key string) (interface{}, bool)
}

// sessionStore adapts a melody session to keyStore; melody's Get returns
// (value, exists) already, the wrapper only narrows the surface.
type sessionStore struct {
	session *melody.Session
}

func (s sessionStore) Set(key string, value interface{}) { s.session.Set(key, value) }

func (s sessionStore) Get(key string) (interface{}, bool) { return s.session.Get(key) }

func route(session keyStore, publisher eventbus.Publisher, rooms Rooms, from core.UserID, message rpc.Rpc) error {
	ctx := context.Background()

	switch m := message.(type) {
	case *rpc.SDPRpc:
		return publisher.PublishClient(m.Params.ToUserID, m)
	case *rpc.ICECandidateRpc:
		return publisher.PublishClient(m.Params.ToUserID, m)
	case *rpc.InviteRpc:
		return publisher.PublishClient(m.Params.ToUserID, m)
	case *rpc.CallAnswerRpc:
		return publisher.PublishClient(m.Params.ToUserID, m)
	case *rpc.CallRpc:
		return routeCallRpc(ctx, session, publisher, rooms, from, m)
	case *rpc.MediaStateRpc:
		fanout(ctx, publisher, rooms, m.Params.CallID, from, m)
		return nil
	case *rpc.ScreenShareRpc:
		fanout(ctx, publisher, rooms, m.Params.CallID, from, m)
		return nil
	default:
		return rpc.ErrUnknownRpcType
	}
}

func routeCallRpc(ctx context.Context, session keyStore, publisher eventbus.Publisher, rooms Rooms, from core.UserID, m *rpc.CallRpc) error {
	callID := m.Params.CallID

	switch m.GetMethod() {
	case rpc.JoinCallMethod:
		added, err := rooms.Add(ctx, callID, from)
		if err != nil {
			return err
		}
		session.Set(wsCallSessionKey, callID)
		if !added {
			// Re-join after a reconnect; the room already heard about us.
			return nil
		}
		fanout(ctx, publisher, rooms, callID, from,
			rpc.NewParticipantJoinedRpc(rpc.ParticipantJoinedParams{
				CallID:      callID,
				UserID:      from,
				DisplayName: sessionName(session),
			}))
		return nil
	case rpc.LeaveCallMethod:
		if err := rooms.Remove(ctx, callID, from); err != nil {
			return err
		}
		session.Set(wsCallSessionKey, nil)
		fanout(ctx, publisher, rooms, callID, from,
			rpc.NewParticipantLeftRpc(rpc.ParticipantLeftParams{CallID: callID, UserID: from}))
		return nil
	case rpc.HangupMethod:
		fanout(ctx, publisher, rooms, callID, from, m)
		session.Set(wsCallSessionKey, nil)
		return rooms.Clear(ctx, callID)
	default:
		return rpc.ErrUnknownRpcType
	}
}

// fanout delivers a room-scoped RPC to every member except the sender.
// Delivery failures to one member do not stop the rest.
func fanout(ctx context.Context, publisher eventbus.Publisher, rooms Rooms, callID core.CallID, from core.UserID, message rpc.Rpc) {
	members, err := rooms.Members(ctx, callID)
	if err != nil {
		log.Error().Err(err).Str("service", "relay").Str("call", string(callID)).Msg("list room members")
		return
	}

	for _, member := range members {
		if member == from {
			continue
		}
		if err := publisher.PublishClient(member, message); err != nil {
			log.Error().Err(err).Str("service", "relay").Str("user", string(member)).Msg("deliver to mailbox")
		}
	}
}

func closeWsSession(session keyStore) {
	subscription, err := sessionSubscription(session)
	if err != nil {
		return
	}
	if err := subscription.Close(); err != nil {
		log.Error().Err(err).Str("service", "relay").Msg("close subscription")
	}
}

func sessionUser(session keyStore) (core.UserID, error) {
	value, ok := session.Get(wsUserSessionKey)
	if !ok {
		return "", errors.New("no user in websocket session")
	}
	userID, ok := value.(core.UserID)
	if !ok {
		return "", errors.New("unexpected user type in websocket session")
	}
	return userID, nil
}

func sessionName(session keyStore) string {
	value, ok := session.Get(wsNameSessionKey)
	if !ok {
		return ""
	}
	name, _ := value.(string)
	return name
}

func sessionSubscription(session keyStore) (eventbus.Bus, error) {
	value, ok := session.Get(wsSubscriptionSessionKey)
	if !ok {
		return nil, errors.New("no subscription in websocket session")
	}
	subscription, ok := value.(eventbus.Bus)
	if !ok {
		return nil, errors.New("unexpected subscription type in websocket session")
	}
	return subscription, nil
}

func sessionCall(session keyStore) (core.CallID, bool) {
	value, ok := session.Get(wsCallSessionKey)
	if !ok || value == nil {
		return "", false
	}
	callID, ok := value.(core.CallID)
	return callID, ok
}
