package sessions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pion/webrtc/v3"
	"github.com/rs/zerolog/log"

	"github.com/bcroc/teamchat/internal/core"
)

type contextKey string

const userContextKey contextKey = "sessions.user"

type requestUser struct {
	ID          core.UserID
	DisplayName string
}

// IdentityMiddleware takes the caller's identity from headers the gateway
// sets after authentication. Requests without one are rejected.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-Id")
		if userID == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		user := requestUser{
			ID:          core.UserID(userID),
			DisplayName: r.Header.Get("X-Display-Name"),
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// callEnvelope is the response shape of every call endpoint.
type callEnvelope struct {
	Call         callPayload            `json:"call"`
	ICEServers   []webrtc.ICEServer     `json:"ice_servers"`
	Participants []core.ParticipantInfo `json:"participants,omitempty"`
}

type callPayload struct {
	ID    core.CallID    `json:"id"`
	Scope core.CallScope `json:"scope"`
}

// CallStartHandler creates a call in the requested scope, or joins the one
// already running there: one scope, one active call.
func CallStartHandler(storage CallsDBStorer, iceServers []webrtc.ICEServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromRequest(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		scope := core.CallScope{}
		if err := json.NewDecoder(r.Body).Decode(&scope); err != nil {
			log.Error().Err(err).Str("service", "sessions").Msg("parse call scope")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if err := scope.Validate(); err != nil {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}

		call, err := storage.FindActiveByScope(scope)
		if err != nil {
			log.Error().Err(err).Str("service", "sessions").Msg("look up scope")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if call == nil {
			call, err = storage.Create(scope, user.ID)
			if err != nil {
				log.Error().Err(err).Str("service", "sessions").Msg("create call")
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
		}

		if err := storage.AddParticipant(call.ID, user.ID, user.DisplayName); err != nil {
			log.Error().Err(err).Str("service", "sessions").Msg("add participant")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		writeEnvelope(w, call, storage, iceServers)
	}
}

func CallJoinHandler(storage CallsDBStorer, iceServers []webrtc.ICEServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromRequest(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		call, ok := findCall(w, r, storage)
		if !ok {
			return
		}
		if call.Ended() {
			w.WriteHeader(http.StatusGone)
			return
		}

		if err := storage.AddParticipant(call.ID, user.ID, user.DisplayName); err != nil {
			log.Error().Err(err).Str("service", "sessions").Msg("add participant")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		writeEnvelope(w, call, storage, iceServers)
	}
}

// CallLeaveHandler drops the caller from the roster; the last participant
// leaving finishes the call.
func CallLeaveHandler(storage CallsDBStorer, iceServers []webrtc.ICEServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromRequest(r)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		call, ok := findCall(w, r, storage)
		if !ok {
			return
		}

		remaining, err := storage.RemoveParticipant(call.ID, user.ID)
		if err != nil {
			log.Error().Err(err).Str("service", "sessions").Msg("remove participant")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		if remaining == 0 && !call.Ended() {
			if err := storage.End(call.ID); err != nil {
				log.Error().Err(err).Str("service", "sessions").Msg("end drained call")
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
		}

		writeEnvelope(w, call, storage, iceServers)
	}
}

func CallEndHandler(storage CallsDBStorer, iceServers []webrtc.ICEServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := userFromRequest(r); err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		call, ok := findCall(w, r, storage)
		if !ok {
			return
		}

		if err := storage.End(call.ID); err != nil {
			log.Error().Err(err).Str("service", "sessions").Msg("end call")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		writeEnvelope(w, call, storage, iceServers)
	}
}

func findCall(w http.ResponseWriter, r *http.Request, storage CallsDBStorer) (*Call, bool) {
	id := core.CallID(chi.URLParam(r, "id"))

	call, err := storage.Find(id)
	if err == sql.ErrNoRows {
		w.WriteHeader(http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		log.Error().Err(err).Str("service", "sessions").Msg("find call")
		w.WriteHeader(http.StatusInternalServerError)
		return nil, false
	}

	return call, true
}

func writeEnvelope(w http.ResponseWriter, call *Call, storage CallsDBStorer, iceServers []webrtc.ICEServer) {
	participants, err := storage.Participants(call.ID)
	if err != nil {
		log.Error().Err(err).Str("service", "sessions").Msg("load participants")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	env := callEnvelope{
		Call: callPayload{
			ID:    call.ID,
			Scope: call.Scope(),
		},
		ICEServers: iceServers,
	}
	for _, p := range participants {
		env.Participants = append(env.Participants, p.Info())
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(&env); err != nil {
		log.Error().Err(err).Str("service", "sessions").Msg("encode response")
	}
}

func withUser(ctx context.Context, user requestUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

func userFromRequest(r *http.Request) (requestUser, error) {
	user, ok := r.Context().Value(userContextKey).(requestUser)
	if !ok {
		return requestUser{}, errors.New("no user in request context")
	}
	return user, nil
}
