package call

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/pion/webrtc/v3"
	"golang.org/x/net/publicsuffix"

	"github.com/bcroc/teamchat/internal/core"
)

// SessionService is the call lifecycle authority the engine consumes.
type SessionService interface {
	Start(ctx context.Context, scope core.CallScope) (*core.CallSession, error)
	Join(ctx context.Context, callID core.CallID) (*core.CallSession, []core.ParticipantInfo, error)
	Leave(ctx context.Context, callID core.CallID) error
	End(ctx context.Context, callID core.CallID) error
}

// HTTPSessionService talks to the session service's REST API. Identity
// travels in headers; the gateway replaces them with the authenticated
// user in production setups.
type HTTPSessionService struct {
	baseURL     string
	userID      core.UserID
	displayName string
	client      *http.Client
}

func NewHTTPSessionService(baseURL string, userID core.UserID, displayName string) (*HTTPSessionService, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	return &HTTPSessionService{
		baseURL:     baseURL,
		userID:      userID,
		displayName: displayName,
		client: &http.Client{
			Timeout: 5 * time.Second,
			Jar:     jar,
		},
	}, nil
}

type callEnvelope struct {
	Call struct {
		ID    core.CallID    `json:"id"`
		Scope core.CallScope `json:"scope"`
	} `json:"call"`
	ICEServers   []webrtc.ICEServer     `json:"ice_servers"`
	Participants []core.ParticipantInfo `json:"participants,omitempty"`
}

func (e *callEnvelope) session() *core.CallSession {
	return &core.CallSession{
		ID:         e.Call.ID,
		Scope:      e.Call.Scope,
		ICEServers: e.ICEServers,
	}
}

func (s *HTTPSessionService) Start(ctx context.Context, scope core.CallScope) (*core.CallSession, error) {
	env, err := s.post(ctx, "/api/v1/calls", scope)
	if err != nil {
		return nil, err
	}
	return env.session(), nil
}

func (s *HTTPSessionService) Join(ctx context.Context, callID core.CallID) (*core.CallSession, []core.ParticipantInfo, error) {
	env, err := s.post(ctx, "/api/v1/calls/"+string(callID)+"/join", nil)
	if err != nil {
		return nil, nil, err
	}
	return env.session(), env.Participants, nil
}

func (s *HTTPSessionService) Leave(ctx context.Context, callID core.CallID) error {
	_, err := s.post(ctx, "/api/v1/calls/"+string(callID)+"/leave", nil)
	return err
}

func (s *HTTPSessionService) End(ctx context.Context, callID core.CallID) error {
	_, err := s.post(ctx, "/api/v1/calls/"+string(callID)+"/end", nil)
	return err
}

func (s *HTTPSessionService) post(ctx context.Context, path string, body interface{}) (*callEnvelope, error) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", string(s.userID))
	req.Header.Set("X-Display-Name", s.displayName)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("session service: %s returned %d", path, resp.StatusCode)
	}

	env := &callEnvelope{}
	if err := json.NewDecoder(resp.Body).Decode(env); err != nil {
		return nil, err
	}

	return env, nil
}
