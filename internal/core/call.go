package core

import (
	"errors"

	"github.com/pion/webrtc/v3"
)

// ScopeType tells which kind of conversation hosts the call.
type ScopeType string

const (
	ChannelScope  ScopeType = "channel"
	DMThreadScope ScopeType = "dm_thread"
)

var ErrInvalidScope = errors.New("call scope must name exactly one of channel or dm thread")

// CallScope places a call into exactly one channel or one DM thread.
type CallScope struct {
	Type       ScopeType `json:"scope_type"`
	ChannelID  string    `json:"channel_id,omitempty"`
	DMThreadID string    `json:"dm_thread_id,omitempty"`
}

func ChannelCallScope(channelID string) CallScope {
	return CallScope{Type: ChannelScope, ChannelID: channelID}
}

func DMCallScope(threadID string) CallScope {
	return CallScope{Type: DMThreadScope, DMThreadID: threadID}
}

func (s CallScope) Validate() error {
	switch s.Type {
	case ChannelScope:
		if s.ChannelID == "" || s.DMThreadID != "" {
			return ErrInvalidScope
		}
	case DMThreadScope:
		if s.DMThreadID == "" || s.ChannelID != "" {
			return ErrInvalidScope
		}
	default:
		return ErrInvalidScope
	}
	return nil
}

// CallSession is the client's read-only cached copy of the session the
// session service created. It lives for the duration of the call.
type CallSession struct {
	ID         CallID             `json:"id"`
	Scope      CallScope          `json:"scope"`
	ICEServers []webrtc.ICEServer `json:"ice_servers"`
}

// ParticipantInfo is one roster entry returned by the session service.
type ParticipantInfo struct {
	UserID      UserID `json:"user_id"`
	DisplayName string `json:"display_name"`
}
