package rpc

import (
	"encoding/json"
	"errors"
	"io"
)

const jsonRpcVersion = "2.0"

type Method string

const (
	SDPOfferMethod     Method = "offer"
	SDPAnswerMethod    Method = "answer"
	ICECandidateMethod Method = "iceCandidate"

	JoinCallMethod  Method = "join_call"
	LeaveCallMethod Method = "leave_call"
	HangupMethod    Method = "hangup"

	InviteMethod      Method = "invite"
	AcceptCallMethod  Method = "accept_call"
	DeclineCallMethod Method = "decline_call"

	MediaStateMethod        Method = "media_state"
	ScreenShareStartMethod  Method = "screenshare_start"
	ScreenShareStopMethod   Method = "screenshare_stop"
	ParticipantJoinedMethod Method = "participant_joined"
	ParticipantLeftMethod   Method = "participant_left"
)

var ErrUnknownRpcType = errors.New("unknown RPC type")

type Rpc interface {
	GetMethod() Method
	ToJSON() ([]byte, error)
}

type jsonRpcHead struct {
	Version string `json:"jsonrpc"`
	Method  Method `json:"method"`
}

type jsonRpc struct {
	jsonRpcHead
	Params json.RawMessage `json:"params"`
}

// RpcFromReader decodes one signaling RPC from its wire form. Unknown
// methods are rejected so a misbehaving peer cannot smuggle arbitrary
// payloads through the relay.
func RpcFromReader(reader io.Reader) (Rpc, error) {
	raw := &jsonRpc{}

	if err := json.NewDecoder(reader).Decode(raw); err != nil {
		return nil, err
	}

	switch raw.Method {
	case SDPOfferMethod, SDPAnswerMethod:
		p := SDPParams{}
		if err := json.Unmarshal(raw.Params, &p); err != nil {
			return nil, err
		}
		if raw.Method == SDPOfferMethod {
			return NewSDPOfferRpc(p), nil
		}
		return NewSDPAnswerRpc(p), nil
	case ICECandidateMethod:
		p := ICECandidateParams{}
		if err := json.Unmarshal(raw.Params, &p); err != nil {
			return nil, err
		}
		return NewICECandidateRpc(p), nil
	case JoinCallMethod, LeaveCallMethod, HangupMethod:
		p := CallParams{}
		if err := json.Unmarshal(raw.Params, &p); err != nil {
			return nil, err
		}
		return newCallRpc(raw.Method, p), nil
	case InviteMethod:
		p := InviteParams{}
		if err := json.Unmarshal(raw.Params, &p); err != nil {
			return nil, err
		}
		return NewInviteRpc(p), nil
	case AcceptCallMethod, DeclineCallMethod:
		p := CallAnswerParams{}
		if err := json.Unmarshal(raw.Params, &p); err != nil {
			return nil, err
		}
		return newCallAnswerRpc(raw.Method, p), nil
	case MediaStateMethod:
		p := MediaStateParams{}
		if err := json.Unmarshal(raw.Params, &p); err != nil {
			return nil, err
		}
		return NewMediaStateRpc(p), nil
	case ScreenShareStartMethod, ScreenShareStopMethod:
		p := ScreenShareParams{}
		if err := json.Unmarshal(raw.Params, &p); err != nil {
			return nil, err
		}
		return newScreenShareRpc(raw.Method, p), nil
	case ParticipantJoinedMethod:
		p := ParticipantJoinedParams{}
		if err := json.Unmarshal(raw.Params, &p); err != nil {
			return nil, err
		}
		return NewParticipantJoinedRpc(p), nil
	case ParticipantLeftMethod:
		p := ParticipantLeftParams{}
		if err := json.Unmarshal(raw.Params, &p); err != nil {
			return nil, err
		}
		return NewParticipantLeftRpc(p), nil
	default:
		return nil, ErrUnknownRpcType
	}
}
