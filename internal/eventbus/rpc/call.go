package rpc

import (
	"encoding/json"

	"github.com/bcroc/teamchat/internal/core"
)

// CallParams scopes a room-level RPC (join, leave, hangup) to one call.
type CallParams struct {
	CallID core.CallID `json:"call_id"`
}

type CallRpc struct {
	jsonRpcHead
	Params CallParams `json:"params"`
}

func newCallRpc(method Method, params CallParams) *CallRpc {
	return &CallRpc{
		jsonRpcHead: jsonRpcHead{
			Version: jsonRpcVersion,
			Method:  method,
		},
		Params: params,
	}
}

func NewJoinCallRpc(callID core.CallID) *CallRpc {
	return newCallRpc(JoinCallMethod, CallParams{CallID: callID})
}

func NewLeaveCallRpc(callID core.CallID) *CallRpc {
	return newCallRpc(LeaveCallMethod, CallParams{CallID: callID})
}

func NewHangupRpc(callID core.CallID) *CallRpc {
	return newCallRpc(HangupMethod, CallParams{CallID: callID})
}

func (r CallRpc) GetMethod() Method {
	return r.Method
}

func (r CallRpc) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// InviteParams rings one user into a call.
type InviteParams struct {
	CallID          core.CallID    `json:"call_id"`
	Scope           core.CallScope `json:"scope"`
	FromUserID      core.UserID    `json:"from_user_id"`
	FromDisplayName string         `json:"from_display_name"`
	ToUserID        core.UserID    `json:"to_user_id"`
}

type InviteRpc struct {
	jsonRpcHead
	Params InviteParams `json:"params"`
}

func NewInviteRpc(params InviteParams) *InviteRpc {
	return &InviteRpc{
		jsonRpcHead: jsonRpcHead{
			Version: jsonRpcVersion,
			Method:  InviteMethod,
		},
		Params: params,
	}
}

func (r InviteRpc) GetMethod() Method {
	return r.Method
}

func (r InviteRpc) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// CallAnswerParams carries the callee's accept/decline back to the caller.
type CallAnswerParams struct {
	CallID     core.CallID `json:"call_id"`
	FromUserID core.UserID `json:"from_user_id"`
	ToUserID   core.UserID `json:"to_user_id"`
}

type CallAnswerRpc struct {
	jsonRpcHead
	Params CallAnswerParams `json:"params"`
}

func newCallAnswerRpc(method Method, params CallAnswerParams) *CallAnswerRpc {
	return &CallAnswerRpc{
		jsonRpcHead: jsonRpcHead{
			Version: jsonRpcVersion,
			Method:  method,
		},
		Params: params,
	}
}

func NewAcceptCallRpc(params CallAnswerParams) *CallAnswerRpc {
	return newCallAnswerRpc(AcceptCallMethod, params)
}

func NewDeclineCallRpc(params CallAnswerParams) *CallAnswerRpc {
	return newCallAnswerRpc(DeclineCallMethod, params)
}

func (r CallAnswerRpc) GetMethod() Method {
	return r.Method
}

func (r CallAnswerRpc) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}
