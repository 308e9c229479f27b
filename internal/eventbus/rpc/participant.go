package rpc

import (
	"encoding/json"

	"github.com/bcroc/teamchat/internal/core"
)

type ParticipantJoinedParams struct {
	CallID      core.CallID `json:"call_id"`
	UserID      core.UserID `json:"user_id"`
	DisplayName string      `json:"display_name"`
}

type ParticipantJoinedRpc struct {
	jsonRpcHead
	Params ParticipantJoinedParams `json:"params"`
}

func NewParticipantJoinedRpc(params ParticipantJoinedParams) *ParticipantJoinedRpc {
	return &ParticipantJoinedRpc{
		jsonRpcHead: jsonRpcHead{
			Version: jsonRpcVersion,
			Method:  ParticipantJoinedMethod,
		},
		Params: params,
	}
}

func (r ParticipantJoinedRpc) GetMethod() Method {
	return r.Method
}

func (r ParticipantJoinedRpc) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

type ParticipantLeftParams struct {
	CallID core.CallID `json:"call_id"`
	UserID core.UserID `json:"user_id"`
}

type ParticipantLeftRpc struct {
	jsonRpcHead
	Params ParticipantLeftParams `json:"params"`
}

func NewParticipantLeftRpc(params ParticipantLeftParams) *ParticipantLeftRpc {
	return &ParticipantLeftRpc{
		jsonRpcHead: jsonRpcHead{
			Version: jsonRpcVersion,
			Method:  ParticipantLeftMethod,
		},
		Params: params,
	}
}

func (r ParticipantLeftRpc) GetMethod() Method {
	return r.Method
}

func (r ParticipantLeftRpc) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}
