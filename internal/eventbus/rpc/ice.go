package rpc

import (
	"encoding/json"

	"github.com/bcroc/teamchat/internal/core"
	"github.com/pion/webrtc/v3"
)

type ICECandidateParams struct {
	webrtc.ICECandidateInit
	CallID     core.CallID `json:"call_id"`
	FromUserID core.UserID `json:"from_user_id"`
	ToUserID   core.UserID `json:"to_user_id"`
}

type ICECandidateRpc struct {
	jsonRpcHead
	Params ICECandidateParams `json:"params"`
}

func NewICECandidateRpc(params ICECandidateParams) *ICECandidateRpc {
	return &ICECandidateRpc{
		jsonRpcHead: jsonRpcHead{
			Version: jsonRpcVersion,
			Method:  ICECandidateMethod,
		},
		Params: params,
	}
}

func (r ICECandidateRpc) GetMethod() Method {
	return r.Method
}

func (r ICECandidateRpc) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}
