package rpc

import (
	"encoding/json"

	"github.com/bcroc/teamchat/internal/core"
	"github.com/pion/webrtc/v3"
)

// SDPParams addresses one description to one peer of one call. FromUserID is
// stamped by the sender; the relay routes on ToUserID only.
type SDPParams struct {
	webrtc.SessionDescription
	CallID     core.CallID `json:"call_id"`
	FromUserID core.UserID `json:"from_user_id"`
	ToUserID   core.UserID `json:"to_user_id"`
}

type SDPRpc struct {
	jsonRpcHead
	Params SDPParams `json:"params"`
}

func NewSDPOfferRpc(params SDPParams) *SDPRpc {
	return &SDPRpc{
		jsonRpcHead: jsonRpcHead{
			Version: jsonRpcVersion,
			Method:  SDPOfferMethod,
		},
		Params: params,
	}
}

func NewSDPAnswerRpc(params SDPParams) *SDPRpc {
	return &SDPRpc{
		jsonRpcHead: jsonRpcHead{
			Version: jsonRpcVersion,
			Method:  SDPAnswerMethod,
		},
		Params: params,
	}
}

func (r SDPRpc) GetMethod() Method {
	return r.Method
}

func (r SDPRpc) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}
