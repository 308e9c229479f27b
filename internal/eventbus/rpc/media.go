package rpc

import (
	"encoding/json"

	"github.com/bcroc/teamchat/internal/core"
)

type MediaStateParams struct {
	core.MediaState
	CallID core.CallID `json:"call_id"`
	UserID core.UserID `json:"user_id"`
}

type MediaStateRpc struct {
	jsonRpcHead
	Params MediaStateParams `json:"params"`
}

func NewMediaStateRpc(params MediaStateParams) *MediaStateRpc {
	return &MediaStateRpc{
		jsonRpcHead: jsonRpcHead{
			Version: jsonRpcVersion,
			Method:  MediaStateMethod,
		},
		Params: params,
	}
}

func (r MediaStateRpc) GetMethod() Method {
	return r.Method
}

func (r MediaStateRpc) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

type ScreenShareParams struct {
	CallID core.CallID `json:"call_id"`
	UserID core.UserID `json:"user_id"`
}

type ScreenShareRpc struct {
	jsonRpcHead
	Params ScreenShareParams `json:"params"`
}

func newScreenShareRpc(method Method, params ScreenShareParams) *ScreenShareRpc {
	return &ScreenShareRpc{
		jsonRpcHead: jsonRpcHead{
			Version: jsonRpcVersion,
			Method:  method,
		},
		Params: params,
	}
}

func NewScreenShareStartRpc(params ScreenShareParams) *ScreenShareRpc {
	return newScreenShareRpc(ScreenShareStartMethod, params)
}

func NewScreenShareStopRpc(params ScreenShareParams) *ScreenShareRpc {
	return newScreenShareRpc(ScreenShareStopMethod, params)
}

func (r ScreenShareRpc) GetMethod() Method {
	return r.Method
}

func (r ScreenShareRpc) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}
