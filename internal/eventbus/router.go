package eventbus

import (
	"bytes"

	"github.com/rs/zerolog/log"

	"github.com/bcroc/teamchat/internal/eventbus/rpc"
)

// Router reads raw payloads from a Bus, decodes them and dispatches to the
// registered callbacks. Callbacks for methods nobody registered are skipped.
type Router struct {
	bus  Bus
	quit chan struct{}

	onOffer             func(rpc.SDPParams) error
	onAnswer            func(rpc.SDPParams) error
	onICECandidate      func(rpc.ICECandidateParams) error
	onInvite            func(rpc.InviteParams) error
	onAcceptCall        func(rpc.CallAnswerParams) error
	onDeclineCall       func(rpc.CallAnswerParams) error
	onHangup            func(rpc.CallParams) error
	onMediaState        func(rpc.MediaStateParams) error
	onScreenShareStart  func(rpc.ScreenShareParams) error
	onScreenShareStop   func(rpc.ScreenShareParams) error
	onParticipantJoined func(rpc.ParticipantJoinedParams) error
	onParticipantLeft   func(rpc.ParticipantLeftParams) error
}

func NewRouter(bus Bus) *Router {
	return &Router{
		bus:  bus,
		quit: make(chan struct{}),
	}
}

// Start runs the dispatch loop. The returned channel is closed once the loop
// is consuming, so tests can publish without racing startup.
func (router *Router) Start() <-chan struct{} {
	started := make(chan struct{})

	go func() {
		close(started)
		channel := router.bus.Channel()

		for {
			select {
			case msg, ok := <-channel:
				if !ok {
					return
				}
				router.dispatch(msg.Payload)
			case <-router.quit:
				return
			}
		}
	}()

	return started
}

// Stop ends the dispatch loop. It does not close the underlying Bus; the
// owner of the subscription disposes it.
func (router *Router) Stop() {
	close(router.quit)
}

func (router *Router) dispatch(payload []byte) {
	r, err := rpc.RpcFromReader(bytes.NewReader(payload))
	if err != nil {
		log.Error().Err(err).Str("service", "router").Msg("drop undecodable signaling payload")
		return
	}

	var cbErr error

	switch msg := r.(type) {
	case *rpc.SDPRpc:
		if msg.GetMethod() == rpc.SDPOfferMethod && router.onOffer != nil {
			cbErr = router.onOffer(msg.Params)
		} else if msg.GetMethod() == rpc.SDPAnswerMethod && router.onAnswer != nil {
			cbErr = router.onAnswer(msg.Params)
		}
	case *rpc.ICECandidateRpc:
		if router.onICECandidate != nil {
			cbErr = router.onICECandidate(msg.Params)
		}
	case *rpc.InviteRpc:
		if router.onInvite != nil {
			cbErr = router.onInvite(msg.Params)
		}
	case *rpc.CallAnswerRpc:
		if msg.GetMethod() == rpc.AcceptCallMethod && router.onAcceptCall != nil {
			cbErr = router.onAcceptCall(msg.Params)
		} else if msg.GetMethod() == rpc.DeclineCallMethod && router.onDeclineCall != nil {
			cbErr = router.onDeclineCall(msg.Params)
		}
	case *rpc.CallRpc:
		if msg.GetMethod() == rpc.HangupMethod && router.onHangup != nil {
			cbErr = router.onHangup(msg.Params)
		}
	case *rpc.MediaStateRpc:
		if router.onMediaState != nil {
			cbErr = router.onMediaState(msg.Params)
		}
	case *rpc.ScreenShareRpc:
		if msg.GetMethod() == rpc.ScreenShareStartMethod && router.onScreenShareStart != nil {
			cbErr = router.onScreenShareStart(msg.Params)
		} else if msg.GetMethod() == rpc.ScreenShareStopMethod && router.onScreenShareStop != nil {
			cbErr = router.onScreenShareStop(msg.Params)
		}
	case *rpc.ParticipantJoinedRpc:
		if router.onParticipantJoined != nil {
			cbErr = router.onParticipantJoined(msg.Params)
		}
	case *rpc.ParticipantLeftRpc:
		if router.onParticipantLeft != nil {
			cbErr = router.onParticipantLeft(msg.Params)
		}
	default:
		log.Error().Str("service", "router").Str("rpcMethod", string(r.GetMethod())).Msg("no route for method")
	}

	if cbErr != nil {
		log.Error().Err(cbErr).Str("service", "router").Str("rpcMethod", string(r.GetMethod())).Msg("signaling handler failed")
	}
}

func (router *Router) OnOffer(callback func(rpc.SDPParams) error) {
	router.onOffer = callback
}

func (router *Router) OnAnswer(callback func(rpc.SDPParams) error) {
	router.onAnswer = callback
}

func (router *Router) OnICECandidate(callback func(rpc.ICECandidateParams) error) {
	router.onICECandidate = callback
}

func (router *Router) OnInvite(callback func(rpc.InviteParams) error) {
	router.onInvite = callback
}

func (router *Router) OnAcceptCall(callback func(rpc.CallAnswerParams) error) {
	router.onAcceptCall = callback
}

func (router *Router) OnDeclineCall(callback func(rpc.CallAnswerParams) error) {
	router.onDeclineCall = callback
}

func (router *Router) OnHangup(callback func(rpc.CallParams) error) {
	router.onHangup = callback
}

func (router *Router) OnMediaState(callback func(rpc.MediaStateParams) error) {
	router.onMediaState = callback
}

func (router *Router) OnScreenShareStart(callback func(rpc.ScreenShareParams) error) {
	router.onScreenShareStart = callback
}

func (router *Router) OnScreenShareStop(callback func(rpc.ScreenShareParams) error) {
	router.onScreenShareStop = callback
}

func (router *Router) OnParticipantJoined(callback func(rpc.ParticipantJoinedParams) error) {
	router.onParticipantJoined = callback
}

func (router *Router) OnParticipantLeft(callback func(rpc.ParticipantLeftParams) error) {
	router.onParticipantLeft = callback
}
