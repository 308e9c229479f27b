package rtc

import (
	"sync"
	"time"

	"github.com/pion/webrtc/v3"
	"github.com/rs/zerolog/log"

	"github.com/bcroc/teamchat/internal/config"
	"github.com/bcroc/teamchat/internal/core"
)

const (
	dtlsRetransmissionInterval = 100 * time.Millisecond
	mtu                        = 1400
	iceDisconnectedTimeout     = 10 * time.Second
	iceFailedTimeout           = 25 * time.Second
	iceKeepaliveInterval       = 2 * time.Second
)

// SignalSender carries this link's SDP and ICE traffic to the remote peer
// through whatever signaling transport is wired in.
type SignalSender interface {
	SendOffer(to core.UserID, sdp webrtc.SessionDescription) error
	SendAnswer(to core.UserID, sdp webrtc.SessionDescription) error
	SendICECandidate(to core.UserID, candidate webrtc.ICECandidateInit) error
}

// LinkHandler receives the link's inbound media and state transitions.
type LinkHandler interface {
	HandleRemoteTrack(remote core.UserID, track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver)
	HandleConnectionState(remote core.UserID, state webrtc.PeerConnectionState)
}

type LinkParams struct {
	LocalUserID  core.UserID
	RemoteUserID core.UserID
	Config       *config.WebRTCConfig
	ICEServers   []webrtc.ICEServer
	Signal       SignalSender
	Handler      LinkHandler

	// LocalTracks are attached as senders at construction; later
	// add/remove goes through AddLocalTrack and RemoveLocalTrack.
	LocalTracks []webrtc.TrackLocal
}

// PeerLink owns the one negotiated connection to a single remote
// participant. Offer collisions are resolved by the polite/impolite rule:
// the role follows from comparing the two user IDs, so both sides agree on
// it without any coordination.
type PeerLink struct {
	localID  core.UserID
	remoteID core.UserID
	polite   bool

	signal  SignalSender
	handler LinkHandler

	lock              sync.Mutex
	pc                *webrtc.PeerConnection
	makingOffer       bool
	ignoreOffer       bool
	pendingCandidates []webrtc.ICECandidateInit
	senders           map[string]*webrtc.RTPSender
	closed            bool
	done              chan struct{}
}

func NewPeerLink(params LinkParams) (*PeerLink, error) {
	pc, err := newPeerConnection(params.Config, params.ICEServers)
	if err != nil {
		return nil, err
	}

	l := &PeerLink{
		localID:  params.LocalUserID,
		remoteID: params.RemoteUserID,
		polite:   core.Polite(params.LocalUserID, params.RemoteUserID),
		signal:   params.Signal,
		handler:  params.Handler,
		pc:       pc,
		senders:  make(map[string]*webrtc.RTPSender),
		done:     make(chan struct{}),
	}

	for _, track := range params.LocalTracks {
		if err := l.addTrackLocked(track); err != nil {
			_ = pc.Close()
			return nil, err
		}
	}

	pc.OnNegotiationNeeded(func() {
		l.negotiate(false)
	})
	pc.OnICECandidate(func(candidate *webrtc.ICECandidate) {
		if candidate == nil {
			return
		}
		if err := l.signal.SendICECandidate(l.remoteID, candidate.ToJSON()); err != nil {
			log.Error().Err(err).Str("service", "peerlink").Str("remote", string(l.remoteID)).Msg("send ICE candidate")
		}
	})
	pc.OnTrack(func(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
		l.handler.HandleRemoteTrack(l.remoteID, track, receiver)
	})
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		l.handler.HandleConnectionState(l.remoteID, state)
		if state == webrtc.PeerConnectionStateFailed {
			// Restart ICE on this link only; the rest of the mesh is fine.
			go l.RestartICE()
		}
	})

	return l, nil
}

func newPeerConnection(conf *config.WebRTCConfig, iceServers []webrtc.ICEServer) (*webrtc.PeerConnection, error) {
	me, registry, err := createMediaEngine(conf.EnabledCodecs, conf.Direction)
	if err != nil {
		return nil, err
	}

	se := conf.SettingEngine
	se.DisableMediaEngineCopy(true)
	se.SetDTLSRetransmissionInterval(dtlsRetransmissionInterval)
	se.SetReceiveMTU(mtu)
	se.SetICETimeouts(iceDisconnectedTimeout, iceFailedTimeout, iceKeepaliveInterval)

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(me),
		webrtc.WithSettingEngine(se),
		webrtc.WithInterceptorRegistry(registry),
	)

	c := conf.Configuration
	c.ICEServers = iceServers

	return api.NewPeerConnection(c)
}

func (l *PeerLink) Remote() core.UserID {
	return l.remoteID
}

func (l *PeerLink) Polite() bool {
	return l.polite
}

// Done is closed when the link has been torn down; watcher goroutines hang
// off it.
func (l *PeerLink) Done() <-chan struct{} {
	return l.done
}

func (l *PeerLink) ConnectionState() webrtc.PeerConnectionState {
	return l.pc.ConnectionState()
}

// negotiate creates and sends an offer. The lock is held for the whole
// attempt: the collision decision in HandleOffer and the signaling-state
// mutations here must never interleave, and pion fires this from its own
// goroutine.
func (l *PeerLink) negotiate(restart bool) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.closed {
		return
	}
	l.makingOffer = true
	defer func() { l.makingOffer = false }()

	var opts *webrtc.OfferOptions
	if restart {
		opts = &webrtc.OfferOptions{ICERestart: true}
	}

	offer, err := l.pc.CreateOffer(opts)
	if err != nil {
		log.Error().Err(err).Str("service", "peerlink").Str("remote", string(l.remoteID)).Msg("create offer")
		return
	}
	if err := l.pc.SetLocalDescription(offer); err != nil {
		log.Error().Err(err).Str("service", "peerlink").Str("remote", string(l.remoteID)).Msg("set local offer")
		return
	}

	if err := l.signal.SendOffer(l.remoteID, *l.pc.LocalDescription()); err != nil {
		log.Error().Err(err).Str("service", "peerlink").Str("remote", string(l.remoteID)).Msg("send offer")
	}
}

// RestartICE renegotiates this link with an ICE restart.
func (l *PeerLink) RestartICE() {
	l.negotiate(true)
}

// HandleOffer applies a remote offer and answers it, unless this side is
// impolite and mid-offer itself, in which case the remote offer is dropped
// entirely: no answer, no state change. The remote side is polite for this
// pair and will accept ours instead.
func (l *PeerLink) HandleOffer(sdp webrtc.SessionDescription) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.closed {
		return nil
	}

	collision := l.makingOffer || l.pc.SignalingState() != webrtc.SignalingStateStable
	l.ignoreOffer = !l.polite && collision
	if l.ignoreOffer {
		log.Debug().Str("service", "peerlink").Str("remote", string(l.remoteID)).Msg("offer collision, impolite side drops remote offer")
		return nil
	}

	if l.pc.SignalingState() == webrtc.SignalingStateHaveLocalOffer {
		// Polite side: abandon our own pending offer before accepting theirs.
		if err := l.pc.SetLocalDescription(webrtc.SessionDescription{Type: webrtc.SDPTypeRollback}); err != nil {
			return err
		}
	}

	if err := l.applyRemoteLocked(sdp); err != nil {
		return err
	}

	answer, err := l.pc.CreateAnswer(nil)
	if err != nil {
		return err
	}
	if err := l.pc.SetLocalDescription(answer); err != nil {
		return err
	}

	return l.signal.SendAnswer(l.remoteID, *l.pc.LocalDescription())
}

// HandleAnswer applies a remote answer to this side's outstanding offer.
func (l *PeerLink) HandleAnswer(sdp webrtc.SessionDescription) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.closed {
		return nil
	}
	return l.applyRemoteLocked(sdp)
}

func (l *PeerLink) applyRemoteLocked(sdp webrtc.SessionDescription) error {
	if err := l.pc.SetRemoteDescription(sdp); err != nil {
		return err
	}

	for _, candidate := range l.pendingCandidates {
		if err := l.pc.AddICECandidate(candidate); err != nil {
			log.Warn().Err(err).Str("service", "peerlink").Str("remote", string(l.remoteID)).Msg("apply buffered ICE candidate")
		}
	}
	l.pendingCandidates = nil

	return nil
}

// AddICECandidate applies or buffers a remote candidate. Candidates may
// legally arrive before the remote description; a stray candidate error is
// logged and swallowed, it must never take the call down.
func (l *PeerLink) AddICECandidate(candidate webrtc.ICECandidateInit) error {
	l.lock.Lock()
	if l.closed {
		l.lock.Unlock()
		return nil
	}

	if l.pc.RemoteDescription() == nil {
		l.pendingCandidates = append(l.pendingCandidates, candidate)
		l.lock.Unlock()
		return nil
	}
	l.lock.Unlock()

	if err := l.pc.AddICECandidate(candidate); err != nil {
		log.Warn().Err(err).Str("service", "peerlink").Str("remote", string(l.remoteID)).Msg("apply ICE candidate")
	}
	return nil
}

// AddLocalTrack attaches a local track as a sender; pion then signals
// negotiation-needed and the offer flows through negotiate.
func (l *PeerLink) AddLocalTrack(track webrtc.TrackLocal) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.closed {
		return nil
	}
	return l.addTrackLocked(track)
}

func (l *PeerLink) addTrackLocked(track webrtc.TrackLocal) error {
	sender, err := l.pc.AddTrack(track)
	if err != nil {
		return err
	}
	l.senders[track.ID()] = sender
	return nil
}

func (l *PeerLink) RemoveLocalTrack(track webrtc.TrackLocal) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.closed {
		return nil
	}

	sender, ok := l.senders[track.ID()]
	if !ok {
		return nil
	}
	delete(l.senders, track.ID())

	return l.pc.RemoveTrack(sender)
}

func (l *PeerLink) SenderCount() int {
	l.lock.Lock()
	defer l.lock.Unlock()

	return len(l.senders)
}

func (l *PeerLink) Closed() bool {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.closed
}

func (l *PeerLink) Close() error {
	l.lock.Lock()
	if l.closed {
		l.lock.Unlock()
		return nil
	}
	l.closed = true
	close(l.done)
	l.lock.Unlock()

	return l.pc.Close()
}
