package call

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pion/webrtc/v3"
	"github.com/rs/zerolog/log"

	"github.com/bcroc/teamchat/internal/config"
	"github.com/bcroc/teamchat/internal/core"
	"github.com/bcroc/teamchat/internal/eventbus"
	"github.com/bcroc/teamchat/internal/eventbus/rpc"
	"github.com/bcroc/teamchat/internal/rtc"
	"github.com/bcroc/teamchat/internal/telemetry"
)

var (
	ErrCallInProgress = errors.New("another call is already in progress")
	ErrNoIncomingCall = errors.New("no incoming call to answer")
	ErrNoActiveCall   = errors.New("no active call")
	ErrCallSuperseded = errors.New("call was torn down while the operation was in flight")
)

const lifecycleTimeout = 5 * time.Second

// Options wires an Engine to its collaborators. Everything is injected so
// independent engines can run side by side in tests.
type Options struct {
	LocalUserID core.UserID
	DisplayName string

	Devices  MediaDevices
	Signal   eventbus.Sender
	Sessions SessionService
	WebRTC   *config.WebRTCConfig

	// FallbackICEServers are used when a link must be built before any
	// session response delivered a server list (offer arriving while idle).
	FallbackICEServers []webrtc.ICEServer
}

// Engine is the call state machine. It owns the lifecycle state, the
// participant roster and one PeerLink per remote participant; the two maps
// are only ever touched together, through addParticipantLocked and
// removeParticipantLocked, so their key sets cannot drift apart.
//
// All engine state lives behind one mutex. Pion callbacks, signaling events
// and UI intents all re-enter through methods that take it; continuations
// that resume after I/O re-check the generation counter under the lock and
// drop themselves when the call they belong to is gone.
type Engine struct {
	opts Options

	lock         sync.Mutex
	state        State
	gen          uint64
	session      *core.CallSession
	invite       *rpc.InviteParams
	participants map[core.UserID]*Participant
	links        map[core.UserID]*rtc.PeerLink

	micTrack    LocalTrack
	cameraTrack LocalTrack
	screenTrack LocalTrack
	media       core.MediaState

	onStateChange func(State)
	onDeclined    func(core.UserID)
}

func NewEngine(opts Options) (*Engine, error) {
	if opts.LocalUserID == "" {
		return nil, errors.New("engine requires a local user id")
	}
	if opts.Devices == nil || opts.Signal == nil || opts.Sessions == nil || opts.WebRTC == nil {
		return nil, errors.New("engine requires devices, signal, sessions and webrtc config")
	}

	return &Engine{
		opts:         opts,
		state:        StateIdle,
		participants: make(map[core.UserID]*Participant),
		links:        make(map[core.UserID]*rtc.PeerLink),
	}, nil
}

// Bind registers the engine's handlers on a signaling router. Handlers are
// safe against duplicate delivery; re-binding after a transport reconnect
// must reuse the same router so no handler is registered twice.
func (e *Engine) Bind(router *eventbus.Router) {
	router.OnOffer(e.HandleOffer)
	router.OnAnswer(e.HandleAnswer)
	router.OnICECandidate(e.HandleICECandidate)
	router.OnInvite(e.HandleInvite)
	router.OnAcceptCall(e.HandleAccepted)
	router.OnDeclineCall(e.HandleDeclined)
	router.OnHangup(e.HandleHangup)
	router.OnMediaState(e.HandleMediaState)
	router.OnScreenShareStart(e.HandleScreenShareStart)
	router.OnScreenShareStop(e.HandleScreenShareStop)
	router.OnParticipantJoined(e.HandleParticipantJoined)
	router.OnParticipantLeft(e.HandleParticipantLeft)
}

func (e *Engine) SetOnStateChange(fn func(State)) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.onStateChange = fn
}

func (e *Engine) SetOnDeclined(fn func(core.UserID)) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.onDeclined = fn
}

func (e *Engine) State() State {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.state
}

func (e *Engine) LocalMediaState() core.MediaState {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.media
}

func (e *Engine) Session() *core.CallSession {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.session
}

// Participants returns a snapshot of the current roster.
func (e *Engine) Participants() []*Participant {
	e.lock.Lock()
	defer e.lock.Unlock()

	out := make([]*Participant, 0, len(e.participants))
	for _, p := range e.participants {
		snapshot := *p
		out = append(out, &snapshot)
	}
	return out
}

// ---------------------------------------------------------------------------
// Lifecycle intents

// StartCall rings out: acquires local media, asks the session service for a
// new call in the given scope and joins its signaling room. Any failure on
// the way reverts the engine to idle with nothing left behind.
func (e *Engine) StartCall(ctx context.Context, scope core.CallScope, withVideo bool) error {
	if err := scope.Validate(); err != nil {
		return err
	}

	e.lock.Lock()
	if e.state != StateIdle {
		e.lock.Unlock()
		return ErrCallInProgress
	}
	e.setStateLocked(StateRingingOutgoing)
	gen := e.bumpGenLocked()
	e.lock.Unlock()

	if err := e.acquireLocalMedia(ctx, gen, withVideo); err != nil {
		e.abort(gen)
		return err
	}

	session, err := e.opts.Sessions.Start(ctx, scope)
	if err != nil {
		e.abort(gen)
		return err
	}

	e.lock.Lock()
	if !e.genValidLocked(gen) {
		e.lock.Unlock()
		return ErrCallSuperseded
	}
	e.session = session
	e.setStateLocked(StateInCall)
	e.lock.Unlock()

	telemetry.CallStarted()

	if err := e.opts.Signal.Send(rpc.NewJoinCallRpc(session.ID)); err != nil {
		log.Error().Err(err).Str("service", "call").Msg("join signaling room")
	}
	e.broadcastMediaState()

	return nil
}

// InviteUser rings one user into the current call.
func (e *Engine) InviteUser(to core.UserID) error {
	e.lock.Lock()
	if e.session == nil {
		e.lock.Unlock()
		return ErrNoActiveCall
	}
	params := rpc.InviteParams{
		CallID:          e.session.ID,
		Scope:           e.session.Scope,
		FromUserID:      e.opts.LocalUserID,
		FromDisplayName: e.opts.DisplayName,
		ToUserID:        to,
	}
	e.lock.Unlock()

	return e.opts.Signal.Send(rpc.NewInviteRpc(params))
}

// AcceptCall answers the cached incoming ring.
func (e *Engine) AcceptCall(ctx context.Context, withVideo bool) error {
	e.lock.Lock()
	if e.state != StateRingingIncoming || e.invite == nil {
		e.lock.Unlock()
		return ErrNoIncomingCall
	}
	invite := *e.invite
	e.invite = nil
	e.setStateLocked(StateConnecting)
	gen := e.bumpGenLocked()
	e.lock.Unlock()

	if err := e.acquireLocalMedia(ctx, gen, withVideo); err != nil {
		e.abort(gen)
		return err
	}

	session, roster, err := e.opts.Sessions.Join(ctx, invite.CallID)
	if err != nil {
		e.abort(gen)
		return err
	}

	e.lock.Lock()
	if !e.genValidLocked(gen) {
		e.lock.Unlock()
		return ErrCallSuperseded
	}
	e.session = session
	for _, info := range roster {
		if info.UserID == e.opts.LocalUserID {
			continue
		}
		if _, err := e.addParticipantLocked(info); err != nil {
			log.Error().Err(err).Str("service", "call").Str("remote", string(info.UserID)).Msg("create peer link from roster")
		}
	}
	e.setStateLocked(StateInCall)
	e.lock.Unlock()

	telemetry.CallStarted()

	accept := rpc.NewAcceptCallRpc(rpc.CallAnswerParams{
		CallID:     invite.CallID,
		FromUserID: e.opts.LocalUserID,
		ToUserID:   invite.FromUserID,
	})
	if err := e.opts.Signal.Send(accept); err != nil {
		log.Error().Err(err).Str("service", "call").Msg("send accept")
	}
	if err := e.opts.Signal.Send(rpc.NewJoinCallRpc(invite.CallID)); err != nil {
		log.Error().Err(err).Str("service", "call").Msg("join signaling room")
	}
	e.broadcastMediaState()

	return nil
}

// DeclineCall refuses the cached incoming ring and returns to idle.
func (e *Engine) DeclineCall() error {
	e.lock.Lock()
	if e.state != StateRingingIncoming || e.invite == nil {
		e.lock.Unlock()
		return ErrNoIncomingCall
	}
	invite := *e.invite
	e.invite = nil
	e.setStateLocked(StateIdle)
	e.lock.Unlock()

	return e.opts.Signal.Send(rpc.NewDeclineCallRpc(rpc.CallAnswerParams{
		CallID:     invite.CallID,
		FromUserID: e.opts.LocalUserID,
		ToUserID:   invite.FromUserID,
	}))
}

// JoinCall joins an already running call, as a late joiner from idle or as
// an idempotent re-join after a transport reconnect: links that already
// exist are left alone, only missing roster entries get a new one.
func (e *Engine) JoinCall(ctx context.Context, callID core.CallID) error {
	fresh := false

	e.lock.Lock()
	switch e.state {
	case StateIdle:
		fresh = true
		e.setStateLocked(StateConnecting)
		e.bumpGenLocked()
	case StateInCall:
	default:
		e.lock.Unlock()
		return ErrCallInProgress
	}
	gen := e.gen
	e.lock.Unlock()

	if fresh {
		if err := e.acquireLocalMedia(ctx, gen, false); err != nil {
			e.abort(gen)
			return err
		}
	}

	session, roster, err := e.opts.Sessions.Join(ctx, callID)
	if err != nil {
		if fresh {
			e.abort(gen)
		}
		return err
	}

	e.lock.Lock()
	if !e.genValidLocked(gen) {
		e.lock.Unlock()
		return ErrCallSuperseded
	}
	e.session = session
	for _, info := range roster {
		if info.UserID == e.opts.LocalUserID {
			continue
		}
		if _, ok := e.links[info.UserID]; ok {
			continue
		}
		if _, err := e.addParticipantLocked(info); err != nil {
			log.Error().Err(err).Str("service", "call").Str("remote", string(info.UserID)).Msg("create peer link from roster")
		}
	}
	e.setStateLocked(StateInCall)
	e.lock.Unlock()

	if fresh {
		telemetry.CallStarted()
	}

	if err := e.opts.Signal.Send(rpc.NewJoinCallRpc(callID)); err != nil {
		log.Error().Err(err).Str("service", "call").Msg("join signaling room")
	}
	e.broadcastMediaState()

	return nil
}

// LeaveCall tears the call down locally and notifies the session service
// and the signaling room. Calling it when already idle is a no-op.
func (e *Engine) LeaveCall() error {
	e.lock.Lock()
	if !e.state.Active() {
		e.lock.Unlock()
		return nil
	}
	callID := e.currentCallIDLocked()
	links := e.teardownLocked()
	e.lock.Unlock()

	closeLinks(links)
	telemetry.CallEnded()

	if callID != "" {
		if err := e.opts.Signal.Send(rpc.NewLeaveCallRpc(callID)); err != nil {
			log.Error().Err(err).Str("service", "call").Msg("send leave")
		}
		ctx, cancel := context.WithTimeout(context.Background(), lifecycleTimeout)
		defer cancel()
		if err := e.opts.Sessions.Leave(ctx, callID); err != nil {
			log.Error().Err(err).Str("service", "call").Msg("leave session")
		}
	}

	return nil
}

// EndCall tears the call down for everyone: hangs up towards all peers and
// ends the session at the service.
func (e *Engine) EndCall() error {
	e.lock.Lock()
	if !e.state.Active() {
		e.lock.Unlock()
		return nil
	}
	callID := e.currentCallIDLocked()
	links := e.teardownLocked()
	e.lock.Unlock()

	closeLinks(links)
	telemetry.CallEnded()

	if callID != "" {
		if err := e.opts.Signal.Send(rpc.NewHangupRpc(callID)); err != nil {
			log.Error().Err(err).Str("service", "call").Msg("send hangup")
		}
		ctx, cancel := context.WithTimeout(context.Background(), lifecycleTimeout)
		defer cancel()
		if err := e.opts.Sessions.End(ctx, callID); err != nil {
			log.Error().Err(err).Str("service", "call").Msg("end session")
		}
	}

	return nil
}

// ---------------------------------------------------------------------------
// Signaling event handlers

// HandleInvite rings the incoming-call state, or declines right away when a
// call is already in progress.
func (e *Engine) HandleInvite(p rpc.InviteParams) error {
	if p.ToUserID != e.opts.LocalUserID {
		return nil
	}

	e.lock.Lock()
	if e.state != StateIdle {
		e.lock.Unlock()
		return e.opts.Signal.Send(rpc.NewDeclineCallRpc(rpc.CallAnswerParams{
			CallID:     p.CallID,
			FromUserID: e.opts.LocalUserID,
			ToUserID:   p.FromUserID,
		}))
	}
	invite := p
	e.invite = &invite
	e.setStateLocked(StateRingingIncoming)
	e.lock.Unlock()

	return nil
}

// HandleOffer feeds a remote offer into the matching link. An offer from an
// unknown peer while idle means we are being pulled into a running call
// (mesh wiring may race the invite): the participant and link are created
// and the offer answered.
func (e *Engine) HandleOffer(p rpc.SDPParams) error {
	if p.ToUserID != e.opts.LocalUserID {
		return nil
	}

	e.lock.Lock()
	if e.session != nil && e.session.ID != p.CallID {
		e.lock.Unlock()
		return nil
	}

	link, ok := e.links[p.FromUserID]
	if !ok {
		switch e.state {
		case StateIdle, StateConnecting, StateInCall:
			if e.session == nil {
				e.session = &core.CallSession{ID: p.CallID}
			}
			var err error
			link, err = e.addParticipantLocked(core.ParticipantInfo{UserID: p.FromUserID})
			if err != nil {
				e.lock.Unlock()
				return err
			}
			if e.state == StateIdle {
				e.setStateLocked(StateInCall)
				telemetry.CallStarted()
			}
		default:
			// Mid-ring; the offer belongs to a call we have not joined.
			e.lock.Unlock()
			return nil
		}
	}
	e.lock.Unlock()

	return link.HandleOffer(p.SessionDescription)
}

// HandleAnswer applies a remote answer; an answer for a peer we no longer
// track is stale and dropped.
func (e *Engine) HandleAnswer(p rpc.SDPParams) error {
	if p.ToUserID != e.opts.LocalUserID {
		return nil
	}

	e.lock.Lock()
	link, ok := e.links[p.FromUserID]
	e.lock.Unlock()
	if !ok {
		return nil
	}

	return link.HandleAnswer(p.SessionDescription)
}

func (e *Engine) HandleICECandidate(p rpc.ICECandidateParams) error {
	if p.ToUserID != e.opts.LocalUserID {
		return nil
	}

	e.lock.Lock()
	link, ok := e.links[p.FromUserID]
	e.lock.Unlock()
	if !ok {
		return nil
	}

	return link.AddICECandidate(p.ICECandidateInit)
}

func (e *Engine) HandleAccepted(p rpc.CallAnswerParams) error {
	log.Info().Str("service", "call").Str("user", string(p.FromUserID)).Msg("call accepted")
	return nil
}

func (e *Engine) HandleDeclined(p rpc.CallAnswerParams) error {
	e.lock.Lock()
	fn := e.onDeclined
	e.lock.Unlock()

	if fn != nil {
		fn(p.FromUserID)
	}
	return nil
}

// HandleHangup tears down locally when a peer ended the call for everyone.
// The session is already gone at the service, so only local state is
// released.
func (e *Engine) HandleHangup(p rpc.CallParams) error {
	e.lock.Lock()
	if !e.state.Active() || e.currentCallIDLocked() != p.CallID {
		e.lock.Unlock()
		return nil
	}
	links := e.teardownLocked()
	e.lock.Unlock()

	closeLinks(links)
	telemetry.CallEnded()

	return nil
}

func (e *Engine) HandleParticipantJoined(p rpc.ParticipantJoinedParams) error {
	if p.UserID == e.opts.LocalUserID {
		return nil
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	if e.state != StateInCall && e.state != StateConnecting {
		return nil
	}
	if e.currentCallIDLocked() != p.CallID {
		return nil
	}

	if existing, ok := e.participants[p.UserID]; ok {
		existing.DisplayName = p.DisplayName
		return nil
	}

	_, err := e.addParticipantLocked(core.ParticipantInfo{UserID: p.UserID, DisplayName: p.DisplayName})
	return err
}

func (e *Engine) HandleParticipantLeft(p rpc.ParticipantLeftParams) error {
	e.lock.Lock()
	if e.currentCallIDLocked() != p.CallID {
		e.lock.Unlock()
		return nil
	}
	link := e.removeParticipantLocked(p.UserID)
	e.lock.Unlock()

	if link != nil {
		if err := link.Close(); err != nil {
			log.Error().Err(err).Str("service", "call").Str("remote", string(p.UserID)).Msg("close departed peer link")
		}
	}
	return nil
}

func (e *Engine) HandleMediaState(p rpc.MediaStateParams) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	participant, ok := e.participants[p.UserID]
	if !ok {
		return nil
	}

	participant.Media = p.MediaState
	if !p.ScreenShareEnabled {
		participant.ScreenStream = nil
	}
	return nil
}

func (e *Engine) HandleScreenShareStart(p rpc.ScreenShareParams) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if participant, ok := e.participants[p.UserID]; ok {
		participant.Media.ScreenShareEnabled = true
	}
	return nil
}

func (e *Engine) HandleScreenShareStop(p rpc.ScreenShareParams) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if participant, ok := e.participants[p.UserID]; ok {
		participant.Media.ScreenShareEnabled = false
		participant.ScreenStream = nil
	}
	return nil
}

// ---------------------------------------------------------------------------
// Link callbacks (Engine implements rtc.LinkHandler)

func (e *Engine) HandleRemoteTrack(remote core.UserID, track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver) {
	e.lock.Lock()
	participant, ok := e.participants[remote]
	link := e.links[remote]
	if !ok || link == nil {
		// The peer was torn down while this track was in flight.
		e.lock.Unlock()
		return
	}
	participant.attachTrack(track)
	screen := isScreenTrack(track)
	e.lock.Unlock()

	if track.Kind() == webrtc.RTPCodecTypeAudio {
		link.WatchAudioTrack(track, receiver, func(speaking bool) {
			if screen {
				return
			}
			e.setSpeaking(remote, speaking)
		})
		return
	}
	link.WatchVideoTrack(track)
}

func (e *Engine) HandleConnectionState(remote core.UserID, state webrtc.PeerConnectionState) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if participant, ok := e.participants[remote]; ok {
		participant.ConnectionState = state
	}
}

func (e *Engine) setSpeaking(remote core.UserID, speaking bool) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if participant, ok := e.participants[remote]; ok {
		participant.IsSpeaking = speaking
	}
}

// ---------------------------------------------------------------------------
// Internals

func (e *Engine) setStateLocked(s State) {
	if e.state == s {
		return
	}
	e.state = s
	if e.onStateChange != nil {
		e.onStateChange(s)
	}
}

func (e *Engine) bumpGenLocked() uint64 {
	e.gen++
	return e.gen
}

func (e *Engine) genValidLocked(gen uint64) bool {
	return e.gen == gen
}

func (e *Engine) currentCallIDLocked() core.CallID {
	if e.session == nil {
		return ""
	}
	return e.session.ID
}

func (e *Engine) iceServersLocked() []webrtc.ICEServer {
	if e.session != nil && len(e.session.ICEServers) > 0 {
		return e.session.ICEServers
	}
	return e.opts.FallbackICEServers
}

func (e *Engine) localTracksLocked() []webrtc.TrackLocal {
	tracks := make([]webrtc.TrackLocal, 0, 3)
	for _, t := range []LocalTrack{e.micTrack, e.cameraTrack, e.screenTrack} {
		if t != nil {
			tracks = append(tracks, t)
		}
	}
	return tracks
}

// addParticipantLocked is the single place both maps grow; the invariant
// that their key sets match depends on every insert going through here.
func (e *Engine) addParticipantLocked(info core.ParticipantInfo) (*rtc.PeerLink, error) {
	link, err := rtc.NewPeerLink(rtc.LinkParams{
		LocalUserID:  e.opts.LocalUserID,
		RemoteUserID: info.UserID,
		Config:       e.opts.WebRTC,
		ICEServers:   e.iceServersLocked(),
		Signal: &linkSignaler{
			send:   e.opts.Signal,
			callID: e.currentCallIDLocked(),
			from:   e.opts.LocalUserID,
		},
		Handler:     e,
		LocalTracks: e.localTracksLocked(),
	})
	if err != nil {
		return nil, err
	}

	e.participants[info.UserID] = &Participant{
		UserID:      info.UserID,
		DisplayName: info.DisplayName,
	}
	e.links[info.UserID] = link

	return link, nil
}

// removeParticipantLocked is the single place both maps shrink. The caller
// closes the returned link outside the engine lock.
func (e *Engine) removeParticipantLocked(userID core.UserID) *rtc.PeerLink {
	link := e.links[userID]
	delete(e.links, userID)
	delete(e.participants, userID)
	return link
}

// teardownLocked releases everything the call held and walks the state back
// to idle through ended. It is idempotent; a second run finds nothing to
// release. The generation bump cancels in-flight continuations.
func (e *Engine) teardownLocked() []*rtc.PeerLink {
	e.bumpGenLocked()

	links := make([]*rtc.PeerLink, 0, len(e.links))
	for userID := range e.links {
		if link := e.removeParticipantLocked(userID); link != nil {
			links = append(links, link)
		}
	}

	for _, track := range []LocalTrack{e.micTrack, e.cameraTrack, e.screenTrack} {
		if track == nil {
			continue
		}
		if err := track.Stop(); err != nil {
			log.Error().Err(err).Str("service", "call").Msg("stop local track")
		}
	}
	e.micTrack = nil
	e.cameraTrack = nil
	e.screenTrack = nil
	e.media = core.MediaState{}

	e.session = nil
	e.invite = nil

	e.setStateLocked(StateEnded)
	e.setStateLocked(StateIdle)

	return links
}

func closeLinks(links []*rtc.PeerLink) {
	for _, link := range links {
		if err := link.Close(); err != nil {
			log.Error().Err(err).Str("service", "call").Str("remote", string(link.Remote())).Msg("close peer link")
		}
	}
}

// abort runs the failure-path teardown unless a newer call already took
// over the engine.
func (e *Engine) abort(gen uint64) {
	e.lock.Lock()
	if !e.genValidLocked(gen) {
		e.lock.Unlock()
		return
	}
	links := e.teardownLocked()
	e.lock.Unlock()

	closeLinks(links)
}

func (e *Engine) acquireLocalMedia(ctx context.Context, gen uint64, withVideo bool) error {
	mic, err := e.opts.Devices.OpenMicTrack(ctx, "mic-"+string(e.opts.LocalUserID), "camera-"+string(e.opts.LocalUserID))
	if err != nil {
		return err
	}

	e.lock.Lock()
	if !e.genValidLocked(gen) {
		e.lock.Unlock()
		_ = mic.Stop()
		return ErrCallSuperseded
	}
	e.micTrack = mic
	e.media.AudioEnabled = true
	e.lock.Unlock()

	if !withVideo {
		return nil
	}

	camera, err := e.opts.Devices.OpenCameraTrack(ctx, "camera-"+string(e.opts.LocalUserID), "camera-"+string(e.opts.LocalUserID))
	if err != nil {
		return err
	}

	e.lock.Lock()
	if !e.genValidLocked(gen) {
		e.lock.Unlock()
		_ = camera.Stop()
		return ErrCallSuperseded
	}
	e.cameraTrack = camera
	e.media.VideoEnabled = true
	e.lock.Unlock()

	return nil
}

func (e *Engine) broadcastMediaState() {
	e.lock.Lock()
	callID := e.currentCallIDLocked()
	media := e.media
	e.lock.Unlock()

	if callID == "" {
		return
	}

	err := e.opts.Signal.Send(rpc.NewMediaStateRpc(rpc.MediaStateParams{
		MediaState: media,
		CallID:     callID,
		UserID:     e.opts.LocalUserID,
	}))
	if err != nil {
		log.Error().Err(err).Str("service", "call").Msg("broadcast media state")
	}
}

// linkSignaler addresses one link's SDP/ICE traffic with the call and local
// user it belongs to.
type linkSignaler struct {
	send   eventbus.Sender
	callID core.CallID
	from   core.UserID
}

func (s *linkSignaler) SendOffer(to core.UserID, sdp webrtc.SessionDescription) error {
	return s.send.Send(rpc.NewSDPOfferRpc(rpc.SDPParams{
		SessionDescription: sdp,
		CallID:             s.callID,
		FromUserID:         s.from,
		ToUserID:           to,
	}))
}

func (s *linkSignaler) SendAnswer(to core.UserID, sdp webrtc.SessionDescription) error {
	return s.send.Send(rpc.NewSDPAnswerRpc(rpc.SDPParams{
		SessionDescription: sdp,
		CallID:             s.callID,
		FromUserID:         s.from,
		ToUserID:           to,
	}))
}

func (s *linkSignaler) SendICECandidate(to core.UserID, candidate webrtc.ICECandidateInit) error {
	return s.send.Send(rpc.NewICECandidateRpc(rpc.ICECandidateParams{
		ICECandidateInit: candidate,
		CallID:           s.callID,
		FromUserID:       s.from,
		ToUserID:         to,
	}))
}
