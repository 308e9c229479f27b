package call

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pion/webrtc/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcroc/teamchat/internal/config"
	"github.com/bcroc/teamchat/internal/core"
	"github.com/bcroc/teamchat/internal/eventbus/rpc"
)

const (
	testCallID = core.CallID("0c4038d6-da68-11ec-9d64-0242ac120002")
	localUser  = core.UserID("alice")
	remoteUser = core.UserID("bob")
)

var testScope = core.CallScope{Type: core.ChannelScope, ChannelID: "general"}

type fakeTrack struct {
	*webrtc.TrackLocalStaticSample

	mu      sync.Mutex
	enabled bool
	stopped bool
	onEnded func()
}

func newFakeTrack(mime, trackID, streamID string) *fakeTrack {
	track, err := webrtc.NewTrackLocalStaticSample(webrtc.RTPCodecCapability{MimeType: mime}, trackID, streamID)
	if err != nil {
		panic(err)
	}
	return &fakeTrack{TrackLocalStaticSample: track, enabled: true}
}

func (f *fakeTrack) SetEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enabled = enabled
}

func (f *fakeTrack) Enabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

func (f *fakeTrack) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

func (f *fakeTrack) Stopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func (f *fakeTrack) OnEnded(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onEnded = fn
}

func (f *fakeTrack) fireEnded() {
	f.mu.Lock()
	fn := f.onEnded
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
}

type fakeDevices struct {
	mu      sync.Mutex
	mics    []*fakeTrack
	cameras []*fakeTrack
	screens []*fakeTrack
}

func (d *fakeDevices) OpenMicTrack(ctx context.Context, trackID, streamID string) (LocalTrack, error) {
	track := newFakeTrack(webrtc.MimeTypeOpus, trackID, streamID)
	d.mu.Lock()
	d.mics = append(d.mics, track)
	d.mu.Unlock()
	return track, nil
}

func (d *fakeDevices) OpenCameraTrack(ctx context.Context, trackID, streamID string) (LocalTrack, error) {
	track := newFakeTrack(webrtc.MimeTypeVP8, trackID, streamID)
	d.mu.Lock()
	d.cameras = append(d.cameras, track)
	d.mu.Unlock()
	return track, nil
}

func (d *fakeDevices) OpenDisplayTrack(ctx context.Context, trackID, streamID string) (LocalTrack, error) {
	track := newFakeTrack(webrtc.MimeTypeVP8, trackID, streamID)
	d.mu.Lock()
	d.screens = append(d.screens, track)
	d.mu.Unlock()
	return track, nil
}

func (d *fakeDevices) lastMic() *fakeTrack {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.mics) == 0 {
		return nil
	}
	return d.mics[len(d.mics)-1]
}

func (d *fakeDevices) lastCamera() *fakeTrack {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.cameras) == 0 {
		return nil
	}
	return d.cameras[len(d.cameras)-1]
}

func (d *fakeDevices) lastScreen() *fakeTrack {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.screens) == 0 {
		return nil
	}
	return d.screens[len(d.screens)-1]
}

type fakeSender struct {
	mu   sync.Mutex
	sent []rpc.Rpc
}

func (s *fakeSender) Send(r rpc.Rpc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, r)
	return nil
}

func (s *fakeSender) countMethod(method rpc.Method) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.sent {
		if r.GetMethod() == method {
			n++
		}
	}
	return n
}

func (s *fakeSender) lastOfMethod(method rpc.Method) rpc.Rpc {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.sent) - 1; i >= 0; i-- {
		if s.sent[i].GetMethod() == method {
			return s.sent[i]
		}
	}
	return nil
}

type fakeSessions struct {
	mu     sync.Mutex
	roster []core.ParticipantInfo

	startErr error

	leaves int
	ends   int
}

func (f *fakeSessions) Start(ctx context.Context, scope core.CallScope) (*core.CallSession, error) {
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &core.CallSession{ID: testCallID, Scope: scope}, nil
}

func (f *fakeSessions) Join(ctx context.Context, callID core.CallID) (*core.CallSession, []core.ParticipantInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &core.CallSession{ID: callID}, f.roster, nil
}

func (f *fakeSessions) Leave(ctx context.Context, callID core.CallID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.leaves++
	return nil
}

func (f *fakeSessions) End(ctx context.Context, callID core.CallID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ends++
	return nil
}

func (f *fakeSessions) leaveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.leaves
}

func newTestEngine(t *testing.T) (*Engine, *fakeDevices, *fakeSender, *fakeSessions) {
	t.Helper()

	conf, err := config.NewWebRTCConfig(config.NewConfig())
	require.Nil(t, err)

	devices := &fakeDevices{}
	sender := &fakeSender{}
	sessions := &fakeSessions{}

	engine, err := NewEngine(Options{
		LocalUserID: localUser,
		DisplayName: "Alice",
		Devices:     devices,
		Signal:      sender,
		Sessions:    sessions,
		WebRTC:      conf,
	})
	require.Nil(t, err)
	t.Cleanup(func() { engine.LeaveCall() })

	return engine, devices, sender, sessions
}

// mapKeySetsMatch asserts participants and links always cover the same users.
func mapKeySetsMatch(t *testing.T, e *Engine) {
	t.Helper()
	e.lock.Lock()
	defer e.lock.Unlock()

	assert.Equal(t, len(e.participants), len(e.links))
	for userID := range e.participants {
		_, ok := e.links[userID]
		assert.True(t, ok, "user %s has a participant but no link", userID)
	}
}

func remoteTestOffer(t *testing.T) webrtc.SessionDescription {
	t.Helper()

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	require.Nil(t, err)
	t.Cleanup(func() { pc.Close() })

	_, err = pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio)
	require.Nil(t, err)

	offer, err := pc.CreateOffer(nil)
	require.Nil(t, err)
	require.Nil(t, pc.SetLocalDescription(offer))

	return *pc.LocalDescription()
}

func TestStartCall(t *testing.T) {
	engine, devices, sender, _ := newTestEngine(t)

	err := engine.StartCall(context.Background(), testScope, false)
	assert.Nil(t, err)

	assert.Equal(t, StateInCall, engine.State())
	require.NotNil(t, engine.Session())
	assert.Equal(t, testCallID, engine.Session().ID)

	assert.NotNil(t, devices.lastMic())
	assert.True(t, engine.LocalMediaState().AudioEnabled)
	assert.False(t, engine.LocalMediaState().VideoEnabled)

	assert.Equal(t, 1, sender.countMethod(rpc.JoinCallMethod))
	assert.Equal(t, 1, sender.countMethod(rpc.MediaStateMethod))
}

func TestStartCallRejectsInvalidScope(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	err := engine.StartCall(context.Background(), core.CallScope{}, false)
	assert.ErrorIs(t, err, core.ErrInvalidScope)
	assert.Equal(t, StateIdle, engine.State())
}

func TestStartCallWhileBusy(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	assert.Nil(t, engine.StartCall(context.Background(), testScope, false))

	err := engine.StartCall(context.Background(), testScope, false)
	assert.ErrorIs(t, err, ErrCallInProgress)
	assert.Equal(t, StateInCall, engine.State())
}

func TestStartCallSessionFailureRevertsToIdle(t *testing.T) {
	engine, devices, _, sessions := newTestEngine(t)
	sessions.startErr = errors.New("boom")

	err := engine.StartCall(context.Background(), testScope, false)
	assert.NotNil(t, err)

	assert.Equal(t, StateIdle, engine.State())
	assert.Nil(t, engine.Session())
	assert.True(t, devices.lastMic().Stopped())
	assert.Equal(t, core.MediaState{}, engine.LocalMediaState())
}

func TestHandleInviteRings(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	err := engine.HandleInvite(rpc.InviteParams{
		CallID:          testCallID,
		Scope:           testScope,
		FromUserID:      remoteUser,
		FromDisplayName: "Bob",
		ToUserID:        localUser,
	})
	assert.Nil(t, err)
	assert.Equal(t, StateRingingIncoming, engine.State())
}

func TestHandleInviteForSomeoneElseIsIgnored(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	err := engine.HandleInvite(rpc.InviteParams{
		CallID:     testCallID,
		Scope:      testScope,
		FromUserID: remoteUser,
		ToUserID:   core.UserID("carol"),
	})
	assert.Nil(t, err)
	assert.Equal(t, StateIdle, engine.State())
}

func TestHandleInviteWhileBusyAutoDeclines(t *testing.T) {
	engine, _, sender, _ := newTestEngine(t)

	assert.Nil(t, engine.StartCall(context.Background(), testScope, false))

	err := engine.HandleInvite(rpc.InviteParams{
		CallID:     core.CallID("other-call"),
		Scope:      core.CallScope{Type: core.DMThreadScope, DMThreadID: "dm-9"},
		FromUserID: remoteUser,
		ToUserID:   localUser,
	})
	assert.Nil(t, err)

	assert.Equal(t, StateInCall, engine.State())
	assert.Equal(t, 1, sender.countMethod(rpc.DeclineCallMethod))

	declined, ok := sender.lastOfMethod(rpc.DeclineCallMethod).(*rpc.CallAnswerRpc)
	require.True(t, ok)
	assert.Equal(t, core.CallID("other-call"), declined.Params.CallID)
	assert.Equal(t, remoteUser, declined.Params.ToUserID)
}

func TestAcceptCall(t *testing.T) {
	engine, _, sender, sessions := newTestEngine(t)
	sessions.roster = []core.ParticipantInfo{
		{UserID: localUser, DisplayName: "Alice"},
		{UserID: remoteUser, DisplayName: "Bob"},
	}

	require.Nil(t, engine.HandleInvite(rpc.InviteParams{
		CallID:          testCallID,
		Scope:           testScope,
		FromUserID:      remoteUser,
		FromDisplayName: "Bob",
		ToUserID:        localUser,
	}))

	err := engine.AcceptCall(context.Background(), false)
	assert.Nil(t, err)

	assert.Equal(t, StateInCall, engine.State())
	assert.Equal(t, 1, sender.countMethod(rpc.AcceptCallMethod))
	assert.Equal(t, 1, sender.countMethod(rpc.JoinCallMethod))

	// The roster produced one peer, never one for ourselves.
	participants := engine.Participants()
	require.Len(t, participants, 1)
	assert.Equal(t, remoteUser, participants[0].UserID)
	assert.Equal(t, "Bob", participants[0].DisplayName)
	mapKeySetsMatch(t, engine)
}

func TestAcceptCallWithoutInvite(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	err := engine.AcceptCall(context.Background(), false)
	assert.ErrorIs(t, err, ErrNoIncomingCall)
}

func TestDeclineCall(t *testing.T) {
	engine, _, sender, _ := newTestEngine(t)

	require.Nil(t, engine.HandleInvite(rpc.InviteParams{
		CallID:     testCallID,
		Scope:      testScope,
		FromUserID: remoteUser,
		ToUserID:   localUser,
	}))

	assert.Nil(t, engine.DeclineCall())
	assert.Equal(t, StateIdle, engine.State())
	assert.Equal(t, 1, sender.countMethod(rpc.DeclineCallMethod))
}

func TestLeaveCallIsIdempotent(t *testing.T) {
	engine, _, sender, sessions := newTestEngine(t)

	assert.Nil(t, engine.StartCall(context.Background(), testScope, false))

	assert.Nil(t, engine.LeaveCall())
	assert.Equal(t, StateIdle, engine.State())

	assert.Nil(t, engine.LeaveCall())
	assert.Nil(t, engine.LeaveCall())

	assert.Equal(t, 1, sender.countMethod(rpc.LeaveCallMethod))
	assert.Equal(t, 1, sessions.leaveCount())
}

func TestTeardownReleasesEverything(t *testing.T) {
	engine, devices, _, sessions := newTestEngine(t)
	sessions.roster = []core.ParticipantInfo{{UserID: remoteUser, DisplayName: "Bob"}}

	require.Nil(t, engine.HandleInvite(rpc.InviteParams{
		CallID:     testCallID,
		Scope:      testScope,
		FromUserID: remoteUser,
		ToUserID:   localUser,
	}))
	require.Nil(t, engine.AcceptCall(context.Background(), true))
	require.Len(t, engine.Participants(), 1)

	engine.lock.Lock()
	link := engine.links[remoteUser]
	engine.lock.Unlock()
	require.NotNil(t, link)

	assert.Nil(t, engine.LeaveCall())

	assert.Equal(t, StateIdle, engine.State())
	assert.Nil(t, engine.Session())
	assert.Empty(t, engine.Participants())
	mapKeySetsMatch(t, engine)

	assert.True(t, link.Closed())
	assert.True(t, devices.lastMic().Stopped())
	assert.True(t, devices.lastCamera().Stopped())
	assert.Equal(t, core.MediaState{}, engine.LocalMediaState())
}

func TestStateChangePassesThroughEnded(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	var mu sync.Mutex
	var seen []State
	engine.SetOnStateChange(func(s State) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	require.Nil(t, engine.StartCall(context.Background(), testScope, false))
	require.Nil(t, engine.LeaveCall())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []State{StateRingingOutgoing, StateInCall, StateEnded, StateIdle}, seen)
}

func TestHandleParticipantJoinedAndLeft(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	require.Nil(t, engine.StartCall(context.Background(), testScope, false))

	err := engine.HandleParticipantJoined(rpc.ParticipantJoinedParams{
		CallID:      testCallID,
		UserID:      remoteUser,
		DisplayName: "Bob",
	})
	assert.Nil(t, err)
	require.Len(t, engine.Participants(), 1)
	mapKeySetsMatch(t, engine)

	// Duplicate join only refreshes the display name.
	err = engine.HandleParticipantJoined(rpc.ParticipantJoinedParams{
		CallID:      testCallID,
		UserID:      remoteUser,
		DisplayName: "Bobby",
	})
	assert.Nil(t, err)
	require.Len(t, engine.Participants(), 1)
	assert.Equal(t, "Bobby", engine.Participants()[0].DisplayName)

	// Our own announcement echoed back must not create a self-peer.
	err = engine.HandleParticipantJoined(rpc.ParticipantJoinedParams{
		CallID: testCallID,
		UserID: localUser,
	})
	assert.Nil(t, err)
	assert.Len(t, engine.Participants(), 1)

	engine.lock.Lock()
	link := engine.links[remoteUser]
	engine.lock.Unlock()
	require.NotNil(t, link)

	err = engine.HandleParticipantLeft(rpc.ParticipantLeftParams{
		CallID: testCallID,
		UserID: remoteUser,
	})
	assert.Nil(t, err)
	assert.Empty(t, engine.Participants())
	assert.True(t, link.Closed())
	mapKeySetsMatch(t, engine)
}

func TestHandleParticipantLeftForOtherCallIgnored(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	require.Nil(t, engine.StartCall(context.Background(), testScope, false))
	require.Nil(t, engine.HandleParticipantJoined(rpc.ParticipantJoinedParams{
		CallID:      testCallID,
		UserID:      remoteUser,
		DisplayName: "Bob",
	}))
	require.Len(t, engine.Participants(), 1)

	// A stale announcement from an earlier call names the same user.
	err := engine.HandleParticipantLeft(rpc.ParticipantLeftParams{
		CallID: "9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d",
		UserID: remoteUser,
	})
	assert.Nil(t, err)
	assert.Len(t, engine.Participants(), 1)
	mapKeySetsMatch(t, engine)
}

func TestHandleOfferWhileIdleJoinsCall(t *testing.T) {
	engine, _, sender, _ := newTestEngine(t)

	err := engine.HandleOffer(rpc.SDPParams{
		SessionDescription: remoteTestOffer(t),
		CallID:             testCallID,
		FromUserID:         remoteUser,
		ToUserID:           localUser,
	})
	assert.Nil(t, err)

	assert.Equal(t, StateInCall, engine.State())
	require.Len(t, engine.Participants(), 1)
	assert.Equal(t, remoteUser, engine.Participants()[0].UserID)
	mapKeySetsMatch(t, engine)

	assert.Equal(t, 1, sender.countMethod(rpc.SDPAnswerMethod))
	answer, ok := sender.lastOfMethod(rpc.SDPAnswerMethod).(*rpc.SDPRpc)
	require.True(t, ok)
	assert.Equal(t, remoteUser, answer.Params.ToUserID)
	assert.Equal(t, testCallID, answer.Params.CallID)
}

func TestHandleOfferForOtherCallIsDropped(t *testing.T) {
	engine, _, sender, _ := newTestEngine(t)

	require.Nil(t, engine.StartCall(context.Background(), testScope, false))

	err := engine.HandleOffer(rpc.SDPParams{
		SessionDescription: remoteTestOffer(t),
		CallID:             core.CallID("other-call"),
		FromUserID:         remoteUser,
		ToUserID:           localUser,
	})
	assert.Nil(t, err)
	assert.Empty(t, engine.Participants())
	assert.Equal(t, 0, sender.countMethod(rpc.SDPAnswerMethod))
}

func TestHandleAnswerFromUnknownPeerIsDropped(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	err := engine.HandleAnswer(rpc.SDPParams{
		CallID:     testCallID,
		FromUserID: remoteUser,
		ToUserID:   localUser,
	})
	assert.Nil(t, err)
}

func TestHandleMediaState(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	require.Nil(t, engine.StartCall(context.Background(), testScope, false))
	require.Nil(t, engine.HandleParticipantJoined(rpc.ParticipantJoinedParams{
		CallID: testCallID,
		UserID: remoteUser,
	}))

	err := engine.HandleMediaState(rpc.MediaStateParams{
		MediaState: core.MediaState{AudioEnabled: true, VideoEnabled: true},
		CallID:     testCallID,
		UserID:     remoteUser,
	})
	assert.Nil(t, err)

	participants := engine.Participants()
	require.Len(t, participants, 1)
	assert.True(t, participants[0].Media.AudioEnabled)
	assert.True(t, participants[0].Media.VideoEnabled)
}

func TestHandleHangupTearsDown(t *testing.T) {
	engine, _, _, sessions := newTestEngine(t)

	require.Nil(t, engine.StartCall(context.Background(), testScope, false))

	err := engine.HandleHangup(rpc.CallParams{CallID: testCallID})
	assert.Nil(t, err)

	assert.Equal(t, StateIdle, engine.State())
	// A remote hangup must not call back into the session service; the call
	// is already finished there.
	assert.Equal(t, 0, sessions.leaveCount())
}

func TestToggleAudioFlipsTrackInPlace(t *testing.T) {
	engine, devices, sender, _ := newTestEngine(t)

	require.Nil(t, engine.StartCall(context.Background(), testScope, false))
	mic := devices.lastMic()
	require.True(t, mic.Enabled())

	assert.Nil(t, engine.ToggleAudio())
	assert.False(t, mic.Enabled())
	assert.False(t, engine.LocalMediaState().AudioEnabled)

	assert.Nil(t, engine.ToggleAudio())
	assert.True(t, mic.Enabled())
	assert.True(t, engine.LocalMediaState().AudioEnabled)

	// Initial broadcast plus one per toggle.
	assert.Equal(t, 3, sender.countMethod(rpc.MediaStateMethod))
}

func TestToggleVideoAddsAndRemovesSenders(t *testing.T) {
	engine, devices, _, sessions := newTestEngine(t)
	sessions.roster = []core.ParticipantInfo{{UserID: remoteUser, DisplayName: "Bob"}}

	require.Nil(t, engine.HandleInvite(rpc.InviteParams{
		CallID:     testCallID,
		Scope:      testScope,
		FromUserID: remoteUser,
		ToUserID:   localUser,
	}))
	require.Nil(t, engine.AcceptCall(context.Background(), false))

	engine.lock.Lock()
	link := engine.links[remoteUser]
	engine.lock.Unlock()
	require.NotNil(t, link)
	require.Equal(t, 1, link.SenderCount()) // mic only

	assert.Nil(t, engine.ToggleVideo(context.Background()))
	assert.True(t, engine.LocalMediaState().VideoEnabled)
	assert.Equal(t, 2, link.SenderCount())

	camera := devices.lastCamera()
	assert.Nil(t, engine.ToggleVideo(context.Background()))
	assert.False(t, engine.LocalMediaState().VideoEnabled)
	assert.Equal(t, 1, link.SenderCount())
	assert.True(t, camera.Stopped())
}

func TestScreenShareLifecycle(t *testing.T) {
	engine, devices, sender, _ := newTestEngine(t)

	require.Nil(t, engine.StartCall(context.Background(), testScope, false))

	assert.Nil(t, engine.StartScreenShare(context.Background()))
	assert.True(t, engine.LocalMediaState().ScreenShareEnabled)
	assert.Equal(t, 1, sender.countMethod(rpc.ScreenShareStartMethod))

	// Starting again while sharing is a no-op.
	assert.Nil(t, engine.StartScreenShare(context.Background()))
	assert.Equal(t, 1, sender.countMethod(rpc.ScreenShareStartMethod))

	screen := devices.lastScreen()
	assert.Nil(t, engine.StopScreenShare())
	assert.False(t, engine.LocalMediaState().ScreenShareEnabled)
	assert.True(t, screen.Stopped())
	assert.Equal(t, 1, sender.countMethod(rpc.ScreenShareStopMethod))

	// Stopping again stays silent.
	assert.Nil(t, engine.StopScreenShare())
	assert.Equal(t, 1, sender.countMethod(rpc.ScreenShareStopMethod))
}

func TestScreenShareEndsWithCapture(t *testing.T) {
	engine, devices, sender, _ := newTestEngine(t)

	require.Nil(t, engine.StartCall(context.Background(), testScope, false))
	require.Nil(t, engine.StartScreenShare(context.Background()))

	// The user hits the OS-level stop control; the capture ends on its own.
	devices.lastScreen().fireEnded()

	deadline := time.After(time.Second)
	for engine.LocalMediaState().ScreenShareEnabled {
		select {
		case <-deadline:
			t.Fatal("screen share did not stop after the capture ended")
		case <-time.After(10 * time.Millisecond):
		}
	}
	assert.Equal(t, 1, sender.countMethod(rpc.ScreenShareStopMethod))
}

func TestHandleScreenShareEvents(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)

	require.Nil(t, engine.StartCall(context.Background(), testScope, false))
	require.Nil(t, engine.HandleParticipantJoined(rpc.ParticipantJoinedParams{
		CallID: testCallID,
		UserID: remoteUser,
	}))

	assert.Nil(t, engine.HandleScreenShareStart(rpc.ScreenShareParams{CallID: testCallID, UserID: remoteUser}))
	assert.True(t, engine.Participants()[0].Media.ScreenShareEnabled)

	assert.Nil(t, engine.HandleScreenShareStop(rpc.ScreenShareParams{CallID: testCallID, UserID: remoteUser}))
	assert.False(t, engine.Participants()[0].Media.ScreenShareEnabled)
	assert.Nil(t, engine.Participants()[0].ScreenStream)
}
