package rtc

import (
	"sync"
	"testing"

	"github.com/pion/webrtc/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcroc/teamchat/internal/config"
	"github.com/bcroc/teamchat/internal/core"
)

type recordingSignal struct {
	mu         sync.Mutex
	Offers     []webrtc.SessionDescription
	Answers    []webrtc.SessionDescription
	Candidates []webrtc.ICECandidateInit
}

func (s *recordingSignal) SendOffer(to core.UserID, sdp webrtc.SessionDescription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Offers = append(s.Offers, sdp)
	return nil
}

func (s *recordingSignal) SendAnswer(to core.UserID, sdp webrtc.SessionDescription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Answers = append(s.Answers, sdp)
	return nil
}

func (s *recordingSignal) SendICECandidate(to core.UserID, candidate webrtc.ICECandidateInit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Candidates = append(s.Candidates, candidate)
	return nil
}

func (s *recordingSignal) answerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Answers)
}

type nopHandler struct{}

func (nopHandler) HandleRemoteTrack(core.UserID, *webrtc.TrackRemote, *webrtc.RTPReceiver) {}
func (nopHandler) HandleConnectionState(core.UserID, webrtc.PeerConnectionState)           {}

func newTestLink(t *testing.T, local, remote core.UserID, signal SignalSender) *PeerLink {
	t.Helper()

	conf, err := config.NewWebRTCConfig(config.NewConfig())
	require.Nil(t, err)

	link, err := NewPeerLink(LinkParams{
		LocalUserID:  local,
		RemoteUserID: remote,
		Config:       conf,
		Signal:       signal,
		Handler:      nopHandler{},
	})
	require.Nil(t, err)
	t.Cleanup(func() { link.Close() })

	return link
}

// remoteOffer builds a valid SDP offer the way a real peer would.
func remoteOffer(t *testing.T) webrtc.SessionDescription {
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

func TestPoliteRoleIsDeterministic(t *testing.T) {
	pairs := []struct {
		a, b core.UserID
	}{
		{"alice", "bob"},
		{"bob", "alice"},
		{"zed", "anna"},
		{"u-1", "u-2"},
		{"0c4038d6", "ffa1b2c3"},
	}

	for _, pair := range pairs {
		// Both sides must agree: exactly one of them is polite.
		assert.NotEqual(t, core.Polite(pair.a, pair.b), core.Polite(pair.b, pair.a))
	}
}

func TestLinkRolesMatchUserIDs(t *testing.T) {
	signal := &recordingSignal{}

	impolite := newTestLink(t, "alice", "bob", signal)
	polite := newTestLink(t, "bob", "alice", signal)

	assert.False(t, impolite.Polite())
	assert.True(t, polite.Polite())
}

func TestHandleOfferAnswersWhenStable(t *testing.T) {
	signal := &recordingSignal{}
	link := newTestLink(t, "alice", "bob", signal)

	err := link.HandleOffer(remoteOffer(t))
	assert.Nil(t, err)

	assert.Equal(t, 1, signal.answerCount())
	assert.Equal(t, webrtc.SDPTypeAnswer, signal.Answers[0].Type)
	assert.Equal(t, webrtc.SignalingStateStable, link.pc.SignalingState())
}

func TestImpoliteSideDropsCollidingOffer(t *testing.T) {
	signal := &recordingSignal{}
	link := newTestLink(t, "alice", "bob", signal)
	require.False(t, link.Polite())

	// Put our own offer on the wire first, then collide.
	link.negotiate(false)
	require.Equal(t, webrtc.SignalingStateHaveLocalOffer, link.pc.SignalingState())

	err := link.HandleOffer(remoteOffer(t))
	assert.Nil(t, err)

	// Dropped entirely: no answer, our offer still pending.
	assert.Equal(t, 0, signal.answerCount())
	assert.Equal(t, webrtc.SignalingStateHaveLocalOffer, link.pc.SignalingState())
	assert.True(t, link.ignoreOffer)
}

func TestPoliteSideRollsBackAndAnswers(t *testing.T) {
	signal := &recordingSignal{}
	link := newTestLink(t, "bob", "alice", signal)
	require.True(t, link.Polite())

	link.negotiate(false)
	require.Equal(t, webrtc.SignalingStateHaveLocalOffer, link.pc.SignalingState())

	err := link.HandleOffer(remoteOffer(t))
	assert.Nil(t, err)

	// Abandoned our offer, accepted theirs, answered.
	assert.Equal(t, 1, signal.answerCount())
	assert.Equal(t, webrtc.SignalingStateStable, link.pc.SignalingState())
	assert.False(t, link.ignoreOffer)
}

func TestConcurrentNegotiationSerializes(t *testing.T) {
	signal := &recordingSignal{}
	link := newTestLink(t, "bob", "alice", signal)
	require.True(t, link.Polite())

	// Renegotiation from pion's ops goroutine can race an incoming offer.
	// The polite side must either answer from stable or roll back and
	// answer, never fail mid-exchange.
	for i := 0; i < 10; i++ {
		offer := remoteOffer(t)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			link.negotiate(false)
		}()

		err := link.HandleOffer(offer)
		wg.Wait()
		require.Nil(t, err)
	}

	assert.False(t, link.ignoreOffer)
}

func TestCandidatesBufferedUntilRemoteDescription(t *testing.T) {
	signal := &recordingSignal{}
	link := newTestLink(t, "alice", "bob", signal)

	candidate := webrtc.ICECandidateInit{Candidate: "candidate:1 1 UDP 2122252543 127.0.0.1 40000 typ host"}
	assert.Nil(t, link.AddICECandidate(candidate))

	link.lock.Lock()
	buffered := len(link.pendingCandidates)
	link.lock.Unlock()
	assert.Equal(t, 1, buffered)

	assert.Nil(t, link.HandleOffer(remoteOffer(t)))

	link.lock.Lock()
	buffered = len(link.pendingCandidates)
	link.lock.Unlock()
	assert.Equal(t, 0, buffered)
}

func TestAddRemoveLocalTrack(t *testing.T) {
	signal := &recordingSignal{}
	link := newTestLink(t, "alice", "bob", signal)

	track, err := webrtc.NewTrackLocalStaticSample(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus},
		"mic-alice", "camera-alice",
	)
	require.Nil(t, err)

	assert.Nil(t, link.AddLocalTrack(track))
	assert.Equal(t, 1, link.SenderCount())

	assert.Nil(t, link.RemoveLocalTrack(track))
	assert.Equal(t, 0, link.SenderCount())

	// Removing a track that is not attached is a no-op.
	assert.Nil(t, link.RemoveLocalTrack(track))
	assert.Equal(t, 0, link.SenderCount())
}

func TestCloseIsIdempotent(t *testing.T) {
	signal := &recordingSignal{}
	link := newTestLink(t, "alice", "bob", signal)

	assert.Nil(t, link.Close())
	assert.True(t, link.Closed())
	assert.Nil(t, link.Close())

	// A closed link ignores further signaling instead of erroring.
	assert.Nil(t, link.HandleOffer(remoteOffer(t)))
	assert.Nil(t, link.AddICECandidate(webrtc.ICECandidateInit{Candidate: "candidate:1 1 UDP 1 127.0.0.1 1 typ host"}))
}
