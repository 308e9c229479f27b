package call

import (
	"strings"

	"github.com/pion/webrtc/v3"

	"github.com/bcroc/teamchat/internal/core"
)

// RemoteStream groups the inbound tracks that share one remote stream ID.
// The tracks belong to the transport layer; this is a view, replaced
// wholesale whenever a track for a different stream ID arrives.
type RemoteStream struct {
	ID    string
	Audio *webrtc.TrackRemote
	Video *webrtc.TrackRemote
}

// Participant is one remote party of the current call.
type Participant struct {
	UserID      core.UserID
	DisplayName string

	Media core.MediaState

	Stream       *RemoteStream
	ScreenStream *RemoteStream

	ConnectionState webrtc.PeerConnectionState
	IsSpeaking      bool
}

// isScreenTrack tells screen capture apart from camera/mic by the stream
// and track identifiers the sender chose. A string heuristic, kept in this
// single place.
func isScreenTrack(track *webrtc.TrackRemote) bool {
	return strings.Contains(strings.ToLower(track.StreamID()), "screen") ||
		strings.Contains(strings.ToLower(track.ID()), "screen")
}

// attachTrack routes an inbound track into the participant's camera or
// screen stream view.
func (p *Participant) attachTrack(track *webrtc.TrackRemote) {
	target := &p.Stream
	if isScreenTrack(track) {
		target = &p.ScreenStream
	}

	if *target == nil || (*target).ID != track.StreamID() {
		*target = &RemoteStream{ID: track.StreamID()}
	}

	switch track.Kind() {
	case webrtc.RTPCodecTypeAudio:
		(*target).Audio = track
	case webrtc.RTPCodecTypeVideo:
		(*target).Video = track
	}
}
