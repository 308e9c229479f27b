package rtc

import (
	"time"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"
	"github.com/pion/sdp/v3"
	"github.com/pion/webrtc/v3"
	"github.com/rs/zerolog/log"
)

const (
	rtcpPLIInterval = 2 * time.Second

	// Audio levels are -dBov: 0 is loudest, 127 is silence.
	speakingLevel = 50
)

// WatchVideoTrack keeps an inbound video track flowing: drains its RTP and
// asks the publisher for a keyframe on an interval so late joiners get a
// decodable picture quickly.
func (l *PeerLink) WatchVideoTrack(track *webrtc.TrackRemote) {
	go l.pliLoop(track)
	go drainRTP(track)
}

func (l *PeerLink) pliLoop(track *webrtc.TrackRemote) {
	ticker := time.NewTicker(rtcpPLIInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			err := l.pc.WriteRTCP([]rtcp.Packet{
				&rtcp.PictureLossIndication{MediaSSRC: uint32(track.SSRC())},
			})
			if err != nil {
				log.Debug().Err(err).Str("service", "peerlink").Str("remote", string(l.remoteID)).Msg("PLI writer stopped")
				return
			}
		}
	}
}

func drainRTP(track *webrtc.TrackRemote) {
	for {
		if _, _, err := track.ReadRTP(); err != nil {
			return
		}
	}
}

// WatchAudioTrack derives voice activity from the RTP audio-level header
// extension and reports changes through onSpeaking. The reader ends when the
// track does.
func (l *PeerLink) WatchAudioTrack(track *webrtc.TrackRemote, receiver *webrtc.RTPReceiver, onSpeaking func(bool)) {
	go func() {
		defer onSpeaking(false)

		extID := audioLevelExtensionID(receiver)
		speaking := false

		for {
			pkt, _, err := track.ReadRTP()
			if err != nil {
				return
			}
			if extID == 0 {
				continue
			}

			now := isSpeaking(pkt, extID)
			if now != speaking {
				speaking = now
				onSpeaking(speaking)
			}
		}
	}()
}

func audioLevelExtensionID(receiver *webrtc.RTPReceiver) uint8 {
	for _, ext := range receiver.GetParameters().HeaderExtensions {
		if ext.URI == sdp.AudioLevelURI {
			return uint8(ext.ID)
		}
	}
	return 0
}

func isSpeaking(pkt *rtp.Packet, extID uint8) bool {
	payload := pkt.GetExtension(extID)
	if payload == nil {
		return false
	}

	level := rtp.AudioLevelExtension{}
	if err := level.Unmarshal(payload); err != nil {
		return false
	}

	return level.Voice || level.Level < speakingLevel
}
