package call

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/bcroc/teamchat/internal/eventbus/rpc"
	"github.com/bcroc/teamchat/internal/rtc"
)

// ToggleAudio flips the microphone in place. The track stays attached to
// every link and keeps its sender slot, so no renegotiation happens; the
// track simply goes silent.
func (e *Engine) ToggleAudio() error {
	e.lock.Lock()
	if e.micTrack == nil {
		e.lock.Unlock()
		return ErrNoActiveCall
	}
	track := e.micTrack
	enabled := !e.media.AudioEnabled
	e.media.AudioEnabled = enabled
	e.lock.Unlock()

	track.SetEnabled(enabled)
	e.broadcastMediaState()

	return nil
}

// ToggleVideo turns the camera on or off. Unlike audio this adds or removes
// the camera sender on every link, so each toggle renegotiates; the camera
// device itself is opened lazily on the first enable and released on
// disable.
func (e *Engine) ToggleVideo(ctx context.Context) error {
	e.lock.Lock()
	if !e.state.Active() {
		e.lock.Unlock()
		return ErrNoActiveCall
	}

	if e.cameraTrack != nil {
		track := e.cameraTrack
		e.cameraTrack = nil
		e.media.VideoEnabled = false
		links := e.snapshotLinksLocked()
		e.lock.Unlock()

		for _, link := range links {
			if err := link.RemoveLocalTrack(track); err != nil {
				log.Error().Err(err).Str("service", "call").Str("remote", string(link.Remote())).Msg("remove camera track")
			}
		}
		if err := track.Stop(); err != nil {
			log.Error().Err(err).Str("service", "call").Msg("stop camera track")
		}
		e.broadcastMediaState()
		return nil
	}

	gen := e.gen
	e.lock.Unlock()

	track, err := e.opts.Devices.OpenCameraTrack(ctx,
		"camera-"+string(e.opts.LocalUserID),
		"camera-"+string(e.opts.LocalUserID))
	if err != nil {
		return err
	}

	e.lock.Lock()
	if !e.genValidLocked(gen) {
		e.lock.Unlock()
		_ = track.Stop()
		return ErrCallSuperseded
	}
	e.cameraTrack = track
	e.media.VideoEnabled = true
	links := e.snapshotLinksLocked()
	e.lock.Unlock()

	for _, link := range links {
		if err := link.AddLocalTrack(track); err != nil {
			log.Error().Err(err).Str("service", "call").Str("remote", string(link.Remote())).Msg("add camera track")
		}
	}
	e.broadcastMediaState()

	return nil
}

// StartScreenShare opens a display capture track and fans it out to every
// link on its own stream. When the capture ends outside our control, the
// user closing the shared window for instance, the share shuts down the
// same way an explicit stop would.
func (e *Engine) StartScreenShare(ctx context.Context) error {
	e.lock.Lock()
	if !e.state.Active() {
		e.lock.Unlock()
		return ErrNoActiveCall
	}
	if e.screenTrack != nil {
		e.lock.Unlock()
		return nil
	}
	gen := e.gen
	callID := e.currentCallIDLocked()
	e.lock.Unlock()

	track, err := e.opts.Devices.OpenDisplayTrack(ctx,
		"screen-"+string(e.opts.LocalUserID),
		"screen-"+string(e.opts.LocalUserID))
	if err != nil {
		return err
	}

	e.lock.Lock()
	if !e.genValidLocked(gen) {
		e.lock.Unlock()
		_ = track.Stop()
		return ErrCallSuperseded
	}
	e.screenTrack = track
	e.media.ScreenShareEnabled = true
	links := e.snapshotLinksLocked()
	e.lock.Unlock()

	track.OnEnded(func() {
		if err := e.StopScreenShare(); err != nil {
			log.Error().Err(err).Str("service", "call").Msg("stop ended screen share")
		}
	})

	for _, link := range links {
		if err := link.AddLocalTrack(track); err != nil {
			log.Error().Err(err).Str("service", "call").Str("remote", string(link.Remote())).Msg("add screen track")
		}
	}

	start := rpc.NewScreenShareStartRpc(rpc.ScreenShareParams{CallID: callID, UserID: e.opts.LocalUserID})
	if err := e.opts.Signal.Send(start); err != nil {
		log.Error().Err(err).Str("service", "call").Msg("announce screen share")
	}
	e.broadcastMediaState()

	return nil
}

// StopScreenShare removes the display track from every link and releases
// the capture. Safe to call when no share is running.
func (e *Engine) StopScreenShare() error {
	e.lock.Lock()
	if e.screenTrack == nil {
		e.lock.Unlock()
		return nil
	}
	track := e.screenTrack
	e.screenTrack = nil
	e.media.ScreenShareEnabled = false
	callID := e.currentCallIDLocked()
	links := e.snapshotLinksLocked()
	e.lock.Unlock()

	for _, link := range links {
		if err := link.RemoveLocalTrack(track); err != nil {
			log.Error().Err(err).Str("service", "call").Str("remote", string(link.Remote())).Msg("remove screen track")
		}
	}
	if err := track.Stop(); err != nil {
		log.Error().Err(err).Str("service", "call").Msg("stop screen track")
	}

	if callID != "" {
		stop := rpc.NewScreenShareStopRpc(rpc.ScreenShareParams{CallID: callID, UserID: e.opts.LocalUserID})
		if err := e.opts.Signal.Send(stop); err != nil {
			log.Error().Err(err).Str("service", "call").Msg("announce screen share stop")
		}
	}
	e.broadcastMediaState()

	return nil
}

func (e *Engine) snapshotLinksLocked() []*rtc.PeerLink {
	links := make([]*rtc.PeerLink, 0, len(e.links))
	for _, link := range e.links {
		links = append(links, link)
	}
	return links
}
