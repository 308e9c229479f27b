package call

import (
	"context"

	"github.com/pion/webrtc/v3"
)

// LocalTrack is a local media source attached to peer links. Disabling
// keeps the sender in place and silences the source, so no renegotiation
// happens on mute. Stop releases the device for good.
type LocalTrack interface {
	webrtc.TrackLocal

	SetEnabled(enabled bool)
	Enabled() bool

	// Stop releases the underlying capture. Safe to call twice.
	Stop() error

	// OnEnded registers a hook fired when the source ends on its own,
	// e.g. the OS-level "stop sharing" control of a display capture.
	OnEnded(fn func())
}

// MediaDevices acquires local capture tracks. Implementations wrap real
// devices or synthetic sources; the engine only cares about the interface.
type MediaDevices interface {
	OpenMicTrack(ctx context.Context, trackID, streamID string) (LocalTrack, error)
	OpenCameraTrack(ctx context.Context, trackID, streamID string) (LocalTrack, error)
	OpenDisplayTrack(ctx context.Context, trackID, streamID string) (LocalTrack, error)
}
