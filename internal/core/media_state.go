package core

// MediaState mirrors which local media a participant currently publishes.
// The engine broadcasts it on every change so remote mute/camera indicators
// never silently diverge from the actual tracks.
type MediaState struct {
	AudioEnabled       bool `json:"audio_enabled"`
	VideoEnabled       bool `json:"video_enabled"`
	ScreenShareEnabled bool `json:"screen_share_enabled"`
}
