package call

// State is the lifecycle of the local client's call. Exactly one value per
// engine; only the engine's transition methods mutate it.
type State string

const (
	StateIdle            State = "idle"
	StateRingingOutgoing State = "ringing_outgoing"
	StateRingingIncoming State = "ringing_incoming"
	StateConnecting      State = "connecting"
	StateInCall          State = "in_call"
	StateEnded           State = "ended"
)

// Active reports whether the engine currently holds call resources. Ended is
// transient: teardown passes through it on the way back to idle.
func (s State) Active() bool {
	return s != StateIdle && s != StateEnded
}
