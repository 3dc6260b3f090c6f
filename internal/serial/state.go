package serial

// State is the connection state of a Manager.
type State string

// Connection states.
const (
	StateDisconnected State = "disconnected" // Never connected or closed
	StateConnecting   State = "connecting"   // Opening or waiting to retry
	StateConnected    State = "connected"    // Port open and settled
)

// gauge maps the state onto the numeric serial state metric.
func (s State) gauge() float64 {
	switch s {
	case StateConnecting:
		return 1
	case StateConnected:
		return 2
	default:
		return 0
	}
}

// SendResult is the outcome of a Send.
type SendResult string

// Send results.
const (
	ResultSent    SendResult = "sent"    // Written to the transport
	ResultDropped SendResult = "dropped" // Not connected, nothing written
	ResultFailed  SendResult = "failed"  // Transport write error
)
