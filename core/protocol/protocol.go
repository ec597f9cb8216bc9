package protocol

// Protocol identifies the kind of request sent to the model API.
type Protocol string

const (
	// Chat is a plain completion; it is always streamed.
	Chat Protocol = "chat"
	// Tools is a completion that declares callable functions.
	Tools Protocol = "tools"
)

// IsValid reports whether p names a supported protocol.
func IsValid(p string) bool {
	switch Protocol(p) {
	case Chat, Tools:
		return true
	}
	return false
}
