package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrRateLimit       = "E_RATE_LIMIT"
	ErrSessionBusy     = "E_SESSION_BUSY"
	ErrSessionClosed   = "E_SESSION_CLOSED"

	// Command layer.
	ErrUnknownCommand = "E_UNKNOWN_COMMAND"
	ErrBadPayload     = "E_BAD_PAYLOAD"
	ErrRejected       = "E_REJECTED"
	ErrInternal       = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrRateLimit:       {},
	ErrSessionBusy:     {},
	ErrSessionClosed:   {},
	ErrUnknownCommand:  {},
	ErrBadPayload:      {},
	ErrRejected:        {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
