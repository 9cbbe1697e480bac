package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Gesture/session layer.
	ErrBadRequest = "E_BAD_REQUEST"
	ErrRateLimit  = "E_RATE_LIMIT"

	// Command engine.
	ErrOutOfBounds   = "E_OUT_OF_BOUNDS"
	ErrLandSloped    = "E_LAND_SLOPED"
	ErrAlreadyBuilt  = "E_ALREADY_BUILT"
	ErrAlreadyLevel  = "E_ALREADY_LEVEL"
	ErrNoTrack       = "E_NO_TRACK"
	ErrSignalPresent = "E_SIGNAL_PRESENT"
	ErrObstructed    = "E_OBSTRUCTED"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrRateLimit:       {},
	ErrOutOfBounds:     {},
	ErrLandSloped:      {},
	ErrAlreadyBuilt:    {},
	ErrAlreadyLevel:    {},
	ErrNoTrack:         {},
	ErrSignalPresent:   {},
	ErrObstructed:      {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
