package trainer

import "errors"

// Capability errors. The engine never returns these, it degrades and logs.
var (
	ErrLocationUnavailable      = errors.New("location capability unavailable")
	ErrLocationPermissionDenied = errors.New("location permission denied")
	ErrPositionUnavailable      = errors.New("position unavailable")
	ErrLocationTimeout          = errors.New("location fix timed out")
	ErrSpeechUnavailable        = errors.New("speech capability unavailable")
	ErrHeartRateUnavailable     = errors.New("heart rate capability unavailable")
)

// locationErrorReason maps a provider error onto the status reason shown to the user
func locationErrorReason(err error) string {
	switch {
	case errors.Is(err, ErrLocationPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrPositionUnavailable):
		return "position_unavailable"
	case errors.Is(err, ErrLocationTimeout):
		return "timeout"
	default:
		return "unavailable"
	}
}
