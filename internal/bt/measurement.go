package bt

import "fmt"

// ParseHeartRateMeasurement reads the beats per minute out of a Heart Rate
// Measurement notification.
// See: https://www.bluetooth.com/specifications/specs/heart-rate-service-1-0/
func ParseHeartRateMeasurement(buf []byte) (int, error) {
	if len(buf) < 2 {
		return 0, fmt.Errorf("heart rate data too short: %d bytes", len(buf))
	}

	flags := buf[0]
	// Bit 0: 0 = UINT8, 1 = UINT16
	if flags&0x01 == 0 {
		return int(buf[1]), nil
	}
	if len(buf) < 3 {
		return 0, fmt.Errorf("heart rate UINT16 data too short: %d bytes", len(buf))
	}
	return int(uint16(buf[1]) | uint16(buf[2])<<8), nil
}
