package bt

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
)

const heartRateDeviceType = "heart_rate"

type devicePreferencesData struct {
	PreferredDeviceByType map[string]string `json:"preferred_device_by_type"`
}

// DevicePreferences remembers the last device used per device type
type DevicePreferences struct {
	filePath string
	data     devicePreferencesData
	logger   *log.Logger
}

// NewDevicePreferences loads path; an empty path keeps preferences in memory only
func NewDevicePreferences(path string, logger *log.Logger) *DevicePreferences {
	if logger == nil {
		panic("DevicePreferences: logger cannot be nil")
	}
	p := &DevicePreferences{
		filePath: path,
		logger:   logger,
	}
	p.load()
	return p
}

// DefaultPreferencesPath is ~/.guided-session/devices.json
func DefaultPreferencesPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".guided-session", "devices.json")
}

func (p *DevicePreferences) Preferred(deviceType string) string {
	addr := p.data.PreferredDeviceByType[deviceType]
	p.logger.Printf("DevicePreferences: Preferred %s -> %q", deviceType, addr)
	return addr
}

func (p *DevicePreferences) SetPreferred(deviceType, address string) {
	if p.data.PreferredDeviceByType[deviceType] == address {
		return
	}
	p.logger.Printf("DevicePreferences: SetPreferred %s -> %q", deviceType, address)
	p.data.PreferredDeviceByType[deviceType] = address
	p.save()
}

func (p *DevicePreferences) load() {
	p.data = devicePreferencesData{
		PreferredDeviceByType: make(map[string]string),
	}
	if p.filePath == "" {
		return
	}
	raw, err := os.ReadFile(p.filePath)
	if err != nil {
		p.logger.Printf("DevicePreferences: load %s (no existing file)", p.filePath)
		return
	}
	if err := json.Unmarshal(raw, &p.data); err != nil {
		p.logger.Printf("DevicePreferences: load %s failed to parse: %v", p.filePath, err)
		p.data.PreferredDeviceByType = make(map[string]string)
		return
	}
	if p.data.PreferredDeviceByType == nil {
		p.data.PreferredDeviceByType = make(map[string]string)
	}
}

func (p *DevicePreferences) save() {
	if p.filePath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(p.filePath), 0755); err != nil {
		p.logger.Printf("DevicePreferences: save mkdir failed: %v", err)
		return
	}
	raw, err := json.MarshalIndent(p.data, "", "  ")
	if err != nil {
		p.logger.Printf("DevicePreferences: save marshal failed: %v", err)
		return
	}
	if err := os.WriteFile(p.filePath, raw, 0644); err != nil {
		p.logger.Printf("DevicePreferences: save %s failed: %v", p.filePath, err)
	}
}
