// Package bt connects to a Bluetooth LE heart rate strap and streams its
// readings to the session engine.
package bt

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/lowaak/guided-trainer/internal/go_func_utils"
	"github.com/lowaak/guided-trainer/internal/trainer"
)

var (
	heartRateServiceUUID     = bluetooth.New16BitUUID(0x180D)
	heartRateMeasurementUUID = bluetooth.New16BitUUID(0x2A37)
)

const (
	defaultScanTimeout = 20 * time.Second
	preferredSettle    = 5 * time.Second
	selectorPoll       = 500 * time.Millisecond
)

type HeartRateMonitorConfig struct {
	// Address forces a device; empty falls back to the remembered one
	Address     string
	ScanTimeout time.Duration
}

// HeartRateMonitor implements trainer.HeartRateSource over the standard
// Heart Rate Service. One watch at a time.
type HeartRateMonitor struct {
	adapter    *bluetooth.Adapter
	prefs      *DevicePreferences
	config     HeartRateMonitorConfig
	logger     *log.Logger
	enableOnce sync.Once
	enableErr  error

	mu            sync.Mutex
	watching      bool
	cancel        context.CancelFunc
	connectedAddr string
	lost          chan struct{}
	scanAddrs     map[string]bluetooth.Address

	wg sync.WaitGroup
}

func NewHeartRateMonitor(adapter *bluetooth.Adapter, prefs *DevicePreferences, config HeartRateMonitorConfig, logger *log.Logger) *HeartRateMonitor {
	if adapter == nil {
		panic("HeartRateMonitor: adapter cannot be nil")
	}
	if prefs == nil {
		panic("HeartRateMonitor: preferences cannot be nil")
	}
	if logger == nil {
		panic("HeartRateMonitor: logger cannot be nil")
	}
	if config.ScanTimeout <= 0 {
		config.ScanTimeout = defaultScanTimeout
	}
	return &HeartRateMonitor{
		adapter: adapter,
		prefs:   prefs,
		config:  config,
		logger:  logger,
	}
}

// Watch scans, connects and subscribes in the background. Failures,
// including a scan that finds nothing, arrive through onError.
func (m *HeartRateMonitor) Watch(onSample func(bpm int), onError func(error)) (func(), error) {
	if onSample == nil || onError == nil {
		return nil, errors.New("HeartRateMonitor: watch callbacks cannot be nil")
	}

	m.mu.Lock()
	if m.watching {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: already watching", trainer.ErrHeartRateUnavailable)
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.watching = true
	m.cancel = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go_func_utils.SafeGo(m.logger, "HeartRateMonitor", func() {
		defer m.wg.Done()
		defer func() {
			m.mu.Lock()
			m.watching = false
			m.mu.Unlock()
		}()
		m.run(ctx, onSample, onError)
	})

	return cancel, nil
}

// Shutdown ends any watch and waits for the strap to disconnect
func (m *HeartRateMonitor) Shutdown() {
	m.logger.Printf("HeartRateMonitor: Shutting down")
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
	m.logger.Printf("HeartRateMonitor: Shutdown complete")
}

func (m *HeartRateMonitor) enable() error {
	m.enableOnce.Do(func() {
		m.adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
			if connected {
				return
			}
			addressStr := device.Address.String()
			m.mu.Lock()
			defer m.mu.Unlock()
			if addressStr == m.connectedAddr && m.lost != nil {
				m.logger.Printf("HeartRateMonitor: Device disconnected: %s", addressStr)
				close(m.lost)
				m.lost = nil
			}
		})
		m.enableErr = m.adapter.Enable()
	})
	return m.enableErr
}

func (m *HeartRateMonitor) run(ctx context.Context, onSample func(int), onError func(error)) {
	if err := m.enable(); err != nil {
		onError(fmt.Errorf("%w: enabling adapter: %v", trainer.ErrHeartRateUnavailable, err))
		return
	}

	picked, err := m.scan(ctx)
	if err != nil {
		if ctx.Err() == nil {
			onError(err)
		}
		return
	}

	m.logger.Printf("HeartRateMonitor: Connecting to %s (%s)", picked.Name, picked.Address)
	m.mu.Lock()
	address := m.scanAddrs[picked.Address]
	m.mu.Unlock()
	device, err := m.adapter.Connect(address, bluetooth.ConnectionParams{})
	if err != nil {
		onError(fmt.Errorf("%w: connecting to %s: %v", trainer.ErrHeartRateUnavailable, picked.Address, err))
		return
	}

	lost := make(chan struct{})
	m.mu.Lock()
	m.connectedAddr = picked.Address
	m.lost = lost
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.connectedAddr = ""
		m.lost = nil
		m.mu.Unlock()
		if err := device.Disconnect(); err != nil {
			m.logger.Printf("HeartRateMonitor: Error disconnecting from %s: %v", picked.Address, err)
		}
	}()

	if err := m.subscribe(ctx, device, onSample); err != nil {
		onError(err)
		return
	}
	m.prefs.SetPreferred(heartRateDeviceType, picked.Address)
	m.logger.Printf("HeartRateMonitor: Streaming heart rate from %s", picked.Address)

	select {
	case <-ctx.Done():
		m.logger.Printf("HeartRateMonitor: Watch stopped")
	case <-lost:
		onError(fmt.Errorf("%w: %s disconnected", trainer.ErrHeartRateUnavailable, picked.Address))
	}
}

// scan waits for a strap advertising the Heart Rate Service
func (m *HeartRateMonitor) scan(ctx context.Context) (candidate, error) {
	preferred := m.config.Address
	if preferred == "" {
		preferred = m.prefs.Preferred(heartRateDeviceType)
	}
	sel := newDeviceSelector(preferred, preferredSettle)
	var selMu sync.Mutex

	m.mu.Lock()
	m.scanAddrs = make(map[string]bluetooth.Address)
	m.mu.Unlock()

	found := make(chan candidate, 1)
	pick := func(c candidate) {
		select {
		case found <- c:
		default:
		}
	}

	scanDone := make(chan error, 1)
	m.logger.Printf("HeartRateMonitor: Scanning for heart rate straps (preferred %q)", preferred)
	go_func_utils.SafeGo(m.logger, "HeartRateMonitor scan", func() {
		scanDone <- m.adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			if !result.HasServiceUUID(heartRateServiceUUID) {
				return
			}
			c := candidate{Address: result.Address.String(), Name: result.LocalName(), RSSI: result.RSSI}
			if c.Name == "" {
				c.Name = "Unknown"
			}
			m.mu.Lock()
			if _, seen := m.scanAddrs[c.Address]; !seen {
				m.logger.Printf("HeartRateMonitor: Found %s (%s) [RSSI: %d]", c.Name, c.Address, c.RSSI)
			}
			m.scanAddrs[c.Address] = result.Address
			m.mu.Unlock()

			selMu.Lock()
			chosen, ok := sel.offer(c, time.Now())
			selMu.Unlock()
			if ok {
				pick(chosen)
			}
		})
	})

	stopScan := func() {
		if err := m.adapter.StopScan(); err != nil {
			m.logger.Printf("HeartRateMonitor: Error stopping scan: %v", err)
		}
		<-scanDone
	}

	timeout := time.NewTimer(m.config.ScanTimeout)
	defer timeout.Stop()
	poll := time.NewTicker(selectorPoll)
	defer poll.Stop()

	for {
		select {
		case c := <-found:
			stopScan()
			return c, nil
		case <-poll.C:
			selMu.Lock()
			chosen, ok := sel.due(time.Now())
			selMu.Unlock()
			if ok {
				pick(chosen)
			}
		case err := <-scanDone:
			return candidate{}, fmt.Errorf("%w: scan failed: %v", trainer.ErrHeartRateUnavailable, err)
		case <-timeout.C:
			stopScan()
			return candidate{}, fmt.Errorf("%w: no heart rate strap found within %v", trainer.ErrHeartRateUnavailable, m.config.ScanTimeout)
		case <-ctx.Done():
			stopScan()
			return candidate{}, ctx.Err()
		}
	}
}

func (m *HeartRateMonitor) subscribe(ctx context.Context, device bluetooth.Device, onSample func(int)) error {
	services, err := device.DiscoverServices([]bluetooth.UUID{heartRateServiceUUID})
	if err != nil || len(services) == 0 {
		return fmt.Errorf("%w: heart rate service not found: %v", trainer.ErrHeartRateUnavailable, err)
	}
	chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{heartRateMeasurementUUID})
	if err != nil || len(chars) == 0 {
		return fmt.Errorf("%w: heart rate measurement not found: %v", trainer.ErrHeartRateUnavailable, err)
	}

	err = chars[0].EnableNotifications(func(buf []byte) {
		if ctx.Err() != nil {
			return
		}
		bpm, err := ParseHeartRateMeasurement(buf)
		if err != nil {
			m.logger.Printf("HeartRateMonitor: Dropping notification: %v", err)
			return
		}
		onSample(bpm)
	})
	if err != nil {
		return fmt.Errorf("%w: enabling notifications: %v", trainer.ErrHeartRateUnavailable, err)
	}
	return nil
}
