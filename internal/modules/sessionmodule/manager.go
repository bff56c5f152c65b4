package sessionmodule

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/kodiview/kodiview/internal/artwork"
	"github.com/kodiview/kodiview/internal/events"
	"github.com/kodiview/kodiview/internal/kodi"
	"github.com/kodiview/kodiview/internal/mediainfo"
)

// ErrUnknownDevice is returned when a session tries to select a device id
// that is not in the configuration.
var ErrUnknownDevice = errors.New("unknown device")

// DeviceView is one configured device plus its last-known connection state.
type DeviceView struct {
	ID         int                  `json:"id"`
	Host       string               `json:"host"`
	Connection kodi.ConnectionState `json:"connection"`
}

// PlaybackView is the composed now-playing result for one session at one
// point in time.
type PlaybackView struct {
	DeviceID   int                  `json:"device_id"`
	Snapshot   mediainfo.Snapshot   `json:"snapshot"`
	Artwork    artwork.Resolved     `json:"artwork"`
	Connection kodi.ConnectionState `json:"connection_status"`
}

// ProgressView is the cheap poll result for progress-only updates.
type ProgressView struct {
	Elapsed  int  `json:"elapsed"`
	Duration int  `json:"duration"`
	Paused   bool `json:"paused"`
	Playing  bool `json:"playing"`
}

// Manager binds sessions to devices and composes playback views. Device
// selection for a given session is serialized by a per-session mutex so
// concurrent selects linearize; snapshot requests capture the session's
// device once, before any device I/O, and never mix two devices in one
// response.
type Manager struct {
	devices []kodi.DeviceConfig
	client  *kodi.Client
	status  *kodi.StatusRegistry
	store   SessionStore
	bus     events.EventBus
	logger  hclog.Logger

	mu        sync.Mutex
	selectMus map[string]*sync.Mutex

	// last observed has-media flag per device, for transition events
	playMu      sync.Mutex
	lastPlaying map[int]bool
}

// NewManager creates a session manager over the configured device list.
// The bus may be nil when event publication is not wanted (tests).
func NewManager(devices []kodi.DeviceConfig, client *kodi.Client, status *kodi.StatusRegistry, store SessionStore, bus events.EventBus, logger hclog.Logger) *Manager {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Manager{
		devices:     devices,
		client:      client,
		status:      status,
		store:       store,
		bus:         bus,
		logger:      logger.Named("session"),
		selectMus:   make(map[string]*sync.Mutex),
		lastPlaying: make(map[int]bool),
	}
}

// Devices lists the configured devices in configuration order, each with a
// copy of its connection state.
func (m *Manager) Devices() []DeviceView {
	views := make([]DeviceView, 0, len(m.devices))
	for _, cfg := range m.devices {
		views = append(views, DeviceView{
			ID:         cfg.ID,
			Host:       cfg.Host,
			Connection: m.status.State(cfg.ID),
		})
	}
	return views
}

func (m *Manager) deviceByID(id int) (kodi.DeviceConfig, bool) {
	for _, cfg := range m.devices {
		if cfg.ID == id {
			return cfg, true
		}
	}
	return kodi.DeviceConfig{}, false
}

// sessionLock returns the mutex serializing selects for one session key.
func (m *Manager) sessionLock(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.selectMus[key]
	if !ok {
		lock = &sync.Mutex{}
		m.selectMus[key] = lock
	}
	return lock
}

// resolveDevice returns the device bound to the session, falling back to
// the first configured device when the session has no binding yet. The
// fallback is persisted so later requests see a stable choice.
func (m *Manager) resolveDevice(key string) (kodi.DeviceConfig, error) {
	deviceID, found, err := m.store.Get(key)
	if err != nil {
		m.logger.Warn("session store read failed, using default device", "error", err)
		found = false
	}
	if found {
		if cfg, ok := m.deviceByID(deviceID); ok {
			return cfg, nil
		}
		// Stale binding to a device that left the configuration.
		m.logger.Warn("session bound to unknown device, rebinding", "session", key, "device_id", deviceID)
	}
	if len(m.devices) == 0 {
		return kodi.DeviceConfig{}, ErrUnknownDevice
	}
	cfg := m.devices[0]
	if err := m.store.Put(key, cfg.ID); err != nil {
		m.logger.Warn("failed to persist default device binding", "error", err)
	}
	return cfg, nil
}

// CurrentDevice returns the device the session is bound to, binding the
// default device on first sight.
func (m *Manager) CurrentDevice(key string) (DeviceView, error) {
	cfg, err := m.resolveDevice(key)
	if err != nil {
		return DeviceView{}, err
	}
	return DeviceView{ID: cfg.ID, Host: cfg.Host, Connection: m.status.State(cfg.ID)}, nil
}

// SelectDevice binds the session to the given device and probes it. The
// probe outcome is reported but a failed probe does not undo the binding;
// the caller sees the device as selected and unreachable.
func (m *Manager) SelectDevice(ctx context.Context, key string, deviceID int) (DeviceView, error) {
	cfg, ok := m.deviceByID(deviceID)
	if !ok {
		return DeviceView{}, ErrUnknownDevice
	}

	lock := m.sessionLock(key)
	lock.Lock()
	defer lock.Unlock()

	previous, _, _ := m.store.Get(key)
	if err := m.store.Put(key, deviceID); err != nil {
		return DeviceView{}, err
	}

	info, probeErr := m.client.Probe(ctx, cfg)
	if probeErr != nil {
		m.logger.Warn("selected device failed probe", "device_id", deviceID, "error", probeErr)
		m.publish(events.NewSystemEvent(events.EventDeviceUnreachable, "Device unreachable", probeErr.Error()))
	} else {
		m.publishProbed(deviceID, info)
	}

	m.publish(events.NewEventWithPayload(events.EventDeviceSelected, "session", "Device selected", cfg.Host, events.DeviceSelectedData{
		SessionID: key,
		DeviceID:  deviceID,
		Previous:  previous,
	}))

	m.logger.Info("device selected", "session", key, "device_id", deviceID, "previous", previous)
	return DeviceView{ID: cfg.ID, Host: cfg.Host, Connection: m.status.State(cfg.ID)}, nil
}

// TestDevice probes a device without touching any session state.
func (m *Manager) TestDevice(ctx context.Context, deviceID int) (kodi.DeviceInfo, kodi.ConnectionState, error) {
	cfg, ok := m.deviceByID(deviceID)
	if !ok {
		return kodi.DeviceInfo{}, kodi.ConnectionState{}, ErrUnknownDevice
	}
	info, err := m.client.Probe(ctx, cfg)
	if err == nil {
		m.publishProbed(deviceID, info)
	}
	return info, m.status.State(deviceID), err
}

// Snapshot composes the full playback view for the session's device. The
// device config is captured once before any device I/O; a request racing a
// device switch sees either the old device's complete view or the new
// one. Device failures do not error out: the view carries the unreachable
// connection state and an empty snapshot.
func (m *Manager) Snapshot(ctx context.Context, key string) (PlaybackView, error) {
	cfg, err := m.resolveDevice(key)
	if err != nil {
		return PlaybackView{}, err
	}

	view := PlaybackView{DeviceID: cfg.ID, Snapshot: mediainfo.None()}

	state, err := m.client.FetchPlaybackState(ctx, cfg)
	if err != nil {
		if errors.Is(err, kodi.ErrNoPlayers) {
			// the device answered and nothing is loaded, a real stop
			m.noteTransition(cfg.ID, view.Snapshot)
		} else {
			m.logger.Debug("playback fetch failed", "device_id", cfg.ID, "error", err)
		}
		view.Connection = m.status.State(cfg.ID)
		return view, nil
	}

	view.Snapshot = mediainfo.Normalize(state)
	m.noteTransition(cfg.ID, view.Snapshot)

	// Listing failures degrade to item art only.
	listing, err := m.client.FetchAssetListing(ctx, cfg, state.Item)
	if err != nil {
		m.logger.Debug("asset listing failed", "device_id", cfg.ID, "error", err)
	}
	view.Artwork = artwork.Resolve(view.Snapshot, listing)
	view.Connection = m.status.State(cfg.ID)
	return view, nil
}

// Progress fetches just the playback position for the session's device.
func (m *Manager) Progress(ctx context.Context, key string) (ProgressView, error) {
	cfg, err := m.resolveDevice(key)
	if err != nil {
		return ProgressView{}, err
	}

	state, err := m.client.FetchPlaybackState(ctx, cfg)
	if err != nil {
		return ProgressView{}, nil
	}
	return ProgressView{
		Elapsed:  state.Elapsed,
		Duration: state.Duration,
		Paused:   state.Paused(),
		Playing:  !state.Paused(),
	}, nil
}

func (m *Manager) publish(event events.Event) {
	if m.bus == nil {
		return
	}
	if err := m.bus.PublishAsync(event); err != nil {
		m.logger.Debug("event publish failed", "type", event.Type, "error", err)
	}
}

func (m *Manager) publishProbed(deviceID int, info kodi.DeviceInfo) {
	m.publish(events.NewEventWithPayload(events.EventDeviceProbed, "session", "Device probed", "", events.DeviceProbedData{
		DeviceID: deviceID,
		Version:  fmt.Sprintf("%d.%d", info.Major, info.Minor),
	}))
}

// noteTransition publishes playback.started/stopped when a device's
// has-media state flips between snapshots. The first observation of an
// idle device is not a stop.
func (m *Manager) noteTransition(deviceID int, snap mediainfo.Snapshot) {
	playing := snap.MediaType != mediainfo.MediaTypeNone

	m.playMu.Lock()
	prev, seen := m.lastPlaying[deviceID]
	m.lastPlaying[deviceID] = playing
	m.playMu.Unlock()

	if playing == prev || (!seen && !playing) {
		return
	}

	data := events.PlaybackTransitionData{
		DeviceID:  deviceID,
		MediaType: string(snap.MediaType),
		Title:     snap.Title,
	}
	if playing {
		m.publish(events.NewEventWithPayload(events.EventPlaybackStarted, "session", "Playback started", snap.Title, data))
	} else {
		data.MediaType = ""
		m.publish(events.NewEventWithPayload(events.EventPlaybackStopped, "session", "Playback stopped", "", data))
	}
}
