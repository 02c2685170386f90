package device

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// snapshot is an immutable, fully validated device/group set. The Registry
// never mutates a snapshot in place; a reload builds a new one and swaps
// the pointer atomically.
type snapshot struct {
	devices map[string]*Device
	groups  map[string]*Group
	order   []string // device ids in load order, for All()
}

// Registry is the in-memory catalogue of devices and groups. It is
// read-only on the hot path: lookups never take a lock, they read an
// atomic pointer to the current snapshot. Load builds and validates a
// new snapshot off to the side and only swaps it in if it is fully
// valid; a failed Load leaves the previous snapshot untouched.
type Registry struct {
	current atomic.Pointer[snapshot]
	logger  Logger
}

// NewRegistry creates an empty registry. Call Load before using it.
func NewRegistry() *Registry {
	r := &Registry{logger: noopLogger{}}
	r.current.Store(&snapshot{devices: map[string]*Device{}, groups: map[string]*Group{}})
	return r
}

// SetLogger sets the logger used for reload diagnostics.
func (r *Registry) SetLogger(logger Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Load validates the given devices and groups as one complete snapshot
// and, only if valid, atomically swaps it in. On validation failure the
// registry's current snapshot (if any) is left untouched and the error
// is returned. Load may be called again to replace the catalogue; the
// engine itself calls it once at startup and has no SIGHUP reload.
func (r *Registry) Load(devices []*Device, groups []*Group) error {
	if err := validate(devices, groups); err != nil {
		return err
	}

	snap := &snapshot{
		devices: make(map[string]*Device, len(devices)),
		groups:  make(map[string]*Group, len(groups)),
		order:   make([]string, 0, len(devices)),
	}
	for _, d := range devices {
		snap.devices[d.ID] = d.DeepCopy()
		snap.order = append(snap.order, d.ID)
	}
	for _, g := range groups {
		snap.groups[g.ID] = g.DeepCopy()
	}

	r.current.Store(snap)
	r.logger.Info("registry loaded", "devices", len(devices), "groups", len(groups))
	return nil
}

// Get returns a device by id. The returned value is a deep copy; callers
// may not mutate the registry's internal state through it.
func (r *Registry) Get(id string) (*Device, error) {
	snap := r.current.Load()
	d, ok := snap.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return d.DeepCopy(), nil
}

// All returns every device, in load order.
func (r *Registry) All() []*Device {
	snap := r.current.Load()
	out := make([]*Device, 0, len(snap.order))
	for _, id := range snap.order {
		out = append(out, snap.devices[id].DeepCopy())
	}
	return out
}

// Group returns the devices belonging to a group, in the group's declared
// member order.
func (r *Registry) Group(id string) ([]*Device, error) {
	snap := r.current.Load()
	g, ok := snap.groups[id]
	if !ok {
		return nil, ErrGroupNotFound
	}
	out := make([]*Device, 0, len(g.DeviceIDs))
	for _, did := range g.DeviceIDs {
		if d, ok := snap.devices[did]; ok {
			out = append(out, d.DeepCopy())
		}
	}
	return out, nil
}

// AllGroups returns every group.
func (r *Registry) AllGroups() []*Group {
	snap := r.current.Load()
	out := make([]*Group, 0, len(snap.groups))
	for _, g := range snap.groups {
		out = append(out, g.DeepCopy())
	}
	return out
}

// IDsMatching resolves a scheduler/API target string into a concrete,
// deduplicated list of device ids. Accepted forms: "device:<id>",
// "group:<id>", and "all". Callers that need a
// stable fan-out set should call this once and reuse the slice rather
// than re-resolving mid-operation.
func (r *Registry) IDsMatching(target string) ([]string, error) {
	switch {
	case target == "all":
		snap := r.current.Load()
		out := make([]string, len(snap.order))
		copy(out, snap.order)
		return out, nil

	case strings.HasPrefix(target, "device:"):
		id := strings.TrimPrefix(target, "device:")
		if _, err := r.Get(id); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
		}
		return []string{id}, nil

	case strings.HasPrefix(target, "group:"):
		id := strings.TrimPrefix(target, "group:")
		devices, err := r.Group(id)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
		}
		ids := make([]string, len(devices))
		for i, d := range devices {
			ids[i] = d.ID
		}
		return ids, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
	}
}
