package device

import "github.com/d0ssh1/Auto-Aquarium/internal/infrastructure/config"

// FromConfig converts the raw configuration document's devices and groups
// into the Registry's domain types. It performs no validation itself —
// Registry.Load validates the converted set as one unit.
func FromConfig(devices []config.DeviceConfig, groups []config.GroupConfig) ([]*Device, []*Group) {
	out := make([]*Device, 0, len(devices))
	for _, dc := range devices {
		d := &Device{
			ID:       dc.ID,
			Name:     dc.Name,
			Type:     Type(dc.Type),
			Host:     dc.Host,
			Port:     dc.Port,
			GroupIDs: append([]string(nil), dc.GroupIDs...),
		}
		if dc.Credentials != nil {
			d.Credentials = &Credentials{
				Username: dc.Credentials.Username,
				Password: dc.Credentials.Password,
				MAC:      dc.Credentials.MAC,
				WakePort: dc.Credentials.WakePort,
			}
		}
		if dc.ProbeSpec != nil {
			d.ProbeSpec = ProbeSpec{
				Kind: ProbeKind(dc.ProbeSpec.Kind),
				Port: dc.ProbeSpec.Port,
				Path: dc.ProbeSpec.Path,
			}
		}
		out = append(out, d)
	}

	groupsOut := make([]*Group, 0, len(groups))
	for _, gc := range groups {
		groupsOut = append(groupsOut, &Group{
			ID:        gc.ID,
			Name:      gc.Name,
			DeviceIDs: append([]string(nil), gc.DeviceIDs...),
		})
	}

	return out, groupsOut
}
