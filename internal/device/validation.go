package device

import "fmt"

// validate checks a fully-built device/group set for the invariants a
// registry requires: unique device ids, unique group ids, group members
// referencing known devices, and each device type carrying its required
// fields.
func validate(devices []*Device, groups []*Group) error {
	deviceIDs := make(map[string]bool, len(devices))
	for _, d := range devices {
		if d.ID == "" {
			return fmt.Errorf("%w: device missing id", ErrInvalidDevice)
		}
		if deviceIDs[d.ID] {
			return fmt.Errorf("%w: device id %q", ErrDuplicateID, d.ID)
		}
		deviceIDs[d.ID] = true

		if err := validateDeviceFields(d); err != nil {
			return err
		}
	}

	groupIDs := make(map[string]bool, len(groups))
	for _, g := range groups {
		if g.ID == "" {
			return fmt.Errorf("%w: group missing id", ErrInvalidDevice)
		}
		if groupIDs[g.ID] {
			return fmt.Errorf("%w: group id %q", ErrDuplicateID, g.ID)
		}
		groupIDs[g.ID] = true

		seenMembers := make(map[string]bool, len(g.DeviceIDs))
		for _, id := range g.DeviceIDs {
			if seenMembers[id] {
				return fmt.Errorf("%w: group %q lists device %q more than once", ErrInvalidDevice, g.ID, id)
			}
			seenMembers[id] = true
			if !deviceIDs[id] {
				return fmt.Errorf("%w: group %q references unknown device %q", ErrInvalidDevice, g.ID, id)
			}
		}
	}

	return nil
}

func validateDeviceFields(d *Device) error {
	if d.Host == "" {
		return fmt.Errorf("%w: device %q missing host", ErrInvalidDevice, d.ID)
	}

	switch d.Type {
	case TypeTelnetProjector:
		if d.Credentials == nil || d.Credentials.Username == "" {
			return fmt.Errorf("%w: device %q (telnet_projector) requires credentials.username", ErrInvalidDevice, d.ID)
		}
	case TypeJSONRPCProjector, TypeGenericTCP, TypeCubesTCP:
		if d.Port == 0 {
			return fmt.Errorf("%w: device %q (%s) requires a port", ErrInvalidDevice, d.ID, d.Type)
		}
	case TypePCWake:
		if d.Credentials == nil || d.Credentials.MAC == "" {
			return fmt.Errorf("%w: device %q (pc_wake) requires credentials.mac", ErrInvalidDevice, d.ID)
		}
	default:
		return fmt.Errorf("%w: device %q has unknown type %q", ErrInvalidDevice, d.ID, d.Type)
	}

	switch d.ProbeSpec.Kind {
	case "", ProbeICMP:
		// ICMP is the zero-value default; no extra fields required.
	case ProbeTCP:
		if d.ProbeSpec.Port == 0 && d.Port == 0 {
			return fmt.Errorf("%w: device %q probe_spec tcp requires a port", ErrInvalidDevice, d.ID)
		}
	case ProbeHTTP:
		if d.ProbeSpec.Path == "" {
			return fmt.Errorf("%w: device %q probe_spec http requires a path", ErrInvalidDevice, d.ID)
		}
	default:
		return fmt.Errorf("%w: device %q has unknown probe_spec kind %q", ErrInvalidDevice, d.ID, d.ProbeSpec.Kind)
	}

	return nil
}
