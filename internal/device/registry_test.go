package device

import (
	"errors"
	"testing"
)

func projector(id string, groupIDs ...string) *Device {
	return &Device{
		ID:          id,
		Name:        id,
		Type:        TypeTelnetProjector,
		Host:        "10.0.0.1",
		Port:        23,
		GroupIDs:    groupIDs,
		Credentials: &Credentials{Username: "admin", Password: "secret"},
	}
}

func TestRegistry_LoadAndGet(t *testing.T) {
	r := NewRegistry()
	devices := []*Device{projector("d1", "foyer"), projector("d2", "foyer")}
	groups := []*Group{{ID: "foyer", Name: "Foyer", DeviceIDs: []string{"d1", "d2"}}}

	if err := r.Load(devices, groups); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	got, err := r.Get("d1")
	if err != nil {
		t.Fatalf("Get(d1) error = %v", err)
	}
	if got.ID != "d1" {
		t.Errorf("Get(d1).ID = %q, want d1", got.ID)
	}

	if _, err := r.Get("missing"); err != ErrDeviceNotFound {
		t.Errorf("Get(missing) error = %v, want ErrDeviceNotFound", err)
	}
}

func TestRegistry_Get_ReturnsIsolatedCopy(t *testing.T) {
	r := NewRegistry()
	if err := r.Load([]*Device{projector("d1")}, nil); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	got, err := r.Get("d1")
	if err != nil {
		t.Fatalf("Get(d1) error = %v", err)
	}
	got.Name = "mutated"

	again, err := r.Get("d1")
	if err != nil {
		t.Fatalf("Get(d1) error = %v", err)
	}
	if again.Name == "mutated" {
		t.Error("mutating a returned Device leaked into the registry's internal state")
	}
}

func TestRegistry_Load_RejectsDuplicateID(t *testing.T) {
	r := NewRegistry()
	err := r.Load([]*Device{projector("d1"), projector("d1")}, nil)
	if err == nil {
		t.Fatal("Load() expected error for duplicate device id, got nil")
	}
}

func TestRegistry_Load_RejectsUnknownGroupMember(t *testing.T) {
	r := NewRegistry()
	groups := []*Group{{ID: "g1", Name: "g1", DeviceIDs: []string{"missing"}}}
	if err := r.Load([]*Device{projector("d1")}, groups); err == nil {
		t.Fatal("Load() expected error for group referencing unknown device, got nil")
	}
}

func TestRegistry_Load_FailedReloadKeepsPreviousSnapshot(t *testing.T) {
	r := NewRegistry()
	if err := r.Load([]*Device{projector("d1")}, nil); err != nil {
		t.Fatalf("initial Load() error = %v", err)
	}

	// A bad reload (duplicate id) must not disturb the existing snapshot.
	if err := r.Load([]*Device{projector("d2"), projector("d2")}, nil); err == nil {
		t.Fatal("Load() expected error for duplicate id in reload, got nil")
	}

	if _, err := r.Get("d1"); err != nil {
		t.Errorf("Get(d1) after failed reload error = %v, want nil (old snapshot preserved)", err)
	}
	if _, err := r.Get("d2"); err != ErrDeviceNotFound {
		t.Errorf("Get(d2) after failed reload error = %v, want ErrDeviceNotFound (new snapshot never applied)", err)
	}
}

func TestRegistry_IDsMatching(t *testing.T) {
	r := NewRegistry()
	devices := []*Device{projector("d1", "foyer"), projector("d2", "foyer"), projector("d3")}
	groups := []*Group{{ID: "foyer", Name: "Foyer", DeviceIDs: []string{"d1", "d2"}}}
	if err := r.Load(devices, groups); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		target string
		want   []string
	}{
		{"all", []string{"d1", "d2", "d3"}},
		{"device:d2", []string{"d2"}},
		{"group:foyer", []string{"d1", "d2"}},
	}

	for _, tt := range tests {
		got, err := r.IDsMatching(tt.target)
		if err != nil {
			t.Errorf("IDsMatching(%q) error = %v", tt.target, err)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("IDsMatching(%q) = %v, want %v", tt.target, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("IDsMatching(%q) = %v, want %v", tt.target, got, tt.want)
				break
			}
		}
	}

	if _, err := r.IDsMatching("bogus"); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("IDsMatching(bogus) error = %v, want ErrUnknownTarget", err)
	}
	if _, err := r.IDsMatching("device:missing"); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("IDsMatching(device:missing) error = %v, want ErrUnknownTarget", err)
	}
}
