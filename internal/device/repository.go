package device

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Repository persists the device/group catalogue to SQLite so the
// registry snapshot survives process restarts.
// It is a mirror of the configuration document, not a source of truth:
// Load (registry.go) always wins on startup; this repository exists so
// the HTTP control surface can read a consistent view and so future
// configuration-driven CRUD has somewhere durable to land.
type Repository interface {
	ReplaceAll(ctx context.Context, devices []*Device, groups []*Group) error
	ListDevices(ctx context.Context) ([]*Device, error)
	ListGroups(ctx context.Context) ([]*Group, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository wraps an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// ReplaceAll overwrites the persisted catalogue with the given snapshot in
// one transaction, so a reader never observes a half-written catalogue.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, devices []*Device, groups []*Group) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning catalogue transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, stmt := range []string{
		"DELETE FROM device_group_memberships",
		"DELETE FROM devices",
		"DELETE FROM groups",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clearing catalogue: %w", err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)

	for _, d := range devices {
		credJSON, probeJSON, err := marshalDevice(d)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO devices (id, name, type, host, port, credentials_json, probe_spec_json, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID, d.Name, string(d.Type), d.Host, d.Port, credJSON, probeJSON, now, now,
		); err != nil {
			return fmt.Errorf("inserting device %q: %w", d.ID, err)
		}
		for i, gid := range d.GroupIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO device_group_memberships (device_id, group_id, sort_order) VALUES (?, ?, ?)`,
				d.ID, gid, i,
			); err != nil {
				return fmt.Errorf("inserting membership %q/%q: %w", d.ID, gid, err)
			}
		}
	}

	for _, g := range groups {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO groups (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			g.ID, g.Name, now, now,
		); err != nil {
			return fmt.Errorf("inserting group %q: %w", g.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing catalogue: %w", err)
	}
	return nil
}

// ListDevices returns every persisted device, unordered beyond insertion order.
func (r *SQLiteRepository) ListDevices(ctx context.Context) ([]*Device, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type, host, port, credentials_json, probe_spec_json FROM devices`)
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	defer rows.Close()

	var devices []*Device
	for rows.Next() {
		var d Device
		var typ string
		var credJSON, probeJSON sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &typ, &d.Host, &d.Port, &credJSON, &probeJSON); err != nil {
			return nil, fmt.Errorf("scanning device row: %w", err)
		}
		d.Type = Type(typ)
		if credJSON.Valid && credJSON.String != "" {
			var creds Credentials
			if err := json.Unmarshal([]byte(credJSON.String), &creds); err != nil {
				return nil, fmt.Errorf("parsing credentials for %q: %w", d.ID, err)
			}
			d.Credentials = &creds
		}
		if probeJSON.Valid && probeJSON.String != "" {
			if err := json.Unmarshal([]byte(probeJSON.String), &d.ProbeSpec); err != nil {
				return nil, fmt.Errorf("parsing probe spec for %q: %w", d.ID, err)
			}
		}

		gids, err := r.membershipsFor(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		d.GroupIDs = gids

		devices = append(devices, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}
	return devices, nil
}

func (r *SQLiteRepository) membershipsFor(ctx context.Context, deviceID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT group_id FROM device_group_memberships WHERE device_id = ? ORDER BY sort_order`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("listing memberships for %q: %w", deviceID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var gid string
		if err := rows.Scan(&gid); err != nil {
			return nil, fmt.Errorf("scanning membership row: %w", err)
		}
		ids = append(ids, gid)
	}
	return ids, rows.Err()
}

// ListGroups returns every persisted group with its member ids resolved
// from device_group_memberships, preserving sort order.
func (r *SQLiteRepository) ListGroups(ctx context.Context) ([]*Group, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM groups`)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, fmt.Errorf("scanning group row: %w", err)
		}
		groups = append(groups, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating groups: %w", err)
	}

	for _, g := range groups {
		memberRows, err := r.db.QueryContext(ctx,
			`SELECT device_id FROM device_group_memberships WHERE group_id = ? ORDER BY sort_order`, g.ID)
		if err != nil {
			return nil, fmt.Errorf("listing members for group %q: %w", g.ID, err)
		}
		for memberRows.Next() {
			var did string
			if err := memberRows.Scan(&did); err != nil {
				memberRows.Close()
				return nil, fmt.Errorf("scanning member row: %w", err)
			}
			g.DeviceIDs = append(g.DeviceIDs, did)
		}
		memberRows.Close()
	}

	return groups, nil
}

func marshalDevice(d *Device) (credJSON, probeJSON *string, err error) {
	if d.Credentials != nil {
		b, err := json.Marshal(d.Credentials)
		if err != nil {
			return nil, nil, fmt.Errorf("marshalling credentials for %q: %w", d.ID, err)
		}
		s := string(b)
		credJSON = &s
	}
	b, err := json.Marshal(d.ProbeSpec)
	if err != nil {
		return nil, nil, fmt.Errorf("marshalling probe spec for %q: %w", d.ID, err)
	}
	s := string(b)
	probeJSON = &s
	return credJSON, probeJSON, nil
}
