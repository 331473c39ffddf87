package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

const (
	// OptionsRecord holds the widget id -> VisibilityConfig map.
	OptionsRecord = "dashboard_notes_options"

	// RolesRecord holds the role id -> enabled map.
	RolesRecord = "dashboard-notes"
)

// SettingsStore persists named JSON records.
type SettingsStore interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// Options maps widget ids to their visibility config.
type Options map[string]VisibilityConfig

// Lookup returns the config for a widget, or nil if it was never configured.
func (o Options) Lookup(widgetID string) *VisibilityConfig {
	cfg, ok := o[widgetID]
	if !ok {
		return nil
	}
	return &cfg
}

// Snapshot is the configuration loaded once per request.
// It must be treated as read-only.
type Snapshot struct {
	Options Options
	Roles   RoleVisibility
}

// LoadSnapshot reads both records.
// A missing role record enables every known role, while an undecodable one enables none.
// An undecodable options record is treated as empty, and undecodable fields of an entry keep their zero value.
func LoadSnapshot(ctx context.Context, store SettingsStore, roles []Role) (*Snapshot, error) {
	opts, err := loadOptions(ctx, store)
	if err != nil {
		return nil, err
	}

	var stored RoleVisibility
	ok, err := store.Get(ctx, RolesRecord, &stored)
	switch {
	case ok && err != nil:
		slog.Warn("ignoring unreadable role visibility record", "error", err)
		return &Snapshot{Options: opts, Roles: RoleVisibility{}}, nil
	case err != nil:
		return nil, err
	}

	return &Snapshot{Options: opts, Roles: stored.WithDefaults(roles)}, nil
}

// ErrUnreadableRecord is returned instead of overwriting a stored record that can't be decoded.
var ErrUnreadableRecord = errors.New("stored record can't be decoded")

// loadRawOptions returns the stored entries without decoding them,
// so writes can preserve entries this version doesn't understand.
func loadRawOptions(ctx context.Context, store SettingsStore) (map[string]json.RawMessage, error) {
	raw := map[string]json.RawMessage{}
	ok, err := store.Get(ctx, OptionsRecord, &raw)
	if ok && err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnreadableRecord, err)
	}
	if err != nil {
		return nil, err
	}
	if raw == nil {
		raw = map[string]json.RawMessage{}
	}
	return raw, nil
}

func loadOptions(ctx context.Context, store SettingsStore) (Options, error) {
	raw, err := loadRawOptions(ctx, store)
	if errors.Is(err, ErrUnreadableRecord) {
		slog.Warn("ignoring unreadable notes options record", "error", err)
		return Options{}, nil
	}
	if err != nil {
		return nil, err
	}

	opts := make(Options, len(raw))
	for id, entry := range raw {
		cfg, err := decodeVisibility(entry)
		if err != nil {
			slog.Warn("ignoring malformed visibility fields", "widget", id, "error", err)
		}
		opts[id] = cfg
	}
	return opts, nil
}

// decodeVisibility decodes each field of a config on its own.
// Fields that can't be decoded keep their zero value and are reported in the returned error.
func decodeVisibility(entry json.RawMessage) (VisibilityConfig, error) {
	var cfg VisibilityConfig
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(entry, &fields); err != nil {
		return cfg, err
	}

	targets := []struct {
		key string
		dst any
	}{
		{"style", &cfg.Style},
		{"include-logo", &cfg.IncludeLogo},
		{"logo-url", &cfg.LogoURL},
		{"incexc", &cfg.IncludeExclude},
		{"url", &cfg.URL},
	}
	var errs []error
	for _, t := range targets {
		val, ok := fields[t.key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(val, t.dst); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", t.key, err))
		}
	}
	return cfg, errors.Join(errs...)
}

// SaveVisibility upserts the config of a single widget.
// Other entries are written back exactly as they were stored.
func SaveVisibility(ctx context.Context, store SettingsStore, widgetID string, cfg VisibilityConfig) error {
	raw, err := loadRawOptions(ctx, store)
	if err != nil {
		return err
	}
	js, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	raw[widgetID] = js
	if err := store.Set(ctx, OptionsRecord, raw); err != nil {
		return fmt.Errorf("saving visibility of %s: %w", widgetID, err)
	}
	return nil
}

// DeleteVisibility removes the configs of the given widgets.
// It returns the number of entries that were removed.
func DeleteVisibility(ctx context.Context, store SettingsStore, widgetIDs ...string) (int, error) {
	raw, err := loadRawOptions(ctx, store)
	if err != nil {
		return 0, err
	}

	var n int
	for _, id := range widgetIDs {
		if _, ok := raw[id]; ok {
			delete(raw, id)
			n++
		}
	}
	switch {
	case n == 0:
		return 0, nil
	case len(raw) == 0:
		err = store.Delete(ctx, OptionsRecord)
	default:
		err = store.Set(ctx, OptionsRecord, raw)
	}
	if err != nil {
		return 0, fmt.Errorf("deleting visibility configs: %w", err)
	}
	return n, nil
}

// SaveRoleVisibility overwrites the role visibility record.
func SaveRoleVisibility(ctx context.Context, store SettingsStore, v RoleVisibility) error {
	if err := store.Set(ctx, RolesRecord, v); err != nil {
		return fmt.Errorf("saving role visibility: %w", err)
	}
	return nil
}
