// Package widgets stores widget instances and knows how to render them.
package widgets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/TheLab-ms/dashnotes/engine/db"
	"github.com/a-h/templ"
	"github.com/google/uuid"
)

const migration = `
CREATE TABLE IF NOT EXISTS widgets (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	sidebar TEXT NOT NULL,
	position INTEGER NOT NULL DEFAULT 0,
	title TEXT NOT NULL DEFAULT '',
	body TEXT NOT NULL DEFAULT '',
	created INTEGER NOT NULL DEFAULT (unixepoch()),
	updated INTEGER NOT NULL DEFAULT (unixepoch())
) STRICT;

CREATE INDEX IF NOT EXISTS widgets_sidebar_idx ON widgets (sidebar, position);
`

// ErrNotFound is returned when a widget id isn't registered.
var ErrNotFound = errors.New("widget not found")

// Instance is one widget placed in a sidebar.
type Instance struct {
	ID       string
	Type     string
	Sidebar  string
	Position int
	Title    string
	Body     string
}

// RenderFunc produces the content of a widget instance.
type RenderFunc func(ctx context.Context, inst *Instance) templ.Component

// Type describes a kind of widget.
type Type struct {
	ID        string
	Name      string
	Classname string
	Render    RenderFunc

	// Normalize cleans up the body before it's stored. Optional.
	Normalize func(body string) (string, error)
}

// Sidebar is a named container of widgets.
type Sidebar struct {
	ID          string
	Name        string
	Description string
}

// Registry stores widget instances in sqlite and holds the in-process type and sidebar registrations.
type Registry struct {
	db       *sql.DB
	mu       sync.RWMutex
	types    map[string]*Type
	sidebars map[string]Sidebar
}

// New creates a registry with the built-in widget types registered.
func New(d *sql.DB) *Registry {
	db.MustMigrate(d, migration)
	r := &Registry{
		db:       d,
		types:    map[string]*Type{},
		sidebars: map[string]Sidebar{},
	}
	r.RegisterType(TextType)
	return r
}

func (r *Registry) RegisterType(t Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[t.ID] = &t
}

func (r *Registry) RegisterSidebar(s Sidebar) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sidebars[s.ID] = s
}

// Type returns a registered widget type.
func (r *Registry) Type(id string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[id]
	return t, ok
}

// Types returns the registered widget types sorted by name.
func (r *Registry) Types() []*Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]*Type, 0, len(r.types))
	for _, t := range r.types {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return types
}

// Sidebar returns a registered sidebar.
func (r *Registry) Sidebar(id string) (Sidebar, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sidebars[id]
	return s, ok
}

// Add appends a new widget to the end of a sidebar.
func (r *Registry) Add(ctx context.Context, sidebar, typeID, title, body string) (*Instance, error) {
	if _, ok := r.Sidebar(sidebar); !ok {
		return nil, fmt.Errorf("unknown sidebar %q", sidebar)
	}
	t, ok := r.Type(typeID)
	if !ok {
		return nil, fmt.Errorf("unknown widget type %q", typeID)
	}
	body, err := normalize(t, body)
	if err != nil {
		return nil, err
	}

	inst := &Instance{
		ID:      typeID + "-" + uuid.NewString(),
		Type:    typeID,
		Sidebar: sidebar,
		Title:   title,
		Body:    body,
	}
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO widgets (id, type, sidebar, position, title, body)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM widgets WHERE sidebar = ?), ?, ?)
		RETURNING position`, inst.ID, inst.Type, inst.Sidebar, inst.Sidebar, inst.Title, inst.Body).Scan(&inst.Position)
	if err != nil {
		return nil, fmt.Errorf("inserting widget: %w", err)
	}

	slog.Info("added widget", "id", inst.ID, "sidebar", sidebar)
	return inst, nil
}

// Update replaces the title and body of an existing widget.
func (r *Registry) Update(ctx context.Context, id, title, body string) error {
	inst, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	t, ok := r.Type(inst.Type)
	if !ok {
		return fmt.Errorf("unknown widget type %q", inst.Type)
	}
	body, err = normalize(t, body)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, "UPDATE widgets SET title = ?, body = ?, updated = unixepoch() WHERE id = ?", title, body, id)
	if err != nil {
		return fmt.Errorf("updating widget: %w", err)
	}
	return nil
}

// Remove deletes a widget. It returns false if the widget didn't exist.
func (r *Registry) Remove(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM widgets WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("deleting widget: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		slog.Info("removed widget", "id", id)
	}
	return n > 0, nil
}

// Get returns a single widget, or ErrNotFound.
func (r *Registry) Get(ctx context.Context, id string) (*Instance, error) {
	inst := &Instance{}
	err := r.db.QueryRowContext(ctx, "SELECT id, type, sidebar, position, title, body FROM widgets WHERE id = ?", id).
		Scan(&inst.ID, &inst.Type, &inst.Sidebar, &inst.Position, &inst.Title, &inst.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying widget: %w", err)
	}
	return inst, nil
}

// IsRegistered reports whether a widget with the given id exists.
func (r *Registry) IsRegistered(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM widgets WHERE id = ?)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("querying widget: %w", err)
	}
	return exists, nil
}

// List returns the widgets of a sidebar in display order.
func (r *Registry) List(ctx context.Context, sidebar string) ([]*Instance, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, type, sidebar, position, title, body FROM widgets WHERE sidebar = ? ORDER BY position, id", sidebar)
	if err != nil {
		return nil, fmt.Errorf("listing widgets: %w", err)
	}
	defer rows.Close()

	var result []*Instance
	for rows.Next() {
		inst := &Instance{}
		if err := rows.Scan(&inst.ID, &inst.Type, &inst.Sidebar, &inst.Position, &inst.Title, &inst.Body); err != nil {
			return nil, err
		}
		result = append(result, inst)
	}
	return result, rows.Err()
}

// Render returns the content of a widget, or nil if its type has no render callback.
func (r *Registry) Render(ctx context.Context, inst *Instance) templ.Component {
	t, ok := r.Type(inst.Type)
	if !ok || t.Render == nil {
		return nil
	}
	return t.Render(ctx, inst)
}

func normalize(t *Type, body string) (string, error) {
	if t.Normalize == nil {
		return body, nil
	}
	out, err := t.Normalize(body)
	if err != nil {
		return "", fmt.Errorf("normalizing %s widget body: %w", t.ID, err)
	}
	return out, nil
}
