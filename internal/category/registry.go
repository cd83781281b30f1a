// Package category manages the user-defined task categories.
package category

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/sadopc/tempo/internal/store"
)

// DefaultColor is used when a category is created without a color.
const DefaultColor = "#4287f5"

var (
	ErrDuplicateCategory = errors.New("category already exists")
	ErrEmptyName         = errors.New("category name is required")
	ErrInvalidColor      = errors.New("invalid color")
)

var colorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Registry lists and creates categories and remembers the one selected in
// the UI. The selection lives in memory only.
type Registry struct {
	store    *store.Store
	selected string
}

func NewRegistry(s *store.Store) *Registry {
	return &Registry{store: s}
}

// List returns the categories in creation order.
func (r *Registry) List(ctx context.Context) ([]store.Category, error) {
	return r.store.Categories(ctx)
}

// Create appends a new category. Names are compared case-insensitively after
// trimming; a duplicate is rejected without writing anything.
func (r *Registry) Create(ctx context.Context, name, color string) (store.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return store.Category{}, ErrEmptyName
	}
	color, err := NormalizeColor(color)
	if err != nil {
		return store.Category{}, err
	}

	categories, err := r.store.Categories(ctx)
	if err != nil {
		return store.Category{}, fmt.Errorf("create category: %w", err)
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			return store.Category{}, fmt.Errorf("%w: %q", ErrDuplicateCategory, name)
		}
	}

	c := store.Category{
		ID:    uuid.NewString(),
		Name:  name,
		Color: color,
	}
	if err := r.store.PutCategories(ctx, append(categories, c)); err != nil {
		return store.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// Resolve looks a category up by id. It reports false when the id is unknown
// or the store cannot be read.
func (r *Registry) Resolve(ctx context.Context, id string) (store.Category, bool) {
	if id == "" {
		return store.Category{}, false
	}
	categories, err := r.store.Categories(ctx)
	if err != nil {
		return store.Category{}, false
	}
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return store.Category{}, false
}

func (r *Registry) Select(id string) {
	r.selected = id
}

func (r *Registry) SelectedID() string {
	return r.selected
}

// NormalizeColor validates a #rgb or #rrggbb color and returns it as
// lowercase #rrggbb. An empty color yields DefaultColor.
func NormalizeColor(color string) (string, error) {
	color = strings.TrimSpace(color)
	if color == "" {
		return DefaultColor, nil
	}
	if !colorPattern.MatchString(color) {
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, color)
	}
	color = strings.ToLower(color)
	if len(color) == 4 {
		color = string([]byte{'#', color[1], color[1], color[2], color[2], color[3], color[3]})
	}
	return color, nil
}
