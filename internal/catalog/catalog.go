// Package catalog implements the user-facing flows: adding an item with its
// location photo, re-photographing an item and removing one.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/whereisit/internal/images"
	"github.com/erazemk/whereisit/internal/imaging"
	"github.com/erazemk/whereisit/internal/model"
)

// Items is the part of the item store the flows need.
type Items interface {
	Get(id string) (model.Item, bool)
	Items() []model.Item
	Filter(query string) []model.Item
	AddItem(ctx context.Context, item model.Item) error
	UpdateLocation(ctx context.Context, id, newPath string) error
	DeleteItem(ctx context.Context, id string) error
}

// Images persists photos into the managed image directory.
type Images interface {
	SaveImage(src, filename string) (string, error)
	DeleteImage(path string) error
}

// Resizer re-encodes the image at src and returns the path of a new
// temporary file holding the result.
type Resizer func(src string) (string, error)

// Catalog wires the item store to the image directory.
type Catalog struct {
	items  Items
	images Images
	resize Resizer
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithResizer replaces the default resize step.
func WithResizer(r Resizer) Option {
	return func(c *Catalog) { c.resize = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) { c.logger = logger }
}

// New returns a Catalog. Photos are resized with imaging defaults unless
// WithResizer is given.
func New(items Items, imgs Images, opts ...Option) *Catalog {
	c := &Catalog{
		items:  items,
		images: imgs,
		resize: func(src string) (string, error) {
			return imaging.ResizeFile(src, imaging.Options{})
		},
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddRequest describes a new item.
type AddRequest struct {
	Name      string `validate:"max=100"`
	Preset    string `validate:"omitempty,preset"`
	IconPath  string `validate:"omitempty,excluded_with=Preset"`
	PhotoPath string `validate:"required"`
}

// Add stores the location photo (and custom icon, if any) and appends the
// new item to the store.
func (c *Catalog) Add(ctx context.Context, req AddRequest) (model.Item, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateRequest(req); err != nil {
		return model.Item{}, err
	}

	locPath, err := c.storePhoto(req.PhotoPath, images.LocationFilename())
	if err != nil {
		return model.Item{}, fmt.Errorf("saving location photo: %w", err)
	}
	saved := []string{locPath}

	item := model.Item{
		ID:               uuid.NewString(),
		Name:             req.Name,
		Type:             model.ItemTypePreset,
		IconURI:          req.Preset,
		LocationImageURI: model.StringPtr(locPath),
		UpdatedAt:        model.NowMillis(c.now()),
	}

	if req.IconPath != "" {
		iconPath, err := c.storePhoto(req.IconPath, images.IconFilename())
		if err != nil {
			c.discard(saved)
			return model.Item{}, fmt.Errorf("saving icon: %w", err)
		}
		saved = append(saved, iconPath)
		item.Type = model.ItemTypeCustom
		item.IconURI = iconPath
	}

	if item.IconURI == "" {
		item.IconURI = model.DefaultPreset
	}
	if item.Name == "" {
		item.Name = model.PresetName(item.IconURI)
	}

	// A failed AddItem leaves the store without the item, so its files can go.
	if err := c.items.AddItem(ctx, item); err != nil {
		c.discard(saved)
		return model.Item{}, fmt.Errorf("adding item: %w", err)
	}

	c.logger.Info("item added", "id", item.ID, "name", item.DisplayName())
	return item, nil
}

// Relocate records a new location photo for an existing item. The photo is
// written before the store is updated, so the item never points at a file
// that does not exist yet. If the store rejects the update, or the item is
// gone by then, the new photo is removed again.
func (c *Catalog) Relocate(ctx context.Context, id, photoPath string) (model.Item, error) {
	if photoPath == "" {
		return model.Item{}, ErrPhotoRequired
	}
	current, ok := c.items.Get(id)
	if !ok {
		return model.Item{}, ErrItemNotFound
	}

	path, err := c.storePhoto(photoPath, images.UpdateFilename(id, c.now()))
	if err != nil {
		return model.Item{}, fmt.Errorf("saving location photo: %w", err)
	}

	if err := c.items.UpdateLocation(ctx, id, path); err != nil {
		if path != current.Location() {
			c.discard([]string{path})
		}
		return model.Item{}, fmt.Errorf("updating location: %w", err)
	}

	// The item may have been deleted while the photo was being written.
	item, ok := c.items.Get(id)
	if !ok {
		c.discard([]string{path})
		return model.Item{}, ErrItemNotFound
	}
	c.logger.Info("location updated", "id", id, "path", path)
	return item, nil
}

// Remove deletes an item and, in the background, its files.
func (c *Catalog) Remove(ctx context.Context, id string) error {
	if _, ok := c.items.Get(id); !ok {
		return ErrItemNotFound
	}
	if err := c.items.DeleteItem(ctx, id); err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	c.logger.Info("item deleted", "id", id)
	return nil
}

// Get returns one item.
func (c *Catalog) Get(id string) (model.Item, error) {
	item, ok := c.items.Get(id)
	if !ok {
		return model.Item{}, ErrItemNotFound
	}
	return item, nil
}

// List returns the items whose name contains query, ignoring case.
func (c *Catalog) List(query string) []model.Item {
	if query == "" {
		return c.items.Items()
	}
	return c.items.Filter(query)
}

// storePhoto resizes src into a temporary file and saves that under
// filename in the image directory.
func (c *Catalog) storePhoto(src, filename string) (string, error) {
	resized, err := c.resize(src)
	if err != nil {
		return "", fmt.Errorf("processing image: %w", err)
	}
	if resized != src {
		defer os.Remove(resized)
	}
	return c.images.SaveImage(resized, filename)
}

func (c *Catalog) discard(paths []string) {
	for _, p := range paths {
		if err := c.images.DeleteImage(p); err != nil {
			c.logger.Warn("failed to discard image", "path", p, "error", err)
		}
	}
}
