package model

import (
	"fmt"
	"time"
)

// Item is one cataloged physical object.
type Item struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Type             ItemType `json:"type"`
	IconURI          string   `json:"iconUri"`
	LocationImageURI *string  `json:"locationImageUri"`
	UpdatedAt        int64    `json:"updatedAt"`
}

// ItemType tells whether IconURI is a preset token or a custom image file.
type ItemType string

// Item types.
const (
	ItemTypePreset ItemType = "preset"
	ItemTypeCustom ItemType = "custom"
)

// UnnamedItem is shown in place of an empty name.
const UnnamedItem = "Unnamed item"

// RecentWindow is how long after an update an item counts as recent.
const RecentWindow = 24 * time.Hour

// DisplayName returns the name, or UnnamedItem when the name is empty.
func (i Item) DisplayName() string {
	if i.Name == "" {
		return UnnamedItem
	}
	return i.Name
}

// HasLocation reports whether a location photo has been recorded.
func (i Item) HasLocation() bool {
	return i.LocationImageURI != nil && *i.LocationImageURI != ""
}

// Location returns the location photo path, or "" if none.
func (i Item) Location() string {
	if i.LocationImageURI == nil {
		return ""
	}
	return *i.LocationImageURI
}

// IsRecent reports whether the item was updated within RecentWindow of now.
func (i Item) IsRecent(now time.Time) bool {
	return NowMillis(now)-i.UpdatedAt < RecentWindow.Milliseconds()
}

// NowMillis converts t to milliseconds since the Unix epoch.
func NowMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// Preset is a built-in icon identified by a symbolic token.
type Preset struct {
	Name  string
	Token string
}

// DefaultPreset is used when an item has neither a preset nor a custom icon.
const DefaultPreset = "preset:Default"

// Presets lists the built-in icons in display order.
var Presets = []Preset{
	{Name: "Keys", Token: "preset:Keys"},
	{Name: "Wallet", Token: "preset:Wallet"},
	{Name: "Glasses", Token: "preset:Glasses"},
	{Name: "Remote", Token: "preset:Remote"},
	{Name: "Bag", Token: "preset:Bag"},
	{Name: "Headphones", Token: "preset:Headphones"},
	{Name: "Umbrella", Token: "preset:Umbrella"},
	{Name: "Watch", Token: "preset:Watch"},
	{Name: "Game", Token: "preset:Game"},
}

// PresetName returns the display name for a preset token, or "" if unknown.
func PresetName(token string) string {
	for _, p := range Presets {
		if p.Token == token {
			return p.Name
		}
	}
	return ""
}

// IsPreset checks if token names a built-in icon, including DefaultPreset.
func IsPreset(token string) bool {
	return token == DefaultPreset || PresetName(token) != ""
}

// DefaultItems returns the records a fresh catalog is seeded with.
func DefaultItems(now time.Time) []Item {
	ts := NowMillis(now)
	items := make([]Item, 0, len(Presets))
	for i, p := range Presets {
		items = append(items, Item{
			ID:        fmt.Sprintf("default-%d", i+1),
			Name:      p.Name,
			Type:      ItemTypePreset,
			IconURI:   p.Token,
			UpdatedAt: ts,
		})
	}
	return items
}
