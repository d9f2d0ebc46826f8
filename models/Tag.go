package models

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Tag labels recipes. Slug is derived from Name when the tag is created.
type Tag struct {
	ID    uint   `gorm:"primaryKey"`
	Name  string `gorm:"size:20;not null;uniqueIndex"`
	Slug  string `gorm:"size:128;not null;uniqueIndex"`
	Color string `gorm:"size:7;not null"`
}

// Slugify transliterates name to lower-case ASCII and joins the words with
// dashes. Names with nothing to transliterate fall back to "tag".
func Slugify(name string) string {
	if s := slug.Make(name); s != "" {
		return s
	}
	return "tag"
}

// ValidColor reports whether value is a #RRGGBB hex color.
func ValidColor(value string) bool {
	return colorPattern.MatchString(value)
}

// BeforeCreate rejects malformed colors and assigns a unique slug,
// suffixing -2, -3, ... on collision.
func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if !ValidColor(t.Color) {
		return fmt.Errorf("tag %q: invalid color %q", t.Name, t.Color)
	}

	base := Slugify(t.Slug)
	if strings.TrimSpace(t.Slug) == "" {
		base = Slugify(t.Name)
	}

	var taken []string
	err := tx.Session(&gorm.Session{NewDB: true}).
		Model(&Tag{}).
		Where("slug = ? OR slug LIKE ?", base, base+"-%").
		Pluck("slug", &taken).Error
	if err != nil {
		return err
	}

	t.Slug = uniqueSlug(base, taken)
	return nil
}

func uniqueSlug(base string, taken []string) string {
	used := make(map[string]struct{}, len(taken))
	for _, slug := range taken {
		used[slug] = struct{}{}
	}
	if _, ok := used[base]; !ok {
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if _, ok := used[candidate]; !ok {
			return candidate
		}
	}
}
