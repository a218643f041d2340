package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type MenuItem struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `gorm:"not null" json:"price_cents"`
	Image       string `json:"image"`
	// Comma-separated list of offered spice levels, e.g. "mild,medium,hot".
	// Empty means the dish is not customizable.
	SpiceLevels string     `json:"spice_levels"`
	Available   bool       `gorm:"default:true" json:"available"`
	Categories  []Category `gorm:"many2many:menu_item_categories" json:"categories"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// OffersSpiceLevel reports whether level is one of the item's offered
// spice levels. The empty level is always accepted.
func (m MenuItem) OffersSpiceLevel(level string) bool {
	if level == "" {
		return true
	}
	for _, offered := range strings.Split(m.SpiceLevels, ",") {
		if strings.EqualFold(strings.TrimSpace(offered), level) {
			return true
		}
	}
	return false
}
