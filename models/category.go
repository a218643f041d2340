package models

type Category struct {
	ID    uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name  string `gorm:"unique;not null" json:"name"`
	Image string `json:"image"`
	Items []MenuItem `gorm:"many2many:menu_item_categories" json:"items,omitempty"`
}
