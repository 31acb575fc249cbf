package models

// Tag labels recipes. Every attribute is unique on its own.
type Tag struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Name  string `json:"name" gorm:"uniqueIndex;size:100;not null"`
	Color string `json:"color" gorm:"uniqueIndex;size:7;not null"`
	Slug  string `json:"slug" gorm:"uniqueIndex;size:100;not null"`
}

// Ingredient is a catalog entry with its measurement unit.
type Ingredient struct {
	ID              uint   `json:"id" gorm:"primaryKey"`
	Name            string `json:"name" gorm:"uniqueIndex;size:100;not null"`
	MeasurementUnit string `json:"measurement_unit" gorm:"size:100;not null"`
}
