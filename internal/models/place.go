package models

// Place is one row of the known-place catalog used as a geocoding fallback:
// region → area → named place → canonical address and coordinates.
type Place struct {
	ID      int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Region  string  `gorm:"index" json:"region"` // Gauteng, Western Cape, ...
	Area    string  `gorm:"index" json:"area"`   // Johannesburg, Cape Town, ...
	Place   string  `json:"place"`               // Sandton, Midrand, ...
	Address string  `json:"address"`             // canonical address string
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

func (Place) TableName() string { return "places" }
