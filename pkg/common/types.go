package common

import "fmt"

// KeyType is the ordering value of the index: a raw key or a derived metric.
type KeyType = float64

// Property is one real-estate listing as supplied by the dataset loader.
type Property struct {
	City         string  `json:"city" yaml:"city"`
	Bedrooms     int     `json:"bedrooms" yaml:"bedrooms"`
	Bathrooms    int     `json:"bathrooms" yaml:"bathrooms"`
	Price        float64 `json:"price" yaml:"price"`
	SurfaceTotal float64 `json:"surface_total" yaml:"surface_total"`
}

// String 方便调试打印
func (p *Property) String() string {
	return fmt.Sprintf("{city: %s, bedrooms: %d, bathrooms: %d, price: %.2f, surface_total: %.2f}",
		p.City, p.Bedrooms, p.Bathrooms, p.Price, p.SurfaceTotal)
}

// Entry pairs a key with the record stored under it.
type Entry struct {
	Key      KeyType   `json:"key"`
	Property *Property `json:"property"`
}
