package common

import (
	"fmt"
	"math"
)

// Validate reports whether p can be keyed by PrimaryMetric.
func (p *Property) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil property", ErrInvalidRecord)
	}
	if math.IsNaN(p.SurfaceTotal) || math.IsInf(p.SurfaceTotal, 0) || p.SurfaceTotal <= 0 {
		return fmt.Errorf("%w: surface_total must be positive, got %v", ErrInvalidRecord, p.SurfaceTotal)
	}
	if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
		return fmt.Errorf("%w: price must be finite, got %v", ErrInvalidRecord, p.Price)
	}
	if p.Bedrooms < 0 || p.Bathrooms < 0 {
		return fmt.Errorf("%w: negative room count (bedrooms=%d, bathrooms=%d)", ErrInvalidRecord, p.Bedrooms, p.Bathrooms)
	}
	return nil
}

// PrimaryMetric is price per unit of total surface.
func (p *Property) PrimaryMetric() (KeyType, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return finite(p.Price / p.SurfaceTotal)
}

// SecondaryMetric disambiguates primary-metric collisions:
// price / (surface_total + bedrooms + bathrooms).
func (p *Property) SecondaryMetric() (KeyType, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return finite(p.Price / (p.SurfaceTotal + float64(p.Bedrooms) + float64(p.Bathrooms)))
}

// finite rejects a quotient that overflowed, e.g. a huge price over a tiny surface.
func finite(m KeyType) (KeyType, error) {
	if math.IsInf(m, 0) || math.IsNaN(m) {
		return 0, fmt.Errorf("%w: metric overflows to %v", ErrInvalidRecord, m)
	}
	return m, nil
}
