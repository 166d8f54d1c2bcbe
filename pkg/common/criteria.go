package common

import (
	"encoding/json"
	"fmt"
	"math"
)

// Criteria filters a metric range [MinMetric, MaxMetric) plus optional
// non-key fields. Zero values of City, MinBedrooms and MaxPrice disable
// the corresponding filter.
type Criteria struct {
	City        string
	MinBedrooms int
	MaxPrice    float64
	MinMetric   float64
	MaxMetric   float64
}

// NewCriteria returns criteria covering every key with no field filters.
func NewCriteria() Criteria {
	return Criteria{
		MinMetric: math.Inf(-1),
		MaxMetric: math.Inf(1),
	}
}

func (c Criteria) Validate() error {
	if math.IsNaN(c.MinMetric) || math.IsNaN(c.MaxMetric) {
		return fmt.Errorf("%w: metric bound is NaN", ErrMalformedCriteria)
	}
	if c.MinMetric > c.MaxMetric {
		return fmt.Errorf("%w: min_metric %v > max_metric %v", ErrMalformedCriteria, c.MinMetric, c.MaxMetric)
	}
	if c.MinBedrooms < 0 {
		return fmt.Errorf("%w: negative min_bedrooms %d", ErrMalformedCriteria, c.MinBedrooms)
	}
	if math.IsNaN(c.MaxPrice) || c.MaxPrice < 0 {
		return fmt.Errorf("%w: invalid max_price %v", ErrMalformedCriteria, c.MaxPrice)
	}
	return nil
}

// InRange reports whether key falls in [MinMetric, MaxMetric).
func (c Criteria) InRange(key KeyType) bool {
	return key >= c.MinMetric && key < c.MaxMetric
}

// Match tests the non-key filters.
func (c Criteria) Match(p *Property) bool {
	if p == nil {
		return false
	}
	if c.City != "" && p.City != c.City {
		return false
	}
	if c.MinBedrooms > 0 && p.Bedrooms < c.MinBedrooms {
		return false
	}
	if c.MaxPrice > 0 && p.Price > c.MaxPrice {
		return false
	}
	return true
}

// criteriaJSON omits unbounded metric ends, which JSON cannot represent.
type criteriaJSON struct {
	City        string   `json:"city,omitempty"`
	MinBedrooms int      `json:"min_bedrooms,omitempty"`
	MaxPrice    float64  `json:"max_price,omitempty"`
	MinMetric   *float64 `json:"min_metric,omitempty"`
	MaxMetric   *float64 `json:"max_metric,omitempty"`
}

func (c Criteria) MarshalJSON() ([]byte, error) {
	out := criteriaJSON{
		City:        c.City,
		MinBedrooms: c.MinBedrooms,
		MaxPrice:    c.MaxPrice,
	}
	if !math.IsInf(c.MinMetric, 0) {
		v := c.MinMetric
		out.MinMetric = &v
	}
	if !math.IsInf(c.MaxMetric, 0) {
		v := c.MaxMetric
		out.MaxMetric = &v
	}
	return json.Marshal(out)
}

// UnmarshalJSON leaves an absent bound unbounded.
func (c *Criteria) UnmarshalJSON(data []byte) error {
	var in criteriaJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*c = NewCriteria()
	c.City = in.City
	c.MinBedrooms = in.MinBedrooms
	c.MaxPrice = in.MaxPrice
	if in.MinMetric != nil {
		c.MinMetric = *in.MinMetric
	}
	if in.MaxMetric != nil {
		c.MaxMetric = *in.MaxMetric
	}
	return nil
}
