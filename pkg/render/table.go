package render

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"

	"propindex/pkg/common"
)

// Table renders records as a boxed table with a header row.
func Table(records []*common.Property) (string, error) {
	data := pterm.TableData{{"#", "City", "Bedrooms", "Bathrooms", "Price", "Surface", "Price/Surface"}}
	for i, p := range records {
		metric := "-"
		if m, err := p.PrimaryMetric(); err == nil {
			metric = fmt.Sprintf("%.2f", m)
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			p.City,
			strconv.Itoa(p.Bedrooms),
			strconv.Itoa(p.Bathrooms),
			fmt.Sprintf("%.2f", p.Price),
			fmt.Sprintf("%.2f", p.SurfaceTotal),
			metric,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
}
