package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v3"

	"propindex/pkg/common"
	"propindex/pkg/core"
	"propindex/pkg/storage"
)

var engines = []string{"avl", "btree"}

func main() {
	cmd := &cli.Command{
		Name:  "propindex-benchmark",
		Usage: "compare the AVL and B-Tree index engines",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "n",
				Usage: "synthetic listings per run (ignored with --dataset)",
				Value: 100000,
			},
			&cli.StringFlag{
				Name:  "dataset",
				Usage: "benchmark on a real dataset (.csv or SQLite)",
			},
			&cli.IntFlag{
				Name:  "degree",
				Usage: "B-Tree degree",
				Value: 32,
			},
			&cli.StringFlag{
				Name:  "png",
				Usage: "write a bar chart of the results to this file",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			listings, err := workload(cmd.String("dataset"), int(cmd.Int("n")))
			if err != nil {
				return err
			}
			pterm.Info.Printfln("propindex engine benchmark (N=%d)", len(listings))

			var results []result
			for _, engine := range engines {
				r, err := runSuite(engine, int(cmd.Int("degree")), listings)
				if err != nil {
					return err
				}
				results = append(results, r)
			}

			if err := printResults(results); err != nil {
				return err
			}
			if path := cmd.String("png"); path != "" {
				if err := plotResults(results, path); err != nil {
					return err
				}
				pterm.Success.Printfln("chart written to %s", path)
			}
			return nil
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func workload(dataset string, n int) ([]*common.Property, error) {
	if dataset != "" {
		src, err := storage.Open(dataset, "")
		if err != nil {
			return nil, err
		}
		defer src.Close()
		rows, err := src.LoadAll()
		if err != nil {
			return nil, err
		}
		out := make([]*common.Property, len(rows))
		for i := range rows {
			out[i] = &rows[i]
		}
		return out, nil
	}

	rng := rand.New(rand.NewPCG(1, 2))
	cities := []string{"Bogotá", "Medellín", "Cali", "Barranquilla", "Cartagena"}
	out := make([]*common.Property, n)
	for i := range out {
		out[i] = &common.Property{
			City:         cities[rng.IntN(len(cities))],
			Bedrooms:     1 + rng.IntN(5),
			Bathrooms:    1 + rng.IntN(3),
			Price:        float64(50+rng.IntN(2000)) * 1e6,
			SurfaceTotal: float64(30 + rng.IntN(400)),
		}
	}
	return out, nil
}

// phase names, in chart order
var phases = []string{"insert", "get", "search", "delete"}

type result struct {
	engine  string
	records int
	perOp   map[string]time.Duration
}

func runSuite(engine string, degree int, listings []*common.Property) (result, error) {
	idx, err := core.NewIndex(engine, degree)
	if err != nil {
		return result{}, err
	}
	r := result{engine: idx.Type(), perOp: map[string]time.Duration{}}

	keys := make([]common.KeyType, 0, len(listings))
	start := time.Now()
	for _, p := range listings {
		k, err := idx.InsertProperty(p)
		if err != nil {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return r, fmt.Errorf("%s: no valid listings to index", engine)
	}
	r.perOp["insert"] = time.Since(start) / time.Duration(len(keys))
	r.records = idx.Len()

	start = time.Now()
	for _, k := range keys {
		_, _ = idx.FindByKey(k)
	}
	r.perOp["get"] = time.Since(start) / time.Duration(len(keys))

	const searches = 200
	rng := rand.New(rand.NewPCG(3, 4))
	start = time.Now()
	for i := 0; i < searches; i++ {
		lo := keys[rng.IntN(len(keys))]
		c := common.NewCriteria()
		c.MinMetric, c.MaxMetric = lo, lo*1.05
		c.MinBedrooms = 2
		_, _ = idx.FindByCriteria(c)
	}
	r.perOp["search"] = time.Since(start) / searches

	start = time.Now()
	for _, k := range keys {
		idx.DeleteByKey(k)
	}
	r.perOp["delete"] = time.Since(start) / time.Duration(len(keys))

	return r, nil
}

func printResults(results []result) error {
	data := pterm.TableData{append([]string{"Engine", "Records"}, phases...)}
	for _, r := range results {
		row := []string{r.engine, fmt.Sprint(r.records)}
		for _, ph := range phases {
			row = append(row, r.perOp[ph].String())
		}
		data = append(data, row)
	}
	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render()
}
