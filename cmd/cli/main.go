package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
	"github.com/urfave/cli/v3"

	"propindex/pkg/client"
	"propindex/pkg/common"
	"propindex/pkg/render"
)

const Prompt = "propindex> "

func main() {
	cmd := &cli.Command{
		Name:  "propindex-cli",
		Usage: "interactive console for a propindex server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "propindex TCP server address",
				Value: "localhost:9090",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return repl(cmd.String("addr"))
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func repl(addr string) error {
	banner := putils.LettersFromStringWithStyle("Prop", pterm.NewStyle(pterm.FgCyan))
	index := putils.LettersFromStringWithStyle("Index", pterm.NewStyle(pterm.FgLightMagenta))
	pterm.DefaultBigText.WithLetters(banner, index).Render()
	pterm.Info.Printfln("Connecting to %s...", addr)

	c, err := client.Dial(addr)
	if err != nil {
		pterm.Warning.Println("Tip: ensure the server is running (e.g. go run ./cmd/server).")
		return fmt.Errorf("connection failed: %w", err)
	}
	defer c.Close()
	pterm.Success.Println("Connected! Type 'help' for commands.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(Prompt)
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !dispatch(c, line) {
			fmt.Println("Bye!")
			return nil
		}
	}
}

// dispatch runs one command line and reports whether the loop continues.
func dispatch(c *client.Client, line string) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case "put":
		handlePut(c, parts[1:])
	case "insert":
		handleInsert(c, parts[1:])
	case "get":
		handleGet(c, parts[1:])
	case "del", "rm":
		handleDel(c, parts[1:])
	case "search":
		handleSearch(c, parts[1:])
	case "sql":
		handleSQL(c, strings.TrimSpace(line[len(parts[0]):]))
	case "tree":
		handleTree(c)
	case "stats":
		handleStats(c)
	case "help":
		printHelp()
	case "exit", "quit":
		return false
	default:
		pterm.Warning.Printfln("Unknown command: '%s'. Type 'help'.", parts[0])
	}
	return true
}

// parseProperty reads city=.. bedrooms=.. bathrooms=.. price=.. surface=..
func parseProperty(args []string) (*common.Property, error) {
	p := &common.Property{}
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected field=value, got %q", arg)
		}
		var err error
		switch strings.ToLower(name) {
		case "city":
			p.City = value
		case "bedrooms":
			p.Bedrooms, err = strconv.Atoi(value)
		case "bathrooms":
			p.Bathrooms, err = strconv.Atoi(value)
		case "price":
			p.Price, err = strconv.ParseFloat(value, 64)
		case "surface", "surface_total":
			p.SurfaceTotal, err = strconv.ParseFloat(value, 64)
		default:
			return nil, fmt.Errorf("unknown field %q", name)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return p, nil
}

func parseCriteria(args []string) (common.Criteria, error) {
	c := common.NewCriteria()
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok {
			return c, fmt.Errorf("expected field=value, got %q", arg)
		}
		var err error
		switch strings.ToLower(name) {
		case "city":
			c.City = value
		case "bedrooms":
			c.MinBedrooms, err = strconv.Atoi(value)
		case "price":
			c.MaxPrice, err = strconv.ParseFloat(value, 64)
		case "min":
			c.MinMetric, err = strconv.ParseFloat(value, 64)
		case "max":
			c.MaxMetric, err = strconv.ParseFloat(value, 64)
		default:
			return c, fmt.Errorf("unknown criterion %q", name)
		}
		if err != nil {
			return c, fmt.Errorf("%s: %w", name, err)
		}
	}
	return c, nil
}

func parseKey(args []string) (common.KeyType, bool) {
	if len(args) < 1 {
		return 0, false
	}
	key, err := strconv.ParseFloat(args[0], 64)
	return key, err == nil
}

func handlePut(c *client.Client, args []string) {
	p, err := parseProperty(args)
	if err != nil {
		pterm.Error.Println(err)
		fmt.Println("Usage: put city=<text> bedrooms=<n> bathrooms=<n> price=<num> surface=<num>")
		return
	}
	start := time.Now()
	key, err := c.Put(p)
	if err != nil {
		pterm.Error.Println(err)
		return
	}
	pterm.Success.Printfln("Indexed under key %g (%v)", key, time.Since(start))
}

func handleInsert(c *client.Client, args []string) {
	key, ok := parseKey(args)
	if !ok {
		fmt.Println("Usage: insert <key> city=<text> bedrooms=<n> bathrooms=<n> price=<num> surface=<num>")
		return
	}
	p, err := parseProperty(args[1:])
	if err != nil {
		pterm.Error.Println(err)
		return
	}
	if err := c.Insert(key, p); err != nil {
		pterm.Error.Println(err)
		return
	}
	pterm.Success.Printfln("Inserted under key %g", key)
}

func handleGet(c *client.Client, args []string) {
	key, ok := parseKey(args)
	if !ok {
		fmt.Println("Usage: get <key>")
		return
	}
	start := time.Now()
	p, err := c.Get(key)
	duration := time.Since(start)
	if errors.Is(err, common.ErrNotFound) {
		pterm.Warning.Printfln("Key %g not found", key)
		return
	}
	if err != nil {
		pterm.Error.Println(err)
		return
	}
	fmt.Printf("%s (%v)\n", render.Label(key, p), duration)
}

func handleDel(c *client.Client, args []string) {
	key, ok := parseKey(args)
	if !ok {
		fmt.Println("Usage: del <key>")
		return
	}
	err := c.Delete(key)
	if errors.Is(err, common.ErrNotFound) {
		pterm.Warning.Printfln("Key %g not found", key)
		return
	}
	if err != nil {
		pterm.Error.Println(err)
		return
	}
	pterm.Success.Printfln("Deleted %g", key)
}

func handleSearch(c *client.Client, args []string) {
	crit, err := parseCriteria(args)
	if err != nil {
		pterm.Error.Println(err)
		fmt.Println("Usage: search [city=<text>] [bedrooms=<min>] [price=<max>] [min=<metric>] [max=<metric>]")
		return
	}
	records, err := c.Search(crit)
	if err != nil {
		pterm.Error.Println(err)
		return
	}
	printRecords(records)
}

func handleSQL(c *client.Client, stmt string) {
	records, err := c.Query(stmt)
	if err != nil {
		pterm.Error.Println(err)
		return
	}
	printRecords(records)
}

func handleTree(c *client.Client) {
	out, err := c.Tree()
	if err != nil {
		pterm.Error.Println(err)
		return
	}
	fmt.Print(out)
}

func handleStats(c *client.Client) {
	stats, err := c.Stats()
	if err != nil {
		pterm.Error.Println(err)
		return
	}
	items := make([]pterm.BulletListItem, 0, len(stats))
	for k, v := range stats {
		items = append(items, pterm.BulletListItem{Level: 0, Text: fmt.Sprintf("%s: %v", k, v)})
	}
	pterm.DefaultBulletList.WithItems(items).Render()
}

func printRecords(records []*common.Property) {
	if len(records) == 0 {
		pterm.Info.Println("No listings matched")
		return
	}
	const maxRows = 20
	shown := records
	if len(shown) > maxRows {
		shown = shown[:maxRows]
	}
	out, err := render.Table(shown)
	if err != nil {
		pterm.Error.Println(err)
		return
	}
	fmt.Print(out)
	if len(records) > maxRows {
		fmt.Printf("... and %d more\n", len(records)-maxRows)
	}
}

func printHelp() {
	fmt.Println(`
Commands:
  put city=.. bedrooms=.. bathrooms=.. price=.. surface=..   Index a listing by price/surface
  insert <key> city=.. bedrooms=.. ...                     Insert under an explicit key
  get <key>                                                Find a listing by key
  del <key>                                                Delete a listing by key
  search [city=..] [bedrooms=..] [price=..] [min=..] [max=..]
                                                           Criteria search, metric range [min, max)
  sql SELECT * FROM properties WHERE ... [LIMIT n]         Criteria search as a query
  tree                                                     Print the index tree
  stats                                                    Server statistics
  exit                                                     Exit CLI
	`)
}
