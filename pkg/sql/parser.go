package sql

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"propindex/pkg/common"
)

var ErrSyntax = errors.New("syntax error")

// Query is a parsed criteria search.
type Query struct {
	Table    string
	Criteria common.Criteria
	Limit    int // -1 means no limit
}

var (
	selectRe = regexp.MustCompile(`(?is)^SELECT\s+\*\s+FROM\s+([a-zA-Z_][a-zA-Z0-9_]*)(?:\s+WHERE\s+(.+?))?(?:\s+LIMIT\s+(\d+))?$`)
	condRe   = regexp.MustCompile(`(?i)^\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*(>=|<=|=|<|>)\s*('[^']*'|[^\s']+)\s*(?:AND\s+|$)`)
)

// Parse parses
//
//	SELECT * FROM <table> [WHERE <cond> [AND <cond>]...] [LIMIT <n>]
//
// where each cond is one of city = '<text>', bedrooms >= <int>,
// price <= <num>, metric >= <num> or metric < <num>.
func Parse(s string) (*Query, error) {
	orig := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ";"))
	if orig == "" {
		return nil, fmt.Errorf("%w: empty query", ErrSyntax)
	}

	matches := selectRe.FindStringSubmatch(orig)
	if matches == nil {
		return nil, fmt.Errorf("%w: expected SELECT * FROM <table> [WHERE <cond> [AND <cond>]...] [LIMIT <n>]", ErrSyntax)
	}

	q := &Query{
		Table:    matches[1],
		Criteria: common.NewCriteria(),
		Limit:    -1,
	}

	if where := matches[2]; where != "" {
		if err := parseWhere(where, &q.Criteria); err != nil {
			return nil, err
		}
	}

	if matches[3] != "" {
		limit, err := strconv.Atoi(matches[3])
		if err != nil {
			return nil, fmt.Errorf("%w: invalid LIMIT value", ErrSyntax)
		}
		q.Limit = limit
	}

	if err := q.Criteria.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

func parseWhere(where string, c *common.Criteria) error {
	seen := map[string]bool{}
	rest := where
	for rest != "" {
		m := condRe.FindStringSubmatchIndex(rest)
		if m == nil {
			return fmt.Errorf("%w: cannot parse condition near %q", ErrSyntax, rest)
		}
		field := strings.ToLower(rest[m[2]:m[3]])
		op := rest[m[4]:m[5]]
		value := rest[m[6]:m[7]]
		rest = rest[m[1]:]

		clause := field + " " + op
		if seen[clause] {
			return fmt.Errorf("%w: duplicate condition %s", ErrSyntax, clause)
		}
		seen[clause] = true

		if err := apply(c, field, op, value); err != nil {
			return err
		}
	}
	return nil
}

func apply(c *common.Criteria, field, op, value string) error {
	switch field + " " + op {
	case "city =":
		if len(value) < 2 || value[0] != '\'' || value[len(value)-1] != '\'' {
			return fmt.Errorf("%w: city expects a quoted string", ErrSyntax)
		}
		c.City = value[1 : len(value)-1]
	case "bedrooms >=":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: bedrooms expects an integer, got %s", ErrSyntax, value)
		}
		c.MinBedrooms = n
	case "price <=":
		v, err := parseNumber(value)
		if err != nil {
			return err
		}
		c.MaxPrice = v
	case "metric >=":
		v, err := parseNumber(value)
		if err != nil {
			return err
		}
		c.MinMetric = v
	case "metric <":
		v, err := parseNumber(value)
		if err != nil {
			return err
		}
		c.MaxMetric = v
	default:
		return fmt.Errorf("%w: unsupported condition %s %s", ErrSyntax, field, op)
	}
	return nil
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: invalid number %s", ErrSyntax, s)
	}
	return v, nil
}

// Apply truncates results to the query limit.
func (q *Query) Apply(records []*common.Property) []*common.Property {
	if q.Limit >= 0 && len(records) > q.Limit {
		return records[:q.Limit]
	}
	return records
}
