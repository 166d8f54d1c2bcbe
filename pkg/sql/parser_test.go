package sql

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propindex/pkg/common"
)

func TestParse(t *testing.T) {
	all := common.NewCriteria()
	tests := []struct {
		name  string
		sql   string
		table string
		limit int
		want  common.Criteria
	}{
		{"bare", "SELECT * FROM properties", "properties", -1, all},
		{"lowercase with semicolon", "select * from properties;", "properties", -1, all},
		{"limit", "SELECT * FROM properties LIMIT 10", "properties", 10, all},
		{
			name:  "all conditions",
			sql:   "SELECT * FROM properties WHERE city = 'Santa Marta AND Co' AND bedrooms >= 2 AND price <= 5e8 AND metric >= 1.5 AND metric < 900 LIMIT 3",
			table: "properties",
			limit: 3,
			want: common.Criteria{
				City:        "Santa Marta AND Co",
				MinBedrooms: 2,
				MaxPrice:    5e8,
				MinMetric:   1.5,
				MaxMetric:   900,
			},
		},
		{
			name:  "only upper bound",
			sql:   "SELECT * FROM co_properties where metric < 15",
			table: "co_properties",
			limit: -1,
			want:  common.Criteria{MinMetric: math.Inf(-1), MaxMetric: 15},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(tt.sql)
			require.NoError(t, err)
			assert.Equal(t, tt.table, q.Table)
			assert.Equal(t, tt.limit, q.Limit)
			assert.Equal(t, tt.want, q.Criteria)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		sql     string
		wantErr error
	}{
		{"empty", "", ErrSyntax},
		{"projection", "SELECT city FROM properties", ErrSyntax},
		{"insert", "INSERT INTO properties", ErrSyntax},
		{"unsupported field", "SELECT * FROM properties WHERE id = 1", ErrSyntax},
		{"unsupported operator", "SELECT * FROM properties WHERE price >= 10", ErrSyntax},
		{"unquoted city", "SELECT * FROM properties WHERE city = Cali", ErrSyntax},
		{"fractional bedrooms", "SELECT * FROM properties WHERE bedrooms >= 2.5", ErrSyntax},
		{"duplicate", "SELECT * FROM properties WHERE metric >= 1 AND metric >= 2", ErrSyntax},
		{"dangling and", "SELECT * FROM properties WHERE metric >= 1 AND", ErrSyntax},
		{"inverted range", "SELECT * FROM properties WHERE metric >= 10 AND metric < 5", common.ErrMalformedCriteria},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.sql)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestQueryApplyLimit(t *testing.T) {
	records := []*common.Property{{City: "a"}, {City: "b"}, {City: "c"}}

	q, err := Parse("SELECT * FROM properties LIMIT 2")
	require.NoError(t, err)
	assert.Len(t, q.Apply(records), 2)

	q, err = Parse("SELECT * FROM properties LIMIT 0")
	require.NoError(t, err)
	assert.Empty(t, q.Apply(records))

	q, err = Parse("SELECT * FROM properties")
	require.NoError(t, err)
	assert.Len(t, q.Apply(records), 3)
}
