package client

import (
	"net"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propindex/pkg/common"
	"propindex/pkg/config"
	"propindex/pkg/core"
	"propindex/pkg/network"
)

func startServer(t *testing.T) string {
	t.Helper()
	store, err := core.NewStore(config.Default(), nil)
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := network.NewTCPServer(store, nil)
	done := make(chan error, 1)
	go func() { done <- srv.Serve(l) }()
	t.Cleanup(func() {
		assert.NoError(t, srv.Close())
		assert.NoError(t, <-done)
	})
	return l.Addr().String()
}

func dial(t *testing.T) *Client {
	t.Helper()
	c, err := Dial(startServer(t))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestDialInvalidAddr(t *testing.T) {
	_, err := Dial("invalid:invalid:invalid")
	assert.Error(t, err)
}

func TestPutGetDelete(t *testing.T) {
	c := dial(t)

	key, err := c.Put(&common.Property{City: "Cali", Bedrooms: 2, Bathrooms: 1, Price: 1000, SurfaceTotal: 10})
	require.NoError(t, err)
	assert.Equal(t, 100.0, key)

	p, err := c.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "Cali", p.City)
	assert.Equal(t, 10.0, p.SurfaceTotal)

	require.NoError(t, c.Delete(key))
	assert.ErrorIs(t, c.Delete(key), common.ErrNotFound)

	_, err = c.Get(key)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestServerErrorsMapToSentinels(t *testing.T) {
	c := dial(t)

	_, err := c.Put(&common.Property{City: "Cali", Price: 1000, SurfaceTotal: 0})
	assert.ErrorIs(t, err, common.ErrInvalidRecord)

	bad := common.NewCriteria()
	bad.MinMetric, bad.MaxMetric = 9, 1
	_, err = c.Search(bad)
	assert.ErrorIs(t, err, common.ErrMalformedCriteria)

	_, err = c.Query("DROP TABLE properties")
	assert.ErrorIs(t, err, common.ErrMalformedCriteria)

	// the connection stays usable after error replies
	_, err = c.Stats()
	assert.NoError(t, err)
}

func TestSearchQueryTreeStats(t *testing.T) {
	c := dial(t)

	for _, p := range []*common.Property{
		{City: "Cali", Bedrooms: 3, Bathrooms: 2, Price: 600, SurfaceTotal: 10},
		{City: "Cali", Bedrooms: 1, Bathrooms: 1, Price: 200, SurfaceTotal: 10},
		{City: "Pasto", Bedrooms: 4, Bathrooms: 2, Price: 900, SurfaceTotal: 10},
	} {
		_, err := c.Put(p)
		require.NoError(t, err)
	}
	require.NoError(t, c.Insert(5, &common.Property{City: "Cali", Bedrooms: 5, Price: 50, SurfaceTotal: 10}))

	crit := common.NewCriteria()
	crit.City = "Cali"
	crit.MinBedrooms = 2
	got, err := c.Search(crit)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 5, got[0].Bedrooms, "results come in key order")
	assert.Equal(t, 3, got[1].Bedrooms)

	got, err = c.Query("SELECT * FROM properties WHERE metric >= 20 AND metric < 90 LIMIT 1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 200.0, got[0].Price)

	tree, err := c.Tree()
	require.NoError(t, err)
	assert.Contains(t, pterm.RemoveColorFromString(tree), "Key: 60, Data:")

	stats, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, "AVL", stats["engine"])
	assert.Equal(t, 4.0, stats["record_count"])
}
