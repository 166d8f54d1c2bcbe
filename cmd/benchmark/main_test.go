package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSuiteBothEngines(t *testing.T) {
	listings, err := workload("", 500)
	require.NoError(t, err)

	var results []result
	for _, engine := range engines {
		r, err := runSuite(engine, 8, listings)
		require.NoError(t, err)
		assert.Equal(t, 500, r.records)
		for _, ph := range phases {
			assert.Contains(t, r.perOp, ph)
		}
		results = append(results, r)
	}
	assert.Equal(t, "AVL", results[0].engine)
	assert.Equal(t, "BTree", results[1].engine)

	path := filepath.Join(t.TempDir(), "bench.png")
	require.NoError(t, plotResults(results, path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRunSuiteRejectsEmptyWorkload(t *testing.T) {
	_, err := runSuite("avl", 8, nil)
	assert.Error(t, err)
}
