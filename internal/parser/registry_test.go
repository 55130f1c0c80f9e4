package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, name, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestRegistryDetectsOFM(t *testing.T) {
	reg := NewRegistry()
	header := "TIME,LAT,LON,DEPTH"
	kind, err := reg.Detect("soundings.csv", header)
	require.NoError(t, err)
	assert.Equal(t, KindOFM, kind)
}

func TestRegistryDetectsDCDBByPlatformColumn(t *testing.T) {
	reg := NewRegistry()
	header := "TIME,LAT,LON,DEPTH,PLATFORM_NAME"
	kind, err := reg.Detect("soundings.csv", header)
	require.NoError(t, err)
	assert.Equal(t, KindDCDB, kind)
}

func TestRegistryDetectUnknownHeaderFails(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Detect("soundings.csv", "A,B,C")
	require.Error(t, err)
	var identErr *ParserIdentifierError
	assert.ErrorAs(t, err, &identErr)
}

func TestRegistryGroupRejectsMixedKinds(t *testing.T) {
	reg := NewRegistry()
	headers := map[string]string{
		"a.csv": "TIME,LAT,LON,DEPTH",
		"b.csv": "TIME,LAT,LON,DEPTH,PLATFORM_NAME",
	}
	_, err := reg.Group([]string{"a.csv", "b.csv"}, headers)
	require.Error(t, err)
	var multiErr *MultipleParsersError
	assert.ErrorAs(t, err, &multiErr)
}

func TestOFMParserReadsRows(t *testing.T) {
	path := writeTempFile(t, "ofm.csv", "TIME,LAT,LON,DEPTH\n2024-01-01T00:00:00Z,44.5,-63.5,12.3\n2024-01-01T00:01:00Z,44.6,-63.6,bad\n")
	p := &OFMParser{}
	rows, stats, err := p.Read(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, stats.RowsRead)
	assert.Equal(t, 1, stats.RowsDropped)
	assert.Equal(t, 12.3, rows[0].DepthRawM)
}

func TestReadAllProcessesFilesConcurrently(t *testing.T) {
	reg := NewRegistry()
	p1 := writeTempFile(t, "a.csv", "TIME,LAT,LON,DEPTH\n2024-01-01T00:00:00Z,44.5,-63.5,12.3\n")
	p2 := writeTempFile(t, "b.csv", "TIME,LAT,LON,DEPTH,PLATFORM_NAME\n2024-01-01T00:00:00Z,44.5,-63.5,12.3,Vessel1\n")
	files := []string{p1, p2}
	headers := map[string]string{
		p1: "TIME,LAT,LON,DEPTH",
		p2: "TIME,LAT,LON,DEPTH,PLATFORM_NAME",
	}

	results := ReadAll(context.Background(), reg, files, headers, 2)
	require.Len(t, results, 2)
	for _, r := range results {
		require.NoError(t, r.Err)
		assert.Len(t, r.Rows, 1)
	}
}

func TestDedupAndSortRemovesExactDuplicatesAndOrdersByTime(t *testing.T) {
	path := writeTempFile(t, "dup.csv", "TIME,LAT,LON,DEPTH\n2024-01-01T00:02:00Z,44.5,-63.5,12.3\n2024-01-01T00:00:00Z,44.5,-63.5,12.3\n2024-01-01T00:00:00Z,44.5,-63.5,12.3\n")
	p := &OFMParser{}
	rows, _, err := p.Read(path)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	deduped := DedupAndSort(rows)
	require.Len(t, deduped, 2)
	assert.True(t, deduped[0].TimeUTC.Before(deduped[1].TimeUTC))
}
