package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlackBoxTimeReconstructsUTCFromDateAndTimeColumns(t *testing.T) {
	ts, ok := parseBlackBoxTime("15040550", "020106")
	require.True(t, ok)
	assert.Equal(t, time.Date(2006, 1, 2, 15, 4, 5, 500_000_000, time.UTC), ts)
}

func TestParseBlackBoxTimePadsShortFields(t *testing.T) {
	ts, ok := parseBlackBoxTime("10203", "20106")
	require.True(t, ok)
	assert.Equal(t, time.Date(2006, 1, 2, 10, 20, 30, 0, time.UTC), ts)
}

func TestBlackBoxParserReadsHeaderlessRows(t *testing.T) {
	path := writeTempFile(t, "blackbox.csv", "15040550,020106,44.5,-63.5,10.0,12.3\n15040650,020106,44.6,-63.6,,15.0\n")
	p := &BlackBoxParser{}
	rows, stats, err := p.Read(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, stats.RowsRead)
	assert.Equal(t, 0, stats.RowsDropped)

	first := rows[0]
	assert.Equal(t, time.Date(2006, 1, 2, 15, 4, 5, 500_000_000, time.UTC), first.TimeUTC)
	assert.Equal(t, 44.5, first.Latitude)
	assert.Equal(t, -63.5, first.Longitude)
	assert.Equal(t, 12.3, first.DepthRawM)
	require.NotNil(t, first.SpeedKn)
	assert.InDelta(t, 5.4, *first.SpeedKn, 1e-9)
	assert.Equal(t, string(KindBlackBox), first.Source)

	assert.Nil(t, rows[1].SpeedKn)
}

func TestBlackBoxParserDropsRowsWithUnparseableTime(t *testing.T) {
	path := writeTempFile(t, "blackbox.csv", "notatime,020106,44.5,-63.5,10.0,12.3\n")
	p := &BlackBoxParser{}
	rows, stats, err := p.Read(path)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, 1, stats.RowsRead)
	assert.Equal(t, 1, stats.RowsDropped)
}
