package importer

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *log.Logger {
	return log.New(io.Discard)
}

func TestReadSearchEvents(t *testing.T) {
	feed := strings.Join([]string{
		`{"query":"rtx 4090 ti","originalQuery":"rtx 4090ti","resultCount":0,"category":"GPUs","timestamp":"2026-08-20T10:00:00Z"}`,
		``,
		`not json at all`,
		`{"query":"ddr5 ram","resultCount":14,"timestamp":"2026-08-21T09:30:00Z"}`,
	}, "\n")

	events, err := ReadSearchEvents(strings.NewReader(feed), discard())
	require.NoError(t, err)
	require.Len(t, events, 2, "blank and malformed lines are skipped")

	assert.Equal(t, "rtx 4090 ti", events[0].Query)
	assert.Equal(t, "rtx 4090ti", events[0].OriginalQuery)
	assert.Equal(t, "GPUs", events[0].Category)
	assert.Equal(t, 0, events[0].ResultCount)
	assert.Equal(t, "ddr5 ram", events[1].Query)
}

func TestReadZeroResultEvents(t *testing.T) {
	feed := `{"query":"vertical gpu mount","timestamp":"2026-08-25T12:00:00Z"}
{"query":"vertical gpu mount","timestamp":"2026-08-26T12:00:00Z"}`

	events, err := ReadZeroResultEvents(strings.NewReader(feed), discard())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "vertical gpu mount", events[0].Query)
}

func TestReadInventory(t *testing.T) {
	feed := `{"name":"NZXT Kraken 240","stockLevel":12}
{"name":"Unlisted Stock Item"}`

	items, err := ReadInventory(strings.NewReader(feed), discard())
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NotNil(t, items[0].StockLevel)
	assert.Equal(t, 12, *items[0].StockLevel)
	assert.Nil(t, items[1].StockLevel)
}

func TestReadConversions(t *testing.T) {
	feed := strings.Join([]string{
		`{"query":"rtx 4090 ti","addToCart":3,"checkout":2,"revenue":"3299.98"}`,
		`{"addToCart":1,"checkout":0,"revenue":"0"}`,
		`{"query":"rtx 4090 ti","addToCart":4,"checkout":2,"revenue":"3299.98"}`,
	}, "\n")

	conversions, err := ReadConversions(strings.NewReader(feed), discard())
	require.NoError(t, err)
	require.Len(t, conversions, 1, "rows without a query are skipped")

	stats := conversions["rtx 4090 ti"]
	assert.Equal(t, 4, stats.AddToCart, "later rows replace earlier ones")
	assert.Equal(t, 2, stats.Checkout)
	assert.True(t, stats.Revenue.Equal(decimal.RequireFromString("3299.98")))
}
