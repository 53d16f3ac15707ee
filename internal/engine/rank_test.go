package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Favouriteg2/kms-analytics/internal/order"
	"github.com/Favouriteg2/kms-analytics/internal/query"
	"github.com/Favouriteg2/kms-analytics/internal/table"
)

func regionRows(t *testing.T, sales map[string]string) []order.Order {
	t.Helper()
	var rows []order.Order
	id := int64(1)
	for region, amount := range sales {
		rows = append(rows, order.Order{RowID: id, Region: region, Sales: dec(t, amount)})
		id++
	}
	return rows
}

// TestApplyRank_MirrorLaw tests that within one partition both directions
// assign each rank 1..N exactly once and rank_asc + rank_desc = N + 1.
func TestApplyRank_MirrorLaw(t *testing.T) {
	rows := regionRows(t, map[string]string{
		"West":    "400.00",
		"East":    "300.00",
		"Prairie": "200.00",
		"Ontario": "100.00",
		"Yukon":   "50.00",
	})
	spec := &query.Spec{
		GroupBy:    []string{"region"},
		Aggregates: []query.Aggregate{{Name: "total_sales", Func: query.FuncSum, Of: "sales"}},
		Rank:       &query.RankWindow{By: "total_sales"},
	}

	res, err := Execute(context.Background(), rows, spec)
	require.NoError(t, err)
	require.Len(t, res.Rows, 5)

	n := int64(len(res.Rows))
	seenAsc := make(map[int64]bool)
	seenDesc := make(map[int64]bool)
	for i := range res.Rows {
		asc := int64(cell(t, res, i, "rank_asc").(table.Int))
		desc := int64(cell(t, res, i, "rank_desc").(table.Int))
		assert.Equal(t, n+1, asc+desc)
		seenAsc[asc] = true
		seenDesc[desc] = true
	}
	assert.Len(t, seenAsc, int(n), "ascending ranks are a permutation of 1..N")
	assert.Len(t, seenDesc, int(n), "descending ranks are a permutation of 1..N")
}

// TestApplyRank_TieBreak tests that equal By values rank deterministically
// by group key, keeping both directions exact permutations.
func TestApplyRank_TieBreak(t *testing.T) {
	rows := regionRows(t, map[string]string{
		"West": "100.00",
		"East": "100.00",
	})
	spec := &query.Spec{
		GroupBy:    []string{"region"},
		Aggregates: []query.Aggregate{{Name: "total_sales", Func: query.FuncSum, Of: "sales"}},
		Rank:       &query.RankWindow{By: "total_sales"},
		OrderBy:    []query.SortKey{{Column: "rank_asc"}},
	}

	res, err := Execute(context.Background(), rows, spec)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)

	// East sorts before West on the key tie-break.
	assert.Equal(t, "East", cellText(t, res, 0, "region"))
	assert.Equal(t, "1", cellText(t, res, 0, "rank_asc"))
	assert.Equal(t, "2", cellText(t, res, 0, "rank_desc"))
	assert.Equal(t, "West", cellText(t, res, 1, "region"))
	assert.Equal(t, "2", cellText(t, res, 1, "rank_asc"))
	assert.Equal(t, "1", cellText(t, res, 1, "rank_desc"))
}

// TestApplyRank_Keep tests the single-pass top-and-bottom window.
func TestApplyRank_Keep(t *testing.T) {
	rows := regionRows(t, map[string]string{
		"West":     "500.00",
		"East":     "400.00",
		"Prairie":  "300.00",
		"Ontario":  "200.00",
		"Quebec":   "100.00",
		"Atlantic": "50.00",
	})
	spec := &query.Spec{
		GroupBy:    []string{"region"},
		Aggregates: []query.Aggregate{{Name: "total_sales", Func: query.FuncSum, Of: "sales"}},
		Rank:       &query.RankWindow{By: "total_sales", Keep: 2},
		OrderBy:    []query.SortKey{{Column: "total_sales", Desc: true}},
	}

	res, err := Execute(context.Background(), rows, spec)
	require.NoError(t, err)
	require.Len(t, res.Rows, 4, "top 2 plus bottom 2")

	assert.Equal(t, "West", cellText(t, res, 0, "region"))
	assert.Equal(t, "East", cellText(t, res, 1, "region"))
	assert.Equal(t, "Quebec", cellText(t, res, 2, "region"))
	assert.Equal(t, "Atlantic", cellText(t, res, 3, "region"))
}

// TestApplyRank_KeepOverlap tests that when both ends overlap every row
// survives.
func TestApplyRank_KeepOverlap(t *testing.T) {
	rows := regionRows(t, map[string]string{
		"West": "200.00",
		"East": "100.00",
	})
	spec := &query.Spec{
		GroupBy:    []string{"region"},
		Aggregates: []query.Aggregate{{Name: "total_sales", Func: query.FuncSum, Of: "sales"}},
		Rank:       &query.RankWindow{By: "total_sales", Keep: 3},
	}

	res, err := Execute(context.Background(), rows, spec)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)
}

// TestApplyRank_Partitioned tests independent rank sequences per partition.
func TestApplyRank_Partitioned(t *testing.T) {
	rows := []order.Order{
		{RowID: 1, Region: "West", CustomerSegment: order.SegmentConsumer, Sales: dec(t, "100.00")},
		{RowID: 2, Region: "East", CustomerSegment: order.SegmentConsumer, Sales: dec(t, "200.00")},
		{RowID: 3, Region: "West", CustomerSegment: order.SegmentCorporate, Sales: dec(t, "300.00")},
		{RowID: 4, Region: "East", CustomerSegment: order.SegmentCorporate, Sales: dec(t, "50.00")},
	}
	spec := &query.Spec{
		GroupBy:    []string{"customer_segment", "region"},
		Aggregates: []query.Aggregate{{Name: "total_sales", Func: query.FuncSum, Of: "sales"}},
		Rank:       &query.RankWindow{PartitionBy: []string{"customer_segment"}, By: "total_sales"},
	}

	res, err := Execute(context.Background(), rows, spec)
	require.NoError(t, err)
	require.Len(t, res.Rows, 4)

	for i := range res.Rows {
		asc := int64(cell(t, res, i, "rank_asc").(table.Int))
		assert.LessOrEqual(t, asc, int64(2), "each partition has two rows")
	}
}
