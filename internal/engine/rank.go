package engine

import (
	"sort"

	"github.com/Favouriteg2/kms-analytics/internal/query"
	"github.com/Favouriteg2/kms-analytics/internal/table"
)

// applyRank assigns both-direction dense ranks within each partition and
// appends them as rank_asc / rank_desc Int columns. With the group-key
// tie-break the ordering within a partition is total, so the descending
// rank is the mirror of the ascending one: both directions assign each of
// 1..N exactly once.
//
// When the window's Keep is set, only rows ranked <= Keep from either end
// survive - the single-pass replacement for the usual pair of independent
// top-N and bottom-N queries, immune to drift when ties sit at the
// boundary.
func applyRank(res *Result, spec *query.Spec) {
	byIdx := res.ColumnIndex(spec.Rank.By)

	partIdx := make([]int, len(spec.Rank.PartitionBy))
	for i, name := range spec.Rank.PartitionBy {
		partIdx[i] = res.ColumnIndex(name)
	}
	keyIdx := make([]int, len(spec.GroupBy))
	for i, name := range spec.GroupBy {
		keyIdx[i] = res.ColumnIndex(name)
	}

	// Partition rows. Empty PartitionBy means one partition over everything.
	partitions := make(map[string][]int)
	var partOrder []string
	for i, row := range res.Rows {
		key := ""
		for _, idx := range partIdx {
			key += table.Canonical(row[idx]) + "\x1f"
		}
		if _, ok := partitions[key]; !ok {
			partOrder = append(partOrder, key)
		}
		partitions[key] = append(partitions[key], i)
	}

	ranksAsc := make([]int64, len(res.Rows))
	ranksDesc := make([]int64, len(res.Rows))

	for _, key := range partOrder {
		idxs := partitions[key]
		sort.SliceStable(idxs, func(a, b int) bool {
			cmp := table.Compare(res.Rows[idxs[a]][byIdx], res.Rows[idxs[b]][byIdx])
			if cmp != 0 {
				return cmp < 0
			}
			// Tie-break by group key tuple for determinism.
			for _, k := range keyIdx {
				if c := table.Compare(res.Rows[idxs[a]][k], res.Rows[idxs[b]][k]); c != 0 {
					return c < 0
				}
			}
			return false
		})
		n := int64(len(idxs))
		for pos, rowIdx := range idxs {
			ranksAsc[rowIdx] = int64(pos) + 1
			ranksDesc[rowIdx] = n - int64(pos)
		}
	}

	res.Columns = append(res.Columns,
		table.Column{Name: query.RankAscColumn, Kind: table.KindInt},
		table.Column{Name: query.RankDescColumn, Kind: table.KindInt},
	)

	keep := spec.Rank.Keep
	rows := res.Rows[:0:0]
	for i, row := range res.Rows {
		if keep > 0 && ranksAsc[i] > int64(keep) && ranksDesc[i] > int64(keep) {
			continue
		}
		rows = append(rows, append(row, table.Int(ranksAsc[i]), table.Int(ranksDesc[i])))
	}
	res.Rows = rows
}
