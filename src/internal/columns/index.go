// FILE: arrowship/src/internal/columns/index.go
package columns

import (
	"fmt"

	"arrowship/src/internal/core"
)

// Index maps parent record ids to the attribute row positions that
// belong to them, in table order. Built once per attribute table and
// valid only for that table.
type Index struct {
	positions map[uint16][]int32
	orphans   int
}

// BuildIndex scans the parent_id column in one pass. Duplicate
// parents accumulate positions; rows with a null parent cannot be
// attached and are counted as orphans. A nil table yields an empty
// index.
func BuildIndex(a *Attrs) (*Index, error) {
	ix := &Index{positions: make(map[uint16][]int32)}
	if a == nil {
		return ix, nil
	}
	if got := a.parent.Len(); got < a.rows {
		return nil, &core.MalformedInputError{
			Table:  a.table,
			Reason: fmt.Sprintf("parent_id column has %d rows, table has %d", got, a.rows),
		}
	}
	for i := 0; i < a.rows; i++ {
		if a.parent.IsNull(i) {
			ix.orphans++
			continue
		}
		pid := a.parent.Value(i)
		ix.positions[pid] = append(ix.positions[pid], int32(i))
	}
	return ix, nil
}

// Rows returns the positions for parent, in original table order. A
// nil index has no rows.
func (ix *Index) Rows(parent uint16) []int32 {
	if ix == nil {
		return nil
	}
	return ix.positions[parent]
}

// Parents returns the number of distinct parents indexed.
func (ix *Index) Parents() int {
	if ix == nil {
		return 0
	}
	return len(ix.positions)
}

// Orphans returns how many rows had a null parent id.
func (ix *Index) Orphans() int {
	if ix == nil {
		return 0
	}
	return ix.orphans
}
