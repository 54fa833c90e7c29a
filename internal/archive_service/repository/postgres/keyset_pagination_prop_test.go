package postgres

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/enerhub/edi_services/internal/archive_service/domain"
)

// pageRow is the keyset-relevant projection of an archived row: the sort
// value plus the record id tie-breaker.
type pageRow struct {
	recordID  int64
	createdAt time.Time
}

// displayLess is the total display order Search promises: the sort column in
// the requested direction with record_id descending as the invariable
// tie-breaker.
func displayLess(a, b pageRow, descending bool) bool {
	if !a.createdAt.Equal(b.createdAt) {
		if descending {
			return a.createdAt.After(b.createdAt)
		}
		return a.createdAt.Before(b.createdAt)
	}
	return a.recordID > b.recordID
}

// selectPage applies the same cursor predicate, fetch order, limit and
// backward-page reversal the repository compiles into SQL, over an in-memory
// slice.
func selectPage(rows []pageRow, page domain.Pagination) []pageRow {
	descending := page.Direction == domain.Descending

	var admitted []pageRow
	for _, r := range rows {
		if page.Cursor == nil {
			admitted = append(admitted, r)
			continue
		}
		v := page.Cursor.SortValue.TimeValue()
		id := page.Cursor.RecordID
		var valuePasses bool
		if descending == page.Forward {
			valuePasses = r.createdAt.Before(v)
		} else {
			valuePasses = r.createdAt.After(v)
		}
		idPasses := r.recordID < id
		if !page.Forward {
			idPasses = r.recordID > id
		}
		if valuePasses || (r.createdAt.Equal(v) && idPasses) {
			admitted = append(admitted, r)
		}
	}

	fetchDescending := descending == page.Forward
	sort.SliceStable(admitted, func(i, j int) bool {
		a, b := admitted[i], admitted[j]
		if !a.createdAt.Equal(b.createdAt) {
			if fetchDescending {
				return a.createdAt.After(b.createdAt)
			}
			return a.createdAt.Before(b.createdAt)
		}
		if page.Forward {
			return a.recordID > b.recordID
		}
		return a.recordID < b.recordID
	})

	if len(admitted) > page.PageSize {
		admitted = admitted[:page.PageSize]
	}
	if !page.Forward {
		for i, j := 0, len(admitted)-1; i < j; i, j = i+1, j-1 {
			admitted[i], admitted[j] = admitted[j], admitted[i]
		}
	}
	return admitted
}

func rowSet(t *rapid.T) []pageRow {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	n := rapid.IntRange(1, 40).Draw(t, "rows")
	rows := make([]pageRow, n)
	for i := range rows {
		// A small value domain forces duplicate sort values, so the
		// record id tie-break actually decides order.
		hour := rapid.IntRange(0, 4).Draw(t, "hour")
		rows[i] = pageRow{recordID: int64(i + 1), createdAt: base.Add(time.Duration(hour) * time.Hour)}
	}
	return rows
}

func direction(t *rapid.T) domain.SortDirection {
	if rapid.Bool().Draw(t, "descending") {
		return domain.Descending
	}
	return domain.Ascending
}

func cursorAfter(r pageRow) *domain.Cursor {
	return &domain.Cursor{SortValue: domain.TimeCursorValue(r.createdAt), RecordID: r.recordID}
}

// Concatenating all forward pages reproduces the full result set in display
// order, with no row repeated or dropped across page boundaries.
func TestKeysetPagination_ForwardWalkReproducesSequence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rows := rowSet(t)
		dir := direction(t)
		pageSize := rapid.IntRange(1, 7).Draw(t, "pageSize")

		want := append([]pageRow(nil), rows...)
		sort.SliceStable(want, func(i, j int) bool {
			return displayLess(want[i], want[j], dir == domain.Descending)
		})

		var walked []pageRow
		var cursor *domain.Cursor
		for {
			page, err := domain.NewPagination(pageSize, domain.SortByCreatedAt, dir, cursor, true)
			require.NoError(t, err)
			got := selectPage(rows, page)
			if len(got) == 0 {
				break
			}
			walked = append(walked, got...)
			cursor = cursorAfter(got[len(got)-1])
		}

		require.Equal(t, want, walked)
	})
}

// A backward page taken from the first row of any forward page returns
// exactly the preceding forward page, so paging forward and then back lands
// on the same rows.
func TestKeysetPagination_BackwardPageReturnsToPreviousPage(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rows := rowSet(t)
		dir := direction(t)
		pageSize := rapid.IntRange(1, 7).Draw(t, "pageSize")

		var pages [][]pageRow
		var cursor *domain.Cursor
		for {
			page, err := domain.NewPagination(pageSize, domain.SortByCreatedAt, dir, cursor, true)
			require.NoError(t, err)
			got := selectPage(rows, page)
			if len(got) == 0 {
				break
			}
			pages = append(pages, got)
			cursor = cursorAfter(got[len(got)-1])
		}

		for k := 1; k < len(pages); k++ {
			back, err := domain.NewPagination(pageSize, domain.SortByCreatedAt, dir,
				cursorAfter(pages[k][0]), false)
			require.NoError(t, err)
			require.Equal(t, pages[k-1], selectPage(rows, back),
				"backward page from page %d should be page %d", k, k-1)
		}
	})
}

// The cursor predicate admits exactly the rows strictly after (forward) or
// strictly before (backward) the cursor row in display order.
func TestKeysetPagination_PredicateMatchesDisplayPosition(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rows := rowSet(t)
		dir := direction(t)
		pivot := rows[rapid.IntRange(0, len(rows)-1).Draw(t, "pivot")]
		forward := rapid.Bool().Draw(t, "forward")

		page, err := domain.NewPagination(len(rows), domain.SortByCreatedAt, dir, cursorAfter(pivot), forward)
		require.NoError(t, err)
		got := selectPage(rows, page)

		ordered := append([]pageRow(nil), rows...)
		sort.SliceStable(ordered, func(i, j int) bool {
			return displayLess(ordered[i], ordered[j], dir == domain.Descending)
		})
		pos := -1
		for i, r := range ordered {
			if r.recordID == pivot.recordID {
				pos = i
				break
			}
		}
		require.NotEqual(t, -1, pos)

		want := ordered[pos+1:]
		if !forward {
			want = ordered[:pos]
		}
		if len(want) == 0 {
			want = nil
		}
		require.Equal(t, want, got)
	})
}
