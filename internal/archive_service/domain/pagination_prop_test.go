package domain

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

var sortFieldGen = rapid.SampledFrom([]SortField{
	SortByMessageID, SortByCreatedAt, SortBySenderNumber,
	SortByReceiverNumber, SortByDocumentType,
})

func cursorGen(field SortField) *rapid.Generator[*Cursor] {
	return rapid.Custom(func(t *rapid.T) *Cursor {
		if rapid.Bool().Draw(t, "nilCursor") {
			return nil
		}
		recordID := rapid.Int64Range(1, 1<<40).Draw(t, "recordID")
		if field.IsTimestamp() {
			unix := rapid.Int64Range(0, 4102444800).Draw(t, "unix")
			return &Cursor{SortValue: TimeCursorValue(time.Unix(unix, 0)), RecordID: recordID}
		}
		return &Cursor{SortValue: StringCursorValue(rapid.String().Draw(t, "sortValue")), RecordID: recordID}
	})
}

// A pagination built from a well-typed cursor always validates, keeps the
// caller's inputs intact and never defaults them away.
func TestPagination_WellTypedInputsAlwaysValidate(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pageSize := rapid.IntRange(1, 10000).Draw(t, "pageSize")
		field := sortFieldGen.Draw(t, "field")
		direction := rapid.SampledFrom([]SortDirection{Ascending, Descending}).Draw(t, "direction")
		cursor := cursorGen(field).Draw(t, "cursor")
		forward := rapid.Bool().Draw(t, "forward")

		p, err := NewPagination(pageSize, field, direction, cursor, forward)
		if err != nil {
			t.Fatalf("well-typed pagination rejected: %v", err)
		}
		if p.PageSize != pageSize || p.Field != field || p.Direction != direction || p.Forward != forward {
			t.Fatalf("pagination mutated caller inputs: %+v", p)
		}
		if p.Cursor != cursor {
			t.Fatalf("cursor identity lost")
		}
	})
}

// A cursor whose value type contradicts the sort field is always rejected,
// regardless of every other parameter.
func TestPagination_MistypedCursorAlwaysRejected(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		pageSize := rapid.IntRange(1, 10000).Draw(t, "pageSize")
		field := sortFieldGen.Draw(t, "field")
		direction := rapid.SampledFrom([]SortDirection{Ascending, Descending}).Draw(t, "direction")
		forward := rapid.Bool().Draw(t, "forward")

		var cursor *Cursor
		if field.IsTimestamp() {
			cursor = &Cursor{SortValue: StringCursorValue(rapid.String().Draw(t, "sortValue")), RecordID: 1}
		} else {
			unix := rapid.Int64Range(0, 4102444800).Draw(t, "unix")
			cursor = &Cursor{SortValue: TimeCursorValue(time.Unix(unix, 0)), RecordID: 1}
		}

		if _, err := NewPagination(pageSize, field, direction, cursor, forward); err == nil {
			t.Fatalf("mistyped cursor accepted for field %s", field)
		}
	})
}

// Cursor values are exactly one of string or timestamp, and Arg reflects it.
func TestCursorValue_TypeExclusivity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		if rapid.Bool().Draw(t, "isString") {
			s := rapid.String().Draw(t, "s")
			v := StringCursorValue(s)
			if !v.IsString() || v.StringValue() != s {
				t.Fatalf("string cursor value lost its payload")
			}
			if _, ok := v.Arg().(string); !ok {
				t.Fatalf("string cursor value produced non-string arg %T", v.Arg())
			}
			return
		}
		unix := rapid.Int64Range(0, 4102444800).Draw(t, "unix")
		ts := time.Unix(unix, 0)
		v := TimeCursorValue(ts)
		if v.IsString() {
			t.Fatalf("timestamp cursor value claims to be a string")
		}
		if !v.TimeValue().Equal(ts) {
			t.Fatalf("timestamp cursor value lost its payload")
		}
		if _, ok := v.Arg().(time.Time); !ok {
			t.Fatalf("timestamp cursor value produced non-time arg %T", v.Arg())
		}
	})
}
