package volume

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestTotalAddAndSubtractRows(t *testing.T) {
	rows := Rows{
		{ID: "r1", Operation: Add, Length: 2, Width: 3, Height: 0.2, Count: 1},
		{ID: "r2", Operation: Subtract, Length: 1, Width: 1, Height: 0.2, Count: 1},
	}

	assert.InDelta(t, 1.2, rows[0].Volume(), 1e-9)
	assert.InDelta(t, 0.2, rows[1].Volume(), 1e-9)
	assert.InDelta(t, 1.0, rows.Total(), 1e-9)
	assert.Equal(t, 1.0, rows.ReportedTotal())
}

func TestTotalSignLaw(t *testing.T) {
	rows := Rows{
		{ID: "a", Operation: Subtract, Length: 4, Width: 1, Height: 1, Count: 2},
		{ID: "b", Operation: Add, Length: 1.5, Width: 2, Height: 3, Count: 1},
		{ID: "c", Operation: Add, Length: 0.1, Width: 0.1, Height: 0.1, Count: 7},
		{ID: "d", Operation: Subtract, Length: 0.3, Width: 0.3, Height: 0.3, Count: 3},
	}

	var added, subtracted float64
	for _, r := range rows {
		if r.Operation == Subtract {
			subtracted += r.Volume()
		} else {
			added += r.Volume()
		}
	}

	assert.InDelta(t, added-subtracted, rows.Total(), 1e-9)
}

func TestTotalMayBeNegative(t *testing.T) {
	rows := Rows{{ID: "x", Operation: Subtract, Length: 1, Width: 1, Height: 1, Count: 1}}
	assert.Equal(t, -1.0, rows.Total())
}

func TestEmptyRowsTotalZero(t *testing.T) {
	var rows Rows
	assert.Equal(t, 0.0, rows.Total())
}

func TestAddAppendsZeroAddRow(t *testing.T) {
	var rows Rows
	row := rows.Add("r1")

	require.Len(t, rows, 1)
	assert.Equal(t, Row{ID: "r1", Operation: Add}, row)
	assert.Equal(t, 0.0, rows.Total())
}

func TestUpdateRecomputesAndClamps(t *testing.T) {
	var rows Rows
	rows.Add("r1")

	row, err := rows.Update("r1", RowPatch{
		Label:     ptr("kolom"),
		Operation: ptr(Subtract),
		Length:    ptr(2.0),
		Width:     ptr(-5.0),
		Height:    ptr(1.0),
		Count:     ptr(3.0),
	})
	require.NoError(t, err)

	assert.Equal(t, "kolom", row.Label)
	assert.Equal(t, 0.0, row.Width)
	assert.Equal(t, rows[0], row)

	_, err = rows.Update("r1", RowPatch{Width: ptr(0.5)})
	require.NoError(t, err)
	assert.InDelta(t, -3.0, rows.Total(), 1e-9)
}

func TestUpdateUnknownOperationBecomesAdd(t *testing.T) {
	rows := Rows{{ID: "r1", Operation: Subtract}}
	_, err := rows.Update("r1", RowPatch{Operation: ptr(Operation("MULTIPLY"))})
	require.NoError(t, err)
	assert.Equal(t, Add, rows[0].Operation)
}

func TestUpdateAndRemoveMissingRow(t *testing.T) {
	var rows Rows
	_, err := rows.Update("nope", RowPatch{})
	assert.ErrorIs(t, err, ErrRowNotFound)
	assert.ErrorIs(t, rows.Remove("nope"), ErrRowNotFound)
}

func TestRemoveKeepsOrder(t *testing.T) {
	var rows Rows
	rows.Add("a")
	rows.Add("b")
	rows.Add("c")

	require.NoError(t, rows.Remove("b"))
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].ID)
	assert.Equal(t, "c", rows[1].ID)
}

func TestDimensionLenientInput(t *testing.T) {
	assert.Equal(t, 0.0, Dimension(""))
	assert.Equal(t, 0.0, Dimension("abc"))
	assert.Equal(t, 0.0, Dimension("-2"))
	assert.Equal(t, 2.5, Dimension("2,5"))
	assert.Equal(t, 1e6, Dimension("1.000.000"))
}

func TestSanitize(t *testing.T) {
	rows := Rows{{ID: "r", Operation: "", Length: -1, Width: 2, Height: 2, Count: 1}}
	rows.Sanitize()
	assert.Equal(t, Add, rows[0].Operation)
	assert.Equal(t, 0.0, rows.Total())
}

func TestCloneIsIndependent(t *testing.T) {
	rows := Rows{{ID: "r", Operation: Add, Length: 1, Width: 1, Height: 1, Count: 1}}
	clone := rows.Clone()
	clone[0].Length = 9

	assert.Equal(t, 1.0, rows[0].Length)
	assert.Nil(t, Rows(nil).Clone())
}
