// Package volume derives a line item's quantity from signed geometric rows.
package volume

import (
	"errors"
	"fmt"

	"github.com/Simplici0/rab/internal/numfmt"
)

// Operation tells whether a row adds to or subtracts from the total.
type Operation string

const (
	Add      Operation = "ADD"
	Subtract Operation = "SUBTRACT"
)

// ErrRowNotFound is returned when a row id is not in the list.
var ErrRowNotFound = errors.New("volume row not found")

// Row is a single length × width × height × count measurement.
type Row struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Operation Operation `json:"operation"`
	Length    float64   `json:"length"`
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	Count     float64   `json:"count"`
}

// Volume is the unsigned product of the row's dimensions.
func (r Row) Volume() float64 {
	return r.Length * r.Width * r.Height * r.Count
}

// SignedContribution is Volume, negated for SUBTRACT rows.
func (r Row) SignedContribution() float64 {
	if r.Operation == Subtract {
		return -r.Volume()
	}
	return r.Volume()
}

// RowPatch carries the fields to change on a row. Nil fields are left as is.
type RowPatch struct {
	Label     *string
	Operation *Operation
	Length    *float64
	Width     *float64
	Height    *float64
	Count     *float64
}

// Rows is an ordered list of measurement rows.
type Rows []Row

// Add appends a zero-valued ADD row and returns it.
func (rs *Rows) Add(id string) Row {
	row := Row{ID: id, Operation: Add}
	*rs = append(*rs, row)
	return row
}

// Update applies p to the row with the given id.
func (rs Rows) Update(id string, p RowPatch) (Row, error) {
	i := rs.index(id)
	if i < 0 {
		return Row{}, fmt.Errorf("update row %s: %w", id, ErrRowNotFound)
	}

	row := rs[i]
	if p.Label != nil {
		row.Label = *p.Label
	}
	if p.Operation != nil {
		row.Operation = normalizeOperation(*p.Operation)
	}
	if p.Length != nil {
		row.Length = Clamp(*p.Length)
	}
	if p.Width != nil {
		row.Width = Clamp(*p.Width)
	}
	if p.Height != nil {
		row.Height = Clamp(*p.Height)
	}
	if p.Count != nil {
		row.Count = Clamp(*p.Count)
	}
	rs[i] = row
	return row, nil
}

// Remove deletes the row with the given id.
func (rs *Rows) Remove(id string) error {
	i := rs.index(id)
	if i < 0 {
		return fmt.Errorf("remove row %s: %w", id, ErrRowNotFound)
	}
	*rs = append((*rs)[:i], (*rs)[i+1:]...)
	return nil
}

// Total sums the signed contributions at full precision. The result can be
// negative; callers deriving a quantity clamp it.
func (rs Rows) Total() float64 {
	var total float64
	for _, r := range rs {
		total += r.SignedContribution()
	}
	return total
}

// ReportedTotal is Total rounded to two decimals for display.
func (rs Rows) ReportedTotal() float64 {
	return numfmt.Round2(rs.Total())
}

// Clone returns an independent copy of the rows.
func (rs Rows) Clone() Rows {
	if rs == nil {
		return nil
	}
	out := make(Rows, len(rs))
	copy(out, rs)
	return out
}

// Sanitize coerces every row to valid values: negative dimensions become 0
// and unknown operations become ADD.
func (rs Rows) Sanitize() {
	for i := range rs {
		rs[i].Operation = normalizeOperation(rs[i].Operation)
		rs[i].Length = Clamp(rs[i].Length)
		rs[i].Width = Clamp(rs[i].Width)
		rs[i].Height = Clamp(rs[i].Height)
		rs[i].Count = Clamp(rs[i].Count)
	}
}

func (rs Rows) index(id string) int {
	for i := range rs {
		if rs[i].ID == id {
			return i
		}
	}
	return -1
}

// Dimension reads a typed dimension. Empty, non-numeric and negative input
// all read as 0.
func Dimension(text string) float64 {
	return numfmt.NonNegative(text)
}

// Clamp maps negative values and NaN to 0.
func Clamp(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	return v
}

func normalizeOperation(op Operation) Operation {
	if op == Subtract {
		return Subtract
	}
	return Add
}
