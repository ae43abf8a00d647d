package ledger

import "strconv"

// Document is the serialization contract for a balance sheet: the four lists
// plus derived totals, the single embedded previous snapshot, and the storage
// id. Derived totals are recomputed on load, never trusted from storage.
type Document struct {
	Assets      []Asset     `json:"assets"`
	Liabilities []Liability `json:"liabilities"`
	Income      []Item      `json:"income"`
	Expenses    []Item      `json:"expenses"`
	NetWorth    float64     `json:"net_worth"`
	Cashflow    float64     `json:"cashflow"`
	Prev        string      `json:"prev_balancesheet,omitempty"`
	ID          string      `json:"id,omitempty"`
}

// Document renders the sheet with its derived values. bankBalance must be a
// live read of the owning bank account; prev is the serialized previous
// snapshot, empty when none exists.
func (b *BalanceSheet) Document(bankBalance float64, prev string) Document {
	d := Document{
		Assets:      append([]Asset(nil), b.Assets...),
		Liabilities: append([]Liability(nil), b.Liabilities...),
		Income:      append([]Item(nil), b.Income...),
		Expenses:    append([]Item(nil), b.Expenses...),
		NetWorth:    b.NetWorth(bankBalance),
		Cashflow:    b.Cashflow(),
		Prev:        prev,
	}
	if b.ID != 0 {
		d.ID = strconv.FormatInt(b.ID, 10)
	}
	return d
}

// Sheet reconstructs a mutable balance sheet from a stored document.
func (d Document) Sheet(username string) *BalanceSheet {
	return &BalanceSheet{
		Username:    username,
		Assets:      append([]Asset(nil), d.Assets...),
		Liabilities: append([]Liability(nil), d.Liabilities...),
		Income:      append([]Item(nil), d.Income...),
		Expenses:    append([]Item(nil), d.Expenses...),
	}
}

// TotalAssets sums asset values in the document.
func (d Document) TotalAssets() float64 {
	var sum float64
	for _, a := range d.Assets {
		sum += a.Value
	}
	return sum
}

// TotalLiabilities sums outstanding loan amounts in the document.
func (d Document) TotalLiabilities() float64 {
	var sum float64
	for _, l := range d.Liabilities {
		sum += l.LoanAmount
	}
	return sum
}

// TotalIncome sums income lines in the document.
func (d Document) TotalIncome() float64 {
	var sum float64
	for _, i := range d.Income {
		sum += i.Amount
	}
	return sum
}

// TotalExpenses sums expense lines in the document.
func (d Document) TotalExpenses() float64 {
	var sum float64
	for _, e := range d.Expenses {
		sum += e.Amount
	}
	return sum
}
