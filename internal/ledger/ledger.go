package ledger

import (
	"github.com/curtWhite/finance-game-server/internal/amortization"
	"github.com/sirupsen/logrus"
)

// Item is a named money line on the income or expense list. Name is the
// de-duplication key within its list.
type Item struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// Asset is a named holding. Income is the periodic income the asset throws
// off, Value its resale value.
type Asset struct {
	Name   string  `json:"name"`
	Income float64 `json:"income"`
	Value  float64 `json:"value"`
}

// Liability is an outstanding loan. Every liability with LoanAmount > 0 has
// exactly one expense line of the same name carrying its periodic payment.
type Liability struct {
	Name                 string                 `json:"name"`
	LoanAmount           float64                `json:"loanAmount"`
	InterestRate         float64                `json:"interestRate"`
	AmortizationTerm     float64                `json:"amortizationTerm,omitempty"`
	CompoundingFrequency amortization.Frequency `json:"compoundingFrequency,omitempty"`
	PaymentFrequency     amortization.Frequency `json:"paymentFrequency,omitempty"`
	OriginalLoanAmount   float64                `json:"originalLoanAmount,omitempty"`
	TotalPaymentsMade    int                    `json:"totalPaymentsMade,omitempty"`
	TotalAmountPaid      float64                `json:"totalAmountPaid,omitempty"`
	StartDate            string                 `json:"startDate,omitempty"`
	NextDueDate          string                 `json:"nextDueDate,omitempty"`
}

func (i Item) ItemName() string      { return i.Name }
func (a Asset) ItemName() string     { return a.Name }
func (l Liability) ItemName() string { return l.Name }

type named interface {
	ItemName() string
}

// indexByName is the single find-by-name used across all four lists.
func indexByName[T named](items []T, name string) int {
	for i, item := range items {
		if item.ItemName() == name {
			return i
		}
	}
	return -1
}

func dropByName[T named](items []T, name string) []T {
	kept := items[:0]
	for _, item := range items {
		if item.ItemName() != name {
			kept = append(kept, item)
		}
	}
	return kept
}

// BalanceSheet tracks a player's assets, liabilities, income and expenses.
// It is owned 1:1 by a player and persisted keyed by username.
type BalanceSheet struct {
	ID          int64       `json:"-"`
	Username    string      `json:"-"`
	Assets      []Asset     `json:"assets"`
	Liabilities []Liability `json:"liabilities"`
	Income      []Item      `json:"income"`
	Expenses    []Item      `json:"expenses"`

	log *logrus.Logger
}

// New returns an empty balance sheet for username.
func New(username string, log *logrus.Logger) *BalanceSheet {
	return &BalanceSheet{Username: username, log: log}
}

// AttachLogger sets the logger on a sheet reconstructed from storage.
func (b *BalanceSheet) AttachLogger(log *logrus.Logger) { b.log = log }

func (b *BalanceSheet) warnf(format string, args ...any) {
	if b.log != nil {
		b.log.Warnf(format, args...)
	}
}

// AddAsset upserts an asset by name. An existing asset has income and value
// incremented in place. A matching income line is created only when the asset
// is first inserted with income > 0; updates never touch the income list.
// (The original server grew duplicate income rows on update; this is the
// corrected policy.)
func (b *BalanceSheet) AddAsset(name string, income, value float64) {
	if idx := indexByName(b.Assets, name); idx >= 0 {
		b.Assets[idx].Income += income
		b.Assets[idx].Value += value
		return
	}
	b.Assets = append(b.Assets, Asset{Name: name, Income: income, Value: value})
	if income > 0 {
		b.Income = append(b.Income, Item{Name: name, Amount: income})
	}
}

// RemoveAsset removes an asset entirely when amount is nil, otherwise
// decrements its value and drops it at <= 0. Any income line sharing the
// asset's name is deleted either way. An unknown name is a logged no-op.
func (b *BalanceSheet) RemoveAsset(name string, amount *float64) {
	idx := indexByName(b.Assets, name)
	if idx < 0 {
		b.warnf("removeAsset: asset %q not found for %s, ignoring", name, b.Username)
		return
	}
	if amount == nil {
		b.Assets = append(b.Assets[:idx], b.Assets[idx+1:]...)
	} else {
		b.Assets[idx].Value -= *amount
		if b.Assets[idx].Value <= 0 {
			b.Assets = append(b.Assets[:idx], b.Assets[idx+1:]...)
		}
	}
	b.Income = dropByName(b.Income, name)
}

// AddLiability upserts a liability by name. On update the loan amount is
// summed, the interest rate overwritten, and any non-zero extra field of l
// overwrites the stored one. The paired expense is recomputed either way.
func (b *BalanceSheet) AddLiability(l Liability) error {
	if idx := indexByName(b.Liabilities, l.Name); idx >= 0 {
		cur := &b.Liabilities[idx]
		cur.LoanAmount += l.LoanAmount
		cur.InterestRate = l.InterestRate
		if l.AmortizationTerm != 0 {
			cur.AmortizationTerm = l.AmortizationTerm
		}
		if l.CompoundingFrequency != "" {
			cur.CompoundingFrequency = l.CompoundingFrequency
		}
		if l.PaymentFrequency != "" {
			cur.PaymentFrequency = l.PaymentFrequency
		}
		if l.OriginalLoanAmount != 0 {
			cur.OriginalLoanAmount = l.OriginalLoanAmount
		}
		if l.TotalPaymentsMade != 0 {
			cur.TotalPaymentsMade = l.TotalPaymentsMade
		}
		if l.TotalAmountPaid != 0 {
			cur.TotalAmountPaid = l.TotalAmountPaid
		}
		if l.StartDate != "" {
			cur.StartDate = l.StartDate
		}
		if l.NextDueDate != "" {
			cur.NextDueDate = l.NextDueDate
		}
		return b.refreshLiabilityExpense(*cur)
	}
	b.Liabilities = append(b.Liabilities, l)
	return b.refreshLiabilityExpense(l)
}

// refreshLiabilityExpense upserts the expense line paired with a liability,
// carrying its computed periodic payment. Liabilities at or below zero leave
// the expense list untouched.
func (b *BalanceSheet) refreshLiabilityExpense(l Liability) error {
	if l.LoanAmount <= 0 {
		return nil
	}
	sched, err := l.Amortize()
	if err != nil {
		return err
	}
	if idx := indexByName(b.Expenses, l.Name); idx >= 0 {
		b.Expenses[idx].Amount = sched.Payment
	} else {
		b.Expenses = append(b.Expenses, Item{Name: l.Name, Amount: sched.Payment})
	}
	return nil
}

// Amortize computes the liability's payment schedule, applying the historical
// defaults: a 1-year term and monthly compounding/payments.
func (l Liability) Amortize() (amortization.Schedule, error) {
	term := l.AmortizationTerm
	if term == 0 {
		term = 1
	}
	comp := l.CompoundingFrequency
	if comp == "" {
		comp = amortization.Monthly
	}
	pay := l.PaymentFrequency
	if pay == "" {
		pay = amortization.Monthly
	}
	return amortization.Compute(l.LoanAmount, l.InterestRate, term, comp, pay)
}

// RemoveLiability removes a liability entirely when loanAmount is nil,
// otherwise reduces it and drops it at <= 0. The paired expense is left in
// place; only the wholesale update path cleans it up. Callers that want the
// expense gone must remove it themselves.
func (b *BalanceSheet) RemoveLiability(name string, loanAmount *float64) {
	idx := indexByName(b.Liabilities, name)
	if idx < 0 {
		b.warnf("removeLiability: liability %q not found for %s, ignoring", name, b.Username)
		return
	}
	if loanAmount == nil {
		b.Liabilities = append(b.Liabilities[:idx], b.Liabilities[idx+1:]...)
		return
	}
	b.Liabilities[idx].LoanAmount -= *loanAmount
	if b.Liabilities[idx].LoanAmount <= 0 {
		b.Liabilities = append(b.Liabilities[:idx], b.Liabilities[idx+1:]...)
	}
}

// AddIncome upserts an income line, summing amounts on collision.
func (b *BalanceSheet) AddIncome(name string, amount float64) {
	if idx := indexByName(b.Income, name); idx >= 0 {
		b.Income[idx].Amount += amount
		return
	}
	b.Income = append(b.Income, Item{Name: name, Amount: amount})
}

// RemoveIncome removes an income line entirely when amount is nil, otherwise
// decrements and drops it at <= 0.
func (b *BalanceSheet) RemoveIncome(name string, amount *float64) {
	b.Income = removeItem(b, b.Income, "removeIncome", name, amount)
}

// AddExpense upserts an expense line, summing amounts on collision.
func (b *BalanceSheet) AddExpense(name string, amount float64) {
	if idx := indexByName(b.Expenses, name); idx >= 0 {
		b.Expenses[idx].Amount += amount
		return
	}
	b.Expenses = append(b.Expenses, Item{Name: name, Amount: amount})
}

// RemoveExpense removes an expense line entirely when amount is nil,
// otherwise decrements and drops it at <= 0.
func (b *BalanceSheet) RemoveExpense(name string, amount *float64) {
	b.Expenses = removeItem(b, b.Expenses, "removeExpense", name, amount)
}

func removeItem(b *BalanceSheet, items []Item, op, name string, amount *float64) []Item {
	idx := indexByName(items, name)
	if idx < 0 {
		b.warnf("%s: item %q not found for %s, ignoring", op, name, b.Username)
		return items
	}
	if amount == nil {
		return append(items[:idx], items[idx+1:]...)
	}
	items[idx].Amount -= *amount
	if items[idx].Amount <= 0 {
		return append(items[:idx], items[idx+1:]...)
	}
	return items
}

// ApplyLiabilityUpdates replaces matching-by-name liabilities wholesale with
// the given ones, appends unmatched new ones, drops any liability at or below
// zero together with its paired expense, and regenerates the paired expense
// for every survivor from scratch. Recomputing everything keeps stored and
// derived expense amounts from drifting apart.
func (b *BalanceSheet) ApplyLiabilityUpdates(updates []Liability) error {
	merged := make([]Liability, 0, len(b.Liabilities)+len(updates))
	seen := make(map[string]bool, len(b.Liabilities))
	for _, cur := range b.Liabilities {
		if idx := indexByName(updates, cur.Name); idx >= 0 {
			merged = append(merged, updates[idx])
		} else {
			merged = append(merged, cur)
		}
		seen[cur.Name] = true
	}
	for _, u := range updates {
		if !seen[u.Name] {
			merged = append(merged, u)
		}
	}

	b.Liabilities = b.Liabilities[:0]
	for _, l := range merged {
		if l.LoanAmount <= 0 {
			b.Expenses = dropByName(b.Expenses, l.Name)
			continue
		}
		b.Liabilities = append(b.Liabilities, l)
		b.Expenses = dropByName(b.Expenses, l.Name)
		if err := b.refreshLiabilityExpense(l); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAssetUpdates merges the given assets into the sheet field-wise:
// a matching asset takes only the non-zero fields of the update, so a payload
// naming just the value leaves the income intact. New names are appended and
// assets absent from updates are never deleted.
func (b *BalanceSheet) ApplyAssetUpdates(updates []Asset) {
	for _, u := range updates {
		idx := indexByName(b.Assets, u.Name)
		if idx < 0 {
			b.Assets = append(b.Assets, u)
			continue
		}
		if u.Income != 0 {
			b.Assets[idx].Income = u.Income
		}
		if u.Value != 0 {
			b.Assets[idx].Value = u.Value
		}
	}
}

// TotalAssets sums asset values.
func (b *BalanceSheet) TotalAssets() float64 {
	var sum float64
	for _, a := range b.Assets {
		sum += a.Value
	}
	return sum
}

// TotalLiabilities sums outstanding loan amounts.
func (b *BalanceSheet) TotalLiabilities() float64 {
	var sum float64
	for _, l := range b.Liabilities {
		sum += l.LoanAmount
	}
	return sum
}

// TotalIncome sums income lines.
func (b *BalanceSheet) TotalIncome() float64 {
	var sum float64
	for _, i := range b.Income {
		sum += i.Amount
	}
	return sum
}

// TotalExpenses sums expense lines.
func (b *BalanceSheet) TotalExpenses() float64 {
	var sum float64
	for _, e := range b.Expenses {
		sum += e.Amount
	}
	return sum
}

// NetWorth is assets plus the live bank balance minus liabilities. The bank
// balance is read by the caller at computation time, never cached here.
func (b *BalanceSheet) NetWorth(bankBalance float64) float64 {
	return b.TotalAssets() + bankBalance - b.TotalLiabilities()
}

// Cashflow is income minus expenses.
func (b *BalanceSheet) Cashflow() float64 {
	return b.TotalIncome() - b.TotalExpenses()
}

// PayableLiabilities sums the periodic payment across all liabilities.
func (b *BalanceSheet) PayableLiabilities() (float64, error) {
	var total float64
	for _, l := range b.Liabilities {
		sched, err := l.Amortize()
		if err != nil {
			return 0, err
		}
		total += sched.Payment
	}
	return total, nil
}
