package ledger

import (
	"testing"

	"github.com/curtWhite/finance-game-server/internal/amortization"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestAddAssetUpsertByName(t *testing.T) {
	bs := New("alice", nil)
	bs.AddAsset("Savings Account", 0.5, 1500)
	bs.AddAsset("Savings Account", 0.5, 500)

	require.Len(t, bs.Assets, 1)
	assert.Equal(t, 1.0, bs.Assets[0].Income)
	assert.Equal(t, 2000.0, bs.Assets[0].Value)
}

func TestAddAssetIncomeOnlyAtCreation(t *testing.T) {
	bs := New("alice", nil)
	bs.AddAsset("Rental Unit", 200, 80000)
	require.Len(t, bs.Income, 1)
	assert.Equal(t, Item{Name: "Rental Unit", Amount: 200}, bs.Income[0])

	// Updates grow the asset's income field but never append income rows.
	bs.AddAsset("Rental Unit", 100, 0)
	assert.Len(t, bs.Income, 1)
	assert.Equal(t, 200.0, bs.Income[0].Amount)

	// Zero-income assets create no income line at all.
	bs.AddAsset("Used Car", 0, 5000)
	assert.Len(t, bs.Income, 1)
}

func TestRemoveAssetDropsIncomeLine(t *testing.T) {
	bs := New("alice", nil)
	bs.AddAsset("Rental Unit", 200, 80000)
	bs.AddAsset("Used Car", 0, 5000)

	// Partial removal keeps the asset but still deletes its income line.
	bs.RemoveAsset("Rental Unit", ptr(30000))
	require.Len(t, bs.Assets, 2)
	assert.Equal(t, 50000.0, bs.Assets[0].Value)
	assert.Empty(t, bs.Income)

	// Decrement to zero removes the asset.
	bs.RemoveAsset("Rental Unit", ptr(50000))
	require.Len(t, bs.Assets, 1)
	assert.Equal(t, "Used Car", bs.Assets[0].Name)

	// Full removal without an amount.
	bs.RemoveAsset("Used Car", nil)
	assert.Empty(t, bs.Assets)

	// Unknown asset is a no-op, not an error.
	bs.RemoveAsset("Yacht", nil)
}

func TestAddLiabilityPairsExpense(t *testing.T) {
	bs := New("alice", nil)
	err := bs.AddLiability(Liability{
		Name:                 "Car Loan",
		LoanAmount:           45000,
		InterestRate:         0.05,
		AmortizationTerm:     5,
		CompoundingFrequency: amortization.Weekly,
		PaymentFrequency:     amortization.Monthly,
	})
	require.NoError(t, err)

	require.Len(t, bs.Liabilities, 1)
	require.Len(t, bs.Expenses, 1)
	assert.Equal(t, "Car Loan", bs.Expenses[0].Name)

	sched, err := bs.Liabilities[0].Amortize()
	require.NoError(t, err)
	assert.Equal(t, sched.Payment, bs.Expenses[0].Amount)
}

func TestAddLiabilityUpdateSumsAmountAndRecomputes(t *testing.T) {
	bs := New("alice", nil)
	require.NoError(t, bs.AddLiability(Liability{Name: "Credit Card", LoanAmount: 1200, InterestRate: 0.18}))
	firstPayment := bs.Expenses[0].Amount

	require.NoError(t, bs.AddLiability(Liability{Name: "Credit Card", LoanAmount: 800, InterestRate: 0.2}))
	require.Len(t, bs.Liabilities, 1)
	assert.Equal(t, 2000.0, bs.Liabilities[0].LoanAmount)
	assert.Equal(t, 0.2, bs.Liabilities[0].InterestRate)

	// Still exactly one paired expense, recomputed for the larger balance.
	require.Len(t, bs.Expenses, 1)
	assert.Greater(t, bs.Expenses[0].Amount, firstPayment)
}

func TestLiabilityDefaultsTermAndFrequencies(t *testing.T) {
	l := Liability{Name: "Overdraft", LoanAmount: 1200, InterestRate: 0}
	sched, err := l.Amortize()
	require.NoError(t, err)
	// 1-year term, monthly payments: 12 periods at zero interest.
	assert.Equal(t, float64(12), sched.Payments)
	assert.Equal(t, 100.0, sched.Payment)
}

func TestRemoveLiabilityLeavesExpense(t *testing.T) {
	bs := New("alice", nil)
	require.NoError(t, bs.AddLiability(Liability{Name: "Car Loan", LoanAmount: 45000, InterestRate: 0.05}))

	// Direct removal drops the liability but leaves the paired expense.
	bs.RemoveLiability("Car Loan", ptr(45000))
	assert.Empty(t, bs.Liabilities)
	assert.Len(t, bs.Expenses, 1, "direct removal must not clean up the paired expense")
}

func TestApplyLiabilityUpdatesRemovesExpense(t *testing.T) {
	bs := New("alice", nil)
	require.NoError(t, bs.AddLiability(Liability{Name: "Car Loan", LoanAmount: 45000, InterestRate: 0.05}))

	// The wholesale path drops a zeroed liability together with its expense.
	err := bs.ApplyLiabilityUpdates([]Liability{{Name: "Car Loan", LoanAmount: 0, InterestRate: 0.05}})
	require.NoError(t, err)
	assert.Empty(t, bs.Liabilities)
	assert.Empty(t, bs.Expenses)
}

func TestApplyLiabilityUpdatesReplacesWholesale(t *testing.T) {
	bs := New("alice", nil)
	require.NoError(t, bs.AddLiability(Liability{
		Name: "Mortgage", LoanAmount: 220000, InterestRate: 0.04,
		AmortizationTerm: 30, TotalPaymentsMade: 18,
	}))
	require.NoError(t, bs.AddLiability(Liability{Name: "Credit Card", LoanAmount: 1200, InterestRate: 0.18}))

	updates := []Liability{
		// Replacement carries no TotalPaymentsMade: wholesale replace, not merge.
		{Name: "Mortgage", LoanAmount: 210000, InterestRate: 0.04, AmortizationTerm: 30},
		{Name: "Student Loan", LoanAmount: 15000, InterestRate: 0.03, AmortizationTerm: 10},
	}
	require.NoError(t, bs.ApplyLiabilityUpdates(updates))

	require.Len(t, bs.Liabilities, 3)
	mortgage := bs.Liabilities[0]
	assert.Equal(t, 210000.0, mortgage.LoanAmount)
	assert.Zero(t, mortgage.TotalPaymentsMade, "new fields replace old entirely")

	// Every surviving liability has exactly one freshly derived expense.
	require.Len(t, bs.Expenses, 3)
	for _, l := range bs.Liabilities {
		sched, err := l.Amortize()
		require.NoError(t, err)
		found := false
		for _, e := range bs.Expenses {
			if e.Name == l.Name {
				assert.Equal(t, sched.Payment, e.Amount, l.Name)
				found = true
			}
		}
		assert.True(t, found, "missing paired expense for %s", l.Name)
	}
}

func TestApplyAssetUpdatesMergesNeverDeletes(t *testing.T) {
	bs := New("alice", nil)
	bs.AddAsset("Checking Account", 0, 2500)
	bs.AddAsset("Used Car", 0, 5000)

	bs.ApplyAssetUpdates([]Asset{
		{Name: "Used Car", Income: 0, Value: 4200},
		{Name: "Household Goods", Income: 0, Value: 800},
	})

	require.Len(t, bs.Assets, 3)
	assert.Equal(t, 4200.0, bs.Assets[1].Value)
	assert.Equal(t, "Checking Account", bs.Assets[0].Name, "assets absent from updates survive")
}

func TestApplyAssetUpdatesPreservesOmittedFields(t *testing.T) {
	bs := New("alice", nil)
	bs.AddAsset("Rental Unit", 200, 65000)

	// A value-only update must not wipe the income the update omits.
	bs.ApplyAssetUpdates([]Asset{{Name: "Rental Unit", Value: 70000}})

	require.Len(t, bs.Assets, 1)
	assert.Equal(t, 70000.0, bs.Assets[0].Value)
	assert.Equal(t, 200.0, bs.Assets[0].Income)

	// And an income-only update leaves the value alone.
	bs.ApplyAssetUpdates([]Asset{{Name: "Rental Unit", Income: 250}})
	assert.Equal(t, 250.0, bs.Assets[0].Income)
	assert.Equal(t, 70000.0, bs.Assets[0].Value)
}

func TestCashflowInvariantUnderReordering(t *testing.T) {
	build := func(mutate func(bs *BalanceSheet)) float64 {
		bs := New("alice", nil)
		mutate(bs)
		return bs.Cashflow()
	}

	a := build(func(bs *BalanceSheet) {
		bs.AddIncome("Salary", 3000)
		bs.AddExpense("Rent", 1000)
		bs.AddIncome("Side Gig", 500)
		bs.RemoveIncome("Side Gig", nil)
	})
	b := build(func(bs *BalanceSheet) {
		bs.AddIncome("Side Gig", 500)
		bs.AddExpense("Rent", 400)
		bs.RemoveIncome("Side Gig", ptr(500))
		bs.AddIncome("Salary", 3000)
		bs.AddExpense("Rent", 600)
	})
	assert.Equal(t, a, b)
	assert.Equal(t, 2000.0, a)
}

func TestNetWorthReadsLiveBankBalance(t *testing.T) {
	bs := New("alice", nil)
	bs.AddAsset("Savings Account", 0, 5000)
	require.NoError(t, bs.AddLiability(Liability{Name: "Car Loan", LoanAmount: 2000, InterestRate: 0}))

	assert.Equal(t, 3000.0, bs.NetWorth(0))
	assert.Equal(t, 4500.0, bs.NetWorth(1500))
}

func TestIncomeExpenseDecrementToZero(t *testing.T) {
	bs := New("alice", nil)
	bs.AddIncome("Salary", 3000)
	bs.RemoveIncome("Salary", ptr(1000))
	require.Len(t, bs.Income, 1)
	assert.Equal(t, 2000.0, bs.Income[0].Amount)
	bs.RemoveIncome("Salary", ptr(2000))
	assert.Empty(t, bs.Income)

	bs.AddExpense("Rent", 1000)
	bs.RemoveExpense("Rent", ptr(1500))
	assert.Empty(t, bs.Expenses)

	// Unknown names are logged no-ops.
	bs.RemoveIncome("Dividends", nil)
	bs.RemoveExpense("Golf", ptr(10))
}

func TestPayableLiabilities(t *testing.T) {
	bs := New("alice", nil)
	require.NoError(t, bs.AddLiability(Liability{Name: "A", LoanAmount: 1200, InterestRate: 0}))
	require.NoError(t, bs.AddLiability(Liability{Name: "B", LoanAmount: 2400, InterestRate: 0}))

	total, err := bs.PayableLiabilities()
	require.NoError(t, err)
	assert.Equal(t, 300.0, total) // 100 + 200 at zero interest over 12 months
}

func TestDocumentRoundTrip(t *testing.T) {
	bs := New("alice", nil)
	bs.ID = 7
	bs.AddAsset("Savings Account", 0, 5000)
	bs.AddIncome("Salary", 3000)
	bs.AddExpense("Rent", 1000)

	doc := bs.Document(250, `{"cashflow":1800}`)
	assert.Equal(t, 2000.0, doc.Cashflow)
	assert.Equal(t, 5250.0, doc.NetWorth)
	assert.Equal(t, "7", doc.ID)
	assert.NotEmpty(t, doc.Prev)

	back := doc.Sheet("alice")
	assert.Equal(t, bs.Assets, back.Assets)
	assert.Equal(t, bs.Cashflow(), back.Cashflow())
}
