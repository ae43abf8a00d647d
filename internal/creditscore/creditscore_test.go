package creditscore

import (
	"testing"

	"github.com/curtWhite/finance-game-server/internal/ledger"
	"github.com/stretchr/testify/assert"
)

func workingClass() Snapshot {
	return Snapshot{Assets: 5000, Liabilities: 2000, Income: 3000, Expenses: 1000}
}

func TestScoreWorkingClassFixture(t *testing.T) {
	// Hand-traced: 500 base, DTI 0.67 -> -50, positive cashflow -> +80,
	// assets above liabilities -> +60. No history, no late payments.
	got := Score(workingClass(), nil, 0)
	assert.Equal(t, 590, got)
}

func TestScoreBounds(t *testing.T) {
	broke := Snapshot{Assets: 0, Liabilities: 50000, Income: 100, Expenses: 5000}
	assert.Equal(t, MinScore, Score(broke, nil, 10))

	flush := Snapshot{Assets: 100000, Liabilities: 0, Income: 10000, Expenses: 500}
	got := Score(flush, nil, 0)
	assert.LessOrEqual(t, got, MaxScore)
	assert.Equal(t, 760, got) // 500 +120 +80 +60
}

func TestScoreMonotonicInLatePayments(t *testing.T) {
	cur := workingClass()
	prevScore := Score(cur, nil, 0)
	for late := 1; late <= 8; late++ {
		s := Score(cur, nil, late)
		assert.LessOrEqual(t, s, prevScore, "late=%d", late)
		prevScore = s
	}
	// The late-payment penalty is capped at 150.
	assert.Equal(t, Score(cur, nil, 5), Score(cur, nil, 50))
}

func TestScoreMonotonicInLiquidityMargin(t *testing.T) {
	low := workingClass()
	low.Assets = low.Liabilities - 1
	high := workingClass()
	high.Assets = high.Liabilities + 1
	assert.Greater(t, Score(high, nil, 0), Score(low, nil, 0))
}

func TestScoreTrendPenalties(t *testing.T) {
	cur := workingClass()
	flat := cur

	base := Score(cur, &flat, 0)

	worse := flat
	worse.Liabilities = cur.Liabilities / 2 // liabilities doubled since prev
	assert.Less(t, Score(cur, &worse, 0), base)

	richer := flat
	richer.Income = cur.Income * 2 // income halved since prev
	assert.Less(t, Score(cur, &richer, 0), base)

	frugal := flat
	frugal.Expenses = 0 // expenses grew since prev
	assert.Less(t, Score(cur, &frugal, 0), base)
}

func TestScoreImprovementBonus(t *testing.T) {
	cur := workingClass()
	prev := Snapshot{Assets: 4000, Liabilities: 3000, Income: 2500, Expenses: 1500}
	// Strictly better on all three metrics: no trend penalties, +50 bonus.
	assert.Equal(t, Score(cur, nil, 0)+50, Score(cur, &prev, 0))
}

func TestRequiredScoreThresholds(t *testing.T) {
	cur := workingClass() // income 3000
	cases := []struct {
		loan float64
		want int
	}{
		{100, 500},   // ratio 0.03
		{600, 580},   // ratio 0.2
		{1500, 650},  // ratio 0.5
		{2500, 700},  // ratio 0.83
		{4500, 760},  // ratio 1.5
		{90000, 760}, // absurd
	}
	for _, c := range cases {
		assert.Equal(t, c.want, RequiredScore(c.loan, cur), "loan=%v", c.loan)
	}

	// Zero income does not divide by zero; any real loan is top bracket.
	assert.Equal(t, 760, RequiredScore(1000, Snapshot{}))
}

func TestSnapshotCaptures(t *testing.T) {
	bs := ledger.New("tester", nil)
	bs.AddAsset("Savings Account", 0, 5000)
	bs.AddIncome("Salary", 3000)
	bs.AddExpense("Rent", 1000)
	_ = bs.AddLiability(ledger.Liability{Name: "Car Loan", LoanAmount: 2000, InterestRate: 0})

	snap := FromSheet(bs)
	assert.Equal(t, 5000.0, snap.Assets)
	assert.Equal(t, 2000.0, snap.Liabilities)
	assert.Equal(t, 3000.0, snap.Income)

	doc := bs.Document(0, "")
	assert.Equal(t, snap.Assets, FromDocument(doc).Assets)
	assert.Equal(t, snap.Liabilities, FromDocument(doc).Liabilities)
}
