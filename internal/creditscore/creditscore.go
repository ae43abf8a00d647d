// Package creditscore derives a bounded credit score from balance sheet
// totals and a player's late-payment history. Scores are never persisted;
// they are recomputed on every request.
package creditscore

import (
	"math"

	"github.com/curtWhite/finance-game-server/internal/ledger"
)

// Score bounds and base.
const (
	MinScore  = 300
	MaxScore  = 850
	baseScore = 500
)

// Snapshot carries the four totals the model scores on.
type Snapshot struct {
	Assets      float64
	Liabilities float64
	Income      float64
	Expenses    float64
}

// FromSheet captures the totals of a live balance sheet.
func FromSheet(b *ledger.BalanceSheet) Snapshot {
	return Snapshot{
		Assets:      b.TotalAssets(),
		Liabilities: b.TotalLiabilities(),
		Income:      b.TotalIncome(),
		Expenses:    b.TotalExpenses(),
	}
}

// FromDocument captures the totals of a stored balance sheet document,
// typically the embedded previous snapshot.
func FromDocument(d ledger.Document) Snapshot {
	return Snapshot{
		Assets:      d.TotalAssets(),
		Liabilities: d.TotalLiabilities(),
		Income:      d.TotalIncome(),
		Expenses:    d.TotalExpenses(),
	}
}

// Score combines the current totals, the optional previous snapshot and the
// late-payment counter into a score in [MinScore, MaxScore].
//
// Additive model: every applicable term is summed, trend penalties and the
// improvement bonus included; nothing is mutually exclusive.
func Score(cur Snapshot, prev *Snapshot, latePayments int) int {
	score := float64(baseScore)

	score -= math.Min(float64(latePayments)*30, 150)

	dti := cur.Liabilities / math.Max(cur.Income, 1)
	switch {
	case dti < 0.3:
		score += 120
	case dti < 0.5:
		score += 60
	case dti < 0.8:
		score -= 50
	default:
		score -= 120
	}

	cashflow := cur.Income - cur.Expenses
	if cashflow > 0 {
		score += 80
	} else {
		score -= math.Min(math.Abs(cashflow)/math.Max(cur.Income, 1)*100, 100)
	}

	if cur.Assets > cur.Liabilities {
		score += 60
	} else {
		score -= 80
	}

	if prev != nil {
		score -= trendPenalties(cur, *prev)
		if cur.Liabilities < prev.Liabilities && cur.Income > prev.Income && cur.Expenses < prev.Expenses {
			score += 50
		}
	}

	return clamp(int(math.Round(score)))
}

// trendPenalties compares the current totals against the previous snapshot.
// Rising liabilities, falling income and growing expenses each penalize,
// scaled by the relative change and capped per metric.
func trendPenalties(cur, prev Snapshot) float64 {
	var penalty float64

	if rise := (cur.Liabilities - prev.Liabilities) / math.Max(prev.Liabilities, 1); rise > 0 {
		penalty += math.Min(rise*80, 80)
	}
	if drop := (prev.Income - cur.Income) / math.Max(prev.Income, 1); drop > 0 {
		penalty += math.Min(drop*100, 100)
	}
	if growth := (cur.Expenses - prev.Expenses) / math.Max(cur.Income, 1); growth > 0 {
		penalty += math.Min(growth*50, 50)
	}

	return penalty
}

// RequiredScore maps a requested loan size, relative to the player's income,
// to the score the player must reach for approval.
func RequiredScore(loanAmount float64, cur Snapshot) int {
	ratio := loanAmount / math.Max(cur.Income, 1)
	switch {
	case ratio < 0.1:
		return 500
	case ratio < 0.3:
		return 580
	case ratio < 0.6:
		return 650
	case ratio < 1.0:
		return 700
	default:
		return 760
	}
}

func clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
