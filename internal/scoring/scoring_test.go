package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOwnerScore(t *testing.T) {
	t.Run("verified and linked clean profile", func(t *testing.T) {
		// 700 + 100 + 50
		assert.Equal(t, 850, OwnerScore(true, true, false, 0, false))
	})

	t.Run("unlinked secondary costs both the bonus and the penalty", func(t *testing.T) {
		// 700 + 100 - 200
		assert.Equal(t, 600, OwnerScore(true, false, false, 0, false))
	})

	t.Run("blacklist dominates", func(t *testing.T) {
		// 700 + 100 + 50 - 500
		assert.Equal(t, 350, OwnerScore(true, true, true, 0, false))
	})

	t.Run("cross mismatch", func(t *testing.T) {
		// 700 + 100 + 50 - 150
		assert.Equal(t, 700, OwnerScore(true, true, false, 0, true))
	})

	t.Run("prior defaults stack linearly and clamp at zero", func(t *testing.T) {
		assert.Equal(t, 550, OwnerScore(true, true, false, 3, false))
		assert.Equal(t, 0, OwnerScore(false, false, true, 10, true))
	})
}

func TestEntityScore(t *testing.T) {
	t.Run("suspended zero-compliance newborn clamps to zero", func(t *testing.T) {
		// base 0, penalties 500 + 150
		assert.Equal(t, 0, EntityScore(true, 0, 0, true))
	})

	t.Run("perfect compliance and capped age bonus", func(t *testing.T) {
		// 1000*0.7 + 200*0.3 = 760
		assert.Equal(t, 760, EntityScore(true, 100, 25, false))
	})

	t.Run("low compliance penalty applies below 50", func(t *testing.T) {
		// 490*0.7 + 40*0.3 - 150 = 355 - 150 = 205
		assert.Equal(t, 205, EntityScore(true, 49, 2, false))
		// exactly 50 avoids the penalty: 500*0.7 + 40*0.3 = 362
		assert.Equal(t, 362, EntityScore(true, 50, 2, false))
	})

	t.Run("suspension and low compliance stack", func(t *testing.T) {
		// 300*0.7 + 200*0.3 = 270; 270 - 650 clamps to 0
		assert.Equal(t, 0, EntityScore(true, 30, 20, true))
	})

	t.Run("no filings floors near the age bonus", func(t *testing.T) {
		// compliance 0: base = ageBonus*0.3, minus 150 low-compliance penalty
		assert.Equal(t, 0, EntityScore(true, 0, 3, false))
		assert.Equal(t, 0, EntityScore(true, 0, 10, false)) // 60 - 150 clamps
	})
}

func TestTransactionScore(t *testing.T) {
	t.Run("zero invoices returns the fixed default", func(t *testing.T) {
		assert.Equal(t, TransactionScoreDefault, TransactionScore(0, 0, 0, 0))
		assert.Equal(t, TransactionScoreDefault, TransactionScore(0, 1.0, 1.0, 999))
	})

	t.Run("thresholds are strict", func(t *testing.T) {
		// paid_ratio exactly 0.8 earns the lesser bonus
		assert.Equal(t, 750, TransactionScore(10, 0.8, 0, 0))
		assert.Equal(t, 800, TransactionScore(10, 0.81, 0, 0))
		// default_ratio exactly 0.2 is not penalized
		assert.Equal(t, 800, TransactionScore(10, 0.81, 0.2, 0))
		assert.Equal(t, 600, TransactionScore(10, 0.81, 0.21, 0))
		// delay exactly 30 is not penalized
		assert.Equal(t, 800, TransactionScore(10, 0.81, 0, 30))
		assert.Equal(t, 700, TransactionScore(10, 0.81, 0, 31))
	})

	t.Run("worst case clamps at zero", func(t *testing.T) {
		// 700 - 400 - 200 = 100
		assert.Equal(t, 100, TransactionScore(5, 0, 0.5, 90))
	})
}

func TestFinalScore(t *testing.T) {
	assert.Equal(t, 850, FinalScore(850, 850, 850))
	// 650*0.4 + 600*0.4 + 650*0.2 = 630
	assert.Equal(t, 630, FinalScore(650, 600, 650))
	// truncation toward zero: 1*0.4 = 0.4
	assert.Equal(t, 0, FinalScore(1, 0, 0))
}

func TestScoreBounds(t *testing.T) {
	cases := []int{
		OwnerScore(false, false, true, 100, true),
		OwnerScore(true, true, false, 0, false),
		EntityScore(true, 200, 100, false),
		EntityScore(false, -5, 0, true),
		TransactionScore(1, 1, 0, 0),
		TransactionScore(1, 0, 1, 100),
	}
	for _, score := range cases {
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, MaxScore)
	}
}

func TestRiskCategory(t *testing.T) {
	assert.Equal(t, RiskHigh, RiskCategory(0))
	assert.Equal(t, RiskHigh, RiskCategory(300))
	assert.Equal(t, RiskMedium, RiskCategory(301))
	assert.Equal(t, RiskMedium, RiskCategory(600))
	assert.Equal(t, RiskLow, RiskCategory(601))
	assert.Equal(t, RiskLow, RiskCategory(800))
	assert.Equal(t, RiskExcellent, RiskCategory(801))
	assert.Equal(t, RiskExcellent, RiskCategory(1000))
}

func TestRecommendationFor(t *testing.T) {
	assert.Equal(t, Reject, RecommendationFor(RiskHigh))
	assert.Equal(t, Reject, RecommendationFor(RiskMedium))
	assert.Equal(t, Approve, RecommendationFor(RiskLow))
	assert.Equal(t, Approve, RecommendationFor(RiskExcellent))
}
