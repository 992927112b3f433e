// Package scoring holds the credit scoring policy: three component scores, a
// weighted aggregate, and the risk classification. Every function is pure and
// deterministic; lookups and defaults for missing data are the orchestrator's
// concern, not this package's.
package scoring

// Component scores and the final score are bounded to [0, MaxScore].
const MaxScore = 1000

// Fixed component defaults applied by callers when the underlying data is
// entirely absent. EntityScoreDefault substitutes for EntityScore when the
// entity cannot be found; TransactionScoreDefault likewise, and also when the
// entity has no invoices (TransactionScore returns it directly for total==0).
const (
	EntityScoreDefault      = 600
	TransactionScoreDefault = 650
)

// Risk is the four-tier classification derived from the final score.
type Risk string

const (
	RiskHigh      Risk = "HIGH_RISK"
	RiskMedium    Risk = "MEDIUM_RISK"
	RiskLow       Risk = "LOW_RISK"
	RiskExcellent Risk = "EXCELLENT"
)

// Recommendation is the approve/reject outcome derived from the risk tier.
type Recommendation string

const (
	Approve Recommendation = "APPROVE"
	Reject  Recommendation = "REJECT"
)

// OwnerScore rates the individual behind the entity. Starts at 700:
// +100 when the identity is verified, +50 when a secondary credential is
// linked; -500 blacklist, -200 when no secondary is linked (independent of
// the +50 bonus), -150 on a cross-profile mismatch, -100 per prior default.
func OwnerScore(identityVerified, secondaryLinked, blacklisted bool, priorDefaults int, crossMismatch bool) int {
	score := 700

	if identityVerified {
		score += 100
	}
	if secondaryLinked {
		score += 50
	} else {
		score -= 200
	}

	if blacklisted {
		score -= 500
	}
	if crossMismatch {
		score -= 150
	}

	score -= priorDefaults * 100

	return clamp(score)
}

// EntityScore rates the registered entity from its compliance history and
// age. complianceAvg is the 0-100 mean of filing scores; ageYears is a
// calendar-year difference. The active flag is carried for parity with the
// registration data but does not affect the formula.
func EntityScore(active bool, complianceAvg float64, ageYears int, suspended bool) int {
	_ = active

	complianceComponent := complianceAvg * 10
	if complianceComponent > 1000 {
		complianceComponent = 1000
	}
	ageBonus := float64(ageYears * 20)
	if ageBonus > 200 {
		ageBonus = 200
	}

	base := complianceComponent*0.7 + ageBonus*0.3

	penalties := 0.0
	if suspended {
		penalties += 500
	}
	if complianceAvg < 50 {
		penalties += 150
	}

	return clamp(int(base - penalties))
}

// TransactionScore rates payment behavior over the invoice history. A total
// of zero short-circuits to the fixed default. All ratio thresholds are
// strict greater-than.
func TransactionScore(total int, paidRatio, defaultRatio, avgDelayDays float64) int {
	if total == 0 {
		return TransactionScoreDefault
	}

	score := 700

	if paidRatio > 0.8 {
		score += 100
	} else if paidRatio > 0.6 {
		score += 50
	}

	if defaultRatio > 0.4 {
		score -= 400
	} else if defaultRatio > 0.2 {
		score -= 200
	}

	if avgDelayDays > 60 {
		score -= 200
	} else if avgDelayDays > 30 {
		score -= 100
	}

	return clamp(score)
}

// FinalScore aggregates the components: owner 40%, entity 40%, transaction
// 20%, truncated toward zero. Inputs are already bounded so no further clamp
// is needed.
func FinalScore(owner, entity, transaction int) int {
	return int(float64(owner)*0.4 + float64(entity)*0.4 + float64(transaction)*0.2)
}

// RiskCategory buckets a final score. Boundaries are inclusive on the lower
// tier: 300 is still HIGH_RISK, 800 is still LOW_RISK.
func RiskCategory(score int) Risk {
	switch {
	case score <= 300:
		return RiskHigh
	case score <= 600:
		return RiskMedium
	case score <= 800:
		return RiskLow
	default:
		return RiskExcellent
	}
}

// RecommendationFor maps a risk tier to the approve/reject outcome.
func RecommendationFor(risk Risk) Recommendation {
	if risk == RiskHigh || risk == RiskMedium {
		return Reject
	}
	return Approve
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
