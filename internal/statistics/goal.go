package statistics

import "github.com/shopspring/decimal"

// Goals are the targets of the period, already summed over the stores of
// the scope.
type Goals struct {
	SalesTarget      decimal.Decimal
	ActivationTarget int
}

// GoalAchievement carries uncapped percentages; 134.2 means the target was
// beaten by a third. A rate is nil when its target is zero or negative.
type GoalAchievement struct {
	SalesTarget               decimal.Decimal `json:"sales_target"`
	ActivationTarget          int             `json:"activation_target"`
	SalesAchievementRate      *float64        `json:"sales_achievement_rate"`
	ActivationAchievementRate *float64        `json:"activation_achievement_rate"`
}

var hundred = decimal.NewFromInt(100)

// Rate returns part/whole*100 rounded to one decimal place, or nil when
// whole is not positive.
func Rate(part, whole decimal.Decimal) *float64 {
	if !whole.IsPositive() {
		return nil
	}
	r := part.Mul(hundred).Div(whole).Round(1).InexactFloat64()
	return &r
}

func achievement(g Goals, settlementTotal decimal.Decimal, sales int) *GoalAchievement {
	return &GoalAchievement{
		SalesTarget:               g.SalesTarget,
		ActivationTarget:          g.ActivationTarget,
		SalesAchievementRate:      Rate(settlementTotal, g.SalesTarget),
		ActivationAchievementRate: Rate(decimal.NewFromInt(int64(sales)), decimal.NewFromInt(int64(g.ActivationTarget))),
	}
}
