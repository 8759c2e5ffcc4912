package pricing

const (
	WeeklyStayNights  = 7
	MonthlyStayNights = 28

	DiscountTypeWeekly  = "WEEKLY_STAY"
	DiscountTypeMonthly = "MONTHLY_STAY"
)

// DiscountRule evaluates one discount policy against a stay. Rules are
// pure so each policy can be tested in isolation.
type DiscountRule func(nights int, basePrice float64) (Discount, bool)

// StayLengthDiscount builds a rule granting rate*basePrice once the stay
// reaches minNights. A zero rate disables the rule.
func StayLengthDiscount(discountType, name string, minNights int, rate float64) DiscountRule {
	return func(nights int, basePrice float64) (Discount, bool) {
		if rate <= 0 || nights < minNights {
			return Discount{}, false
		}
		return Discount{Type: discountType, Name: name, Amount: basePrice * rate}, true
	}
}

// DiscountRules lists the listing's night-count discounts in priority
// order: monthly outranks weekly, and only the first matching rule
// applies to a booking.
func (r Rules) DiscountRules() []DiscountRule {
	return []DiscountRule{
		StayLengthDiscount(DiscountTypeMonthly, "Monthly stay discount", MonthlyStayNights, r.MonthlyDiscountRate),
		StayLengthDiscount(DiscountTypeWeekly, "Weekly stay discount", WeeklyStayNights, r.WeeklyDiscountRate),
	}
}

func evaluateDiscounts(rules []DiscountRule, nights int, basePrice float64) []Discount {
	for _, rule := range rules {
		if d, ok := rule(nights, basePrice); ok {
			return []Discount{d}
		}
	}
	return nil
}
