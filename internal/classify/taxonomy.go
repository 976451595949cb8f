package classify

// DefaultCategories is the standard punch comment taxonomy.
var DefaultCategories = []Category{
	{Name: "EARLY OUT", Keywords: []string{
		"EARLY_OUT", "EARLY OUT", "EARLYOUT", "EARLY", "LEFT_EARLY", "LEFT EARLY",
	}},
	{Name: "LATE OUT", Keywords: []string{
		"LATE_OUT", "LATE OUT", "LATEOUT", "VERY_LATE_OUT", "VERY LATE OUT", "VERY_LATE",
	}},
	{Name: "LATE IN", Keywords: []string{
		"LATE_IN", "LATE IN", "LATEIN", "LATE", "VERY_LATE", "ARRIVED_LATE", "ARRIVED LATE",
	}},
	{Name: "MISSED PUNCH", Keywords: []string{
		"MISSED_PUNCH", "MISSED PUNCH", "MISSEDPUNCH", "MISSING_PUNCH",
		"FORGOT_PUNCH", "FORGOT PUNCH", "NO_PUNCH", "NO PUNCH", "IN_CHAIN", "IN CHAIN",
	}},
	{Name: "PTO", Keywords: []string{
		"PTO", "PAID_TIME_OFF", "PAID TIME OFF", "VACATION", "PERSONAL_DAY", "PERSONAL DAY",
		"SICK", "SICK_DAY", "SICK DAY", "HOLIDAY", "LEAVE", "TIME_OFF", "TIME OFF",
	}},
	{Name: "UNSCHEDULED", Keywords: []string{
		"UNSCHEDULED", "UN_SCHEDULED", "NOT_SCHEDULED", "NOT SCHEDULED",
		"EXTRA_SHIFT", "EXTRA SHIFT", "OVERTIME", "OT",
	}},
	{Name: "MEAL ISSUE", Keywords: []string{
		"MEAL_NOT_TAKEN", "MEAL NOT TAKEN", "MEAL_ISSUE", "MEAL ISSUE",
		"NO_MEAL", "NO MEAL", "MISSED_MEAL", "MISSED MEAL",
	}},
	{Name: "SHORT SHIFT", Keywords: []string{
		"SHORT_SHIFT", "SHORT SHIFT", "SHORTSHIFT", "PARTIAL_SHIFT", "PARTIAL SHIFT",
	}},
	{Name: "CANCELLED DEDUCTION", Keywords: []string{
		"CANCELLED_DEDUCTION", "CANCELLED DEDUCTION", "CANCELED_DEDUCT",
		"CANCELED DEDUCTION", "DEDUCTION_CANCELLED", "DEDUCTION CANCELLED",
	}},
}

// DefaultRules are the compound fallbacks tried after keyword matching.
var DefaultRules = []CompoundRule{
	{Anchor: "MISSED", AnyOf: []string{"PUNCH", "IN", "OUT"}, Category: "MISSED PUNCH"},
	{Anchor: "MEAL", AnyOf: []string{"NOT", "TAKEN", "SKIP", "MISSED"}, Category: "MEAL ISSUE"},
	{Anchor: "LATE", Whole: true, Category: "LATE IN"},
}

var std = New(DefaultCategories, DefaultRules)

// Default returns the classifier built from the standard taxonomy.
func Default() *Classifier { return std }

// Classify runs the standard classifier.
func Classify(text *string) string { return std.Classify(text) }
