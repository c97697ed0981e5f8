package classify

// Category is one of the fixed label meanings a message can be assigned.
// The set is closed for the process lifetime; replies from classification
// backends are validated against it by exact string match.
type Category string

// The full category set, in prompt order.
const (
	CategoryImportant     Category = "Important"
	CategoryUrgent        Category = "Urgent"
	CategoryWork          Category = "Work"
	CategoryPersonal      Category = "Personal"
	CategoryFinance       Category = "Finance"
	CategorySales         Category = "Sales"
	CategoryPromotions    Category = "Promotions"
	CategoryNewsletter    Category = "Newsletter"
	CategorySocial        Category = "Social"
	CategoryShopping      Category = "Shopping"
	CategoryEntertainment Category = "Entertainment"
	CategoryHealth        Category = "Health"
	CategoryEducation     Category = "Education"
	CategoryAutomated     Category = "Automated"
	CategorySpamming      Category = "Spamming"
	CategoryOther         Category = "Other"
)

// DefaultCategory is assigned when every classification tier has been
// exhausted without a valid reply.
const DefaultCategory = CategoryOther

// Categories lists every valid category in order.
var Categories = []Category{
	CategoryImportant,
	CategoryUrgent,
	CategoryWork,
	CategoryPersonal,
	CategoryFinance,
	CategorySales,
	CategoryPromotions,
	CategoryNewsletter,
	CategorySocial,
	CategoryShopping,
	CategoryEntertainment,
	CategoryHealth,
	CategoryEducation,
	CategoryAutomated,
	CategorySpamming,
	CategoryOther,
}

// categoryHints gives the one-line rationale embedded in the prompt for each
// category.
var categoryHints = map[Category]string{
	CategoryImportant:     "personally significant mail that needs attention but is not time-critical",
	CategoryUrgent:        "time-critical mail requiring immediate action",
	CategoryWork:          "professional correspondence, colleagues, clients, business matters",
	CategoryPersonal:      "mail from friends and family",
	CategoryFinance:       "banking, invoices, receipts, statements, payments",
	CategorySales:         "direct sales outreach and offers addressed to the recipient",
	CategoryPromotions:    "marketing blasts, discounts, coupons, product announcements",
	CategoryNewsletter:    "periodic digests and subscribed publications",
	CategorySocial:        "social network notifications, mentions, friend requests",
	CategoryShopping:      "order confirmations, shipping updates, deliveries",
	CategoryEntertainment: "streaming, gaming, events, media releases",
	CategoryHealth:        "appointments, prescriptions, fitness, insurance",
	CategoryEducation:     "courses, schools, learning platforms",
	CategoryAutomated:     "machine-generated notices such as alerts, CI results, system mail",
	CategorySpamming:      "unsolicited junk or suspicious mail",
	CategoryOther:         "anything that fits none of the above",
}

// String returns the category as a plain string.
func (c Category) String() string {
	return string(c)
}

// ValidCategory reports whether s is an exact member of the category set.
// No fuzzy matching: casing and spelling must match.
func ValidCategory(s string) bool {
	for _, c := range Categories {
		if string(c) == s {
			return true
		}
	}
	return false
}

// CategoryNames returns the category set as plain strings, in order.
func CategoryNames() []string {
	names := make([]string, 0, len(Categories))
	for _, c := range Categories {
		names = append(names, string(c))
	}
	return names
}
