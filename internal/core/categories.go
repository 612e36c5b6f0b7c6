package core

// Category is one entry of the fixed taxonomy. Transactions denormalize
// the name+icon pair, so editing the taxonomy never rewrites history.
type Category struct {
	Name  string
	Icon  string
	Color string
}

// ExpenseCategories is the fixed ordered expense taxonomy. The trailing
// "Other" entry doubles as the fallback for unknown names.
var ExpenseCategories = []Category{
	{Name: "Dining", Icon: "utensils", Color: "#F472B6"},
	{Name: "Transport", Icon: "car", Color: "#60A5FA"},
	{Name: "Shopping", Icon: "shopping-bag", Color: "#FBBF24"},
	{Name: "Home", Icon: "home", Color: "#34D399"},
	{Name: "Entertainment", Icon: "gamepad-2", Color: "#A78BFA"},
	{Name: "Health", Icon: "heart-pulse", Color: "#F87171"},
	{Name: "Education", Icon: "graduation-cap", Color: "#38BDF8"},
	{Name: "Utilities", Icon: "zap", Color: "#FB923C"},
	{Name: "Phone", Icon: "phone", Color: "#4ADE80"},
	{Name: "Other", Icon: "more-horizontal", Color: "#9CA3AF"},
}

// IncomeCategories is the fixed ordered income taxonomy.
var IncomeCategories = []Category{
	{Name: "Salary", Icon: "briefcase", Color: "#4CAF50"},
	{Name: "Bonus", Icon: "gift", Color: "#FBBF24"},
	{Name: "Investment", Icon: "trending-up", Color: "#60A5FA"},
	{Name: "Part-time", Icon: "laptop", Color: "#A78BFA"},
	{Name: "Gift", Icon: "wallet", Color: "#F472B6"},
	{Name: "Other", Icon: "more-horizontal", Color: "#9CA3AF"},
}

// AccountIcons lists the icon choices offered when creating an account.
var AccountIcons = []Category{
	{Name: "wallet", Icon: "wallet", Color: "#60A5FA"},
	{Name: "credit-card", Icon: "credit-card", Color: "#818CF8"},
	{Name: "banknote", Icon: "banknote", Color: "#34D399"},
	{Name: "landmark", Icon: "landmark", Color: "#F472B6"},
	{Name: "smartphone", Icon: "smartphone", Color: "#FBBF24"},
	{Name: "piggy-bank", Icon: "piggy-bank", Color: "#F87171"},
}

// CategoriesFor returns the taxonomy matching the transaction type.
func CategoriesFor(t TxType) []Category {
	if t == Income {
		return IncomeCategories
	}
	return ExpenseCategories
}

// CategoryByName looks a category up in the taxonomy for the given type,
// falling back to the trailing "Other" entry for unknown names.
func CategoryByName(name string, t TxType) Category {
	cats := CategoriesFor(t)
	for _, c := range cats {
		if c.Name == name {
			return c
		}
	}
	return cats[len(cats)-1]
}

// CategoryApplies reports whether name belongs to the taxonomy for t.
func CategoryApplies(name string, t TxType) bool {
	for _, c := range CategoriesFor(t) {
		if c.Name == name {
			return true
		}
	}
	return false
}
