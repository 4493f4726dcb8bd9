package core

// Categories is the fixed transaction taxonomy. Every transaction and every
// categorizer answer must land in exactly one of these.
var Categories = []string{
	"Food and Drinks",
	"Groceries",
	"Shopping",
	"Entertainment",
	"Travel and Transport",
	"Bills and Utilities",
	"Healthcare",
	"Education",
	"Investments",
	"Personal Care",
	"Subscriptions",
	"Others",
}

// DefaultCategory is used when no categorizer can decide.
const DefaultCategory = "Others"

// ValidCategory reports whether name is part of the taxonomy.
func ValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}
