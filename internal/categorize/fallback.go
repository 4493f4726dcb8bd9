package categorize

import "strings"

type keywordRule struct {
	category string
	keywords []string
}

// Rules are checked in order; the first category with a keyword hit wins.
var keywordRules = []keywordRule{
	{"Food and Drinks", []string{
		"restaurant", "cafe", "coffee", "pizza", "burger", "food",
		"domino", "mcdonald", "kfc", "subway", "starbucks",
		"swiggy", "zomato", "ubereats", "dining", "kitchen",
		"biryani", "dhaba", "bar", "pub", "drinks",
		"bakery", "tea", "juice", "ice cream", "dunkin",
	}},
	{"Groceries", []string{
		"grocery", "supermarket", "blinkit", "bigbasket", "grofers",
		"instamart", "dunzo", "fresh", "vegetables", "fruits",
		"dmart", "reliance fresh", "more megastore", "nature's basket",
		"spencer", "star bazaar", "jiomart",
	}},
	{"Shopping", []string{
		"amazon", "flipkart", "myntra", "ajio", "meesho",
		"shop", "store", "mart", "bazaar", "mall", "retail",
		"fashion", "clothing", "electronics", "apparel",
		"furniture", "decor", "snapdeal", "nykaa", "lenskart",
		"vijay sales", "croma", "reliance digital",
	}},
	{"Entertainment", []string{
		"netflix", "prime", "hotstar", "spotify", "youtube",
		"movie", "cinema", "theater", "theatre", "pvr", "inox",
		"game", "entertainment", "music", "concert", "event",
		"bookmyshow", "paytm insider", "sony liv", "zee5",
		"disney", "voot", "mx player",
	}},
	{"Travel and Transport", []string{
		"uber", "ola", "rapido", "taxi", "cab", "metro",
		"bus", "train", "flight", "airline", "fuel", "petrol",
		"transport", "travel", "hotel", "resort", "booking",
		"airbnb", "makemytrip", "goibibo", "cleartrip", "irctc",
		"indigo", "spicejet", "vistara", "air india", "diesel",
		"parking", "toll", "oyo",
	}},
	{"Bills and Utilities", []string{
		"electricity", "water", "gas", "bill", "utility",
		"broadband", "internet", "wifi", "recharge", "mobile",
		"airtel", "jio", "vodafone", "bsnl", "tata", "adani",
		"reliance", "postpaid", "prepaid", "tata sky", "dish tv",
		"sun direct", "airtel digital", "dth",
	}},
	{"Healthcare", []string{
		"hospital", "clinic", "doctor", "medical", "health",
		"pharmacy", "apollo", "medplus", "netmeds", "1mg",
		"pharmeasy", "medicine", "diagnostic", "lab", "test",
		"fortis", "max", "manipal", "narayana", "dental",
		"physiotherapy", "ayurveda",
	}},
	{"Education", []string{
		"education", "school", "college", "university", "course",
		"tuition", "coaching", "udemy", "coursera", "upgrad",
		"byju", "unacademy", "vedantu", "toppr", "book",
		"library", "stationery", "exam", "fees", "admission",
	}},
	{"Investments", []string{
		"investment", "mutual fund", "stock", "sip", "insurance",
		"zerodha", "groww", "upstox", "angel", "paytm money",
		"lic", "hdfc life", "icici prudential", "sbi life",
		"policy", "premium", "fd", "fixed deposit", "recurring",
	}},
	{"Personal Care", []string{
		"salon", "spa", "beauty", "parlour", "gym", "fitness",
		"yoga", "massage", "wellness", "hair", "skin",
		"cult.fit", "urban company", "lakme", "vlcc",
		"grooming", "cosmetics", "makeup",
	}},
	{"Subscriptions", []string{
		"subscription", "monthly", "annual", "membership",
		"amazon prime", "youtube premium", "linkedin premium",
		"office 365", "adobe", "microsoft", "apple",
		"google one", "icloud", "dropbox", "canva pro",
	}},
}

// Fallback categorizes a merchant by keyword matching alone. It is used
// when no Gemini key is configured or the API call fails, and always
// returns a valid category.
func Fallback(merchant string) string {
	lower := strings.ToLower(merchant)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return "Others"
}
