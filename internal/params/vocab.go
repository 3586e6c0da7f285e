package params

import "strings"

var categoryTerms = map[string]string{
	"laptop": "laptops", "laptops": "laptops", "notebook": "laptops", "notebooks": "laptops",
	"ultrabook": "laptops", "ultrabooks": "laptops", "chromebook": "laptops", "chromebooks": "laptops",
	"display": "displays", "displays": "displays", "monitor": "displays", "monitors": "displays",
	"screen": "displays", "screens": "displays",
	"accessory": "accessories", "accessories": "accessories",
	"storage": "storage", "ssd": "storage", "ssds": "storage", "hdd": "storage", "hdds": "storage",
	"drive": "storage", "drives": "storage",
	"memory": "memory", "ram": "memory",
	"networking": "networking", "router": "networking", "routers": "networking", "wifi": "networking",
}

// NormalizeCategory maps singular, plural and synonym forms to a canonical
// catalog category. Unrecognised input is returned lowercased.
func NormalizeCategory(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := categoryTerms[s]; ok {
		return c
	}
	return s
}

// brandNames maps lowercase spellings to the catalog's canonical casing.
var brandNames = map[string]string{
	"dell": "Dell", "hp": "HP", "lenovo": "Lenovo", "apple": "Apple", "asus": "ASUS", "acer": "Acer",
	"msi": "MSI", "samsung": "Samsung", "lg": "LG", "logitech": "Logitech", "microsoft": "Microsoft",
	"razer": "Razer", "anker": "Anker", "crucial": "Crucial", "wd": "WD", "tp-link": "TP-Link",
	"tplink": "TP-Link", "google": "Google", "sony": "Sony", "toshiba": "Toshiba", "huawei": "Huawei",
	"gigabyte": "Gigabyte", "framework": "Framework",
	"macbook": "Apple", "macbooks": "Apple", "thinkpad": "Lenovo", "thinkpads": "Lenovo",
}

var stopwords = toSet(
	"a", "an", "the", "i", "i'm", "im", "me", "my", "we", "us", "our", "you", "your", "it", "its", "they", "them",
	"this", "that", "these", "those", "there", "here", "is", "are", "am", "was", "be", "been", "do", "does", "did",
	"have", "has", "had", "can", "could", "would", "will", "should", "may", "might", "shall", "please", "pls",
	"for", "with", "without", "and", "or", "but", "of", "to", "in", "on", "at", "by", "from", "into", "about",
	"around", "any", "some", "all", "every", "everything", "anything", "something", "what", "which", "who",
	"how", "whats", "what's", "like", "want", "wanna", "need", "looking", "look", "search", "searching", "find",
	"show", "list", "browse", "see", "get", "give", "got", "buy", "purchase", "sell", "sale", "shop", "just",
	"also", "too", "really", "very", "so", "then", "than", "now", "again", "else", "more", "less", "other",
	"others", "ones", "one", "instead", "only", "else", "well", "ok", "okay", "hey", "hi", "hello", "thanks",
	"thank", "good", "best", "nice", "new", "cheap", "cheaper", "cheapest", "affordable", "budget", "price",
	"priced", "prices", "cost", "costs", "costing", "dollars", "dollar", "usd", "bucks", "product", "products",
	"item", "items", "stuff", "things", "thing", "options", "option", "results", "result", "page", "per",
	"stock", "available", "availability", "catalog", "store", "type", "kind", "kinds", "sort", "please",
	"under", "below", "over", "above", "between", "max", "min", "least", "most", "up", "no", "not", "out",
)

var numberWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "single": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13,
	"fourteen": 14, "fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50, "hundred": 100,
	"couple": 2, "pair": 2, "few": 3, "dozen": 12,
}

// multiNumberWords are checked before single words; the last token is the key.
var multiNumberWords = map[string]int{
	"a couple": 2, "a pair": 2, "a few": 3, "a dozen": 12, "half dozen": 6, "half a dozen": 6,
}

var cityStates = map[string]string{
	"new york": "NY", "brooklyn": "NY", "buffalo": "NY", "los angeles": "CA", "san francisco": "CA",
	"san diego": "CA", "san jose": "CA", "sacramento": "CA", "oakland": "CA", "chicago": "IL",
	"houston": "TX", "austin": "TX", "dallas": "TX", "san antonio": "TX", "el paso": "TX",
	"phoenix": "AZ", "tucson": "AZ", "philadelphia": "PA", "pittsburgh": "PA", "seattle": "WA",
	"spokane": "WA", "portland": "OR", "denver": "CO", "boston": "MA", "miami": "FL", "orlando": "FL",
	"tampa": "FL", "jacksonville": "FL", "atlanta": "GA", "detroit": "MI", "minneapolis": "MN",
	"las vegas": "NV", "salt lake city": "UT", "nashville": "TN", "memphis": "TN", "charlotte": "NC",
	"raleigh": "NC", "columbus": "OH", "cleveland": "OH", "cincinnati": "OH", "indianapolis": "IN",
	"baltimore": "MD", "washington": "DC", "new orleans": "LA", "kansas city": "MO", "st. louis": "MO",
	"st louis": "MO", "milwaukee": "WI", "albuquerque": "NM", "omaha": "NE", "honolulu": "HI",
	"anchorage": "AK", "louisville": "KY", "oklahoma city": "OK", "richmond": "VA", "boise": "ID",
}

var stateNames = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR", "california": "CA",
	"colorado": "CO", "connecticut": "CT", "delaware": "DE", "florida": "FL", "georgia": "GA",
	"hawaii": "HI", "idaho": "ID", "illinois": "IL", "indiana": "IN", "iowa": "IA", "kansas": "KS",
	"kentucky": "KY", "louisiana": "LA", "maine": "ME", "maryland": "MD", "massachusetts": "MA",
	"michigan": "MI", "minnesota": "MN", "mississippi": "MS", "missouri": "MO", "montana": "MT",
	"nebraska": "NE", "nevada": "NV", "new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM",
	"new york": "NY", "north carolina": "NC", "north dakota": "ND", "ohio": "OH", "oklahoma": "OK",
	"oregon": "OR", "pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC",
	"south dakota": "SD", "tennessee": "TN", "texas": "TX", "utah": "UT", "vermont": "VT",
	"virginia": "VA", "washington": "WA", "west virginia": "WV", "wisconsin": "WI", "wyoming": "WY",
}

var stateCodes = func() map[string]bool {
	m := map[string]bool{"DC": true}
	for _, c := range stateNames {
		m[c] = true
	}
	return m
}()

var countryNames = map[string]string{
	"usa": "USA", "us": "USA", "u.s.": "USA", "u.s.a.": "USA", "united states": "USA",
	"united states of america": "USA", "america": "USA", "canada": "Canada", "mexico": "Mexico",
	"uk": "United Kingdom", "united kingdom": "United Kingdom", "germany": "Germany", "france": "France",
}

func toSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
