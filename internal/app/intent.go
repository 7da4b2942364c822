package app

import "strings"

// Intent is the outcome of matching a guest message against the
// per-language lexicon. The classifier is a pure function so it can be
// swapped for a smarter collaborator later without touching callers.
type Intent string

const (
	IntentRestaurants Intent = "restaurants"
	IntentSightseeing Intent = "sightseeing"
	IntentEvents      Intent = "events"
	IntentShopping    Intent = "shopping"
	IntentNightlife   Intent = "nightlife"
	IntentGreeting    Intent = "greeting"
	IntentThanks      Intent = "thanks"
	IntentUnknown     Intent = "unknown"
)

// Category returns the recommendation category for an intent, or ""
// for conversational intents.
func (i Intent) Category() string {
	switch i {
	case IntentRestaurants, IntentSightseeing, IntentEvents, IntentShopping, IntentNightlife:
		return string(i)
	}
	return ""
}

// checked in order: recommendation intents win over greetings so that
// "hi, any restaurants nearby?" resolves to restaurants.
var intentOrder = []Intent{
	IntentRestaurants, IntentSightseeing, IntentEvents,
	IntentShopping, IntentNightlife, IntentGreeting, IntentThanks,
}

var lexicon = map[string]map[Intent][]string{
	"en": {
		IntentRestaurants: {"restaurant", "restaurants", "food", "eat", "dinner", "lunch", "breakfast", "dining", "hungry", "cafe"},
		IntentSightseeing: {"sightseeing", "attraction", "attractions", "visit", "see", "monument", "museum", "park", "temple"},
		IntentEvents:      {"event", "events", "concert", "show", "entertainment", "festival"},
		IntentShopping:    {"shop", "shopping", "buy", "mall", "market", "souvenir"},
		IntentNightlife:   {"nightlife", "bar", "bars", "club", "clubs", "pub", "night out", "drinks"},
		IntentGreeting:    {"hello", "hi", "hey", "good morning", "good evening"},
		IntentThanks:      {"thanks", "thank you", "thankyou", "great", "awesome"},
	},
	"hi": {
		IntentRestaurants: {"रेस्तरां", "खाना", "भोजन", "रेस्टोरेंट", "कैफे"},
		IntentSightseeing: {"दर्शनीय", "आकर्षण", "घूमने", "स्मारक", "संग्रहालय", "मंदिर"},
		IntentEvents:      {"कार्यक्रम", "शो", "मनोरंजन"},
		IntentShopping:    {"खरीदारी", "बाजार", "मॉल", "शॉपिंग"},
		IntentNightlife:   {"नाइटलाइफ", "बार", "क्लब", "पब"},
		IntentGreeting:    {"नमस्ते", "हैलो", "नमस्कार"},
		IntentThanks:      {"धन्यवाद", "शुक्रिया"},
	},
	"es": {
		IntentRestaurants: {"restaurante", "restaurantes", "comida", "comer", "cena", "almuerzo", "café"},
		IntentSightseeing: {"turismo", "atracciones", "visitar", "monumento", "museo", "parque"},
		IntentEvents:      {"evento", "eventos", "concierto", "espectáculo", "entretenimiento"},
		IntentShopping:    {"compras", "comprar", "tienda", "mercado", "centro comercial"},
		IntentNightlife:   {"vida nocturna", "bar", "bares", "discoteca", "club"},
		IntentGreeting:    {"hola", "buenos días", "buenas tardes"},
		IntentThanks:      {"gracias"},
	},
	"fr": {
		IntentRestaurants: {"restaurant", "restaurants", "manger", "dîner", "déjeuner", "cuisine", "café"},
		IntentSightseeing: {"tourisme", "attractions", "visiter", "monument", "musée", "parc"},
		IntentEvents:      {"événement", "événements", "concert", "spectacle", "divertissement"},
		IntentShopping:    {"shopping", "acheter", "boutique", "marché", "centre commercial"},
		IntentNightlife:   {"vie nocturne", "bar", "bars", "boîte", "club"},
		IntentGreeting:    {"bonjour", "salut", "bonsoir"},
		IntentThanks:      {"merci"},
	},
}

// ClassifyIntent matches the normalized message against the lexicon for
// lang (plus English, which guests mix in regardless of their selected
// language). Single-word keywords match whole tokens; phrases match as
// substrings.
func ClassifyIntent(message, lang string) Intent {
	lower := strings.ToLower(strings.TrimSpace(message))
	if lower == "" {
		return IntentUnknown
	}
	tokens := tokenize(lower)

	lexes := []map[Intent][]string{lexicon["en"]}
	if lx, ok := lexicon[lang]; ok && lang != "en" {
		lexes = append([]map[Intent][]string{lx}, lexes...)
	}

	for _, intent := range intentOrder {
		for _, lx := range lexes {
			for _, kw := range lx[intent] {
				if matches(lower, tokens, kw) {
					return intent
				}
			}
		}
	}
	return IntentUnknown
}

func matches(lower string, tokens map[string]bool, kw string) bool {
	if strings.ContainsRune(kw, ' ') {
		return strings.Contains(lower, kw)
	}
	return tokens[kw]
}

func tokenize(s string) map[string]bool {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', ',', '.', '!', '?', ';', ':', '¿', '¡', '।':
			return true
		}
		return false
	})
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
