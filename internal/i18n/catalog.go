// Package i18n renders guest-facing bot text. The catalog is static;
// unsupported languages fall back to English rather than failing the
// request, so a reply is never a mix of languages and never an error.
package i18n

import "strings"

const DefaultLanguage = "en"

var supported = map[string]bool{"en": true, "hi": true, "es": true, "fr": true}

// Supported reports whether lang has a catalog of its own.
func Supported(lang string) bool { return supported[lang] }

// Normalize maps an arbitrary language tag onto a supported catalog
// language, defaulting to English.
func Normalize(lang string) string {
	l := strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexByte(l, '-'); i > 0 {
		l = l[:i]
	}
	if supported[l] {
		return l
	}
	return DefaultLanguage
}

// Localize renders templateKey in lang, substituting {name} style
// params. Missing keys and unsupported languages resolve through the
// English catalog.
func Localize(templateKey, lang string, params map[string]string) string {
	lang = Normalize(lang)
	text, ok := catalog[lang][templateKey]
	if !ok {
		text = catalog[DefaultLanguage][templateKey]
	}
	for k, v := range params {
		text = strings.ReplaceAll(text, "{"+k+"}", v)
	}
	return text
}

// CategoryLabel returns the guest-facing label for a recommendation
// category (used both in option lists and recommendation headers).
func CategoryLabel(category, lang string) string {
	return Localize("cat."+category, lang, nil)
}

var catalog = map[string]map[string]string{
	"en": {
		"welcome":             "Hello {guest}! Welcome to {hotel}. I'm your personal travel assistant. I can help you discover amazing restaurants, attractions, and events near your hotel. What would you like to explore?",
		"options_header":      "What would you like to explore? Choose from:",
		"recs_header":         "Here are the top {category} recommendations near your hotel:",
		"recs_empty":          "Sorry, I couldn't find any {category} recommendations near your hotel at the moment.",
		"recs_unavailable":    "Sorry, I couldn't look up {category} right now. Please try again in a little while.",
		"geocode_unavailable": "Location services are temporarily unavailable, so I can't find places near your hotel right now. Please try again later.",
		"general_help":        "I can help you discover amazing places around your hotel! You can ask me about restaurants, sightseeing attractions, events, shopping, or nightlife. What interests you most?",
		"greeting":            "Hello! How can I help you explore the area around your hotel?",
		"thanks":              "You're welcome! Let me know if you'd like more recommendations.",
		"session_closed":      "This chat session has ended. Please start a new session to continue.",
		"label.rating":        "Rating",
		"label.distance":      "Distance",
		"label.address":       "Address",
		"unit.km":             "km",
		"cat.restaurants":     "🍽️ Restaurants & Dining",
		"cat.sightseeing":     "🏛️ Sightseeing & Attractions",
		"cat.events":          "🎭 Events & Entertainment",
		"cat.shopping":        "🛍️ Shopping",
		"cat.nightlife":       "🌃 Nightlife",
	},
	"hi": {
		"welcome":             "नमस्ते {guest}! {hotel} में आपका स्वागत है। मैं आपका व्यक्तिगत यात्रा सहायक हूं। मैं आपको आपके होटल के पास के अद्भुत रेस्तरां, आकर्षण और कार्यक्रमों की खोज में मदद कर सकता हूं। आप क्या खोजना चाहेंगे?",
		"options_header":      "आप क्या खोजना चाहेंगे? इनमें से चुनें:",
		"recs_header":         "यहाँ आपके होटल के पास के शीर्ष {category} सुझाव हैं:",
		"recs_empty":          "क्षमा करें, मुझे इस समय आपके होटल के पास कोई {category} सुझाव नहीं मिल सके।",
		"recs_unavailable":    "क्षमा करें, मैं अभी {category} नहीं खोज सका। कृपया थोड़ी देर बाद फिर से प्रयास करें।",
		"geocode_unavailable": "स्थान सेवाएँ अस्थायी रूप से अनुपलब्ध हैं, इसलिए मैं अभी आपके होटल के पास की जगहें नहीं खोज सकता। कृपया बाद में पुनः प्रयास करें।",
		"general_help":        "मैं आपके होटल के आसपास के अद्भुत स्थानों की खोज में आपकी मदद कर सकता हूं! आप मुझसे रेस्तरां, दर्शनीय स्थल, कार्यक्रम, खरीदारी या रात्रि जीवन के बारे में पूछ सकते हैं। आपको सबसे ज्यादा क्या दिलचस्पी है?",
		"greeting":            "नमस्ते! मैं आपके होटल के आसपास घूमने में कैसे मदद कर सकता हूं?",
		"thanks":              "आपका स्वागत है! अगर आपको और सुझाव चाहिए तो बताइए।",
		"session_closed":      "यह चैट सत्र समाप्त हो गया है। जारी रखने के लिए कृपया नया सत्र शुरू करें।",
		"label.rating":        "रेटिंग",
		"label.distance":      "दूरी",
		"label.address":       "पता",
		"unit.km":             "किमी",
		"cat.restaurants":     "🍽️ रेस्तरां और भोजन",
		"cat.sightseeing":     "🏛️ दर्शनीय स्थल और आकर्षण",
		"cat.events":          "🎭 कार्यक्रम और मनोरंजन",
		"cat.shopping":        "🛍️ खरीदारी",
		"cat.nightlife":       "🌃 रात्रि जीवन",
	},
	"es": {
		"welcome":             "¡Hola {guest}! Bienvenido a {hotel}. Soy tu asistente personal de viajes. Puedo ayudarte a descubrir restaurantes increíbles, atracciones y eventos cerca de tu hotel. ¿Qué te gustaría explorar?",
		"options_header":      "¿Qué te gustaría explorar? Elige entre:",
		"recs_header":         "Aquí están las mejores recomendaciones de {category} cerca de tu hotel:",
		"recs_empty":          "Lo siento, no pude encontrar recomendaciones de {category} cerca de tu hotel en este momento.",
		"recs_unavailable":    "Lo siento, no pude buscar {category} ahora mismo. Inténtalo de nuevo en un momento.",
		"geocode_unavailable": "Los servicios de ubicación no están disponibles temporalmente, así que no puedo buscar lugares cerca de tu hotel ahora. Inténtalo más tarde.",
		"general_help":        "¡Puedo ayudarte a descubrir lugares increíbles alrededor de tu hotel! Puedes preguntarme sobre restaurantes, atracciones turísticas, eventos, compras o vida nocturna. ¿Qué te interesa más?",
		"greeting":            "¡Hola! ¿Cómo puedo ayudarte a explorar la zona de tu hotel?",
		"thanks":              "¡De nada! Dime si quieres más recomendaciones.",
		"session_closed":      "Esta sesión de chat ha terminado. Inicia una nueva sesión para continuar.",
		"label.rating":        "Calificación",
		"label.distance":      "Distancia",
		"label.address":       "Dirección",
		"unit.km":             "km",
		"cat.restaurants":     "🍽️ Restaurantes y Comida",
		"cat.sightseeing":     "🏛️ Turismo y Atracciones",
		"cat.events":          "🎭 Eventos y Entretenimiento",
		"cat.shopping":        "🛍️ Compras",
		"cat.nightlife":       "🌃 Vida Nocturna",
	},
	"fr": {
		"welcome":             "Bonjour {guest}! Bienvenue à {hotel}. Je suis votre assistant de voyage personnel. Je peux vous aider à découvrir d'incroyables restaurants, attractions et événements près de votre hôtel. Que souhaitez-vous explorer?",
		"options_header":      "Que souhaitez-vous explorer? Choisissez parmi:",
		"recs_header":         "Voici les meilleures recommandations de {category} près de votre hôtel:",
		"recs_empty":          "Désolé, je n'ai pas pu trouver de recommandations de {category} près de votre hôtel pour le moment.",
		"recs_unavailable":    "Désolé, je n'ai pas pu rechercher {category} pour l'instant. Veuillez réessayer dans un moment.",
		"geocode_unavailable": "Les services de localisation sont temporairement indisponibles, je ne peux donc pas trouver de lieux près de votre hôtel. Veuillez réessayer plus tard.",
		"general_help":        "Je peux vous aider à découvrir des endroits incroyables autour de votre hôtel! Vous pouvez me demander des restaurants, des attractions touristiques, des événements, du shopping ou de la vie nocturne. Qu'est-ce qui vous intéresse le plus?",
		"greeting":            "Bonjour! Comment puis-je vous aider à explorer les environs de votre hôtel?",
		"thanks":              "Avec plaisir! Dites-moi si vous souhaitez d'autres recommandations.",
		"session_closed":      "Cette session de chat est terminée. Veuillez démarrer une nouvelle session pour continuer.",
		"label.rating":        "Note",
		"label.distance":      "Distance",
		"label.address":       "Adresse",
		"unit.km":             "km",
		"cat.restaurants":     "🍽️ Restaurants et Cuisine",
		"cat.sightseeing":     "🏛️ Tourisme et Attractions",
		"cat.events":          "🎭 Événements et Divertissement",
		"cat.shopping":        "🛍️ Shopping",
		"cat.nightlife":       "🌃 Vie Nocturne",
	},
}
