package prompt

import "strings"

// Locale selects the language of the assistant's fixed replies.
type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleGerman  Locale = "de"
)

// Strings holds the fixed reply texts for one locale.
type Strings struct {
	// Greeting is the canned reply to a bare salutation.
	Greeting string
	// NoContext is the reply when retrieval found nothing relevant.
	NoContext string
	// Fallback is the apologetic reply after a terminal inference failure.
	Fallback string
	// Safety instructs the model to answer only from the provided excerpts.
	Safety string
	// NoContextNotice tells the model no excerpts were found this turn.
	NoContextNotice string
	// ContextHeader introduces the documentation excerpts block.
	ContextHeader string
}

var localeTable = map[Locale]Strings{
	LocaleEnglish: {
		Greeting:        "Hello! I can answer questions about our product documentation. What would you like to know?",
		NoContext:       "I'm sorry, I could not find relevant information about that in the product documentation.",
		Fallback:        "I'm sorry, something went wrong while generating an answer. Please try again.",
		Safety:          "Answer only from the documentation excerpts provided. If the excerpts do not contain the answer, say so. Reply in English.",
		NoContextNotice: "No relevant documentation excerpts were found for this question.",
		ContextHeader:   "Documentation excerpts:",
	},
	LocaleGerman: {
		Greeting:        "Hallo! Ich beantworte Fragen zu unserer Produktdokumentation. Was möchten Sie wissen?",
		NoContext:       "Es tut mir leid, dazu konnte ich in der Produktdokumentation keine relevanten Informationen finden.",
		Fallback:        "Es tut mir leid, bei der Erstellung der Antwort ist ein Fehler aufgetreten. Bitte versuchen Sie es erneut.",
		Safety:          "Antworte ausschließlich anhand der bereitgestellten Dokumentationsauszüge. Wenn die Auszüge die Antwort nicht enthalten, sage das. Antworte auf Deutsch.",
		NoContextNotice: "Für diese Frage wurden keine relevanten Dokumentationsauszüge gefunden.",
		ContextHeader:   "Dokumentationsauszüge:",
	},
}

// Table returns the fixed strings for a locale, defaulting to English.
func Table(loc Locale) Strings {
	if s, ok := localeTable[loc]; ok {
		return s
	}
	return localeTable[LocaleEnglish]
}

// germanMarkers are common German function words unlikely to appear in
// English questions.
var germanMarkers = map[string]bool{
	"der": true, "die": true, "das": true, "und": true, "ist": true,
	"nicht": true, "ich": true, "sie": true, "wie": true, "was": true,
	"wo": true, "wer": true, "kann": true, "mit": true, "eine": true,
	"ein": true, "zu": true, "auf": true, "im": true, "den": true,
	"oder": true, "wird": true, "sind": true, "haben": true, "warum": true,
	"bitte": true, "danke": true, "funktioniert": true,
}

// germanGreetings are salutations that identify the locale on their own.
var germanGreetings = map[string]bool{
	"hallo": true, "guten tag": true, "guten morgen": true,
	"guten abend": true, "moin": true, "servus": true,
}

// Detect guesses the locale of a user message. Umlauts, a German
// salutation, or a pair of German function words tip the heuristic to
// German; everything else is English.
func Detect(text string) Locale {
	if strings.ContainsAny(text, "äöüßÄÖÜ") {
		return LocaleGerman
	}
	if germanGreetings[normalize(text)] {
		return LocaleGerman
	}

	hits := 0
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if germanMarkers[strings.Trim(word, ".,!?;:\"'")] {
			hits++
			if hits >= 2 {
				return LocaleGerman
			}
		}
	}
	return LocaleEnglish
}

// greetings is the normalized salutation set for both locales.
var greetings = map[string]bool{
	"hello": true, "hi": true, "hey": true, "good morning": true,
	"good afternoon": true, "good evening": true, "greetings": true,
	"hallo": true, "guten tag": true, "guten morgen": true,
	"guten abend": true, "moin": true, "servus": true, "hi there": true,
}

// normalize lowercases, strips trailing punctuation, and collapses
// whitespace for set lookups.
func normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.Trim(s, ".,!?")
	return strings.Join(strings.Fields(s), " ")
}

// IsGreeting reports whether a message is a bare salutation with no actual
// question attached.
func IsGreeting(text string) bool {
	return greetings[normalize(text)]
}
