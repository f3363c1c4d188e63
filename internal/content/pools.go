// internal/content/pools.go
package content

// Built-in curated corpora. Everything is uppercase and limited to the
// Morse alphabet so the unlocked-set filter is the only gate.

var builtinWords = []string{
	"THE", "AND", "FOR", "ARE", "BUT", "NOT", "YOU", "ALL", "ANY", "CAN",
	"HER", "WAS", "ONE", "OUR", "OUT", "DAY", "GET", "HAS", "HIM", "HIS",
	"HOW", "MAN", "NEW", "NOW", "OLD", "SEE", "TWO", "WAY", "WHO", "DID",
	"ITS", "LET", "PUT", "SAY", "SHE", "TOO", "USE", "KEY", "SUN", "RAIN",
	"MORSE", "RADIO", "SIGNAL", "WAVE", "POWER", "TONE", "CODE", "TEST",
	"GOOD", "NAME", "HERE", "THERE", "WORK", "SEND", "COPY", "HEAR", "FAST",
	"SLOW", "WIRE", "MAST", "TOWER", "BAND", "NOISE", "SKIP", "NET", "LOG",
	"CALL", "REPORT", "SPEED", "PADDLE", "KEYER", "DIPOLE", "LOOP", "BEAM",
	"STATION", "CONTACT", "WEATHER", "MOUNTAIN", "RIVER", "OCEAN", "TRAIN",
	"MARK", "TERM", "MUTE", "RUSE", "MUSE", "TURN", "RUST", "MUST", "SENT",
	"TEAM", "MEAT", "STEAM", "MASTER", "SUMMER", "NURSE", "UNDER", "AMEN",
	"ARM", "ART", "EAR", "EAT", "RAT", "SAT", "TEA", "TEN", "NET", "PAN",
}

var builtinAbbrs = []Item{
	Coded("K", "go ahead / over"),
	Coded("MM", "maritime mobile"),
	Coded("KN", "go ahead, named station only"),
	Coded("CQ", "calling any station"),
	Coded("DE", "from / this is"),
	Coded("TU", "thank you"),
	Coded("TNX", "thanks"),
	Coded("73", "best regards"),
	Coded("88", "love and kisses"),
	Coded("GM", "good morning"),
	Coded("GA", "good afternoon / go ahead"),
	Coded("GE", "good evening"),
	Coded("UR", "your / you are"),
	Coded("FB", "fine business"),
	Coded("ES", "and"),
	Coded("HR", "here"),
	Coded("RST", "readability, strength, tone"),
	Coded("5NN", "599 signal report"),
	Coded("WX", "weather"),
	Coded("ANT", "antenna"),
	Coded("PWR", "power"),
	Coded("OM", "old man"),
	Coded("YL", "young lady"),
	Coded("XYL", "wife"),
	Coded("AGN", "again"),
	Coded("PSE", "please"),
	Coded("SRI", "sorry"),
	Coded("BK", "break"),
	Coded("SK", "end of contact"),
	Coded("AR", "end of message"),
	Coded("CUL", "see you later"),
	Coded("GL", "good luck"),
	Coded("HW", "how copy"),
	Coded("NR", "number"),
	Coded("OP", "operator"),
	Coded("RIG", "station equipment"),
	Coded("FER", "for"),
	Coded("ABT", "about"),
	Coded("WKD", "worked"),
	Coded("R", "received"),
}

var builtinQCodes = []Item{
	Coded("QTH", "my location is"),
	Coded("QSL", "I acknowledge receipt"),
	Coded("QRZ", "who is calling me"),
	Coded("QRM", "man-made interference"),
	Coded("QRN", "static noise"),
	Coded("QRS", "send more slowly"),
	Coded("QRQ", "send faster"),
	Coded("QRT", "stop sending"),
	Coded("QRV", "I am ready"),
	Coded("QRX", "wait"),
	Coded("QSB", "your signal is fading"),
	Coded("QSO", "a contact"),
	Coded("QSY", "change frequency"),
	Coded("QRP", "low power"),
	Coded("QRO", "increase power"),
	Coded("QSK", "full break-in"),
	Coded("QRL", "this frequency is busy"),
	Coded("QSP", "relay to"),
	Coded("QRG", "your exact frequency is"),
	Coded("QRU", "I have nothing for you"),
}

var builtinPhrases = []Item{
	Phrase("CQ CQ DE {CALL} K", "general call"),
	Phrase("QRZ? DE {CALL}", "who is calling"),
	Phrase("{CALL} DE {CALL} KN", ""),
	Phrase("UR RST 599 599", "signal report"),
	Phrase("UR 5NN TU", "contest exchange"),
	Phrase("TNX FER CALL", "thanks for the call"),
	Phrase("TNX FER QSO", "thanks for the contact"),
	Phrase("NAME HR IS", ""),
	Phrase("QTH IS", ""),
	Phrase("RIG HR IS", ""),
	Phrase("ANT IS DIPOLE", ""),
	Phrase("WX HR IS SUNNY", ""),
	Phrase("HW CPY?", "how do you copy"),
	Phrase("73 ES GL", "best regards and good luck"),
	Phrase("GM OM", "good morning old man"),
	Phrase("TU 73 SK", "thank you, best regards, end of contact"),
	Phrase("PSE QRS", "please send slower"),
	Phrase("FB OM", "fine business old man"),
	Phrase("BK TU", ""),
	Phrase("R R TU", ""),
	Phrase("MM K", ""),
	Phrase("SEE U AGN", "see you again"),
	Phrase("CUL OM", "see you later"),
}

// DefaultPools returns fresh copies of the built-in pools.
func DefaultPools() []Pool {
	words := make([]Item, 0, len(builtinWords))
	seen := make(map[string]bool, len(builtinWords))
	for _, w := range builtinWords {
		if seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, Word(w))
	}
	return []Pool{
		{Name: PoolWords, Items: words},
		{Name: PoolAbbrs, Items: append([]Item(nil), builtinAbbrs...)},
		{Name: PoolQCodes, Items: append([]Item(nil), builtinQCodes...)},
		{Name: PoolPhrases, Items: append([]Item(nil), builtinPhrases...)},
	}
}
