package ftsindex

import (
	"strings"

	"github.com/RadhiFadlillah/whatlanggo"
	"github.com/kljensen/snowball"
)

// stemmerLang maps a whatlanggo detected language to the snowball stemmer
// language name snowball.Stem expects. Languages snowball doesn't support
// fall back to "english".
var stemmerLang = map[whatlanggo.Lang]string{
	whatlanggo.Eng: "english",
	whatlanggo.Spa: "spanish",
	whatlanggo.Fra: "french",
	whatlanggo.Deu: "german",
	whatlanggo.Por: "portuguese",
	whatlanggo.Ita: "italian",
	whatlanggo.Nld: "dutch",
	whatlanggo.Rus: "russian",
	whatlanggo.Swe: "swedish",
}

// tokenize lowercases, splits on whitespace/punctuation, and stems each
// token using the language detected from the full text. Used by the bluge
// driver's analyzer; the sqlite driver relies on FTS5's own tokenizer
// instead and never calls this.
func tokenize(text string) []string {
	info := whatlanggo.Detect(text)
	lang, ok := stemmerLang[info.Lang]
	if !ok {
		lang = "english"
	}
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r == '\'' || ('a' <= r && r <= 'z') || ('0' <= r && r <= '9'))
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" {
			continue
		}
		stemmed, err := snowball.Stem(f, lang, true)
		if err != nil {
			out = append(out, f)
			continue
		}
		out = append(out, stemmed)
	}
	return out
}
