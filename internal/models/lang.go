package models

// Lang is a content language code.
type Lang string

const (
	LangFR Lang = "fr"
	LangEN Lang = "en"
	LangES Lang = "es"
)

// Langs lists the supported languages in display order.
var Langs = []Lang{LangFR, LangEN, LangES}

// LangFromCode returns the language for code, falling back to English.
func LangFromCode(code string) Lang {
	for _, l := range Langs {
		if string(l) == code {
			return l
		}
	}
	return LangEN
}

// Code returns the wire code for the language.
func (l Lang) Code() string { return string(l) }

// Next returns the language after l in Langs, wrapping around.
func (l Lang) Next() Lang {
	for i, cur := range Langs {
		if cur == l {
			return Langs[(i+1)%len(Langs)]
		}
	}
	return LangEN
}
