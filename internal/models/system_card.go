package models

// SystemCard is the support message injected into the feed.
type SystemCard struct {
	Title              string
	Hook               string
	Bullets            []string
	SupportTitle       string
	SupportDescription string
	WatchVideoLabel    string
	DonateLabel        string
	FinePrint          string
}

// OpeningCard introduces the daily ritual.
type OpeningCard struct {
	Title   string
	Message string
	Footer  string
}

// SystemCardFor returns the support card text for lang.
func SystemCardFor(lang Lang) SystemCard {
	switch lang {
	case LangFR:
		return SystemCard{
			Title: "Less reste gratuit",
			Hook:  "On croit au savoir accessible pour tous.",
			Bullets: []string{
				"Pas d'abonnement, pas de paywall",
				"Pas de pub intrusive",
				"Respectueux de votre temps",
			},
			SupportTitle:       "Soutenez-nous",
			SupportDescription: "Regardez une courte pub ou faites un don pour nous aider.",
			WatchVideoLabel:    "Regarder une pub",
			DonateLabel:        "Faire un don",
			FinePrint:          "Merci de votre soutien !",
		}
	case LangES:
		return SystemCard{
			Title: "Less sigue siendo gratis",
			Hook:  "Creemos en el conocimiento accesible para todos.",
			Bullets: []string{
				"Sin suscripción, sin paywall",
				"Sin publicidad intrusiva",
				"Respetuoso con tu tiempo",
			},
			SupportTitle:       "Apóyanos",
			SupportDescription: "Mira un breve anuncio o haz una donación para ayudarnos.",
			WatchVideoLabel:    "Ver un anuncio",
			DonateLabel:        "Hacer una donación",
			FinePrint:          "¡Gracias por tu apoyo!",
		}
	default:
		return SystemCard{
			Title: "Less stays free",
			Hook:  "We believe in knowledge accessible to all.",
			Bullets: []string{
				"No subscription, no paywall",
				"No intrusive ads",
				"Respectful of your time",
			},
			SupportTitle:       "Support us",
			SupportDescription: "Watch a short ad or make a donation to help us.",
			WatchVideoLabel:    "Watch an ad",
			DonateLabel:        "Make a donation",
			FinePrint:          "Thank you for your support!",
		}
	}
}

// OpeningCardFor returns the ritual opening text for lang.
func OpeningCardFor(lang Lang) OpeningCard {
	switch lang {
	case LangFR:
		return OpeningCard{
			Title:   "Votre rituel du jour",
			Message: "Quatre cartes, quelques minutes.\nPrenez le temps de lire chacune.",
			Footer:  "Un peu chaque jour",
		}
	case LangES:
		return OpeningCard{
			Title:   "Tu ritual de hoy",
			Message: "Cuatro tarjetas, unos minutos.\nTómate tu tiempo con cada una.",
			Footer:  "Un poco cada día",
		}
	default:
		return OpeningCard{
			Title:   "Your daily ritual",
			Message: "Four cards, a few minutes.\nTake your time with each one.",
			Footer:  "A little every day",
		}
	}
}
