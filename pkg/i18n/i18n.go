// Package i18n translates the device's banner and alert texts.
package i18n

import (
	"strings"

	"github.com/jeandeaual/go-locale"

	"github.com/shutter-remote/shutter-go/pkg/capture"
)

// Supported languages.
const (
	English    = "en"
	German     = "de"
	Spanish    = "es"
	Portuguese = "pt"
)

// Supported lists every language with a catalog.
var Supported = []string{English, German, Spanish, Portuguese}

type key uint8

const (
	keyStart key = iota
	keyCountdown
	keyCancelled
	keyPictureTaken
	keyAlert
)

var catalogs = map[string]map[key]string{
	English: {
		keyStart:        "Press up and down to set timer\n\nMiddle button to capture",
		keyCountdown:    "Taking picture in...",
		keyCancelled:    "Timer cancelled.",
		keyPictureTaken: "Picture Taken",
		keyAlert:        "Could not reach the phone",
	},
	German: {
		keyStart:        "Oben und unten stellen den Timer\n\nMitte zum Auslösen",
		keyCountdown:    "Foto in...",
		keyCancelled:    "Timer abgebrochen.",
		keyPictureTaken: "Foto aufgenommen",
		keyAlert:        "Telefon nicht erreichbar",
	},
	Spanish: {
		keyStart:        "Arriba y abajo para ajustar el temporizador\n\nBotón central para capturar",
		keyCountdown:    "Tomando foto en...",
		keyCancelled:    "Temporizador cancelado.",
		keyPictureTaken: "Foto tomada",
		keyAlert:        "No se pudo contactar con el teléfono",
	},
	Portuguese: {
		keyStart:        "Cima e baixo para ajustar o temporizador\n\nBotão do meio para capturar",
		keyCountdown:    "Tirando foto em...",
		keyCancelled:    "Temporizador cancelado.",
		keyPictureTaken: "Foto tirada",
		keyAlert:        "Não foi possível contactar o telefone",
	},
}

// localesFunc is replaced in tests.
var localesFunc = locale.GetLocales

// Normalize reduces a locale tag such as "pt_BR.UTF-8" or "de-AT" to a
// supported language, or "" if there is none.
func Normalize(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_."); i >= 0 {
		tag = tag[:i]
	}
	if _, ok := catalogs[tag]; ok {
		return tag
	}
	return ""
}

// Detect picks the banner language: override if it names a supported
// language, otherwise the first supported system locale, otherwise English.
func Detect(override string) string {
	if lang := Normalize(override); lang != "" {
		return lang
	}
	locales, err := localesFunc()
	if err != nil {
		return English
	}
	for _, l := range locales {
		if lang := Normalize(l); lang != "" {
			return lang
		}
	}
	return English
}

// Catalog holds the texts for one language.
type Catalog struct {
	lang string
	text map[key]string
}

// New returns the catalog for lang, falling back to English.
func New(lang string) *Catalog {
	if n := Normalize(lang); n != "" {
		lang = n
	} else {
		lang = English
	}
	return &Catalog{lang: lang, text: catalogs[lang]}
}

// Lang returns the catalog's language.
func (c *Catalog) Lang() string {
	return c.lang
}

// Banner returns the text for b. BannerNone has no text.
func (c *Catalog) Banner(b capture.Banner) string {
	switch b {
	case capture.BannerStart:
		return c.text[keyStart]
	case capture.BannerCountdown:
		return c.text[keyCountdown]
	case capture.BannerCancelled:
		return c.text[keyCancelled]
	case capture.BannerPictureTaken:
		return c.text[keyPictureTaken]
	default:
		return ""
	}
}

// Alert returns the "could not reach companion" text.
func (c *Catalog) Alert() string {
	return c.text[keyAlert]
}
