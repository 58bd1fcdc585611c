package i18n

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shutter-remote/shutter-go/pkg/capture"
)

func withLocales(t *testing.T, locales []string, err error) {
	t.Helper()
	orig := localesFunc
	localesFunc = func() ([]string, error) { return locales, err }
	t.Cleanup(func() { localesFunc = orig })
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"de":          German,
		"DE-at":       German,
		"pt_BR.UTF-8": Portuguese,
		"es-419":      Spanish,
		"en_US":       English,
		"fr-FR":       "",
		"":            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Normalize(in), in)
	}
}

func TestDetect(t *testing.T) {
	t.Run("override wins", func(t *testing.T) {
		withLocales(t, []string{"de-DE"}, nil)
		assert.Equal(t, Spanish, Detect("es"))
	})

	t.Run("unsupported override falls through to locale", func(t *testing.T) {
		withLocales(t, []string{"pt-BR"}, nil)
		assert.Equal(t, Portuguese, Detect("fr"))
	})

	t.Run("first supported locale", func(t *testing.T) {
		withLocales(t, []string{"ja-JP", "de-CH", "en-US"}, nil)
		assert.Equal(t, German, Detect(""))
	})

	t.Run("no supported locale", func(t *testing.T) {
		withLocales(t, []string{"ja-JP"}, nil)
		assert.Equal(t, English, Detect(""))
	})

	t.Run("locale lookup fails", func(t *testing.T) {
		withLocales(t, nil, errors.New("no locale"))
		assert.Equal(t, English, Detect(""))
	})
}

func TestCatalogsAreComplete(t *testing.T) {
	banners := []capture.Banner{
		capture.BannerStart,
		capture.BannerCountdown,
		capture.BannerCancelled,
		capture.BannerPictureTaken,
	}
	for _, lang := range Supported {
		c := New(lang)
		assert.Equal(t, lang, c.Lang())
		for _, b := range banners {
			assert.NotEmpty(t, c.Banner(b), "%s %s", lang, b)
		}
		assert.Empty(t, c.Banner(capture.BannerNone))
		assert.NotEmpty(t, c.Alert(), lang)
	}
}

func TestNewFallsBackToEnglish(t *testing.T) {
	c := New("klingon")
	assert.Equal(t, English, c.Lang())
	assert.Equal(t, "Taking picture in...", c.Banner(capture.BannerCountdown))
	assert.Equal(t, "Foto tirada", New("pt-PT").Banner(capture.BannerPictureTaken))
}
