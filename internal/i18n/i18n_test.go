// internal/i18n/i18n_test.go
package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestI18n(t *testing.T) *I18n {
	i := &I18n{
		translations: make(map[string]map[string]string),
		defaultLang:  "en",
	}
	require.NoError(t, i.LoadTranslations("./locales"))
	return i
}

func TestTranslationLookup(t *testing.T) {
	i := newTestI18n(t)

	assert.Equal(t, "Item added to cart", i.T("en", KeyCartItemAdded))
	assert.NotEqual(t, i.T("en", KeyCartItemAdded), i.T("zh_TW", KeyCartItemAdded))
}

func TestTranslationFormatting(t *testing.T) {
	i := newTestI18n(t)

	msg := i.T("en", KeyCartQuantityReduced, "Hoodie", 2)
	assert.Contains(t, msg, "Hoodie")
	assert.Contains(t, msg, "2")
}

func TestFallbackToDefaultLanguage(t *testing.T) {
	i := newTestI18n(t)

	// Unknown language falls back to English.
	assert.Equal(t, i.T("en", KeyCartItemAdded), i.T("fr", KeyCartItemAdded))
}

func TestFallbackToKey(t *testing.T) {
	i := newTestI18n(t)

	assert.Equal(t, "no.such.key", i.T("en", "no.such.key"))
}

func TestUninitializedSingletonEchoesKey(t *testing.T) {
	saved := instance
	instance = nil
	defer func() { instance = saved }()

	// Args are dropped, never formatted into the key.
	assert.Equal(t, KeyCartQuantityReduced, T("en", KeyCartQuantityReduced, "Hoodie", 2))
	assert.Equal(t, KeyCartItemAdded, T("en", KeyCartItemAdded))
}

func TestEveryKeyExistsInAllLocales(t *testing.T) {
	i := newTestI18n(t)

	en := i.translations["en"]
	zh := i.translations["zh_TW"]
	require.NotEmpty(t, en)
	require.NotEmpty(t, zh)

	for key := range en {
		_, ok := zh[key]
		assert.True(t, ok, "missing zh_TW translation for %s", key)
	}
	for key := range zh {
		_, ok := en[key]
		assert.True(t, ok, "missing en translation for %s", key)
	}
}
