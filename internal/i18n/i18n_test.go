// internal/i18n/i18n_test.go
package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInstance(t *testing.T) *I18n {
	t.Helper()
	i := &I18n{
		translations: make(map[string]map[string]string),
		defaultLang:  "en",
	}
	require.NoError(t, i.LoadTranslations("./locales"))
	return i
}

func TestTranslationLookup(t *testing.T) {
	i := testInstance(t)

	assert.Equal(t, "Success", i.T("en", KeySuccess))
	assert.Equal(t, "E don work", i.T("pcm", KeySuccess))
	assert.Equal(t, "Application submitted successfully", i.T("en", KeyApplicationSubmitted))
}

func TestTranslationFallsBackToEnglish(t *testing.T) {
	i := testInstance(t)

	// Unknown language falls through to the default locale.
	assert.Equal(t, "Payment confirmed", i.T("yo", KeyPaymentConfirmed))
}

func TestTranslationReturnsKeyWhenMissing(t *testing.T) {
	i := testInstance(t)

	assert.Equal(t, "no.such.key", i.T("en", "no.such.key"))
}

func TestTranslationFormatsArguments(t *testing.T) {
	i := testInstance(t)

	assert.Equal(t, "Invalid input provided", i.T("en", KeyValidationInvalid, "input"))
	assert.Equal(t, "Dis input no correct", i.T("pcm", KeyValidationInvalid, "input"))
}
