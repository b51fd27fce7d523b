package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount("2.100 DT")
	assert.NoError(t, err)
	assert.Equal(t, 2.1, v)

	v, err = ParseAmount("12,50 DT")
	assert.NoError(t, err)
	assert.Equal(t, 12.5, v)

	v, err = ParseAmount("  0.100DT ")
	assert.NoError(t, err)
	assert.Equal(t, 0.1, v)

	_, err = ParseAmount("abc DT")
	assert.Error(t, err)

	_, err = ParseAmount("")
	assert.Error(t, err)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "2.100 DT", FormatAmount(2.1))
	assert.Equal(t, "0.100 DT", FormatAmount(0.1))
	assert.Equal(t, "39.500 DT", FormatAmount(39.5))
	assert.Equal(t, "-1.250 DT", FormatAmount(-1.25))
}

// Amount strings must survive a parse/format round trip once normalized to
// three decimals.
func TestAmountRoundTrip(t *testing.T) {
	for _, s := range []string{"2.1 DT", "0.100 DT", "39.500 DT", "7.25 DT"} {
		v, err := ParseAmount(s)
		assert.NoError(t, err)

		formatted := FormatAmount(v)
		v2, err := ParseAmount(formatted)
		assert.NoError(t, err)
		assert.Equal(t, formatted, FormatAmount(v2))
	}
}

func TestLooksLikeFiscalStamp(t *testing.T) {
	assert.True(t, LooksLikeFiscalStamp("0.100 DT"))
	assert.True(t, LooksLikeFiscalStamp("0.500 DT"))
	assert.True(t, LooksLikeFiscalStamp("0.2 DT")) // normalized to 0.200

	assert.False(t, LooksLikeFiscalStamp("0.600 DT"))
	assert.False(t, LooksLikeFiscalStamp("1.100 DT"))
	assert.False(t, LooksLikeFiscalStamp("100 DT"))
	assert.False(t, LooksLikeFiscalStamp(""))
}

func TestExtractAllAmounts(t *testing.T) {
	text := "PAIN 0.800 DT\nLAIT 1.200 DT\nTIMBRE 0.100 DT\nTotal: 2.100 DT\n0.800 DT"

	amounts := ExtractAllAmounts(text)

	// Order preserved, duplicates retained.
	assert.Equal(t, []string{"0.800 DT", "1.200 DT", "0.100 DT", "2.100 DT", "0.800 DT"}, amounts)
}

func TestExtractAllAmountsNoMatch(t *testing.T) {
	assert.Empty(t, ExtractAllAmounts("no amounts here"))
	assert.Empty(t, ExtractAllAmounts(""))
	// Missing decimals: not an amount string.
	assert.Empty(t, ExtractAllAmounts("100 DT"))
}
