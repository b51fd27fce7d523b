package utils

import (
	"testing"

	"github.com/kraimines/ticketocr/dto"
	"github.com/stretchr/testify/assert"
)

func TestRecoverJSONPlainObject(t *testing.T) {
	raw := `{"Magasin": "MONOPRIX", "Total": "2.100 DT"}`

	obj, err := RecoverJSON(raw)

	assert.NoError(t, err)
	assert.Equal(t, "MONOPRIX", obj["Magasin"])
	assert.Equal(t, "2.100 DT", obj["Total"])
}

func TestRecoverJSONStripsThinkBlock(t *testing.T) {
	raw := "<think>let me reason about this {\"x\": 1} carefully</think>\n" +
		`{"Magasin":"MONOPRIX","Total":"2.100 DT"}`

	obj, err := RecoverJSON(raw)

	assert.NoError(t, err)
	assert.Equal(t, "MONOPRIX", obj["Magasin"])
	assert.Equal(t, "2.100 DT", obj["Total"])
}

func TestRecoverJSONSurroundingProse(t *testing.T) {
	raw := "Here is the extracted ticket, as requested:\n" +
		`{"Magasin": "AZIZA", "Date": "25/01/2025", "Total": "4.090 DT"}` +
		"\nLet me know if you need anything else."

	obj, err := RecoverJSON(raw)

	assert.NoError(t, err)
	assert.Equal(t, "AZIZA", obj["Magasin"])
	assert.Equal(t, "25/01/2025", obj["Date"])
}

func TestRecoverJSONRepairsSingleQuotesAndTrailingCommas(t *testing.T) {
	raw := `{'Magasin': 'CARREFOUR', 'Total': '3.250 DT',}`

	obj, err := RecoverJSON(raw)

	assert.NoError(t, err)
	assert.Equal(t, "CARREFOUR", obj["Magasin"])
	assert.Equal(t, "3.250 DT", obj["Total"])
}

func TestRecoverJSONBelowScoreThreshold(t *testing.T) {
	// One recognized key only: the two-key minimum rejects it.
	_, err := RecoverJSON(`{"Magasin": "MONOPRIX"}`)

	assert.ErrorIs(t, err, dto.ErrNoJSONFound)
}

func TestRecoverJSONNestedBracesInValues(t *testing.T) {
	raw := "reasoning with {stray braces} in prose\n" +
		`{"Magasin": "MG", "Articles": [{"nom": "PAIN", "prix": "0.800 DT"}], "Total": "0.800 DT"}`

	obj, err := RecoverJSON(raw)

	assert.NoError(t, err)
	assert.Equal(t, "MG", obj["Magasin"])
	articles, ok := obj["Articles"].([]interface{})
	assert.True(t, ok)
	assert.Len(t, articles, 1)
}

func TestRecoverJSONPrefersLastCompleteObject(t *testing.T) {
	// Two candidates: the later one is the complete final answer.
	raw := `draft: {"Magasin": "WRONG"} final: {"Magasin": "MG", "Total": "1.000 DT"}`

	obj, err := RecoverJSON(raw)

	assert.NoError(t, err)
	assert.Equal(t, "MG", obj["Magasin"])
}

func TestRecoverJSONEmptyAndGarbageInput(t *testing.T) {
	_, err := RecoverJSON("")
	assert.ErrorIs(t, err, dto.ErrNoJSONFound)

	_, err = RecoverJSON("   \n ")
	assert.ErrorIs(t, err, dto.ErrNoJSONFound)

	_, err = RecoverJSON("no braces at all")
	assert.ErrorIs(t, err, dto.ErrNoJSONFound)

	_, err = RecoverJSON("{{{{ not json }}}}")
	assert.ErrorIs(t, err, dto.ErrNoJSONFound)
}

func TestRecoverJSONNonObjectRejected(t *testing.T) {
	// Arrays parse but are not mappings.
	_, err := RecoverJSON(`[{"Magasin": "MG", "Total": "1.000 DT"}]`)

	assert.ErrorIs(t, err, dto.ErrNoJSONFound)
}

// A well-formed object with two recognized keys is returned unchanged no
// matter how much prose surrounds it.
func TestRecoverJSONMonotonicity(t *testing.T) {
	payload := `{"Magasin":"MONOPRIX","Total":"2.100 DT"}`
	prose := ""
	for i := 0; i < 50; i++ {
		prose += "some unrelated reasoning text without braces. "
	}

	obj, err := RecoverJSON(prose + payload + prose)

	assert.NoError(t, err)
	assert.Equal(t, "MONOPRIX", obj["Magasin"])
	assert.Equal(t, "2.100 DT", obj["Total"])
	assert.Len(t, obj, 2)
}

func TestRecoverJSONLoosePreservesCandidateBoundaries(t *testing.T) {
	raw := "{\"Magasin\": \"MG\",\n\"Total\": \"1.500 DT\"}"

	obj, err := RecoverJSONLoose(raw)

	assert.NoError(t, err)
	assert.Equal(t, "MG", obj["Magasin"])
}
