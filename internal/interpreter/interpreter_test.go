package interpreter

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/voicecart/internal/language"
	"github.com/nadzzz/voicecart/internal/message"
)

func TestInterpret_English(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		action   message.Action
		product  string
		quantity int
		unit     string
	}{
		{"add with quantity and unit", "Add 2 kg rice", message.ActionAdd, "rice", 2, "kg"},
		{"add with plural unit and of", "Add 5 packets of milk", message.ActionAdd, "milk", 5, "pack"},
		{"add with attached unit", "Add 500g sugar", message.ActionAdd, "sugar", 500, "g"},
		{"add without quantity", "Add apples", message.ActionAdd, "apples", 1, "pcs"},
		{"add quantity without unit", "buy 3 mangoes", message.ActionAdd, "mangoes", 3, "pcs"},
		{"want trigger", "I want rice", message.ActionSearch, "I want rice", 1, "pcs"},
		{"get with litres", "get 2 liters of milk", message.ActionAdd, "milk", 2, "l"},
		{"add boxes", "want 4 boxes of tea", message.ActionAdd, "tea", 4, "box"},
		{"product keeps lower-cased words", "Add 1 pack Basmati Rice", message.ActionAdd, "basmati rice", 1, "pack"},
		{"zero quantity clamps to one", "add 0 kg rice", message.ActionAdd, "rice", 1, "kg"},
		{"search for", "search for biscuits", message.ActionSearch, "biscuits", 1, "pcs"},
		{"search without for", "Search Biscuits.", message.ActionSearch, "biscuits", 1, "pcs"},
		{"search prefix inside a word", "searching rice", message.ActionSearch, "searching rice", 1, "pcs"},
		{"plain product", "apples", message.ActionSearch, "apples", 1, "pcs"},
		{"plain product keeps casing", "Red Apples!", message.ActionSearch, "Red Apples", 1, "pcs"},
		{"bare search falls back to cleaned text", "search for", message.ActionSearch, "search for", 1, "pcs"},
		{"add pattern beats search", "add search engine", message.ActionAdd, "search engine", 1, "pcs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := Interpret(tt.text, language.English)
			assert.Equal(t, tt.action, cmd.Action)
			assert.Equal(t, tt.product, cmd.ProductName)
			assert.Equal(t, tt.quantity, cmd.Quantity)
			assert.Equal(t, tt.unit, cmd.Unit)
			assert.Equal(t, tt.text, cmd.OriginalText)
			assert.Equal(t, language.English, cmd.Language)
		})
	}
}

func TestInterpret_Tamil(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		action   message.Action
		product  string
		quantity int
		unit     string
	}{
		{"number implies add", "Thakkali 2 kilo", message.ActionAdd, "Thakkali", 2, "kg"},
		{"trigger before product", "Add 2 kilo Thakkali", message.ActionAdd, "Thakkali", 2, "kg"},
		{"trigger without number", "vendakkai serkavum", message.ActionAdd, "vendakkai", 1, "pcs"},
		{"bare g matches as gram", "vengayam 3", message.ActionAdd, "vengayam", 3, "g"},
		{"packet unit", "biscuit 3 packet vendum", message.ActionAdd, "biscuit", 3, "pack"},
		{"no number no trigger", "paal", message.ActionSearch, "paal", 1, "pcs"},
		{"gram unit", "sakkarai 500 gram", message.ActionAdd, "sakkarai", 500, "g"},
		{"tamil script", "தக்காளி 2 கிலோ சேர்க்கவும்", message.ActionAdd, "தக்காளி", 2, "kg"},
		{"keyword inside product name is stripped", "Add-On Pack", message.ActionAdd, "On Pack", 1, "pcs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := Interpret(tt.text, language.Tamil)
			assert.Equal(t, tt.action, cmd.Action)
			assert.Equal(t, tt.product, cmd.ProductName)
			assert.Equal(t, tt.quantity, cmd.Quantity)
			assert.Equal(t, tt.unit, cmd.Unit)
			assert.Equal(t, language.Tamil, cmd.Language)
		})
	}
}

func TestInterpret_Sinhala(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		action   message.Action
		product  string
		quantity int
		unit     string
	}{
		{"number implies add", "haal 5 kilo", message.ActionAdd, "haal", 5, "kg"},
		{"danna trigger", "parippu danna", message.ActionAdd, "parippu", 1, "pcs"},
		{"gram unit", "seeni 250 gram oni", message.ActionAdd, "seeni", 250, "g"},
		{"sinhala script", "සීනි 2 කිලෝ දාන්න", message.ActionAdd, "සීනි", 2, "kg"},
		{"plain product", "kiri", message.ActionSearch, "kiri", 1, "pcs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := Interpret(tt.text, language.Sinhala)
			assert.Equal(t, tt.action, cmd.Action)
			assert.Equal(t, tt.product, cmd.ProductName)
			assert.Equal(t, tt.quantity, cmd.Quantity)
			assert.Equal(t, tt.unit, cmd.Unit)
		})
	}
}

func TestInterpret_ProductNameFallback(t *testing.T) {
	// Stripping every keyword would leave nothing; the cleaned text is used instead.
	cmd := Interpret("2 kilo", language.Tamil)
	assert.Equal(t, message.ActionAdd, cmd.Action)
	assert.Equal(t, "2 kilo", cmd.ProductName)
	assert.Equal(t, 2, cmd.Quantity)

	cmd = Interpret("danna", language.Sinhala)
	assert.Equal(t, message.ActionAdd, cmd.Action)
	assert.Equal(t, "danna", cmd.ProductName)
}

func TestInterpret_StrayInput(t *testing.T) {
	for _, text := range []string{".", "x", "  !  ", "999999999999999999999999"} {
		for _, p := range language.Profiles() {
			cmd := Interpret(text, p.Code)
			assert.NotEmpty(t, cmd.ProductName, "%q/%s", text, p.Code)
			assert.GreaterOrEqual(t, cmd.Quantity, 1)
			assert.True(t, cmd.Action.Valid())
			assert.NotEmpty(t, cmd.Unit)
		}
	}
}

func TestInterpret_UnsupportedLanguageFallsBackToEnglish(t *testing.T) {
	cmd := Interpret("Add 2 kg rice", "fr-FR")
	assert.Equal(t, message.ActionAdd, cmd.Action)
	assert.Equal(t, "rice", cmd.ProductName)
	assert.Equal(t, "fr-FR", cmd.Language, "the selector is recorded verbatim")

	cmd = Interpret("Thakkali 2 kilo", "")
	assert.Equal(t, message.ActionSearch, cmd.Action)
	assert.Equal(t, language.English, cmd.Language)
}

func TestInterpret_RegionalVariantUsesBaseLanguage(t *testing.T) {
	cmd := Interpret("Thakkali 2 kilo", "ta-LK")
	assert.Equal(t, message.ActionAdd, cmd.Action)
	assert.Equal(t, "Thakkali", cmd.ProductName)
}

func TestInterpret_NeverProducesUnknown(t *testing.T) {
	inputs := []string{"add", "search", "buy", "?", "2", "kilo", "add 2", "ok google"}
	for _, in := range inputs {
		for _, p := range language.Profiles() {
			cmd := Interpret(in, p.Code)
			assert.NotEqual(t, message.ActionUnknown, cmd.Action)
			assert.NotEmpty(t, cmd.Action)
		}
	}
}

func TestInterpret_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := fmt.Sprintf("Add %d kg rice", i+1)
			cmd := Rules{}.Interpret(text, language.English)
			if cmd.Quantity != i+1 || cmd.ProductName != "rice" {
				errs <- fmt.Errorf("got %+v for %q", cmd, text)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
}

func TestClean(t *testing.T) {
	assert.Equal(t, "Add 2 kg rice", Clean("  Add 2 kg rice. "))
	assert.Equal(t, "hello world", Clean("hello, world!"))
	assert.Equal(t, "", Clean("(...)"))
}
