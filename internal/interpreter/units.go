package interpreter

import (
	"strings"

	"github.com/nadzzz/voicecart/internal/message"
)

// Canonical unit codes.
const (
	UnitGram       = "g"
	UnitKilogram   = "kg"
	UnitPack       = "pack"
	UnitPiece      = "pcs"
	UnitMillilitre = "ml"
	UnitLitre      = "l"
	UnitBox        = "box"
)

var unitSynonyms = map[string]string{
	"g": UnitGram, "gm": UnitGram, "gms": UnitGram, "gram": UnitGram, "grams": UnitGram,

	"kg": UnitKilogram, "kgs": UnitKilogram, "kilo": UnitKilogram, "kilos": UnitKilogram,
	"kilogram": UnitKilogram, "kilograms": UnitKilogram,

	"pack": UnitPack, "packs": UnitPack, "packet": UnitPack, "packets": UnitPack,
	"pkg": UnitPack, "pkt": UnitPack, "pkts": UnitPack,

	"pcs": UnitPiece, "pc": UnitPiece, "piece": UnitPiece, "pieces": UnitPiece,

	"ml": UnitMillilitre, "millilitre": UnitMillilitre, "millilitres": UnitMillilitre,
	"milliliter": UnitMillilitre, "milliliters": UnitMillilitre,

	"l": UnitLitre, "ltr": UnitLitre, "ltrs": UnitLitre, "liter": UnitLitre,
	"liters": UnitLitre, "litre": UnitLitre, "litres": UnitLitre,

	"box": UnitBox, "boxes": UnitBox,
}

// NormalizeUnit collapses a unit synonym to its canonical code. Unknown
// tokens are returned lower-cased; an empty token means pieces.
func NormalizeUnit(unit string) string {
	u := strings.ToLower(strings.TrimSpace(unit))
	if u == "" {
		return message.DefaultUnit
	}
	if canonical, ok := unitSynonyms[u]; ok {
		return canonical
	}
	return u
}
