package signals

import (
	"strings"

	"edgarintel/pkg/models"
)

// ClassifyTrades resolves each transaction's trade type, returning one
// type per input in the same order. Code M is ambiguous on its own: it is
// exercise_sell only when the same insider also sold on the same day,
// else exercise_hold. F (tax withholding) does not count as a sale.
func ClassifyTrades(txns []models.InsiderTransaction) []models.TradeType {
	type key struct {
		insider string
		date    string
	}
	soldSameDay := make(map[key]bool)
	for _, t := range txns {
		if t.TransactionCode == "S" {
			soldSameDay[key{strings.ToLower(t.InsiderName), t.TransactionDate}] = true
		}
	}

	out := make([]models.TradeType, len(txns))
	for i, t := range txns {
		switch t.TransactionCode {
		case "P":
			out[i] = models.TradeBuy
		case "S":
			out[i] = models.TradeSell
		case "A":
			out[i] = models.TradeAward
		case "M":
			if soldSameDay[key{strings.ToLower(t.InsiderName), t.TransactionDate}] {
				out[i] = models.TradeExerciseSell
			} else {
				out[i] = models.TradeExerciseHold
			}
		case "D":
			out[i] = models.TradeDisposition
		case "G":
			out[i] = models.TradeGift
		case "F":
			out[i] = models.TradeTax
		case "C":
			out[i] = models.TradeConversion
		case "W":
			out[i] = models.TradeWill
		default:
			out[i] = models.TradeOther
		}
	}
	return out
}
