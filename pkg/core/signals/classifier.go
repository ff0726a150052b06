// Package signals derives actionable labels from stored filings: 8-K
// signal levels, insider trade classification, cluster detection, and the
// combined feed.
package signals

import (
	"strings"

	"edgarintel/pkg/models"
)

// ipoKeywords mark offering filings that item-set rules would otherwise
// flag as M&A.
var ipoKeywords = []string{
	"underwriting agreement",
	"initial public offering",
	"ipo",
	"prospectus supplement",
	"public offering price",
	"shares of common stock registered",
	"business combination agreement",
}

// Classification is the label assigned to one 8-K filing.
type Classification struct {
	Level   string
	Summary string
}

// ClassifySignalLevel maps the set of item numbers in one 8-K, plus
// optional raw text slices, to a signal level. Pure: same inputs always
// yield the same output.
func ClassifySignalLevel(items []string, rawTexts []string) Classification {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}

	// Offering boilerplate check runs only when an M&A-suggestive item is
	// present; a plain 8.01 mentioning "IPO" stays in the normal path.
	if set["1.01"] || set["5.02"] || set["5.03"] {
		if mentionsIPO(rawTexts) {
			return Classification{Level: models.LevelLow, Summary: "IPO/Offering Filing — Not M&A"}
		}
	}

	dealClosed := set["2.01"] || set["5.01"]

	switch {
	case set["1.01"] && !dealClosed:
		if set["5.02"] || set["5.03"] {
			return Classification{Level: models.LevelHigh, Summary: "Deal in Progress — Material Agreement + Leadership Changes"}
		}
		return Classification{Level: models.LevelMedium, Summary: "Material Agreement Filed — Potential Deal"}
	case set["5.02"] && set["5.03"] && !dealClosed:
		return Classification{Level: models.LevelMedium, Summary: "Leadership + Governance Changes — Possible Deal Preparation"}
	case dealClosed:
		if set["1.01"] {
			return Classification{Level: models.LevelLow, Summary: "Acquisition Completed"}
		}
		return Classification{Level: models.LevelLow, Summary: "Control Change Completed"}
	case set["5.02"]:
		return Classification{Level: models.LevelLow, Summary: "Executive Change"}
	case set["5.03"]:
		return Classification{Level: models.LevelLow, Summary: "Governance Change"}
	default:
		return Classification{Level: models.LevelLow, Summary: "SEC Filing"}
	}
}

func mentionsIPO(rawTexts []string) bool {
	for _, text := range rawTexts {
		lower := strings.ToLower(text)
		for _, kw := range ipoKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}
