package extract

import (
	"strings"

	"edgarintel/pkg/models"
)

// secrecyScores rates jurisdictions known for corporate opacity. Scores
// loosely follow the Financial Secrecy Index scale; >= 50 is treated as a
// secrecy jurisdiction.
var secrecyScores = map[string]float64{
	"Cayman Islands":         76,
	"British Virgin Islands": 71,
	"Bermuda":                70,
	"Panama":                 72,
	"Luxembourg":             55,
	"Switzerland":            70,
	"Jersey":                 63,
	"Guernsey":               62,
	"Isle of Man":            61,
	"Bahamas":                75,
	"Marshall Islands":       68,
	"Liechtenstein":          74,
	"Cyprus":                 58,
	"Mauritius":              56,
	"Seychelles":             71,
	"Malta":                  54,
	"Delaware":               48,
	"Nevada":                 46,
}

// jurisdictionCountries maps non-US jurisdictions to their country.
var jurisdictionCountries = map[string]string{
	"Cayman Islands":         "Cayman Islands",
	"British Virgin Islands": "British Virgin Islands",
	"Bermuda":                "Bermuda",
	"Panama":                 "Panama",
	"Luxembourg":             "Luxembourg",
	"Switzerland":            "Switzerland",
	"Ireland":                "Ireland",
	"Netherlands":            "Netherlands",
	"United Kingdom":         "United Kingdom",
	"England":                "United Kingdom",
	"Jersey":                 "Jersey",
	"Guernsey":               "Guernsey",
	"Isle of Man":            "Isle of Man",
	"Bahamas":                "Bahamas",
	"Marshall Islands":       "Marshall Islands",
	"Liechtenstein":          "Liechtenstein",
	"Cyprus":                 "Cyprus",
	"Mauritius":              "Mauritius",
	"Seychelles":             "Seychelles",
	"Malta":                  "Malta",
	"Singapore":              "Singapore",
	"Hong Kong":              "Hong Kong",
	"Japan":                  "Japan",
	"Germany":                "Germany",
	"France":                 "France",
	"Canada":                 "Canada",
	"Israel":                 "Israel",
}

// JurisdictionFor normalizes a raw jurisdiction string (state code, full
// name, or country) into a Jurisdiction record with secrecy attributes.
func JurisdictionFor(raw string) models.Jurisdiction {
	name := NormalizeJurisdiction(raw)
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) > 3 {
		code = jurisdictionCode(name)
	}

	score := secrecyScores[name]
	country, ok := jurisdictionCountries[name]
	if !ok {
		country = "United States"
	}
	return models.Jurisdiction{
		Code:                  code,
		Name:                  name,
		Country:               country,
		IsSecrecyJurisdiction: score >= 50,
		SecrecyScore:          score,
	}
}

// jurisdictionCode derives a stable short code from a normalized name.
func jurisdictionCode(name string) string {
	words := strings.Fields(strings.ToUpper(name))
	switch len(words) {
	case 0:
		return ""
	case 1:
		if len(words[0]) <= 3 {
			return words[0]
		}
		return words[0][:2]
	default:
		code := ""
		for _, w := range words {
			code += w[:1]
		}
		return code
	}
}
