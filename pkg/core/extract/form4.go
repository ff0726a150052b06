package extract

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"edgarintel/pkg/models"
)

// TransactionCodeMap labels Form 4 transaction codes (Section 16).
var TransactionCodeMap = map[string]string{
	"P": "Purchase",
	"S": "Sale",
	"A": "Award",
	"M": "Exercise",
	"F": "Tax",
	"G": "Gift",
	"D": "Disposition",
	"C": "Conversion",
	"W": "Acquisition Due to Will/Inheritance",
	"J": "Other",
	"K": "Equity Swap",
	"U": "Tender of Shares",
	"I": "Discretionary Transaction",
}

type form4Value struct {
	Value string `xml:"value"`
}

type form4Transaction struct {
	SecurityTitle   form4Value `xml:"securityTitle"`
	TransactionDate form4Value `xml:"transactionDate"`
	Coding          struct {
		TransactionCode string `xml:"transactionCode"`
	} `xml:"transactionCoding"`
	Amounts struct {
		Shares        form4Value `xml:"transactionShares"`
		PricePerShare form4Value `xml:"transactionPricePerShare"`
	} `xml:"transactionAmounts"`
	PostAmounts struct {
		SharesOwned form4Value `xml:"sharesOwnedFollowingTransaction"`
	} `xml:"postTransactionAmounts"`
	OwnershipNature struct {
		DirectOrIndirect form4Value `xml:"directOrIndirectOwnership"`
	} `xml:"ownershipNature"`
}

type ownershipDocument struct {
	Issuer struct {
		CIK  string `xml:"issuerCik"`
		Name string `xml:"issuerName"`
	} `xml:"issuer"`
	ReportingOwners []struct {
		ID struct {
			CIK  string `xml:"rptOwnerCik"`
			Name string `xml:"rptOwnerName"`
		} `xml:"reportingOwnerId"`
		Relationship struct {
			IsDirector        string `xml:"isDirector"`
			IsOfficer         string `xml:"isOfficer"`
			IsTenPercentOwner string `xml:"isTenPercentOwner"`
			OfficerTitle      string `xml:"officerTitle"`
		} `xml:"reportingOwnerRelationship"`
	} `xml:"reportingOwner"`
	NonDerivative struct {
		Transactions []form4Transaction `xml:"nonDerivativeTransaction"`
	} `xml:"nonDerivativeTable"`
	Derivative struct {
		Transactions []form4Transaction `xml:"derivativeTransaction"`
	} `xml:"derivativeTable"`
}

// ParseForm4 decodes one ownership XML document into typed transactions.
// Non-XML input (pre-2005 HTML Form 4s) yields (nil, nil): the filing is
// skipped, not failed.
func ParseForm4(content string, accessionNumber string) (*models.Form4Document, error) {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "<?xml") && !strings.HasPrefix(trimmed, "<ownershipDocument") {
		return nil, nil
	}

	var doc ownershipDocument
	if err := xml.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil, fmt.Errorf("extract: parse Form 4 XML %s: %w", accessionNumber, err)
	}

	out := &models.Form4Document{
		IssuerCIK:  padCIK(doc.Issuer.CIK),
		IssuerName: strings.TrimSpace(doc.Issuer.Name),
	}
	if len(doc.ReportingOwners) > 0 {
		owner := doc.ReportingOwners[0]
		out.OwnerName = strings.TrimSpace(owner.ID.Name)
		out.OwnerCIK = padCIK(owner.ID.CIK)
		out.OwnerTitle = strings.TrimSpace(owner.Relationship.OfficerTitle)
		out.IsOfficer = xmlFlag(owner.Relationship.IsOfficer)
		out.IsDirector = xmlFlag(owner.Relationship.IsDirector)
		out.IsTenPercentOwner = xmlFlag(owner.Relationship.IsTenPercentOwner)
	}

	index := 0
	appendTxns := func(txns []form4Transaction, derivative bool) {
		for _, t := range txns {
			code := strings.TrimSpace(t.Coding.TransactionCode)
			if code == "" {
				continue
			}
			shares := xmlFloat(t.Amounts.Shares.Value)
			price := xmlFloat(t.Amounts.PricePerShare.Value)

			txn := models.InsiderTransaction{
				ID:                     fmt.Sprintf("%s_%d", accessionNumber, index),
				AccessionNumber:        accessionNumber,
				Index:                  index,
				TransactionDate:        strings.TrimSpace(t.TransactionDate.Value),
				TransactionCode:        code,
				TransactionType:        transactionType(code),
				SecurityTitle:          strings.TrimSpace(t.SecurityTitle.Value),
				Shares:                 shares,
				PricePerShare:          price,
				TotalValue:             shares * price,
				SharesAfterTransaction: xmlFloat(t.PostAmounts.SharesOwned.Value),
				OwnershipType:          strings.TrimSpace(t.OwnershipNature.DirectOrIndirect.Value),
				IsDerivative:           derivative,
				InsiderName:            out.OwnerName,
				InsiderTitle:           out.OwnerTitle,
				CompanyCIK:             out.IssuerCIK,
			}
			out.Transactions = append(out.Transactions, txn)
			index++
		}
	}
	appendTxns(doc.NonDerivative.Transactions, false)
	appendTxns(doc.Derivative.Transactions, true)

	return out, nil
}

func transactionType(code string) string {
	if label, ok := TransactionCodeMap[code]; ok {
		return label
	}
	return "Unknown"
}

func xmlFlag(s string) bool {
	s = strings.TrimSpace(s)
	return s == "1" || strings.EqualFold(s, "true")
}

func xmlFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func padCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	if cik == "" {
		return ""
	}
	return fmt.Sprintf("%010s", strings.TrimLeft(cik, "0"))
}
