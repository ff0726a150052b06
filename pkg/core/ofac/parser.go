package ofac

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"edgarintel/pkg/models"
)

// Entry mirrors one sdnEntry element. Decoding matches on local element
// names, so both namespaced (sdn:sdnEntry) and bare documents parse.
type Entry struct {
	UID       string   `xml:"uid"`
	FirstName string   `xml:"firstName"`
	LastName  string   `xml:"lastName"`
	SDNType   string   `xml:"sdnType"`
	Programs  []string `xml:"programList>program"`
	Remarks   string   `xml:"remarks"`

	AKAs []struct {
		FirstName string `xml:"firstName"`
		LastName  string `xml:"lastName"`
	} `xml:"akaList>aka"`

	Addresses []struct {
		Address1 string `xml:"address1"`
		Address2 string `xml:"address2"`
		City     string `xml:"city"`
		State    string `xml:"stateOrProvince"`
		Postal   string `xml:"postalCode"`
		Country  string `xml:"country"`
	} `xml:"addressList>address"`

	Nationalities []struct {
		Country string `xml:"country"`
	} `xml:"nationalityList>nationality"`

	DatesOfBirth []struct {
		DateOfBirth string `xml:"dateOfBirth"`
	} `xml:"dateOfBirthList>dateOfBirthItem"`

	IDs []struct {
		IDType   string `xml:"idType"`
		IDNumber string `xml:"idNumber"`
	} `xml:"idList>id"`
}

type sdnList struct {
	PublishDate string  `xml:"publshInformation>Publish_Date"`
	Entries     []Entry `xml:"sdnEntry"`
}

// ParseResult carries the parsed SDN entities plus per-entry citations.
type ParseResult struct {
	Entities    []models.SanctionedEntity
	Citations   []models.Citation
	PublishDate string
	Warnings    []string
}

// Parse decodes the SDN XML into sanctioned entities with citations.
func Parse(data []byte, sourceURL string) (*ParseResult, error) {
	var list sdnList
	if err := xml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("ofac: parse SDN XML: %w", err)
	}
	if len(list.Entries) == 0 {
		return nil, fmt.Errorf("ofac: SDN XML contained no entries")
	}

	// Only ISO publish dates are honored; other formats leave the field empty.
	publish := ""
	if t, err := time.Parse("2006-01-02", strings.TrimSpace(list.PublishDate)); err == nil {
		publish = t.Format("2006-01-02")
	}

	res := &ParseResult{PublishDate: publish}
	for _, e := range list.Entries {
		if e.UID == "" {
			res.Warnings = append(res.Warnings, "skipped SDN entry without uid")
			continue
		}
		ent := entryToEntity(e, publish)
		res.Entities = append(res.Entities, ent)
		res.Citations = append(res.Citations, models.Citation{
			SourceID:    ent.OFACUID,
			SourceURL:   sourceURL,
			PublishDate: publish,
			RawText:     ent.RawText,
			RawTextHash: ent.RawTextHash,
		})
	}
	return res, nil
}

func entryToEntity(e Entry, publish string) models.SanctionedEntity {
	name := joinName(e.FirstName, e.LastName)

	entityType := "entity"
	if strings.EqualFold(strings.TrimSpace(e.SDNType), "individual") {
		entityType = "individual"
	}

	var aliases []string
	for _, aka := range e.AKAs {
		if alias := joinName(aka.FirstName, aka.LastName); alias != "" {
			aliases = append(aliases, alias)
		}
	}

	var addresses []string
	for _, a := range e.Addresses {
		parts := []string{a.Address1, a.Address2, a.City, a.State, a.Postal, a.Country}
		var kept []string
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				kept = append(kept, p)
			}
		}
		if len(kept) > 0 {
			addresses = append(addresses, strings.Join(kept, ", "))
		}
	}

	nationality := ""
	if len(e.Nationalities) > 0 {
		nationality = strings.TrimSpace(e.Nationalities[0].Country)
	}
	dob := ""
	if len(e.DatesOfBirth) > 0 {
		dob = strings.TrimSpace(e.DatesOfBirth[0].DateOfBirth)
	}

	var ids []string
	for _, id := range e.IDs {
		if n := strings.TrimSpace(id.IDNumber); n != "" {
			if t := strings.TrimSpace(id.IDType); t != "" {
				ids = append(ids, t+": "+n)
			} else {
				ids = append(ids, n)
			}
		}
	}

	raw := rawSummary(e.UID, name, entityType, e.Programs, aliases)
	sum := sha256.Sum256([]byte(raw))

	return models.SanctionedEntity{
		OFACUID:          e.UID,
		Name:             name,
		EntityType:       entityType,
		Aliases:          aliases,
		SanctionPrograms: e.Programs,
		Addresses:        addresses,
		Nationality:      nationality,
		DateOfBirth:      dob,
		IDNumbers:        ids,
		Remarks:          strings.TrimSpace(e.Remarks),
		Source:           "OFAC SDN",
		SourceDate:       publish,
		RawText:          raw,
		RawTextHash:      hex.EncodeToString(sum[:])[:16],
		Confidence:       1.0,
	}
}

func joinName(first, last string) string {
	first = strings.TrimSpace(first)
	last = strings.TrimSpace(last)
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}

// rawSummary builds the compact provenance line hashed into the citation.
func rawSummary(uid, name, entityType string, programs, aliases []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "OFAC SDN %s: %s [%s]", uid, name, entityType)
	if len(programs) > 0 {
		fmt.Fprintf(&b, " programs=%s", strings.Join(programs, ","))
	}
	if len(aliases) > 0 {
		fmt.Fprintf(&b, " aka=%s", strings.Join(aliases, "; "))
	}
	return b.String()
}
