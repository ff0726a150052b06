package ofac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSDN = `<?xml version="1.0" encoding="utf-8"?>
<sdnList xmlns="https://sanctionslistservice.ofac.treas.gov/api/PublicationPreview/exports/XML">
  <publshInformation>
    <Publish_Date>2025-03-07</Publish_Date>
  </publshInformation>
  <sdnEntry>
    <uid>12345</uid>
    <lastName>BALTIC TRADING LLC</lastName>
    <sdnType>Entity</sdnType>
    <programList>
      <program>RUSSIA-EO14024</program>
      <program>UKRAINE-EO13662</program>
    </programList>
    <akaList>
      <aka>
        <lastName>BT LLC</lastName>
      </aka>
    </akaList>
    <addressList>
      <address>
        <address1>12 Harbour Way</address1>
        <city>Limassol</city>
        <country>Cyprus</country>
      </address>
    </addressList>
  </sdnEntry>
  <sdnEntry>
    <uid>67890</uid>
    <firstName>Viktor</firstName>
    <lastName>Petrov</lastName>
    <sdnType>Individual</sdnType>
    <programList>
      <program>SDGT</program>
    </programList>
    <nationalityList>
      <nationality>
        <country>Russia</country>
      </nationality>
    </nationalityList>
    <dateOfBirthList>
      <dateOfBirthItem>
        <dateOfBirth>12 Jan 1965</dateOfBirth>
      </dateOfBirthItem>
    </dateOfBirthList>
    <idList>
      <id>
        <idType>Passport</idType>
        <idNumber>501234567</idNumber>
      </id>
    </idList>
  </sdnEntry>
  <sdnEntry>
    <lastName>NO UID ENTITY</lastName>
    <sdnType>Entity</sdnType>
  </sdnEntry>
</sdnList>`

func TestParse(t *testing.T) {
	res, err := Parse([]byte(sampleSDN), SDNListURL)
	require.NoError(t, err)

	assert.Equal(t, "2025-03-07", res.PublishDate)
	require.Len(t, res.Entities, 2, "the uid-less entry is skipped")
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "without uid")

	company := res.Entities[0]
	assert.Equal(t, "12345", company.OFACUID)
	assert.Equal(t, "BALTIC TRADING LLC", company.Name)
	assert.Equal(t, "entity", company.EntityType)
	assert.Equal(t, []string{"BT LLC"}, company.Aliases)
	assert.Equal(t, []string{"RUSSIA-EO14024", "UKRAINE-EO13662"}, company.SanctionPrograms)
	assert.Equal(t, []string{"12 Harbour Way, Limassol, Cyprus"}, company.Addresses)
	assert.Equal(t, "OFAC SDN", company.Source)
	assert.Equal(t, "2025-03-07", company.SourceDate)
	assert.Equal(t, 1.0, company.Confidence)

	person := res.Entities[1]
	assert.Equal(t, "Viktor Petrov", person.Name)
	assert.Equal(t, "individual", person.EntityType)
	assert.Equal(t, "Russia", person.Nationality)
	assert.Equal(t, "12 Jan 1965", person.DateOfBirth)
	assert.Equal(t, []string{"Passport: 501234567"}, person.IDNumbers)
}

func TestParseCitations(t *testing.T) {
	res, err := Parse([]byte(sampleSDN), "https://example.test/sdn.xml")
	require.NoError(t, err)
	require.Len(t, res.Citations, 2)

	cit := res.Citations[0]
	assert.Equal(t, "12345", cit.SourceID)
	assert.Equal(t, "https://example.test/sdn.xml", cit.SourceURL)
	assert.Equal(t, "2025-03-07", cit.PublishDate)
	assert.Contains(t, cit.RawText, "OFAC SDN 12345: BALTIC TRADING LLC [entity]")
	assert.Contains(t, cit.RawText, "programs=RUSSIA-EO14024,UKRAINE-EO13662")
	assert.Contains(t, cit.RawText, "aka=BT LLC")
	assert.Len(t, cit.RawTextHash, 16)

	// Identical raw text hashes identically across parses.
	again, err := Parse([]byte(sampleSDN), "https://example.test/sdn.xml")
	require.NoError(t, err)
	assert.Equal(t, cit.RawTextHash, again.Citations[0].RawTextHash)
}

func TestParseRejectsEmptyList(t *testing.T) {
	_, err := Parse([]byte(`<sdnList></sdnList>`), "")
	assert.Error(t, err)

	_, err = Parse([]byte(`not xml`), "")
	assert.Error(t, err)
}

func TestParseNonISOPublishDate(t *testing.T) {
	xmlDoc := `<sdnList>
  <publshInformation><Publish_Date>03/07/2025</Publish_Date></publshInformation>
  <sdnEntry><uid>1</uid><lastName>X CORP</lastName><sdnType>Entity</sdnType></sdnEntry>
</sdnList>`
	res, err := Parse([]byte(xmlDoc), "")
	require.NoError(t, err)
	assert.Empty(t, res.PublishDate)
	assert.Empty(t, res.Entities[0].SourceDate)
}

func TestJoinName(t *testing.T) {
	assert.Equal(t, "Viktor Petrov", joinName("Viktor", "Petrov"))
	assert.Equal(t, "BALTIC TRADING LLC", joinName("", "BALTIC TRADING LLC"))
	assert.Equal(t, "Viktor", joinName(" Viktor ", ""))
}
