package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleForm4 = `<?xml version="1.0"?>
<ownershipDocument>
  <issuer>
    <issuerCik>320193</issuerCik>
    <issuerName>Apple Inc.</issuerName>
  </issuer>
  <reportingOwner>
    <reportingOwnerId>
      <rptOwnerCik>0001214156</rptOwnerCik>
      <rptOwnerName>SMITH JOHN A</rptOwnerName>
    </reportingOwnerId>
    <reportingOwnerRelationship>
      <isDirector>0</isDirector>
      <isOfficer>1</isOfficer>
      <isTenPercentOwner>false</isTenPercentOwner>
      <officerTitle>Chief Financial Officer</officerTitle>
    </reportingOwnerRelationship>
  </reportingOwner>
  <nonDerivativeTable>
    <nonDerivativeTransaction>
      <securityTitle><value>Common Stock</value></securityTitle>
      <transactionDate><value>2025-03-10</value></transactionDate>
      <transactionCoding><transactionCode>P</transactionCode></transactionCoding>
      <transactionAmounts>
        <transactionShares><value>1000</value></transactionShares>
        <transactionPricePerShare><value>150.25</value></transactionPricePerShare>
      </transactionAmounts>
      <postTransactionAmounts>
        <sharesOwnedFollowingTransaction><value>5000</value></sharesOwnedFollowingTransaction>
      </postTransactionAmounts>
      <ownershipNature>
        <directOrIndirectOwnership><value>D</value></directOrIndirectOwnership>
      </ownershipNature>
    </nonDerivativeTransaction>
  </nonDerivativeTable>
  <derivativeTable>
    <derivativeTransaction>
      <securityTitle><value>Stock Option</value></securityTitle>
      <transactionDate><value>2025-03-10</value></transactionDate>
      <transactionCoding><transactionCode>M</transactionCode></transactionCoding>
      <transactionAmounts>
        <transactionShares><value>2000</value></transactionShares>
        <transactionPricePerShare><value>0</value></transactionPricePerShare>
      </transactionAmounts>
      <postTransactionAmounts>
        <sharesOwnedFollowingTransaction><value>7000</value></sharesOwnedFollowingTransaction>
      </postTransactionAmounts>
      <ownershipNature>
        <directOrIndirectOwnership><value>D</value></directOrIndirectOwnership>
      </ownershipNature>
    </derivativeTransaction>
  </derivativeTable>
</ownershipDocument>`

func TestParseForm4(t *testing.T) {
	doc, err := ParseForm4(sampleForm4, "0001-25-000042")
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, "0000320193", doc.IssuerCIK)
	assert.Equal(t, "Apple Inc.", doc.IssuerName)
	assert.Equal(t, "SMITH JOHN A", doc.OwnerName)
	assert.Equal(t, "0001214156", doc.OwnerCIK)
	assert.Equal(t, "Chief Financial Officer", doc.OwnerTitle)
	assert.True(t, doc.IsOfficer)
	assert.False(t, doc.IsDirector)
	assert.False(t, doc.IsTenPercentOwner)

	require.Len(t, doc.Transactions, 2)

	buy := doc.Transactions[0]
	assert.Equal(t, "0001-25-000042_0", buy.ID)
	assert.Equal(t, 0, buy.Index)
	assert.Equal(t, "2025-03-10", buy.TransactionDate)
	assert.Equal(t, "P", buy.TransactionCode)
	assert.Equal(t, "Purchase", buy.TransactionType)
	assert.Equal(t, "Common Stock", buy.SecurityTitle)
	assert.Equal(t, 1000.0, buy.Shares)
	assert.Equal(t, 150.25, buy.PricePerShare)
	assert.Equal(t, 150250.0, buy.TotalValue)
	assert.Equal(t, 5000.0, buy.SharesAfterTransaction)
	assert.Equal(t, "D", buy.OwnershipType)
	assert.False(t, buy.IsDerivative)
	assert.Equal(t, "SMITH JOHN A", buy.InsiderName)
	assert.Equal(t, "0000320193", buy.CompanyCIK)

	// Derivative rows continue the same index sequence.
	exercise := doc.Transactions[1]
	assert.Equal(t, "0001-25-000042_1", exercise.ID)
	assert.Equal(t, "Exercise", exercise.TransactionType)
	assert.True(t, exercise.IsDerivative)
	assert.Equal(t, 0.0, exercise.TotalValue)
}

func TestParseForm4SkipsNonXML(t *testing.T) {
	// Pre-2005 filings are HTML; they are skipped, not failed.
	doc, err := ParseForm4("<html><body>FORM 4</body></html>", "acc")
	assert.NoError(t, err)
	assert.Nil(t, doc)
}

func TestParseForm4MalformedXML(t *testing.T) {
	_, err := ParseForm4("<?xml version=\"1.0\"?><ownershipDocument><issuer>", "acc-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "acc-1")
}

func TestParseForm4SkipsCodelessTransactions(t *testing.T) {
	xmlDoc := `<ownershipDocument>
  <issuer><issuerCik>1</issuerCik><issuerName>X</issuerName></issuer>
  <nonDerivativeTable>
    <nonDerivativeTransaction>
      <securityTitle><value>Common Stock</value></securityTitle>
    </nonDerivativeTransaction>
    <nonDerivativeTransaction>
      <transactionCoding><transactionCode>S</transactionCode></transactionCoding>
      <transactionAmounts>
        <transactionShares><value>10</value></transactionShares>
        <transactionPricePerShare><value>2</value></transactionPricePerShare>
      </transactionAmounts>
    </nonDerivativeTransaction>
  </nonDerivativeTable>
</ownershipDocument>`
	doc, err := ParseForm4(xmlDoc, "acc-2")
	require.NoError(t, err)
	require.Len(t, doc.Transactions, 1)
	assert.Equal(t, "S", doc.Transactions[0].TransactionCode)
	assert.Equal(t, "acc-2_0", doc.Transactions[0].ID)
	assert.Equal(t, 20.0, doc.Transactions[0].TotalValue)
}

func TestTransactionType(t *testing.T) {
	assert.Equal(t, "Purchase", transactionType("P"))
	assert.Equal(t, "Sale", transactionType("S"))
	assert.Equal(t, "Gift", transactionType("G"))
	assert.Equal(t, "Unknown", transactionType("Z"))
}

func TestXMLFlag(t *testing.T) {
	assert.True(t, xmlFlag("1"))
	assert.True(t, xmlFlag("true"))
	assert.True(t, xmlFlag(" TRUE "))
	assert.False(t, xmlFlag("0"))
	assert.False(t, xmlFlag("false"))
	assert.False(t, xmlFlag(""))
}

func TestXMLFloat(t *testing.T) {
	assert.Equal(t, 1500.5, xmlFloat(" 1500.5 "))
	assert.Equal(t, 0.0, xmlFloat(""))
	assert.Equal(t, 0.0, xmlFloat("n/a"))
}

func TestPadCIK(t *testing.T) {
	assert.Equal(t, "0000320193", padCIK("320193"))
	assert.Equal(t, "0000320193", padCIK("0000320193"))
	assert.Equal(t, "0001214156", padCIK(" 1214156 "))
	assert.Equal(t, "", padCIK(""))
}
