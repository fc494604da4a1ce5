package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() Document {
	return Document{
		DeclarationID:   "1951234567890",
		StoreID:         "1950000000001",
		StoreName:       "Main Store",
		PeriodType:      "month",
		PeriodKey:       "2025-05",
		PeriodStart:     "2025-05-01T00:00:00Z",
		PeriodEnd:       "2025-06-01T00:00:00Z",
		Version:         2,
		IsClone:         true,
		Status:          "saved",
		SystemRevenue:   "1000000.00",
		DeclaredRevenue: "1000000.00",
		GTGTRate:        "1",
		TNCNRate:        "0.5",
		GTGTAmount:      "10000.00",
		TNCNAmount:      "5000.00",
		TotalTax:        "15000.00",
		CreatedBy:       "user-1",
		CreatedAt:       "2025-06-15T12:00:00Z",
		GeneratedAt:     "2025-06-16T09:30:00Z",
	}
}

func TestCSVRoundTrip(t *testing.T) {
	r := NewRenderer()
	data, err := r.CSV(context.Background(), sampleDocument())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, CSVHeader, records[0])

	row := records[1]
	require.Len(t, row, len(CSVHeader))
	byColumn := map[string]string{}
	for i, name := range CSVHeader {
		byColumn[name] = row[i]
	}
	assert.Equal(t, "1951234567890", byColumn["declaration_id"])
	assert.Equal(t, "2", byColumn["version"])
	assert.Equal(t, "true", byColumn["is_clone"])
	assert.Equal(t, "1000000.00", byColumn["declared_revenue"])
	assert.Equal(t, "15000.00", byColumn["total_tax"])
}

func TestPDFProducesDocument(t *testing.T) {
	r := NewRenderer()
	data, err := r.PDF(context.Background(), sampleDocument())
	require.NoError(t, err)

	require.NotEmpty(t, data)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")), "expected a PDF header")
}
