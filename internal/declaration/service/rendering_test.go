package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"testing"

	"github.com/smallbiznis/taxdesk/internal/declaration/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportCSVCarriesDeclarationFigures(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, "2025-05")

	result, err := f.svc.Export(context.Background(), domain.ExportRequest{
		Actor:  viewer,
		ID:     created.ID,
		Format: domain.ExportFormatCSV,
	})
	require.NoError(t, err)

	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, fmt.Sprintf("tax-declaration-%s-v1.csv", created.ID), result.FileName)

	records, err := csv.NewReader(bytes.NewReader(result.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Contains(t, records[1], created.ID)
	assert.Contains(t, records[1], "1000000.00")
	assert.Contains(t, records[1], "15000.00")
}

func TestExportPDF(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, "2025-05")

	result, err := f.svc.Export(context.Background(), domain.ExportRequest{
		Actor:  viewer,
		ID:     created.ID,
		Format: domain.ExportFormatPDF,
	})
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", result.ContentType)
	assert.True(t, bytes.HasPrefix(result.Data, []byte("%PDF")))
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	f := newFixture(t)
	created := f.create(t, "2025-05")

	_, err := f.svc.Export(context.Background(), domain.ExportRequest{
		Actor:  viewer,
		ID:     created.ID,
		Format: "xlsx",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
}
