package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"strconv"
)

// CSVHeader is the stable column order of the CSV export.
var CSVHeader = []string{
	"declaration_id",
	"store_id",
	"store_name",
	"period_type",
	"period_key",
	"period_start",
	"period_end",
	"version",
	"is_clone",
	"status",
	"system_revenue",
	"declared_revenue",
	"gtgt_rate",
	"tncn_rate",
	"gtgt_amount",
	"tncn_amount",
	"total_tax",
	"created_by",
	"created_at",
	"generated_at",
}

func (r *renderer) CSV(_ context.Context, doc Document) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(CSVHeader); err != nil {
		return nil, err
	}
	record := []string{
		doc.DeclarationID,
		doc.StoreID,
		doc.StoreName,
		doc.PeriodType,
		doc.PeriodKey,
		doc.PeriodStart,
		doc.PeriodEnd,
		strconv.Itoa(doc.Version),
		strconv.FormatBool(doc.IsClone),
		doc.Status,
		doc.SystemRevenue,
		doc.DeclaredRevenue,
		doc.GTGTRate,
		doc.TNCNRate,
		doc.GTGTAmount,
		doc.TNCNAmount,
		doc.TotalTax,
		doc.CreatedBy,
		doc.CreatedAt,
		doc.GeneratedAt,
	}
	if err := w.Write(record); err != nil {
		return nil, err
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
