package export

import (
	"context"
	"strconv"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type renderer struct{}

func NewRenderer() Renderer {
	return &renderer{}
}

func (r *renderer) PDF(_ context.Context, doc Document) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Tax Declaration", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(24,
		col.New(6).Add(
			text.New("Declaration: "+doc.DeclarationID, props.Text{Top: 0}),
			text.New("Store: "+doc.StoreName, props.Text{Top: 4}),
			text.New("Status: "+doc.Status, props.Text{Top: 8}),
			text.New("Prepared by: "+doc.CreatedBy, props.Text{Top: 12}),
		),
		col.New(6).Add(
			text.New("Period: "+doc.PeriodKey+" ("+doc.PeriodType+")", props.Text{Top: 0}),
			text.New("From: "+doc.PeriodStart, props.Text{Top: 4}),
			text.New("To: "+doc.PeriodEnd, props.Text{Top: 8}),
			text.New(versionLabel(doc), props.Text{Top: 12}),
		),
	)

	m.AddRow(10,
		text.NewCol(8, "Item", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	rows := []struct {
		label string
		value string
	}{
		{"System revenue", doc.SystemRevenue},
		{"Declared revenue", doc.DeclaredRevenue},
		{"GTGT (" + doc.GTGTRate + "%)", doc.GTGTAmount},
		{"TNCN (" + doc.TNCNRate + "%)", doc.TNCNAmount},
	}
	for _, row := range rows {
		m.AddRow(8,
			text.NewCol(8, row.label, props.Text{Size: 9}),
			text.NewCol(4, row.value, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		text.NewCol(8, "Total tax", props.Text{Style: fontstyle.Bold, Size: 10}),
		text.NewCol(4, doc.TotalTax, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right}),
	)

	m.AddRow(10,
		text.NewCol(12, "Generated "+doc.GeneratedAt, props.Text{Size: 8, Top: 4}),
	)

	out, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return out.GetBytes(), nil
}

func versionLabel(doc Document) string {
	label := "Version: " + strconv.Itoa(doc.Version)
	if doc.IsClone {
		label += " (clone)"
	}
	return label
}
