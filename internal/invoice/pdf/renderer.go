// Package pdf renders printable invoice documents.
package pdf

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// Document carries everything needed to render one invoice. Amounts are
// preformatted strings so the renderer stays ignorant of currency rules.
type Document struct {
	LandlordName  string
	InvoiceNumber string
	Category      string
	Status        string
	IssuedDate    string
	DueDate       string
	PeriodLabel   string
	UnitLabel     string
	Description   string
	AmountDue     string
	PaidDate      string
}

type Renderer interface {
	Render(ctx context.Context, doc Document) ([]byte, error)
}

type marotoRenderer struct{}

func NewRenderer() Renderer {
	return &marotoRenderer{}
}

func (r *marotoRenderer) Render(_ context.Context, doc Document) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Invoice", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(24,
		col.New(6).Add(
			text.New("Invoice number: "+doc.InvoiceNumber, props.Text{Top: 0}),
			text.New("Date of issue: "+doc.IssuedDate, props.Text{Top: 4}),
			text.New("Date due: "+doc.DueDate, props.Text{Top: 8}),
			text.New("Billing period: "+doc.PeriodLabel, props.Text{Top: 12}),
		),
		col.New(6).Add(
			text.New(doc.LandlordName, props.Text{Style: fontstyle.Bold}),
			text.New(doc.UnitLabel, props.Text{Top: 5}),
		),
	)

	m.AddRow(15,
		text.NewCol(12, fmt.Sprintf("%s due %s", doc.AmountDue, doc.DueDate), props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	m.AddRow(10,
		text.NewCol(8, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Category", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	m.AddRow(15,
		text.NewCol(8, doc.Description, props.Text{Size: 9}),
		text.NewCol(2, doc.Category, props.Text{Size: 9, Align: align.Right}),
		text.NewCol(2, doc.AmountDue, props.Text{Size: 9, Align: align.Right}),
	)

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Amount due", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, doc.AmountDue, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	status := "Status: " + doc.Status
	if doc.PaidDate != "" {
		status += " on " + doc.PaidDate
	}
	m.AddRow(10,
		text.NewCol(12, status, props.Text{Size: 9, Top: 4}),
	)

	generated, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return generated.GetBytes(), nil
}
