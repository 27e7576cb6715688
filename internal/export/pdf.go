package export

import (
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	corem "github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"maintrack/internal/core"
)

// PDFRenderer renders the single-record report.
type PDFRenderer struct{}

func (PDFRenderer) ContentType() string { return "application/pdf" }
func (PDFRenderer) Extension() string   { return "pdf" }

var (
	titleText   = props.Text{Size: 18, Style: fontstyle.Bold, Align: align.Center}
	sectionText = props.Text{Size: 12, Style: fontstyle.Bold, Top: 3}
	headerText  = props.Text{Size: 9, Style: fontstyle.Bold}
	cellText    = props.Text{Size: 9}
	rightHeader = props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	rightCell   = props.Text{Size: 9, Align: align.Right}
)

func newDocument() corem.Maroto {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	return maroto.New(cfg)
}

func (PDFRenderer) Render(rec core.MaintenanceRecord) ([]byte, error) {
	money := core.FormatCurrencyASCII
	m := newDocument()

	m.AddRow(15, text.NewCol(12, "Maintenance Record Report", titleText))
	m.AddRow(18,
		col.New(12).Add(
			text.New("Period: "+rec.Period.Label(), props.Text{Top: 0}),
			text.New("Collector: "+rec.CollectorName, props.Text{Top: 5}),
			text.New("Grand Total: "+money(rec.GrandTotal), props.Text{Top: 10, Style: fontstyle.Bold}),
		),
	)
	m.AddRow(4, line.NewCol(12))

	m.AddRow(10, text.NewCol(12, "Tenant Payments", sectionText))
	m.AddRow(7,
		text.NewCol(6, "Tenant", headerText),
		text.NewCol(3, "Amount", rightHeader),
		text.NewCol(3, "Status", rightHeader),
	)
	if len(rec.Payments) == 0 {
		m.AddRow(7, text.NewCol(12, "No payments recorded", cellText))
	}
	for _, p := range rec.Payments {
		name := p.TenantName
		if name == "" {
			name = p.TenantID
		}
		m.AddRow(7,
			text.NewCol(6, name, cellText),
			text.NewCol(3, money(p.Amount), rightCell),
			text.NewCol(3, titleCase(string(p.Status)), rightCell),
		)
	}

	m.AddRow(10, text.NewCol(12, "Expense Particulars", sectionText))
	m.AddRow(7,
		text.NewCol(6, "Item", headerText),
		text.NewCol(3, "Price", rightHeader),
		text.NewCol(3, "Type", rightHeader),
	)
	if len(rec.Particulars) == 0 {
		m.AddRow(7, text.NewCol(12, "No particulars recorded", cellText))
	}
	for _, p := range rec.Particulars {
		m.AddRow(7,
			text.NewCol(6, p.Name, cellText),
			text.NewCol(3, money(p.Price), rightCell),
			text.NewCol(3, titleCase(string(p.Category)), rightCell),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

// RenderRecordList renders every record as one row of a summary table.
func RenderRecordList(records []core.MaintenanceRecord) ([]byte, error) {
	money := core.FormatCurrencyASCII
	m := newDocument()

	m.AddRow(15, text.NewCol(12, "All Maintenance Records", titleText))
	m.AddRow(7,
		text.NewCol(4, "Period", headerText),
		text.NewCol(5, "Collector", headerText),
		text.NewCol(3, "Grand Total", rightHeader),
	)
	var total float64
	for _, r := range records {
		total += r.GrandTotal
		m.AddRow(7,
			text.NewCol(4, r.Period.Label(), cellText),
			text.NewCol(5, r.CollectorName, cellText),
			text.NewCol(3, money(r.GrandTotal), rightCell),
		)
	}
	m.AddRow(4, line.NewCol(12))
	m.AddRow(7,
		text.NewCol(9, fmt.Sprintf("%d records", len(records)), headerText),
		text.NewCol(3, money(total), rightHeader),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render record list: %w", err)
	}
	return doc.GetBytes(), nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
