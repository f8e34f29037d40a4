package orders

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/lunchtogether/lunchbox-backend/pkg/db/models"
	pkgerrors "github.com/lunchtogether/lunchbox-backend/pkg/errors"
)

var exportHeader = []string{"participant", "item", "quantity", "unit_price", "subtotal", "customizations", "note"}

// Statistics aggregates the submitted lines per participant and per item.
// Lines with identical item and selections are merged.
func Statistics(order *models.Order) OrderStatsDTO {
	stats := OrderStatsDTO{
		Participants: []ParticipantSummaryDTO{},
		Items:        []ItemAggregateDTO{},
	}
	if order == nil || len(order.Items) == 0 {
		stats.TotalAmount = decimal.Zero.StringFixed(2)
		stats.AverageAmount = decimal.Zero.StringFixed(2)
		return stats
	}

	type bucket struct {
		quantity int
		amount   decimal.Decimal
	}

	total := decimal.Zero
	perParticipant := map[string]*bucket{}
	perItem := map[string]*bucket{}
	itemLabels := map[string][2]string{}

	for i := range order.Items {
		line := &order.Items[i]
		stats.TotalQuantity += line.Quantity
		total = total.Add(line.Subtotal)

		pb, ok := perParticipant[line.ParticipantName]
		if !ok {
			pb = &bucket{amount: decimal.Zero}
			perParticipant[line.ParticipantName] = pb
		}
		pb.quantity += line.Quantity
		pb.amount = pb.amount.Add(line.Subtotal)

		selections := flattenSelections(line)
		key := line.ItemName + "\x00" + selections
		ib, ok := perItem[key]
		if !ok {
			ib = &bucket{amount: decimal.Zero}
			perItem[key] = ib
			itemLabels[key] = [2]string{line.ItemName, selections}
		}
		ib.quantity += line.Quantity
		ib.amount = ib.amount.Add(line.Subtotal)
	}

	stats.ParticipantCount = len(perParticipant)
	stats.TotalAmount = total.StringFixed(2)
	average := decimal.Zero
	if stats.ParticipantCount > 0 {
		average = total.Div(decimal.NewFromInt(int64(stats.ParticipantCount)))
	}
	stats.AverageAmount = average.StringFixed(2)

	names := make([]string, 0, len(perParticipant))
	for name := range perParticipant {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b := perParticipant[name]
		stats.Participants = append(stats.Participants, ParticipantSummaryDTO{
			Name:     name,
			Quantity: b.quantity,
			Amount:   b.amount.StringFixed(2),
		})
	}

	keys := make([]string, 0, len(perItem))
	for key := range perItem {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		b := perItem[key]
		label := itemLabels[key]
		stats.Items = append(stats.Items, ItemAggregateDTO{
			ItemName:   label[0],
			Selections: label[1],
			Quantity:   b.quantity,
			Amount:     b.amount.StringFixed(2),
		})
	}
	return stats
}

// ExportCSV writes the order's submitted lines as CSV. Orders without
// submissions are rejected so organizers do not hand an empty file to the
// store.
func ExportCSV(w io.Writer, order *models.Order) error {
	rows, err := exportRows(order)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv header")
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv row")
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flush csv")
	}
	return nil
}

// ExportPDF renders a printable summary: the per-line table followed by the
// aggregated totals the store cares about.
func ExportPDF(w io.Writer, order *models.Order) error {
	rows, err := exportRows(order)
	if err != nil {
		return err
	}
	stats := Statistics(order)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(order.Title, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, order.Title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	storeName := ""
	if order.Store != nil {
		storeName = order.Store.Name
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Order ID: %s", order.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Store: %s", storeName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Created: %s", order.CreatedAt.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Deadline: %s", order.Deadline.Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Status: %s", order.Status), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{35, 40, 15, 20, 20, 40, 20}
	pdf.SetFont("Helvetica", "B", 9)
	for i, title := range exportHeader {
		pdf.CellFormat(widths[i], 7, title, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range rows {
		for i, cell := range row {
			pdf.CellFormat(widths[i], 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Totals", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Participants: %d", stats.ParticipantCount), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Items: %d", stats.TotalQuantity), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Total amount: %s", stats.TotalAmount), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Average per participant: %s", stats.AverageAmount), "", 1, "L", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Per item", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, agg := range stats.Items {
		label := agg.ItemName
		if agg.Selections != "" {
			label += " (" + agg.Selections + ")"
		}
		pdf.CellFormat(0, 6, fmt.Sprintf("%dx %s = %s", agg.Quantity, label, agg.Amount), "", 1, "L", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render pdf")
	}
	return nil
}

func exportRows(order *models.Order) ([][]string, error) {
	if order == nil || len(order.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeExportEmpty, "order has no submissions")
	}

	rows := make([][]string, 0, len(order.Items))
	for i := range order.Items {
		line := &order.Items[i]
		note := ""
		if line.Note != nil {
			note = *line.Note
		}
		rows = append(rows, []string{
			line.ParticipantName,
			line.ItemName,
			strconv.Itoa(line.Quantity),
			line.UnitPrice.StringFixed(2),
			line.Subtotal.StringFixed(2),
			flattenSelections(line),
			note,
		})
	}
	return rows, nil
}

// flattenSelections renders the option map as "Option: choice" pairs in
// stable alphabetical order.
func flattenSelections(line *models.OrderItem) string {
	if len(line.Selections) == 0 {
		return ""
	}
	names := make([]string, 0, len(line.Selections))
	for name := range line.Selections {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, line.Selections[name]))
	}
	return strings.Join(parts, "; ")
}
