package orders

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lunchtogether/lunchbox-backend/pkg/db/models"
	"github.com/lunchtogether/lunchbox-backend/pkg/enums"
	pkgerrors "github.com/lunchtogether/lunchbox-backend/pkg/errors"
	"github.com/lunchtogether/lunchbox-backend/pkg/types"
)

func exportFixtureOrder() *models.Order {
	note := "no cilantro"
	return &models.Order{
		ID:       uuid.New(),
		Title:    "Friday lunch",
		Status:   enums.OrderStatusClosed,
		Deadline: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
		Store:    &models.Store{Name: "Bento Corner"},
		Items: []models.OrderItem{
			{
				ParticipantName: "Alice",
				ItemName:        "Chicken Bento",
				UnitPrice:       decimal.RequireFromString("8.50"),
				Quantity:        2,
				Selections:      types.OptionSelections{"Size": "Large", "Spice": "Mild"},
				Subtotal:        decimal.RequireFromString("17.00"),
			},
			{
				ParticipantName: "Bob",
				ItemName:        "Chicken Bento",
				UnitPrice:       decimal.RequireFromString("8.50"),
				Quantity:        1,
				Selections:      types.OptionSelections{"Size": "Large", "Spice": "Mild"},
				Note:            &note,
				Subtotal:        decimal.RequireFromString("8.50"),
			},
			{
				ParticipantName: "Bob",
				ItemName:        "Miso Soup",
				UnitPrice:       decimal.RequireFromString("2.00"),
				Quantity:        1,
				Subtotal:        decimal.RequireFromString("2.00"),
			},
		},
	}
}

func TestStatisticsAggregates(t *testing.T) {
	stats := Statistics(exportFixtureOrder())

	if stats.ParticipantCount != 2 {
		t.Fatalf("expected 2 participants, got %d", stats.ParticipantCount)
	}
	if stats.TotalQuantity != 4 {
		t.Fatalf("expected total quantity 4, got %d", stats.TotalQuantity)
	}
	if stats.TotalAmount != "27.50" {
		t.Fatalf("expected total amount 27.50, got %s", stats.TotalAmount)
	}
	if stats.AverageAmount != "13.75" {
		t.Fatalf("expected average amount 13.75, got %s", stats.AverageAmount)
	}

	if len(stats.Participants) != 2 {
		t.Fatalf("expected 2 participant summaries, got %d", len(stats.Participants))
	}
	if stats.Participants[0].Name != "Alice" || stats.Participants[0].Amount != "17.00" {
		t.Fatalf("unexpected first participant summary %+v", stats.Participants[0])
	}
	if stats.Participants[1].Name != "Bob" || stats.Participants[1].Quantity != 2 {
		t.Fatalf("unexpected second participant summary %+v", stats.Participants[1])
	}

	// Alice and Bob ordered the same bento with the same selections, so the
	// per-item view merges them.
	if len(stats.Items) != 2 {
		t.Fatalf("expected 2 item aggregates, got %d", len(stats.Items))
	}
	if stats.Items[0].ItemName != "Chicken Bento" || stats.Items[0].Quantity != 3 {
		t.Fatalf("unexpected first item aggregate %+v", stats.Items[0])
	}
	if stats.Items[0].Selections != "Size: Large; Spice: Mild" {
		t.Fatalf("unexpected flattened selections %q", stats.Items[0].Selections)
	}
}

func TestStatisticsEmptyOrder(t *testing.T) {
	stats := Statistics(&models.Order{})
	if stats.ParticipantCount != 0 || stats.TotalQuantity != 0 {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
	if stats.TotalAmount != "0.00" {
		t.Fatalf("expected zero total, got %s", stats.TotalAmount)
	}
	if stats.AverageAmount != "0.00" {
		t.Fatalf("expected zero average, got %s", stats.AverageAmount)
	}
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportCSV(&buf, exportFixtureOrder()); err != nil {
		t.Fatalf("export csv: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(exportHeader, ",") {
		t.Fatalf("unexpected header %v", records[0])
	}
	alice := records[1]
	if alice[0] != "Alice" || alice[2] != "2" || alice[4] != "17.00" {
		t.Fatalf("unexpected first row %v", alice)
	}
	if alice[5] != "Size: Large; Spice: Mild" {
		t.Fatalf("unexpected customizations %q", alice[5])
	}
	bob := records[2]
	if bob[6] != "no cilantro" {
		t.Fatalf("expected note in last column, got %q", bob[6])
	}
}

func TestExportCSVEmptyOrder(t *testing.T) {
	var buf bytes.Buffer
	err := ExportCSV(&buf, &models.Order{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeExportEmpty {
		t.Fatalf("expected export empty error, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatal("expected no output for empty order")
	}
}

func TestExportPDF(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportPDF(&buf, exportFixtureOrder()); err != nil {
		t.Fatalf("export pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatal("expected pdf magic header")
	}
}

func TestExportPDFEmptyOrder(t *testing.T) {
	var buf bytes.Buffer
	err := ExportPDF(&buf, &models.Order{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeExportEmpty {
		t.Fatalf("expected export empty error, got %v", err)
	}
}
