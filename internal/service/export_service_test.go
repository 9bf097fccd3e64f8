package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"formsportal/internal/model"
)

func TestExportWritesOneRowPerRequest(t *testing.T) {
	f := newFixture()
	form := mustForm("purchase_request")
	for _, item := range []string{"Paper", "Ink"} {
		if _, err := f.service.Create(context.Background(), form, purchaseInput(
			map[string]interface{}{"purchase_item": item, "quantity": json.Number("2"), "unit_price": json.Number("50")},
		)); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	svc := NewExportService(f.requests, nil)
	svc.(*exportService).now = func() time.Time { return time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC) }

	book, filename, err := svc.Export(context.Background(), form, model.RequestFilter{})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	defer book.Close()

	if filename != "purchase_request_20250314.xlsx" {
		t.Errorf("Unexpected filename %s", filename)
	}

	rows, err := book.GetRows(form.Name)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header plus two rows, got %d", len(rows))
	}
	if rows[0][0] != "Code" || rows[1][0] != "PR-2025-000002" || rows[2][0] != "PR-2025-000001" {
		t.Errorf("Unexpected code column %v / %v / %v", rows[0][0], rows[1][0], rows[2][0])
	}
	if rows[1][7] != "100" {
		t.Errorf("Expected total 100, got %s", rows[1][7])
	}
}

func TestExportListFailure(t *testing.T) {
	f := newFixture()
	f.requests.listErr = errBoom

	_, _, err := NewExportService(f.requests, nil).Export(context.Background(), mustForm("cash_advance"), model.RequestFilter{})
	if KindOf(err) != KindInternal {
		t.Errorf("Expected internal error, got %v", err)
	}
}
