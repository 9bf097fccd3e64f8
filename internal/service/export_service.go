package service

import (
	"context"
	"fmt"
	"time"

	"formsportal/internal/model"
	"formsportal/internal/repository"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var exportHeaders = []string{
	"Code", "Status", "Requester", "Employee ID", "Branch", "Department",
	"Items", "Total Amount", "Approved By", "Declined Reason", "Received By",
	"Created At", "Updated At",
}

// ExportService renders request listings as spreadsheets.
type ExportService interface {
	Export(ctx context.Context, form model.FormType, filter model.RequestFilter) (*excelize.File, string, error)
}

type exportService struct {
	requests repository.RequestRepository
	log      *zap.Logger
	now      func() time.Time
}

func NewExportService(requests repository.RequestRepository, log *zap.Logger) ExportService {
	if log == nil {
		log = zap.NewNop()
	}
	return &exportService{requests: requests, log: log, now: time.Now}
}

// Export returns the workbook and a suggested file name.
func (s *exportService) Export(ctx context.Context, form model.FormType, filter model.RequestFilter) (*excelize.File, string, error) {
	if filter.Status != "" {
		filter.Status = NormalizeStatus(filter.Status)
	}
	rows, err := s.requests.List(ctx, form, filter)
	if err != nil {
		s.log.Error("failed to load export rows", zap.String("form", form.Key), zap.Error(err))
		return nil, "", internalError(MsgLoadFailed, err)
	}

	f := excelize.NewFile()
	sheet := form.Name
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, "", internalError("failed to build export", err)
	}

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, h := range exportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for i, r := range rows {
		row := i + 2
		values := []interface{}{
			r.FormCode,
			r.Status,
			r.RequesterName,
			r.EmployeeID,
			r.Branch,
			r.Department,
			len(r.Items),
			r.TotalAmount.InexactFloat64(),
			deref(r.ApprovedBy),
			deref(r.DeclinedReason),
			deref(r.ReceivedBy),
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.UpdatedAt.Format("2006-01-02 15:04"),
		}
		for j, v := range values {
			col, _ := excelize.ColumnNumberToName(j + 1)
			_ = f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), v)
		}
	}

	for i := range exportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, col, col, 18)
	}

	filename := fmt.Sprintf("%s_%s.xlsx", form.Key, s.now().Format("20060102"))
	return f, filename, nil
}
