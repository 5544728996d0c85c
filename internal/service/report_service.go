package service

import (
	"bytes"
	"fmt"
	"time"

	"scrapyard-api/internal/repository"
	"scrapyard-api/pkg/apperr"

	"github.com/xuri/excelize/v2"
)

type ReportService interface {
	// InventoryWorkbook renders the current catalog with stock levels.
	InventoryWorkbook() ([]byte, string, error)
	// TransactionsWorkbook renders the purchase history.
	TransactionsWorkbook() ([]byte, string, error)
}

type reportService struct {
	store repository.Store
}

func NewReportService(store repository.Store) ReportService {
	return &reportService{store: store}
}

func (s *reportService) InventoryWorkbook() ([]byte, string, error) {
	materials, err := s.store.Materials().FindAll("")
	if err != nil {
		return nil, "", apperr.FromDB(err, "material")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{"code", "name", "category", "price_per_kg", "stock_kg"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, "", err
	}

	row := 2
	for _, m := range materials {
		excelRow := []interface{}{
			m.Code,
			m.Name,
			m.Category,
			m.Price.StringFixed(2),
			m.Stock.StringFixed(3),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetSheetRow(sheet, cell, &excelRow); err != nil {
			return nil, "", err
		}
		row++
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, "", err
	}

	fileName := fmt.Sprintf("inventory_%s.xlsx", time.Now().Format("20060102_150405"))
	return buf.Bytes(), fileName, nil
}

func (s *reportService) TransactionsWorkbook() ([]byte, string, error) {
	transactions, err := s.store.Transactions().FindAll("", 0)
	if err != nil {
		return nil, "", apperr.FromDB(err, "transaction")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{"folio", "date", "client", "document", "total_weight_kg", "total_amount", "status"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, "", err
	}

	row := 2
	for _, t := range transactions {
		clientName := ""
		document := ""
		if t.Client != nil {
			clientName = t.Client.Name
			if t.Client.Document != nil {
				document = *t.Client.Document
			}
		}
		excelRow := []interface{}{
			t.Folio,
			t.CreatedAt.Format("2006-01-02 15:04"),
			clientName,
			document,
			t.TotalWeight.StringFixed(3),
			t.TotalAmount.StringFixed(2),
			string(t.Status),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, "", err
		}
		if err := f.SetSheetRow(sheet, cell, &excelRow); err != nil {
			return nil, "", err
		}
		row++
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, "", err
	}

	fileName := fmt.Sprintf("transactions_%s.xlsx", time.Now().Format("20060102_150405"))
	return buf.Bytes(), fileName, nil
}
