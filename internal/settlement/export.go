package settlement

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"bardev-backend/internal/models"

	"github.com/xuri/excelize/v2"
)

var exportHeader = []string{"Fecha", "ID Venta", "Mesa", "Mesero", "Total", "Propina", "Metodo Pago", "Productos"}

func exportRow(s models.SaleRecord) []string {
	waiter := "Admin"
	if s.WaiterName != nil && *s.WaiterName != "" {
		waiter = *s.WaiterName
	}
	products := make([]string, 0, len(s.Items))
	for _, it := range s.Items {
		products = append(products, it.Name)
	}
	return []string{
		s.Timestamp.Format("2006-01-02"),
		s.ID,
		s.TableNumber,
		waiter,
		strconv.FormatInt(s.Total, 10),
		strconv.FormatInt(s.Tip, 10),
		string(s.PaymentMethod),
		strings.Join(products, " | "),
	}
}

// ExportFileName is the download name of a cut, e.g. Corte_BarDev_2025-03-01.csv
func ExportFileName(cut *models.DailyCut, ext string) string {
	return fmt.Sprintf("Corte_BarDev_%s.%s", cut.Date.Format("2006-01-02"), ext)
}

// WriteCSV writes one row per sale of the cut.
func WriteCSV(w io.Writer, cut *models.DailyCut) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for _, s := range cut.SalesRecords {
		if err := cw.Write(exportRow(s)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the same rows as WriteCSV plus a totals block.
func WriteXLSX(w io.Writer, cut *models.DailyCut) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Corte"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	for col, h := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for i, s := range cut.SalesRecords {
		row := exportRow(s)
		for col, v := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			var value any = v
			// keep amounts numeric in the sheet
			if col == 4 {
				value = s.Total
			} else if col == 5 {
				value = s.Tip
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	totalsRow := len(cut.SalesRecords) + 3
	totals := []struct {
		label string
		value int64
	}{
		{"Total ventas", cut.TotalSales},
		{"Total propinas", cut.TotalTips},
		{"Efectivo", cut.CashTotal},
		{"Transferencia", cut.TransferTotal},
	}
	for i, t := range totals {
		labelCell, _ := excelize.CoordinatesToCellName(1, totalsRow+i)
		valueCell, _ := excelize.CoordinatesToCellName(2, totalsRow+i)
		if err := f.SetCellValue(sheet, labelCell, t.label); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, valueCell, t.value); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}
