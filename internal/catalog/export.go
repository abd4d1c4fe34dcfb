package catalog

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"

	"github.com/beautybucket/backend/internal/domain"
)

const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"

	exportSheet = "Sheet1"
)

// ExportHeader is the fixed export header. Column order follows the stored
// products column order and is relied on by downstream spreadsheets.
var ExportHeader = []string{
	"ID", "Name", "Category", "Details", "MRP", "Purchase", "Discount1", "Discount5", "Stock", "Image",
	"OurPurchase", "DiscGot%", "Sell1", "Sell5", "Disc1%", "Disc5%",
}

// exportRow mirrors ExportHeader; csv tags must stay in the same order.
type exportRow struct {
	ID                   int64   `csv:"ID"`
	Name                 string  `csv:"Name"`
	Category             string  `csv:"Category"`
	Details              string  `csv:"Details"`
	MRP                  float64 `csv:"MRP"`
	PurchasePrice        float64 `csv:"Purchase"`
	Discount1            float64 `csv:"Discount1"`
	Discount5            float64 `csv:"Discount5"`
	Stock                int     `csv:"Stock"`
	ImageURL             string  `csv:"Image"`
	OurPurchasePrice     float64 `csv:"OurPurchase"`
	DiscountWeGotPercent float64 `csv:"DiscGot%"`
	SellingPrice1        float64 `csv:"Sell1"`
	SellingPrice5        float64 `csv:"Sell5"`
	DiscountPercent1     float64 `csv:"Disc1%"`
	DiscountPercent5     float64 `csv:"Disc5%"`
}

func newExportRow(p domain.Product) exportRow {
	return exportRow{
		ID:                   p.ID,
		Name:                 p.Name,
		Category:             p.Category,
		Details:              p.Details,
		MRP:                  p.MRP,
		PurchasePrice:        p.PurchasePrice,
		Discount1:            p.Discount1,
		Discount5:            p.Discount5,
		Stock:                p.Stock,
		ImageURL:             p.ImageURL,
		OurPurchasePrice:     p.OurPurchasePrice,
		DiscountWeGotPercent: p.DiscountWeGotPercent,
		SellingPrice1:        p.SellingPrice1,
		SellingPrice5:        p.SellingPrice5,
		DiscountPercent1:     p.DiscountPercent1,
		DiscountPercent5:     p.DiscountPercent5,
	}
}

func (r exportRow) values() []interface{} {
	return []interface{}{
		r.ID, r.Name, r.Category, r.Details, r.MRP, r.PurchasePrice, r.Discount1, r.Discount5, r.Stock, r.ImageURL,
		r.OurPurchasePrice, r.DiscountWeGotPercent, r.SellingPrice1, r.SellingPrice5, r.DiscountPercent1, r.DiscountPercent5,
	}
}

// NormalizeFormat maps a requested format to a supported one. Empty means xlsx.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", validationf("Unsupported export format: %s", format)
	}
}

// ContentType returns the MIME type of an export format.
func ContentType(format string) string {
	if format == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// ExportProducts writes every product in id order, stored values as is.
func (s *Service) ExportProducts(ctx context.Context, w io.Writer, format string) error {
	format, err := NormalizeFormat(format)
	if err != nil {
		return err
	}
	products, err := s.repo.ListProducts(ctx, "id ASC")
	if err != nil {
		return err
	}
	rows := make([]exportRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, newExportRow(p))
	}
	if format == FormatCSV {
		return writeCSV(w, rows)
	}
	return writeXLSX(w, rows)
}

// writeXLSX renders rows as a single-sheet workbook.
func writeXLSX(w io.Writer, rows []exportRow) error {
	f := excelize.NewFile()
	header := make([]interface{}, len(ExportHeader))
	for i, h := range ExportHeader {
		header[i] = h
	}
	f.SetSheetRow(exportSheet, "A1", &header)
	for i, r := range rows {
		vals := r.values()
		f.SetSheetRow(exportSheet, fmt.Sprintf("A%d", i+2), &vals)
	}
	return errors.Wrap(f.Write(w), "write xlsx")
}

// writeCSV renders rows with a header line.
func writeCSV(w io.Writer, rows []exportRow) error {
	if len(rows) == 0 {
		_, err := io.WriteString(w, strings.Join(ExportHeader, ",")+"\n")
		return errors.Wrap(err, "write csv")
	}
	return errors.Wrap(gocsv.Marshal(&rows, w), "write csv")
}
