// Package export writes leads to spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/shanehull/botleads/internal/model"
)

const SheetName = "Leads"

// ContentType is the MIME type of WriteXLSX output.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	headers      = []string{"Nome", "Endereço", "Telefone", "Latitude", "Longitude", "Tipo", "Fonte", "Link"}
	columnWidths = []float64{30, 50, 20, 15, 15, 20, 15, 45}
	coordFormat  = "0.000000"
)

// Filename is the download name for an export made at now.
func Filename(now time.Time) string {
	return fmt.Sprintf("leads_%s.xlsx", now.Format("20060102_150405"))
}

// WriteXLSX renders leads as a single sheet workbook. Missing phones read
// "N/A" and unknown coordinates are left blank.
func WriteXLSX(w io.Writer, leads []model.Lead) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	coordStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &coordFormat})
	if err != nil {
		return fmt.Errorf("failed to create number style: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return err
	}

	for i, width := range columnWidths {
		if err := sw.SetColWidth(i+1, i+1, width); err != nil {
			return err
		}
	}
	if err := sw.SetPanes(&excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i, l := range leads {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		lat, lng := any(nil), any(nil)
		if l.HasCoordinates() {
			lat, lng = l.Latitude, l.Longitude
		}
		row := []any{
			l.Name,
			l.Address,
			l.PhoneOrNA(),
			excelize.Cell{StyleID: coordStyle, Value: lat},
			excelize.Cell{StyleID: coordStyle, Value: lng},
			l.Category,
			l.Source.String(),
			l.ProfileLink,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
