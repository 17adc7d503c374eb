// Package report renders printable documents for registered grievances.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/amv-gms/grievance-service/internal/domain"
)

const fontFamily = "body"

// Font is a TrueType face embedded in generated documents.
type Font struct {
	data []byte
}

// LoadFont reads and checks a TrueType file. Without a font the slip uses the
// core Helvetica face, which only covers Windows-1252; text in other scripts,
// such as Devanagari names, then prints as '?'. fpdf embeds glyphs but does
// not shape complex scripts, so conjuncts may print as separate glyphs.
func LoadFont(path string) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("report: load font: %w", err)
	}
	if len(data) < 12 {
		return nil, fmt.Errorf("report: %s is not a TrueType font", path)
	}
	font := &Font{data: data}
	pdf := fpdf.New("P", "mm", "A4", "")
	font.register(pdf)
	pdf.SetFont(fontFamily, "", 10)
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("report: %s is not a usable TrueType font: %w", path, err)
	}
	return font, nil
}

func (f *Font) register(pdf *fpdf.Fpdf) {
	for _, style := range []string{"", "B", "I"} {
		pdf.AddUTF8FontFromBytes(fontFamily, style, f.data)
	}
}

// WriteAcknowledgement writes a one-page acknowledgement slip for g to w. A nil
// font selects Helvetica.
func WriteAcknowledgement(w io.Writer, g *domain.Grievance, office string, printedAt time.Time, font *Font) error {
	if g == nil {
		return errors.New("report: nil grievance")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.SetAutoPageBreak(true, 18)
	pdf.SetTitle("Grievance "+g.ReferenceNo, true)
	pdf.SetCreator(office, true)
	family := "Helvetica"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if font != nil {
		font.register(pdf)
		family = fontFamily
		tr = func(s string) string { return s }
	}

	pageW, _ := pdf.GetPageSize()
	marginL, marginT, marginR, _ := pdf.GetMargins()
	contentW := pageW - marginL - marginR

	pdf.AddPage()

	pdf.SetFillColor(30, 30, 30)
	pdf.Rect(marginL, marginT, contentW, 10, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont(family, "B", 12)
	pdf.SetXY(marginL+2, marginT+1.5)
	pdf.CellFormat(contentW-4, 7, "GRIEVANCE ACKNOWLEDGEMENT", "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.SetXY(marginL, marginT+13)
	pdf.SetFont(family, "", 10)
	pdf.CellFormat(contentW, 6, tr(office), "", 1, "L", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont(family, "B", 14)
	pdf.CellFormat(contentW, 9, "Reference No. "+g.ReferenceNo, "1", 1, "C", false, 0, "")
	pdf.Ln(4)

	labelW := 48.0
	rows := [][2]string{
		{"Submitted", domain.FormatSubmittedAt(g.SubmittedAt)},
		{"HRMS ID", g.HRMSID},
		{"Employee Name", g.EmployeeName},
		{"Employee No.", g.EmployeeNo},
		{"Designation", g.Designation},
		{"Trade", g.Trade},
		{"Section", g.Section},
		{"Grievance Type", g.GrievanceType},
		{"Status", string(g.Status)},
	}
	pdf.SetFillColor(240, 240, 240)
	for _, row := range rows {
		pdf.SetFont(family, "B", 9)
		pdf.CellFormat(labelW, 7, row[0], "1", 0, "L", true, 0, "")
		pdf.SetFont(family, "", 10)
		pdf.CellFormat(contentW-labelW, 7, tr(row[1]), "1", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont(family, "B", 9)
	pdf.CellFormat(contentW, 7, "Grievance", "1", 1, "L", true, 0, "")
	pdf.SetFont(family, "", 10)
	pdf.MultiCell(contentW, 6, tr(g.Text), "1", "L", false)

	if g.Resolution != "" {
		pdf.Ln(4)
		pdf.SetFont(family, "B", 9)
		pdf.CellFormat(contentW, 7, "Resolution", "1", 1, "L", true, 0, "")
		pdf.SetFont(family, "", 10)
		pdf.MultiCell(contentW, 6, tr(g.Resolution), "1", "L", false)
	}

	pdf.Ln(8)
	pdf.SetFont(family, "I", 8)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(contentW, 5, "Quote the reference number when enquiring about this grievance.", "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, "Printed "+domain.FormatSubmittedAt(printedAt), "", 1, "L", false, 0, "")

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}
