package production

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"strings"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/jung-kurt/gofpdf"

	"seedflow/models"
)

// renderBatchTicketPDF prints the batch ticket that travels with the bags: the
// planning number as Code128 plus what the line needs to start the batch.
func renderBatchTicketPDF(b models.ProductionBatch, printedAt time.Time) ([]byte, error) {
	code := strings.TrimSpace(b.NumPlanej)
	if code == "" {
		return nil, fmt.Errorf("batch has no planning number")
	}
	barcodePNG, err := renderCode128PNG(code, 1200, 240)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("L", "mm", "A5", "")
	pdf.SetTitle("Ficha do lote "+code, true)
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	margin := 8.0
	w0 := pageW - 2*margin
	pdf.SetLineWidth(0.35)
	pdf.Rect(margin, margin, w0, pageH-2*margin, "")

	product := orDash(b.DescProdutoAcabado)
	pdf.SetFont("Helvetica", "B", fitFontSizeForWidth(pdf, "Helvetica", "B", 22, 12, tr(product), w0-8))
	pdf.SetXY(margin+4, margin+4)
	pdf.CellFormat(w0-8, 11, tr(product), "", 1, "L", false, 0, "")

	fields := [][2]string{
		{"Nº Planej.", code},
		{"Lote", orDash(b.Lote)},
		{"Ordem", orDash(b.OrdemPrd)},
		{"Matéria-prima", orDash(b.DescMateriaPrima)},
		{"Data / hora", b.ProductionDate() + " " + b.ProductionTime()},
		{"Máquina", orDash(b.NumMaquina)},
		{"Prioridade", orDash(b.DescPrioridade)},
		{"Status", orDash(b.DescStatus)},
	}
	colW := (w0 - 8) / 2
	y := margin + 18
	for i, f := range fields {
		x := margin + 4
		if i%2 == 1 {
			x += colW
		}
		pdf.SetXY(x, y)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(28, 6, tr(f[0]+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(colW-30, 6, tr(f[1]), "", 0, "L", false, 0, "")
		if i%2 == 1 {
			y += 7
		}
	}

	opt := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	imageName := "batch-barcode-" + code
	pdf.RegisterImageOptionsReader(imageName, opt, bytes.NewReader(barcodePNG))
	imgW := w0 - 40
	imgH := 30.0
	imgY := pageH - margin - imgH - 16
	pdf.ImageOptions(imageName, margin+20, imgY, imgW, imgH, false, opt, 0, "")
	pdf.SetXY(margin, imgY+imgH+2)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(w0, 8, code, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(margin+4, pageH-margin-5)
	pdf.CellFormat(w0-8, 4, tr("Impresso em "+printedAt.Format("02/01/2006 15:04")), "", 0, "R", false, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func fitFontSizeForWidth(pdf *gofpdf.Fpdf, family, style string, base, min float64, text string, maxWidth float64) float64 {
	if maxWidth <= 0 {
		return min
	}
	size := base
	pdf.SetFont(family, style, size)
	for size > min && pdf.GetStringWidth(text) > maxWidth {
		size -= 0.5
		pdf.SetFont(family, style, size)
	}
	return size
}

func renderCode128PNG(value string, width, height int) ([]byte, error) {
	code, err := code128.Encode(value)
	if err != nil {
		return nil, err
	}
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, err
	}
	bounds := scaled.Bounds()
	dst := image.NewNRGBA(bounds)
	draw.Draw(dst, bounds, scaled, bounds.Min, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
