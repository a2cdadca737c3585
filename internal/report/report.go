// Package report renders the leaderboard as a printable parchment scroll
// (old-map style): ranked standings, a wax seal and the latest battles.
package report

import (
	"bytes"
	"fmt"
	"math"

	"leaderboard/internal/store"

	"github.com/dustin/go-humanize"
	"github.com/jung-kurt/gofpdf/v2"
)

const (
	pageW     = 595
	pageH     = 842
	margin    = 40
	fontSize  = 9
	titleSize = 18
	rowH      = 18.0
	sealR     = 26.0
)

// column layout of the standings table
var columns = []struct {
	title string
	width float64
	align string
}{
	{"#", 28, "C"},
	{"Jugador", 120, "L"},
	{"Apodo", 130, "L"},
	{"Victorias", 62, "C"},
	{"Partidas", 58, "C"},
	{"% Vict.", 52, "C"},
	{"Premio", 45, "C"},
}

// Generate returns PDF bytes for the leaderboard scroll. Standings are drawn
// in the order given; recent matches are listed below the table.
func Generate(title string, standings []store.Standing, recent []store.RecentMatch) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// Parchment background
	pdf.SetFillColor(245, 235, 210)
	pdf.Rect(0, 0, pageW, pageH, "F")
	drawWavyBorder(pdf)

	pdf.SetDrawColor(80, 50, 30)
	pdf.SetTextColor(80, 50, 30)
	pdf.SetLineWidth(1)

	if title == "" {
		title = "Tabla de Honor"
	}
	pdf.SetFont("Times", "B", titleSize)
	pdf.SetXY(margin+10, margin+16)
	pdf.CellFormat(pageW-2*margin-90, 22, tr(title), "", 0, "L", false, 0, "")
	pdf.SetFont("Times", "I", fontSize)
	pdf.SetXY(margin+10, margin+40)
	pdf.CellFormat(pageW-2*margin-90, 12,
		tr(fmt.Sprintf("El primero en llegar a %d victorias se lleva el vino.", store.PrizeWins)),
		"", 0, "L", false, 0, "")

	drawSeal(pdf, pageW-margin-50, margin+40)

	y := drawStandings(pdf, tr, margin+80, standings)
	drawRecent(pdf, tr, y+24, recent)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawStandings(pdf *gofpdf.Fpdf, tr func(string) string, y float64, standings []store.Standing) float64 {
	x0 := float64(margin) + 10
	pdf.SetFont("Times", "B", fontSize+1)
	pdf.SetFillColor(225, 205, 165)
	pdf.SetXY(x0, y)
	for _, c := range columns {
		pdf.CellFormat(c.width, rowH, tr(c.title), "B", 0, c.align, true, 0, "")
	}
	y += rowH

	pdf.SetFont("Times", "", fontSize)
	if len(standings) == 0 {
		pdf.SetXY(x0, y+4)
		pdf.CellFormat(totalWidth(), rowH, tr("Nadie ha empuñado la espada todavía."), "", 0, "C", false, 0, "")
		return y + rowH + 4
	}
	maxRows := int((pageH/2 - y) / rowH)
	for i, s := range standings {
		if i >= maxRows {
			break
		}
		prize := ""
		if s.PrizeEarned() {
			prize = "Vino"
		}
		cells := []string{
			fmt.Sprintf("%d", i+1),
			s.Name,
			s.Nickname,
			humanize.Comma(int64(s.Wins)),
			humanize.Comma(int64(s.Played)),
			humanize.FtoaWithDigits(s.WinRate()*100, 1) + "%",
			prize,
		}
		if i == 0 && s.Wins > 0 {
			pdf.SetFont("Times", "B", fontSize)
		}
		pdf.SetXY(x0, y)
		for j, c := range columns {
			pdf.CellFormat(c.width, rowH, tr(cells[j]), "B", 0, c.align, false, 0, "")
		}
		pdf.SetFont("Times", "", fontSize)
		y += rowH
	}
	return y
}

func drawRecent(pdf *gofpdf.Fpdf, tr func(string) string, y float64, recent []store.RecentMatch) {
	x0 := float64(margin) + 10
	pdf.SetFont("Times", "B", fontSize+3)
	pdf.SetXY(x0, y)
	pdf.CellFormat(totalWidth(), 16, tr("Últimas batallas"), "", 0, "L", false, 0, "")
	y += 22

	// Dashed red trail down the list, like a route on a map.
	if len(recent) > 1 {
		pdf.SetDrawColor(180, 40, 40)
		pdf.SetLineWidth(1.5)
		pdf.SetDashPattern([]float64{6, 4}, 0)
		pdf.Line(x0+6, y+6, x0+6, y+6+float64(len(recent)-1)*rowH)
		pdf.SetDashPattern([]float64{}, 0)
		pdf.SetLineWidth(1)
		pdf.SetDrawColor(80, 50, 30)
	}

	pdf.SetFont("Times", "", fontSize)
	for _, m := range recent {
		if y > pageH-margin-rowH {
			break
		}
		drawCrossedSwords(pdf, x0+6, y+6, 5)
		line := fmt.Sprintf("%s  %s, victoria de %s (%s)", m.Date.Format("02/01/2006"), m.Game, m.Winner, m.WinType)
		pdf.SetXY(x0+18, y)
		pdf.CellFormat(totalWidth()-18, 12, tr(line), "", 0, "L", false, 0, "")
		y += rowH
	}
}

func totalWidth() float64 {
	w := 0.0
	for _, c := range columns {
		w += c.width
	}
	return w
}

// drawWavyBorder draws the tattered black edge of the scroll.
func drawWavyBorder(pdf *gofpdf.Fpdf) {
	pts := wavyRectPoints(margin, margin, pageW-2*margin, pageH-2*margin, 14, 4)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(2)
	pdf.Polygon(pts, "D")
	pdf.SetLineWidth(1)
	pdf.SetDrawColor(80, 50, 30)
}

// wavyRectPoints returns polygon points for a rectangle whose sides wobble
// sinusoidally.
func wavyRectPoints(x, y, w, h float64, steps int, amp float64) []gofpdf.PointType {
	pts := make([]gofpdf.PointType, 0, steps*4+1)
	side := func(x0, y0, dx, dy, fx, fy float64, from int) {
		for i := from; i <= steps; i++ {
			t := float64(i) / float64(steps)
			pts = append(pts, gofpdf.PointType{
				X: x0 + t*dx + amp*math.Sin(float64(i)*fx),
				Y: y0 + t*dy + amp*math.Cos(float64(i)*fy),
			})
		}
	}
	side(x, y, w, 0, 0.7, 0.5, 0)
	side(x+w, y, 0, h, 0.6, 0.4, 1)
	side(x+w, y+h, -w, 0, 0.8, 0.3, 1)
	side(x, y+h, 0, -h, 0.5, 0.6, 1)
	return pts
}

// drawSeal draws a red wax seal with a scalloped rim and a crown mark.
func drawSeal(pdf *gofpdf.Fpdf, cx, cy float64) {
	pdf.SetFillColor(150, 30, 30)
	pdf.SetDrawColor(110, 20, 20)
	const lobes = 12
	pts := make([]gofpdf.PointType, 0, lobes*2)
	for i := 0; i < lobes*2; i++ {
		a := float64(i) * math.Pi / lobes
		r := sealR
		if i%2 == 1 {
			r = sealR - 3
		}
		pts = append(pts, gofpdf.PointType{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)})
	}
	pdf.Polygon(pts, "FD")
	pdf.SetDrawColor(230, 190, 120)
	pdf.SetLineWidth(1.2)
	pdf.Circle(cx, cy, sealR-8, "D")

	// Crown: three points over a band
	w := sealR - 10
	pdf.Line(cx-w/2, cy+4, cx+w/2, cy+4)
	pdf.Line(cx-w/2, cy+4, cx-w/2, cy-6)
	pdf.Line(cx-w/2, cy-6, cx-w/4, cy)
	pdf.Line(cx-w/4, cy, cx, cy-8)
	pdf.Line(cx, cy-8, cx+w/4, cy)
	pdf.Line(cx+w/4, cy, cx+w/2, cy-6)
	pdf.Line(cx+w/2, cy-6, cx+w/2, cy+4)
	pdf.SetLineWidth(1)
	pdf.SetDrawColor(80, 50, 30)
}

func drawCrossedSwords(pdf *gofpdf.Fpdf, x, y, r float64) {
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(1.2)
	pdf.Line(x-r, y-r, x+r, y+r)
	pdf.Line(x-r, y+r, x+r, y-r)
	pdf.SetLineWidth(1)
	pdf.SetDrawColor(80, 50, 30)
}
