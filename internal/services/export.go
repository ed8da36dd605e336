package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"alfredoptarigan/resume-screener/internal/models"
)

const ExportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var bandFills = map[string]string{
	"green":  "C6EFCE",
	"yellow": "FFEB9C",
	"red":    "FFC7CE",
}

// ExportResults renders the ranked candidates as an xlsx workbook with a summary
// sheet and a color-coded ranking sheet.
func ExportResults(results []models.RankedCandidate, job models.JobDescription, generatedAt time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "Summary"
	candidatesSheet := "Ranked Candidates"

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(candidatesSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	if err := writeSummarySheet(f, summarySheet, results, job, generatedAt); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeCandidatesSheet(f, candidatesSheet, results); err != nil {
		return nil, fmt.Errorf("failed to create ranked candidates sheet: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, sheet string, results []models.RankedCandidate, job models.JobDescription, generatedAt time.Time) error {
	f.SetColWidth(sheet, "A", "A", 25)
	f.SetColWidth(sheet, "B", "B", 60)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	f.SetCellValue(sheet, "A1", "Resume Screening Report")
	f.SetCellStyle(sheet, "A1", "B1", headerStyle)
	f.MergeCell(sheet, "A1", "B1")

	insights := models.ComputeInsights(0, results)
	rows := [][2]interface{}{
		{"Generated:", generatedAt.Format("2006-01-02 15:04:05")},
		{"Job Description:", summarizeJob(job.Text)},
		{"Total Candidates:", len(results)},
		{"Excellent (85+):", insights.BandCounts[models.BandExcellent]},
		{"Good (80-84):", insights.BandCounts[models.BandGood]},
		{"Average (70-79):", insights.BandCounts[models.BandAverage]},
		{"Low (<70):", insights.BandCounts[models.BandLow]},
		{"Average Score:", insights.AverageScore},
	}

	for i, r := range rows {
		row := i + 3
		label := fmt.Sprintf("A%d", row)
		f.SetCellValue(sheet, label, r[0])
		f.SetCellStyle(sheet, label, label, labelStyle)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r[1])
	}
	return nil
}

func writeCandidatesSheet(f *excelize.File, sheet string, results []models.RankedCandidate) error {
	widths := map[string]float64{"A": 8, "B": 25, "C": 30, "D": 18, "E": 20, "F": 12, "G": 10, "H": 12, "I": 45}
	for col, w := range widths {
		f.SetColWidth(sheet, col, col, w)
	}

	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return err
	}

	rowStyles := make(map[string]int, len(bandFills))
	for color, fill := range bandFills {
		style, err := f.NewStyle(&excelize.Style{
			Fill:   excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
			Border: border,
		})
		if err != nil {
			return err
		}
		rowStyles[color] = style
	}

	headers := []string{"Rank", "Candidate", "Email", "Phone", "Location", "Experience", "Score", "Band", "Skills"}
	for col, header := range headers {
		cell := fmt.Sprintf("%s1", string(rune('A'+col)))
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i, c := range results {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), i+1)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), c.Name)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), c.Email)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), c.Phone)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), c.Location)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), c.Experience)
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), c.Score)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), string(c.Band))
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), strings.Join(c.Skills, ", "))

		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("I%d", row), rowStyles[models.ScoreColor(c.Score)])
	}

	if len(results) > 0 {
		f.AutoFilter(sheet, fmt.Sprintf("A1:I%d", len(results)+1), []excelize.AutoFilterOptions{})
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func summarizeJob(text string) string {
	const limit = 200
	text = strings.Join(strings.Fields(text), " ")
	if len([]rune(text)) <= limit {
		return text
	}
	return string([]rune(text)[:limit]) + "..."
}
