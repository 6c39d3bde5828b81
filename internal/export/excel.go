// Package export renders issuer-facing artifacts: the ranked-proposal
// workbook and the contract summary document.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/yeiden10/licitaph-sub000/internal/model"
)

type RankingExcel struct{}

func NewRankingExcel() *RankingExcel {
	return &RankingExcel{}
}

func (g *RankingExcel) Generate(sol model.Solicitation, ranking model.Ranking) ([]byte, error) {
	file := excelize.NewFile()

	sheet := "Ranking"
	file.SetSheetName("Sheet1", sheet)

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Solicitation")
	set("B1", sol.Title)
	set("A2", "Category")
	set("B2", sol.Category)
	set("A3", "Closing instant")
	set("B3", formatInstant(sol.ClosingAt))
	set("A4", "State")
	set("B4", string(sol.State))
	set("A5", "Proposals")
	set("B5", len(ranking.Proposals))
	if ranking.Unscored > 0 {
		set("A6", "Unscored (evaluator unavailable)")
		set("B6", ranking.Unscored)
	}

	headerRow := 8
	headers := []string{"Rank", "Proposal ID", "Annual price", "Modality", "Submitted at",
		"Price", "Experience", "Technical", "Documentation", "Reputation", "Total", "State"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		set(cell, header)
	}

	for i, ranked := range ranking.Proposals {
		row := headerRow + 1 + i
		p := ranked.Proposal
		values := []interface{}{
			ranked.Rank,
			p.ID.String(),
			p.AnnualPrice,
			string(p.Modality),
			formatInstant(p.SubmittedAt),
		}
		if p.Score != nil {
			values = append(values,
				p.Score.PriceScore, p.Score.ExperienceScore, p.Score.TechnicalScore,
				p.Score.DocumentationScore, p.Score.ReputationScore, p.Score.Total)
		} else {
			values = append(values, "-", "-", "-", "-", "-", "-")
		}
		values = append(values, string(p.State))

		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			set(cell, value)
		}
	}

	_ = file.SetColWidth(sheet, "A", "A", 8)
	_ = file.SetColWidth(sheet, "B", "B", 40)
	_ = file.SetColWidth(sheet, "C", "E", 18)

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatInstant(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05 MST")
}
