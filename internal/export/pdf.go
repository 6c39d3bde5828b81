package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/yeiden10/licitaph-sub000/internal/model"
)

type ContractPDF struct{}

func NewContractPDF() *ContractPDF {
	return &ContractPDF{}
}

// Generate renders the contract summary for the issuer or the winning
// bidder. Internal notes are expected to be stripped by the caller for the
// bidder side; this renderer prints whatever it is given.
func (g *ContractPDF) Generate(sol model.Solicitation, contract model.Contract, status model.ContractStatus) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, "Service Contract Summary", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Contract %s", contract.ID), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Solicitation: %s", sol.Title), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	section(pdf, "Parties")
	line(pdf, fmt.Sprintf("Issuer organization: %s", contract.IssuerOrgID))
	line(pdf, fmt.Sprintf("Provider organization: %s", contract.BidderOrgID))
	line(pdf, fmt.Sprintf("Winning proposal: %s", contract.WinningProposalID))
	pdf.Ln(2)

	section(pdf, "Terms")
	line(pdf, fmt.Sprintf("Start date: %s", formatDate(contract.Terms.StartDate)))
	if contract.Terms.EndDate != nil {
		line(pdf, fmt.Sprintf("End date: %s", formatDate(*contract.Terms.EndDate)))
	}
	line(pdf, fmt.Sprintf("Payment modality: %s", contract.Terms.Modality))
	line(pdf, fmt.Sprintf("Breach penalty: %.2f%%", contract.Terms.PenaltyPercentage))
	if strings.TrimSpace(contract.Terms.SpecialConditions) != "" {
		pdf.Ln(1)
		section(pdf, "Special conditions")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, contract.Terms.SpecialConditions, "", "L", false)
	}
	if strings.TrimSpace(contract.Terms.InternalNotes) != "" {
		pdf.Ln(1)
		section(pdf, "Internal notes")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, contract.Terms.InternalNotes, "", "L", false)
	}
	pdf.Ln(2)

	section(pdf, "Status")
	line(pdf, fmt.Sprintf("Operational status: %s", status))
	ack := "pending bidder acceptance"
	if contract.AckState == model.AckStateAcceptedByBidder {
		ack = "accepted by bidder"
		if contract.AcknowledgedAt != nil {
			ack = fmt.Sprintf("accepted by bidder on %s", formatDate(*contract.AcknowledgedAt))
		}
	}
	line(pdf, fmt.Sprintf("Acknowledgement: %s", ack))
	line(pdf, fmt.Sprintf("Created: %s", formatDate(contract.CreatedAt)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
}

func line(pdf *gofpdf.Fpdf, text string) {
	pdf.CellFormat(0, 6, text, "", 1, "L", false, 0, "")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02")
}
