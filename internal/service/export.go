package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yeiden10/licitaph-sub000/internal/model"
)

type RankingExporter interface {
	Generate(sol model.Solicitation, ranking model.Ranking) ([]byte, error)
}

type ContractExporter interface {
	Generate(sol model.Solicitation, contract model.Contract, status model.ContractStatus) ([]byte, error)
}

type ExportResult struct {
	FileName string
	Content  []byte
}

// ExportRanking renders the ranked proposal list as a workbook. It goes
// through ListProposals, so the gate and the lazy transition apply exactly
// as for a plain read.
func (s *Service) ExportRanking(ctx context.Context, principal model.Principal, solicitationID uuid.UUID) (*ExportResult, error) {
	ranking, err := s.ListProposals(ctx, principal, solicitationID, false)
	if err != nil {
		return nil, err
	}
	sol, err := s.store.GetSolicitation(ctx, solicitationID)
	if err != nil {
		return nil, err
	}

	content, err := s.excel.Generate(*sol, *ranking)
	if err != nil {
		return nil, err
	}

	name := sanitizeFileName(sol.Title)
	if name == "" {
		name = sol.ID.String()
	}
	return &ExportResult{
		FileName: fmt.Sprintf("proposals-%s-%s.xlsx", name, s.clock.Now().Format("20060102")),
		Content:  content,
	}, nil
}

// ContractDocument renders the contract summary PDF with the same
// visibility rules as GetContract.
func (s *Service) ContractDocument(ctx context.Context, principal model.Principal, contractID uuid.UUID) (*ExportResult, error) {
	view, err := s.GetContract(ctx, principal, contractID)
	if err != nil {
		return nil, err
	}
	sol, err := s.store.GetSolicitation(ctx, view.Contract.SolicitationID)
	if err != nil {
		return nil, err
	}

	content, err := s.pdf.Generate(*sol, view.Contract, view.Status)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: fmt.Sprintf("contract-%s.pdf", view.Contract.ID),
		Content:  content,
	}, nil
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
