// Package evaluator adapts an OpenAI-compatible chat completion API into
// the engine's scoring function. The engine treats any failure here as
// "no score available"; nothing in this package is load-bearing for
// correctness of the lifecycle.
package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/yeiden10/licitaph-sub000/internal/config"
	"github.com/yeiden10/licitaph-sub000/internal/model"
)

type OpenAI struct {
	client  *openai.Client
	model   string
	weights config.ScoringWeights
}

func NewOpenAI(cfg config.EvaluatorConfig, weights config.ScoringWeights) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAI{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		weights: weights,
	}
}

func (o *OpenAI) Evaluate(ctx context.Context, proposal model.Proposal, requirements []model.RequirementClause) (model.ScoreComponents, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: o.systemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(proposal, requirements)},
		},
	})
	if err != nil {
		return model.ScoreComponents{}, fmt.Errorf("evaluator call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return model.ScoreComponents{}, fmt.Errorf("evaluator returned no choices")
	}
	return parseComponents(resp.Choices[0].Message.Content)
}

func (o *OpenAI) systemPrompt() string {
	return fmt.Sprintf(`You evaluate sealed procurement proposals for property associations.
Reply with a single JSON object and nothing else, using these keys and maximums:
price_score (0-%.0f), experience_score (0-%.0f), technical_score (0-%.0f), documentation_score (0-%.0f), reputation_score (0-%.0f), rationale (short string).`,
		o.weights.Price, o.weights.Experience, o.weights.Technical, o.weights.Documentation, o.weights.Reputation)
}

func buildPrompt(proposal model.Proposal, requirements []model.RequirementClause) string {
	var b strings.Builder
	b.WriteString("Requirements:\n")
	for _, r := range requirements {
		flag := "optional"
		if r.Mandatory {
			flag = "mandatory"
		}
		fmt.Fprintf(&b, "- [%s] %s: %s\n", flag, r.Title, r.Description)
	}
	fmt.Fprintf(&b, "\nProposal:\nAnnual price: %.2f\nPayment modality: %s\nTechnical narrative:\n%s\n",
		proposal.AnnualPrice, proposal.Modality, proposal.Narrative)
	return b.String()
}

// parseComponents tolerates prose around the JSON object; models do not
// always honor the response format strictly.
func parseComponents(content string) (model.ScoreComponents, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return model.ScoreComponents{}, fmt.Errorf("no JSON object in evaluator reply")
	}
	var components model.ScoreComponents
	if err := json.Unmarshal([]byte(content[start:end+1]), &components); err != nil {
		return model.ScoreComponents{}, fmt.Errorf("decode evaluator reply: %w", err)
	}
	return components, nil
}
