package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	"github.com/okumurakoki/contractguard-sub001/config"
	jetai "go.jetify.com/ai"
	jetapi "go.jetify.com/ai/api"
	jetopenai "go.jetify.com/ai/provider/openai"
)

// AnalysisResult is the wire contract shared with the model and with
// handler-level callers.
type AnalysisResult struct {
	RiskLevel    string                `json:"riskLevel"`
	OverallScore int                   `json:"overallScore"`
	Summary      string                `json:"summary"`
	Risks        []RiskFinding         `json:"risks"`
	Checklist    []ChecklistItemResult `json:"checklist"`
}

// RiskFinding is one detected risk in the model's assessment.
type RiskFinding struct {
	RiskType      string `json:"riskType"`
	RiskLevel     string `json:"riskLevel"`
	SectionTitle  string `json:"sectionTitle"`
	OriginalText  string `json:"originalText"`
	SuggestedText string `json:"suggestedText"`
	Reason        string `json:"reason"`
	LegalBasis    string `json:"legalBasis"`
}

// ChecklistItemResult is one compliance checklist entry.
type ChecklistItemResult struct {
	Item    string `json:"item"`
	Checked bool   `json:"checked"`
	Note    string `json:"note,omitempty"`
}

// Engine produces a structured risk assessment for contract text.
// Implementations must not persist anything; the caller owns persistence.
type Engine interface {
	Analyze(ctx context.Context, contractText, contractType string) (*AnalysisResult, error)
	Model() string
}

// EngineKind names the strategy chosen for one analysis run.
type EngineKind int

const (
	EngineReal EngineKind = iota
	EngineMock
)

// ChooseEngine decides real vs mock analysis once per call. Pure function:
// mock wins when there is no credential, when the mock flag forces it, or
// when extraction produced nothing worth sending to a model.
func ChooseEngine(hasCredential, forceMock, extractionValid bool) EngineKind {
	if forceMock || !hasCredential || !extractionValid {
		return EngineMock
	}
	return EngineReal
}

// AIEngine runs the risk assessment against a language model with a strict
// JSON response contract.
type AIEngine struct {
	model   jetapi.LanguageModel
	modelID string
	timeout time.Duration
}

// NewAIEngine builds the model client once; reused across calls.
func NewAIEngine(cfg *config.AIConfig) (*AIEngine, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("AI api key is empty")
	}

	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(apiKey),
		openaioption.WithMaxRetries(0),
	}
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		opts = append(opts, openaioption.WithBaseURL(strings.TrimRight(endpoint, "/")))
	}

	client := openaiclient.NewClient(opts...)
	model := jetopenai.NewLanguageModel(cfg.Model, jetopenai.WithClient(client))

	return &AIEngine{
		model:   model,
		modelID: cfg.Model,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}, nil
}

func (e *AIEngine) Model() string { return e.modelID }

// Analyze sends the contract text to the model and parses the structured
// result. Transport and timeout failures map to ErrAnalysisFailed; a
// response without a parsable JSON object maps to ErrAnalysisParseError.
// This engine never substitutes mock output on its own.
func (e *AIEngine) Analyze(ctx context.Context, contractText, contractType string) (*AnalysisResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	messages := []jetapi.Message{
		&jetapi.SystemMessage{Content: analysisSystemPrompt},
		&jetapi.UserMessage{Content: jetapi.ContentFromText(buildAnalysisPrompt(contractText, contractType))},
	}

	resp, err := jetai.GenerateText(
		ctx,
		messages,
		jetai.WithModel(e.model),
		jetai.WithMaxOutputTokens(4096),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}

	raw, err := textFromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}

	return parseAnalysisResponse(raw)
}

func textFromResponse(resp *jetapi.Response) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("empty response from AI")
	}

	var full strings.Builder
	for _, block := range resp.Content {
		textBlock, ok := block.(*jetapi.TextBlock)
		if !ok || textBlock.Text == "" {
			continue
		}
		full.WriteString(textBlock.Text)
	}

	text := full.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty response from AI")
	}
	return text, nil
}

// parseAnalysisResponse extracts the first balanced JSON object from the
// raw model output (models sometimes wrap it in prose) and validates the
// schema invariants.
func parseAnalysisResponse(raw string) (*AnalysisResult, error) {
	obj, ok := extractFirstJSON(raw)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrAnalysisParseError)
	}

	var result AnalysisResult
	if err := json.Unmarshal([]byte(obj), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysisParseError, err)
	}

	if err := validateAnalysisResult(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysisParseError, err)
	}

	return &result, nil
}

// extractFirstJSON scans for the first balanced {...} object, tracking
// string and escape state so braces inside string values don't confuse the
// balance count.
func extractFirstJSON(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return raw[start : i+1], true
				}
			}
		}
	}

	return "", false
}

func validateAnalysisResult(r *AnalysisResult) error {
	r.RiskLevel = strings.ToLower(strings.TrimSpace(r.RiskLevel))
	if !isRiskLevel(r.RiskLevel) {
		return fmt.Errorf("invalid riskLevel %q", r.RiskLevel)
	}
	if r.OverallScore < 0 || r.OverallScore > 100 {
		return fmt.Errorf("overallScore %d out of range", r.OverallScore)
	}
	for i := range r.Risks {
		r.Risks[i].RiskLevel = strings.ToLower(strings.TrimSpace(r.Risks[i].RiskLevel))
		if !isRiskLevel(r.Risks[i].RiskLevel) {
			return fmt.Errorf("invalid risk item level %q", r.Risks[i].RiskLevel)
		}
	}
	if len(r.Summary) > 400 {
		r.Summary = truncateRunes(r.Summary, 200)
	}
	return nil
}

func isRiskLevel(level string) bool {
	return level == "high" || level == "medium" || level == "low"
}
