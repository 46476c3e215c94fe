package service

import "context"

// MockEngine produces a deterministic placeholder assessment. Used when no
// model credential is configured, when mock mode is forced, or when
// extraction yielded nothing a model could work with.
type MockEngine struct{}

func NewMockEngine() *MockEngine { return &MockEngine{} }

func (e *MockEngine) Model() string { return "mock" }

// Analyze returns a fixed, structurally valid result set. Stable across
// calls so downstream consumers can rely on the schema invariants.
func (e *MockEngine) Analyze(ctx context.Context, contractText, contractType string) (*AnalysisResult, error) {
	label := contractType
	if label == "" {
		label = "general"
	}

	return &AnalysisResult{
		RiskLevel:    "medium",
		OverallScore: 62,
		Summary:      "Automated sample review (" + label + "): liability and termination clauses need attention before signature.",
		Risks: []RiskFinding{
			{
				RiskType:      "liability",
				RiskLevel:     "high",
				SectionTitle:  "Limitation of Liability",
				OriginalText:  "Party B shall bear unlimited liability for any damages arising from this agreement.",
				SuggestedText: "Each party's aggregate liability under this agreement shall not exceed the total fees paid in the preceding twelve months.",
				Reason:        "Unlimited liability exposes the company to losses far beyond the contract value.",
				LegalBasis:    "Civil Code Art. 506: clauses excluding liability for intentional acts or gross negligence are void; caps are the market norm.",
			},
			{
				RiskType:      "termination",
				RiskLevel:     "medium",
				SectionTitle:  "Term and Termination",
				OriginalText:  "Party A may terminate this agreement at any time without notice.",
				SuggestedText: "Either party may terminate this agreement with thirty (30) days prior written notice.",
				Reason:        "Unilateral termination without notice leaves no time to wind down obligations.",
				LegalBasis:    "Civil Code Art. 563: termination conditions should be reciprocal and reasonable.",
			},
			{
				RiskType:      "payment",
				RiskLevel:     "low",
				SectionTitle:  "Payment Terms",
				OriginalText:  "Payment shall be made within 90 days of invoice.",
				SuggestedText: "Payment shall be made within 30 days of invoice; overdue amounts accrue interest at 0.05% per day.",
				Reason:        "A 90-day cycle strains cash flow and has no late-payment remedy.",
				LegalBasis:    "Standard commercial practice: 30-day terms with a late-fee clause.",
			},
		},
		Checklist: []ChecklistItemResult{
			{Item: "Liability cap present", Checked: false, Note: "No cap found; add one before signing."},
			{Item: "Termination notice period defined", Checked: false, Note: "Unilateral no-notice termination detected."},
			{Item: "IP ownership clarified", Checked: true},
			{Item: "Confidentiality scope and duration defined", Checked: true},
			{Item: "Governing law and venue specified", Checked: true},
		},
	}, nil
}
