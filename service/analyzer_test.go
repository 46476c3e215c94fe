package service

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/okumurakoki/contractguard-sub001/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memBlobStore keeps objects in a map; good enough to drive the pipeline.
type memBlobStore struct {
	objects map[string][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{objects: map[string][]byte{}}
}

func (m *memBlobStore) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.objects[objectName] = data
	return nil
}

func (m *memBlobStore) Download(ctx context.Context, objectName string) ([]byte, error) {
	data, ok := m.objects[objectName]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

func (m *memBlobStore) PresignedURL(ctx context.Context, objectName string, ttl time.Duration) (string, error) {
	return "http://blobs.test/" + objectName, nil
}

func (m *memBlobStore) Delete(ctx context.Context, objectName string) error {
	delete(m.objects, objectName)
	return nil
}

// stubEngine returns a canned result or error, recording what it was given.
type stubEngine struct {
	result   *AnalysisResult
	err      error
	gotText  string
	modelID  string
	numCalls int
}

func (e *stubEngine) Analyze(ctx context.Context, contractText, contractType string) (*AnalysisResult, error) {
	e.numCalls++
	e.gotText = contractText
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

func (e *stubEngine) Model() string {
	if e.modelID == "" {
		return "stub"
	}
	return e.modelID
}

type analyzerFixture struct {
	svc       *AnalysisService
	blobs     *memBlobStore
	contracts *ContractStore
	reviews   *ReviewStore
	db        *gorm.DB
}

func newAnalyzerFixture(t *testing.T, real Engine, forceMock bool) analyzerFixture {
	t.Helper()
	db := newTestDB(t)
	blobs := newMemBlobStore()
	contracts := NewContractStore(db)
	reviews := NewReviewStore(db)
	svc := NewAnalysisService(contracts, reviews, blobs, real, NewAuditor(db), forceMock)
	return analyzerFixture{svc: svc, blobs: blobs, contracts: contracts, reviews: reviews, db: db}
}

func (f analyzerFixture) uploadedContract(t *testing.T, body []byte) *model.Contract {
	t.Helper()
	contract := &model.Contract{
		OrganizationID: "org-a",
		UploaderName:   "tester",
		FileName:       "agreement.txt",
		FilePath:       "org-a/agreement.txt",
		FileType:       "text/plain",
		Title:          "service agreement",
		Status:         model.StatusAnalyzing,
	}
	require.NoError(t, f.contracts.Create(context.Background(), contract))
	f.blobs.objects[contract.FilePath] = body
	return contract
}

func TestAnalyzeContractRealEngine(t *testing.T) {
	real := &stubEngine{
		modelID: "gpt-4o-mini",
		result: sampleResult(model.RiskHigh, 70,
			RiskFinding{RiskType: "liability", RiskLevel: model.RiskHigh, Reason: "uncapped"},
		),
	}
	f := newAnalyzerFixture(t, real, false)
	ctx := context.Background()

	body := []byte(strings.Repeat("The supplier shall indemnify the customer without limit. ", 4))
	contract := f.uploadedContract(t, body)

	outcome, err := f.svc.AnalyzeContract(ctx, "org-a", contract.ID, "alice")
	require.NoError(t, err)
	require.False(t, outcome.IsMockAnalysis)
	require.Equal(t, 1, real.numCalls)
	require.Equal(t, string(body), real.gotText)
	require.Contains(t, outcome.ContentHTML, "<p>")
	require.Equal(t, "gpt-4o-mini", outcome.Review.AIModel)

	// Pipeline persisted the review and completed the contract
	updated, err := f.contracts.Get(ctx, "org-a", contract.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusCompleted, updated.Status)

	// And left an audit trail
	entries, err := NewAuditor(f.db).Recent(ctx, "org-a", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "contract.analyze", entries[0].Action)
	require.Equal(t, contract.ID, entries[0].ResourceID)
}

func TestAnalyzeContractFallsBackOnGarbageBlob(t *testing.T) {
	real := &stubEngine{result: sampleResult(model.RiskLow, 5)}
	f := newAnalyzerFixture(t, real, false)
	ctx := context.Background()

	// Unreadable binary: no magic bytes, NUL-heavy, and no text content type
	// to rescue it. Extraction fails outright and the pipeline recovers.
	contract := &model.Contract{
		OrganizationID: "org-a",
		FileName:       "scan.pdf",
		FilePath:       "org-a/scan.pdf",
		FileType:       "application/octet-stream",
		Status:         model.StatusAnalyzing,
	}
	require.NoError(t, f.contracts.Create(ctx, contract))
	f.blobs.objects[contract.FilePath] = bytes.Repeat([]byte{0x00, 0xC3, 0x07}, 200)

	outcome, err := f.svc.AnalyzeContract(ctx, "org-a", contract.ID, "alice")
	require.NoError(t, err)
	require.True(t, outcome.IsMockAnalysis)
	require.Zero(t, real.numCalls)
	require.Empty(t, outcome.ContentHTML)
	require.True(t, outcome.Review.IsMock)

	// Mock outcome still satisfies the result schema
	require.NoError(t, validateAnalysisResult(outcome.Result))
}

func TestAnalyzeContractFallsBackOnShortText(t *testing.T) {
	real := &stubEngine{result: sampleResult(model.RiskLow, 5)}
	f := newAnalyzerFixture(t, real, false)

	// Extracts fine but is too short to be a real contract
	contract := f.uploadedContract(t, []byte("ok"))

	outcome, err := f.svc.AnalyzeContract(context.Background(), "org-a", contract.ID, "alice")
	require.NoError(t, err)
	require.True(t, outcome.IsMockAnalysis)
	require.Zero(t, real.numCalls)
}

func TestAnalyzeContractForceMock(t *testing.T) {
	real := &stubEngine{result: sampleResult(model.RiskLow, 5)}
	f := newAnalyzerFixture(t, real, true)

	contract := f.uploadedContract(t,
		[]byte(strings.Repeat("A perfectly analyzable contract clause. ", 4)))

	outcome, err := f.svc.AnalyzeContract(context.Background(), "org-a", contract.ID, "alice")
	require.NoError(t, err)
	require.True(t, outcome.IsMockAnalysis)
	require.Zero(t, real.numCalls)
	// Readable text still renders even when the mock engine runs
	require.Contains(t, outcome.ContentHTML, "<p>")
}

func TestAnalyzeContractNoRealEngine(t *testing.T) {
	f := newAnalyzerFixture(t, nil, false)

	contract := f.uploadedContract(t,
		[]byte(strings.Repeat("A perfectly analyzable contract clause. ", 4)))

	outcome, err := f.svc.AnalyzeContract(context.Background(), "org-a", contract.ID, "alice")
	require.NoError(t, err)
	require.True(t, outcome.IsMockAnalysis)
	require.Equal(t, "mock", outcome.Review.AIModel)
}

func TestAnalyzeContractEngineErrorSurfaces(t *testing.T) {
	real := &stubEngine{err: ErrAnalysisFailed}
	f := newAnalyzerFixture(t, real, false)
	ctx := context.Background()

	contract := f.uploadedContract(t,
		[]byte(strings.Repeat("A perfectly analyzable contract clause. ", 4)))

	_, err := f.svc.AnalyzeContract(ctx, "org-a", contract.ID, "alice")
	require.ErrorIs(t, err, ErrAnalysisFailed)

	// No review persisted, status unchanged
	_, _, err = f.reviews.GetReview(ctx, "org-a", contract.ID)
	require.ErrorIs(t, err, ErrNotFound)

	got, err := f.contracts.Get(ctx, "org-a", contract.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusAnalyzing, got.Status)
}

func TestAnalyzeContractUnknownContract(t *testing.T) {
	f := newAnalyzerFixture(t, nil, false)

	_, err := f.svc.AnalyzeContract(context.Background(), "org-a", "no-such-id", "alice")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAnalyzeContractMissingBlob(t *testing.T) {
	f := newAnalyzerFixture(t, nil, false)
	ctx := context.Background()

	contract := &model.Contract{
		OrganizationID: "org-a",
		FileName:       "gone.txt",
		FilePath:       "org-a/gone.txt",
		FileType:       "text/plain",
		Status:         model.StatusAnalyzing,
	}
	require.NoError(t, f.contracts.Create(ctx, contract))

	_, err := f.svc.AnalyzeContract(ctx, "org-a", contract.ID, "alice")
	require.ErrorIs(t, err, ErrNotFound)
}
