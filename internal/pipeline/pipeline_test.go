package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/pdfsummary/internal/identity"
	"github.com/dropDatabas3/pdfsummary/internal/store"
	"github.com/dropDatabas3/pdfsummary/internal/summarizer"
)

type fakeExtractor struct {
	calls int
	url   string
	text  string
	err   error
}

func (f *fakeExtractor) Extract(_ context.Context, url string) (string, error) {
	f.calls++
	f.url = url
	return f.text, f.err
}

type fakeSummarizer struct {
	calls int
	input string
	res   summarizer.Result
	err   error
}

func (f *fakeSummarizer) Summarize(_ context.Context, text string) (summarizer.Result, error) {
	f.calls++
	f.input = text
	return f.res, f.err
}

type fakePersister struct {
	saves []store.SummaryRecord
	ok    bool
	err   error
	rows  []store.SummaryView
	limit int
}

func (f *fakePersister) Save(_ context.Context, rec store.SummaryRecord) (bool, error) {
	f.saves = append(f.saves, rec)
	return f.ok, f.err
}

func (f *fakePersister) List(_ context.Context, _ string, limit int) ([]store.SummaryView, error) {
	f.limit = limit
	return f.rows, f.err
}

type stageRec struct {
	stages []string
}

func (s *stageRec) ObserveStage(stage string, success bool, _ time.Duration) {
	mark := "+"
	if !success {
		mark = "-"
	}
	s.stages = append(s.stages, mark+stage)
}

type harness struct {
	ext *fakeExtractor
	sum *fakeSummarizer
	db  *fakePersister
	obs *stageRec
	p   *Pipeline
}

func newHarness() *harness {
	h := &harness{
		ext: &fakeExtractor{text: "Lorem ipsum..."},
		sum: &fakeSummarizer{res: summarizer.Result{Success: true, Summary: "# Title\n..."}},
		db:  &fakePersister{ok: true},
		obs: &stageRec{},
	}
	h.p = New(Options{Extractor: h.ext, Summarizer: h.sum, Persister: h.db, Observer: h.obs})
	return h
}

func upload() *UploadResult {
	return &UploadResult{ExternalUserID: "user_1", File: UploadedFile{URL: "https://x/doc.pdf", Name: "doc.pdf"}}
}

func TestSummarize_EndToEnd(t *testing.T) {
	h := newHarness()

	res := h.p.Summarize(context.Background(), upload())
	require.True(t, res.Success)
	require.Equal(t, MsgSummaryOK, res.Message)
	require.NoError(t, res.Err)
	require.Equal(t, SummaryData{Summary: "# Title\n...", Title: "Doc", FileName: "doc.pdf"}, *res.Data)

	require.Equal(t, "https://x/doc.pdf", h.ext.url)
	require.Equal(t, "Lorem ipsum...", h.sum.input)
	require.Empty(t, h.db.saves)
	require.Equal(t, []string{"+extract", "+summarize"}, h.obs.stages)
}

func TestSummarize_EnvelopeJSON(t *testing.T) {
	h := newHarness()
	b, err := json.Marshal(h.p.Summarize(context.Background(), upload()))
	require.NoError(t, err)
	require.JSONEq(t, `{"success":true,"message":"Summary generated successfully","data":{"summary":"# Title\n...","title":"Doc","fileName":"doc.pdf"}}`, string(b))

	h.sum.err = errors.New("boom")
	b, err = json.Marshal(h.p.Summarize(context.Background(), upload()))
	require.NoError(t, err)
	require.JSONEq(t, `{"success":false,"message":"Failed to generate summary","data":null}`, string(b))
}

func TestSummarize_InvalidUploadMakesNoCalls(t *testing.T) {
	cases := map[string]*UploadResult{
		"nil":    nil,
		"empty":  {},
		"no url": {ExternalUserID: "u", File: UploadedFile{Name: "a.pdf"}},
		"blank":  {ExternalUserID: "u", File: UploadedFile{URL: "   ", Name: "a.pdf"}},
	}
	for name, up := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness()
			res := h.p.Summarize(context.Background(), up)
			require.False(t, res.Success)
			require.Equal(t, MsgUploadFailed, res.Message)
			require.Nil(t, res.Data)
			require.Equal(t, StageValidate, StageOf(res.Err))
			require.Zero(t, h.ext.calls)
			require.Zero(t, h.sum.calls)
		})
	}
}

func TestSummarize_ExtractionFailure(t *testing.T) {
	h := newHarness()
	boom := errors.New("404")
	h.ext.err = boom

	res := h.p.Summarize(context.Background(), upload())
	require.False(t, res.Success)
	require.Equal(t, MsgSummaryFailed, res.Message)
	require.Nil(t, res.Data)
	require.Equal(t, StageExtract, StageOf(res.Err))
	require.ErrorIs(t, res.Err, boom)
	require.Zero(t, h.sum.calls)
	require.Equal(t, []string{"-extract"}, h.obs.stages)
}

func TestSummarize_SummarizerThrows(t *testing.T) {
	h := newHarness()
	h.sum.err = errors.New("provider down")

	res := h.p.Summarize(context.Background(), upload())
	require.False(t, res.Success)
	require.Equal(t, MsgSummaryFailed, res.Message)
	require.Nil(t, res.Data)
	require.Equal(t, StageSummarize, StageOf(res.Err))
	require.Empty(t, h.db.saves)
}

func TestSummarize_SummarizerReportsFailure(t *testing.T) {
	h := newHarness()
	h.sum.res = summarizer.Result{Success: false, Error: "missing key"}

	res := h.p.Summarize(context.Background(), upload())
	require.False(t, res.Success)
	require.Equal(t, MsgSummaryFailed, res.Message)
	require.ErrorIs(t, res.Err, ErrSummaryRejected)
	require.Contains(t, res.Err.Error(), "missing key")
}

func TestSummarize_SummarizerPanics(t *testing.T) {
	h := newHarness()
	h.p.summarizer = summarizer.Func(func(context.Context, string) (summarizer.Result, error) {
		panic("nil client")
	})

	res := h.p.Summarize(context.Background(), upload())
	require.False(t, res.Success)
	require.Equal(t, StageSummarize, StageOf(res.Err))
}

func TestSummarize_Truncates(t *testing.T) {
	h := newHarness()
	h.p.maxChars = 100
	h.ext.text = strings.Repeat("a", 150)

	h.p.Summarize(context.Background(), upload())
	require.Equal(t, strings.Repeat("a", 100)+summarizer.TruncationMarker, h.sum.input)

	h.ext.text = strings.Repeat("b", 99)
	h.p.Summarize(context.Background(), upload())
	require.Equal(t, strings.Repeat("b", 99), h.sum.input)
}

func TestSummarize_PrefersSummarizerTitle(t *testing.T) {
	h := newHarness()
	h.sum.res.Title = "From Model"

	res := h.p.Summarize(context.Background(), upload())
	require.Equal(t, "From Model", res.Data.Title)
}

func TestPersist_RequiresIdentity(t *testing.T) {
	h := newHarness()
	res := h.p.Persist(context.Background(), "", SaveRequest{Summary: "s", FileURL: "u"})
	require.False(t, res.Success)
	require.Equal(t, MsgNotAuthenticated, res.Message)
	require.Nil(t, res.Data)
	require.ErrorIs(t, res.Err, ErrNotAuthenticated)
	require.Empty(t, h.db.saves)
}

func TestPersist_OK(t *testing.T) {
	h := newHarness()
	res := h.p.Persist(context.Background(), "user_1", SaveRequest{
		Summary: "# Doc", FileURL: "https://x/doc.pdf", Title: "Doc", FileName: "doc.pdf",
	})
	require.True(t, res.Success)
	require.Equal(t, MsgSavedOK, res.Message)
	require.Equal(t, SavedData{Saved: true, Title: "Doc"}, *res.Data)

	require.Len(t, h.db.saves, 1)
	rec := h.db.saves[0]
	require.Equal(t, identity.Map("user_1"), rec.InternalUserID)
	require.Equal(t, "user_1", rec.ExternalUserID)
	require.Equal(t, "https://x/doc.pdf", rec.FileURL)
}

func TestPersist_DerivesMissingTitle(t *testing.T) {
	h := newHarness()
	res := h.p.Persist(context.Background(), "user_1", SaveRequest{
		Summary: "# Doc", FileURL: "https://x/q.pdf", FileName: "quarterly_report-2024.pdf",
	})
	require.Equal(t, "Quarterly Report 2024", res.Data.Title)
}

func TestPersist_SurfacesAdapterError(t *testing.T) {
	h := newHarness()
	h.db.ok = false
	h.db.err = errors.New("Failed to save PDF summary: connection refused")

	res := h.p.Persist(context.Background(), "user_1", SaveRequest{Summary: "s", FileURL: "u"})
	require.False(t, res.Success)
	require.Equal(t, "Failed to save PDF summary: connection refused", res.Message)
	require.Nil(t, res.Data)
	require.Equal(t, StagePersist, StageOf(res.Err))
}

func TestPersist_FalseWithoutError(t *testing.T) {
	h := newHarness()
	h.db.ok = false

	res := h.p.Persist(context.Background(), "user_1", SaveRequest{Summary: "s", FileURL: "u"})
	require.False(t, res.Success)
	require.True(t, strings.HasPrefix(res.Message, "Failed to save PDF summary: "))
	require.ErrorIs(t, res.Err, store.ErrNoRows)
}

func TestList(t *testing.T) {
	h := newHarness()
	now := time.Now()
	h.db.rows = []store.SummaryView{{ID: "1", Title: "A", SummaryText: "# A", CreatedAt: now}}

	res := h.p.List(context.Background(), "user_1", 0)
	require.True(t, res.Success)
	require.Equal(t, DefaultListLimit, h.db.limit)
	require.Len(t, *res.Data, 1)
	require.Equal(t, "# A", (*res.Data)[0].Summary)

	h.p.List(context.Background(), "user_1", 10_000)
	require.Equal(t, MaxListLimit, h.db.limit)

	res = h.p.List(context.Background(), "", 5)
	require.Equal(t, MsgNotAuthenticated, res.Message)
}

func TestList_EmptyIsNotNull(t *testing.T) {
	h := newHarness()
	b, err := json.Marshal(h.p.List(context.Background(), "user_1", 5))
	require.NoError(t, err)
	require.Contains(t, string(b), `"data":[]`)
}
