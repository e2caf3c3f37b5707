package summarizer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func TestTrimText_PassThrough(t *testing.T) {
	require.Equal(t, "hola", TrimText("hola", 10))
	exact := strings.Repeat("a", 10)
	require.Equal(t, exact, TrimText(exact, 10))
	require.Equal(t, exact, TrimText(exact, 0))
}

func TestTrimText_CutsAtCapAndAppendsMarker(t *testing.T) {
	in := strings.Repeat("x", DefaultMaxInputChars+500)
	out := TrimText(in, DefaultMaxInputChars)
	require.Equal(t, strings.Repeat("x", DefaultMaxInputChars)+TruncationMarker, out)
	require.Equal(t, DefaultMaxInputChars+utf8.RuneCountInString(TruncationMarker), utf8.RuneCountInString(out))
}

func TestTrimText_CountsRunes(t *testing.T) {
	out := TrimText("ñandú ñandú", 5)
	require.Equal(t, "ñandú"+TruncationMarker, out)
}

type fakeGen struct {
	calls int
	got   []llms.MessageContent
	opts  llms.CallOptions
	resp  *llms.ContentResponse
	err   error
}

func (f *fakeGen) GenerateContent(_ context.Context, m []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	f.got = m
	for _, o := range options {
		o(&f.opts)
	}
	return f.resp, f.err
}

func TestGemini_NoAPIKey(t *testing.T) {
	g, err := NewGemini(context.Background(), Config{})
	require.NoError(t, err)

	res, err := g.Summarize(context.Background(), "text")
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, ErrMissingAPIKey.Error(), res.Error)
}

func TestGemini_Success(t *testing.T) {
	f := &fakeGen{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "# Doc\n· ✨ punto"}}}}
	g := newWithGenerator(Config{APIKey: "k"}, f)

	res, err := g.Summarize(context.Background(), "Lorem ipsum")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "# Doc\n· ✨ punto", res.Summary)
	require.Empty(t, res.Title)

	require.Equal(t, 1, f.calls)
	require.Len(t, f.got, 1)
	require.Equal(t, llms.ChatMessageTypeHuman, f.got[0].Role)
	require.Len(t, f.got[0].Parts, 2)
	require.Equal(t, llms.TextContent{Text: SystemPrompt}, f.got[0].Parts[0])
	require.True(t, strings.HasSuffix(f.got[0].Parts[1].(llms.TextContent).Text, "Lorem ipsum"))

	require.Equal(t, 0.7, f.opts.Temperature)
	require.Equal(t, 0.95, f.opts.TopP)
	require.Equal(t, 40, f.opts.TopK)
	require.Equal(t, 4096, f.opts.MaxTokens)
}

func TestGemini_ZeroSamplingIsKept(t *testing.T) {
	f := &fakeGen{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "# Doc"}}}}
	g := newWithGenerator(Config{APIKey: "k", Temperature: ptr(0.0), TopP: ptr(0.0), TopK: ptr(0)}, f)

	_, err := g.Summarize(context.Background(), "x")
	require.NoError(t, err)
	require.Zero(t, f.opts.Temperature)
	require.Zero(t, f.opts.TopP)
	require.Zero(t, f.opts.TopK)
}

func TestGemini_ErrorPropagates(t *testing.T) {
	boom := errors.New("quota")
	g := newWithGenerator(Config{APIKey: "k"}, &fakeGen{err: boom})

	_, err := g.Summarize(context.Background(), "x")
	require.ErrorIs(t, err, boom)
}

func TestGemini_EmptyChoices(t *testing.T) {
	g := newWithGenerator(Config{APIKey: "k"}, &fakeGen{resp: &llms.ContentResponse{}})

	res, err := g.Summarize(context.Background(), "x")
	require.NoError(t, err)
	require.False(t, res.Success)
}
