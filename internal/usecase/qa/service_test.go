package qa

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/kbassist/internal/domain/answer"
	"github.com/kailas-cloud/kbassist/internal/domain/article"
	domcompletion "github.com/kailas-cloud/kbassist/internal/domain/completion"
	"github.com/kailas-cloud/kbassist/internal/domain/question"
)

// --- Mocks ---

type mockReader struct {
	getByIDsFn func(ids []int64) ([]article.Article, error)
	calls      int
}

func (m *mockReader) GetByIDs(_ context.Context, ids []int64) ([]article.Article, error) {
	m.calls++
	return m.getByIDsFn(ids)
}

type mockAssembler struct {
	got   []article.Article
	calls int
}

func (m *mockAssembler) Assemble(_ context.Context, arts []article.Article) answer.Bundle {
	m.calls++
	m.got = arts
	return answer.Bundle{Articles: arts, Text: "CONTEXT", Mode: answer.ModeVerbatim}
}

type mockCompleter struct {
	completeFn func(req domcompletion.Request) (domcompletion.Result, error)
	reqs       []domcompletion.Request
}

func (m *mockCompleter) Complete(_ context.Context, req domcompletion.Request) (domcompletion.Result, error) {
	m.reqs = append(m.reqs, req)
	return m.completeFn(req)
}

func okCompleter(text string) *mockCompleter {
	return &mockCompleter{completeFn: func(domcompletion.Request) (domcompletion.Result, error) {
		return domcompletion.Result{Text: text}, nil
	}}
}

var published = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

func art(id int64, title, content string) article.Article {
	return article.Reconstruct(id, title, content, "author", "", nil, published)
}

func mustQuestion(t *testing.T, text string, ids ...int64) question.Question {
	t.Helper()
	q, err := question.New(text, ids)
	if err != nil {
		t.Fatalf("question.New: %v", err)
	}
	return q
}

func contextIDs(a answer.Answer) []int64 {
	out := make([]int64, 0, len(a.Context()))
	for _, c := range a.Context() {
		out = append(out, c.ID())
	}
	return out
}

// --- Tests ---

func TestAsk_NoIDs_NoCollaboratorCalls(t *testing.T) {
	reader := &mockReader{}
	asm := &mockAssembler{}
	comp := okCompleter("x")
	svc := New(reader, asm, comp, Config{})

	a, err := svc.Ask(context.Background(), mustQuestion(t, "anything?"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status() != answer.StatusNoContext || a.Text() != answer.NoContextText {
		t.Errorf("unexpected answer: %q (%s)", a.Text(), a.Status())
	}
	if len(a.Context()) != 0 {
		t.Error("no-context answer must carry no articles")
	}
	if reader.calls != 0 || asm.calls != 0 || len(comp.reqs) != 0 {
		t.Errorf("collaborators called: reader=%d asm=%d comp=%d", reader.calls, asm.calls, len(comp.reqs))
	}
}

func TestAsk_UnknownIDs_NoContext(t *testing.T) {
	reader := &mockReader{getByIDsFn: func([]int64) ([]article.Article, error) { return nil, nil }}
	asm := &mockAssembler{}
	comp := okCompleter("x")

	a, err := New(reader, asm, comp, Config{}).Ask(context.Background(), mustQuestion(t, "q", 99))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status() != answer.StatusNoContext {
		t.Errorf("Status = %q", a.Status())
	}
	if asm.calls != 0 || len(comp.reqs) != 0 {
		t.Error("assembler and completer must not be called without articles")
	}
}

func TestAsk_Success(t *testing.T) {
	arts := []article.Article{art(1, "FastAPI", "FastAPI body"), art(2, "Postgres", "db body")}
	reader := &mockReader{getByIDsFn: func(ids []int64) ([]article.Article, error) {
		if !slices.Equal(ids, []int64{1, 2}) {
			t.Errorf("ids = %v", ids)
		}
		return arts, nil
	}}
	asm := &mockAssembler{}
	comp := okCompleter("FastAPI builds APIs.")

	a, err := New(reader, asm, comp, Config{}).Ask(context.Background(), mustQuestion(t, "What is FastAPI?", 1, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status() != answer.StatusAnswered || a.Text() != "FastAPI builds APIs." {
		t.Errorf("unexpected answer: %q (%s)", a.Text(), a.Status())
	}
	if !slices.Equal(contextIDs(a), []int64{1, 2}) {
		t.Errorf("context = %v", contextIDs(a))
	}

	if len(comp.reqs) != 1 {
		t.Fatalf("expected one completion call, got %d", len(comp.reqs))
	}
	req := comp.reqs[0]
	if req.MaxOutputTokens != DefaultAnswerMaxTokens || req.Temperature != DefaultTemperature {
		t.Errorf("unexpected request params: %+v", req)
	}
	if !strings.HasPrefix(req.Prompt, "Based on this context:\n\nCONTEXT\n\nQuestion: What is FastAPI?") {
		t.Errorf("unexpected prompt: %q", req.Prompt)
	}
}

func TestAsk_FastAPIScenario_PrioritizesBeforeAssembly(t *testing.T) {
	a := art(1, "Building fast APIs with FastAPI and AsyncIO", "FastAPI is used for building APIs.")
	b := art(2, "Mastering PostgreSQL indexing", "Indexes speed up queries.")
	reader := &mockReader{getByIDsFn: func([]int64) ([]article.Article, error) {
		return []article.Article{b, a}, nil
	}}
	asm := &mockAssembler{}

	got, err := New(reader, asm, okCompleter("ok"), Config{MaxContextArticles: 1}).
		Ask(context.Background(), mustQuestion(t, "What is FastAPI used for?", 1, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(asm.got) != 1 || asm.got[0].ID() != 1 {
		t.Fatalf("assembler received %d articles, want [1]", len(asm.got))
	}
	if !slices.Equal(contextIDs(got), []int64{1}) {
		t.Errorf("context = %v", contextIDs(got))
	}
}

func TestAsk_CompletionFailure(t *testing.T) {
	reader := &mockReader{getByIDsFn: func([]int64) ([]article.Article, error) {
		return []article.Article{art(1, "t", "c")}, nil
	}}
	comp := &mockCompleter{completeFn: func(domcompletion.Request) (domcompletion.Result, error) {
		return domcompletion.Result{}, domcompletion.Fail(domcompletion.ReasonRateLimited, errors.New("slow down"))
	}}

	a, err := New(reader, &mockAssembler{}, comp, Config{}).Ask(context.Background(), mustQuestion(t, "q", 1))
	if err != nil {
		t.Fatalf("completion failure must not be returned, got %v", err)
	}
	if a.Status() != answer.StatusFailed || a.FailureReason() != domcompletion.ReasonRateLimited {
		t.Errorf("status=%q reason=%q", a.Status(), a.FailureReason())
	}
	if !strings.HasPrefix(a.Text(), "Error generating answer: ") || !strings.Contains(a.Text(), "slow down") {
		t.Errorf("Text = %q", a.Text())
	}
	if !slices.Equal(contextIDs(a), []int64{1}) {
		t.Errorf("failed answer must still report context, got %v", contextIDs(a))
	}
	if len(comp.reqs) != 1 {
		t.Errorf("expected no retry, got %d calls", len(comp.reqs))
	}
}

func TestAsk_StoreFailure(t *testing.T) {
	reader := &mockReader{getByIDsFn: func([]int64) ([]article.Article, error) {
		return nil, errors.New("connection refused")
	}}
	comp := okCompleter("x")

	a, err := New(reader, &mockAssembler{}, comp, Config{}).Ask(context.Background(), mustQuestion(t, "q", 1))
	if err != nil {
		t.Fatalf("store failure must not be returned, got %v", err)
	}
	if a.Status() != answer.StatusFailed || a.FailureReason() != answer.ReasonStoreUnavailable {
		t.Errorf("status=%q reason=%q", a.Status(), a.FailureReason())
	}
	if a.Text() != "Error retrieving context: connection refused" {
		t.Errorf("Text = %q", a.Text())
	}
	if len(a.Context()) != 0 || len(comp.reqs) != 0 {
		t.Error("store failure must skip completion and carry no context")
	}
}

func TestAnswerPrompt(t *testing.T) {
	got := answerPrompt("CTX", "Q?")
	want := "Based on this context:\n\nCTX\n\nQuestion: Q?\n\n" +
		"Please provide a concise and accurate answer based on the information above. " +
		"If the context doesn't contain enough information to answer the question, please say so."
	if got != want {
		t.Errorf("got %q", got)
	}
}

func TestAsk_ZeroTemperatureReachesCompleter(t *testing.T) {
	reader := &mockReader{getByIDsFn: func([]int64) ([]article.Article, error) {
		return []article.Article{art(1, "FastAPI", "FastAPI body")}, nil
	}}
	comp := okCompleter("deterministic")
	zero := 0.0

	if _, err := New(reader, &mockAssembler{}, comp, Config{Temperature: &zero}).
		Ask(context.Background(), mustQuestion(t, "q", 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(comp.reqs) != 1 {
		t.Fatalf("expected one completion call, got %d", len(comp.reqs))
	}
	if got := comp.reqs[0].Temperature; got != 0 {
		t.Errorf("temperature = %g, want 0", got)
	}
}
