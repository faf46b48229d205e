package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kbassist/internal/domain"
	"github.com/kailas-cloud/kbassist/internal/domain/question"
	"github.com/kailas-cloud/kbassist/internal/domain/search/query"
	domusage "github.com/kailas-cloud/kbassist/internal/domain/usage"
	healthuc "github.com/kailas-cloud/kbassist/internal/usecase/health"
	"github.com/kailas-cloud/kbassist/internal/version"
)

// maxAskBodyBytes bounds POST /api/v1/ask bodies.
const maxAskBodyBytes = 1 << 20

// Server serves the kbassist HTTP API.
type Server struct {
	search        Searcher
	qa            Asker
	articles      ArticleService
	usage         UsageReporter
	health        HealthChecker
	validate      *validator.Validate
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search Searcher,
	qa Asker,
	articles ArticleService,
	usage UsageReporter,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:   search,
		qa:       qa,
		articles: articles,
		usage:    usage,
		health:   health,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrArticleNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusBadGateway, ErrorCodeStoreUnavailable),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, ErrorCodeRateLimited),
		sentinelHandler(domain.ErrCompletionQuotaExceeded, http.StatusPaymentRequired, ErrorCodeQuotaExceeded),
		sentinelHandler(domain.ErrCompletionUnavailable, http.StatusBadGateway, ErrorCodeCompletionError),
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.SearchArticles)
		r.Post("/ask", s.Ask)
		r.Get("/articles/{id}", s.GetArticle)
		r.Get("/categories", s.ListCategories)
	})
	r.Get("/usage", s.GetUsage)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// SearchArticles handles GET /api/v1/search.
func (s *Server) SearchArticles(w http.ResponseWriter, r *http.Request) {
	var (
		text, category string
		limit          int
	)
	params := r.URL.Query()
	for name, dest := range map[string]any{"query": &text, "category": &category, "limit": &limit} {
		if err := runtime.BindQueryParameter("form", true, false, name, params, dest); err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid query parameter "+name)
			return
		}
	}

	q, err := query.New(text, category, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	arts, err := s.search.Search(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, articlesToResponse(arts))
}

// Ask handles POST /api/v1/ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAskBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, validationMessage(err))
		return
	}

	q, err := question.New(req.Question, req.ContextIDs)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	a, err := s.qa.Ask(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AskResponse{
		Answer:        a.Text(),
		Status:        string(a.Status()),
		FailureReason: string(a.FailureReason()),
		ContextUsed:   articlesToResponse(a.Context()),
	})
}

// GetArticle handles GET /api/v1/articles/{id}.
func (s *Server) GetArticle(w http.ResponseWriter, r *http.Request) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid article id")
		return
	}

	a, err := s.articles.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ArticleToResponse(&a))
}

// ListCategories handles GET /api/v1/categories.
func (s *Server) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.articles.Categories(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]CategoryResponse, len(cats))
	for i, c := range cats {
		items[i] = CategoryResponse{Name: c.Name, ArticleCount: c.Articles}
	}
	writeJSON(w, http.StatusOK, items)
}

// GetUsage handles GET /usage.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	var raw string
	if err := runtime.BindQueryParameter("form", true, false, "period", r.URL.Query(), &raw); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "invalid query parameter period")
		return
	}
	period, err := domusage.ParsePeriod(raw)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	report := s.usage.GetReport(r.Context(), period)
	writeJSON(w, http.StatusOK, usageToResponse(&report))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	// Degraded still serves search, so only a dead store fails the probe.
	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Version: version.Short(),
		Checks:  checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fieldName(fe)+" failed on "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}

func fieldName(fe validator.FieldError) string {
	switch fe.StructField() {
	case "Question":
		return "question"
	case "ContextIDs":
		return "context_ids"
	}
	return strings.ToLower(fe.Field())
}
