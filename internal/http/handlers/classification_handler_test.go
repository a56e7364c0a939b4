package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/klaimcare/coder-backend/internal/catalog"
	"github.com/klaimcare/coder-backend/internal/domain"
	"github.com/klaimcare/coder-backend/internal/services"
)

// ---------- stubs ----------

type stubClassSvc struct {
	hierarchy func(context.Context, services.System, string) ([]catalog.Category, error)
	search    func(context.Context, services.System, string, int) ([]catalog.Entry, error)
	reload    func(context.Context, services.System) (int, error)
}

func (s stubClassSvc) Hierarchy(ctx context.Context, sys services.System, term string) ([]catalog.Category, error) {
	if s.hierarchy != nil {
		return s.hierarchy(ctx, sys, term)
	}
	return []catalog.Category{}, nil
}

func (s stubClassSvc) Search(ctx context.Context, sys services.System, term string, limit int) ([]catalog.Entry, error) {
	if s.search != nil {
		return s.search(ctx, sys, term, limit)
	}
	return []catalog.Entry{}, nil
}

func (s stubClassSvc) Reload(ctx context.Context, sys services.System) (int, error) {
	if s.reload != nil {
		return s.reload(ctx, sys)
	}
	return 0, nil
}

type stubAnalysisSvc struct {
	analyze    func(context.Context, string, string, string, string) (*services.AnalysisResult, error)
	get        func(context.Context, string, string) (*services.AnalysisResult, error)
	listPage   func(context.Context, string, int, int) ([]domain.Analysis, int64, error)
	selectCode func(context.Context, string, string, string) error
}

func (s stubAnalysisSvc) Analyze(ctx context.Context, accountID, kind, text, idemKey string) (*services.AnalysisResult, error) {
	if s.analyze != nil {
		return s.analyze(ctx, accountID, kind, text, idemKey)
	}
	return &services.AnalysisResult{Analysis: &domain.Analysis{ID: "a1", AccountID: accountID}}, nil
}

func (s stubAnalysisSvc) Get(ctx context.Context, accountID, analysisID string) (*services.AnalysisResult, error) {
	if s.get != nil {
		return s.get(ctx, accountID, analysisID)
	}
	return &services.AnalysisResult{Analysis: &domain.Analysis{ID: analysisID, AccountID: accountID}}, nil
}

func (s stubAnalysisSvc) ListPage(ctx context.Context, accountID string, page, pageSize int) ([]domain.Analysis, int64, error) {
	if s.listPage != nil {
		return s.listPage(ctx, accountID, page, pageSize)
	}
	return nil, 0, nil
}

func (s stubAnalysisSvc) SelectCode(ctx context.Context, accountID, analysisID, code string) error {
	if s.selectCode != nil {
		return s.selectCode(ctx, accountID, analysisID, code)
	}
	return nil
}

type stubAccountSvc struct {
	create     func(context.Context, string, string, string, *time.Time) (*domain.Account, error)
	get        func(context.Context, string) (*domain.Account, error)
	listPage   func(context.Context, int, int) ([]domain.Account, int64, error)
	deactivate func(context.Context, string) error
}

func (s stubAccountSvc) Create(ctx context.Context, name, email, role string, exp *time.Time) (*domain.Account, error) {
	if s.create != nil {
		return s.create(ctx, name, email, role, exp)
	}
	return &domain.Account{ID: "acc1", Name: name, Email: email}, nil
}

func (s stubAccountSvc) Get(ctx context.Context, id string) (*domain.Account, error) {
	if s.get != nil {
		return s.get(ctx, id)
	}
	return &domain.Account{ID: id}, nil
}

func (s stubAccountSvc) ListPage(ctx context.Context, page, pageSize int) ([]domain.Account, int64, error) {
	if s.listPage != nil {
		return s.listPage(ctx, page, pageSize)
	}
	return nil, 0, nil
}

func (s stubAccountSvc) Deactivate(ctx context.Context, id string) error {
	if s.deactivate != nil {
		return s.deactivate(ctx, id)
	}
	return nil
}

// newTestRouter wires a Handlers instance onto a bare engine with the same
// routes the production router registers.
func newTestRouter(class ClassificationProvider, analysis AnalysisProvider, account AccountProvider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := New(class, analysis, account)

	r.GET("/codes/:system/hierarchy", h.Hierarchy)
	r.GET("/codes/:system/search", h.Search)
	r.POST("/codes/:system/reload", h.Reload)
	r.POST("/analyses", h.CreateAnalysis)
	r.GET("/analyses", h.ListAnalyses)
	r.GET("/analyses/:id", h.GetAnalysis)
	r.PUT("/analyses/:id/selection", h.SelectCode)
	r.POST("/accounts", h.CreateAccount)
	r.GET("/accounts", h.ListAccounts)
	r.GET("/accounts/:id", h.GetAccount)
	r.DELETE("/accounts/:id", h.DeactivateAccount)
	return r
}

// ---------- tests ----------

func TestHierarchy_OK(t *testing.T) {
	class := stubClassSvc{
		hierarchy: func(_ context.Context, sys services.System, term string) ([]catalog.Category, error) {
			if sys != services.SystemICD10 {
				t.Fatalf("system = %q", sys)
			}
			if term != "pneumonia" {
				t.Fatalf("term = %q", term)
			}
			return []catalog.Category{
				{HeadCode: "J12", HeadName: "Pneumonia virus", Count: 6},
			}, nil
		},
	}
	r := newTestRouter(class, stubAnalysisSvc{}, stubAccountSvc{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/codes/icd10/hierarchy?term=pneumonia", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	var resp HierarchyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Categories) != 1 || resp.Categories[0].HeadCode != "J12" {
		t.Fatalf("categories = %+v", resp.Categories)
	}
	// wire field names
	if !json.Valid(w.Body.Bytes()) {
		t.Fatal("invalid JSON")
	}
	var raw map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &raw)
	cats := raw["categories"].([]any)
	c0 := cats[0].(map[string]any)
	for _, k := range []string{"headCode", "headName", "count"} {
		if _, ok := c0[k]; !ok {
			t.Fatalf("missing field %q in %v", k, c0)
		}
	}
}

func TestHierarchy_UnknownSystem(t *testing.T) {
	r := newTestRouter(stubClassSvc{}, stubAnalysisSvc{}, stubAccountSvc{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/codes/icd11/hierarchy?term=x", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	var er ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &er)
	if er.Code != ErrCodeUnknownSystem {
		t.Fatalf("code = %q", er.Code)
	}
}

func TestHierarchy_CatalogUnavailable(t *testing.T) {
	class := stubClassSvc{
		hierarchy: func(context.Context, services.System, string) ([]catalog.Category, error) {
			return nil, services.ErrCatalogUnavailable
		},
	}
	r := newTestRouter(class, stubAnalysisSvc{}, stubAccountSvc{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/codes/icd9/hierarchy?term=appendektomi", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
	var er ErrorResponse
	_ = json.Unmarshal(w.Body.Bytes(), &er)
	if er.Code != ErrCodeCatalogUnavailable {
		t.Fatalf("code = %q", er.Code)
	}
}

func TestSearch_OKAndLimitClamp(t *testing.T) {
	var gotLimit int
	class := stubClassSvc{
		search: func(_ context.Context, _ services.System, term string, limit int) ([]catalog.Entry, error) {
			gotLimit = limit
			return []catalog.Entry{{Code: "J12", Name: "Pneumonia virus", Status: catalog.StatusOfficial}}, nil
		},
	}
	r := newTestRouter(class, stubAnalysisSvc{}, stubAccountSvc{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/codes/icd10/search?term=J12&limit=5000", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if gotLimit != 100 {
		t.Fatalf("limit clamp = %d; want 100", gotLimit)
	}
	var resp SearchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Code != "J12" {
		t.Fatalf("results = %+v", resp.Results)
	}
}

func TestSearch_DefaultLimit(t *testing.T) {
	var gotLimit int
	class := stubClassSvc{
		search: func(_ context.Context, _ services.System, _ string, limit int) ([]catalog.Entry, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	r := newTestRouter(class, stubAnalysisSvc{}, stubAccountSvc{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/codes/icd10/search?term=x", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if gotLimit != catalog.DefaultSearchLimit {
		t.Fatalf("default limit = %d", gotLimit)
	}
}

func TestReload_OKAndFailure(t *testing.T) {
	class := stubClassSvc{
		reload: func(_ context.Context, sys services.System) (int, error) {
			if sys == services.SystemICD10 {
				return 1234, nil
			}
			return 0, errors.New("boom")
		},
	}
	r := newTestRouter(class, stubAnalysisSvc{}, stubAccountSvc{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/codes/icd10/reload", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp ReloadResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Entries != 1234 {
		t.Fatalf("entries = %d", resp.Entries)
	}

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodPost, "/codes/icd9/reload", nil))
	if w2.Code != http.StatusInternalServerError {
		t.Fatalf("failure status = %d", w2.Code)
	}
}

func Test_accountID_and_clampPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rc := gin.CreateTestContextOnly(httptest.NewRecorder(), gin.New())
	if got := accountID(rc); got != "demo-user" {
		t.Fatalf("fallback accountID = %q", got)
	}
	rc.Set("userID", "u1")
	if got := accountID(rc); got != "u1" {
		t.Fatalf("ctx accountID = %q", got)
	}
	rc.Set("userID", 123) // wrong type → fallback
	if got := accountID(rc); got != "demo-user" {
		t.Fatalf("wrong-type fallback accountID = %q", got)
	}

	// header fallback
	cH, _ := gin.CreateTestContext(httptest.NewRecorder())
	reqH := httptest.NewRequest("GET", "/", nil)
	reqH.Header.Set("X-User-ID", "u-123")
	cH.Request = reqH
	if got := accountID(cH); got != "u-123" {
		t.Fatalf("header fallback accountID = %q", got)
	}

	// clampPagination bounds
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?page=-5&page_size=9999", nil)
	page, size := clampPagination(c)
	if page != 1 || size != 100 {
		t.Fatalf("clamp = (%d,%d)", page, size)
	}
}
