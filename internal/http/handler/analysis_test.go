package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dogsub/Open-Source-TermP/internal/http/handler"
	"github.com/dogsub/Open-Source-TermP/internal/model"
	"github.com/dogsub/Open-Source-TermP/internal/service"
	"github.com/dogsub/Open-Source-TermP/internal/store"
)

var _ = Describe("AnalysisHandler", func() {
	var (
		router *gin.Engine
		svc    *mockQueueService
	)

	do := func(method, path, body string, headers ...string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		for i := 0; i+1 < len(headers); i += 2 {
			req.Header.Set(headers[i], headers[i+1])
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		router = gin.New()
		svc = &mockQueueService{}
		h := handler.NewAnalysisHandler(svc, "X-Trace-Id")
		router.POST("/analyses", h.Create)
		router.GET("/analyses/:id", h.Get)
	})

	Describe("Create", func() {
		It("returns 202 with the run id as a string", func() {
			var got service.Options
			svc.submitFn = func(_ context.Context, repoURL string, opts service.Options) (*model.Analysis, error) {
				Expect(repoURL).To(Equal("https://github.com/octo/demo"))
				got = opts
				return &model.Analysis{ID: 1875432109876543210, Status: model.AnalysisStatusQueued}, nil
			}

			w := do(http.MethodPost, "/analyses", `{"repo_url":"https://github.com/octo/demo","skip_image":true}`, "X-Trace-Id", "abc")

			Expect(w.Code).To(Equal(http.StatusAccepted))
			Expect(w.Body.String()).To(MatchJSON(`{"id":"1875432109876543210","status":"queued"}`))
			Expect(got).To(Equal(service.Options{SkipImage: true, TraceID: "abc"}))
		})

		It("returns 400 without a repo url", func() {
			Expect(do(http.MethodPost, "/analyses", `{}`).Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 for an invalid repository", func() {
			svc.submitFn = func(context.Context, string, service.Options) (*model.Analysis, error) {
				return nil, fmt.Errorf("%w: bad", service.ErrInvalidRepository)
			}
			Expect(do(http.MethodPost, "/analyses", `{"repo_url":"x"}`).Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 500 on service error", func() {
			svc.submitFn = func(context.Context, string, service.Options) (*model.Analysis, error) {
				return nil, errors.New("redis down")
			}
			Expect(do(http.MethodPost, "/analyses", `{"repo_url":"x"}`).Code).To(Equal(http.StatusInternalServerError))
		})
	})

	Describe("Get", func() {
		It("returns the analysis", func() {
			svc.getFn = func(_ context.Context, id int64) (*model.Analysis, error) {
				return &model.Analysis{
					ID:         id,
					Status:     model.AnalysisStatusCompleted,
					Tags:       []string{"Go"},
					StepErrors: model.StepErrors{"image": "no images"},
				}, nil
			}

			w := do(http.MethodGet, "/analyses/42", "")
			Expect(w.Code).To(Equal(http.StatusOK))

			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp["id"]).To(Equal("42"))
			Expect(resp["tags"]).To(Equal([]any{"Go"}))
			Expect(resp["step_errors"]).To(HaveKeyWithValue("image", "no images"))
		})

		It("returns 404 when missing", func() {
			svc.getFn = func(context.Context, int64) (*model.Analysis, error) { return nil, store.ErrNotFound }
			Expect(do(http.MethodGet, "/analyses/42", "").Code).To(Equal(http.StatusNotFound))
		})

		It("returns 400 for a malformed id", func() {
			Expect(do(http.MethodGet, "/analyses/abc", "").Code).To(Equal(http.StatusBadRequest))
		})
	})
})
