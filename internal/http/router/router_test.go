package router_test

import (
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dogsub/Open-Source-TermP/internal/http/router"
)

var _ = Describe("SetupRoutes", func() {
	It("serves health and leaves analyses out without a queue", func() {
		engine := gin.New()
		router.SetupRoutes(engine, nil, router.RouterConfig{})

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"status":"ok"}`))

		w = httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/analyses/1", nil))
		Expect(w.Code).To(Equal(http.StatusNotFound))

		paths := map[string]bool{}
		for _, r := range engine.Routes() {
			paths[r.Method+" "+r.Path] = true
		}
		Expect(paths).To(HaveKey("POST /api/v1/tags/merge"))
		Expect(paths).To(HaveKey("POST /api/v1/tags/extract"))
	})
})
