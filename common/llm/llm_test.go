package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dogsub/Open-Source-TermP/common/llm"
)

var _ = Describe("StripThinking", func() {
	DescribeTable("removes reasoning spans",
		func(input, expected string) {
			Expect(llm.StripThinking(input)).To(Equal(expected))
		},
		Entry("no markers", `{"tags": []}`, `{"tags": []}`),
		Entry("single span", `<think>hmm</think>{"tags": []}`, `{"tags": []}`),
		Entry("span across lines", "a<think>\nline one\nline two\n</think>b", "ab"),
		Entry("first begin to first end", "<think>x</think>keep</think>", "keep</think>"),
		Entry("multiple spans", "<think>1</think>a<think>2</think>b", "ab"),
		Entry("unterminated span kept", "<think>never closed", "<think>never closed"),
	)
})

var _ = Describe("ClientFunc", func() {
	It("adapts a function into a Client", func() {
		var got llm.Request
		c := llm.ClientFunc(func(_ context.Context, req llm.Request) (*llm.Response, error) {
			got = req
			return &llm.Response{Content: "ok"}, nil
		})

		resp, err := c.Complete(context.Background(), llm.Request{UserPrompt: "hi", Temperature: llm.Temp(0)})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Content).To(Equal("ok"))
		Expect(got.UserPrompt).To(Equal("hi"))
		Expect(*got.Temperature).To(BeZero())
		Expect(c.Model()).NotTo(BeEmpty())
	})
})

var _ = Describe("New", func() {
	ctx := context.Background()

	It("requires an API key", func() {
		_, err := llm.New(ctx, llm.Config{Family: llm.FamilyGroq})
		Expect(err).To(MatchError(ContainSubstring("API key is required")))
	})

	It("rejects unknown families", func() {
		_, err := llm.New(ctx, llm.Config{Family: "mistral", APIKey: "k"})
		Expect(err).To(MatchError(ContainSubstring("unsupported LLM family")))
	})

	It("builds openai-compatible clients without network access", func() {
		c, err := llm.New(ctx, llm.Config{Family: llm.FamilyGroq, APIKey: "k", Model: "gemma2-9b-it"})
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Model()).To(Equal("gemma2-9b-it"))

		c, err = llm.New(ctx, llm.Config{Family: llm.FamilyAnthropic, APIKey: "k"})
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Model()).NotTo(BeEmpty())
	})
})

var _ = Describe("IsRetryable", func() {
	ctx := context.Background()

	It("is false for nil", func() {
		Expect(llm.IsRetryable(ctx, nil)).To(BeFalse())
	})

	It("is false for cancellation and deadlines", func() {
		Expect(llm.IsRetryable(ctx, context.Canceled)).To(BeFalse())
		Expect(llm.IsRetryable(ctx, fmt.Errorf("call: %w", context.DeadlineExceeded))).To(BeFalse())
	})

	It("retries empty responses", func() {
		Expect(llm.IsRetryable(ctx, fmt.Errorf("readme: %w", llm.ErrEmptyResponse))).To(BeTrue())
	})

	It("treats unclassified errors as network failures", func() {
		Expect(llm.IsRetryable(ctx, errors.New("connection reset by peer"))).To(BeTrue())
	})
})

var _ = Describe("GenerateSchema", func() {
	type tagDoc struct {
		Tags []string `json:"tags"`
	}

	It("reflects an inline schema", func() {
		Expect(llm.GenerateSchema[tagDoc]()).NotTo(BeNil())
	})
})

var _ = Describe("Gemini client", func() {
	type tagDoc struct {
		Tags []string `json:"tags"`
	}

	It("sends the response schema with structured requests", func() {
		var body map[string]any
		var path string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			raw, err := io.ReadAll(r.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(json.Unmarshal(raw, &body)).To(Succeed())
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"tags\": [\"Go\"]}"}]}}]}`)
		}))
		defer server.Close()

		c, err := llm.New(context.Background(), llm.Config{Family: llm.FamilyGemini, APIKey: "k", BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())

		resp, err := c.Complete(context.Background(), llm.Request{
			UserPrompt: "tags please",
			SchemaName: "tags",
			Schema:     llm.GenerateSchema[tagDoc](),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Content).To(Equal(`{"tags": ["Go"]}`))
		Expect(strings.HasSuffix(path, ":generateContent")).To(BeTrue())

		gen, ok := body["generationConfig"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(gen).To(HaveKeyWithValue("responseMimeType", "application/json"))
		Expect(gen).To(HaveKey("responseJsonSchema"))
		Expect(gen["responseJsonSchema"]).To(HaveKey("properties"))
	})
})
