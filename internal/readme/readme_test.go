package readme_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dogsub/Open-Source-TermP/common/llm"
	"github.com/dogsub/Open-Source-TermP/internal/analyzer"
	"github.com/dogsub/Open-Source-TermP/internal/forge"
	"github.com/dogsub/Open-Source-TermP/internal/readme"
)

// mockLLMClient implements llm.Client for testing.
type mockLLMClient struct {
	completeFn func(ctx context.Context, req llm.Request) (*llm.Response, error)
	callCount  int
}

func (m *mockLLMClient) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.callCount++
	if m.completeFn != nil {
		return m.completeFn(ctx, req)
	}
	return nil, errors.New("mock not configured")
}

func (m *mockLLMClient) Model() string {
	return "test-model"
}

var _ = Describe("BuildPrompt", func() {
	It("lists libraries, keywords and the longest comments", func() {
		prompt, err := readme.BuildPrompt(analyzer.Summary{
			RepoName:  "octo/demo",
			Imports:   []string{"fmt", "net/http"},
			Functions: []string{"ServeHTTP", "serve"},
			Comments:  []string{"a", "bb", "ccc", "dddd", "eeeee", "ffffff"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(prompt).To(ContainSubstring("Repository : octo/demo\n"))
		Expect(prompt).To(ContainSubstring("## Used Libraries\nfmt, net/http\n"))
		Expect(prompt).To(ContainSubstring("## Function Overview\nservehttp, serve\n"))
		Expect(prompt).To(ContainSubstring("## Comment Summary\nffffff, eeeee, dddd, ccc, bb\n"))
		Expect(prompt).To(HaveSuffix("Generate a structured README based on the provided information.\n"))
	})

	It("says so when there are no libraries or functions", func() {
		prompt, err := readme.BuildPrompt(analyzer.Summary{RepoName: "x/y"})
		Expect(err).NotTo(HaveOccurred())
		Expect(prompt).To(ContainSubstring("## Used Libraries\nNo external libraries found.\n"))
		Expect(prompt).To(ContainSubstring("## Function Overview\nNo items found.\n"))
	})
})

var _ = Describe("Generator", func() {
	var (
		ctx     context.Context
		mockLLM *mockLLMClient
		files   []forge.File
	)

	BeforeEach(func() {
		ctx = context.Background()
		mockLLM = &mockLLMClient{}
		files = []forge.File{{Path: "main.go", Content: "import \"net/http\"\nfunc main() {}\n"}}
	})

	It("sends the prompt to the configured model and strips reasoning", func() {
		var got llm.Request
		mockLLM.completeFn = func(_ context.Context, req llm.Request) (*llm.Response, error) {
			got = req
			return &llm.Response{Content: "<think>plan</think>\n# demo\nA web server.\n"}, nil
		}

		text, err := readme.NewGenerator(mockLLM, "").Generate(ctx, "octo/demo", files)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("# demo\nA web server."))
		Expect(got.Model).To(Equal(readme.DefaultModel))
		Expect(got.UserPrompt).To(ContainSubstring("net/http"))
	})

	It("retries retryable errors", func() {
		mockLLM.completeFn = func(context.Context, llm.Request) (*llm.Response, error) {
			if mockLLM.callCount < 3 {
				return nil, errors.New("connection reset")
			}
			return &llm.Response{Content: "# ok"}, nil
		}

		text, err := readme.NewGenerator(mockLLM, "m", readme.WithBackoff(time.Millisecond)).Generate(ctx, "x/y", files)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("# ok"))
		Expect(mockLLM.callCount).To(Equal(3))
	})

	It("gives up after three attempts", func() {
		mockLLM.completeFn = func(context.Context, llm.Request) (*llm.Response, error) {
			return nil, errors.New("connection reset")
		}

		_, err := readme.NewGenerator(mockLLM, "m", readme.WithBackoff(time.Millisecond)).Generate(ctx, "x/y", files)
		Expect(err).To(MatchError(ContainSubstring("after 3 attempts")))
		Expect(mockLLM.callCount).To(Equal(3))
	})

	It("does not retry cancellation", func() {
		mockLLM.completeFn = func(context.Context, llm.Request) (*llm.Response, error) {
			return nil, context.Canceled
		}

		_, err := readme.NewGenerator(mockLLM, "m").Generate(ctx, "x/y", files)
		Expect(err).To(MatchError(context.Canceled))
		Expect(mockLLM.callCount).To(Equal(1))
	})
})
