package readme

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/dogsub/Open-Source-TermP/internal/analyzer"
)

const maxComments = 5

const promptTemplate = `You are an AI that reviews GitHub repositories and generates README files.
Analyze the following repository and generate a concise README.

Repository : {{.RepoName}}

## Used Libraries
{{if .Imports}}{{join .Imports ", "}}{{else}}No external libraries found.{{end}}

## Function Overview
{{.Functions}}

## Comment Summary
{{join .Comments ", "}}

Generate a structured README based on the provided information.
`

var tmpl = template.Must(template.New("readme").
	Funcs(template.FuncMap{"join": strings.Join}).
	Parse(promptTemplate))

type promptData struct {
	RepoName  string
	Imports   []string
	Functions string
	Comments  []string
}

// BuildPrompt renders the README request for a code summary: every imported
// library, the most frequent function-name keywords and the five longest comments.
func BuildPrompt(summary analyzer.Summary) (string, error) {
	data := promptData{
		RepoName:  summary.RepoName,
		Imports:   summary.Imports,
		Functions: analyzer.SummarizeKeywords(summary.Functions, analyzer.DefaultKeywords),
		Comments:  analyzer.LongestComments(summary.Comments, maxComments),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering readme prompt: %w", err)
	}
	return buf.String(), nil
}
