// Package ai extracts transaction rows from PDF statements using Gemini.
// The extractor returns a plain tabular document so the rest of the import
// pipeline treats AI output exactly like a parsed CSV.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/casaledger/casa-ledger/internal/domain/import/parser"
	"github.com/casaledger/casa-ledger/internal/domain/refdata"
)

// DefaultModel is the Gemini model used for statement extraction.
const DefaultModel = "gemini-2.5-flash"

// ErrRateLimited is returned when the model API rejects the call for quota
// reasons. Handlers translate it into a retry-later response.
var ErrRateLimited = errors.New("ai extraction rate limited")

type generateFunc func(ctx context.Context, model string, contents []*genai.Content) (string, error)

// Extractor turns PDF statements into tabular documents via Gemini.
type Extractor struct {
	generate generateFunc
	model    string
	limiter  *rate.Limiter
	catalog  *refdata.Catalog
	logger   *slog.Logger
}

// NewExtractor builds an extractor with a live Gemini client. The API key is
// read from the environment by the genai SDK (GEMINI_API_KEY).
func NewExtractor(ctx context.Context, catalog *refdata.Catalog, logger *slog.Logger) (*Extractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	gen := func(ctx context.Context, model string, contents []*genai.Content) (string, error) {
		resp, err := client.Models.GenerateContent(ctx, model, contents, nil)
		if err != nil {
			return "", err
		}
		return resp.Text(), nil
	}
	return newExtractor(gen, catalog, logger), nil
}

// WithModel overrides the default Gemini model.
func (e *Extractor) WithModel(model string) *Extractor {
	if model != "" {
		e.model = model
	}
	return e
}

func newExtractor(gen generateFunc, catalog *refdata.Catalog, logger *slog.Logger) *Extractor {
	return &Extractor{
		generate: gen,
		model:    DefaultModel,
		// Free-tier Gemini quota is tight; one request every few seconds
		// with a small burst keeps imports under it.
		limiter: rate.NewLimiter(rate.Every(6*time.Second), 2),
		catalog: catalog,
		logger:  logger,
	}
}

type extractedRow struct {
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// ExtractPDF sends the statement to the model and returns the rows as a
// document with a fixed standard-with-category header set.
func (e *Extractor) ExtractPDF(ctx context.Context, pdfBytes []byte) (*parser.Document, error) {
	if len(pdfBytes) == 0 {
		return nil, parser.ErrEmptyFile
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for ai quota: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: e.buildPrompt()},
				{
					InlineData: &genai.Blob{
						MIMEType: "application/pdf",
						Data:     pdfBytes,
					},
				},
			},
		},
	}

	start := time.Now()
	rawText, err := e.generate(ctx, e.model, contents)
	if err != nil {
		if isQuotaError(err) {
			return nil, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if rawText == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	clean := cleanModelJSON(rawText)
	var rows []extractedRow
	if err := json.Unmarshal([]byte(clean), &rows); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}

	doc := &parser.Document{
		Headers: []string{"Date", "Amount", "Description", "Category"},
	}
	for _, row := range rows {
		if strings.TrimSpace(row.Description) == "" && strings.TrimSpace(row.Amount) == "" {
			continue
		}
		doc.Rows = append(doc.Rows, parser.RawRow{
			"Date":        row.Date,
			"Amount":      row.Amount,
			"Description": row.Description,
			"Category":    row.Category,
		})
	}
	if len(doc.Rows) == 0 {
		return nil, parser.ErrNoDataRows
	}

	e.logger.Info("pdf extracted",
		"rows", len(doc.Rows),
		"model", e.model,
		"duration", time.Since(start))
	return doc, nil
}

func (e *Extractor) buildPrompt() string {
	var sb strings.Builder
	sb.WriteString("You are a statement parser for household expense PDFs.\n\n")
	sb.WriteString("Task:\n")
	sb.WriteString("- Parse ALL expense transactions in the attached statement.\n")
	sb.WriteString("- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n")
	sb.WriteString("- Output a JSON array of objects.\n\n")
	sb.WriteString("Each object must have these fields:\n")
	sb.WriteString("- \"date\": string, ISO format \"YYYY-MM-DD\"\n")
	sb.WriteString("- \"amount\": string, positive decimal amount spent\n")
	sb.WriteString("- \"description\": string\n")
	sb.WriteString("- \"category\": string, one of the categories below, or \"\" if unsure\n\n")
	sb.WriteString("Categories:\n")
	for _, name := range e.catalog.CategoryNames() {
		sb.WriteString("- " + name + "\n")
	}
	sb.WriteString("\nRules:\n")
	sb.WriteString("- Skip deposits, refunds and transfers in; only money OUT.\n")
	sb.WriteString("- Return ONLY valid raw JSON.\n")
	sb.WriteString("- Do NOT wrap the response in code fences.\n")
	sb.WriteString("- Output must begin with \"[\" and end with \"]\".\n")
	return sb.String()
}

func isQuotaError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "RESOURCE_EXHAUSTED") ||
		strings.Contains(msg, "quota")
}

// cleanModelJSON strips Markdown fences and surrounding junk when the model
// ignores the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
