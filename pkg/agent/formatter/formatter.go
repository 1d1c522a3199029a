// Package formatter renders a turn's outcome as a Markdown digest or table and
// materialises a spreadsheet when the result is too large to show inline.
package formatter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"fusion-agent-be/internal/pkg/logger"
	"fusion-agent-be/pkg/agent"
	"fusion-agent-be/pkg/llm"
)

const (
	logModule = "RESPONSE_FORMATTER"

	// MinDigestBullets and MaxDigestBullets bound the natural-language digest.
	MinDigestBullets = 5
	MaxDigestBullets = 8

	errorPrefix   = "Error processing your question: "
	noDataMessage = "I wasn't able to retrieve data to answer your question."
)

type Formatter struct {
	oracle llm.Completer
	logger logger.ILogger
	now    func() time.Time
}

var _ agent.ResponseFormatter = (*Formatter)(nil)

func New(oracle llm.Completer, log logger.ILogger) *Formatter {
	return &Formatter{oracle: oracle, logger: log, now: time.Now}
}

// WithClock overrides the clock used for attachment filenames.
func (f *Formatter) WithClock(now func() time.Time) *Formatter {
	f.now = now
	return f
}

func (f *Formatter) Format(ctx context.Context, in agent.FormatInput) (*agent.FormatOutput, error) {
	if in.Err != nil {
		return &agent.FormatOutput{Content: bullet(in.FormatPreference, errorPrefix+in.Err.Message)}, nil
	}
	if strings.TrimSpace(in.CSVData) == "" {
		f.logger.Warn(logModule, "No CSV data to format", nil)
		return &agent.FormatOutput{Content: bullet(in.FormatPreference, noDataMessage)}, nil
	}

	table, err := ParseCSV(in.CSVData)
	if err != nil {
		return nil, fmt.Errorf("parse report data: %w", err)
	}
	rows := len(table.Rows)
	f.logger.Info(logModule, "Formatting rows", map[string]interface{}{
		"rows":   rows,
		"format": string(in.FormatPreference),
	})

	out := &agent.FormatOutput{CSVData: in.CSVData, RowCount: rows}

	if rows > agent.InlineRowLimit {
		att, err := f.attachment(table)
		if err != nil {
			return nil, err
		}
		out.Attachment = att
	}

	switch in.FormatPreference {
	case agent.FormatTable:
		out.Content = tableResponse(in.Question, table)
	case agent.FormatNaturalLanguage:
		content, err := f.digest(ctx, in.Question, table)
		if err != nil {
			return nil, err
		}
		if out.Attachment != nil {
			if !strings.HasSuffix(content, "\n") {
				content += "\n"
			}
			content += "* " + agent.DownloadPlaceholder
		}
		out.Content = content
	default:
		return nil, fmt.Errorf("unsupported format preference %q", in.FormatPreference)
	}
	return out, nil
}

func tableResponse(question string, t *Table) string {
	if len(t.Rows) <= agent.InlineRowLimit {
		return fmt.Sprintf("Here's the data for your question: \"%s\"\n\n%s", question, Markdown(t.Header, t.Rows))
	}
	return fmt.Sprintf("Here's the first %d rows of the data for your question: \"%s\"\n\n%s\n\n%s",
		agent.InlineRowLimit, question, Markdown(t.Header, t.Head(agent.InlineRowLimit)), agent.DownloadPlaceholder)
}

func (f *Formatter) digest(ctx context.Context, question string, t *Table) (string, error) {
	stats, err := json.MarshalIndent(ComputeStats(t), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode statistics: %w", err)
	}

	reply, err := f.oracle.Generate(ctx, DigestPrompt(question, t, string(stats)))
	if err != nil {
		return "", fmt.Errorf("generate digest: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// DigestPrompt asks for a short bulleted answer grounded in a sample and statistics.
func DigestPrompt(question string, t *Table, stats string) string {
	return fmt.Sprintf(`Based on the data retrieved, answer the user's question with a concise bulleted list in Markdown format.

User Question: %s

Data Summary:
- Total records: %d
- Columns: %s

Sample of the data (first %d rows or less):
%s
Data Statistics:
%s

IMPORTANT INSTRUCTIONS:
1. Format your entire response as a concise bulleted list using Markdown (using * or - format)
2. Keep each bullet point short and direct (1-2 lines maximum)
3. Limit your response to %d-%d bullet points that highlight only the most important information
4. Include specific numbers and key insights from the data
5. Start with a brief summary bullet point that directly answers the user's question
6. If the data shows no results or is empty, explain that clearly in a single bullet point

DO NOT include any explanatory text outside the bullet points.
`, question, len(t.Rows), strings.Join(t.Header, ", "), agent.InlineRowLimit,
		Markdown(t.Header, t.Head(agent.InlineRowLimit)), stats, MinDigestBullets, MaxDigestBullets)
}

func (f *Formatter) attachment(t *Table) (*agent.Attachment, error) {
	data, err := Workbook(t)
	if err != nil {
		return nil, fmt.Errorf("build spreadsheet: %w", err)
	}
	return &agent.Attachment{
		Filename:   fmt.Sprintf("Data_%s.xlsx", f.now().Format("20060102_150405")),
		Base64Data: base64.StdEncoding.EncodeToString(data),
	}, nil
}

func bullet(format agent.FormatPreference, msg string) string {
	if format == agent.FormatTable {
		return msg
	}
	return "* " + msg
}
