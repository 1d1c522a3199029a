// Package report executes queries through the BI Publisher runReport SOAP service.
package report

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fusion-agent-be/internal/pkg/logger"
)

const (
	logModule = "BIP_EXECUTOR"

	PublicReportServiceNS = "http://xmlns.oracle.com/oxp/service/PublicReportService"
	DefaultReportPath     = "/Custom/SCM AI Agent/SQLConnectReportCSV.xdo"
	DefaultParameterName  = "query1"
	DefaultTimeout        = 60 * time.Second
)

var ErrMissingReportBytes = errors.New("reportBytes element not found or empty in the response")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("report service returned status %d: %s", e.StatusCode, e.Body)
}

type Config struct {
	Endpoint      string
	Username      string
	Password      string
	ReportPath    string
	ParameterName string
	Timeout       time.Duration
}

type BIPExecutor struct {
	cfg    Config
	client *http.Client
	logger logger.ILogger
}

func NewBIPExecutor(cfg Config, log logger.ILogger) *BIPExecutor {
	if cfg.ReportPath == "" {
		cfg.ReportPath = DefaultReportPath
	}
	if cfg.ParameterName == "" {
		cfg.ParameterName = DefaultParameterName
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &BIPExecutor{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: log,
	}
}

// Sanitize strips Markdown fences, a leading sql tag and a trailing terminator,
// then rewrites tokens the report service does not accept.
func Sanitize(query string) string {
	q := strings.TrimSpace(strings.ReplaceAll(query, "```", ""))
	if strings.HasSuffix(q, ";") {
		q = strings.TrimSpace(strings.TrimRight(q, ";"))
	}
	if len(q) >= 3 && strings.EqualFold(q[:3], "sql") {
		q = strings.TrimSpace(q[3:])
	}
	q = strings.ReplaceAll(q, "sysdate", "SYSDATE")
	q = strings.ReplaceAll(q, "fnd_global.timezone", "'UTC'")
	return q
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// Envelope builds the SOAP 1.2 runReport request.
func Envelope(encodedQuery, reportPath, parameterName string) string {
	return fmt.Sprintf(`<soap:Envelope xmlns:soap="http://www.w3.org/2003/05/soap-envelope" xmlns:pub="%s">
  <soap:Header/>
  <soap:Body>
    <pub:runReport>
      <pub:reportRequest>
        <pub:attributeFormat>csv</pub:attributeFormat>
        <pub:flattenXML>false</pub:flattenXML>
        <pub:parameterNameValues>
          <pub:item>
            <pub:name>%s</pub:name>
            <pub:values>
              <pub:item>%s</pub:item>
            </pub:values>
          </pub:item>
        </pub:parameterNameValues>
        <pub:reportAbsolutePath>%s</pub:reportAbsolutePath>
        <pub:sizeOfDataChunkDownload>-1</pub:sizeOfDataChunkDownload>
      </pub:reportRequest>
    </pub:runReport>
  </soap:Body>
</soap:Envelope>`, PublicReportServiceNS, xmlEscape(parameterName), encodedQuery, xmlEscape(reportPath))
}

func (e *BIPExecutor) Execute(ctx context.Context, query string) (string, error) {
	clean := Sanitize(query)
	e.logger.Debug(logModule, "Executing report query", map[string]interface{}{"query": clean})

	encoded := base64.StdEncoding.EncodeToString([]byte(clean))
	payload := Envelope(encoded, e.cfg.ReportPath, e.cfg.ParameterName)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.Endpoint, strings.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create report request: %w", err)
	}
	req.Header.Set("Content-Type", "application/soap+xml;charset=UTF-8")
	req.Header.Set("SOAPAction", "runReport")
	req.SetBasicAuth(e.cfg.Username, e.cfg.Password)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to connect to report service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read report response: %w", err)
	}

	e.logger.Info(logModule, "Report service responded", map[string]interface{}{"status": resp.StatusCode})
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 500)}
	}

	reportBytes, err := ExtractReportBytes(body)
	if err != nil {
		return "", err
	}

	csvData, err := base64.StdEncoding.DecodeString(reportBytes)
	if err != nil {
		return "", fmt.Errorf("decode reportBytes: %w", err)
	}
	return string(csvData), nil
}

// ExtractReportBytes returns the text of the first reportBytes element in the
// PublicReportService namespace.
func ExtractReportBytes(body []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return "", ErrMissingReportBytes
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse report response: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "reportBytes" || start.Name.Space != PublicReportServiceNS {
			continue
		}

		var text string
		if err := dec.DecodeElement(&text, &start); err != nil {
			return "", fmt.Errorf("failed to parse reportBytes: %w", err)
		}
		text = strings.Join(strings.Fields(text), "")
		if text == "" {
			return "", ErrMissingReportBytes
		}
		return text, nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
