package notification

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	domain "github.com/riskibarqy/matchday/internal/domain/notification"
	"github.com/riskibarqy/matchday/internal/platform/logging"
	"github.com/riskibarqy/matchday/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var errQStashTransient = crerr.New("qstash transient failure")

type QStashSinkConfig struct {
	BaseURL        string
	Token          string
	TargetURL      string
	Retries        int
	ForwardToken   string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// QStashSink hands system messages to QStash, which delivers them to the
// messaging service webhook with its own retry policy.
type QStashSink struct {
	client       *http.Client
	baseURL      string
	token        string
	targetURL    string
	retries      int
	forwardToken string
	logger       *logging.Logger
	breaker      *resilience.CircuitBreaker
	now          func() time.Time
}

func NewQStashSink(cfg QStashSinkConfig, logger *logging.Logger) *QStashSink {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}

	logger = logger.Named("notification.qstash")

	return &QStashSink{
		client:       &http.Client{Timeout: timeout},
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:        strings.TrimSpace(cfg.Token),
		targetURL:    strings.TrimSpace(cfg.TargetURL),
		retries:      cfg.Retries,
		forwardToken: strings.TrimSpace(cfg.ForwardToken),
		logger:       logger,
		breaker:      resilience.NewCircuitBreaker("qstash", cfg.CircuitBreaker, resilience.WithLogger(logger)),
		now:          time.Now,
	}
}

func (s *QStashSink) PostSystemMessage(ctx context.Context, tenantID, content string) error {
	msg := domain.Message{TenantID: tenantID, Content: content, SentAt: s.now().UTC()}
	if err := msg.Validate(); err != nil {
		return err
	}

	err := s.breaker.Do(func() error { return s.publish(ctx, msg) }, isQStashCircuitFailure)
	if stderrors.Is(err, resilience.ErrCircuitOpen) {
		s.logger.WarnContext(ctx, "qstash circuit breaker rejected request", "tenant_id", tenantID)
		return fmt.Errorf("qstash is temporarily unavailable: %w", err)
	}
	return err
}

func (s *QStashSink) publish(ctx context.Context, msg domain.Message) error {
	baseURL, err := validateHTTPBaseURL(s.baseURL)
	if err != nil {
		return crerr.Wrap(err, "invalid QSTASH_BASE_URL")
	}
	targetURL, err := validateHTTPBaseURL(s.targetURL)
	if err != nil {
		return crerr.Wrap(err, "invalid QSTASH_TARGET_URL")
	}
	publishURL := baseURL + "/v2/publish/" + targetURL

	body, err := jsoniter.Marshal(msg)
	if err != nil {
		return crerr.Wrap(err, "marshal system message")
	}
	dedupID := deduplicationID(msg)
	bodyText := truncateForLog(string(body), 4096)
	curlPreview := buildQStashCurlPreview(publishURL, s.retries, dedupID, bodyText, s.forwardToken != "")

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("qstash.publish_url", publishURL),
			attribute.String("qstash.target_url", targetURL),
			attribute.String("qstash.deduplication_id", dedupID),
			attribute.String("qstash.request_curl_preview", curlPreview),
		)
	}
	s.logger.DebugContext(ctx, "qstash publish request", "tenant_id", msg.TenantID, "target_url", targetURL, "curl_preview", curlPreview)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, publishURL, bytes.NewReader(body))
	if err != nil {
		return crerr.Wrap(err, "create qstash request")
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Upstash-Method", http.MethodPost)
	req.Header.Set("Upstash-Deduplication-Id", dedupID)
	if s.retries > 0 {
		req.Header.Set("Upstash-Retries", strconv.Itoa(s.retries))
	}
	if s.forwardToken != "" {
		req.Header.Set("Upstash-Forward-X-Internal-Token", s.forwardToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: publish system message target_url=%s: %v", errQStashTransient, targetURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if isQStashRetryableStatus(resp.StatusCode) {
			return fmt.Errorf("%w: publish system message status=%d target_url=%s body=%s",
				errQStashTransient, resp.StatusCode, targetURL, strings.TrimSpace(string(raw)))
		}
		return fmt.Errorf("publish system message status=%d target_url=%s body=%s",
			resp.StatusCode, targetURL, strings.TrimSpace(string(raw)))
	}

	s.logger.InfoContext(ctx, "system message queued", "tenant_id", msg.TenantID, "deduplication_id", dedupID)
	return nil
}

// deduplicationID keys a message by tenant and content so a retried
// publish of the same announcement is delivered once.
func deduplicationID(msg domain.Message) string {
	sum := sha256.Sum256([]byte(msg.TenantID + "\x00" + msg.Content))
	return "sysmsg-" + hex.EncodeToString(sum[:12])
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}

func buildQStashCurlPreview(publishURL string, retries int, dedupID, body string, withForwardToken bool) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}
	appendHeader := func(value string) {
		appendPart("-H")
		appendPart(shellQuote(value))
	}

	appendPart("curl -X POST")
	appendPart(shellQuote(publishURL))
	appendHeader("Authorization: Bearer ***")
	appendHeader("Content-Type: application/json")
	appendHeader("Upstash-Method: POST")
	appendHeader("Upstash-Deduplication-Id: " + dedupID)
	if retries > 0 {
		appendHeader("Upstash-Retries: " + strconv.Itoa(retries))
	}
	if withForwardToken {
		appendHeader("Upstash-Forward-X-Internal-Token: ***")
	}
	appendPart("-d")
	appendPart(shellQuote(body))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}

func isQStashCircuitFailure(err error) bool {
	return stderrors.Is(err, errQStashTransient)
}

func isQStashRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
