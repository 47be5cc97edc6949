package armorvox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/auraya/voicebank/pkg/activity"
)

const defaultTimeout = 30 * time.Second

// Client issues ArmorVox API operations. It is stateless apart from its
// configuration and safe for concurrent use.
type Client struct {
	config clientConfig
}

type clientConfig struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	activity   *activity.Counter
}

// Option configures a Client.
type Option func(*clientConfig)

// WithHTTPClient sets a custom HTTP client. Useful for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout (default 30s). Ignored when
// a custom HTTP client is supplied.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.timeout = d }
}

// WithActivity attaches a network-activity counter. Every operation
// increments it on dispatch and decrements it on completion, success or
// failure.
func WithActivity(a *activity.Counter) Option {
	return func(c *clientConfig) { c.activity = a }
}

// NewClient creates a client for the ArmorVox server at baseURL
// (e.g. "http://52.65.165.8:9006/v5/"). The URL is validated here so a
// bad configuration surfaces before any operation is attempted.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBaseURL, baseURL)
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	config := clientConfig{
		baseURL: baseURL,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.httpClient == nil {
		config.httpClient = &http.Client{Timeout: config.timeout}
	}
	return &Client{config: config}, nil
}

// CheckEnrolled asks whether userID is enrolled for the given item type.
// The response condition is enrolled, not_enrolled, fail or error.
func (c *Client) CheckEnrolled(ctx context.Context, sessionID string, userID UserID, typ SpeechItemType) (*Response, error) {
	fields, err := commonFields(sessionID, userID, &typ)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, "checkEnrolled", fields, nil, nil)
}

// DeleteUser deletes all data associated with userID and the given item
// type. The response condition is good, not_enrolled, fail or error.
func (c *Client) DeleteUser(ctx context.Context, sessionID string, userID UserID, typ SpeechItemType) (*Response, error) {
	fields, err := commonFields(sessionID, userID, &typ)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, "deleteUser", fields, nil, nil)
}

// EnrolByPhrase submits exactly three recordings of the same phrase for
// enrolment. The count is checked before any network I/O.
func (c *Client) EnrolByPhrase(ctx context.Context, sessionID string, userID UserID, typ SpeechItemType, utterances []Utterance) (*Response, error) {
	if len(utterances) != 3 {
		return nil, fmt.Errorf("%w: expected 3 utterances, got %d", ErrUtteranceCount, len(utterances))
	}
	fields, err := commonFields(sessionID, userID, &typ)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, "auraya_enrol", fields, utterances, nil)
}

// EnrolByNumbers submits exactly five prompted-number recordings, each
// paired with the text that was prompted. The counts are checked before
// any network I/O.
func (c *Client) EnrolByNumbers(ctx context.Context, sessionID string, userID UserID, utterances []Utterance, phrases []string) (*Response, error) {
	if len(utterances) != 5 {
		return nil, fmt.Errorf("%w: expected 5 utterances, got %d", ErrUtteranceCount, len(utterances))
	}
	if len(phrases) != 5 {
		return nil, fmt.Errorf("%w: expected 5 phrases, got %d", ErrUtteranceCount, len(phrases))
	}
	fields, err := commonFields(sessionID, userID, nil)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, "text_prompted_enrol", fields, utterances, phrases)
}

// VerifyByPhrase submits a single phrase recording for verification.
// The response condition is good, not_enrolled, qafailed, fail or error.
func (c *Client) VerifyByPhrase(ctx context.Context, sessionID string, userID UserID, typ SpeechItemType, utterance Utterance) (*Response, error) {
	fields, err := commonFields(sessionID, userID, &typ)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, "auraya_verify", fields, []Utterance{utterance}, nil)
}

// VerifyByNumbers submits a single prompted-number recording with the
// prompted text. The response condition is good, unsure, not_enrolled,
// qafailed, fail or error.
func (c *Client) VerifyByNumbers(ctx context.Context, sessionID string, userID UserID, utterance Utterance, phrase string) (*Response, error) {
	fields, err := commonFields(sessionID, userID, nil)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, "text_prompted_verify", fields, []Utterance{utterance}, []string{phrase})
}

// commonFields builds the scalar field set shared by every operation.
// typ is nil for the two text-prompted operations, which carry no Type.
func commonFields(sessionID string, userID UserID, typ *SpeechItemType) (map[string]string, error) {
	if len(sessionID) > MaxSessionIDLen {
		return nil, fmt.Errorf("%w: %d chars", ErrSessionID, len(sessionID))
	}
	fields := map[string]string{
		"UserID":    strconv.Itoa(int(userID)),
		"SessionID": sessionID,
	}
	if typ != nil {
		fields["Type"] = strconv.Itoa(int(*typ))
	}
	return fields, nil
}

func (c *Client) post(ctx context.Context, endpoint string, fields map[string]string, utterances []Utterance, phrases []string) (*Response, error) {
	if c.config.activity != nil {
		c.config.activity.Add()
		defer c.config.activity.Done()
	}

	body, contentType, err := encodeBody(fields, utterances, phrases)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("armorvox: create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.config.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("armorvox: %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("armorvox: %s: read response: %w", endpoint, err)
	}
	// The server reports its outcome in the XML body regardless of HTTP
	// status, so the body is decoded unconditionally.
	return DecodeResponse(raw)
}
