// Package eventclient is the request service's HTTP client for the event
// service interaction API.
package eventclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ewm-participation/internal/config"
	"ewm-participation/internal/domain"
	"ewm-participation/internal/logger"
	"ewm-participation/internal/security"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const remoteName = "event-service"

// Client calls the event service. Slot calls carry the request id, so every
// call can be retried without double counting.
type Client struct {
	baseURL     *url.URL
	http        *http.Client
	tokens      security.TokenManager
	serviceName string

	maxTries        uint
	initialInterval time.Duration
	maxElapsed      time.Duration
}

// New builds a client from cfg. httpClient may be nil.
func New(cfg config.EventServiceConfig, tokens security.TokenManager, serviceName string, httpClient *http.Client) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse event service url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		baseURL:         base,
		http:            httpClient,
		tokens:          tokens,
		serviceName:     serviceName,
		maxTries:        cfg.MaxRetries + 1,
		initialInterval: cfg.InitialInterval,
		maxElapsed:      cfg.MaxElapsedTime,
	}, nil
}

type reserveResponse struct {
	Reserved bool `json:"reserved"`
}

type releaseResponse struct {
	Released bool `json:"released"`
}

// errorResponse is the subset of the ApiError envelope the client needs.
type errorResponse struct {
	Status  string `json:"status"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func (c *Client) GetAdmission(ctx context.Context, eventID int64) (*domain.AdmissionParams, error) {
	var params domain.AdmissionParams
	err := c.call(ctx, "GetAdmission", http.MethodGet, fmt.Sprintf("/interaction/events/%d", eventID), nil, &params,
		attribute.Int64("event.id", eventID))
	if err != nil {
		return nil, err
	}
	return &params, nil
}

func (c *Client) Reserve(ctx context.Context, eventID, requestID int64) (bool, error) {
	var resp reserveResponse
	err := c.call(ctx, "Reserve", http.MethodPut, slotPath(eventID, requestID), nil, &resp,
		attribute.Int64("event.id", eventID), attribute.Int64("request.id", requestID))
	return resp.Reserved, err
}

func (c *Client) Release(ctx context.Context, eventID, requestID int64) (bool, error) {
	var resp releaseResponse
	err := c.call(ctx, "Release", http.MethodDelete, slotPath(eventID, requestID), nil, &resp,
		attribute.Int64("event.id", eventID), attribute.Int64("request.id", requestID))
	return resp.Released, err
}

// Restore takes the slot back for a request that is still confirmed.
func (c *Client) Restore(ctx context.Context, eventID, requestID int64) error {
	query := url.Values{"requestId": {strconv.FormatInt(requestID, 10)}}
	return c.call(ctx, "Restore", http.MethodPatch,
		fmt.Sprintf("/interaction/events/%d/participation/confirm", eventID), query, nil,
		attribute.Int64("event.id", eventID), attribute.Int64("request.id", requestID))
}

func slotPath(eventID, requestID int64) string {
	return fmt.Sprintf("/interaction/events/%d/slots/%d", eventID, requestID)
}

func (c *Client) call(ctx context.Context, op, method, path string, query url.Values, out any, attrs ...attribute.KeyValue) error {
	ctx, span := otel.Tracer("ewm-participation/eventclient").Start(ctx, "eventclient."+op,
		trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
	defer span.End()

	logger.RemoteCall(remoteName, op, "method", method, "path", path)

	u := c.baseURL.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	b := backoff.NewExponentialBackOff()
	if c.initialInterval > 0 {
		b.InitialInterval = c.initialInterval
	}

	attempts := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		return struct{}{}, c.do(ctx, method, u.String(), out)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithMaxElapsedTime(c.maxElapsed),
	)

	span.SetAttributes(attribute.Int("attempts", attempts))
	logger.RemoteResult(remoteName, op, attempts, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		var de *domain.Error
		if errors.As(err, &de) {
			return err
		}
		return domain.Unavailable(err)
	}
	return nil
}

// do performs one attempt. Answers from the event service other than 5xx
// are final and wrapped with backoff.Permanent.
func (c *Client) do(ctx context.Context, method, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build request: %w", err))
	}

	token, err := c.tokens.GenerateServiceToken(c.serviceName)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("sign service token: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if id := logger.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("event service returned %s", resp.Status)
	case resp.StatusCode >= 400:
		return backoff.Permanent(decodeError(resp))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return backoff.Permanent(fmt.Errorf("decode %s response: %w", target, err))
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Message == "" {
		body.Message = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		if body.Reason == "" {
			body.Reason = domain.ErrEventNotFound.Reason
		}
		return domain.NewError(domain.KindNotFound, body.Reason, body.Message)
	case http.StatusUnauthorized, http.StatusForbidden:
		if body.Reason == "" {
			body.Reason = domain.ErrUnauthorized.Reason
		}
		return domain.NewError(domain.KindForbidden, body.Reason, body.Message)
	case http.StatusConflict:
		return domain.NewError(domain.KindConflict, body.Reason, body.Message)
	case http.StatusBadRequest:
		if body.Reason == "" {
			body.Reason = domain.ErrValidation.Reason
		}
		return domain.NewError(domain.KindValidation, body.Reason, body.Message)
	default:
		return domain.NewError(domain.KindInternal, body.Reason, body.Message)
	}
}
