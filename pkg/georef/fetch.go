package georef

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/carroceria-sur/taller/internal/resilience"
)

// request describes one Georef call.
type request struct {
	op       Operation
	endpoint string
	params   url.Values
}

// key identifies the request for caching and deduplication. Encode sorts
// the parameters, so their insertion order does not matter.
func (r request) key(baseURL string) string {
	return baseURL + r.endpoint + "?" + r.params.Encode()
}

// fetch serves r from the cache, joins an identical in-flight call, or
// starts a new one. A started call runs to completion even if every caller
// stops waiting, so its result still lands in the cache.
func fetch[T any](ctx context.Context, c *httpClient, r request, decode func(io.Reader) (T, error)) (T, error) {
	var zero T
	key := r.key(c.baseURL)

	if v, ok := c.cache.get(key); ok {
		if val, ok := v.(T); ok {
			c.metrics.observeCache(r.op, true)
			zap.L().Debug("georef: cache hit", zap.String("key", key))
			return val, nil
		}
	}
	c.metrics.observeCache(r.op, false)

	flightCtx := context.WithoutCancel(ctx)
	ch := c.flights.DoChan(key, func() (any, error) {
		val, err := resilience.DoVal(flightCtx, c.retryFor(r.op), func(ctx context.Context) (T, error) {
			wait, err := c.limiter.Wait(ctx)
			c.metrics.observeWait(wait)
			if err != nil {
				return zero, err
			}
			return get(ctx, c, r, key, decode)
		})
		if err != nil {
			return nil, fromFailure(err)
		}
		c.cache.set(key, val, c.ttls.forOperation(r.op))
		return val, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// get performs a single HTTP attempt and classifies its failure.
func get[T any](ctx context.Context, c *httpClient, r request, u string, decode func(io.Reader) (T, error)) (T, error) {
	var zero T

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return zero, resilience.NewFailure(resilience.KindBadRequest, 0, eris.Wrap(err, "georef: create request"))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.observeRequest(r.op, resilience.KindNetwork.String())
		return zero, resilience.NetworkFailure(eris.Wrap(err, "georef: send request"))
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		f := resilience.StatusFailure(resp.StatusCode, eris.Errorf("georef: unexpected status %d: %s", resp.StatusCode, string(body)))
		c.metrics.observeRequest(r.op, f.Kind.String())
		return zero, f
	}

	val, err := decode(resp.Body)
	if err != nil {
		c.metrics.observeRequest(r.op, "decode_error")
		return zero, resilience.NewFailure(resilience.KindUnknown, resp.StatusCode, eris.Wrap(err, "georef: decode response"))
	}
	c.metrics.observeRequest(r.op, "ok")
	return val, nil
}

// retryFor returns the retry policy for op with logging and metrics hooked
// into OnRetry.
func (c *httpClient) retryFor(op Operation) resilience.RetryConfig {
	cfg := c.retry
	next := cfg.OnRetry
	logRetry := resilience.RetryLogger("georef", string(op))
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.metrics.observeRetry(op, resilience.KindOf(err).String())
		logRetry(attempt, delay, err)
		if next != nil {
			next(attempt, delay, err)
		}
	}
	return cfg
}

// withFallback applies op's fallback policy to a failed lookup. Validation
// errors and the caller's own cancellation are never absorbed.
func withFallback[T any](ctx context.Context, c *httpClient, op Operation, val T, err error, local func() T) (T, error) {
	if err == nil {
		return val, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return val, ctxErr
	}
	if KindOf(err) == KindValidation || c.policies[op] != FallbackLocal {
		return val, err
	}

	zap.L().Warn("georef: serving fallback data",
		zap.String("operation", string(op)),
		zap.String("kind", KindOf(err).String()),
		zap.Error(unwrapCause(err)),
	)
	c.metrics.observeFallback(op)
	return local(), nil
}

// unwrapCause returns the transport error behind a client error for logging.
func unwrapCause(err error) error {
	var e *Error
	if errors.As(err, &e) && e.Err != nil {
		return e.Err
	}
	return err
}

func decodeProvinces(r io.Reader) ([]Province, error) {
	var resp provincesResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, err
	}
	if resp.Provinces == nil {
		return []Province{}, nil
	}
	return resp.Provinces, nil
}

func decodeLocalities(r io.Reader) ([]Locality, error) {
	var resp localitiesResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, err
	}
	if resp.Localities == nil {
		return []Locality{}, nil
	}
	return resp.Localities, nil
}

func decodeAddresses(r io.Reader) ([]Address, error) {
	var resp addressesResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, err
	}
	if resp.Addresses == nil {
		return []Address{}, nil
	}
	return resp.Addresses, nil
}
