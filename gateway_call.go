package menugate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
)

// Call issues one backend request and normalizes whatever happens into an
// [Envelope]. It never panics and never returns a raw transport error:
//
//  1. The connectivity gate short-circuits to an offline envelope with zero
//     network I/O.
//  2. A valid credential is attached when one can be obtained; failure to
//     refresh is non-fatal and the server's unauthorized answer is
//     normalized instead.
//  3. The call runs under the request's timeout (gateway default when
//     unset); at the deadline the in-flight call is abandoned and any late
//     response discarded.
//  4. 401/403 map to an unauthorized envelope. The gateway does not
//     auto-retry those; the caller may refresh and retry at most once.
//  5. Any other non-2xx maps to a server envelope carrying the backend
//     message.
//  6. Transport-level failures map to a network envelope.
//  7. A 2xx body is decoded defensively: a missing or false success flag is
//     a server failure, and the payload is located through the request's
//     ordered extraction paths.
func (g *Gateway) Call(ctx context.Context, req Request) Envelope {
	if g == nil {
		return failEnvelope(KindServer, ErrGatewayNotReady.Error())
	}

	if !g.monitor.IsOnline() {
		g.metrics.Inc(MetricCallOffline)
		return failEnvelope(KindOffline, "connectivity gate is offline")
	}

	return g.dispatch(ctx, req)
}

func (g *Gateway) dispatch(ctx context.Context, req Request) Envelope {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = g.config.Gateway.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := g.buildRequest(ctx, req)
	if err != nil {
		g.metrics.Inc(MetricCallServer)
		return failEnvelope(KindServer, err.Error())
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return g.transportFailure(ctx, err)
	}
	defer resp.Body.Close()

	return g.normalizeResponse(resp, req.Paths)
}

// Probe checks backend availability under the short probe timeout and feeds
// the verdict into the connectivity monitor, so a recovering backend
// re-opens the gate (and flushes the pending queue) without waiting for a
// platform transition event. It bypasses the offline gate; a probe is how
// the gate re-opens.
func (g *Gateway) Probe(ctx context.Context) bool {
	if g == nil {
		return false
	}

	env := g.dispatch(ctx, Request{
		Method:  http.MethodGet,
		Path:    g.config.Gateway.ProbePath,
		Timeout: g.config.Gateway.ProbeTimeout,
	})

	// An unauthorized or server answer still proves the backend is
	// reachable; only transport-shaped failures count as down.
	reachable := env.Success || env.Kind == KindUnauthorized || env.Kind == KindServer
	g.monitor.SetOnline(reachable)
	return reachable
}

func (g *Gateway) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target := strings.TrimRight(g.config.Gateway.BaseURL, "/") + "/" + strings.TrimLeft(req.Path, "/")

	var body io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	// Inability to obtain a credential is non-fatal: the request proceeds
	// bare and the server's rejection is normalized to unauthorized.
	if cred, err := g.cred.getValidCredential(ctx); err == nil && cred != "" {
		httpReq.Header.Set("Authorization", g.config.Gateway.AuthScheme+" "+cred)
	}

	return httpReq, nil
}

func (g *Gateway) transportFailure(ctx context.Context, err error) Envelope {
	var netErr net.Error
	timedOut := errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout())

	if timedOut {
		g.metrics.Inc(MetricCallTimeout)
		return failEnvelope(KindTimeout, "request deadline exceeded")
	}

	g.metrics.Inc(MetricCallNetwork)
	return failEnvelope(KindNetwork, err.Error())
}

func (g *Gateway) normalizeResponse(resp *http.Response, paths []string) Envelope {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		g.metrics.Inc(MetricCallServer)
		return failEnvelope(KindServer, "response body unreadable")
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		g.metrics.Inc(MetricCallUnauthorized)
		return failEnvelope(KindUnauthorized, messageFromBody(raw, http.StatusText(resp.StatusCode)))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.metrics.Inc(MetricCallServer)
		return failEnvelope(KindServer, messageFromBody(raw, http.StatusText(resp.StatusCode)))
	}

	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		// Malformed is a server-side defect, never a crash.
		g.metrics.Inc(MetricCallServer)
		return failEnvelope(KindServer, "malformed response body")
	}

	obj, _ := body.(map[string]any)
	success, _ := obj["success"].(bool)
	if !success {
		// The wire contract requires an explicit success flag; its absence
		// is treated as failure.
		g.metrics.Inc(MetricCallServer)
		return failEnvelope(KindServer, messageFromBody(raw, "backend reported failure"))
	}

	g.metrics.Inc(MetricCallSuccess)
	return okEnvelope(extract(body, paths))
}

func messageFromBody(raw []byte, fallback string) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return fallback
}
