package client

import (
	"bytes"
	"context"
	"encoding/json"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"io/ioutil"
	"net"
	"net/http"
	"net/url"
	"time"
)

// NewHTTPClient returns a http.Client with reasonable default configuration values, notably
// actual timeout values.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: timeout,
			}).DialContext,
			TLSHandshakeTimeout: timeout,
			MaxIdleConnsPerHost: 32,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: timeout,
	}
}

// AuthedClient represents a http client which authenticates every request with the
// tracker admin token
type AuthedClient struct {
	*http.Client
	token    string
	basePath string
	timeout  time.Duration
}

// NewAuthedClient create a new default AuthedClient instance
func NewAuthedClient(token string, basePath string, timeout time.Duration) *AuthedClient {
	return &AuthedClient{
		Client:   NewHTTPClient(timeout),
		token:    token,
		basePath: basePath,
		timeout:  timeout,
	}
}

// Opts defines the request parameters of a HTTP operation
type Opts struct {
	Method  string
	Path    string
	JSON    interface{}
	Headers map[string]string
}

// Response is the fully read response of a request. The body is always consumed and
// closed before it is returned.
type Response struct {
	StatusCode int
	Body       []byte
}

// IsSuccess returns true for 2xx status codes
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}

func (c *AuthedClient) u(path string) (string, error) {
	u, err := url.Parse(c.basePath + path)
	if err != nil {
		return "", err
	}
	if c.token != "" {
		q := u.Query()
		q.Set("token", c.token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Exec sends the request described by opts and returns the fully read response.
// If JSON is not nil, it will be JSON encoded before sending to the host.
//
// Only transport level failures are returned as errors, the status code is left for the
// caller to interpret. Returned errors never contain the request url since it carries the
// admin token.
func (c *AuthedClient) Exec(ctx context.Context, opts Opts) (*Response, error) {
	var body []byte
	if opts.JSON != nil {
		payload, err := json.Marshal(opts.JSON)
		if err != nil {
			return nil, errors.Wrap(err, "Could not encode request body")
		}
		body = payload
	}
	fullURL, errURL := c.u(opts.Path)
	if errURL != nil {
		return nil, errors.Errorf("Invalid request path: %s", opts.Path)
	}
	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	req, errReq := http.NewRequestWithContext(reqCtx, opts.Method, fullURL, bytes.NewReader(body))
	if errReq != nil {
		return nil, errors.Errorf("Could not create %s request for %s", opts.Method, opts.Path)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}
	resp, errDo := c.Do(req)
	if errDo != nil {
		return nil, redact(errDo, opts)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warnf("Failed to close response body: %s", err.Error())
		}
	}()
	respBody, errRead := ioutil.ReadAll(resp.Body)
	if errRead != nil {
		return nil, errors.Wrapf(redact(errRead, opts), "Could not read response body")
	}
	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}

// redact strips the url (and with it the token) from transport errors
func redact(err error, opts Opts) error {
	if urlErr, ok := err.(*url.Error); ok {
		err = urlErr.Err
	}
	return errors.Wrapf(err, "%s %s", opts.Method, opts.Path)
}
