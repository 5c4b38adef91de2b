package client

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// loggingTransport logs every request sent to the PKI API and what it returned. Bodies of non-2xx
// responses are kept in the log line.
type loggingTransport struct {
	next http.RoundTripper
}

func withLogging(c *http.Client) *http.Client {
	if _, ok := c.Transport.(*loggingTransport); ok {
		return c
	}
	next := c.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	logged := *c
	logged.Transport = &loggingTransport{next: next}
	return &logged
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	logrus.Debugf("Request %s %s started.", req.Method, req.URL.Path)
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		logrus.Warnf("Request %s %s failed: %v", req.Method, req.URL.Path, err)
		return nil, err
	}

	if resp.StatusCode/100 == 5 {
		logrus.Errorf("Request %s %s returned %s", req.Method, req.URL.Path, returned(resp))
	} else {
		logrus.Debugf("Request %s %s returned %s", req.Method, req.URL.Path, returned(resp))
	}
	return resp, nil
}

// returned reads the body of a non-2xx response for the log line and puts it back for the caller.
func returned(resp *http.Response) string {
	if resp.StatusCode/100 == 2 || resp.Body == nil {
		return fmt.Sprintf("%d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(body))
	if len(body) > 0 {
		return fmt.Sprintf("%d %s", resp.StatusCode, string(bytes.TrimSpace(body)))
	}
	return fmt.Sprintf("%d", resp.StatusCode)
}
