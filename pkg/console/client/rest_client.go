// Package client talks to the remote PKI REST API. It provides the ListFetcher and bulk entity source
// collaborators of the console core.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	otlp_util "github.com/bluexlab/otlp-util-go"
	"github.com/goccy/go-json"
	"github.com/openebl/pkiconsole/pkg/console/listing"
	"github.com/openebl/pkiconsole/pkg/console/model"
	"github.com/openebl/pkiconsole/pkg/util"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	REQUESTER_HEADER  = "X-Requester"
	REQUEST_ID_HEADER = "X-Request-ID"

	casPath          = "/v1/cas"
	certificatesPath = "/v1/certificates"
)

type RestClient struct {
	server     string // http://server
	requester  string
	httpClient *http.Client
	limiter    *rate.Limiter

	requestCount metric.Int64Counter
}

type RestClientOption func(*RestClient)

func WithRequester(requester string) RestClientOption {
	return func(r *RestClient) {
		r.requester = requester
	}
}

func WithHTTPClient(httpClient *http.Client) RestClientOption {
	return func(r *RestClient) {
		r.httpClient = httpClient
	}
}

func WithTimeout(timeout time.Duration) RestClientOption {
	return func(r *RestClient) {
		if timeout > 0 {
			r.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithRateLimit caps the outbound request rate. Zero or negative means unlimited.
func WithRateLimit(requestsPerSecond float64) RestClientOption {
	return func(r *RestClient) {
		if requestsPerSecond > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
		}
	}
}

func NewRestClient(server string, opts ...RestClientOption) *RestClient {
	r := &RestClient{
		server:     strings.TrimRight(server, "/"),
		httpClient: http.DefaultClient,
		requestCount: otlp_util.NewInt64Counter(
			"console.client.request.count",
			metric.WithDescription("The total number of requests sent to the PKI API"),
		),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.httpClient = withLogging(r.httpClient)
	return r
}

func (r *RestClient) ListCAs(ctx context.Context, req listing.FetchRequest) (listing.Page[model.Entity], error) {
	if err := listing.ValidateFetchRequest(req); err != nil {
		return listing.Page[model.Entity]{}, err
	}

	resp := listResponse[caRecord]{}
	if err := r.execute(ctx, http.MethodGet, casPath, listQuery(req), &resp); err != nil {
		return listing.Page[model.Entity]{}, err
	}

	page := listing.Page[model.Entity]{Rows: make([]model.Entity, 0, len(resp.List)), Next: resp.Next}
	for _, record := range resp.List {
		page.Rows = append(page.Rows, record.toEntity())
	}
	return page, nil
}

func (r *RestClient) ListCertificates(ctx context.Context, req listing.FetchRequest) (listing.Page[model.Entity], error) {
	if err := listing.ValidateFetchRequest(req); err != nil {
		return listing.Page[model.Entity]{}, err
	}

	resp := listResponse[certificateRecord]{}
	if err := r.execute(ctx, http.MethodGet, certificatesPath, listQuery(req), &resp); err != nil {
		return listing.Page[model.Entity]{}, err
	}

	page := listing.Page[model.Entity]{Rows: make([]model.Entity, 0, len(resp.List)), Next: resp.Next}
	for _, record := range resp.List {
		page.Rows = append(page.Rows, record.toEntity())
	}
	return page, nil
}

func (r *RestClient) GetCA(ctx context.Context, id string) (model.Entity, error) {
	if id == "" {
		return model.Entity{}, fmt.Errorf("CA id is required%w", model.ErrInvalidParameter)
	}

	record := caRecord{}
	if err := r.execute(ctx, http.MethodGet, casPath+"/"+url.PathEscape(id), nil, &record); err != nil {
		return model.Entity{}, err
	}
	return record.toEntity(), nil
}

func (r *RestClient) GetCertificate(ctx context.Context, serialNumber string) (model.Entity, error) {
	if serialNumber == "" {
		return model.Entity{}, fmt.Errorf("serial number is required%w", model.ErrInvalidParameter)
	}

	record := certificateRecord{}
	if err := r.execute(ctx, http.MethodGet, certificatesPath+"/"+url.PathEscape(serialNumber), nil, &record); err != nil {
		return model.Entity{}, err
	}
	return record.toEntity(), nil
}

func listQuery(req listing.FetchRequest) url.Values {
	query := url.Values{}
	query.Set("page_size", strconv.Itoa(req.PageSize))
	if req.Bookmark != listing.FirstPage {
		query.Set("bookmark", req.Bookmark)
	}
	if req.Sort.Field != "" {
		query.Set("sort_by", req.Sort.Field)
		query.Set("sort_mode", string(req.Sort.Direction))
	}
	for _, f := range req.Filters {
		query.Add("filter", f.String())
	}
	return query
}

func (r *RestClient) execute(ctx context.Context, method, path string, query url.Values, result any) error {
	ctx, span := otlp_util.Start(ctx, "console/client.RestClient.execute",
		trace.WithAttributes(attribute.String("http.method", method), attribute.String("http.path", path)),
	)
	defer span.End()

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	endPoint := r.server + path
	if len(query) > 0 {
		endPoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endPoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(REQUEST_ID_HEADER, util.NewUUID())
	if r.requester != "" {
		req.Header.Set(REQUESTER_HEADER, r.requester)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer resp.Body.Close()

	status := resp.StatusCode
	r.requestCount.Add(ctx, 1, metric.WithAttributes(attribute.String("path", path), attribute.Int("status", status)))
	if status/100 != 2 {
		message, _ := io.ReadAll(resp.Body)
		span.SetStatus(codes.Error, http.StatusText(status))
		return fmt.Errorf("request failed with status %d, message: %s%w", status, strings.TrimSpace(string(message)), model.ErrFromHttpStatus(status))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response of %s: %w", path, err)
	}
	return nil
}
