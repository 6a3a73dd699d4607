package services

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/docforge/docforge-backend/internal/logger"
	"github.com/docforge/docforge-backend/internal/trace"
	"github.com/docforge/docforge-backend/internal/types"
)

// UseAPIFlagKey is the reserved parameter a caller can set to force manual
// data; it is consumed here and never reaches the pipeline.
const UseAPIFlagKey = "_useApi"

// ExtractUseAPIFlag strips the _useApi flag from the parameter mapping and
// reports whether the API branch should be taken (default true). Only the
// literal string "true" (case-insensitive) enables the API branch; every
// other value, including "1" and "t", means manual data.
func ExtractUseAPIFlag(params map[string]interface{}) (map[string]interface{}, bool) {
	useAPI := true
	if params == nil {
		return map[string]interface{}{}, useAPI
	}
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		if k == UseAPIFlagKey {
			if v != nil {
				useAPI = strings.EqualFold(fmt.Sprint(v), "true")
			}
			continue
		}
		out[k] = v
	}
	return out, useAPI
}

// DataSourceResult is the outcome of the data acquisition stage.
type DataSourceResult struct {
	Data         map[string]interface{}
	Source       string // types.DataSourceAPI or types.DataSourceManual
	ResponseData string // serialized resolved data, or a fallback explanation
}

type DataSourceResolver interface {
	Resolve(ctx context.Context, apiURL string, useAPI bool, params map[string]interface{}, rec *trace.Recorder) DataSourceResult
}

type dataSourceResolver struct {
	log    *logger.Logger
	client *http.Client
}

// NewDataSourceResolver builds the resolver with a bounded HTTP client.
// Certificate validation is strict unless insecureTLS explicitly opts into
// accept-all trust for dev/test endpoints.
func NewDataSourceResolver(log *logger.Logger, timeout time.Duration, insecureTLS bool) DataSourceResolver {
	serviceLog := log.With("service", "DataSourceResolver")
	client := &http.Client{Timeout: timeout}
	if insecureTLS {
		serviceLog.Warn("TLS certificate validation disabled for data API calls")
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &dataSourceResolver{log: serviceLog, client: client}
}

func (r *dataSourceResolver) Resolve(ctx context.Context, apiURL string, useAPI bool, params map[string]interface{}, rec *trace.Recorder) DataSourceResult {
	if params == nil {
		params = map[string]interface{}{}
	}
	if !useAPI || strings.TrimSpace(apiURL) == "" {
		rec.Info("using manually supplied parameters as report data")
		return DataSourceResult{Data: params, Source: types.DataSourceManual}
	}

	rec.Info("fetching report data from API: " + apiURL)
	data, err := r.fetch(ctx, apiURL, params)
	if err != nil {
		r.log.Error("API fetch failed, falling back to manual parameters", "url", apiURL, "error", err)
		rec.ErrorWith("API fetch failed: "+err.Error(), err)
		rec.Info("falling back to manually supplied parameters")
		return DataSourceResult{
			Data:         params,
			Source:       types.DataSourceManual,
			ResponseData: "API call failed, fell back to manual data: " + err.Error(),
		}
	}

	rec.Info(fmt.Sprintf("API data fetched, %d top-level fields", len(data)))
	serialized, merr := json.Marshal(data)
	if merr != nil {
		serialized = []byte("{}")
	}
	return DataSourceResult{
		Data:         data,
		Source:       types.DataSourceAPI,
		ResponseData: string(serialized),
	}
}

// fetch issues a single GET with every parameter appended as a query
// parameter and parses the response body as a JSON object.
func (r *dataSourceResolver) fetch(ctx context.Context, apiURL string, params map[string]interface{}) (map[string]interface{}, error) {
	u, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("malformed API URL: %w", err)
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, stringifyParam(v))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build API request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API call failed with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read API response: %w", err)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("API response is not a JSON object: %w", err)
	}
	// A literal null body unmarshals into a nil map without error.
	if data == nil {
		return nil, fmt.Errorf("API response is not a JSON object: null body")
	}
	return data, nil
}

func stringifyParam(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
