package schnitz

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// Client configuration
type ClientConfig struct {
	Timeout         time.Duration
	ZstdCompression bool
}

type Client struct {
	config      *ClientConfig
	restyClient *resty.Client
	mu          sync.Mutex // guards encoder
	encoder     *zstd.Encoder
	decoder     *zstd.Decoder
}

// NewClient creates a new schnitz client
func NewClient(config *ClientConfig) (*Client, error) {
	if config == nil {
		config = &ClientConfig{ZstdCompression: true}
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultClientTimeout * time.Second
	}

	restyClient := resty.New().
		SetTimeout(config.Timeout).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)

	client := &Client{
		config:      config,
		restyClient: restyClient,
	}

	if config.ZstdCompression {
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		client.encoder = encoder

		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		client.decoder = decoder
	}
	return client, nil
}

// Close cleans up client resources
func (c *Client) Close() {
	if c.encoder != nil {
		c.encoder.Close()
	}
	if c.decoder != nil {
		c.decoder.Close()
	}
}

func (c *Client) buildHeaders() map[string]string {
	headers := map[string]string{
		"Content-Type": "application/json",
	}
	if c.config.ZstdCompression {
		headers["Accept-Encoding"] = "zstd"
		headers["Content-Encoding"] = "zstd"
	}
	return headers
}

func (c *Client) compress(data []byte) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.encoder.EncodeAll(data, nil)
}

// makeRequest posts request to the route named after its type and decodes
// the StdResponse body into response.
func (c *Client) makeRequest(
	ctx context.Context,
	baseURL string,
	request any,
	response any,
) error {
	if response == nil || reflect.ValueOf(response).Kind() != reflect.Ptr ||
		reflect.ValueOf(response).IsNil() {
		return fmt.Errorf("invalid response: must be a non-nil pointer")
	}

	requestType := reflect.TypeOf(request)
	if requestType.Kind() == reflect.Ptr {
		requestType = requestType.Elem()
	}
	endpoint := strings.TrimSuffix(baseURL, "/") + "/" + requestType.Name()
	headers := c.buildHeaders()

	log.Trace().
		Interface("headers", headers).
		Str("endpoint", endpoint).
		Msg("Request headers")

	jsonData, err := sonic.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	body := jsonData
	if c.config.ZstdCompression && c.encoder != nil {
		body = c.compress(jsonData)
	}

	resp, err := c.restyClient.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(body).
		Post(endpoint)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}

	// Decompress before error checking so error bodies are readable
	responseBody := resp.Body()
	if c.decoder != nil && resp.Header().Get("Content-Encoding") == "zstd" {
		decompressed, err := c.decoder.DecodeAll(responseBody, nil)
		if err != nil {
			return fmt.Errorf("failed to decompress response: %w", err)
		}
		responseBody = decompressed
	}

	responseType := reflect.TypeOf(response).Elem()
	stdResponseType := reflect.StructOf([]reflect.StructField{
		{Name: "Body", Type: responseType, Tag: `json:"body"`},
		{Name: "Error", Type: reflect.TypeOf((*string)(nil)), Tag: `json:"error,omitempty"`},
	})
	stdResponseValue := reflect.New(stdResponseType)
	if err := sonic.Unmarshal(responseBody, stdResponseValue.Interface()); err != nil {
		if resp.IsError() {
			return &HTTPError{StatusCode: resp.StatusCode(), Message: string(responseBody)}
		}
		return fmt.Errorf("failed to unmarshal StdResponse: %w", err)
	}

	errorField := stdResponseValue.Elem().FieldByName("Error")
	if !errorField.IsNil() || resp.IsError() {
		msg := ""
		if !errorField.IsNil() {
			msg = errorField.Elem().String()
		}
		return &HTTPError{StatusCode: resp.StatusCode(), Message: msg}
	}

	reflect.ValueOf(response).Elem().Set(stdResponseValue.Elem().FieldByName("Body"))
	return nil
}

// Send posts request to baseURL and decodes the reply into response, which
// must be a non-nil pointer.
func (c *Client) Send(ctx context.Context, baseURL string, request, response any) error {
	return c.makeRequest(ctx, baseURL, request, response)
}

// SendMany sends requests[i] to baseUrls[i] concurrently. The returned
// slice holds one error slot per request.
func SendMany[Req, Resp any](
	ctx context.Context,
	c *Client,
	baseUrls []string,
	requests []Req,
	responses []*Resp,
) []error {
	if len(baseUrls) != len(requests) || len(baseUrls) != len(responses) {
		log.Error().Msg("baseUrls, requests, and responses must have the same length")
		return []error{fmt.Errorf("baseUrls, request, and response must have the same length")}
	}

	errs := make([]error, len(baseUrls))
	var wg sync.WaitGroup
	wg.Add(len(baseUrls))

	for i, url := range baseUrls {
		go func(index int, url string, request Req, response *Resp) {
			defer wg.Done()
			if err := c.makeRequest(ctx, url, request, response); err != nil {
				errs[index] = fmt.Errorf("error in request %d: %w", index, err)
			}
		}(i, url, requests[i], responses[i])
	}

	wg.Wait()
	return errs
}

// HTTPError is a non-2xx reply or an error reported in StdResponse.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error %d: %s", e.StatusCode, e.Message)
}
