package meta

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog/log"
)

// zstdMagic prefixes every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Load reads a model artifact from a local path or an http(s) URL. The
// artifact is JSON, optionally zstd compressed.
func Load(ctx context.Context, source string) (*Model, error) {
	var (
		raw []byte
		err error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		raw, err = fetch(ctx, source)
	} else {
		raw, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", source, err)
	}

	model, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode model %s: %w", source, err)
	}

	log.Info().
		Str("source", source).
		Str("family", string(model.Family)).
		Str("version", model.Version).
		Msg("meta model loaded")
	return model, nil
}

// Decode parses and validates an artifact.
func Decode(raw []byte) (*Model, error) {
	if bytes.HasPrefix(raw, zstdMagic) {
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer decoder.Close()

		raw, err = decoder.DecodeAll(raw, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress model: %w", err)
		}
	}

	var model Model
	if err := sonic.Unmarshal(raw, &model); err != nil {
		return nil, err
	}
	model.Family = Family(strings.ToUpper(string(model.Family)))
	if err := model.Validate(); err != nil {
		return nil, err
	}
	return &model, nil
}

// Encode serialises a model, compressing it with zstd when compress is set.
func Encode(model *Model, compress bool) ([]byte, error) {
	raw, err := sonic.Marshal(model)
	if err != nil {
		return nil, err
	}
	if !compress {
		return raw, nil
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	defer encoder.Close()
	return encoder.EncodeAll(raw, nil), nil
}

func newHTTPClient() *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 5
	client.HTTPClient.Timeout = 30 * time.Second
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 20 * time.Second
	client.Logger = nil
	return client
}

func fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	log.Debug().Str("url", url).Msg("downloading meta model")
	resp, err := newHTTPClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
