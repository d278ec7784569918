// Package storage is a thin client for a Supabase-style object storage HTTP
// API: authenticated uploads into a bucket, public URLs for reads.
package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const BATTLE_IMAGE_BUCKET = "battle-images"

var (
	ErrInvalidDataURI = errors.New("invalid image data uri")
)

type Config struct {
	BaseURL        string        `env:"STORAGE_URL"`
	ServiceKey     string        `env:"STORAGE_SERVICE_KEY"`
	Bucket         string        `env:"STORAGE_BUCKET" envDefault:"battle-images"`
	RequestTimeout time.Duration `env:"STORAGE_REQUEST_TIMEOUT" envDefault:"30s"`
}

func ConfigFromEnv() (Config, error) {
	var config Config
	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("failed to parse storage config: %w", err)
	}
	return config, nil
}

type Client struct {
	config Config
	http   *http.Client
}

func NewClient(config Config) *Client {
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.Bucket == "" {
		config.Bucket = BATTLE_IMAGE_BUCKET
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 30 * time.Second
	}
	return &Client{
		config: config,
		http:   &http.Client{Timeout: config.RequestTimeout},
	}
}

// Upload writes an object, overwriting any existing one at the same path,
// and returns the public URL it will be served from.
func (c *Client) Upload(ctx context.Context, path string, data []byte, mimeType string) (string, error) {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.config.BaseURL, c.config.Bucket, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.ServiceKey)
	req.Header.Set("Content-Type", mimeType)
	req.Header.Set("x-upsert", "true")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return c.PublicURL(path), nil
}

func (c *Client) PublicURL(path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.config.BaseURL, c.config.Bucket, path)
}

// ParseImageDataURI splits a data:image/...;base64 URI into its mime type
// and decoded bytes.
func ParseImageDataURI(dataURI string) (string, []byte, error) {
	parts := strings.SplitN(dataURI, ",", 2)
	if len(parts) != 2 {
		return "", nil, ErrInvalidDataURI
	}

	if !strings.HasPrefix(parts[0], "data:") || !strings.HasSuffix(parts[0], ";base64") {
		return "", nil, ErrInvalidDataURI
	}
	header := strings.TrimSuffix(strings.TrimPrefix(parts[0], "data:"), ";base64")
	if !strings.HasPrefix(header, "image/") {
		return "", nil, ErrInvalidDataURI
	}

	data, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode image payload: %w", err)
	}
	if len(data) == 0 {
		return "", nil, ErrInvalidDataURI
	}

	return header, data, nil
}

// FileExtension maps an image mime type to the extension used in storage
// paths. Unknown subtypes fall back to png.
func FileExtension(mimeType string) string {
	ext := strings.TrimPrefix(mimeType, "image/")
	if ext == "" || ext == mimeType {
		return "png"
	}
	return ext
}
