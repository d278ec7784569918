package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestParseImageDataURI(t *testing.T) {
	payload := []byte("png-bytes")
	encoded := base64.StdEncoding.EncodeToString(payload)

	mime_type, data, err := ParseImageDataURI("data:image/png;base64," + encoded)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if mime_type != "image/png" {
		t.Fatalf("expected image/png, got %q", mime_type)
	}
	if !bytes.Equal(data, payload) {
		t.Fatalf("decoded payload mismatch")
	}
}

func TestParseImageDataURIRejectsMalformed(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("x"))

	tests := []struct {
		name string
		uri  string
	}{
		{name: "no comma", uri: "data:image/png;base64"},
		{name: "missing data prefix", uri: "image/png;base64," + encoded},
		{name: "not base64 encoded header", uri: "data:image/png," + encoded},
		{name: "not an image", uri: "data:text/plain;base64," + encoded},
		{name: "empty payload", uri: "data:image/png;base64,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := ParseImageDataURI(tt.uri); !errors.Is(err, ErrInvalidDataURI) {
				t.Fatalf("expected ErrInvalidDataURI, got %v", err)
			}
		})
	}
}

func TestParseImageDataURIBadBase64(t *testing.T) {
	_, _, err := ParseImageDataURI("data:image/png;base64,!!!not-base64!!!")
	if err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestFileExtension(t *testing.T) {
	tests := []struct {
		mime string
		ext  string
	}{
		{mime: "image/png", ext: "png"},
		{mime: "image/webp", ext: "webp"},
		{mime: "application/json", ext: "png"},
		{mime: "", ext: "png"},
	}

	for _, tt := range tests {
		if got := FileExtension(tt.mime); got != tt.ext {
			t.Fatalf("FileExtension(%q) = %q, want %q", tt.mime, got, tt.ext)
		}
	}
}

func TestUpload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/storage/v1/object/battle-images/public/user-1/record-1.png" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer service-key" {
			t.Fatalf("unexpected auth header %q", auth)
		}
		if upsert := r.Header.Get("x-upsert"); upsert != "true" {
			t.Fatalf("expected x-upsert true, got %q", upsert)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "png-bytes" {
			t.Fatalf("unexpected body %q", body)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, ServiceKey: "service-key"})

	url, err := client.Upload(context.Background(), "public/user-1/record-1.png", []byte("png-bytes"), "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	expected := server.URL + "/storage/v1/object/public/battle-images/public/user-1/record-1.png"
	if url != expected {
		t.Fatalf("expected url %q, got %q", expected, url)
	}
}

func TestUploadFailureStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "bucket not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, ServiceKey: "service-key"})

	if _, err := client.Upload(context.Background(), "p", nil, "image/png"); err == nil {
		t.Fatalf("expected error for non-2xx status")
	}
}
