package retrieval

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	t.Run("should extract text and prefix the source URL", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><head><script>var x = 1;</script><style>body{}</style></head>
				<body><h1>Title</h1><p>Paragraph one.</p></body></html>`))
		}))
		defer server.Close()

		f := NewFetcher(FetcherOptions{Logger: zerolog.Nop()})
		content, err := f.Fetch(context.Background(), server.URL)
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(content, "Content from "+server.URL+":\n\n"))
		assert.Contains(t, content, "Title")
		assert.Contains(t, content, "Paragraph one.")
		assert.NotContains(t, content, "var x = 1;")
		assert.NotContains(t, content, "body{}")
	})

	t.Run("should truncate long pages with an ellipsis", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html><body><p>" + strings.Repeat("a", 100) + "</p></body></html>"))
		}))
		defer server.Close()

		f := NewFetcher(FetcherOptions{MaxChars: 10, Logger: zerolog.Nop()})
		content, err := f.Fetch(context.Background(), server.URL)
		require.NoError(t, err)

		assert.Equal(t, "Content from "+server.URL+":\n\n"+strings.Repeat("a", 10)+"...", content)
	})

	t.Run("should not append an ellipsis when under the bound", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html><body><p>short</p></body></html>"))
		}))
		defer server.Close()

		f := NewFetcher(FetcherOptions{Logger: zerolog.Nop()})
		content, err := f.Fetch(context.Background(), server.URL)
		require.NoError(t, err)

		assert.False(t, strings.HasSuffix(content, "..."))
	})

	t.Run("should reject non-2xx responses", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "not here", http.StatusNotFound)
		}))
		defer server.Close()

		f := NewFetcher(FetcherOptions{Logger: zerolog.Nop()})
		_, err := f.Fetch(context.Background(), server.URL)
		assert.ErrorContains(t, err, "unexpected status")
	})

	t.Run("should reject unsupported content types", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF-1.4"))
		}))
		defer server.Close()

		f := NewFetcher(FetcherOptions{Logger: zerolog.Nop()})
		_, err := f.Fetch(context.Background(), server.URL)
		assert.ErrorContains(t, err, "unsupported content type")
	})

	t.Run("should accept plain text", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Write([]byte("just text"))
		}))
		defer server.Close()

		f := NewFetcher(FetcherOptions{Logger: zerolog.Nop()})
		content, err := f.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Contains(t, content, "just text")
	})

	t.Run("should report the extracted length in runes", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html><body><p>" + strings.Repeat("é", 20) + "</p></body></html>"))
		}))
		defer server.Close()

		var buf bytes.Buffer
		f := NewFetcher(FetcherOptions{MaxChars: 10, Logger: zerolog.New(&buf)})
		_, err := f.Fetch(context.Background(), server.URL)
		require.NoError(t, err)

		// 10 kept runes plus the three-dot ellipsis, counted in runes even
		// though the text is multi-byte.
		assert.Contains(t, buf.String(), `"chars":13`)
	})

	t.Run("should send a browser user agent", func(t *testing.T) {
		var gotUA string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA = r.Header.Get("User-Agent")
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html><body>ok</body></html>"))
		}))
		defer server.Close()

		f := NewFetcher(FetcherOptions{Logger: zerolog.Nop()})
		_, err := f.Fetch(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Contains(t, gotUA, "Mozilla/5.0")
	})
}

func TestExtractText(t *testing.T) {
	t.Run("should join text runs with single newlines", func(t *testing.T) {
		text := ExtractText(`<html><body>
			<h1>  Heading  </h1>
			<p>First.</p>
			<p>Second.</p>
		</body></html>`)

		assert.Equal(t, "Heading\nFirst.\nSecond.", text)
	})

	t.Run("should skip script style noscript and template content", func(t *testing.T) {
		text := ExtractText(`<html><body>
			<script>skip me</script>
			<style>.skip {}</style>
			<noscript>also skip</noscript>
			<template>skip too</template>
			<p>keep me</p>
		</body></html>`)

		assert.Equal(t, "keep me", text)
	})
}
