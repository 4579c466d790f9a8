package cache

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abner20953/bidding-data/internal/ingest"
)

func writeDOCX(t *testing.T, dir, name, text string) string {
	t.Helper()
	var b bytes.Buffer
	zw := zip.NewWriter(&b)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><w:document><w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0o644))
	return path
}

func TestMemoryCopiesOnPutAndGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	doc := &ingest.Document{Name: "a.docx", Pages: []ingest.Page{{Number: 1, Text: "原文"}}}
	require.NoError(t, m.Put(ctx, "docx:abc", doc))
	doc.Pages[0].Text = "changed"

	got, ok, err := m.Get(ctx, "docx:abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "原文", got.Pages[0].Text)

	got.Pages[0].Text = "mutated"
	again, _, _ := m.Get(ctx, "docx:abc")
	assert.Equal(t, "原文", again.Pages[0].Text)

	_, ok, err = m.Get(ctx, "docx:missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryServesIdenticalUploads(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	first := writeDOCX(t, dir, "first.docx", "投标人应当按照招标文件的要求编制投标文件。")
	second := writeDOCX(t, dir, "copy.docx", "投标人应当按照招标文件的要求编制投标文件。")

	m := NewMemory()
	opts := ingest.Options{Cache: m}

	a, err := ingest.Extract(ctx, first, opts)
	require.NoError(t, err)
	b, err := ingest.Extract(ctx, second, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, m.Len(), "same bytes share one entry")
	assert.Equal(t, "copy.docx", b.Name, "hits carry the requested file name")
	assert.Equal(t, a.Pages, b.Pages)
}

func TestRedisAgainstLiveServer(t *testing.T) {
	addr := os.Getenv("BIDCHECK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("BIDCHECK_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	r, err := NewRedis(ctx, RedisOptions{Addr: addr})
	require.NoError(t, err)
	defer r.Close()

	doc := &ingest.Document{Name: "a.pdf", Pages: []ingest.Page{{Number: 2, Text: "第二页"}}, Meta: ingest.Meta{Format: "pdf", Pages: 2}}
	require.NoError(t, r.Put(ctx, "pdf:test-key", doc))
	got, ok, err := r.Get(ctx, "pdf:test-key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, doc.Pages, got.Pages)
	assert.Equal(t, 2, got.Meta.Pages)
}

func TestNewRedisFailsWithoutServer(t *testing.T) {
	_, err := NewRedis(context.Background(), RedisOptions{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
