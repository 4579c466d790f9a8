package main

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abner20953/bidding-data/internal/forensics"
)

func writeDOCX(t *testing.T, path string, paragraphs ...string) {
	t.Helper()
	var body bytes.Buffer
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?><w:document><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	var b bytes.Buffer
	zw := zip.NewWriter(&b)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write(body.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0o644))
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInitCompareAndHistory(t *testing.T) {
	ws := filepath.Join(t.TempDir(), "ws")
	cfgPath := filepath.Join(t.TempDir(), "bidcheck.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[extract]\nconverter = \"\"\n\n[logging]\nlevel = \"error\"\nsession = false\n"), 0o644))

	out, err := run(t, "init", "--workspace", ws)
	require.NoError(t, err, out)
	assert.FileExists(t, filepath.Join(ws, "configs", "bidcheck.toml"))

	_, err = run(t, "init", "--workspace", ws)
	assert.Error(t, err, "init refuses to overwrite")

	dir := t.TempDir()
	shared := "本公司承诺所供设备均为原厂全新正品并提供三年免费上门维保服务。"
	a := filepath.Join(dir, "a.docx")
	b := filepath.Join(dir, "b.docx")
	writeDOCX(t, a, shared, "项目负责人由公司总经理亲自担任，全程监督实施。")
	writeDOCX(t, b, shared, "我方将按期完成交付并接受采购人的全部验收要求。")

	out, err = run(t, "compare", a, b, "--json", "--save", "--workspace", ws, "--config", cfgPath)
	require.NoError(t, err, out)

	var res forensics.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Paragraphs, 1)
	assert.Equal(t, forensics.KindExact, res.Paragraphs[0].Type)

	out, err = run(t, "history", "--json", "--workspace", ws, "--config", cfgPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, `"file_a": "a.docx"`)
}

func TestCompareRejectsUnsupportedFormat(t *testing.T) {
	ws := filepath.Join(t.TempDir(), "ws")
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(a, []byte("x"), 0o644))

	_, err := run(t, "compare", a, a, "--workspace", ws, "--log-level", "error")
	assert.ErrorIs(t, err, forensics.ErrUnsupportedFormat)
}

func TestCollectBids(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.pdf", "a.DOCX", "notes.txt", "~$a.docx", "c.doc"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	paths, err := collectBids([]string{dir})
	require.NoError(t, err)

	var names []string
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	assert.Equal(t, []string{"a.DOCX", "b.pdf", "c.doc"}, names)
}
