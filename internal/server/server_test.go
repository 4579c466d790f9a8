package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abner20953/bidding-data/internal/db"
	"github.com/abner20953/bidding-data/internal/forensics"
	"github.com/abner20953/bidding-data/internal/ingest"
	"github.com/abner20953/bidding-data/internal/workspace"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubComparer struct {
	res   *forensics.Result
	err   error
	paths []string
}

func (s *stubComparer) Compare(_ context.Context, a, b, tender string) (*forensics.Result, error) {
	s.paths = []string{a, b, tender}
	for _, p := range []string{a, b} {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("upload not on disk: %w", err)
		}
	}
	return s.res, s.err
}

func docxBytes(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?><w:document><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	var b bytes.Buffer
	zw := zip.NewWriter(&b)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(body.String()))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return b.Bytes()
}

func multipartBody(t *testing.T, files map[string][2]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, f := range files {
		w, err := mw.CreateFormFile(field, f[0])
		require.NoError(t, err)
		_, err = w.Write([]byte(f[1]))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postCompare(t *testing.T, r http.Handler, files map[string][2]string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, files)
	req := httptest.NewRequest(http.MethodPost, "/api/compare", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := New(&stubComparer{}, Options{}).SetupRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestCompareRequiresBothBids(t *testing.T) {
	r := New(&stubComparer{}, Options{}).SetupRouter()
	w := postCompare(t, r, map[string][2]string{"file_a": {"a.pdf", "x"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompareKeepsNamesAndCleansUp(t *testing.T) {
	stub := &stubComparer{res: &forensics.Result{Paragraphs: []forensics.SuspiciousItem{}}}
	tmp := t.TempDir()
	r := New(stub, Options{TmpDir: tmp}).SetupRouter()

	w := postCompare(t, r, map[string][2]string{
		"file_a": {"投标A.pdf", "a"},
		"file_b": {"投标A.pdf", "b"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "投标A.pdf", filepath.Base(stub.paths[0]))
	assert.Equal(t, "投标A.pdf", filepath.Base(stub.paths[1]))
	assert.NotEqual(t, stub.paths[0], stub.paths[1], "same-named bids do not overwrite each other")
	assert.Empty(t, stub.paths[2])

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "temp uploads are removed after the request")
}

func TestCompareErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("bidder A: %w", forensics.ErrUnsupportedFormat), http.StatusBadRequest},
		{fmt.Errorf("tender: %w", forensics.ErrFileNotFound), http.StatusBadRequest},
		{forensics.ErrComparisonTimeout, http.StatusGatewayTimeout},
		{forensics.ErrComparisonOutOfMemory, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		r := New(&stubComparer{err: tc.err}, Options{TmpDir: t.TempDir()}).SetupRouter()
		w := postCompare(t, r, map[string][2]string{"file_a": {"a.pdf", "a"}, "file_b": {"b.pdf", "b"}})
		assert.Equal(t, tc.want, w.Code, tc.err.Error())

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.NotEmpty(t, body["error"])
	}
}

func TestCompareEndToEndWithHistoryAndArchive(t *testing.T) {
	base := t.TempDir()
	layout, err := workspace.EnsureAt(base)
	require.NoError(t, err)
	archive := workspace.NewArchive(layout.Archive, nil)

	det := forensics.NewDetector(forensics.DefaultConfig(),
		forensics.WithExtractOptions(ingest.Options{}),
		forensics.WithMemoryProbe(nil),
	)
	r := New(det, Options{Archive: archive, DBPath: layout.Database, TmpDir: layout.Tmp}).SetupRouter()

	shared := "本公司承诺所供设备均为原厂全新正品并提供三年免费上门维保服务。"
	w := postCompare(t, r, map[string][2]string{
		"file_a": {"甲公司.docx", string(docxBytes(t, shared, "联系人电话13934518882。"))},
		"file_b": {"乙公司.docx", string(docxBytes(t, shared, "联系电话：13934518882"))},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res forensics.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.NotEmpty(t, res.Paragraphs)
	assert.Equal(t, 100, res.MaxScore())

	var kinds []forensics.Kind
	for _, item := range res.Paragraphs {
		kinds = append(kinds, item.Type)
	}
	assert.Contains(t, kinds, forensics.KindEntity)
	assert.Contains(t, kinds, forensics.KindExact)

	runID := w.Header().Get("X-Run-ID")
	require.NotEmpty(t, runID)

	// history
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Runs []db.RunSummary `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Runs, 1)
	assert.Equal(t, "甲公司.docx", list.Runs[0].FileA)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs/"+runID, nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs/unknown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// archive remarks
	req := httptest.NewRequest(http.MethodPut, "/api/archive/"+url.PathEscape("甲公司.docx")+"/remark", strings.NewReader(`{"remark":"法人相同"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/archive/"+url.PathEscape("甲公司.docx")+"/remark", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "法人相同")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/archive/none.pdf/remark", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistoryDisabled(t *testing.T) {
	r := New(&stubComparer{}, Options{}).SetupRouter()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/runs", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
