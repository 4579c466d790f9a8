// Package server exposes comparisons, run history and archive remarks over
// HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abner20953/bidding-data/internal/db"
	"github.com/abner20953/bidding-data/internal/forensics"
	"github.com/abner20953/bidding-data/internal/workspace"
)

// Comparer is satisfied by *forensics.Detector.
type Comparer interface {
	Compare(ctx context.Context, pathA, pathB, pathTender string) (*forensics.Result, error)
}

type Logger interface {
	Log(level, stage, message, detail string)
}

type Options struct {
	// Archive keeps every upload when set.
	Archive *workspace.Archive
	// DBPath enables run history when set.
	DBPath string
	// TmpDir holds uploads for the duration of one request. Empty means the
	// system temp dir.
	TmpDir         string
	MaxUploadBytes int64
	Logger         Logger
}

type Server struct {
	comparer Comparer
	opts     Options
}

func New(comparer Comparer, opts Options) *Server {
	return &Server{comparer: comparer, opts: opts}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	r.GET("/healthz", s.Health)

	api := r.Group("/api")
	api.POST("/compare", s.Compare)
	api.GET("/runs", s.ListRuns)
	api.GET("/runs/:id", s.GetRun)
	api.GET("/archive/:name/remark", s.GetRemark)
	api.PUT("/archive/:name/remark", s.PutRemark)
	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Compare accepts multipart file_a, file_b and an optional tender and
// responds with the comparison result. The stored run ID, if any, is
// returned in the X-Run-ID header.
func (s *Server) Compare(c *gin.Context) {
	if s.opts.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)
	}

	fileA, errA := c.FormFile("file_a")
	fileB, errB := c.FormFile("file_b")
	if errA != nil || errB != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_a and file_b are required"})
		return
	}
	tender, err := c.FormFile("tender")
	if err != nil && !errors.Is(err, http.ErrMissingFile) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid tender upload"})
		return
	}

	dir, err := os.MkdirTemp(s.opts.TmpDir, "compare-*")
	if err != nil {
		s.log("ERROR", "SERVER", "create upload dir failed", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}
	defer os.RemoveAll(dir)

	uploads := map[string]*multipart.FileHeader{"a": fileA, "b": fileB}
	if tender != nil {
		uploads["tender"] = tender
	}
	paths := map[string]string{}
	for role, fh := range uploads {
		p, err := s.saveUpload(c, dir, role, fh)
		if err != nil {
			s.log("ERROR", "SERVER", "save upload failed", err.Error())
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload " + fh.Filename})
			return
		}
		paths[role] = p
	}

	ctx := c.Request.Context()
	res, err := s.comparer.Compare(ctx, paths["a"], paths["b"], paths["tender"])
	if err != nil {
		status := statusFor(err)
		s.log("ERROR", "SERVER", "compare failed", fmt.Sprintf("status=%d err=%v", status, err))
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	s.archiveUploads(ctx, uploads, paths)

	if s.opts.DBPath != "" {
		run := db.Run{FileA: fileA.Filename, FileB: fileB.Filename, Result: res}
		if tender != nil {
			run.Tender = tender.Filename
		}
		id, err := db.SaveRun(s.opts.DBPath, run)
		if err != nil {
			s.log("RISK", "SERVER", "save run failed", err.Error())
		} else {
			c.Header("X-Run-ID", id)
		}
	}

	c.JSON(http.StatusOK, res)
}

func (s *Server) ListRuns(c *gin.Context) {
	if s.opts.DBPath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "run history is disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	runs, err := db.ListRuns(s.opts.DBPath, limit)
	if err != nil {
		s.log("ERROR", "SERVER", "list runs failed", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) GetRun(c *gin.Context) {
	if s.opts.DBPath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "run history is disabled"})
		return
	}
	run, err := db.LoadRun(s.opts.DBPath, c.Param("id"))
	if errors.Is(err, db.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.log("ERROR", "SERVER", "load run failed", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load run"})
		return
	}
	c.JSON(http.StatusOK, run)
}

type remarkRequest struct {
	Remark string `json:"remark"`
}

func (s *Server) GetRemark(c *gin.Context) {
	if s.opts.Archive == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "archive is disabled"})
		return
	}
	name := c.Param("name")
	remark, err := s.opts.Archive.Remark(name)
	if err != nil {
		s.remarkError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "remark": remark})
}

func (s *Server) PutRemark(c *gin.Context) {
	if s.opts.Archive == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "archive is disabled"})
		return
	}
	var req remarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	name := c.Param("name")
	if err := s.opts.Archive.SetRemark(name, req.Remark); err != nil {
		s.remarkError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "remark": req.Remark})
}

func (s *Server) remarkError(c *gin.Context, err error) {
	if errors.Is(err, workspace.ErrNotArchived) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	s.log("ERROR", "SERVER", "remark failed", err.Error())
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to access remark"})
}

// saveUpload writes fh under dir/role keeping the original base name, so
// extraction sees the real extension and reports the real file name.
func (s *Server) saveUpload(c *gin.Context, dir, role string, fh *multipart.FileHeader) (string, error) {
	name := filepath.Base(filepath.Clean("/" + fh.Filename))
	if name == "/" || name == "." {
		name = role
	}
	sub := filepath.Join(dir, role)
	if err := os.MkdirAll(sub, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(sub, name)
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func (s *Server) archiveUploads(ctx context.Context, uploads map[string]*multipart.FileHeader, paths map[string]string) {
	if s.opts.Archive == nil {
		return
	}
	for role, fh := range uploads {
		if _, err := s.opts.Archive.Store(ctx, paths[role], fh.Filename); err != nil {
			s.log("RISK", "ARCHIVE", "archive upload failed", err.Error())
		}
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log("INFO", "HTTP", c.Request.Method+" "+c.FullPath(),
			fmt.Sprintf("status=%d duration_ms=%d", c.Writer.Status(), time.Since(start).Milliseconds()))
	}
}

func (s *Server) log(level, stage, message, detail string) {
	if s.opts.Logger != nil {
		s.opts.Logger.Log(level, stage, message, detail)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, forensics.ErrUnsupportedFormat), errors.Is(err, forensics.ErrFileNotFound):
		return http.StatusBadRequest
	case errors.Is(err, forensics.ErrComparisonTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, forensics.ErrComparisonOutOfMemory):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
