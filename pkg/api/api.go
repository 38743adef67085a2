// Package api exposes Pearson hashing over HTTP.
//
//	POST /hash                 raw body, optional ?decode=gzip,zstd (encode order)
//	GET  /table                the active table and its permutation report
//	POST /dedup                observe the body in the dedup index
//	GET  /dedup/duplicates     keys seen more than once, ?limit=N
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"pearson-go/pkg/dedup"
	"pearson-go/pkg/log"
	"pearson-go/pkg/pearson"
	"pearson-go/pkg/transform"

	"github.com/labstack/echo/v4"
)

// MaxBodySize bounds request bodies before decoding.
const MaxBodySize = 32 << 20

type HashResponse struct {
	Length int     `json:"length"`
	Hash8  uint8   `json:"hash8"`
	Hash64 *uint64 `json:"hash64,omitempty"`
	Hex    string  `json:"hex,omitempty"`
}

type TableResponse struct {
	Values      []int            `json:"values"`
	Permutation bool             `json:"permutation"`
	Duplicates  map[string][]int `json:"duplicates,omitempty"`
	Missing     []int            `json:"missing,omitempty"`
}

type EntryResponse struct {
	Key       string    `json:"key"`
	Count     int64     `json:"count"`
	Duplicate bool      `json:"duplicate"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

type Server struct {
	Api   *echo.Echo
	table pearson.Table
	index *dedup.Index
}

// NewServer builds the HTTP API. index may be nil, which disables the
// /dedup routes with 503 responses.
func NewServer(table pearson.Table, index *dedup.Index) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{Api: e, table: table, index: index}
	e.Use(s.requestLogger)
	e.POST("/hash", s.PostHash)
	e.GET("/table", s.GetTable)
	e.POST("/dedup", s.PostDedup)
	e.GET("/dedup/duplicates", s.GetDuplicates)
	return s
}

// Run serves on addr until Shutdown is called.
func (s *Server) Run(addr string) error {
	log.Info().Str("addr", addr).Msg("api: listening")
	if err := s.Api.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Api.Shutdown(ctx)
}

func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		ev := log.Debug()
		if err != nil {
			ev = log.Warn().Err(err)
		}
		ev.Str("method", c.Request().Method).
			Str("path", c.Path()).
			Dur("took", time.Since(start)).
			Msg("api: request")
		return err
	}
}

func (s *Server) body(c echo.Context) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, MaxBodySize+1))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("read body: %v", err))
	}
	if len(data) > MaxBodySize {
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, fmt.Sprintf("body exceeds %d bytes", MaxBodySize))
	}

	tr, err := transform.ParsePipeline(c.QueryParam("decode"))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	data, err = tr.Reverse(data)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return data, nil
}

func (s *Server) PostHash(c echo.Context) error {
	data, err := s.body(c)
	if err != nil {
		return err
	}

	res := HashResponse{Length: len(data), Hash8: s.table.Hash(data)}
	// An empty body still has an 8-bit hash (0) but no 64-bit one.
	if h, err := s.table.Hash64(data); err == nil {
		res.Hash64 = &h
		res.Hex = fmt.Sprintf("%016x", h)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) GetTable(c echo.Context) error {
	report := s.table.Check()
	res := TableResponse{
		Values:      make([]int, 0, pearson.TableSize),
		Permutation: report.IsPermutation(),
	}
	for _, v := range s.table {
		res.Values = append(res.Values, int(v))
	}
	if len(report.Duplicates) > 0 {
		res.Duplicates = make(map[string][]int, len(report.Duplicates))
		for v, idx := range report.Duplicates {
			res.Duplicates[strconv.Itoa(int(v))] = idx
		}
	}
	for _, v := range report.Missing {
		res.Missing = append(res.Missing, int(v))
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) PostDedup(c echo.Context) error {
	if s.index == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "dedup index not configured")
	}
	data, err := s.body(c)
	if err != nil {
		return err
	}
	e, err := s.index.Observe(c.Request().Context(), data)
	if errors.Is(err, pearson.ErrInvalidArgument) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toEntryResponse(e))
}

func (s *Server) GetDuplicates(c echo.Context) error {
	if s.index == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "dedup index not configured")
	}
	limit := 100
	if q := c.QueryParam("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
		}
		limit = n
	}
	entries, err := s.index.Duplicates(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	res := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		res = append(res, toEntryResponse(e))
	}
	return c.JSON(http.StatusOK, res)
}

func toEntryResponse(e dedup.Entry) EntryResponse {
	return EntryResponse{
		Key:       fmt.Sprintf("%016x", e.Key),
		Count:     e.Count,
		Duplicate: e.Duplicate(),
		FirstSeen: e.FirstSeen,
		LastSeen:  e.LastSeen,
	}
}
