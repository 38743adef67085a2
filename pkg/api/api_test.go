package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pearson-go/pkg/dedup"
	"pearson-go/pkg/pearson"
	"pearson-go/pkg/transform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, s *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/octet-stream")
	rec := httptest.NewRecorder()
	s.Api.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestPostHash(t *testing.T) {
	s := NewServer(pearson.DefaultTable(), nil)

	rec := do(t, s, http.MethodPost, "/hash", []byte("a"))
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[HashResponse](t, rec)
	assert.Equal(t, 1, res.Length)
	assert.Equal(t, uint8(96), res.Hash8)
	require.NotNil(t, res.Hash64)
	assert.Equal(t, uint64(0x33caf8e3102dd260), *res.Hash64)
	assert.Equal(t, "33caf8e3102dd260", res.Hex)
}

func TestPostHashEmptyBody(t *testing.T) {
	s := NewServer(pearson.DefaultTable(), nil)

	rec := do(t, s, http.MethodPost, "/hash", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[HashResponse](t, rec)
	assert.Zero(t, res.Length)
	assert.Zero(t, res.Hash8)
	assert.Nil(t, res.Hash64)
}

func TestPostHashDecode(t *testing.T) {
	s := NewServer(pearson.DefaultTable(), nil)
	plain := bytes.Repeat([]byte("reading=42;"), 50)

	zs, err := transform.NewZstdTransform()
	require.NoError(t, err)
	compressed, err := zs.Apply(plain)
	require.NoError(t, err)

	rec := do(t, s, http.MethodPost, "/hash?decode=zstd", compressed)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[HashResponse](t, rec)

	want, err := pearson.Hash64(plain)
	require.NoError(t, err)
	assert.Equal(t, len(plain), res.Length)
	assert.Equal(t, want, *res.Hash64)

	rec = do(t, s, http.MethodPost, "/hash?decode=zstd", plain)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/hash?decode=rot13", plain)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostHashStackedDecode(t *testing.T) {
	s := NewServer(pearson.DefaultTable(), nil)
	plain := []byte("abc")

	p, err := transform.PipelineByNames(transform.NameGzip, transform.NameZstd)
	require.NoError(t, err)
	enc, err := p.Encode(plain)
	require.NoError(t, err)

	rec := do(t, s, http.MethodPost, "/hash?decode=gzip,zstd", enc)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[HashResponse](t, rec)
	assert.Equal(t, 3, res.Length)
	assert.Equal(t, "f7508c7b0ed515ac", res.Hex)

	rec = do(t, s, http.MethodPost, "/hash?decode=zstd,gzip", enc)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetTable(t *testing.T) {
	s := NewServer(pearson.DefaultTable(), nil)

	rec := do(t, s, http.MethodGet, "/table", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	res := decode[TableResponse](t, rec)
	require.Len(t, res.Values, pearson.TableSize)
	assert.Equal(t, 98, res.Values[0])
	assert.Equal(t, 239, res.Values[255])
	assert.False(t, res.Permutation)
	assert.Equal(t, map[string][]int{"98": {0, 148}}, res.Duplicates)
	assert.Equal(t, []int{198}, res.Missing)
}

func TestDedupRoutes(t *testing.T) {
	ix, err := dedup.OpenMemory()
	require.NoError(t, err)
	defer ix.Close()
	s := NewServer(pearson.DefaultTable(), ix)

	for i := 1; i <= 3; i++ {
		rec := do(t, s, http.MethodPost, "/dedup", []byte("sensor-9"))
		require.Equal(t, http.StatusOK, rec.Code)
		res := decode[EntryResponse](t, rec)
		assert.Equal(t, int64(i), res.Count)
		assert.Equal(t, i > 1, res.Duplicate)
	}

	rec := do(t, s, http.MethodPost, "/dedup", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/dedup/duplicates?limit=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dups := decode[[]EntryResponse](t, rec)
	require.Len(t, dups, 1)
	assert.Equal(t, int64(3), dups[0].Count)

	rec = do(t, s, http.MethodGet, "/dedup/duplicates?limit=many", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDedupDisabled(t *testing.T) {
	s := NewServer(pearson.DefaultTable(), nil)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodPost, "/dedup", []byte("x")).Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, s, http.MethodGet, "/dedup/duplicates", nil).Code)
}
