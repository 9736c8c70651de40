package webui

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgarman/placeholder-disk/internal/catalog"
	"github.com/jgarman/placeholder-disk/internal/hfs"
)

type builderFunc func() ([]byte, error)

func (f builderFunc) BuildImage() ([]byte, error) { return f() }

var testDisks = []catalog.DiskImage{
	{Name: "System 7.5.3", File: "System 7.5.3.dsk"},
	{Name: "Mac OS 8.1", File: "Mac OS 8.1.dsk"},
}

func newTestHandler(t *testing.T, b builderFunc) http.Handler {
	t.Helper()
	h, err := New(b, testDisks, "Stickies.dsk", nil)
	require.NoError(t, err)
	return h.Routes()
}

func TestPlaceholderHandler(t *testing.T) {
	image := make([]byte, 1024)
	router := newTestHandler(t, func() ([]byte, error) { return image, nil })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/placeholder.dsk", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Stickies.dsk"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "1024", rec.Header().Get("Content-Length"))
	assert.Len(t, rec.Body.Bytes(), 1024)
}

func TestPlaceholderHandlerCapacityError(t *testing.T) {
	router := newTestHandler(t, func() ([]byte, error) {
		return nil, fmt.Errorf("render: %w", hfs.ErrCapacity)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/placeholder.dsk", nil))
	assert.Equal(t, http.StatusInsufficientStorage, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
}

func TestPlaceholderHandlerOtherError(t *testing.T) {
	router := newTestHandler(t, func() ([]byte, error) { return nil, errors.New("boom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/placeholder.dsk", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDisksHandler(t *testing.T) {
	router := newTestHandler(t, nil)

	tests := []struct {
		url  string
		want []string
	}{
		{url: "/api/disks", want: []string{"System 7.5.3", "Mac OS 8.1"}},
		{url: "/api/disks?filter=Mac", want: []string{"Mac OS 8.1"}},
		{url: "/api/disks?filter=zzz", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			require.Equal(t, http.StatusOK, rec.Code)

			var resp disksResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			names := make([]string, 0, len(resp.Disks))
			for _, d := range resp.Disks {
				names = append(names, d.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestIndexHandler(t *testing.T) {
	router := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "System 7.5.3")
	assert.Contains(t, rec.Body.String(), "Download Stickies.dsk")
}

func TestHealthHandler(t *testing.T) {
	router := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	router := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/placeholder.dsk", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
