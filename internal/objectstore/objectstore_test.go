package objectstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func TestReceiptName(t *testing.T) {
	a := ReceiptName("Bill.PNG")
	b := ReceiptName("Bill.PNG")
	assert.True(t, strings.HasPrefix(a, "receipts/"))
	assert.True(t, strings.HasSuffix(a, ".png"))
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(ReceiptName("noext"), ".bin"))
	assert.Equal(t, "reports/maintenance-3-2024.pdf", ReportName("maintenance-3-2024.pdf"))
}

func TestIsAllowedReceipt(t *testing.T) {
	assert.True(t, IsAllowedReceipt("image/png"))
	assert.True(t, IsAllowedReceipt("application/pdf; charset=binary"))
	assert.False(t, IsAllowedReceipt("text/html"))
	assert.False(t, IsAllowedReceipt(""))
}

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "http://localhost:8080/files/")
	require.NoError(t, err)

	url, err := s.Put(context.Background(), "receipts/a.txt", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/receipts/a.txt", url)

	b, err := os.ReadFile(filepath.Join(dir, "receipts", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))

	// traversal is neutralised to a path inside the store
	url, err = s.Put(context.Background(), "../../etc/x", "", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/etc/x", url)

	_, err = s.Put(context.Background(), "", "", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestGCSStore(t *testing.T) {
	var uploads atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.Contains(r.URL.Path, "/b/bucket-1/o") {
			http.Error(w, "unexpected "+r.Method+" "+r.URL.Path, http.StatusBadRequest)
			return
		}
		_, _ = io.Copy(io.Discard, r.Body)
		uploads.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"bucket":"bucket-1","name":"receipts/a.png"}`)
	}))
	defer srv.Close()

	s, err := NewGCSStore(context.Background(), "bucket-1", nil,
		option.WithEndpoint(srv.URL+"/storage/v1/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	url, err := s.Put(context.Background(), "receipts/a.png", "image/png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.Equal(t, "https://storage.googleapis.com/bucket-1/receipts/a.png", url)
	assert.Equal(t, int32(1), uploads.Load())

	_, err = NewGCSStore(context.Background(), "", nil)
	assert.Error(t, err)
}
