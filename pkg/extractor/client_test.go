package extractor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSendsRequest(t *testing.T) {
	var got Request
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		contentType = r.Header.Get("Content-Type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":"success","code":200,"data":{"analysis":{"parsed":{"status":"success","nama":"Budi"}}}}`))
	}))
	defer srv.Close()

	c := NewClient(map[DocumentType]string{KTP: srv.URL})
	res := c.Extract(context.Background(), KTP, []byte("img"), "image/jpeg", "image_abcd1234.jpg")

	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "process-ktp", got.Action)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("img")), got.FileData)
	assert.Equal(t, "image_abcd1234.jpg", got.FileName)
	assert.Equal(t, "image/jpeg", got.MimeType)

	require.True(t, res.Succeeded())
	assert.Equal(t, "Budi", res.Parsed().Get("nama"))
}

func TestExtractNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"status":"success"}`))
	}))
	defer srv.Close()

	res := NewClient(map[DocumentType]string{KK: srv.URL}).Extract(context.Background(), KK, []byte("x"), "image/jpeg", "f.jpg")
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, http.StatusBadGateway, res.Code)
	assert.Equal(t, "API error", res.Message)
	assert.False(t, res.Parsed().Exists())
}

func TestExtractInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>oops`))
	}))
	defer srv.Close()

	res := NewClient(map[DocumentType]string{SIM: srv.URL}).Extract(context.Background(), SIM, []byte("x"), "image/jpeg", "f.jpg")
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.Contains(t, res.Message, "parse error: ")
}

func TestExtractTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	res := NewClient(map[DocumentType]string{Ijazah: url}).Extract(context.Background(), Ijazah, []byte("x"), "image/jpeg", "f.jpg")
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.NotEmpty(t, res.Message)
}

func TestExtractTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(map[DocumentType]string{KTP: srv.URL}, WithTimeout(50*time.Millisecond))
	res := c.Extract(context.Background(), KTP, []byte("x"), "image/jpeg", "f.jpg")
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, http.StatusInternalServerError, res.Code)
}

func TestExtractNoEndpoint(t *testing.T) {
	res := NewClient(map[DocumentType]string{KTP: ""}).Extract(context.Background(), KTP, []byte("x"), "image/jpeg", "f.jpg")
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, "no endpoint configured for ktp", res.Message)
}

func TestExtractNoRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	NewClient(map[DocumentType]string{KTP: srv.URL}).Extract(context.Background(), KTP, []byte("x"), "image/jpeg", "f.jpg")
	assert.EqualValues(t, 1, calls.Load())
}

func TestParseResultDefaultsCode(t *testing.T) {
	res, err := ParseResult([]byte(`{"status":"success","parsed":{"status":"not_kk"}}`))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.True(t, res.Succeeded())
	assert.JSONEq(t, `{"status":"success","parsed":{"status":"not_kk"},"code":200}`, string(res.Raw))
	assert.Equal(t, "not_kk", res.Parsed().Status())
}

func TestParseResultErrorCarriesNoParsed(t *testing.T) {
	res, err := ParseResult([]byte(`{"status":"error","code":422,"message":"blurry","parsed":{"status":"success"}}`))
	require.NoError(t, err)
	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, 422, res.Code)
	assert.Equal(t, "blurry", res.Message)
	assert.False(t, res.Parsed().Exists())
}

func TestParseResultRejectsNonObject(t *testing.T) {
	_, err := ParseResult([]byte(`[1,2]`))
	assert.Error(t, err)
	_, err = ParseResult([]byte(`{`))
	assert.Error(t, err)
}

func TestParseDocumentType(t *testing.T) {
	dt, ok := ParseDocumentType(" IJAZAH ")
	require.True(t, ok)
	assert.Equal(t, Ijazah, dt)
	assert.Equal(t, "IJAZAH", dt.Label())
	assert.Equal(t, "not_ijazah", dt.RejectionStatus())

	_, ok = ParseDocumentType("passport")
	assert.False(t, ok)
}
