package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
)

// cachedResponse stores the response fields we care about in a simple JSON
// file on disk.
type cachedResponse struct {
	Status     string              `json:"status"`
	StatusCode int                 `json:"status_code"`
	Proto      string              `json:"proto"`
	Header     map[string][]string `json:"header"`
	Body       []byte              `json:"body"`
}

// CachingRoundTripper implements http.RoundTripper with a directory-backed
// cache of successful GET responses. Published consumption days never change,
// so repeated backfill runs can skip the refetch. Logins and other non-GET
// requests always go to the network.
type CachingRoundTripper struct {
	// UnderlyingTransport is used on a cache miss; nil means
	// http.DefaultTransport.
	UnderlyingTransport http.RoundTripper

	// CacheDir is the directory where response files are stored.
	CacheDir string
}

func (c *CachingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	transport := c.UnderlyingTransport
	if transport == nil {
		transport = http.DefaultTransport
	}

	if req.Method != http.MethodGet {
		return transport.RoundTrip(req)
	}

	cachePath := c.cacheFilePath(cacheKey(req.Method, req.URL.String()))
	if resp, err := c.loadCachedResponse(cachePath, req); err == nil {
		return resp, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	resp, err := transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	cr := cachedResponse{
		Status:     resp.Status,
		StatusCode: resp.StatusCode,
		Proto:      resp.Proto,
		Header:     resp.Header.Clone(),
		Body:       body,
	}
	// Only successful responses are worth keeping.
	if resp.StatusCode == http.StatusOK {
		if err := saveCachedResponse(cachePath, &cr); err != nil {
			return nil, err
		}
	}

	return buildHTTPResponse(req, cr), nil
}

// cacheKey builds a SHA-256 hash string from the request identity.
func cacheKey(method, url string) string {
	hash := sha256.New()
	hash.Write([]byte(method))
	hash.Write([]byte(url))
	return hex.EncodeToString(hash.Sum(nil))
}

func (c *CachingRoundTripper) cacheFilePath(key string) string {
	return path.Join(c.CacheDir, key+".json")
}

func (c *CachingRoundTripper) loadCachedResponse(path string, req *http.Request) (*http.Response, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cr cachedResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		return nil, err
	}
	return buildHTTPResponse(req, cr), nil
}

func saveCachedResponse(path string, cr *cachedResponse) error {
	data, err := json.Marshal(cr)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func buildHTTPResponse(req *http.Request, cr cachedResponse) *http.Response {
	return &http.Response{
		Status:        cr.Status,
		StatusCode:    cr.StatusCode,
		Proto:         cr.Proto,
		Header:        cr.Header,
		Body:          io.NopCloser(bytes.NewReader(cr.Body)),
		ContentLength: int64(len(cr.Body)),
		Request:       req,
	}
}
