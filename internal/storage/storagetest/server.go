// Package storagetest — S3-совместимый endpoint в памяти для тестов.
//
// Поддерживает ровно то, что использует storage.Client: HEAD бакета,
// HEAD и PUT объекта (path-style). Тела с потоковой подписью
// (aws-chunked) декодируются.
package storagetest

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// Object — сохранённый объект и заголовки запроса, которым он записан.
type Object struct {
	Body   []byte
	Header http.Header
}

// Server — фейковый S3 поверх httptest.Server.
type Server struct {
	srv *httptest.Server

	mu      sync.Mutex
	buckets map[string]bool
	objects map[string]Object
	hits    int
}

// NewServer запускает сервер с заданными бакетами и останавливает его в
// t.Cleanup.
func NewServer(t testing.TB, buckets ...string) *Server {
	t.Helper()

	s := &Server{
		buckets: map[string]bool{},
		objects: map[string]Object{},
	}
	for _, b := range buckets {
		s.buckets[b] = true
	}

	s.srv = httptest.NewServer(s)
	t.Cleanup(s.srv.Close)
	return s
}

// Endpoint возвращает host:port сервера.
func (s *Server) Endpoint() string {
	return strings.TrimPrefix(s.srv.URL, "http://")
}

// Hits возвращает число обработанных запросов.
func (s *Server) Hits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits
}

// Object возвращает объект bucket/key.
func (s *Server) Object(bucket, key string) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[bucket+"/"+key]
	return o, ok
}

// PutObject кладёт объект напрямую, минуя HTTP.
func (s *Server) PutObject(bucket, key string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+key] = Object{Body: body, Header: http.Header{}}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits++

	bucket, key, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/"), "/")

	if !s.buckets[bucket] {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		if r.Method != http.MethodHead {
			io.WriteString(w, `<Error><Code>NoSuchBucket</Code><Message>The specified bucket does not exist</Message></Error>`)
		}
		return
	}

	path := bucket + "/" + key
	switch {
	case key == "" && r.Method == http.MethodHead:
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodHead:
		obj, ok := s.objects[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(obj.Body)))
		w.Header().Set("ETag", `"etag"`)
		w.Header().Set("Last-Modified", "Mon, 02 Jan 2006 15:04:05 GMT")
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodPut && key != "":
		body, err := readBody(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.objects[path] = Object{Body: body, Header: r.Header.Clone()}
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func readBody(r *http.Request) ([]byte, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(r.Header.Get("X-Amz-Content-Sha256"), "STREAMING-") {
		return decodeChunked(raw)
	}
	return raw, nil
}

// decodeChunked разбирает тело aws-chunked:
// <hex-size>;chunk-signature=<sig>\r\n<data>\r\n ... 0;chunk-signature=<sig>\r\n
func decodeChunked(raw []byte) ([]byte, error) {
	var out []byte
	rd := bufio.NewReader(bytes.NewReader(raw))

	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read chunk header: %w", err)
		}
		size, _, _ := strings.Cut(strings.TrimRight(line, "\r\n"), ";")
		n, err := strconv.ParseInt(size, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("parse chunk size %q: %w", size, err)
		}
		if n == 0 {
			return out, nil
		}

		chunk := make([]byte, n)
		if _, err := io.ReadFull(rd, chunk); err != nil {
			return nil, fmt.Errorf("read chunk: %w", err)
		}
		out = append(out, chunk...)

		if _, err := rd.Discard(2); err != nil {
			return nil, fmt.Errorf("read chunk trailer: %w", err)
		}
	}
}
