package relay

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/s3relay/internal/config"
	"github.com/shaiso/s3relay/internal/mq"
	"github.com/shaiso/s3relay/internal/retry"
	"github.com/shaiso/s3relay/internal/storage"
)

// --- Очереди ---

// getResult — заранее заданный ответ fakeRequests.Get.
type getResult struct {
	msg mq.Message
	err error
}

// fakeRequests отдаёт заданные результаты, затем пустую очередь.
type fakeRequests struct {
	mu      sync.Mutex
	results []getResult
	calls   int
	closed  bool
	order   *closeOrder
}

func (q *fakeRequests) push(results ...getResult) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.results = append(q.results, results...)
}

func (q *fakeRequests) Get(context.Context) (mq.Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls++
	if len(q.results) == 0 {
		return mq.Message{}, mq.ErrNoMessage
	}
	r := q.results[0]
	q.results = q.results[1:]
	return r.msg, r.err
}

func (q *fakeRequests) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.order.add("requests")
	return nil
}

func (q *fakeRequests) getCalls() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls
}

func (q *fakeRequests) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// fakeReplies запоминает опубликованные сообщения.
type fakeReplies struct {
	mu      sync.Mutex
	msgs    []mq.Message
	failN   int // столько первых Put вернут failErr
	failErr error
	closed  bool
	order   *closeOrder
}

func (q *fakeReplies) Put(_ context.Context, msg mq.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failN > 0 {
		q.failN--
		return q.failErr
	}
	q.msgs = append(q.msgs, msg)
	return nil
}

func (q *fakeReplies) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.order.add("replies")
	return nil
}

func (q *fakeReplies) published() []mq.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]mq.Message, len(q.msgs))
	copy(out, q.msgs)
	return out
}

type closeOrder struct {
	mu    sync.Mutex
	items []string
}

func (o *closeOrder) add(s string) {
	if o == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.items = append(o.items, s)
}

func (o *closeOrder) list() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string{}, o.items...)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// --- Хранилище ---

type storedObject struct {
	data     []byte
	filename string
}

type fakeStore struct {
	mu        sync.Mutex
	buckets   map[string]bool
	objects   map[string]storedObject
	puts      int
	lookups   int
	bucketErr error
	putErr    error
	block     chan struct{} // если не nil, PutObject ждёт закрытия
	panicOn   string        // ключ, на котором PutObject паникует
}

func newFakeStore(buckets ...string) *fakeStore {
	s := &fakeStore{buckets: map[string]bool{}, objects: map[string]storedObject{}}
	for _, b := range buckets {
		s.buckets[b] = true
	}
	return s
}

func (s *fakeStore) BucketExists(_ context.Context, bucket string) (bool, error) {
	if err := storage.CheckBucketName(bucket); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if s.bucketErr != nil {
		return false, s.bucketErr
	}
	return s.buckets[bucket], nil
}

func (s *fakeStore) ObjectExists(_ context.Context, bucket, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[bucket+"/"+key]
	return ok, nil
}

func (s *fakeStore) PutObject(_ context.Context, bucket, key string, data []byte, filename string) error {
	if s.block != nil {
		<-s.block
	}
	if s.panicOn != "" && key == s.panicOn {
		panic("storage exploded")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[bucket+"/"+key] = storedObject{data: append([]byte{}, data...), filename: filename}
	return nil
}

func (s *fakeStore) object(bucket, key string) (storedObject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[bucket+"/"+key]
	return o, ok
}

func (s *fakeStore) putCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

// --- Хелперы ---

// requestXML собирает документ запроса; пустые поля не выводятся.
func requestXML(guid, filename, bucket, content string) []byte {
	var b bytes.Buffer
	b.WriteString("<Request>")
	if guid != "" {
		fmt.Fprintf(&b, "<Request_GUID>%s</Request_GUID>", guid)
	}
	if filename != "" {
		fmt.Fprintf(&b, "<FileName>%s</FileName>", filename)
	}
	if bucket != "" {
		fmt.Fprintf(&b, "<BucketName>%s</BucketName>", bucket)
	}
	if content != "" {
		fmt.Fprintf(&b, "<FileContent>%s</FileContent>", content)
	}
	b.WriteString("</Request>")
	return b.Bytes()
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func message(id string, body []byte) getResult {
	return getResult{msg: mq.Message{ID: id, Body: body}}
}

// logBuffer — потокобезопасный буфер для логов.
type logBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (l *logBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.Write(p)
}

func (l *logBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buf.String()
}

func newTestLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = io.Discard
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func fastRetry(tries int) retry.Policy {
	return retry.Policy{Tries: tries, Delay: time.Millisecond, Backoff: 1}
}

type testSession struct {
	requests *fakeRequests
	replies  *fakeReplies
	store    *fakeStore
	order    *closeOrder
}

func newTestSession(buckets ...string) *testSession {
	order := &closeOrder{}
	return &testSession{
		requests: &fakeRequests{order: order},
		replies:  &fakeReplies{order: order},
		store:    newFakeStore(buckets...),
		order:    order,
	}
}

func (ts *testSession) session() *Session {
	return &Session{
		Requests: ts.requests,
		Replies:  ts.replies,
		Store:    ts.store,
		Conn: closerFunc(func() error {
			ts.order.add("conn")
			return nil
		}),
	}
}

func newTestWorker(ts *testSession, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = newTestLogger(nil)
	}
	return NewWorker(WorkerConfig{
		Name:         "worker-test",
		Session:      ts.session(),
		StorageHost:  "s3.local",
		Retry:        fastRetry(5),
		PollInterval: 5 * time.Millisecond,
		Logger:       logger,
	})
}

func testConfig(workers int) config.Config {
	return config.Config{
		MaxWorkers:        workers,
		S3Host:            "s3.local",
		HeartbeatInterval: 20 * time.Millisecond,
	}
}

// waitFor ждёт выполнения условия.
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}
