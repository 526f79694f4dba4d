package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sync"
)

// OfflineMessage is the fixed payload text of the synthesized response.
const OfflineMessage = "You are currently offline. Please check your connection."

// offlineBody is the synthesized JSON error body.
type offlineBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// offlineResponse synthesizes the structured 503 returned when a
// network-only request fails. Never cached, never an error to the caller.
func offlineResponse() *http.Response {
	body, _ := json.Marshal(offlineBody{
		Error:   "offline",
		Message: OfflineMessage,
	})

	header := http.Header{}
	header.Set("Content-Type", "application/json")

	return &http.Response{
		StatusCode:    http.StatusServiceUnavailable,
		Status:        http.StatusText(http.StatusServiceUnavailable),
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
	}
}

// refreshTracker counts in-flight background refreshes so shutdown and
// tests can wait for them. The request path never joins it.
type refreshTracker struct {
	wg sync.WaitGroup
}

func (t *refreshTracker) track(fn func()) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		fn()
	}()
}

// Wait blocks until all in-flight background refreshes finished.
func (t *refreshTracker) Wait() {
	t.wg.Wait()
}
