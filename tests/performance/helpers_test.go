package performance

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/getmockd/replayd/pkg/cassette"
)

// makeTransaction builds a realistic recorded exchange for the given path.
func makeTransaction(path string) *cassette.Transaction {
	return &cassette.Transaction{
		ID:         "bench-" + strings.TrimPrefix(path, "/"),
		RecordedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		Request: cassette.RecordedRequest{
			Method: "GET",
			URL:    "https://api.example.com" + path,
			Headers: http.Header{
				"Accept":       {"application/json"},
				"Content-Type": {"application/json"},
			},
		},
		Response: cassette.RecordedResponse{
			StatusCode: 200,
			Status:     "200 OK",
			Headers: http.Header{
				"Content-Type": {"application/json"},
			},
			Body: cassette.Body(`{"ok":true,"path":"` + path + `"}`),
		},
		Duration: 42 * time.Millisecond,
	}
}

// makeTransactions builds n distinct transactions.
func makeTransactions(n int) []*cassette.Transaction {
	txns := make([]*cassette.Transaction, n)
	for i := range txns {
		txns[i] = makeTransaction(fmt.Sprintf("/users/%d", i))
	}
	return txns
}

// manyHeaders builds a header set of the given size.
func manyHeaders(n int) http.Header {
	h := http.Header{}
	for i := 0; i < n; i++ {
		h.Set(fmt.Sprintf("X-Bench-%d", i), fmt.Sprintf("value-%d", i))
	}
	return h
}
