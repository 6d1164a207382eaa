package es

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Skotchmaster/todo_list/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCluster struct {
	mu          sync.Mutex
	indexExists bool
	docs        map[string]models.Task
	lastSearch  map[string]any
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/":
		_, _ = io.WriteString(w, `{"version":{"number":"9.0.0"}}`)
	case r.Method == http.MethodHead && r.URL.Path == "/tasks":
		if !f.indexExists {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut && r.URL.Path == "/tasks":
		f.indexExists = true
		_, _ = io.WriteString(w, `{"acknowledged":true}`)
	case r.Method == http.MethodPut && len(r.URL.Path) > len("/tasks/_doc/"):
		var task models.Task
		_ = json.NewDecoder(r.Body).Decode(&task)
		f.docs[task.ID] = task
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	case r.Method == http.MethodDelete:
		id := r.URL.Path[len("/tasks/_doc/"):]
		if _, ok := f.docs[id]; !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"result":"not_found"}`)
			return
		}
		delete(f.docs, id)
		_, _ = io.WriteString(w, `{"result":"deleted"}`)
	case r.URL.Path == "/tasks/_search":
		f.lastSearch = map[string]any{}
		_ = json.NewDecoder(r.Body).Decode(&f.lastSearch)
		hits := make([]map[string]any, 0, len(f.docs))
		for _, d := range f.docs {
			hits = append(hits, map[string]any{"_source": d})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hits": map[string]any{
				"total": map[string]any{"value": len(hits)},
				"hits":  hits,
			},
		})
	default:
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"unexpected request"}`)
	}
}

func newTestIndex(t *testing.T) (*TaskIndex, *fakeCluster) {
	t.Helper()
	cluster := &fakeCluster{docs: map[string]models.Task{}}
	srv := httptest.NewServer(cluster)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), ClientConfig{URL: srv.URL}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return NewTaskIndex(client, "tasks"), cluster
}

func TestEnsureIndex_CreatesOnce(t *testing.T) {
	idx, cluster := newTestIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.EnsureIndex(ctx))
	assert.True(t, cluster.indexExists)
	require.NoError(t, idx.EnsureIndex(ctx))
}

func TestIndexSearchDelete(t *testing.T) {
	idx, cluster := newTestIndex(t)
	ctx := context.Background()

	task := models.Task{ID: "task-1", UserID: "user-1", Title: "buy milk"}
	require.NoError(t, idx.IndexTask(ctx, task))
	require.Contains(t, cluster.docs, "task-1")

	total, tasks, err := idx.SearchTasks(ctx, "user-1", "milk", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, tasks, 1)
	assert.Equal(t, "buy milk", tasks[0].Title)

	query := cluster.lastSearch["query"].(map[string]any)["bool"].(map[string]any)
	filter := query["filter"].(map[string]any)["term"].(map[string]any)
	assert.Equal(t, "user-1", filter["user_id"])
	assert.EqualValues(t, 10, cluster.lastSearch["size"])

	require.NoError(t, idx.DeleteTask(ctx, "task-1"))
	assert.Empty(t, cluster.docs)
	require.NoError(t, idx.DeleteTask(ctx, "task-1"))
}
