package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Skotchmaster/todo_list/internal/models"
	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"
)

const taskMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "user_id":     {"type": "keyword"},
      "title":       {"type": "text"},
      "isCompleted": {"type": "boolean"},
      "created_at":  {"type": "date"}
    }
  }
}`

// TaskIndex mirrors tasks into an Elasticsearch index for full-text search.
type TaskIndex struct {
	ES    *elasticsearch.Client
	Index string
}

func NewTaskIndex(client *elasticsearch.Client, index string) *TaskIndex {
	return &TaskIndex{ES: client, Index: index}
}

func responseError(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(res.Body)
	return fmt.Errorf("%s: %s: %s", op, res.Status(), strings.TrimSpace(string(body)))
}

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (ti *TaskIndex) EnsureIndex(ctx context.Context) error {
	const op = "es.EnsureIndex"

	res, err := ti.ES.Indices.Exists([]string{ti.Index}, ti.ES.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = ti.ES.Indices.Create(ti.Index,
		ti.ES.Indices.Create.WithContext(ctx),
		ti.ES.Indices.Create.WithBody(strings.NewReader(taskMapping)),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError(op, res)
	}
	return nil
}

func (ti *TaskIndex) IndexTask(ctx context.Context, task models.Task) error {
	const op = "es.IndexTask"

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(task); err != nil {
		return fmt.Errorf("%s: encode: %w", op, err)
	}

	res, err := ti.ES.Index(ti.Index, &buf,
		ti.ES.Index.WithContext(ctx),
		ti.ES.Index.WithDocumentID(task.ID),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError(op, res)
	}
	return nil
}

// DeleteTask treats a missing document as already deleted.
func (ti *TaskIndex) DeleteTask(ctx context.Context, taskID string) error {
	const op = "es.DeleteTask"

	res, err := ti.ES.Delete(ti.Index, taskID, ti.ES.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError(op, res)
	}
	return nil
}

// SearchTasks runs a fuzzy title match restricted to userID's tasks.
func (ti *TaskIndex) SearchTasks(ctx context.Context, userID, query string, from, size int) (int64, []models.Task, error) {
	const op = "es.SearchTasks"

	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"match": map[string]any{
						"title": map[string]any{
							"query":     query,
							"fuzziness": "AUTO",
						},
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"user_id": userID},
				},
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("%s: encode: %w", op, err)
	}

	res, err := ti.ES.Search(
		ti.ES.Search.WithContext(ctx),
		ti.ES.Search.WithIndex(ti.Index),
		ti.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, responseError(op, res)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Task `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("%s: decode: %w", op, err)
	}

	tasks := make([]models.Task, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		tasks[i] = hit.Source
	}
	return r.Hits.Total.Value, tasks, nil
}
