package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"
)

type Result struct {
	Total    int64             `json:"total"`
	Products []json.RawMessage `json:"productos"`
}

// Indexer mirrors product records into a full-text index.
type Indexer interface {
	Index(ctx context.Context, id int, record any) error
	Delete(ctx context.Context, id int) error
	Search(ctx context.Context, query string, from, size int) (Result, error)
}

type ESIndexer struct {
	Client    *elasticsearch.Client
	IndexName string
}

func NewESIndexer(client *elasticsearch.Client, index string) *ESIndexer {
	return &ESIndexer{Client: client, IndexName: index}
}

func (x *ESIndexer) Index(ctx context.Context, id int, record any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(record); err != nil {
		return fmt.Errorf("index encode: %w", err)
	}

	res, err := x.Client.Index(
		x.IndexName,
		&buf,
		x.Client.Index.WithContext(ctx),
		x.Client.Index.WithDocumentID(strconv.Itoa(id)),
	)
	if err != nil {
		return fmt.Errorf("index product %d: %w", id, err)
	}
	return checkResponse(res, "index")
}

func (x *ESIndexer) Delete(ctx context.Context, id int) error {
	res, err := x.Client.Delete(
		x.IndexName,
		strconv.Itoa(id),
		x.Client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	if res.StatusCode == http.StatusNotFound {
		res.Body.Close()
		return nil
	}
	return checkResponse(res, "delete")
}

func (x *ESIndexer) Search(ctx context.Context, query string, from, size int) (Result, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"nombre^2", "*"},
				"fuzziness": "AUTO",
				"lenient":   true,
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return Result{}, fmt.Errorf("search encode: %w", err)
	}

	res, err := x.Client.Search(
		x.Client.Search.WithContext(ctx),
		x.Client.Search.WithIndex(x.IndexName),
		x.Client.Search.WithBody(&buf),
	)
	if err != nil {
		return Result{}, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return Result{}, fmt.Errorf("search: %s: %s", res.Status(), msg)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return Result{}, fmt.Errorf("search decode: %w", err)
	}

	out := Result{Total: r.Hits.Total.Value, Products: make([]json.RawMessage, 0, len(r.Hits.Hits))}
	for _, hit := range r.Hits.Hits {
		out.Products = append(out.Products, hit.Source)
	}
	return out, nil
}

func checkResponse(res *esapi.Response, op string) error {
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("%s: %s: %s", op, res.Status(), msg)
	}
	return nil
}
