package es

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Louis-Gabriel-TM/stores-api/internal/models"
)

// Index mirrors the items table into Elasticsearch for name search.
type Index struct {
	Client *elasticsearch.Client
	Name   string
}

func (i *Index) IndexItem(ctx context.Context, item models.Item) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(item); err != nil {
		return err
	}

	res, err := i.Client.Index(
		i.Name,
		&buf,
		i.Client.Index.WithDocumentID(strconv.FormatUint(uint64(item.ID), 10)),
		i.Client.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch index: %s", res.Status())
	}
	return nil
}

func (i *Index) DeleteItem(ctx context.Context, id uint) error {
	res, err := i.Client.Delete(
		i.Name,
		strconv.FormatUint(uint64(id), 10),
		i.Client.Delete.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("elasticsearch delete: %s", res.Status())
	}
	return nil
}

func (i *Index) SearchItems(ctx context.Context, query string, from, size int) (int64, []models.Item, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"match": map[string]interface{}{
				"name": map[string]interface{}{
					"query":     query,
					"fuzziness": "AUTO",
				},
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := i.Client.Search(
		i.Client.Search.WithContext(ctx),
		i.Client.Search.WithIndex(i.Name),
		i.Client.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("elasticsearch search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Item `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	items := make([]models.Item, len(r.Hits.Hits))
	for idx, hit := range r.Hits.Hits {
		items[idx] = hit.Source
	}
	return r.Hits.Total.Value, items, nil
}
