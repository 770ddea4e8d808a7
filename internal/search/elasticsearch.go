package search

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/ximepaparella/gifty-api/config"
	"github.com/ximepaparella/gifty-api/internal/models"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ElasticClient provides order indexing and search over Elasticsearch
type ElasticClient struct {
	client *elasticsearch.Client
	config config.ElasticConfig
}

// NewElasticClient creates a new Elasticsearch client
func NewElasticClient(cfg config.ElasticConfig) (*ElasticClient, error) {
	esConfig := elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{client: client, config: cfg}, nil
}

// IndexOrder indexes an order in Elasticsearch. The order ID is the document
// ID, so re-indexing after fulfillment or redemption updates in place.
func (c *ElasticClient) IndexOrder(ctx context.Context, order *models.Order, store *models.Store) error {
	doc := map[string]interface{}{
		"id":              order.ID.String(),
		"customer_id":     order.CustomerID.String(),
		"store_id":        order.Voucher.StoreID.String(),
		"product_id":      order.Voucher.ProductID.String(),
		"voucher_code":    order.Voucher.Code,
		"voucher_status":  order.Voucher.Status,
		"amount":          order.Voucher.Amount,
		"sender_name":     order.Voucher.SenderName,
		"receiver_name":   order.Voucher.ReceiverName,
		"template":        order.Voucher.Template,
		"expiration_date": order.Voucher.ExpirationDate,
		"emails_sent":     order.EmailsSent,
		"pdf_generated":   order.PDFGenerated,
		"created_at":      order.CreatedAt,
	}
	if store != nil {
		doc["store_name"] = store.Name
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to marshal order document")
	}

	req := esapi.IndexRequest{
		Index:      c.config.Index,
		DocumentID: order.ID.String(),
		Body:       bytes.NewReader(docJSON),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return errors.Errorf("Elasticsearch index error: %v", e)
	}

	log.Info().Str("order_id", order.ID.String()).Msg("Order indexed")
	return nil
}

// SearchOrders runs a free-text query across the indexed order fields
func (c *ElasticClient) SearchOrders(ctx context.Context, queryText string, size int) ([]map[string]interface{}, error) {
	if size <= 0 {
		size = 20
	}
	query := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query": queryText,
				"fields": []string{
					"voucher_code^3",
					"sender_name",
					"receiver_name",
					"store_name",
				},
			},
		},
	}

	queryJSON, err := json.Marshal(query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal search query")
	}

	req := esapi.SearchRequest{
		Index: []string{c.config.Index},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute Elasticsearch search request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return nil, errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return nil, errors.Errorf("Elasticsearch search error: %v", e)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to parse Elasticsearch search response")
	}

	hits, ok := result["hits"].(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected search result format")
	}
	hitsArray, ok := hits["hits"].([]interface{})
	if !ok {
		return nil, errors.New("unexpected hits format")
	}

	var docs []map[string]interface{}
	for _, hit := range hitsArray {
		hitMap, ok := hit.(map[string]interface{})
		if !ok {
			continue
		}
		source, ok := hitMap["_source"].(map[string]interface{})
		if !ok {
			continue
		}
		docs = append(docs, source)
	}

	return docs, nil
}
