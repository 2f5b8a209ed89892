package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/careline/chatbot-be/config"
	"github.com/careline/chatbot-be/types"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v4/weaviate"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v4/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const BATCH_SIZE = 200

// listPageSize bounds the GraphQL pages used when walking the whole index.
const listPageSize = 1000

var (
	PASSAGE_CLASS        = "Passage"
	PASSAGE_CLASS_OBJECT = &models.Class{
		Class: PASSAGE_CLASS,
		Properties: []*models.Property{
			{Name: "passageId", DataType: []string{"text"}},
			{Name: "documentId", DataType: []string{"text"}},
			{Name: "text", DataType: []string{"text"}},
			{Name: "chunkIndex", DataType: []string{"int"}},
			{Name: "title", DataType: []string{"text"}},
			{Name: "source", DataType: []string{"text"}},
			{Name: "tags", DataType: []string{"text[]"}},
		},
		// Embeddings are produced by the AI provider, not by Weaviate.
		Vectorizer:      "none",
		VectorIndexType: "hnsw",
	}
)

type WeaviateIndex struct {
	client *weaviate.Client
}

func NewWeaviateIndex(cfg config.WeaviateStoreConfig) (*WeaviateIndex, error) {
	var scheme string
	if strings.Contains(cfg.Host, "https") {
		scheme = "https"
	} else {
		scheme = "http"
	}
	host := strings.TrimPrefix(cfg.Host, scheme+"://")
	wc := weaviate.Config{
		Host:   host,
		Scheme: scheme,
	}
	if cfg.APIKey != "" {
		wc.AuthConfig = auth.ApiKey{
			Value: cfg.APIKey,
		}
	}
	client, err := weaviate.NewClient(wc)
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %v", err)
	}

	idx := &WeaviateIndex{client: client}
	if err := idx.ensureClass(context.Background()); err != nil {
		return nil, err
	}
	return idx, nil
}

func (s *WeaviateIndex) ensureClass(ctx context.Context) error {
	schema, err := s.client.Schema().Getter().Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to get schema: %v", err)
	}
	for _, class := range schema.Classes {
		if class.Class == PASSAGE_CLASS {
			return nil
		}
	}
	if err := s.client.Schema().ClassCreator().WithClass(PASSAGE_CLASS_OBJECT).Do(ctx); err != nil {
		return fmt.Errorf("failed to create Passage class: %v", err)
	}
	return nil
}

// objectID derives a stable Weaviate object UUID from the passage id so
// re-indexing the same passage overwrites instead of duplicating.
func objectID(passageID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("passage:"+passageID)).String()
}

func passageProperties(p types.Passage) map[string]interface{} {
	return map[string]interface{}{
		"passageId":  p.ID,
		"documentId": p.DocumentID,
		"text":       p.Text,
		"chunkIndex": p.ChunkIndex,
		"title":      p.Metadata.Title,
		"source":     p.Metadata.Source,
		"tags":       p.Metadata.Tags,
	}
}

func (s *WeaviateIndex) UpsertPassages(ctx context.Context, passages []types.Passage) error {
	total := len(passages)
	for i := 0; i < total; i += BATCH_SIZE {
		end := i + BATCH_SIZE
		if end > total {
			end = total
		}
		batcher := s.client.Batch().ObjectsBatcher()
		for j := i; j < end; j++ {
			batcher = batcher.WithObjects(&models.Object{
				ID:         strfmt.UUID(objectID(passages[j].ID)),
				Class:      PASSAGE_CLASS,
				Properties: passageProperties(passages[j]),
				Vector:     passages[j].Embedding,
			})
		}
		if _, err := batcher.Do(ctx); err != nil {
			return fmt.Errorf("failed to insert batch %d-%d: %v", i, end, err)
		}
	}
	return nil
}

func (s *WeaviateIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	where := filters.Where().
		WithPath([]string{"documentId"}).
		WithOperator(filters.Equal).
		WithValueString(documentID)
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(PASSAGE_CLASS).
		WithWhere(where).
		Do(ctx)
	return err
}

func (s *WeaviateIndex) DeletePassages(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	where := filters.Where().
		WithPath([]string{"passageId"}).
		WithOperator(filters.ContainsAny).
		WithValueString(ids...)
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(PASSAGE_CLASS).
		WithWhere(where).
		Do(ctx)
	return err
}

func (s *WeaviateIndex) Search(ctx context.Context, vector []float32, limit int, filter types.SearchFilter) ([]types.ScoredPassage, error) {
	fields := []graphql.Field{
		{Name: "passageId"},
		{Name: "documentId"},
		{Name: "text"},
		{Name: "chunkIndex"},
		{Name: "title"},
		{Name: "source"},
		{Name: "tags"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}}},
	}
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	getBuilder := s.client.GraphQL().Get().
		WithClassName(PASSAGE_CLASS).
		WithFields(fields...).
		WithNearVector(nearVector)
	if limit > 0 {
		getBuilder = getBuilder.WithLimit(limit)
	}
	if where := buildSearchFilter(filter); where != nil {
		getBuilder = getBuilder.WithWhere(where)
	}

	result, err := getBuilder.Do(ctx)
	if err != nil {
		return nil, err
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("search failed: %v", result.Errors[0].Message)
	}

	var scored []types.ScoredPassage
	for _, item := range classData(result.Data) {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		p := parsePassage(obj)
		var score float32
		if additional, ok := obj["_additional"].(map[string]interface{}); ok {
			if distance, ok := additional["distance"].(float64); ok {
				// Cosine distance; similarity = 1 - distance.
				score = float32(1 - distance)
			}
		}
		scored = append(scored, types.ScoredPassage{Passage: p, Score: score})
	}
	return scored, nil
}

func (s *WeaviateIndex) ListPassageIDs(ctx context.Context) ([]string, error) {
	var ids []string
	for offset := 0; ; offset += listPageSize {
		result, err := s.client.GraphQL().Get().
			WithClassName(PASSAGE_CLASS).
			WithFields(graphql.Field{Name: "passageId"}).
			WithLimit(listPageSize).
			WithOffset(offset).
			Do(ctx)
		if err != nil {
			return nil, err
		}
		if result.Errors != nil {
			return nil, fmt.Errorf("list failed: %v", result.Errors[0].Message)
		}
		page := classData(result.Data)
		for _, item := range page {
			if obj, ok := item.(map[string]interface{}); ok {
				if id, ok := obj["passageId"].(string); ok {
					ids = append(ids, id)
				}
			}
		}
		if len(page) < listPageSize {
			return ids, nil
		}
	}
}

func (s *WeaviateIndex) ListByDocument(ctx context.Context, documentID string) ([]types.Passage, error) {
	fields := []graphql.Field{
		{Name: "passageId"},
		{Name: "documentId"},
		{Name: "text"},
		{Name: "chunkIndex"},
		{Name: "title"},
		{Name: "source"},
		{Name: "tags"},
	}
	where := filters.Where().
		WithPath([]string{"documentId"}).
		WithOperator(filters.Equal).
		WithValueString(documentID)

	result, err := s.client.GraphQL().Get().
		WithClassName(PASSAGE_CLASS).
		WithFields(fields...).
		WithWhere(where).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if result.Errors != nil {
		return nil, fmt.Errorf("list failed: %v", result.Errors[0].Message)
	}

	var passages []types.Passage
	for _, item := range classData(result.Data) {
		if obj, ok := item.(map[string]interface{}); ok {
			passages = append(passages, parsePassage(obj))
		}
	}
	return passages, nil
}

// ReplaceAll drops and recreates the Passage class, then reinserts the
// given passages in batches. Reads issued against the class while the
// batches load may see a partial view; the index service only promotes
// the rebuilt state as healthy once this returns.
func (s *WeaviateIndex) ReplaceAll(ctx context.Context, passages []types.Passage) error {
	if err := s.Reset(ctx); err != nil {
		return err
	}
	return s.UpsertPassages(ctx, passages)
}

func (s *WeaviateIndex) Reset(ctx context.Context) error {
	err := s.client.Schema().ClassDeleter().WithClassName(PASSAGE_CLASS).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete Passage class: %v", err)
	}
	if err := s.client.Schema().ClassCreator().WithClass(PASSAGE_CLASS_OBJECT).Do(ctx); err != nil {
		return fmt.Errorf("failed to create Passage class: %v", err)
	}
	return nil
}

// Helper functions

func classData(data map[string]models.JSONObject) []interface{} {
	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return nil
	}
	items, _ := get[PASSAGE_CLASS].([]interface{})
	return items
}

func parsePassage(obj map[string]interface{}) types.Passage {
	p := types.Passage{}
	if v, ok := obj["passageId"].(string); ok {
		p.ID = v
	}
	if v, ok := obj["documentId"].(string); ok {
		p.DocumentID = v
	}
	if v, ok := obj["text"].(string); ok {
		p.Text = v
	}
	if v, ok := obj["chunkIndex"].(float64); ok {
		p.ChunkIndex = int(v)
	}
	if v, ok := obj["title"].(string); ok {
		p.Metadata.Title = v
	}
	if v, ok := obj["source"].(string); ok {
		p.Metadata.Source = v
		p.Source = v
	}
	p.Metadata.Tags = parseStringArray(obj["tags"])
	return p
}

func parseStringArray(v interface{}) []string {
	if v == nil {
		return nil
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}
	result := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

func buildSearchFilter(filter types.SearchFilter) *filters.WhereBuilder {
	var whereFilter *filters.WhereBuilder

	if filter.Source != "" {
		whereFilter = filters.Where().
			WithPath([]string{"source"}).
			WithOperator(filters.Equal).
			WithValueString(filter.Source)
	}

	if len(filter.Tags) > 0 {
		tagFilter := filters.Where().
			WithPath([]string{"tags"}).
			WithOperator(filters.ContainsAny).
			WithValueString(filter.Tags...)
		if whereFilter == nil {
			whereFilter = tagFilter
		} else {
			whereFilter = whereFilter.WithOperator(filters.And).WithOperands([]*filters.WhereBuilder{tagFilter})
		}
	}

	return whereFilter
}
