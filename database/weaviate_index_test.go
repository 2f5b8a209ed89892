package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"
)

func graphqlPayload(items ...interface{}) map[string]models.JSONObject {
	return map[string]models.JSONObject{
		"Get": map[string]interface{}{
			PASSAGE_CLASS: items,
		},
	}
}

func TestClassDataWalksGraphQLPayload(t *testing.T) {
	items := classData(graphqlPayload(map[string]interface{}{
		"passageId":  "doc1:0",
		"documentId": "doc1",
		"text":       "Whitening takes 60 minutes.",
		"chunkIndex": float64(0),
		"title":      "Whitening",
		"source":     "faq",
		"tags":       []interface{}{"public", "pricing"},
	}))
	require.Len(t, items, 1)

	obj, ok := items[0].(map[string]interface{})
	require.True(t, ok)
	p := parsePassage(obj)
	assert.Equal(t, "doc1:0", p.ID)
	assert.Equal(t, "doc1", p.DocumentID)
	assert.Equal(t, "Whitening takes 60 minutes.", p.Text)
	assert.Equal(t, 0, p.ChunkIndex)
	assert.Equal(t, "Whitening", p.Metadata.Title)
	assert.Equal(t, "faq", p.Metadata.Source)
	assert.Equal(t, []string{"public", "pricing"}, p.Metadata.Tags)
}

func TestClassDataToleratesMissingClass(t *testing.T) {
	assert.Nil(t, classData(map[string]models.JSONObject{}))
	assert.Nil(t, classData(map[string]models.JSONObject{
		"Get": map[string]interface{}{},
	}))
}
