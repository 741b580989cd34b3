package papers_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/txrtlemrry/PaperFinder-App/internal/papers"
)

func TestList_DecodeKeepsDocumentOrder(t *testing.T) {
	var list papers.List
	require.NoError(t, json.Unmarshal([]byte(`{"5": "Probability", "1": "Pure 1", "3": "Pure 3"}`), &list))

	require.Len(t, list, 3)
	assert.Equal(t, "5", list[0].Number)
	assert.Equal(t, "1", list[1].Number)
	assert.Equal(t, "3", list[2].Number)

	data, err := json.Marshal(list)
	require.NoError(t, err)
	assert.JSONEq(t, `{"5":"Probability","1":"Pure 1","3":"Pure 3"}`, string(data))
	assert.Equal(t, `{"5":"Probability","1":"Pure 1","3":"Pure 3"}`, string(data))
}

func TestList_SetReplacesInPlace(t *testing.T) {
	list := papers.List{}.Set("1", "Pure 1").Set("4", "Mechanics").Set("1", "Pure Mathematics 1")

	require.Len(t, list, 2)
	assert.Equal(t, papers.Paper{Number: "1", Description: "Pure Mathematics 1"}, list[0])

	desc, ok := list.Get("4")
	assert.True(t, ok)
	assert.Equal(t, "Mechanics", desc)
	assert.Equal(t, map[string]string{"1": "Pure Mathematics 1", "4": "Mechanics"}, list.Map())
}

func TestList_DecodeRejectsNonObject(t *testing.T) {
	var list papers.List
	assert.Error(t, json.Unmarshal([]byte(`["1", "2"]`), &list))
	assert.Error(t, json.Unmarshal([]byte(`{"1": 2}`), &list))
}
