package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type partLine struct {
	NotificationNumber string     `json:"notification_number"`
	ItemNumber         FlexString `json:"item_number"`
	Qty                FlexUint64 `json:"qty"`
}

func TestParseFlexListArrayAndObject(t *testing.T) {
	list, err := ParseFlexList[partLine](`[{"notification_number":"N1","item_number":10,"qty":"3"},{"notification_number":"N2","item_number":"0020","qty":4}]`)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "10", list[0].ItemNumber.String())
	assert.Equal(t, uint64(3), list[0].Qty.Value)
	assert.Equal(t, "0020", list[1].ItemNumber.String())
	assert.Equal(t, uint64(4), *list[1].Qty.Ptr())

	single, err := ParseFlexList[partLine](`{"notification_number":"N3"}`)
	require.NoError(t, err)
	require.Len(t, single.Slice(), 1)
	assert.Equal(t, "N3", single[0].NotificationNumber)
	assert.Nil(t, single[0].Qty.Ptr())
}

func TestParseFlexListBlank(t *testing.T) {
	list, err := ParseFlexList[partLine]("   ")
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = ParseFlexList[partLine]("null")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = ParseFlexList[partLine]("{not json")
	require.Error(t, err)
}

func TestFlexUint64(t *testing.T) {
	var f FlexUint64
	require.NoError(t, json.Unmarshal([]byte(`""`), &f))
	assert.False(t, f.Valid)

	require.Error(t, json.Unmarshal([]byte(`"three"`), &f))
	require.Error(t, json.Unmarshal([]byte(`true`), &f))

	out, err := json.Marshal(FlexUint64{Value: 12, Valid: true})
	require.NoError(t, err)
	assert.Equal(t, "12", string(out))

	out, err = json.Marshal(FlexUint64{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}
