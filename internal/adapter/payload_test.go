package adapter

import (
	"encoding/json"
	"testing"

	"github.com/MKhiriev/go-record-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload_KeepsMemberOrder(t *testing.T) {
	p, err := decodePayload([]byte(`{"z":1,"a":"x","m":[true,null,{"k":"v"}]}`))
	require.NoError(t, err)

	obj, ok := p.(models.PayloadObject)
	require.True(t, ok)
	require.Len(t, obj.Members, 3)
	assert.Equal(t, "z", obj.Members[0].Key)
	assert.Equal(t, models.PayloadScalar{Value: json.Number("1")}, obj.Members[0].Value)
	assert.Equal(t, "a", obj.Members[1].Key)

	arr, ok := obj.Members[2].Value.(models.PayloadArray)
	require.True(t, ok)
	require.Len(t, arr.Items, 3)
	assert.Equal(t, "1", arr.Items[1].Key)
	assert.Equal(t, models.PayloadScalar{Value: nil}, arr.Items[1].Value)
	assert.IsType(t, models.PayloadObject{}, arr.Items[2].Value)
}

func TestDecodePayload_KeepsLargeIntegers(t *testing.T) {
	p, err := decodePayload([]byte(`{"AnnualRevenue":12345678901234567890,"Rate":0.1}`))
	require.NoError(t, err)

	obj, ok := p.(models.PayloadObject)
	require.True(t, ok)
	require.Len(t, obj.Members, 2)
	assert.Equal(t, models.PayloadScalar{Value: json.Number("12345678901234567890")}, obj.Members[0].Value)
	assert.Equal(t, models.PayloadScalar{Value: json.Number("0.1")}, obj.Members[1].Value)
}

func TestDecodePayload_Errors(t *testing.T) {
	for _, in := range []string{``, `{"a":`, `[1,2`, `{} {}`} {
		_, err := decodePayload([]byte(in))
		assert.Error(t, err, in)
	}
}
