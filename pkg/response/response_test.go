package response

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessOmitsError(t *testing.T) {
	r := Success(http.StatusOK, map[string]string{"id": "1"})
	assert.Equal(t, "success", r.Status)
	assert.Equal(t, http.StatusOK, r.StatusCode)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "error")
}

func TestErrorOmitsData(t *testing.T) {
	r := Error(http.StatusNotFound, "product not found")
	assert.Equal(t, "error", r.Status)
	assert.Equal(t, http.StatusNotFound, r.StatusCode)
	assert.Equal(t, "product not found", r.Error)

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "data")
}
