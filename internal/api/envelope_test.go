package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeTransformer_Success(t *testing.T) {
	out, err := EnvelopeTransformer(nil, "200", map[string]string{"hello": "world"})
	require.NoError(t, err)

	envelope, ok := out.(APIEnvelope)
	require.True(t, ok)
	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.True(t, envelope.Success)
	assert.Equal(t, map[string]string{"hello": "world"}, envelope.Data)
	assert.Empty(t, envelope.Error)
}

func TestEnvelopeTransformer_NonSuccessStatus(t *testing.T) {
	out, err := EnvelopeTransformer(nil, "404", map[string]string{"x": "y"})
	require.NoError(t, err)

	envelope, ok := out.(APIEnvelope)
	require.True(t, ok)
	assert.False(t, envelope.Success)
}

func TestEnvelopeTransformer_PlainError(t *testing.T) {
	out, err := EnvelopeTransformer(nil, "500", errors.New("something broke"))
	require.NoError(t, err)

	envelope, ok := out.(APIEnvelope)
	require.True(t, ok)
	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.False(t, envelope.Success)
	assert.Equal(t, "something broke", envelope.Error)
	assert.Nil(t, envelope.Data)
}

func TestEnvelopeTransformer_CodedError(t *testing.T) {
	apiErr := &APIError{
		status:  http.StatusConflict,
		Code:    "ALREADY_EXISTS",
		Message: "email already in use",
		Details: map[string]any{"field": "email"},
	}

	out, err := EnvelopeTransformer(nil, "409", apiErr)
	require.NoError(t, err)

	envelope, ok := out.(APIErrorEnvelope)
	require.True(t, ok)
	assert.Equal(t, EnvelopeVersion, envelope.Version)
	assert.False(t, envelope.Success)
	assert.Equal(t, "ALREADY_EXISTS", envelope.Code)
	assert.Equal(t, "email already in use", envelope.Message)
	assert.Equal(t, map[string]any{"field": "email"}, envelope.Details)
}

func TestEnvelopeTransformer_UncodedAPIError(t *testing.T) {
	apiErr := &APIError{
		status:  http.StatusNotFound,
		Message: "recipe not found",
	}

	out, err := EnvelopeTransformer(nil, "404", apiErr)
	require.NoError(t, err)

	// Without a code the simple envelope is used.
	envelope, ok := out.(APIEnvelope)
	require.True(t, ok)
	assert.False(t, envelope.Success)
	assert.Equal(t, "recipe not found", envelope.Error)
}
