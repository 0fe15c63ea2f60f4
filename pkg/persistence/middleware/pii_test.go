package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/funnel/pkg/adapters/memory"
	"github.com/aretw0/funnel/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := memory.NewStore()
	// Mask keys containing "phone" or "pan"
	secure := middleware.NewPIIMiddleware([]string{"phone", "^pan"})(underlying)
	ctx := context.Background()

	payload := `{"version":1,"fields":{"name":"Asha","phoneNumber":"9999999999","kyc":{"panCard":"ABCDE1234F","city":"Pune"},"members":[{"relation":"self","phone":"1"}]}}`
	require.NoError(t, secure.Set(ctx, "snapshot:health", payload))

	stored, err := underlying.Get(ctx, "snapshot:health")
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"version":1,"fields":{"name":"Asha","phoneNumber":"***","kyc":{"panCard":"***","city":"Pune"},"members":[{"relation":"self","phone":"***"}]}}`,
		stored)
}

func TestPIIMiddleware_NonJSONUntouched(t *testing.T) {
	underlying := memory.NewStore()
	secure := middleware.NewPIIMiddleware([]string{"phone"})(underlying)
	ctx := context.Background()

	require.NoError(t, secure.Set(ctx, "k", "phone=123"))
	got, err := underlying.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "phone=123", got)
}
