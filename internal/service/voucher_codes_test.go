package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestGenerateCodeShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := GenerateCode(CodeLength)
		require.NoError(t, err)
		require.Len(t, code, CodeLength)
		for _, ch := range code {
			require.Contains(t, codeCharset, string(ch))
		}
		seen[code] = true
	}
	// 100 draws from a 32^10 space colliding would mean the generator is broken
	require.Len(t, seen, 100)
}

func TestGenerateUniqueCodeRetriesOnCollision(t *testing.T) {
	mockOrders := new(MockOrderRepository)
	mockOrders.On("CodeExists", mock.Anything, mock.AnythingOfType("string")).Return(true, nil).Twice()
	mockOrders.On("CodeExists", mock.Anything, mock.AnythingOfType("string")).Return(false, nil).Once()

	gen := NewCodeGenerator(mockOrders)

	code, err := gen.GenerateUniqueCode(context.Background())
	require.NoError(t, err)
	require.Len(t, code, CodeLength)
	mockOrders.AssertNumberOfCalls(t, "CodeExists", 3)
}

func TestGenerateUniqueCodeFallsBackAfterExhaustedRetries(t *testing.T) {
	mockOrders := new(MockOrderRepository)
	mockOrders.On("CodeExists", mock.Anything, mock.AnythingOfType("string")).Return(true, nil)

	gen := NewCodeGenerator(mockOrders)

	code, err := gen.GenerateUniqueCode(context.Background())
	require.NoError(t, err)
	require.Greater(t, len(code), CodeLength)

	// The base of the fallback code still comes from the fixed charset
	for _, ch := range code[:CodeLength] {
		require.Contains(t, codeCharset, string(ch))
	}
	mockOrders.AssertNumberOfCalls(t, "CodeExists", maxCodeAttempts)
}
