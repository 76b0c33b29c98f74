package service

import (
	"context"
	"testing"

	"docflow/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputValueValidation(t *testing.T) {
	svc := NewInputService(newFakeInputRepo())
	ctx := context.Background()

	cases := []struct {
		name string
		req  InputValueRequest
		ok   bool
	}{
		{"steel grade", InputValueRequest{Value: "T280", Category: model.InputCategoryMaterialGrade, TestType: model.TestTypeSteel}, true},
		{"concrete grade", InputValueRequest{Value: "K300", Category: model.InputCategoryMaterialGrade, TestType: model.TestTypeConcrete}, true},
		{"steel grade with K", InputValueRequest{Value: "K280", Category: model.InputCategoryMaterialGrade, TestType: model.TestTypeSteel}, false},
		{"concrete grade with T", InputValueRequest{Value: "T300", Category: model.InputCategoryMaterialGrade, TestType: model.TestTypeConcrete}, false},
		{"type has no prefix rule", InputValueRequest{Value: "Ulir", Category: model.InputCategoryMaterialType, TestType: model.TestTypeSteel}, true},
		{"blank value", InputValueRequest{Value: "  ", Category: model.InputCategoryMaterialType, TestType: model.TestTypeSteel}, false},
		{"bad category", InputValueRequest{Value: "X", Category: "color", TestType: model.TestTypeSteel}, false},
		{"bad test type", InputValueRequest{Value: "X", Category: model.InputCategoryMaterialType, TestType: "Kayu"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.req)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrValidation)
			}
		})
	}
}

func TestInputValueUniquenessIgnoresCase(t *testing.T) {
	svc := NewInputService(newFakeInputRepo())
	ctx := context.Background()

	first, err := svc.Create(ctx, InputValueRequest{Value: "Polos", Category: model.InputCategoryMaterialType, TestType: model.TestTypeSteel})
	require.NoError(t, err)

	_, err = svc.Create(ctx, InputValueRequest{Value: "polos", Category: model.InputCategoryMaterialType, TestType: model.TestTypeSteel})
	assert.ErrorIs(t, err, ErrConflict)

	// same value under another test type is fine
	_, err = svc.Create(ctx, InputValueRequest{Value: "Polos", Category: model.InputCategoryMaterialType, TestType: model.TestTypeConcrete})
	require.NoError(t, err)

	// renaming to its own value in another case is not a duplicate
	updated, err := svc.Update(ctx, first.ID.String(), InputValueRequest{Value: "POLOS", Category: model.InputCategoryMaterialType, TestType: model.TestTypeSteel})
	require.NoError(t, err)
	assert.Equal(t, "POLOS", updated.Value)
}

func TestInputValueListAndDelete(t *testing.T) {
	svc := NewInputService(newFakeInputRepo())
	ctx := context.Background()

	for _, v := range []string{"Ulir", "Polos"} {
		_, err := svc.Create(ctx, InputValueRequest{Value: v, Category: model.InputCategoryMaterialType, TestType: model.TestTypeSteel})
		require.NoError(t, err)
	}
	grade, err := svc.Create(ctx, InputValueRequest{Value: "T420", Category: model.InputCategoryMaterialGrade, TestType: model.TestTypeSteel})
	require.NoError(t, err)

	types, err := svc.List(ctx, model.TestTypeSteel, model.InputCategoryMaterialType)
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "Polos", types[0].Value)

	none, err := svc.List(ctx, model.TestTypeConcrete, "")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	require.NoError(t, svc.Delete(ctx, grade.ID.String()))
	assert.ErrorIs(t, svc.Delete(ctx, grade.ID.String()), ErrNotFound)
	_, err = svc.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}
