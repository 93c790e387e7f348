package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/rebanho-api/internal/application/dto"
	"github.com/jhoicas/rebanho-api/internal/application/usecase"
	"github.com/jhoicas/rebanho-api/internal/domain"
	"github.com/jhoicas/rebanho-api/internal/infrastructure/memory"
)

func TestPropertyUseCase_CodigoUnicoPorEmpresa(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewPropertyUseCase(memory.New().Properties())

	p, err := uc.Create(ctx, "co-1", dto.CreatePropertyRequest{Name: "Fazenda Aurora", Code: "AUR"})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)

	_, err = uc.Create(ctx, "co-1", dto.CreatePropertyRequest{Name: "Otra", Code: "AUR"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	_, err = uc.Create(ctx, "co-2", dto.CreatePropertyRequest{Name: "Otra", Code: "AUR"})
	assert.NoError(t, err, "el mismo código en otra empresa es válido")

	_, err = uc.GetByID(ctx, "co-2", p.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	list, err := uc.List(ctx, "co-1", 20, 0)
	require.NoError(t, err)
	assert.Len(t, list.Items, 1)
}

func TestCategoryUseCase_Sucesora(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	uc := usecase.NewCategoryUseCase(store.Categories())

	novilho, err := uc.Create(ctx, "co-1", dto.CreateCategoryRequest{Code: "NOV", Name: "Novilho", MinAgeMonths: 24})
	require.NoError(t, err)

	garrote, err := uc.Create(ctx, "co-1", dto.CreateCategoryRequest{
		Code: "GAR", Name: "Garrote", SuccessorID: novilho.ID, MinAgeMonths: 12, MaxAgeMonths: 24,
	})
	require.NoError(t, err)
	assert.Equal(t, novilho.ID, garrote.SuccessorID)

	_, err = uc.Create(ctx, "co-1", dto.CreateCategoryRequest{Code: "X", Name: "X", SuccessorID: "no-existe"})
	assert.ErrorIs(t, err, domain.ErrUnknownCategory)

	_, err = uc.Create(ctx, "co-2", dto.CreateCategoryRequest{Code: "X", Name: "X", SuccessorID: novilho.ID})
	assert.ErrorIs(t, err, domain.ErrForbidden, "la sucesora debe ser de la misma empresa")

	_, err = uc.Create(ctx, "co-1", dto.CreateCategoryRequest{Code: "Y", Name: "Y", MinAgeMonths: 24, MaxAgeMonths: 12})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestPlanUseCase_Fechas(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewPlanUseCase(memory.New().Plans())

	p, err := uc.Create(ctx, "co-1", dto.CreatePlanRequest{Name: "Base", StartDate: "2022-01-01", HorizonDate: "2023-12-31"})
	require.NoError(t, err)
	assert.Equal(t, "2022-01-01", p.StartDate)
	assert.Equal(t, "2023-12-31", p.HorizonDate)

	_, err = uc.Create(ctx, "co-1", dto.CreatePlanRequest{Name: "Mal", StartDate: "2022-01-01", HorizonDate: "2021-12-31"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "el horizonte no puede ser anterior al inicio")

	_, err = uc.Create(ctx, "co-1", dto.CreatePlanRequest{Name: "Mal", StartDate: "01/01/2022"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	owned, err := uc.Owned(ctx, "co-1", p.ID)
	require.NoError(t, err)
	require.NotNil(t, owned)

	_, err = uc.Owned(ctx, "co-2", p.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	missing, err := uc.Owned(ctx, "co-1", "no-existe")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
