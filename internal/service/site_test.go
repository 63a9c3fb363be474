// internal/service/site_test.go
package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haysimo/siteops/internal/domain"
	"github.com/haysimo/siteops/internal/repository/memory"
)

func TestEmployeeLifecycle(t *testing.T) {
	svc := NewSiteService(memory.NewStore())
	ctx := context.Background()

	zara, err := svc.CreateEmployee(ctx, domain.Employee{Name: "Zara", Role: "operator"})
	require.NoError(t, err)
	require.NotEmpty(t, zara.ID)
	assert.False(t, zara.CreatedAt.IsZero())

	amina, err := svc.CreateEmployee(ctx, domain.Employee{Name: "Amina", Role: "supervisor"})
	require.NoError(t, err)

	employees, err := svc.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 2)
	assert.Equal(t, "Amina", employees[0].Name, "listing sorts by name")
	assert.Equal(t, "Zara", employees[1].Name)

	require.NoError(t, svc.DeleteEmployee(ctx, amina.ID))
	employees, err = svc.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "Zara", employees[0].Name)
}

func TestMachineLifecycle(t *testing.T) {
	svc := NewSiteService(memory.NewStore())
	ctx := context.Background()

	filler, err := svc.CreateMachine(ctx, domain.Machine{Name: "filler-1", Section: "bottling"})
	require.NoError(t, err)
	require.NotEmpty(t, filler.ID)

	machines, err := svc.ListMachines(ctx)
	require.NoError(t, err)
	require.Len(t, machines, 1)
	assert.Equal(t, "bottling", machines[0].Section)

	require.NoError(t, svc.DeleteMachine(ctx, filler.ID))
	machines, err = svc.ListMachines(ctx)
	require.NoError(t, err)
	assert.Empty(t, machines)
}
