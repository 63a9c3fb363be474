// internal/service/site.go
package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/haysimo/siteops/internal/domain"
	"github.com/haysimo/siteops/internal/repository"
)

// SiteService manages the employee and machine registries.
type SiteService struct {
	store repository.Store
	now   func() time.Time
}

func NewSiteService(store repository.Store) *SiteService {
	return &SiteService{store: store, now: time.Now}
}

func (s *SiteService) CreateEmployee(ctx context.Context, e domain.Employee) (domain.Employee, error) {
	e.CreatedAt = s.now().UTC()
	id, err := s.store.InsertDocument(ctx, repository.CollectionEmployees, e.Fields())
	if err != nil {
		return domain.Employee{}, fmt.Errorf("could not create employee: %w", err)
	}
	e.ID = id
	return e, nil
}

func (s *SiteService) ListEmployees(ctx context.Context) ([]domain.Employee, error) {
	docs, err := s.store.ListDocuments(ctx, repository.CollectionEmployees)
	if err != nil {
		return nil, fmt.Errorf("could not list employees: %w", err)
	}

	employees := make([]domain.Employee, 0, len(docs))
	for _, doc := range docs {
		employees = append(employees, domain.EmployeeFromFields(doc.ID, doc.Fields))
	}
	sort.Slice(employees, func(i, j int) bool { return employees[i].Name < employees[j].Name })
	return employees, nil
}

func (s *SiteService) DeleteEmployee(ctx context.Context, id string) error {
	return s.store.DeleteDocument(ctx, repository.CollectionEmployees, id)
}

func (s *SiteService) CreateMachine(ctx context.Context, m domain.Machine) (domain.Machine, error) {
	m.CreatedAt = s.now().UTC()
	id, err := s.store.InsertDocument(ctx, repository.CollectionMachines, m.Fields())
	if err != nil {
		return domain.Machine{}, fmt.Errorf("could not create machine: %w", err)
	}
	m.ID = id
	return m, nil
}

func (s *SiteService) ListMachines(ctx context.Context) ([]domain.Machine, error) {
	docs, err := s.store.ListDocuments(ctx, repository.CollectionMachines)
	if err != nil {
		return nil, fmt.Errorf("could not list machines: %w", err)
	}

	machines := make([]domain.Machine, 0, len(docs))
	for _, doc := range docs {
		machines = append(machines, domain.MachineFromFields(doc.ID, doc.Fields))
	}
	sort.Slice(machines, func(i, j int) bool { return machines[i].Name < machines[j].Name })
	return machines, nil
}

func (s *SiteService) DeleteMachine(ctx context.Context, id string) error {
	return s.store.DeleteDocument(ctx, repository.CollectionMachines, id)
}
