// internal/domain/site.go
package domain

import "time"

// Employee is one site employee record.
type Employee struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

func (e Employee) Fields() map[string]any {
	return map[string]any{
		"name":       e.Name,
		"role":       e.Role,
		"phone":      e.Phone,
		"created_at": e.CreatedAt,
	}
}

func EmployeeFromFields(id string, fields map[string]any) Employee {
	e := Employee{ID: id}
	if v, ok := fields["name"].(string); ok {
		e.Name = v
	}
	if v, ok := fields["role"].(string); ok {
		e.Role = v
	}
	if v, ok := fields["phone"].(string); ok {
		e.Phone = v
	}
	if v, ok := fields["created_at"].(time.Time); ok {
		e.CreatedAt = v
	}
	return e
}

// Machine is one production machine on the site floor.
type Machine struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Section   string    `json:"section"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func (m Machine) Fields() map[string]any {
	return map[string]any{
		"name":       m.Name,
		"section":    m.Section,
		"status":     m.Status,
		"created_at": m.CreatedAt,
	}
}

func MachineFromFields(id string, fields map[string]any) Machine {
	m := Machine{ID: id}
	if v, ok := fields["name"].(string); ok {
		m.Name = v
	}
	if v, ok := fields["section"].(string); ok {
		m.Section = v
	}
	if v, ok := fields["status"].(string); ok {
		m.Status = v
	}
	if v, ok := fields["created_at"].(time.Time); ok {
		m.CreatedAt = v
	}
	return m
}
