// internal/service/complaint.go
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/haysimo/siteops/internal/domain"
	"github.com/haysimo/siteops/internal/repository"
)

// ErrEmptyReply rejects a reply whose text is empty after trimming.
var ErrEmptyReply = errors.New("reply text is empty")

// complaintUpdateAttempts bounds the read-modify-write loop used when
// touching a complaint document.
const complaintUpdateAttempts = 5

// ComplaintService manages machine complaint threads.
type ComplaintService struct {
	store repository.Store
	now   func() time.Time
}

func NewComplaintService(store repository.Store) *ComplaintService {
	return &ComplaintService{store: store, now: time.Now}
}

// Open files a new complaint against a machine.
func (s *ComplaintService) Open(ctx context.Context, machine, operator, details string) (domain.Complaint, error) {
	c := domain.Complaint{
		Machine:   strings.TrimSpace(machine),
		Operator:  strings.TrimSpace(operator),
		Details:   strings.TrimSpace(details),
		Status:    domain.ComplaintOpen,
		CreatedAt: s.now().UTC(),
	}

	id, err := s.store.InsertDocument(ctx, repository.CollectionComplaints, c.Fields())
	if err != nil {
		return domain.Complaint{}, fmt.Errorf("could not open complaint: %w", err)
	}
	c.ID = id
	return c, nil
}

// Get returns one complaint by id.
func (s *ComplaintService) Get(ctx context.Context, id string) (domain.Complaint, error) {
	doc, err := s.store.GetDocument(ctx, repository.CollectionComplaints, id)
	if err != nil {
		return domain.Complaint{}, err
	}
	return domain.ComplaintFromFields(doc.ID, doc.Fields), nil
}

// List returns every complaint, newest first.
func (s *ComplaintService) List(ctx context.Context) ([]domain.Complaint, error) {
	docs, err := s.store.ListDocuments(ctx, repository.CollectionComplaints)
	if err != nil {
		return nil, fmt.Errorf("could not list complaints: %w", err)
	}

	complaints := make([]domain.Complaint, 0, len(docs))
	for _, doc := range docs {
		complaints = append(complaints, domain.ComplaintFromFields(doc.ID, doc.Fields))
	}
	sortComplaintsNewestFirst(complaints)
	return complaints, nil
}

// Resolve marks a complaint resolved. Resolving an already-resolved
// complaint is a no-op, not an error.
func (s *ComplaintService) Resolve(ctx context.Context, id string) error {
	return s.update(ctx, id, func(c *domain.Complaint) bool {
		if c.Status == domain.ComplaintResolved {
			return false
		}
		c.Status = domain.ComplaintResolved
		return true
	})
}

// AppendReply adds a message to the complaint thread. Replies are accepted
// after resolution as well.
func (s *ComplaintService) AppendReply(ctx context.Context, id, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyReply
	}

	reply := domain.Reply{Text: text, Timestamp: s.now().UTC()}
	return s.update(ctx, id, func(c *domain.Complaint) bool {
		c.Replies = append(c.Replies, reply)
		return true
	})
}

// update runs a read-modify-write with a small conditional-write retry loop.
// mutate returns false to signal there is nothing to persist.
func (s *ComplaintService) update(ctx context.Context, id string, mutate func(*domain.Complaint) bool) error {
	for attempt := 0; attempt < complaintUpdateAttempts; attempt++ {
		doc, err := s.store.GetDocument(ctx, repository.CollectionComplaints, id)
		if err != nil {
			return err
		}

		c := domain.ComplaintFromFields(doc.ID, doc.Fields)
		if !mutate(&c) {
			return nil
		}

		err = s.store.UpdateDocument(ctx, repository.CollectionComplaints, id, doc.Version, c.Fields())
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("could not update complaint %s: %w", id, err)
		}
		return nil
	}
	return ErrConflictExhausted
}

func sortComplaintsNewestFirst(complaints []domain.Complaint) {
	sort.SliceStable(complaints, func(i, j int) bool {
		return complaints[i].CreatedAt.After(complaints[j].CreatedAt)
	})
}
