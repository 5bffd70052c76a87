package leads

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/denisok6893-rgb/leadqual/internal/domain"
	"github.com/denisok6893-rgb/leadqual/internal/storage"
)

// memRepo is an in-memory Repository for service tests.
type memRepo struct {
	mu         sync.Mutex
	seq        int
	buyers     map[string]domain.Buyer
	marketers  map[string]domain.Marketer
	properties map[string]domain.Property
	leads      map[string]domain.Lead

	failCreateLead error
}

func newMemRepo() *memRepo {
	return &memRepo{
		buyers:     map[string]domain.Buyer{},
		marketers:  map[string]domain.Marketer{},
		properties: map[string]domain.Property{},
		leads:      map[string]domain.Lead{},
	}
}

func (r *memRepo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

func (r *memRepo) CreateBuyer(_ context.Context, b domain.Buyer) (domain.Buyer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.buyers {
		if x.Email == b.Email || x.Phone == b.Phone {
			return domain.Buyer{}, storage.ErrDuplicate
		}
	}
	b.ID = r.nextID("buyer")
	r.buyers[b.ID] = b
	return b, nil
}

func (r *memRepo) GetBuyer(_ context.Context, id string) (domain.Buyer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buyers[id]
	if !ok {
		return domain.Buyer{}, storage.ErrNotFound
	}
	return b, nil
}

func (r *memRepo) FindBuyerByContact(_ context.Context, email, phone string) (domain.Buyer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.buyers {
		if (email != "" && b.Email == email) || (phone != "" && b.Phone == phone) {
			return b, nil
		}
	}
	return domain.Buyer{}, storage.ErrNotFound
}

func (r *memRepo) CreateMarketer(_ context.Context, m domain.Marketer) (domain.Marketer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = r.nextID("marketer")
	r.marketers[m.ID] = m
	return m, nil
}

func (r *memRepo) GetMarketer(_ context.Context, id string) (domain.Marketer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.marketers[id]
	if !ok {
		return domain.Marketer{}, storage.ErrNotFound
	}
	return m, nil
}

func (r *memRepo) FindMarketerByContact(_ context.Context, email, phone string) (domain.Marketer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.marketers {
		if (email != "" && m.Email == email) || (phone != "" && m.Phone == phone) {
			return m, nil
		}
	}
	return domain.Marketer{}, storage.ErrNotFound
}

func (r *memRepo) CreateProperty(_ context.Context, p domain.Property) (domain.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = r.nextID("prop")
	}
	if p.Status == "" {
		p.Status = domain.StatusAvailable
	}
	r.properties[p.ID] = p
	return p, nil
}

func (r *memRepo) GetProperty(_ context.Context, id string) (domain.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.properties[id]
	if !ok {
		return domain.Property{}, storage.ErrNotFound
	}
	return p, nil
}

func (r *memRepo) DeleteProperty(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.properties[id]; !ok {
		return false, nil
	}
	delete(r.properties, id)
	return true, nil
}

func (r *memRepo) ListPropertiesFiltered(_ context.Context, f storage.PropertyFilter) ([]domain.Property, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Property
	for _, p := range r.properties {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.MarketerID != "" && p.MarketerID != f.MarketerID {
			continue
		}
		if (f.MinPrice > 0 && p.Price < f.MinPrice) || (f.MaxPrice > 0 && p.Price > f.MaxPrice) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := len(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (r *memRepo) CreateLead(_ context.Context, l domain.Lead) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreateLead != nil {
		return domain.Lead{}, r.failCreateLead
	}
	for _, x := range r.leads {
		if x.BuyerID == l.BuyerID && x.PropertyID == l.PropertyID {
			return domain.Lead{}, storage.ErrDuplicate
		}
	}
	l.ID = r.nextID("lead")
	r.leads[l.ID] = l
	return l, nil
}

func (r *memRepo) GetLead(_ context.Context, id string) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return domain.Lead{}, storage.ErrNotFound
	}
	return l, nil
}

func (r *memRepo) FindLead(_ context.Context, buyerID, propertyID string) (domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.leads {
		if l.BuyerID == buyerID && l.PropertyID == propertyID {
			return l, nil
		}
	}
	return domain.Lead{}, storage.ErrNotFound
}

func (r *memRepo) ListLeads(_ context.Context, f storage.LeadFilter) ([]domain.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Lead
	for _, l := range r.leads {
		if f.MarketerID != "" && l.MarketerID != f.MarketerID {
			continue
		}
		if f.BuyerID != "" && l.BuyerID != f.BuyerID {
			continue
		}
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BuyerScore != out[j].BuyerScore {
			return out[i].BuyerScore > out[j].BuyerScore
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *memRepo) UpdateLeadStatus(_ context.Context, id string, status domain.LeadStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok {
		return storage.ErrNotFound
	}
	l.Status = status
	r.leads[id] = l
	return nil
}
