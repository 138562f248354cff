package order

import (
	"sort"
	"strings"
	"time"
)

// Criteria narrows an order listing. Zero values mean "no constraint" and all
// constraints are combined with AND.
type Criteria struct {
	Status       Status
	From         *time.Time
	To           *time.Time
	OrderNumber  string
	CustomerName string
}

func (c Criteria) Match(o *Order) bool {
	if o == nil {
		return false
	}
	if c.Status != "" && o.Status != c.Status {
		return false
	}
	if c.From != nil && o.CreatedAt.Before(*c.From) {
		return false
	}
	if c.To != nil && o.CreatedAt.After(*c.To) {
		return false
	}
	if c.OrderNumber != "" && !strings.Contains(o.OrderNumber, c.OrderNumber) {
		return false
	}
	if c.CustomerName != "" {
		needle := strings.ToLower(strings.TrimSpace(c.CustomerName))
		first := strings.ToLower(o.Customer.FirstName)
		last := strings.ToLower(o.Customer.LastName)
		full := strings.ToLower(o.Customer.FullName())
		if !strings.Contains(first, needle) && !strings.Contains(last, needle) && !strings.Contains(full, needle) {
			return false
		}
	}
	return true
}

// Filter returns the orders matching c, newest first.
func (c Criteria) Filter(orders []*Order) []*Order {
	out := make([]*Order, 0, len(orders))
	for _, o := range orders {
		if c.Match(o) {
			out = append(out, o)
		}
	}
	SortNewestFirst(out)
	return out
}

func SortNewestFirst(orders []*Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].OrderNumber > orders[j].OrderNumber
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
