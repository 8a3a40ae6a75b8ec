package query

import (
	"context"
	"fmt"

	"folio-server/src/models"
)

// PortfolioBoard adapts the portfolio summary cards to drag-reorder.
type PortfolioBoard struct {
	c *Client
}

func (c *Client) PortfolioBoard() PortfolioBoard {
	return PortfolioBoard{c: c}
}

func (b PortfolioBoard) Order(ctx context.Context) ([]int, error) {
	res := b.c.Summaries.Get(ctx)
	if !res.HasData {
		if res.Err != nil {
			return nil, res.Err
		}
		return nil, fmt.Errorf("portfolio summaries unavailable")
	}
	ids := make([]int, len(res.Data))
	for i, s := range res.Data {
		ids[i] = s.ID
	}
	return ids, nil
}

// Apply rewrites the cached summaries and portfolios into order.
func (b PortfolioBoard) Apply(order []int) func() {
	restoreSummaries := b.c.Summaries.Snapshot()
	restorePortfolios := b.c.Portfolios.Snapshot()

	if cur, ok := b.c.Summaries.Data(); ok {
		b.c.Summaries.SetData(arrange(cur, order, func(s models.PortfolioSummary) int { return s.ID }))
	}
	if cur, ok := b.c.Portfolios.Data(); ok {
		next := arrange(cur, order, func(p models.Portfolio) int { return p.ID })
		for i := range next {
			next[i].DisplayOrder = i
		}
		b.c.Portfolios.SetData(next)
	}

	return func() {
		restoreSummaries()
		restorePortfolios()
	}
}

func (b PortfolioBoard) Persist(ctx context.Context, order []int) error {
	return b.c.api.ReorderPortfolios(ctx, order)
}

func (b PortfolioBoard) Reconcile() {
	b.c.invalidate(ReorderMutation)
}

// arrange returns items sorted into order. Items whose id is not in order
// keep their relative position at the end.
func arrange[T any](items []T, order []int, id func(T) int) []T {
	pos := make(map[int]int, len(order))
	for i, v := range order {
		pos[v] = i
	}
	out := make([]T, 0, len(items))
	placed := make([]T, len(order))
	filled := make([]bool, len(order))
	var rest []T
	for _, it := range items {
		if i, ok := pos[id(it)]; ok {
			placed[i] = it
			filled[i] = true
		} else {
			rest = append(rest, it)
		}
	}
	for i := range placed {
		if filled[i] {
			out = append(out, placed[i])
		}
	}
	return append(out, rest...)
}
