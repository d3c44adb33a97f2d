package pos

import "github.com/tillworks/tillpoint-backend/pkg/enums"

// SyncProducts folds a fresh catalog read into every tab of every
// context. Only the unit price moves, recomputed from the base price
// and the line's unit multiplier; lines whose derived price is
// unchanged are left alone so references into them stay valid. Lines
// for products missing from the feed survive untouched. Returns the
// number of lines repriced.
func (s *Store) SyncProducts(products []Product) int {
	byID := make(map[int64]Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	repriced := 0
	for _, part := range s.partitions {
		for ti, tab := range part.tabs {
			var next *Tab
			for li, line := range tab.Cart {
				p, ok := byID[line.ProductID]
				if !ok {
					continue
				}
				price := p.Price.Mul(line.QtyMultiplier)
				if price.Equal(line.UnitPrice) {
					continue
				}
				if next == nil {
					next = tab.clone()
				}
				next.Cart[li].UnitPrice = price
				repriced++
			}
			if next != nil {
				part.tabs[ti] = next
			}
		}
	}
	if repriced > 0 {
		s.flushLocked()
	}
	return repriced
}

// saleContexts iterates deterministically for snapshots and tests.
var saleContexts = []enums.SaleContext{
	enums.SaleContextRetail,
	enums.SaleContextPurchase,
}
