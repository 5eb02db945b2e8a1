package rental

import "github.com/talkincode/toughrent/internal/domain"

// ItemKind tags an ItemRef as pointing at a product or a komplet.
type ItemKind string

const (
	KindProduct ItemKind = "product"
	KindKomplet ItemKind = "komplet"
)

// ItemRef identifies exactly one rentable item, either a Product or a
// Komplet. Audit and ticket rows are only ever created through an ItemRef, so
// the "exactly one reference set" rule holds by construction.
type ItemRef struct {
	Kind ItemKind `json:"kind"`
	ID   int64    `json:"id"`
}

func ProductRef(id int64) ItemRef {
	return ItemRef{Kind: KindProduct, ID: id}
}

func KompletRef(id int64) ItemRef {
	return ItemRef{Kind: KindKomplet, ID: id}
}

// model returns an empty gorm model value for the referenced table.
func (r ItemRef) model() interface{} {
	if r.Kind == KindKomplet {
		return &domain.Komplet{}
	}
	return &domain.Product{}
}

// historyColumn is the borrow-history FK column for this kind.
func (r ItemRef) historyColumn() string {
	if r.Kind == KindKomplet {
		return "komplet_id"
	}
	return "product_id"
}

// splitRefs partitions refs into product and komplet ID lists.
func splitRefs(items []ItemRef) (productIDs, kompletIDs []int64) {
	for _, it := range items {
		if it.Kind == KindKomplet {
			kompletIDs = append(kompletIDs, it.ID)
		} else {
			productIDs = append(productIDs, it.ID)
		}
	}
	return
}
