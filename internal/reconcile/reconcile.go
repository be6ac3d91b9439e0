// Package reconcile merges client-proposed changes with the
// authoritative changes re-derived from the live catalog.
// The signer never trusts monetary fields from the client: the proposed
// changes select what to buy, the authoritative changes say what it
// costs. Reconciliation produces the exact change list that gets signed.
package reconcile

import "upsell-server/internal/model"

// Changes builds the changeset to sign from the authoritative changes
// (re-resolved server-side) and the client's proposed changes.
//
// Policy:
//  1. The result always starts with the authoritative add_variant; its
//     price and discount terms come from the catalog, never the client.
//  2. quantity >= 1 overwrites the add_variant quantity. When the caller
//     passes no quantity, the proposed add_variant quantity is used if
//     valid, else the authoritative default stands.
//  3. Remaining authoritative changes (shipping lines) are kept in order.
//  4. Proposed changes contribute nothing else. UI-only fields such as
//     size are stripped, and any discount or price the client attached
//     is discarded.
func Changes(authoritative, proposed []model.Change, quantity int) []model.Change {
	if quantity < 1 {
		quantity = proposedQuantity(proposed)
	}

	out := make([]model.Change, 0, len(authoritative))
	for _, change := range authoritative {
		change.Size = ""
		if change.Type == model.ChangeAddVariant && quantity >= 1 {
			change.Quantity = quantity
		}
		out = append(out, change)
	}
	return out
}

// proposedQuantity extracts the quantity of the first proposed
// add_variant change. Returns 0 when none is usable.
func proposedQuantity(proposed []model.Change) int {
	for _, change := range proposed {
		if change.Type == model.ChangeAddVariant && change.Quantity >= 1 {
			return change.Quantity
		}
	}
	return 0
}

// ProposedVariantID returns the variant the client is asking to buy:
// the variantID of the first proposed add_variant change. Empty when
// the proposal carries none.
func ProposedVariantID(proposed []model.Change) string {
	for _, change := range proposed {
		if change.Type == model.ChangeAddVariant && change.VariantID != "" {
			return change.VariantID
		}
	}
	return ""
}
