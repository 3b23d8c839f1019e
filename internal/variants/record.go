package variants

import "strconv"

// UnconstrainedExport is the legacy quantity sentinel emitted when the page
// gives no inventory signal. It is not a real count; downstream templates
// treat it as "list without a stock limit".
const UnconstrainedExport = "999"

// Quantity is an observed stock figure. The zero value is unconstrained:
// the page showed no limit, which the export format encodes as "999".
type Quantity struct {
	n     int
	known bool
}

func KnownQuantity(n int) Quantity {
	return Quantity{n: n, known: true}
}

func Unconstrained() Quantity {
	return Quantity{}
}

func (q Quantity) Known() (int, bool) {
	return q.n, q.known
}

// Export renders the quantity for the CSV boundary, using the legacy
// sentinel for unconstrained values.
func (q Quantity) Export() string {
	if !q.known {
		return UnconstrainedExport
	}
	return strconv.Itoa(q.n)
}

// VariantRecord is one combination's observed state: what the page showed
// after the combination was selected. Price is empty when no price element
// was readable; Shipping is "0" for both free and unknown shipping, matching
// the export contract.
type VariantRecord struct {
	Combination Combination
	Price       string
	Shipping    string
	Quantity    Quantity
	Available   bool
}
