package stock

// Source answers availability lookups for cart lines. It is a pluggable
// seam: real deployments substitute an inventory-backed implementation.
type Source interface {
	Availability(productName string, requestedQty int) (int, error)
}

// AlwaysAvailable is the default demo source: every requested quantity
// is reported as available.
type AlwaysAvailable struct{}

// Availability reports the full requested quantity as available
func (AlwaysAvailable) Availability(_ string, requestedQty int) (int, error) {
	return requestedQty, nil
}
