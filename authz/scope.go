package authz

// ScopeFilter is the typed tenant predicate passed into the storage layer.
// A nil CompanyID means the super-principal: the predicate is omitted and
// the query sees all tenants. Replaces ad-hoc conditionally-built filters.
type ScopeFilter struct {
	CompanyID *string
}

// Super reports whether the filter grants full cross-tenant visibility.
func (f ScopeFilter) Super() bool {
	return f.CompanyID == nil
}
