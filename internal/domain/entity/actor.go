package entity

// Actor identifies the caller of an operation. Admin is an explicit
// capability carried on the caller context, not inferred from session shape.
type Actor struct {
	UserID string
	Admin  bool
}
