package types

// Entity carries the creation and modification times of a record, in
// seconds since the Unix epoch. Embed it in domain types.
type Entity struct {
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// NewEntity creates an Entity stamped with now.
func NewEntity(now int64) Entity {
	return Entity{
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch moves UpdatedAt to now. UpdatedAt never moves backwards and never
// precedes CreatedAt.
func (e *Entity) Touch(now int64) {
	if now < e.CreatedAt {
		now = e.CreatedAt
	}
	if now > e.UpdatedAt {
		e.UpdatedAt = now
	}
}
