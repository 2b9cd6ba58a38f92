package gym

import "time"

// DefaultCapacity applies to gyms that never configured a capacity.
const DefaultCapacity = 50

type Gym struct {
	ID        int       `db:"id" json:"id"`
	OwnerID   int       `db:"owner_id" json:"owner_id"`
	Name      string    `db:"name" json:"name"`
	Capacity  *int      `db:"capacity" json:"capacity,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (g Gym) EffectiveCapacity() int {
	return EffectiveCapacity(g.Capacity)
}

// EffectiveCapacity resolves a stored capacity, falling back to
// DefaultCapacity when it is unset or not positive.
func EffectiveCapacity(capacity *int) int {
	if capacity == nil || *capacity <= 0 {
		return DefaultCapacity
	}
	return *capacity
}
