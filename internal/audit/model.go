package audit

import "time"

type ActorKind string

const (
	ActorSystem ActorKind = "system"
	ActorUser   ActorKind = "user"
)

// Actor identifies who performed a logged action. Automated actions use
// SystemActor, which carries no user id.
type Actor struct {
	Kind   ActorKind
	UserID int
}

var SystemActor = Actor{Kind: ActorSystem}

func UserActor(userID int) Actor {
	return Actor{Kind: ActorUser, UserID: userID}
}

func (a Actor) IsSystem() bool {
	return a.Kind == ActorSystem
}

// userIDValue is the nullable column value for actor_user_id.
func (a Actor) userIDValue() *int {
	if a.IsSystem() {
		return nil
	}
	id := a.UserID
	return &id
}

type Action string

const (
	ActionAutoConfirmed Action = "auto_confirmed"
	ActionAutoCancelled Action = "auto_cancelled"
)

type Entry struct {
	ID         int       `db:"id" json:"id"`
	ActorType  ActorKind `db:"actor_type" json:"actor_type"`
	ActorUser  *int      `db:"actor_user_id" json:"actor_user_id,omitempty"`
	BookingID  int       `db:"schedule_id" json:"booking_id"`
	ActionType Action    `db:"action_type" json:"action_type"`
	Notes      string    `db:"notes" json:"notes"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
