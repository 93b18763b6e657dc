package auth

import (
	"time"

	"github.com/google/uuid"
)

// ModeratorUsername is the privileged identity. It has no credential row; its
// password is the deployment secret.
const ModeratorUsername = "moderator"

// ModeratorUserID is the reserved user id of the privileged identity.
var ModeratorUserID = uuid.Nil.String()

type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
