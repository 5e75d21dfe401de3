package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Subscription is the user's plan label
type Subscription = string

const (
	// SubscriptionStarter is the default plan assigned at registration
	SubscriptionStarter Subscription = "starter"
	// SubscriptionPro is the paid individual plan
	SubscriptionPro Subscription = "pro"
	// SubscriptionBusiness is the paid team plan
	SubscriptionBusiness Subscription = "business"
)

// User is the identity model. Credential material (password hash, session
// token, verification token) never leaves the process through JSON.
type User struct {
	bun.BaseModel     `bun:"table:users,alias:usr"`
	ID                uuid.UUID    `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email             string       `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash      string       `bun:"password_hash,notnull" json:"-"`
	SessionToken      string       `bun:"session_token" json:"-"`
	Verified          bool         `bun:"verified" json:"verified"`
	VerificationToken string       `bun:"verification_token" json:"-"`
	AvatarURL         string       `bun:"avatar_url" json:"avatar_url,omitempty"`
	Subscription      Subscription `bun:"subscription,notnull" json:"subscription,omitempty"`
	CreatedAt         *time.Time   `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time   `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Profile is the public projection of a User. It is the only user shape
// handlers return to callers.
type Profile struct {
	Email        string `json:"email"`
	Subscription string `json:"subscription"`
	AvatarURL    string `json:"avatar_url,omitempty"`
}

// Profile returns the public projection for the user
func (u *User) Profile() Profile {
	return Profile{
		Email:        u.Email,
		Subscription: u.Subscription,
		AvatarURL:    u.AvatarURL,
	}
}

// Contact is an ownership scoped address book record
type Contact struct {
	bun.BaseModel `bun:"table:contacts,alias:cnt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	OwnerID       uuid.UUID  `bun:"owner_id,notnull,type:uuid" json:"owner_id,omitempty"`
	Owner         *User      `bun:"rel:belongs-to,join:owner_id=id" json:"owner,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull" json:"email,omitempty"`
	Phone         string     `bun:"phone,notnull" json:"phone,omitempty"`
	Favorite      bool       `bun:"favorite" json:"favorite"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	if record.Subscription == "" {
		record.Subscription = SubscriptionStarter
	}

	if record.AvatarURL == "" {
		record.AvatarURL = GravatarURL(record.Email)
	}
}
