package entity

import (
	"time"
)

const (
	RoleUser   = "user"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

type User struct {
	ID           string `json:"id" firestore:"id" gorm:"primaryKey;size:36"`
	Username     string `json:"username" firestore:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string `json:"email" firestore:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `json:"-" firestore:"passwordHash" gorm:"size:255"`
	FullName     string `json:"full_name" firestore:"fullName" gorm:"size:100"`
	Role         string `json:"role" firestore:"role" gorm:"size:10;not null;default:user"`

	ReferrerID     string `json:"referrer_id,omitempty" firestore:"referrerId,omitempty" gorm:"index;size:36"`
	ReferralCode   string `json:"referral_code" firestore:"referralCode" gorm:"uniqueIndex;size:20;not null"`
	TotalReferrals int    `json:"total_referrals" firestore:"totalReferrals" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasRole reports whether the user's role is one of roles.
func (u *User) HasRole(roles ...string) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleSeller || role == RoleAdmin
}
