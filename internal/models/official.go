package models

import (
	"time"

	"github.com/google/uuid"
)

// Official: представитель власти, которого можно отметить в обращении.
type Official struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Title         string     `json:"title"`
	Organization  string     `json:"organization"`
	Governance    Governance `json:"governanceLevel"`
	Location      string     `json:"location,omitempty"`
	TwitterHandle string     `json:"twitterHandle,omitempty"`
	Email         string     `json:"email,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	IsVerified    bool       `json:"isVerified"`
	VerifiedAt    *time.Time `json:"verifiedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// OfficialFilter: параметры поиска. Пустые поля не применяются.
type OfficialFilter struct {
	Name       string
	Governance Governance
	Location   string
	Verified   *bool
}
