package models

import "time"

// OrgProfile holds the organization requisites printed on a discrepancy act.
// At most one row exists; Phone is the only optional requisite.
type OrgProfile struct {
	ID            int64  `gorm:"primaryKey" json:"id"`
	OrgName       string `gorm:"not null" json:"orgName"`
	LegalAddress  string `gorm:"not null" json:"legalAddress"`
	ActualAddress string `gorm:"not null" json:"actualAddress"`
	INN           string `gorm:"not null" json:"inn"`
	KPP           string `gorm:"not null" json:"kpp"`
	Phone         string `json:"phone,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (OrgProfile) TableName() string { return "org_profiles" }

// Validate reports the first missing mandatory requisite
func (p *OrgProfile) Validate() string {
	switch {
	case p.OrgName == "":
		return "orgName is required"
	case p.LegalAddress == "":
		return "legalAddress is required"
	case p.ActualAddress == "":
		return "actualAddress is required"
	case p.INN == "":
		return "inn is required"
	case p.KPP == "":
		return "kpp is required"
	}
	return ""
}
