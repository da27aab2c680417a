package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           string
	FullName     string
	Email        string
	Capabilities []Capability
	CreatedAt    time.Time
}

// Actor is the identity an operation runs as. It is passed explicitly to
// every service call.
type Actor struct {
	UserID       string
	Capabilities []Capability
}

// ActorFor builds the actor context of a stored user.
func ActorFor(u *User) Actor {
	return Actor{UserID: u.ID, Capabilities: u.Capabilities}
}

func (a Actor) Can(c Capability) bool {
	for _, have := range a.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// Division is the organizational unit that owns funding sources.
type Division struct {
	ID               string
	Name             string
	Abbreviation     string
	DirectorID       *string
	DeputyDirectorID *string
}

// Leaders returns the ids of the director and deputy director, when set.
func (d *Division) Leaders() []string {
	var ids []string
	if d.DirectorID != nil {
		ids = append(ids, *d.DirectorID)
	}
	if d.DeputyDirectorID != nil {
		ids = append(ids, *d.DeputyDirectorID)
	}
	return ids
}

// CAN is a funding source account. DivisionID is its managing division.
type CAN struct {
	ID         string
	Number     string
	DivisionID *string
}

type ProcurementShop struct {
	ID   string
	Name string
	Abbr string
}

type ProcurementShopFee struct {
	ID                string
	ProcurementShopID string
	Fee               decimal.Decimal
}

type ServicesComponent struct {
	ID          string
	AgreementID string
	Number      int
	Optional    bool
	Description string
}
