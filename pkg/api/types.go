package api

import (
	"github.com/DrSkyle/kinship/pkg/person"
	"github.com/DrSkyle/kinship/pkg/tree"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// MessageResponse carries a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// PersonRequest is the body of POST /api/people and PUT /api/people/:id.
type PersonRequest struct {
	Name            string `json:"name" binding:"required,max=200"`
	BirthDate       string `json:"birthdate" binding:"omitempty,isodate"`
	Gender          string `json:"gender" binding:"max=20"`
	CurrentLocation string `json:"currentlocation" binding:"max=200"`
	FatherID        int64  `json:"fatherid" binding:"gte=0"`
	MotherID        int64  `json:"motherid" binding:"gte=0"`
	SpouseID        int64  `json:"spouseid" binding:"gte=0"`
}

// Person converts the request into a person without an ID.
func (r PersonRequest) Person() (person.Person, error) {
	bd, err := person.ParseDate(r.BirthDate)
	if err != nil {
		return person.Person{}, err
	}
	return person.Person{
		Name:      r.Name,
		BirthDate: bd,
		Gender:    person.ParseGender(r.Gender),
		Location:  r.CurrentLocation,
		FatherID:  person.ID(r.FatherID),
		MotherID:  person.ID(r.MotherID),
		SpouseID:  person.ID(r.SpouseID),
	}, nil
}

// CreateSessionRequest is the body of POST /api/sessions.
type CreateSessionRequest struct {
	RootID int64 `json:"root_id" binding:"required,gt=0"`
}

// TargetRequest names the node a session mutation applies to. Category is
// only read by expand, collapse and toggle.
type TargetRequest struct {
	PersonID int64  `json:"person_id" binding:"required,gt=0"`
	Category string `json:"category"`
}

// SessionResponse describes a session after a mutation.
type SessionResponse struct {
	ID         string            `json:"id"`
	RootID     int64             `json:"root_id"`
	Generation uint64            `json:"generation"`
	Nodes      int               `json:"nodes"`
	Lines      []string          `json:"lines"`
	Tree       tree.SnapshotNode `json:"tree"`
}
