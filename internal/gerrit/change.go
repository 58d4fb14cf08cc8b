package gerrit

import (
	"fmt"
	"strconv"
)

// Account identifies a Gerrit user as reported by the query API.
type Account struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Approval is a single review vote on a patchset. Value is the signed
// magnitude as text, exactly as Gerrit reports it (e.g. "2", "-1").
type Approval struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Value       string  `json:"value"`
	GrantedOn   int64   `json:"grantedOn"`
	By          Account `json:"by"`
}

// Patchset is one revision of a change.
type Patchset struct {
	Number    string     `json:"number"`
	Revision  string     `json:"revision"`
	Ref       string     `json:"ref"`
	Uploader  Account    `json:"uploader"`
	CreatedOn int64      `json:"createdOn"`
	Approvals []Approval `json:"approvals"`
}

// Change is a Gerrit change as returned by
// `gerrit query --format=JSON --current-patch-set`.
type Change struct {
	Project         string    `json:"project"`
	Branch          string    `json:"branch"`
	ID              string    `json:"id"`
	Number          string    `json:"number"`
	Subject         string    `json:"subject"`
	Owner           Account   `json:"owner"`
	URL             string    `json:"url"`
	Status          string    `json:"status"`
	Open            bool      `json:"open"`
	CreatedOn       int64     `json:"createdOn"`
	LastUpdated     int64     `json:"lastUpdated"`
	CurrentPatchSet *Patchset  `json:"currentPatchSet"`
	PatchSets       []Patchset `json:"patchSets"`
}

// Approval value sentinels: any positive vote, any negative vote.
const (
	ValueAny      = ""
	ValuePositive = "+"
	ValueNegative = "-"
)

// HasApproval reports whether the patchset carries an approval of the given
// type satisfying value. Value semantics:
//
//	""   any value matches, type alone decides
//	"+"  stored value must parse as an integer > 0
//	"-"  stored value must parse as an integer < 0
//	else exact string equality against the stored value
//
// A nil patchset or one with no approvals is a legitimate no-match, not an
// error. A non-numeric stored value reached on the "+"/"-" path is an error
// rather than a skip.
func (p *Patchset) HasApproval(typ, value string) (bool, error) {
	if p == nil || len(p.Approvals) == 0 {
		return false, nil
	}
	for _, a := range p.Approvals {
		if a.Type != typ {
			continue
		}
		switch value {
		case ValueAny:
			return true, nil
		case a.Value:
			return true, nil
		case ValuePositive, ValueNegative:
			n, err := strconv.Atoi(a.Value)
			if err != nil {
				return false, fmt.Errorf("approval %s has non-numeric value %q: %w", a.Type, a.Value, err)
			}
			if (value == ValuePositive && n > 0) || (value == ValueNegative && n < 0) {
				return true, nil
			}
		}
	}
	return false, nil
}
