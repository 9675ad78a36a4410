package mirror

import (
	"strconv"

	"profile-sync/feature/profile/models"
)

// Names of the mirrored fields. A new mirrored field is added to the rules
// table below and nowhere else; no other component may special-case
// mirrored-field logic.
const (
	FieldEmail         = "email"
	FieldEmailVerified = "email_verified"
	FieldGrade         = "grade"
	FieldGoal          = "goal"
)

// Rule describes how one named field is mirrored between the identity record
// and the profile.
type Rule struct {
	// Apply copies the identity value onto the profile and reports whether
	// the profile value changed.
	Apply func(p *models.UserProfile, u *models.User) bool
	// Reverse copies the profile value onto the identity record and reports
	// whether the identity value changed.
	Reverse func(u *models.User, p *models.UserProfile) bool
	// Equal reports whether the two sides agree.
	Equal func(u *models.User, p *models.UserProfile) bool
	// Values renders both sides for diagnostics.
	Values func(u *models.User, p *models.UserProfile) (userValue, profileValue string)
}

var rules = map[string]Rule{
	FieldEmail: {
		Apply: func(p *models.UserProfile, u *models.User) bool {
			if p.Email == u.Email {
				return false
			}
			p.Email = u.Email
			return true
		},
		Reverse: func(u *models.User, p *models.UserProfile) bool {
			if u.Email == p.Email {
				return false
			}
			u.Email = p.Email
			return true
		},
		Equal: func(u *models.User, p *models.UserProfile) bool { return u.Email == p.Email },
		Values: func(u *models.User, p *models.UserProfile) (string, string) {
			return u.Email, p.Email
		},
	},
	FieldEmailVerified: {
		Apply: func(p *models.UserProfile, u *models.User) bool {
			if p.EmailVerified == u.EmailVerified {
				return false
			}
			p.EmailVerified = u.EmailVerified
			return true
		},
		Reverse: func(u *models.User, p *models.UserProfile) bool {
			if u.EmailVerified == p.EmailVerified {
				return false
			}
			u.EmailVerified = p.EmailVerified
			return true
		},
		Equal: func(u *models.User, p *models.UserProfile) bool { return u.EmailVerified == p.EmailVerified },
		Values: func(u *models.User, p *models.UserProfile) (string, string) {
			return strconv.FormatBool(u.EmailVerified), strconv.FormatBool(p.EmailVerified)
		},
	},
	FieldGrade: {
		Apply: func(p *models.UserProfile, u *models.User) bool {
			if p.Grade == u.Grade {
				return false
			}
			p.Grade = u.Grade
			return true
		},
		Reverse: func(u *models.User, p *models.UserProfile) bool {
			if u.Grade == p.Grade {
				return false
			}
			u.Grade = p.Grade
			return true
		},
		Equal: func(u *models.User, p *models.UserProfile) bool { return u.Grade == p.Grade },
		Values: func(u *models.User, p *models.UserProfile) (string, string) {
			return u.Grade, p.Grade
		},
	},
	FieldGoal: {
		Apply: func(p *models.UserProfile, u *models.User) bool {
			if p.Goal == u.Goal {
				return false
			}
			p.Goal = u.Goal
			return true
		},
		Reverse: func(u *models.User, p *models.UserProfile) bool {
			if u.Goal == p.Goal {
				return false
			}
			u.Goal = p.Goal
			return true
		},
		Equal: func(u *models.User, p *models.UserProfile) bool { return u.Goal == p.Goal },
		Values: func(u *models.User, p *models.UserProfile) (string, string) {
			return u.Goal, p.Goal
		},
	},
}

// Fields returns the mirrored field names in a stable order.
func Fields() []string {
	return []string{FieldEmail, FieldEmailVerified, FieldGrade, FieldGoal}
}

// IsMirrored reports whether name is a mirrored field.
func IsMirrored(name string) bool {
	_, ok := rules[name]
	return ok
}

// Apply copies the named identity fields onto the profile. It returns the
// names of fields whose profile value actually changed, and the names it did
// not recognize. Unknown names never fail the caller; they are skipped so a
// newer producer can emit fields this version does not know yet.
func Apply(p *models.UserProfile, u *models.User, fields []string) (changed, unknown []string) {
	for _, name := range fields {
		rule, ok := rules[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		if rule.Apply(p, u) {
			changed = append(changed, name)
		}
	}
	return changed, unknown
}

// ApplyAll copies every mirrored field onto the profile and returns the names
// that changed.
func ApplyAll(p *models.UserProfile, u *models.User) []string {
	changed, _ := Apply(p, u, Fields())
	return changed
}

// Reverse copies the named profile fields onto the identity record and
// returns the names that changed. Unknown names are skipped.
func Reverse(u *models.User, p *models.UserProfile, fields []string) []string {
	var changed []string
	for _, name := range fields {
		rule, ok := rules[name]
		if !ok {
			continue
		}
		if rule.Reverse(u, p) {
			changed = append(changed, name)
		}
	}
	return changed
}

// Diff returns the names of mirrored fields on which the identity record and
// the profile disagree.
func Diff(u *models.User, p *models.UserProfile) []string {
	var diff []string
	for _, name := range Fields() {
		if !rules[name].Equal(u, p) {
			diff = append(diff, name)
		}
	}
	return diff
}

// Values renders both sides of the named field for diagnostics. It returns
// empty strings for unknown names.
func Values(name string, u *models.User, p *models.UserProfile) (userValue, profileValue string) {
	rule, ok := rules[name]
	if !ok {
		return "", ""
	}
	return rule.Values(u, p)
}
