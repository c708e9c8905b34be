package livestatus

import (
	"github.com/oceanplexian/livestatusd/internal/api"
	"github.com/oceanplexian/livestatusd/internal/objects"
)

// User decides which objects a query may see.
type User interface {
	IsAuthorizedForHost(h *objects.Host) bool
	IsAuthorizedForService(s *objects.Service) bool
	IsAuthorizedForHostGroup(g *objects.HostGroup) bool
	IsAuthorizedForServiceGroup(g *objects.ServiceGroup) bool
}

// NoAuthUser is used when a request carries no AuthUser header; it sees
// everything.
type NoAuthUser struct{}

func (NoAuthUser) IsAuthorizedForHost(*objects.Host) bool                 { return true }
func (NoAuthUser) IsAuthorizedForService(*objects.Service) bool           { return true }
func (NoAuthUser) IsAuthorizedForHostGroup(*objects.HostGroup) bool       { return true }
func (NoAuthUser) IsAuthorizedForServiceGroup(*objects.ServiceGroup) bool { return true }

// UnknownAuthUser stands for an AuthUser name that matches no contact; it
// sees nothing.
type UnknownAuthUser struct{}

func (UnknownAuthUser) IsAuthorizedForHost(*objects.Host) bool                 { return false }
func (UnknownAuthUser) IsAuthorizedForService(*objects.Service) bool           { return false }
func (UnknownAuthUser) IsAuthorizedForHostGroup(*objects.HostGroup) bool       { return false }
func (UnknownAuthUser) IsAuthorizedForServiceGroup(*objects.ServiceGroup) bool { return false }

// ContactUser is an AuthUser that resolved to a contact.
type ContactUser struct {
	Contact     *objects.Contact
	ServiceAuth api.AuthorizationKind
	GroupAuth   api.AuthorizationKind
}

// newUser resolves an AuthUser header value.
func newUser(core api.Core, name string) User {
	c := core.FindContact(name)
	if c == nil {
		return UnknownAuthUser{}
	}
	return &ContactUser{Contact: c, ServiceAuth: core.ServiceAuthorization(), GroupAuth: core.GroupAuthorization()}
}

func (u *ContactUser) isMember(contacts []*objects.Contact, groups []*objects.ContactGroup) bool {
	for _, c := range contacts {
		if c == u.Contact {
			return true
		}
	}
	for _, g := range groups {
		for _, c := range g.Members {
			if c == u.Contact {
				return true
			}
		}
	}
	return false
}

func (u *ContactUser) IsAuthorizedForHost(h *objects.Host) bool {
	return h != nil && u.isMember(h.Contacts, h.ContactGroups)
}

func (u *ContactUser) IsAuthorizedForService(s *objects.Service) bool {
	if s == nil {
		return false
	}
	if u.isMember(s.Contacts, s.ContactGroups) {
		return true
	}
	return u.ServiceAuth == api.AuthLoose && u.IsAuthorizedForHost(s.Host)
}

func (u *ContactUser) IsAuthorizedForHostGroup(g *objects.HostGroup) bool {
	if g == nil {
		return false
	}
	if u.GroupAuth == api.AuthLoose {
		for _, h := range g.Members {
			if u.IsAuthorizedForHost(h) {
				return true
			}
		}
		return false
	}
	for _, h := range g.Members {
		if !u.IsAuthorizedForHost(h) {
			return false
		}
	}
	return true
}

func (u *ContactUser) IsAuthorizedForServiceGroup(g *objects.ServiceGroup) bool {
	if g == nil {
		return false
	}
	if u.GroupAuth == api.AuthLoose {
		for _, s := range g.Members {
			if u.IsAuthorizedForService(s) {
				return true
			}
		}
		return false
	}
	for _, s := range g.Members {
		if !u.IsAuthorizedForService(s) {
			return false
		}
	}
	return true
}

// isAuthorizedForObject is the check used by comment and downtime rows.
func isAuthorizedForObject(user User, h *objects.Host, s *objects.Service) bool {
	if s != nil {
		return user.IsAuthorizedForService(s)
	}
	if h != nil {
		return user.IsAuthorizedForHost(h)
	}
	return false
}
