package objects

import (
	"fmt"
	"sync"
)

// index holds one kind of object by name.
type index[T any] struct {
	kind   string
	byName map[string]T
}

func newIndex[T any](kind string) index[T] {
	return index[T]{kind: kind, byName: make(map[string]T)}
}

// put appends obj to list and indexes it under key. label names the object
// in the duplicate error.
func (ix index[T]) put(list *[]T, key, label string, obj T) error {
	if _, dup := ix.byName[key]; dup {
		return fmt.Errorf("duplicate %s: %s", ix.kind, label)
	}
	ix.byName[key] = obj
	*list = append(*list, obj)
	return nil
}

func (ix index[T]) get(key string) T {
	return ix.byName[key]
}

// ObjectStore is the core's object graph. Slices keep registration order,
// which is the order livestatus tables iterate.
type ObjectStore struct {
	// Mu guards runtime state on hosts and services. The command
	// dispatcher holds the write lock; livestatus snapshots the slices under
	// the read lock and reads rows without it.
	Mu            sync.RWMutex
	Hosts         []*Host
	Services      []*Service
	Commands      []*Command
	Contacts      []*Contact
	ContactGroups []*ContactGroup
	Timeperiods   []*Timeperiod
	HostGroups    []*HostGroup
	ServiceGroups []*ServiceGroup

	hosts         index[*Host]
	services      index[*Service] // keyed by serviceKey
	commands      index[*Command]
	contacts      index[*Contact]
	contactGroups index[*ContactGroup]
	timeperiods   index[*Timeperiod]
	hostGroups    index[*HostGroup]
	serviceGroups index[*ServiceGroup]
}

func NewObjectStore() *ObjectStore {
	return &ObjectStore{
		hosts:         newIndex[*Host]("host"),
		services:      newIndex[*Service]("service"),
		commands:      newIndex[*Command]("command"),
		contacts:      newIndex[*Contact]("contact"),
		contactGroups: newIndex[*ContactGroup]("contactgroup"),
		timeperiods:   newIndex[*Timeperiod]("timeperiod"),
		hostGroups:    newIndex[*HostGroup]("hostgroup"),
		serviceGroups: newIndex[*ServiceGroup]("servicegroup"),
	}
}

func serviceKey(hostName, desc string) string {
	return hostName + "\x00" + desc
}

func (s *ObjectStore) AddHost(h *Host) error {
	return s.hosts.put(&s.Hosts, h.Name, h.Name, h)
}

func (s *ObjectStore) GetHost(name string) *Host { return s.hosts.get(name) }

// AddService registers svc and appends it to its host's service list.
func (s *ObjectStore) AddService(svc *Service) error {
	if svc.Host == nil {
		return fmt.Errorf("service %q has no host", svc.Description)
	}
	label := svc.Host.Name + ";" + svc.Description
	if err := s.services.put(&s.Services, serviceKey(svc.Host.Name, svc.Description), label, svc); err != nil {
		return err
	}
	svc.Host.Services = append(svc.Host.Services, svc)
	return nil
}

func (s *ObjectStore) GetService(hostName, desc string) *Service {
	return s.services.get(serviceKey(hostName, desc))
}

func (s *ObjectStore) AddCommand(c *Command) error {
	return s.commands.put(&s.Commands, c.Name, c.Name, c)
}

func (s *ObjectStore) GetCommand(name string) *Command { return s.commands.get(name) }

func (s *ObjectStore) AddContact(c *Contact) error {
	return s.contacts.put(&s.Contacts, c.Name, c.Name, c)
}

func (s *ObjectStore) GetContact(name string) *Contact { return s.contacts.get(name) }

// AddContactGroup registers cg and records it on each member contact.
func (s *ObjectStore) AddContactGroup(cg *ContactGroup) error {
	if err := s.contactGroups.put(&s.ContactGroups, cg.Name, cg.Name, cg); err != nil {
		return err
	}
	for _, c := range cg.Members {
		c.ContactGroups = append(c.ContactGroups, cg)
	}
	return nil
}

func (s *ObjectStore) GetContactGroup(name string) *ContactGroup { return s.contactGroups.get(name) }

func (s *ObjectStore) AddTimeperiod(tp *Timeperiod) error {
	return s.timeperiods.put(&s.Timeperiods, tp.Name, tp.Name, tp)
}

func (s *ObjectStore) GetTimeperiod(name string) *Timeperiod { return s.timeperiods.get(name) }

// AddHostGroup registers hg and records it on each member host.
func (s *ObjectStore) AddHostGroup(hg *HostGroup) error {
	if err := s.hostGroups.put(&s.HostGroups, hg.Name, hg.Name, hg); err != nil {
		return err
	}
	for _, h := range hg.Members {
		h.HostGroups = append(h.HostGroups, hg)
	}
	return nil
}

func (s *ObjectStore) GetHostGroup(name string) *HostGroup { return s.hostGroups.get(name) }

// AddServiceGroup registers sg and records it on each member service.
func (s *ObjectStore) AddServiceGroup(sg *ServiceGroup) error {
	if err := s.serviceGroups.put(&s.ServiceGroups, sg.Name, sg.Name, sg); err != nil {
		return err
	}
	for _, svc := range sg.Members {
		svc.ServiceGroups = append(svc.ServiceGroups, sg)
	}
	return nil
}

func (s *ObjectStore) GetServiceGroup(name string) *ServiceGroup { return s.serviceGroups.get(name) }

// LinkParent makes parent a parent of child.
func (s *ObjectStore) LinkParent(child, parent *Host) {
	child.Parents = append(child.Parents, parent)
	parent.Children = append(parent.Children, child)
}
