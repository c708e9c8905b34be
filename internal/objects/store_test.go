package objects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreDuplicates(t *testing.T) {
	store := NewObjectStore()
	h := &Host{Name: "web-01"}
	require.NoError(t, store.AddHost(h))
	require.NoError(t, store.AddService(&Service{Host: h, Description: "HTTP"}))

	tests := []struct {
		name string
		add  func() error
		want string
	}{
		{"host", func() error { return store.AddHost(&Host{Name: "web-01"}) }, "duplicate host: web-01"},
		{"service", func() error { return store.AddService(&Service{Host: h, Description: "HTTP"}) }, "duplicate service: web-01;HTTP"},
		{"orphan service", func() error { return store.AddService(&Service{Description: "orphan"}) }, `service "orphan" has no host`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.add(), tt.want)
		})
	}
	assert.Len(t, store.Hosts, 1)
	assert.Len(t, h.Services, 1, "a rejected service is not linked to its host")
}

func TestStoreLookups(t *testing.T) {
	store := NewObjectStore()
	h := &Host{Name: "web-01", Address: "10.0.0.1"}
	require.NoError(t, store.AddHost(h))
	require.NoError(t, store.AddService(&Service{Host: h, Description: "HTTP"}))
	require.NoError(t, store.AddService(&Service{Host: h, Description: "SSH"}))
	require.NoError(t, store.AddCommand(&Command{Name: "check_ping"}))
	require.NoError(t, store.AddTimeperiod(&Timeperiod{Name: "24x7"}))
	require.NoError(t, store.AddContact(&Contact{Name: "admin"}))

	assert.Equal(t, "10.0.0.1", store.GetHost("web-01").Address)
	assert.Nil(t, store.GetHost("web-02"))
	assert.Equal(t, "SSH", store.GetService("web-01", "SSH").Description)
	assert.Nil(t, store.GetService("web-01", "FTP"))
	assert.NotNil(t, store.GetCommand("check_ping"))
	assert.NotNil(t, store.GetTimeperiod("24x7"))
	assert.NotNil(t, store.GetContact("admin"))
	assert.Len(t, h.Services, 2)
}

func TestStoreServiceKeysDoNotCollide(t *testing.T) {
	store := NewObjectStore()
	a := &Host{Name: "a"}
	ab := &Host{Name: "a;b"}
	require.NoError(t, store.AddHost(a))
	require.NoError(t, store.AddHost(ab))
	require.NoError(t, store.AddService(&Service{Host: a, Description: "b;c"}))
	require.NoError(t, store.AddService(&Service{Host: ab, Description: "c"}))

	assert.Same(t, a, store.GetService("a", "b;c").Host)
	assert.Same(t, ab, store.GetService("a;b", "c").Host)
}

func TestStoreGroupBackLinks(t *testing.T) {
	store := NewObjectStore()
	h1 := &Host{Name: "web-01"}
	h2 := &Host{Name: "web-02"}
	require.NoError(t, store.AddHost(h1))
	require.NoError(t, store.AddHost(h2))
	svc := &Service{Host: h1, Description: "HTTP"}
	require.NoError(t, store.AddService(svc))
	store.LinkParent(h2, h1)

	admin := &Contact{Name: "admin"}
	require.NoError(t, store.AddContact(admin))
	require.NoError(t, store.AddHostGroup(&HostGroup{Name: "web", Members: []*Host{h1, h2}}))
	require.NoError(t, store.AddServiceGroup(&ServiceGroup{Name: "http", Members: []*Service{svc}}))
	require.NoError(t, store.AddContactGroup(&ContactGroup{Name: "admins", Members: []*Contact{admin}}))

	if len(h1.HostGroups) != 1 || h1.HostGroups[0].Name != "web" {
		t.Errorf("h1.HostGroups = %v, want [web]", h1.HostGroups)
	}
	assert.Same(t, store.GetServiceGroup("http"), svc.ServiceGroups[0])
	assert.Same(t, store.GetContactGroup("admins"), admin.ContactGroups[0])
	assert.Same(t, store.GetHostGroup("web"), h2.HostGroups[0])
	assert.Equal(t, []*Host{h2}, h1.Children)
	assert.Equal(t, []*Host{h1}, h2.Parents)

	assert.Error(t, store.AddHostGroup(&HostGroup{Name: "web"}))
	assert.Len(t, h1.HostGroups, 1)
}
