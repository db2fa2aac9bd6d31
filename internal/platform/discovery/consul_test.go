package discovery

import (
	"testing"

	"github.com/hashicorp/consul/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAgent struct {
	registered   *api.AgentServiceRegistration
	deregistered string
}

func (a *fakeAgent) ServiceRegister(s *api.AgentServiceRegistration) error {
	a.registered = s
	return nil
}

func (a *fakeAgent) ServiceDeregister(id string) error {
	a.deregistered = id
	return nil
}

func TestRegisterService(t *testing.T) {
	t.Setenv("HOSTNAME", "api-1")
	agent := &fakeAgent{}
	c := NewConsulClientWithAgent(agent)

	require.NoError(t, c.RegisterService("cardshop-api-1", "cardshop-api", "8080"))
	reg := agent.registered
	require.NotNil(t, reg)
	assert.Equal(t, "cardshop-api-1", reg.ID)
	assert.Equal(t, "api-1", reg.Address)
	assert.Equal(t, 8080, reg.Port)
	assert.Equal(t, "http://api-1:8080/health", reg.Check.HTTP)

	require.NoError(t, c.DeregisterService("cardshop-api-1"))
	assert.Equal(t, "cardshop-api-1", agent.deregistered)
}

func TestRegisterServiceBadPort(t *testing.T) {
	c := NewConsulClientWithAgent(&fakeAgent{})
	assert.Error(t, c.RegisterService("id", "name", "http"))
}

func TestNewConsulClient(t *testing.T) {
	c, err := NewConsulClient("127.0.0.1:8500")
	require.NoError(t, err)
	assert.NotNil(t, c)
}
