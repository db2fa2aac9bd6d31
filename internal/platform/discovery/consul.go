// Package discovery registers the API with a Consul agent.
package discovery

import (
	"fmt"
	"os"
	"strconv"

	"github.com/hashicorp/consul/api"
)

// Agent is the part of the Consul agent API used for registration.
type Agent interface {
	ServiceRegister(service *api.AgentServiceRegistration) error
	ServiceDeregister(serviceID string) error
}

type ConsulClient struct {
	agent Agent
}

func NewConsulClient(address string) (*ConsulClient, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}
	return &ConsulClient{agent: client.Agent()}, nil
}

func NewConsulClientWithAgent(agent Agent) *ConsulClient {
	return &ConsulClient{agent: agent}
}

// RegisterService registers serviceID with an HTTP check on /health.
func (c *ConsulClient) RegisterService(serviceID, serviceName, port string) error {
	p, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", port, err)
	}

	hostname := os.Getenv("HOSTNAME")
	if hostname == "" {
		hostname = serviceName
	}

	registration := &api.AgentServiceRegistration{
		ID:      serviceID,
		Name:    serviceName,
		Address: hostname,
		Port:    p,
		Tags:    []string{"http", "api"},
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%s/health", hostname, port),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "30s",
		},
	}
	return c.agent.ServiceRegister(registration)
}

func (c *ConsulClient) DeregisterService(serviceID string) error {
	return c.agent.ServiceDeregister(serviceID)
}
