// Package presence advertises the web interface on the local network over mDNS.
package presence

import (
	"log/slog"
	"net"
	"strconv"

	"github.com/grandcat/zeroconf"
)

const (
	serviceType = "_http._tcp"
	domain      = "local."
)

type registerFunc func(instance, service, domain string, port int, text []string, ifaces []net.Interface) (*zeroconf.Server, error)

// Publisher owns an mDNS registration.
type Publisher struct {
	server *zeroconf.Server
	log    *slog.Logger
}

// Publish registers instance as an HTTP service on port with TXT path=/.
// The returned Publisher must be shut down on exit.
func Publish(instance, port string, log *slog.Logger) (*Publisher, error) {
	return publish(zeroconf.Register, instance, port, log)
}

func publish(register registerFunc, instance, port string, log *slog.Logger) (*Publisher, error) {
	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, err
	}
	server, err := register(instance, serviceType, domain, p, []string{"path=/"}, nil)
	if err != nil {
		return nil, err
	}
	log.Info("mdns service registered",
		slog.String("instance", instance),
		slog.String("service", serviceType),
		slog.Int("port", p))
	return &Publisher{server: server, log: log}, nil
}

// Shutdown withdraws the registration. Safe on a nil Publisher.
func (p *Publisher) Shutdown() {
	if p == nil || p.server == nil {
		return
	}
	p.server.Shutdown()
	p.log.Info("mdns service unregistered")
}
