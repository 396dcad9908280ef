package debugserver

import (
	"net"
	"net/url"
	"strconv"
)

// Endpoint is where a started server can be reached.
type Endpoint struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// Addr returns host:port.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// URL returns the base URL of the server.
func (e Endpoint) URL() string {
	u := url.URL{Scheme: "http", Host: e.Addr()}
	return u.String()
}

// advertiseHost picks the host reported in the Endpoint: the configured
// advertise host, then a specific bind host, then the first non-loopback
// IPv4 address of an up interface, then 127.0.0.1.
func advertiseHost(advertise, bind string, addrs func() ([]net.Addr, error)) string {
	switch {
	case advertise != "":
		return advertise
	case bind == "localhost":
		return "127.0.0.1"
	case bind != "":
		if ip := net.ParseIP(bind); ip == nil || !ip.IsUnspecified() {
			return bind
		}
	}
	if addrs != nil {
		if list, err := addrs(); err == nil {
			for _, a := range list {
				ipnet, ok := a.(*net.IPNet)
				if !ok {
					continue
				}
				if ip4 := ipnet.IP.To4(); ip4 != nil && !ip4.IsLoopback() && !ip4.IsLinkLocalUnicast() {
					return ip4.String()
				}
			}
		}
	}
	return "127.0.0.1"
}

// interfaceAddrs lists the addresses of up, non-loopback interfaces.
func interfaceAddrs() ([]net.Addr, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	var out []net.Addr
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		out = append(out, addrs...)
	}
	return out, nil
}
