package debugserver

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func addrs(list ...string) func() ([]net.Addr, error) {
	return func() ([]net.Addr, error) {
		out := make([]net.Addr, 0, len(list))
		for _, cidr := range list {
			ip, ipnet, err := net.ParseCIDR(cidr)
			if err != nil {
				panic(err)
			}
			ipnet.IP = ip
			out = append(out, ipnet)
		}
		return out, nil
	}
}

func TestAdvertiseHost(t *testing.T) {
	tests := []struct {
		name      string
		advertise string
		bind      string
		addrs     func() ([]net.Addr, error)
		want      string
	}{
		{"advertise wins", "debug.local", "10.0.0.5", addrs("192.168.1.20/24"), "debug.local"},
		{"specific bind host", "", "10.0.0.5", addrs("192.168.1.20/24"), "10.0.0.5"},
		{"localhost", "", "localhost", addrs("192.168.1.20/24"), "127.0.0.1"},
		{"unspecified uses interface", "", "0.0.0.0", addrs("fe80::1/64", "127.0.0.1/8", "169.254.3.3/16", "192.168.1.20/24"), "192.168.1.20"},
		{"empty bind uses interface", "", "", addrs("10.1.2.3/8"), "10.1.2.3"},
		{"no interfaces", "", "", addrs(), "127.0.0.1"},
		{"lookup error", "", "", func() ([]net.Addr, error) { return nil, errors.New("nope") }, "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, advertiseHost(tt.advertise, tt.bind, tt.addrs))
		})
	}
}

func TestEndpoint_URL(t *testing.T) {
	assert.Equal(t, "http://192.168.1.20:8081", Endpoint{Host: "192.168.1.20", Port: 8081}.URL())
	assert.Equal(t, "http://[::1]:8081", Endpoint{Host: "::1", Port: 8081}.URL())
}

func TestBindError(t *testing.T) {
	inner := errors.New("address already in use")
	err := &BindError{Addr: ":8081", Port: 8081, Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), ":8081")
}
