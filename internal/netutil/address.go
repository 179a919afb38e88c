// Package netutil resolves the local address thqm is reachable on, formats
// the URLs handed to users, and renders QR codes encoding them.
package netutil

import (
	"errors"
	"fmt"
	"net"
)

// ErrInterfaceNotFound is returned when a named network interface does not
// exist or has no usable address.
var ErrInterfaceNotFound = errors.New("network interface not found")

// probeAddr is only used to pick the outbound route. UDP dial sends nothing.
const probeAddr = "8.8.8.8:80"

// ResolveLocalAddress returns the local IP address to advertise.
// With an interface name it returns the address bound to that interface,
// otherwise the address of the default outbound route.
func ResolveLocalAddress(iface string) (string, error) {
	if iface != "" {
		return interfaceAddress(iface)
	}

	if ip, err := outboundAddress(); err == nil {
		return ip, nil
	}

	// No default route: fall back to whatever interface is up.
	return fallbackAddress()
}

// interfaceAddress returns the first address of the named interface,
// preferring IPv4.
func interfaceAddress(name string) (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("failed to list network interfaces: %w", err)
	}

	for _, ifa := range ifaces {
		if ifa.Name != name {
			continue
		}
		addrs, err := ifa.Addrs()
		if err != nil {
			return "", fmt.Errorf("failed to list addresses of interface %q: %w", name, err)
		}
		if ip := pickIP(addrs); ip != nil {
			return ip.String(), nil
		}
		return "", fmt.Errorf("failed to get ip for interface %q: %w", name, ErrInterfaceNotFound)
	}

	return "", fmt.Errorf("failed to get ip for interface %q: %w", name, ErrInterfaceNotFound)
}

func outboundAddress() (string, error) {
	conn, err := net.Dial("udp", probeAddr)
	if err != nil {
		return "", fmt.Errorf("failed to determine outbound address: %w", err)
	}
	defer conn.Close()

	udpAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || udpAddr.IP == nil {
		return "", errors.New("failed to determine outbound address")
	}
	return udpAddr.IP.String(), nil
}

// fallbackAddress picks the first up non-loopback interface address, then
// the loopback address.
func fallbackAddress() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("failed to list network interfaces: %w", err)
	}

	var loopback net.IP
	for _, ifa := range ifaces {
		if ifa.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := ifa.Addrs()
		if err != nil {
			continue
		}
		ip := pickIP(addrs)
		if ip == nil {
			continue
		}
		if ifa.Flags&net.FlagLoopback != 0 {
			if loopback == nil {
				loopback = ip
			}
			continue
		}
		return ip.String(), nil
	}

	if loopback != nil {
		return loopback.String(), nil
	}
	return "", errors.New("no usable network interface found")
}

// pickIP returns the first IPv4 address in addrs, or the first IP of any
// family if there is no IPv4 one.
func pickIP(addrs []net.Addr) net.IP {
	var first net.IP
	for _, addr := range addrs {
		var ip net.IP
		switch a := addr.(type) {
		case *net.IPNet:
			ip = a.IP
		case *net.IPAddr:
			ip = a.IP
		}
		if ip == nil {
			continue
		}
		if v4 := ip.To4(); v4 != nil {
			return v4
		}
		if first == nil {
			first = ip
		}
	}
	return first
}

// FormatAddress returns "host:port".
func FormatAddress(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}

// FormatFullURL returns the http URL of the server. Credentials are embedded
// only when both username and password are non-empty.
func FormatFullURL(host string, port int, username, password string) string {
	if username != "" && password != "" {
		return fmt.Sprintf("http://%s:%s@%s:%d", username, password, host, port)
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}
