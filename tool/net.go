package tool

import (
	"net"
	"sort"

	"github.com/moyoez/fitsnap-go/types"
)

// usableInterface rejects interfaces a phone on the same LAN cannot reach.
func usableInterface(iface *net.Interface) bool {
	if iface.Flags&net.FlagUp == 0 {
		return false
	}
	if iface.Flags&net.FlagLoopback != 0 {
		return false
	}
	if iface.Flags&net.FlagPointToPoint != 0 {
		return false // utun / tun / vpn
	}
	return true
}

// LocalIPv4Addrs returns the non-loopback IPv4 address of each usable interface, keyed by interface name.
func LocalIPv4Addrs() map[string]string {
	result := make(map[string]string)

	ifaces, err := net.Interfaces()
	if err != nil {
		return result
	}
	for i := range ifaces {
		iface := &ifaces[i]
		if !usableInterface(iface) {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok || ipnet.IP == nil || ipnet.IP.IsLoopback() {
				continue
			}
			if ipv4 := ipnet.IP.To4(); ipv4 != nil {
				result[iface.Name] = ipv4.String()
				break
			}
		}
	}
	return result
}

// CaptureLinks lists the UI URLs for every usable interface, sorted by interface name.
func CaptureLinks(protocol string, port int) []types.CaptureLink {
	addrs := LocalIPv4Addrs()
	names := make([]string, 0, len(addrs))
	for name := range addrs {
		names = append(names, name)
	}
	sort.Strings(names)

	links := make([]types.CaptureLink, 0, len(names))
	for _, name := range names {
		links = append(links, types.CaptureLink{
			Interface: name,
			URL:       BuildCaptureURL(protocol, addrs[name], port),
		})
	}
	return links
}
