package wifi

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

type runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// NMCLI drives NetworkManager through the nmcli command.
type NMCLI struct {
	iface string
	run   runner

	mu        sync.Mutex
	noNetwork bool
}

func NewNMCLI(iface string) *NMCLI {
	return &NMCLI{iface: iface, run: execRunner}
}

func (n *NMCLI) Begin(ctx context.Context, ssid, password string) error {
	out, err := n.run(ctx, "nmcli", "--wait", "0", "device", "wifi", "connect", ssid,
		"password", password, "ifname", n.iface)

	n.mu.Lock()
	n.noNetwork = strings.Contains(string(out), "No network with SSID")
	n.mu.Unlock()

	if err != nil && !n.noNetwork {
		return fmt.Errorf("nmcli connect %q: %w: %s", ssid, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (n *NMCLI) Status(ctx context.Context) Status {
	n.mu.Lock()
	noNetwork := n.noNetwork
	n.mu.Unlock()
	if noNetwork {
		return StatusNoNetwork
	}

	out, err := n.run(ctx, "nmcli", "-t", "-f", "DEVICE,STATE", "device", "status")
	if err != nil {
		return StatusDisconnected
	}
	return parseDeviceState(string(out), n.iface)
}

func parseDeviceState(out, iface string) Status {
	for _, line := range strings.Split(out, "\n") {
		dev, state, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok || dev != iface {
			continue
		}
		switch {
		case state == "connected":
			return StatusConnected
		case strings.HasPrefix(state, "connecting"):
			return StatusIdle
		default:
			return StatusDisconnected
		}
	}
	return StatusDisconnected
}

func (n *NMCLI) StartAccessPoint(ctx context.Context, ssid string) error {
	out, err := n.run(ctx, "nmcli", "device", "wifi", "hotspot", "ifname", n.iface, "ssid", ssid)
	if err != nil {
		return fmt.Errorf("nmcli hotspot %q: %w: %s", ssid, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (n *NMCLI) Scan(ctx context.Context) ([]Network, error) {
	out, err := n.run(ctx, "nmcli", "-t", "-f", "SSID,SIGNAL", "device", "wifi", "list", "ifname", n.iface)
	if err != nil {
		return nil, fmt.Errorf("nmcli scan: %w", err)
	}
	return parseScan(string(out)), nil
}

// parseScan reads terse SSID:SIGNAL lines. Colons inside an ssid are escaped
// by nmcli, so the signal is always after the last unescaped colon.
func parseScan(out string) []Network {
	var nets []Network
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		i := strings.LastIndex(line, ":")
		if i <= 0 {
			continue
		}
		sig, err := strconv.Atoi(line[i+1:])
		if err != nil {
			continue
		}
		nets = append(nets, Network{SSID: strings.ReplaceAll(line[:i], `\:`, ":"), Signal: sig})
	}
	return nets
}

func (n *NMCLI) HardwareAddr() string {
	ifi, err := net.InterfaceByName(n.iface)
	if err != nil {
		return ""
	}
	return ifi.HardwareAddr.String()
}
