package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"os"
	"strings"
	"sync"
)

var (
	instanceOnce sync.Once
	instanceID   string
)

// InstanceID names this server process's machine, e.g. "POS-A1B2C3D4".
// It is derived from the hostname and first active MAC address, so it stays
// stable across restarts and tells replicas apart in logs and status.
func InstanceID() string {
	instanceOnce.Do(func() {
		instanceID = deriveInstanceID(hostname(), firstMAC())
	})
	return instanceID
}

func deriveInstanceID(host, mac string) string {
	if host == "" && mac == "" {
		return "POS-UNKNOWN"
	}
	hash := sha256.Sum256([]byte(host + "|" + mac))
	return "POS-" + strings.ToUpper(hex.EncodeToString(hash[:])[:8])
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return ""
	}
	return h
}

func firstMAC() string {
	interfaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, i := range interfaces {
		// First active interface with a hardware address
		if i.Flags&net.FlagUp != 0 && len(i.HardwareAddr) > 0 {
			return i.HardwareAddr.String()
		}
	}
	return ""
}
