/*
File Name:  network.go
Package:    remule

UDP socket lifecycle, grounded on the teacher's Network.go AutoAssignPort/
send/Listen, trimmed of the multicast/broadcast/UPnP/reuseport/NAT-
detection machinery spec.md scopes out entirely (no firewall/UPnP
probing). The receive buffer is a fixed 1024 bytes per spec.md §4.5.1/§5,
not the teacher's 64 KB max-packet-size buffer.
*/

package remule

import (
	"fmt"
	"net"
)

// recvBufferSize is the fixed receive buffer spec.md §5 specifies:
// oversized datagrams are truncated by the OS and handled as-is.
const recvBufferSize = 1024

// Network wraps a single bound UDP socket shared by the sender and
// receiver loops.
type Network struct {
	conn *net.UDPConn
	addr *net.UDPAddr
}

// OpenNetwork binds a UDP socket at bindAddr (host:port, port 0 for
// auto-assign).
func OpenNetwork(bindAddr string) (*Network, error) {
	addr, err := net.ResolveUDPAddr("udp", bindAddr)
	if err != nil {
		return nil, fmt.Errorf("remule: resolve bind address %q: %w", bindAddr, err)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("remule: bind udp socket %q: %w", bindAddr, err)
	}

	return &Network{conn: conn, addr: addr}, nil
}

// LocalAddr returns the socket's bound address.
func (n *Network) LocalAddr() *net.UDPAddr {
	return n.conn.LocalAddr().(*net.UDPAddr)
}

// SendTo writes raw to the given peer address.
func (n *Network) SendTo(ip net.IP, port uint16, raw []byte) error {
	_, err := n.conn.WriteToUDP(raw, &net.UDPAddr{IP: ip, Port: int(port)})
	return err
}

// RecvFrom reads a single datagram into a fresh recvBufferSize buffer,
// returning the bytes actually received and the sender's address.
func (n *Network) RecvFrom() ([]byte, *net.UDPAddr, error) {
	buf := make([]byte, recvBufferSize)
	length, sender, err := n.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, nil, err
	}
	return buf[:length], sender, nil
}

// Close releases the underlying socket.
func (n *Network) Close() error {
	return n.conn.Close()
}
