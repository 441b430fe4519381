package telemetry

import (
	"fmt"
	"net"

	"plate-tracker/internal/pipeline"
)

// UDPPublisher sends each result as one CSV datagram:
// "seq,err_x,err_y,sp_x,sp_y,pos_x,pos_y,status" with values in cm.
// A nil publisher or one created with an empty address drops everything.
type UDPPublisher struct {
	conn *net.UDPConn
}

// NewUDPPublisher creates a UDP sender for the given address.
func NewUDPPublisher(addr string) (*UDPPublisher, error) {
	if addr == "" {
		return &UDPPublisher{}, nil
	}
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, err
	}
	return &UDPPublisher{conn: conn}, nil
}

// Close releases the UDP socket.
func (p *UDPPublisher) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	return p.conn.Close()
}

// Publish sends the result. Send errors are returned but never block.
func (p *UDPPublisher) Publish(r *pipeline.Result) error {
	if p == nil || p.conn == nil {
		return nil
	}
	_, err := p.conn.Write([]byte(FormatDatagram(SampleFromResult(r))))
	return err
}

// FormatDatagram renders the datagram payload for a sample.
func FormatDatagram(s Sample) string {
	return fmt.Sprintf("%d,%.2f,%.2f,%.2f,%.2f,%.2f,%.2f,%s",
		s.Seq, s.Error.X, s.Error.Y, s.Setpoint.X, s.Setpoint.Y, s.Position.X, s.Position.Y, s.Status)
}
