package utils

import (
	"context"
	"fmt"
	"net"

	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

// FrameWriter transmits raw CAN frames.
type FrameWriter interface {
	WriteFrame(ctx context.Context, frame can.Frame) error
	Close() error
}

// FrameReader receives raw CAN frames.
type FrameReader interface {
	ReadFrame(ctx context.Context) (can.Frame, error)
	Close() error
}

// BusWriter transmits frames on a SocketCAN interface.
type BusWriter struct {
	conn net.Conn
	tx   *socketcan.Transmitter
}

func NewBusWriter(ctx context.Context, iface string) (*BusWriter, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial %s: %w", iface, err)
	}
	return &BusWriter{conn: conn, tx: socketcan.NewTransmitter(conn)}, nil
}

func (w *BusWriter) WriteFrame(ctx context.Context, frame can.Frame) error {
	return w.tx.TransmitFrame(ctx, frame)
}

func (w *BusWriter) Close() error {
	if w.conn != nil {
		return w.conn.Close()
	}
	return nil
}

// BusReader receives frames from a SocketCAN interface. The underlying
// receive blocks, so each read runs on its own goroutine and races the
// context.
type BusReader struct {
	conn net.Conn
	rx   *socketcan.Receiver
}

func NewBusReader(ctx context.Context, iface string) (*BusReader, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, fmt.Errorf("socketcan dial %s: %w", iface, err)
	}
	return &BusReader{conn: conn, rx: socketcan.NewReceiver(conn)}, nil
}

func (r *BusReader) ReadFrame(ctx context.Context) (can.Frame, error) {
	frames := make(chan can.Frame, 1)
	errs := make(chan error, 1)

	go func() {
		if r.rx.Receive() {
			frames <- r.rx.Frame()
		} else {
			errs <- fmt.Errorf("socketcan receive failed")
		}
	}()

	select {
	case <-ctx.Done():
		return can.Frame{}, ctx.Err()
	case f := <-frames:
		return f, nil
	case err := <-errs:
		return can.Frame{}, err
	}
}

func (r *BusReader) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
