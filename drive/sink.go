package main

import (
	"encoding/binary"
	"fmt"

	"github.com/tarm/serial"

	"svpwm-drive-core/utils"
)

// CompareSink receives the three quantized compare values each control
// tick and forwards them to whatever programs the PWM peripheral.
type CompareSink interface {
	WriteCompares(a, b, c uint32) error
	Close() error
}

// LogSink traces compare values to the logger. Used for dry runs with
// no gate-driver link attached.
type LogSink struct {
	log *utils.Logger
}

func NewLogSink(log *utils.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) WriteCompares(a, b, c uint32) error {
	s.log.Trace("compare a=%d b=%d c=%d", a, b, c)
	return nil
}

func (s *LogSink) Close() error { return nil }

const sinkSyncByte = 0xA5

// SerialSink streams compare updates to the gate-driver MCU over a
// UART. Packet layout: sync byte, sequence counter, three little-endian
// 16-bit compares, XOR check over the preceding eight bytes.
type SerialSink struct {
	port *serial.Port
	seq  uint8
}

func NewSerialSink(device string, baud int) (*SerialSink, error) {
	port, err := serial.OpenPort(&serial.Config{Name: device, Baud: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}
	return &SerialSink{port: port}, nil
}

func (s *SerialSink) WriteCompares(a, b, c uint32) error {
	pkt := packCompareFrame(s.seq, a, b, c)
	s.seq++
	if _, err := s.port.Write(pkt[:]); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}
	return nil
}

func (s *SerialSink) Close() error {
	return s.port.Close()
}

func packCompareFrame(seq uint8, a, b, c uint32) [9]byte {
	var pkt [9]byte
	pkt[0] = sinkSyncByte
	pkt[1] = seq
	binary.LittleEndian.PutUint16(pkt[2:], uint16(a))
	binary.LittleEndian.PutUint16(pkt[4:], uint16(b))
	binary.LittleEndian.PutUint16(pkt[6:], uint16(c))
	var check byte
	for _, x := range pkt[:8] {
		check ^= x
	}
	pkt[8] = check
	return pkt
}
