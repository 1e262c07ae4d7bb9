package mon

import (
	"bufio"
	"fmt"
	"io"
	"log"

	serial "github.com/jacobsa/go-serial/serial"
)

// SerialLink is the monitoring link's serial transport: commands in,
// ASCII lines (such as the soft-reset event) out, over a single UART.
type SerialLink struct {
	port   io.ReadWriteCloser
	reader *bufio.Reader
}

// OpenSerial opens portName at baud for the monitoring link.
func OpenSerial(portName string, baud int) (*SerialLink, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening monitoring serial port %s: %w", portName, err)
	}
	return &SerialLink{port: port, reader: bufio.NewReader(port)}, nil
}

// Close releases the underlying port.
func (s *SerialLink) Close() error { return s.port.Close() }

// WriteLine writes one newline-terminated ASCII line.
func (s *SerialLink) WriteLine(line string) error {
	_, err := s.port.Write([]byte(line + "\n"))
	return err
}

// ReadCommands blocks reading lines from the link, parsing each and
// invoking handle for anything recognized. Intended to run on its own
// goroutine; returns when the port closes or a read error occurs.
func (s *SerialLink) ReadCommands(handle func(Command)) {
	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				log.Printf("monitoring serial link: read error: %v", err)
			}
			return
		}
		if cmd := ParseCommand(line); cmd != CommandNone {
			handle(cmd)
		}
	}
}
