//go:build windows

package ui

import (
	"errors"
	"io"
	"os"

	"golang.org/x/sys/windows"
)

// console reads answers from the console input and writes questions to
// stderr. The standard handles stay open on Close.
type console struct {
	in  *os.File
	out *os.File
}

func (c *console) Read(p []byte) (int, error)  { return c.in.Read(p) }
func (c *console) Write(p []byte) (int, error) { return c.out.Write(p) }
func (c *console) Close() error                { return nil }

func stdFile(id uint32, name string) (*os.File, error) {
	handle, err := windows.GetStdHandle(id)
	if err != nil {
		return nil, err
	}
	fd := os.NewFile(uintptr(handle), name)
	if fd == nil {
		return nil, errors.New("failed to create file from handle " + name)
	}
	return fd, nil
}

// OpenTTY returns the console of the process.
func OpenTTY() (io.ReadWriteCloser, error) {
	in, err := stdFile(windows.STD_INPUT_HANDLE, "conin")
	if err != nil {
		return nil, err
	}
	out, err := stdFile(windows.STD_ERROR_HANDLE, "conerr")
	if err != nil {
		return nil, err
	}
	return &console{in: in, out: out}, nil
}
