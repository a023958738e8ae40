package kernel

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/armv7/emu"
	"github.com/sarchlab/armv7/hle"
)

const (
	maxPath = 1024
	// A single read returns at most this many bytes.
	maxReadChunk = 1 << 20
	writeChunk   = 64 << 10
)

// ioResult returns the guest status code for err, or value when err is nil.
func ioResult(value uint32, err error) uint32 {
	if err != nil {
		return ioCode(err)
	}
	return value
}

func (s *Scheduler) hleIoOpen(t *emu.Thread, pName uint32, flags, mode int32) (uint32, error) {
	name, err := hle.ReadString(s.mem, pName, maxPath)
	if err != nil {
		return 0, err
	}

	fd, err := s.files.Open(name, uint32(flags), os.FileMode(mode)&os.ModePerm)
	if err != nil {
		t.Logger().WithFields(logrus.Fields{
			"path":  name,
			"flags": fmt.Sprintf("0x%x", flags),
		}).WithError(err).Debug("open failed")
	}
	return ioResult(fd, err), nil
}

func (s *Scheduler) hleIoClose(fd int32) uint32 {
	return ioResult(CodeOK, s.files.Close(uint32(fd)))
}

func (s *Scheduler) hleIoRead(fd int32, pBuf, size uint32) (uint32, error) {
	buf := make([]byte, min(size, maxReadChunk))
	n, err := s.files.Read(uint32(fd), buf)
	if err != nil {
		return ioCode(err), nil
	}
	if err := s.mem.WriteBytes(pBuf, buf[:n]); err != nil {
		return 0, fmt.Errorf("sceIoRead buffer: %w", err)
	}
	return uint32(n), nil
}

func (s *Scheduler) hleIoWrite(fd int32, pBuf, size uint32) (uint32, error) {
	buf := make([]byte, min(size, writeChunk))
	var written uint32
	for written < size {
		chunk := buf[:min(size-written, uint32(len(buf)))]
		if err := s.mem.ReadBytes(pBuf+written, chunk); err != nil {
			return 0, fmt.Errorf("sceIoWrite buffer: %w", err)
		}
		n, err := s.files.Write(uint32(fd), chunk)
		written += uint32(n)
		if err != nil {
			if written > 0 {
				return written, nil
			}
			return ioCode(err), nil
		}
	}
	return written, nil
}

// hleIoLseek reports failures as the status code sign-extended to 64 bits.
func (s *Scheduler) hleIoLseek(fd int32, offset int64, whence int32) int64 {
	pos, err := s.files.Seek(uint32(fd), offset, int(whence))
	if err != nil {
		return int64(int32(ioCode(err)))
	}
	return pos
}

func (s *Scheduler) hleIoLseek32(fd, offset, whence int32) uint32 {
	pos, err := s.files.Seek(uint32(fd), int64(offset), int(whence))
	if err != nil {
		return ioCode(err)
	}
	return uint32(pos)
}
