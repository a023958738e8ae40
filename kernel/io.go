package kernel

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Guest open flags.
const (
	OpenRead   = 0x0001
	OpenWrite  = 0x0002
	OpenRDWR   = 0x0003
	OpenAppend = 0x0100
	OpenCreate = 0x0200
	OpenTrunc  = 0x0400
	OpenExcl   = 0x0800
)

// Guest I/O status codes.
const (
	CodeNoEntry uint32 = 0x80010002
	CodeIO      uint32 = 0x80010005
	CodeBadFile uint32 = 0x80010009
	CodeAccess  uint32 = 0x8001000D
	CodeExists  uint32 = 0x80010011
	CodeInvalid uint32 = 0x80010016
)

// I/O errors.
var (
	ErrBadFile   = errors.New("bad file descriptor")
	ErrBadFlags  = errors.New("invalid open flags")
	ErrNoFileDir = errors.New("no host directory for guest files")
)

// Standard streams.
const (
	FDStdin  = 0
	FDStdout = 1
	FDStderr = 2
)

// FileDescriptor represents an open file descriptor.
type FileDescriptor struct {
	HostFile *os.File // nil for the standard streams
	Path     string   // guest path, or the stream name
	Flags    uint32   // guest open flags
}

// FDTable maps guest file descriptors to host files below a root
// directory. Descriptors 0-2 are the standard streams.
type FDTable struct {
	root   string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	mu     sync.Mutex
	fds    map[uint32]*FileDescriptor
	nextFD uint32
}

// NewFDTable creates a table whose guest paths resolve below root. An
// empty root refuses every open.
func NewFDTable(root string, stdin io.Reader, stdout, stderr io.Writer) *FDTable {
	return &FDTable{
		root:   root,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		fds: map[uint32]*FileDescriptor{
			FDStdin:  {Path: "stdin", Flags: OpenRead},
			FDStdout: {Path: "stdout", Flags: OpenWrite},
			FDStderr: {Path: "stderr", Flags: OpenWrite},
		},
		nextFD: 3,
	}
}

// hostPath maps a guest path such as "app0:data/save.bin" into the root.
// A device prefix is dropped and ".." cannot leave the root.
func (t *FDTable) hostPath(path string) (string, error) {
	if t.root == "" {
		return "", ErrNoFileDir
	}
	if i := strings.IndexByte(path, ':'); i >= 0 {
		path = path[i+1:]
	}
	return filepath.Join(t.root, filepath.Clean("/"+path)), nil
}

func hostFlags(flags uint32) (int, error) {
	var f int
	switch flags & OpenRDWR {
	case OpenRead:
		f = os.O_RDONLY
	case OpenWrite:
		f = os.O_WRONLY
	case OpenRDWR:
		f = os.O_RDWR
	default:
		return 0, fmt.Errorf("%w: 0x%x", ErrBadFlags, flags)
	}

	if flags&OpenAppend != 0 {
		f |= os.O_APPEND
	}
	if flags&OpenCreate != 0 {
		f |= os.O_CREATE
	}
	if flags&OpenTrunc != 0 {
		f |= os.O_TRUNC
	}
	if flags&OpenExcl != 0 {
		f |= os.O_EXCL
	}
	return f, nil
}

// Open opens a guest path and returns a new file descriptor.
func (t *FDTable) Open(path string, flags uint32, mode os.FileMode) (uint32, error) {
	hostFlag, err := hostFlags(flags)
	if err != nil {
		return 0, err
	}
	hostPath, err := t.hostPath(path)
	if err != nil {
		return 0, err
	}

	hostFile, err := os.OpenFile(hostPath, hostFlag, mode)
	if err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	fd := t.nextFD
	t.nextFD++
	t.fds[fd] = &FileDescriptor{HostFile: hostFile, Path: path, Flags: flags}
	return fd, nil
}

// Close closes a file descriptor.
func (t *FDTable) Close(fd uint32) error {
	t.mu.Lock()
	entry, ok := t.fds[fd]
	delete(t.fds, fd)
	t.mu.Unlock()

	if !ok {
		return ErrBadFile
	}
	if entry.HostFile != nil {
		return entry.HostFile.Close()
	}
	return nil
}

// Get returns the descriptor entry if it is open.
func (t *FDTable) Get(fd uint32) (*FileDescriptor, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.fds[fd]
	return entry, ok
}

// Read reads from a file descriptor into buf.
func (t *FDTable) Read(fd uint32, buf []byte) (int, error) {
	entry, ok := t.Get(fd)
	switch {
	case !ok, entry.Flags&OpenRead == 0:
		return 0, ErrBadFile
	case fd == FDStdin:
		if t.stdin == nil {
			return 0, nil
		}
		return readSome(t.stdin, buf)
	case entry.HostFile == nil:
		return 0, ErrBadFile
	}
	return readSome(entry.HostFile, buf)
}

// readSome reads once, reporting end of file as a zero count.
func readSome(r io.Reader, buf []byte) (int, error) {
	n, err := r.Read(buf)
	if errors.Is(err, io.EOF) {
		err = nil
	}
	return n, err
}

// Write writes buf to a file descriptor.
func (t *FDTable) Write(fd uint32, buf []byte) (int, error) {
	entry, ok := t.Get(fd)
	switch {
	case !ok, entry.Flags&OpenWrite == 0:
		return 0, ErrBadFile
	case fd == FDStdout:
		return writeTo(t.stdout, buf)
	case fd == FDStderr:
		return writeTo(t.stderr, buf)
	case entry.HostFile == nil:
		return 0, ErrBadFile
	}
	return entry.HostFile.Write(buf)
}

func writeTo(w io.Writer, buf []byte) (int, error) {
	if w == nil {
		return len(buf), nil
	}
	return w.Write(buf)
}

// Seek sets the file position for the given file descriptor.
func (t *FDTable) Seek(fd uint32, offset int64, whence int) (int64, error) {
	entry, ok := t.Get(fd)
	if !ok || entry.HostFile == nil {
		return 0, ErrBadFile
	}
	return entry.HostFile.Seek(offset, whence)
}

// CloseAll closes every host file.
func (t *FDTable) CloseAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for fd, entry := range t.fds {
		if entry.HostFile != nil {
			_ = entry.HostFile.Close()
			delete(t.fds, fd)
		}
	}
}

// ioCode maps an I/O error to a guest status code.
func ioCode(err error) uint32 {
	switch {
	case errors.Is(err, ErrBadFile), errors.Is(err, os.ErrClosed):
		return CodeBadFile
	case errors.Is(err, ErrBadFlags):
		return CodeInvalid
	case errors.Is(err, fs.ErrNotExist):
		return CodeNoEntry
	case errors.Is(err, fs.ErrExist):
		return CodeExists
	case errors.Is(err, fs.ErrPermission), errors.Is(err, ErrNoFileDir):
		return CodeAccess
	}
	return CodeIO
}
