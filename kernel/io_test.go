package kernel_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/armv7/emu"
	"github.com/sarchlab/armv7/hle"
	"github.com/sarchlab/armv7/kernel"
)

var _ = Describe("FDTable", func() {
	var (
		root   string
		out    *bytes.Buffer
		errOut *bytes.Buffer
		files  *kernel.FDTable
	)

	BeforeEach(func() {
		root = GinkgoT().TempDir()
		out = &bytes.Buffer{}
		errOut = &bytes.Buffer{}
		files = kernel.NewFDTable(root, strings.NewReader("input"), out, errOut)
		DeferCleanup(files.CloseAll)
	})

	It("should route the standard streams", func() {
		n, err := files.Write(kernel.FDStdout, []byte("out"))
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(3))
		_, err = files.Write(kernel.FDStderr, []byte("err"))
		Expect(err).NotTo(HaveOccurred())
		Expect(out.String()).To(Equal("out"))
		Expect(errOut.String()).To(Equal("err"))

		buf := make([]byte, 16)
		n, err = files.Read(kernel.FDStdin, buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(buf[:n])).To(Equal("input"))

		n, err = files.Read(kernel.FDStdin, buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())

		_, err = files.Write(kernel.FDStdin, []byte("x"))
		Expect(err).To(MatchError(kernel.ErrBadFile))
	})

	It("should create, write, seek and read files below the root", func() {
		fd, err := files.Open("app0:data/../save.bin", kernel.OpenRDWR|kernel.OpenCreate, 0o644)
		Expect(err).NotTo(HaveOccurred())
		Expect(fd).To(BeNumerically(">=", 3))

		_, err = files.Write(fd, []byte("hello"))
		Expect(err).NotTo(HaveOccurred())

		pos, err := files.Seek(fd, 1, io.SeekStart)
		Expect(err).NotTo(HaveOccurred())
		Expect(pos).To(Equal(int64(1)))

		buf := make([]byte, 8)
		n, err := files.Read(fd, buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(buf[:n])).To(Equal("ello"))

		Expect(files.Close(fd)).To(Succeed())
		Expect(files.Close(fd)).To(MatchError(kernel.ErrBadFile))

		data, err := os.ReadFile(filepath.Join(root, "save.bin"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("hello"))
	})

	It("should keep paths inside the root", func() {
		fd, err := files.Open("../../escape.txt", kernel.OpenWrite|kernel.OpenCreate, 0o644)
		Expect(err).NotTo(HaveOccurred())
		Expect(files.Close(fd)).To(Succeed())
		Expect(filepath.Join(root, "escape.txt")).To(BeAnExistingFile())
	})

	It("should enforce the access mode", func() {
		Expect(os.WriteFile(filepath.Join(root, "ro.txt"), []byte("x"), 0o644)).To(Succeed())
		fd, err := files.Open("ro.txt", kernel.OpenRead, 0)
		Expect(err).NotTo(HaveOccurred())

		_, err = files.Write(fd, []byte("y"))
		Expect(err).To(MatchError(kernel.ErrBadFile))

		_, err = files.Open("ro.txt", 0, 0)
		Expect(err).To(MatchError(kernel.ErrBadFlags))
	})

	It("should refuse opens without a root", func() {
		files := kernel.NewFDTable("", nil, nil, nil)
		_, err := files.Open("a.txt", kernel.OpenRead, 0)
		Expect(err).To(MatchError(kernel.ErrNoFileDir))

		n, err := files.Write(kernel.FDStdout, []byte("dropped"))
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(7))
	})
})

var _ = Describe("I/O functions", func() {
	var (
		mem   *emu.SparseMemory
		table *hle.Table
		root  string
		out   *bytes.Buffer
		th    *emu.Thread
	)

	call := func(module string, nid uint32, args ...uint32) uint32 {
		idx, ok := table.Lookup(module, nid)
		Expect(ok).To(BeTrue())
		ctx := th.Context()
		for i, a := range args {
			ctx.GPR[i] = a
		}
		Expect(table.CallFunction(th, idx)).To(Succeed())
		return ctx.GPR[0]
	}

	BeforeEach(func() {
		mem = emu.NewSparseMemory()
		Expect(mem.Map(0, 0x10000)).To(Succeed())
		table = hle.NewTable(hle.WithTableLogger(testLogger()))
		root = GinkgoT().TempDir()
		out = &bytes.Buffer{}

		files := kernel.NewFDTable(root, nil, out, out)
		DeferCleanup(files.CloseAll)
		s, err := kernel.NewScheduler(mem, table,
			kernel.WithLogger(testLogger()), kernel.WithFiles(files))
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Files()).To(BeIdenticalTo(files))

		th = emu.NewThread(mem, emu.WithLogger(testLogger()))
		th.Context().GPR[emu.RegSP] = dataBase + 0x800
	})

	It("should write guest buffers to stdout through both modules", func() {
		Expect(mem.WriteBytes(dataBase, []byte("ping"))).To(Succeed())

		Expect(call(kernel.ModuleName, kernel.NIDIoWrite, kernel.FDStdout, dataBase, 4)).To(Equal(uint32(4)))
		Expect(call(kernel.IofilemgrName, kernel.NIDIofilemgrWrite, kernel.FDStdout, dataBase, 2)).To(Equal(uint32(2)))
		Expect(out.String()).To(Equal("pingpi"))
	})

	It("should open, seek, read and close host files", func() {
		Expect(os.WriteFile(filepath.Join(root, "msg.txt"), []byte("0123456789"), 0o644)).To(Succeed())
		Expect(mem.WriteBytes(dataBase, []byte("app0:msg.txt\x00"))).To(Succeed())

		fd := call(kernel.ModuleName, kernel.NIDIoOpen, dataBase, kernel.OpenRead, 0)
		Expect(fd).To(BeNumerically(">=", 3))

		Expect(call(kernel.ModuleName, kernel.NIDIoLseek32, fd, 4, uint32(io.SeekStart))).To(Equal(uint32(4)))

		// The 64-bit offset takes r2:r3 and whence goes on the stack.
		Expect(mem.Write32(dataBase+0x800, uint32(io.SeekCurrent))).To(Succeed())
		Expect(call(kernel.ModuleName, kernel.NIDIoLseek, fd, 0, 2, 0)).To(Equal(uint32(6)))
		Expect(th.Context().GPR[1]).To(BeZero())

		Expect(call(kernel.IofilemgrName, kernel.NIDIofilemgrRead, fd, dataBase+0x100, 16)).To(Equal(uint32(4)))
		buf := make([]byte, 4)
		Expect(mem.ReadBytes(dataBase+0x100, buf)).To(Succeed())
		Expect(string(buf)).To(Equal("6789"))

		Expect(call(kernel.ModuleName, kernel.NIDIoClose, fd)).To(Equal(kernel.CodeOK))
		Expect(call(kernel.ModuleName, kernel.NIDIoClose, fd)).To(Equal(kernel.CodeBadFile))
	})

	It("should return status codes for failed operations", func() {
		Expect(mem.WriteBytes(dataBase, []byte("missing.txt\x00"))).To(Succeed())
		Expect(call(kernel.ModuleName, kernel.NIDIoOpen, dataBase, kernel.OpenRead, 0)).To(Equal(kernel.CodeNoEntry))
		Expect(call(kernel.ModuleName, kernel.NIDIoOpen, dataBase, 0, 0)).To(Equal(kernel.CodeInvalid))
		Expect(call(kernel.ModuleName, kernel.NIDIoRead, 42, dataBase, 4)).To(Equal(kernel.CodeBadFile))

		Expect(mem.Write32(dataBase+0x800, uint32(io.SeekStart))).To(Succeed())
		Expect(call(kernel.ModuleName, kernel.NIDIoLseek, 42, 0, 0, 0)).To(Equal(kernel.CodeBadFile))
		Expect(th.Context().GPR[1]).To(Equal(uint32(0xffffffff)))
	})
})
