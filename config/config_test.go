package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/armv7/config"
	"github.com/sarchlab/armv7/loader"
)

var _ = Describe("Config", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	It("should provide valid defaults", func() {
		c := config.Default()
		Expect(c.Validate()).To(Succeed())
		Expect(c.MemoryBackend).To(Equal(config.BackendSparse))
		Expect(c.Level()).To(Equal(logrus.InfoLevel))
	})

	It("should load YAML and keep defaults for missing fields", func() {
		path := write("run.yaml", `
max_instructions: 1000000
tls_slots: 8
log_level: debug
decode_cache:
  enabled: true
  sets: 64
  ways: 2
  block_size: 32
imports:
  - module: SceLibKernel
    name: sceKernelExitThread
    nid: 0x0C8A38E1
    symbol: exit_stub
`)
		c, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.MaxInstructions).To(Equal(uint64(1000000)))
		Expect(c.TLSSlots).To(Equal(8))
		Expect(c.MainStackSize).To(Equal(config.Default().MainStackSize))
		Expect(c.Level()).To(Equal(logrus.DebugLevel))
		Expect(c.DecodeCache).To(Equal(config.DecodeCache{Enabled: true, Sets: 64, Ways: 2, BlockSize: 32}))
		Expect(c.Imports).To(Equal([]loader.Import{{
			Module: "SceLibKernel", Name: "sceKernelExitThread", NID: 0x0C8A38E1, Symbol: "exit_stub",
		}}))
	})

	It("should load JSON", func() {
		path := write("run.json", `{"memory_backend": "mmap", "break_reservation_on_store": true, "main_priority": 64}`)
		c, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.MemoryBackend).To(Equal(config.BackendMmap))
		Expect(c.BreakReservationOnStore).To(BeTrue())
		Expect(c.MainPriority).To(Equal(int32(64)))
	})

	It("should round-trip through Save", func() {
		c := config.Default()
		c.MaxInstructions = 42
		c.Imports = []loader.Import{{Module: "SceLibc", Name: "malloc", NID: 7, Symbol: "malloc"}}

		for _, name := range []string{"out.yaml", "out.json"} {
			path := filepath.Join(dir, name)
			Expect(c.Save(path)).To(Succeed())
			loaded, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(c))
		}
	})

	DescribeTable("invalid settings",
		func(mutate func(*config.Config), msg string) {
			c := config.Default()
			mutate(c)
			err := c.Validate()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring(msg))
		},
		Entry("small stack", func(c *config.Config) { c.MainStackSize = 0x100 }, "main_stack_size"),
		Entry("no TLS slots", func(c *config.Config) { c.TLSSlots = 0 }, "tls_slots"),
		Entry("unknown backend", func(c *config.Config) { c.MemoryBackend = "disk" }, "memory_backend"),
		Entry("bad log level", func(c *config.Config) { c.LogLevel = "loud" }, "log_level"),
		Entry("odd block size", func(c *config.Config) { c.DecodeCache.BlockSize = 48 }, "block_size"),
		Entry("odd set count", func(c *config.Config) { c.DecodeCache.Sets = 3 }, "sets"),
		Entry("missing file root", func(c *config.Config) { c.FileRoot = "/nonexistent/armv7-root" }, "file_root"),
		Entry("import without symbol", func(c *config.Config) {
			c.Imports = []loader.Import{{Module: "SceLibc", NID: 1}}
		}, "imports[0]"),
	)

	It("should report parse errors with the file name", func() {
		path := write("bad.yaml", "tls_slots: [")
		_, err := config.Load(path)
		Expect(err).To(MatchError(ContainSubstring("bad.yaml")))

		_, err = config.Load(filepath.Join(dir, "missing.json"))
		Expect(err).To(MatchError(ContainSubstring("failed to read")))
	})

	It("should reject invalid files", func() {
		path := write("bad.json", `{"tls_slots": -1}`)
		_, err := config.Load(path)
		Expect(err).To(MatchError(ContainSubstring("tls_slots")))
	})
})
