package recentcmder_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	arborcmder "github.com/arborhq/arbor/cmd/arbor"
	recentcmder "github.com/arborhq/arbor/cmd/arbor/recent"
)

var _ = Describe("NewRecentCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := recentcmder.NewRecentCmd()
		Expect(cmd.Use).To(Equal("recent"))
	})

	It("rejects positional arguments", func() {
		cmd := recentcmder.NewRecentCmd()
		err := cmd.Args(cmd, []string{"extra"})
		Expect(err).To(HaveOccurred())
	})

	It("has the expected flags", func() {
		cmd := recentcmder.NewRecentCmd()

		limitFlag := cmd.Flags().Lookup("limit")
		Expect(limitFlag).NotTo(BeNil())
		Expect(limitFlag.Shorthand).To(Equal("n"))
		Expect(limitFlag.DefValue).To(Equal("10"))

		Expect(cmd.Flags().Lookup("quiet")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("vault")).NotTo(BeNil())
	})
})

var _ = Describe("Recent command execution", func() {
	var (
		tmpDir    string
		vaultDir  string
		configDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "arbor-recent-test-*")
		Expect(err).NotTo(HaveOccurred())

		vaultDir = filepath.Join(tmpDir, "vault")
		configDir = filepath.Join(tmpDir, "state")
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	runRecent := func(args ...string) error {
		root := arborcmder.NewArborCmd()
		root.SetArgs(append([]string{
			"recent",
			"--vault", vaultDir,
			"--config-dir", configDir,
		}, args...))
		return root.Execute()
	}

	It("runs on an empty vault", func() {
		Expect(runRecent()).To(Succeed())
	})

	It("lists nodes after ingesting", func() {
		transcript := filepath.Join(tmpDir, "transcript.txt")
		err := os.WriteFile(transcript,
			[]byte("the garden needs watering before the weekend heat arrives\n"), 0o600)
		Expect(err).NotTo(HaveOccurred())

		root := arborcmder.NewArborCmd()
		root.SetArgs([]string{
			"ingest",
			"--file", transcript,
			"--vault", vaultDir,
			"--config-dir", configDir,
			"--no-index",
			"--flush-threshold", "20",
		})
		Expect(root.Execute()).To(Succeed())

		Expect(runRecent("--limit", "5")).To(Succeed())
		Expect(runRecent("--quiet")).To(Succeed())
	})
})
