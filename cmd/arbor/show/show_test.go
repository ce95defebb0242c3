package showcmder_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	arborcmder "github.com/arborhq/arbor/cmd/arbor"
	showcmder "github.com/arborhq/arbor/cmd/arbor/show"
)

var _ = Describe("NewShowCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := showcmder.NewShowCmd()
		Expect(cmd.Use).To(Equal("show <node-id>"))
	})

	It("requires exactly one argument", func() {
		cmd := showcmder.NewShowCmd()
		Expect(cmd.Args(cmd, []string{})).To(HaveOccurred())
		Expect(cmd.Args(cmd, []string{"1", "2"})).To(HaveOccurred())
		Expect(cmd.Args(cmd, []string{"1"})).To(Succeed())
	})

	It("has the expected flags", func() {
		cmd := showcmder.NewShowCmd()
		Expect(cmd.Flags().Lookup("raw")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("vault")).NotTo(BeNil())
	})
})

var _ = Describe("Show command execution", func() {
	var (
		tmpDir    string
		vaultDir  string
		configDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "arbor-show-test-*")
		Expect(err).NotTo(HaveOccurred())

		vaultDir = filepath.Join(tmpDir, "vault")
		configDir = filepath.Join(tmpDir, "state")
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	seedVault := func() {
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
	}

	runShow := func(args ...string) error {
		root := arborcmder.NewArborCmd()
		root.SetArgs(append([]string{
			"show",
			"--vault", vaultDir,
			"--config-dir", configDir,
		}, args...))
		return root.Execute()
	}

	It("rejects a non-numeric node id", func() {
		seedVault()
		err := runShow("not-a-number")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("invalid node id"))
	})

	It("errors on a node that does not exist", func() {
		seedVault()
		Expect(runShow("9999")).To(HaveOccurred())
	})

	It("prints a node raw", func() {
		seedVault()
		Expect(runShow("1", "--raw")).To(Succeed())
	})

	It("renders a node for the terminal", func() {
		seedVault()
		Expect(runShow("1")).To(Succeed())
	})
})
