package searchcmder_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	arborcmder "github.com/arborhq/arbor/cmd/arbor"
	searchcmder "github.com/arborhq/arbor/cmd/arbor/search"
)

var _ = Describe("NewSearchCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := searchcmder.NewSearchCmd()
		Expect(cmd.Use).To(Equal("search <query>"))
	})

	It("requires exactly one argument", func() {
		cmd := searchcmder.NewSearchCmd()
		Expect(cmd.Args(cmd, []string{})).To(HaveOccurred())
		Expect(cmd.Args(cmd, []string{"query"})).NotTo(HaveOccurred())
		Expect(cmd.Args(cmd, []string{"query", "extra"})).To(HaveOccurred())
	})

	It("has the expected flags", func() {
		cmd := searchcmder.NewSearchCmd()

		limitFlag := cmd.Flags().Lookup("limit")
		Expect(limitFlag).NotTo(BeNil())
		Expect(limitFlag.Shorthand).To(Equal("k"))

		modeFlag := cmd.Flags().Lookup("mode")
		Expect(modeFlag).NotTo(BeNil())
		Expect(modeFlag.DefValue).To(Equal("hybrid"))

		quietFlag := cmd.Flags().Lookup("quiet")
		Expect(quietFlag).NotTo(BeNil())
		Expect(quietFlag.Shorthand).To(Equal("q"))

		Expect(cmd.Flags().Lookup("vault")).NotTo(BeNil())
	})
})

var _ = Describe("Search command execution", func() {
	var (
		tmpDir    string
		vaultDir  string
		configDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "arbor-search-test-*")
		Expect(err).NotTo(HaveOccurred())

		vaultDir = filepath.Join(tmpDir, "vault")
		configDir = filepath.Join(tmpDir, "state")

		// Keep the sqlite vector db inside the temp dir.
		Expect(os.MkdirAll(configDir, 0o755)).To(Succeed())
		dbPath := filepath.Join(tmpDir, "arbor.db")
		err = os.WriteFile(filepath.Join(configDir, "config.toml"),
			[]byte("[vector_store]\ndb_path = \""+dbPath+"\"\n"), 0o600)
		Expect(err).NotTo(HaveOccurred())

		// Seed the vault through the ingest loop.
		transcript := filepath.Join(tmpDir, "transcript.txt")
		err = os.WriteFile(transcript, []byte(
			"the garden needs watering before the weekend heat arrives\n"+
				"tomatoes in the east bed are showing early blight on the lower leaves\n",
		), 0o600)
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
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	runSearch := func(args ...string) error {
		root := arborcmder.NewArborCmd()
		root.SetArgs(append([]string{
			"search",
			"--vault", vaultDir,
			"--config-dir", configDir,
		}, args...))
		return root.Execute()
	}

	It("ranks nodes on the bm25 channel", func() {
		Expect(runSearch("tomatoes blight", "--mode", "bm25")).To(Succeed())
	})

	It("ranks nodes on the tfidf channel", func() {
		Expect(runSearch("watering the garden", "--mode", "tfidf")).To(Succeed())
	})

	It("runs hybrid mode without a reachable vector store", func() {
		// sqlite driver opens a local db file; hybrid works offline.
		Expect(runSearch("garden watering", "--mode", "hybrid")).To(Succeed())
	})

	It("rejects unknown ranking modes", func() {
		err := runSearch("garden", "--mode", "cosine")
		Expect(err).To(HaveOccurred())
	})

	It("supports quiet output", func() {
		Expect(runSearch("garden", "--mode", "bm25", "--quiet")).To(Succeed())
	})
})
