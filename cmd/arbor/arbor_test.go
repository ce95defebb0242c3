package arborcmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	arborcmder "github.com/arborhq/arbor/cmd/arbor"
)

var _ = Describe("NewArborCmd", func() {
	It("creates the root command", func() {
		cmd := arborcmder.NewArborCmd()
		Expect(cmd.Use).To(Equal("arbor"))
	})

	It("registers the expected subcommands", func() {
		cmd := arborcmder.NewArborCmd()
		names := make([]string, 0, len(cmd.Commands()))
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements(
			"init", "ingest", "search", "recent", "show", "rm", "sync", "config", "version",
		))
	})

	It("has the persistent flags", func() {
		cmd := arborcmder.NewArborCmd()

		debugFlag := cmd.PersistentFlags().Lookup("debug")
		Expect(debugFlag).NotTo(BeNil())
		Expect(debugFlag.Shorthand).To(Equal("d"))

		Expect(cmd.PersistentFlags().Lookup("config-dir")).NotTo(BeNil())
	})
})
