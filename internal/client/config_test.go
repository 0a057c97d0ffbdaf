package client_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/studio-labs/assessor/internal/client"
)

var _ = Describe("client config", func() {
	It("persists and parses a config file", func() {
		filename := filepath.Join(GinkgoT().TempDir(), "nested", "client.yaml")
		Expect(client.WriteConfig(filename, "http://api.example.com", "http://n8n.example.com/webhook/crypto", "alice")).To(Succeed())

		cfg, err := client.ParseConfigFile(filename)
		Expect(err).To(BeNil())
		Expect(cfg.Service.Server).To(Equal("http://api.example.com"))
		Expect(cfg.Webhook.URL).To(Equal("http://n8n.example.com/webhook/crypto"))
		Expect(cfg.User).To(Equal("alice"))
	})

	It("falls back to the defaults when the file is missing", func() {
		cfg, err := client.LoadConfig(filepath.Join(GinkgoT().TempDir(), "missing.yaml"))
		Expect(err).To(BeNil())
		Expect(cfg.Service.Server).To(Equal(client.DefaultServer))
	})

	It("aggregates validation errors", func() {
		filename := filepath.Join(GinkgoT().TempDir(), "client.yaml")
		Expect(os.WriteFile(filename, []byte("service:\n  server: \"\"\nwebhook:\n  url: \"/relative\"\n"), 0600)).To(Succeed())

		_, err := client.ParseConfigFile(filename)
		Expect(err).ToNot(BeNil())
		Expect(err.Error()).To(ContainSubstring("no server found"))
		Expect(err.Error()).To(ContainSubstring("invalid webhook format"))
	})
})
