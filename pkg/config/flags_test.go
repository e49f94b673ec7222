package config_test

import (
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/engramlabs/engram/pkg/config"
)

var _ = Describe("Flag registry", func() {
	var (
		cmd *cobra.Command
		fs  config.FlagSet
	)

	BeforeEach(func() {
		cmd = &cobra.Command{Use: "test"}
		fs = config.FlagSet{
			config.FlagShortTermWindow: {
				Name:        "short-term-window",
				ViperKey:    "memory.short_term_window",
				Description: "Number of recent messages echoed into the prompt",
			},
			config.FlagSummarizeEvery: {
				Name:        "summarize-every",
				ViperKey:    "memory.summarize_every",
				Description: "Create a session summary every Nth user turn",
			},
			config.FlagEmbeddingDims: {
				Name:        "embedding-dimensions",
				ViperKey:    "embedding.dimensions",
				Description: "Embedding vector width",
			},
		}
	})

	Describe("AddIntFlag", func() {
		It("registers the flag with the config default", func() {
			var window int
			config.AddIntFlag(cmd, fs, config.FlagShortTermWindow, &window)

			flag := cmd.Flags().Lookup("short-term-window")
			Expect(flag).NotTo(BeNil())
			Expect(flag.DefValue).To(Equal(strconv.Itoa(config.NewDefaultConfig().Memory.ShortTermWindow)))
		})

		It("ignores registry keys absent from the flag set", func() {
			var k int
			config.AddIntFlag(cmd, fs, config.FlagEpisodeTopK, &k)
			Expect(cmd.Flags().Lookup("episode-top-k")).To(BeNil())
		})
	})

	Describe("AddUintFlag", func() {
		It("registers the flag with the config default", func() {
			var dims uint
			config.AddUintFlag(cmd, fs, config.FlagEmbeddingDims, &dims)

			flag := cmd.Flags().Lookup("embedding-dimensions")
			Expect(flag).NotTo(BeNil())
			Expect(flag.DefValue).To(Equal(strconv.FormatUint(uint64(config.NewDefaultConfig().Embedding.Dimensions), 10)))
		})
	})

	Describe("BindRegisteredFlags", func() {
		It("lets a set flag override the config default through viper", func() {
			var window, every int
			config.AddIntFlag(cmd, fs, config.FlagShortTermWindow, &window)
			config.AddIntFlag(cmd, fs, config.FlagSummarizeEvery, &every)
			Expect(cmd.Flags().Set("short-term-window", "12")).To(Succeed())

			v, err := config.InitViper(GinkgoT().TempDir())
			Expect(err).NotTo(HaveOccurred())
			config.BindRegisteredFlags(v, cmd, fs, []string{
				config.FlagShortTermWindow,
				config.FlagSummarizeEvery,
			})

			cfg, err := config.FromViper(v)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Memory.ShortTermWindow).To(Equal(12))
			Expect(cfg.Memory.SummarizeEvery).To(Equal(config.NewDefaultConfig().Memory.SummarizeEvery))
		})
	})
})
