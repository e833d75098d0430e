package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"personify/internal/config"
	"personify/internal/persona"
	"personify/internal/store"
	"personify/internal/util/jsonutil"
)

func newGenerateCmd() *cobra.Command {
	var (
		website  string
		industry string
		company  string
		outPath  string
		offline  bool
		archive  bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one validated buyer persona",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			site, err := normalizeWebsite(website)
			if err != nil {
				return err
			}
			cfg := config.Load()
			gen, _, cleanup, err := buildGenerator(ctx, cfg, nil, log, offline)
			if err != nil {
				return err
			}
			defer cleanup()

			artifact, err := gen.Generate(ctx, persona.Request{
				Website:             site,
				Industry:            industry,
				VerifiedCompanyName: company,
			})
			if err != nil {
				return err
			}

			if archive && cfg.ArtifactConfigured() {
				archiveStore, err := store.NewArtifactStore(store.ArtifactConfig{
					Endpoint:  cfg.ArtifactEndpoint,
					Region:    cfg.ArtifactRegion,
					AccessKey: cfg.ArtifactAccessKey,
					SecretKey: cfg.ArtifactSecretKey,
					Bucket:    cfg.ArtifactBucket,
					UseSSL:    cfg.ArtifactUseSSL,
				})
				if err != nil {
					log.Warn("archive store unavailable", zap.Error(err))
				} else if id, ok := artifact["request_id"].(string); ok {
					if err := archiveStore.PutPersona(ctx, id, artifact); err != nil {
						log.Warn("could not archive persona", zap.Error(err))
					}
				}
			}

			raw, err := jsonutil.MarshalNoEscapeIndent(artifact, "", "  ")
			if err != nil {
				return err
			}
			if outPath != "" {
				return os.WriteFile(outPath, raw, 0o644)
			}
			fmt.Println(string(raw))
			return nil
		},
	}

	cmd.Flags().StringVar(&website, "website", "", "target company website (required)")
	cmd.Flags().StringVar(&industry, "industry", "", "industry hint for market validation")
	cmd.Flags().StringVar(&company, "company", "", "verified company name, if known")
	cmd.Flags().StringVar(&outPath, "out", "", "write the persona JSON to a file instead of stdout")
	cmd.Flags().BoolVar(&offline, "offline", false, "run against local fakes, no API keys needed")
	cmd.Flags().BoolVar(&archive, "archive", false, "archive the persona to S3 storage when configured")
	_ = cmd.MarkFlagRequired("website")
	return cmd
}
