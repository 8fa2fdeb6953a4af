package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"qsar-llm-backend/internal/middleware"
	"qsar-llm-backend/internal/models"
)

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show backend status and toolbox connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}
			status, err := api.Status(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), status)
		},
	}
}

func (c *cli) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Run the QSAR Toolbox health checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}
			health, err := api.ToolboxHealth(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), health)
		},
	}
}

func (c *cli) chatCmd() *cobra.Command {
	var (
		model, language, name string
		profiling, readAcross bool
		noMutagen, noAquatic  bool
		asJSON                bool
	)

	cmd := &cobra.Command{
		Use:   "chat <query>",
		Short: "Ask for a regulatory analysis of a substance",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}

			req := models.ChatRequest{
				Query:        strings.Join(args, " "),
				Model:        model,
				Language:     language,
				MoleculeName: name,
			}
			if cmd.Flags().Changed("profiling") {
				req.Options.Profiling = &profiling
			}
			if cmd.Flags().Changed("read-across") {
				req.Options.ReadAcross = &readAcross
			}
			if noMutagen {
				off := false
				req.Options.Mutagen = &off
			}
			if noAquatic {
				off := false
				req.Options.Aquatic = &off
			}

			resp, err := api.Chat(cmd.Context(), req)
			if err != nil {
				return err
			}
			if asJSON {
				return c.print(cmd.OutOrStdout(), resp)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, resp.Message)
			if card := resp.Data; card != nil {
				fmt.Fprintf(out, "\n%s (CAS %s)  %s  %s  logKow %s\n",
					card.Molecule.Name, card.Molecule.CAS, card.Molecule.Formula, card.Molecule.MW, card.Molecule.LogKow)
				for _, a := range card.Alerts {
					fmt.Fprintf(out, "  [%s] %s\n", a.Level, a.Text)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "model name, server default when empty")
	cmd.Flags().StringVar(&language, "lang", "es", "answer language: es, en or pt")
	cmd.Flags().StringVar(&name, "name", "", "molecule name for the summary card")
	cmd.Flags().BoolVar(&profiling, "profiling", false, "run structural profiling")
	cmd.Flags().BoolVar(&readAcross, "read-across", false, "build a read-across category")
	cmd.Flags().BoolVar(&noMutagen, "no-mutagen", false, "skip the mutagenicity profiler")
	cmd.Flags().BoolVar(&noAquatic, "no-aquatic", false, "skip the aquatic toxicity profiler")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw response")
	return cmd
}

func (c *cli) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <cas-or-name>",
		Short: "Search a substance in the QSAR Toolbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}
			raw, err := api.SearchSubstance(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.printRaw(cmd.OutOrStdout(), raw)
		},
	}
}

func (c *cli) profileCmd() *cobra.Command {
	var profilers []string

	cmd := &cobra.Command{
		Use:   "profile <cas>",
		Short: "Run structural profilers on a substance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}
			raw, err := api.RunProfiling(cmd.Context(), args[0], profilers...)
			if err != nil {
				return err
			}
			return c.printRaw(cmd.OutOrStdout(), raw)
		},
	}
	cmd.Flags().StringSliceVar(&profilers, "profilers", nil, "profilers to run, all when empty")
	return cmd
}

func (c *cli) categoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "category <cas>",
		Short: "Build a read-across category around a substance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}
			raw, err := api.BuildCategory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.printRaw(cmd.OutOrStdout(), raw)
		},
	}
}

func (c *cli) pubchemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pubchem <cas-or-name>",
		Short: "Look up compound properties in PubChem",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}
			data, err := api.PubChem(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return c.print(cmd.OutOrStdout(), data)
		},
	}
}

func (c *cli) tokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token signed with the server secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := c.v.GetString("secret")
			if secret == "" {
				return errors.New("no signing secret: set QSARCTL_SECRET or JWT_SECRET")
			}
			token, err := middleware.NewJWTAuth(secret).GenerateToken(subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "qsarctl", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
