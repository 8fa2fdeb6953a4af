package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"qsar-llm-backend/internal/client"
	"qsar-llm-backend/internal/models"
)

const (
	demoCAS   = "1071-83-6" // glyphosate
	demoQuery = "Proporciona un análisis regulatorio del glifosato CAS 1071-83-6"
)

func (c *cli) demoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Walk through every endpoint with glyphosate as the example substance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := c.client()
			if err != nil {
				return err
			}
			return runDemo(cmd.Context(), api, cmd.OutOrStdout())
		},
	}
}

// runDemo only fails when the backend itself is down; toolbox, PubChem and
// model failures are reported and the walkthrough continues.
func runDemo(ctx context.Context, api *client.Client, out io.Writer) error {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(out, "%s\nQSAR LLM API walkthrough\n%s\n", rule, rule)

	fmt.Fprintln(out, "\n1. Checking server status...")
	status, err := api.Status(ctx)
	if err != nil {
		fmt.Fprintf(out, "   ✗ %v\n", err)
		return err
	}
	fmt.Fprintln(out, "   ✓ Backend: online")
	fmt.Fprintf(out, "   ✓ QSAR Toolbox connected: %t\n", status.ToolboxConnected)
	if !status.ToolboxConnected && status.ToolboxError != "" {
		fmt.Fprintf(out, "   ℹ %s\n", status.ToolboxError)
	}

	fmt.Fprintln(out, "\n2. Checking QSAR Toolbox health...")
	if health, err := api.ToolboxHealth(ctx); err != nil {
		fmt.Fprintf(out, "   ⚠ health check unavailable: %v\n", err)
	} else {
		fmt.Fprintf(out, "   Status: %s\n", health.Status)
		if health.Checks.Connectivity {
			fmt.Fprintln(out, "   ✓ Connectivity OK")
		}
		if health.Checks.Version != "" {
			fmt.Fprintf(out, "   ✓ Version: %s\n", health.Checks.Version)
		}
		if health.Checks.Profilers {
			fmt.Fprintln(out, "   ✓ Profilers available")
		}
		if health.Checks.Substances {
			fmt.Fprintln(out, "   ✓ Substance search available")
		}
	}

	fmt.Fprintln(out, "\n3. PubChem lookup...")
	if pc, err := api.PubChem(ctx, demoCAS); err != nil {
		fmt.Fprintf(out, "   ⚠ %v\n", err)
	} else {
		fmt.Fprintf(out, "   ✓ Found: %s\n     Formula: %s\n     MW: %s\n", pc.IUPAC, pc.Formula, pc.MW)
	}

	fmt.Fprintln(out, "\n4. Searching QSAR Toolbox...")
	if _, err := api.SearchSubstance(ctx, demoCAS); err != nil {
		fmt.Fprintln(out, "   ℹ not found or toolbox unavailable")
	} else {
		fmt.Fprintln(out, "   ✓ Found in toolbox")
	}

	fmt.Fprintln(out, "\n5. Running structural profiling...")
	if raw, err := api.RunProfiling(ctx, demoCAS); err != nil {
		fmt.Fprintln(out, "   ℹ profiling unavailable (toolbox not connected)")
	} else {
		fmt.Fprintln(out, "   ✓ Profiling completed")
		var body struct {
			Alerts []json.RawMessage `json:"alerts"`
		}
		if json.Unmarshal(raw, &body) == nil && len(body.Alerts) > 0 {
			fmt.Fprintf(out, "     Found %d alerts\n", len(body.Alerts))
		}
	}

	fmt.Fprintln(out, "\n6. Running chat analysis...")
	fmt.Fprintf(out, "   Query: %q\n", demoQuery)
	resp, err := api.Chat(ctx, models.ChatRequest{Query: demoQuery, Language: "es"})
	if err != nil {
		fmt.Fprintf(out, "   ✗ %v\n", err)
	} else {
		preview := []rune(resp.Message)
		if len(preview) > 300 {
			preview = preview[:300]
		}
		fmt.Fprintf(out, "\n   %s...\n", strings.ReplaceAll(string(preview), "\n", "\n   "))
		fmt.Fprintf(out, "\n   Connected to toolbox: %t\n", resp.ToolboxConnected)
	}

	fmt.Fprintf(out, "\n%s\nWalkthrough completed\n%s\n", rule, rule)
	return nil
}
