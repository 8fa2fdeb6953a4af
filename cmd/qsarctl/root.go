package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"qsar-llm-backend/internal/client"
)

const defaultServerURL = "http://localhost:5000"

// cli carries the settings shared by every subcommand.
type cli struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}
	c.v.SetEnvPrefix("QSARCTL")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()
	c.v.SetDefault("url", defaultServerURL)
	// the server's own secret is accepted so tokens can be minted on the host
	_ = c.v.BindEnv("secret", "QSARCTL_SECRET", "JWT_SECRET")

	root := &cobra.Command{
		Use:           "qsarctl",
		Short:         "Command line client for the QSAR LLM backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().String("url", defaultServerURL, "backend base URL (env QSARCTL_URL)")
	root.PersistentFlags().String("token", "", "bearer token (env QSARCTL_TOKEN)")
	root.PersistentFlags().StringP("output", "o", "json", "output format: json or yaml (env QSARCTL_OUTPUT)")
	_ = c.v.BindPFlag("url", root.PersistentFlags().Lookup("url"))
	_ = c.v.BindPFlag("token", root.PersistentFlags().Lookup("token"))
	_ = c.v.BindPFlag("output", root.PersistentFlags().Lookup("output"))

	root.AddCommand(
		c.statusCmd(),
		c.healthCmd(),
		c.chatCmd(),
		c.searchCmd(),
		c.profileCmd(),
		c.categoryCmd(),
		c.pubchemCmd(),
		c.tokenCmd(),
		c.demoCmd(),
	)
	return root
}

func (c *cli) client() (*client.Client, error) {
	api, err := client.NewClient(c.v.GetString("url"), nil)
	if err != nil {
		return nil, err
	}
	api.SetToken(c.v.GetString("token"))
	return api, nil
}

// print renders v in the selected output format. YAML output keeps the
// JSON field names of the API.
func (c *cli) print(w io.Writer, v interface{}) error {
	switch format := strings.ToLower(c.v.GetString("output")); format {
	case "", "json":
		return printJSON(w, v)
	case "yaml", "yml":
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return printYAML(w, data)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// printRaw prints an upstream JSON document as it came.
func (c *cli) printRaw(w io.Writer, raw json.RawMessage) error {
	if !json.Valid(raw) {
		_, err := fmt.Fprintln(w, string(raw))
		return err
	}
	return c.print(w, raw)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printYAML(w io.Writer, data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}
