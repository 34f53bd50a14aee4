package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// settings are resolved from flags, then NOTESCTL_* env vars, then defaults.
type settings struct {
	v *viper.Viper
}

func (s settings) url() string      { return s.v.GetString("url") }
func (s settings) email() string    { return s.v.GetString("email") }
func (s settings) password() string { return s.v.GetString("password") }

func newRootCmd() *cobra.Command {
	s := settings{v: viper.New()}
	s.v.SetEnvPrefix("notesctl")
	s.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	s.v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "notesctl",
		Short:         "Seed and inspect a note-vault server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.String("url", "http://localhost:8080", "Server base URL")
	pf.String("email", "demo@example.com", "Account e-mail")
	pf.String("password", "Password123", "Account password")
	_ = s.v.BindPFlags(pf)

	root.AddCommand(newSeedCmd(s), newListCmd(s), newTrashCmd(s))
	return root
}

// signedIn returns a client holding a token for the configured account.
func signedIn(cmd *cobra.Command, s settings) (*client, error) {
	c := newClient(s.url())
	if _, err := c.login(cmd.Context(), s.email(), s.password()); err != nil {
		return nil, err
	}
	return c, nil
}
