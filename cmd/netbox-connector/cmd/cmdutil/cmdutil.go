// Package cmdutil holds flag sets and helpers shared by the connector's commands.
package cmdutil

import (
	"github.com/spf13/pflag"

	"github.com/agentstation/netbox-connector/pkg/errors"
	"github.com/agentstation/netbox-connector/pkg/inventory"
)

// Connection holds the flags that override the configured connection settings.
type Connection struct {
	URL       string
	Token     string
	VerifySSL string
	CABundle  string
	Timeout   string
}

// Register adds the connection flags to fs.
func (c *Connection) Register(fs *pflag.FlagSet) {
	fs.StringVar(&c.URL, "url", "", "NetBox API base URL, e.g. https://netbox.example.com/api/ (env NETBOX_URL)")
	fs.StringVar(&c.Token, "token", "", "NetBox API token (env NETBOX_TOKEN)")
	fs.StringVar(&c.VerifySSL, "verify-ssl", "", "verify TLS certificates: true/false (default true)")
	fs.StringVar(&c.CABundle, "ca-bundle", "", "PEM trust bundle used to verify the server")
	fs.StringVar(&c.Timeout, "timeout", "", "per-request timeout in seconds (default 60)")
}

// Resolve overlays the flags on defaults.
func (c Connection) Resolve(defaults inventory.Stanza) inventory.Stanza {
	return inventory.Stanza{
		NetBoxURL: c.URL,
		Token:     c.Token,
		VerifySSL: c.VerifySSL,
		CABundle:  c.CABundle,
		Timeout:   c.Timeout,
	}.WithDefaults(defaults)
}

// SelectStanzas returns the stanzas called names, in the order given, or all
// of them when names is empty. Unknown names and an empty selection are
// *errors.ConfigError.
func SelectStanzas(all []inventory.Stanza, names []string) ([]inventory.Stanza, error) {
	if len(names) == 0 {
		if len(all) == 0 {
			return nil, errors.NewConfigError("config", "jobs", "no jobs configured", nil)
		}
		return all, nil
	}

	byName := make(map[string]inventory.Stanza, len(all))
	for _, s := range all {
		byName[s.Name] = s
	}
	selected := make([]inventory.Stanza, 0, len(names))
	for _, name := range names {
		s, ok := byName[name]
		if !ok {
			return nil, errors.NewConfigError("config", "jobs", "unknown job "+name, nil)
		}
		selected = append(selected, s)
	}
	return selected, nil
}
