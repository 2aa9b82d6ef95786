package config

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/types"
	"github.com/taskbridge-dev/taskbridge/pkg/service/portal"
)

// Portal holds CLI flags for the portal REST API client
type Portal struct {
	domain   string
	apiToken string
}

// Flags returns CLI flags for portal configuration
func (p *Portal) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "portal-domain",
			Usage:       "Portal domain (e.g. example.bitrix24.com)",
			Sources:     cli.EnvVars("TASKBRIDGE_PORTAL_DOMAIN"),
			Destination: &p.domain,
		},
		&cli.StringFlag{
			Name:        "portal-api-token",
			Usage:       "Portal REST API token (outbound; distinct from the inbound webhook token)",
			Sources:     cli.EnvVars("TASKBRIDGE_PORTAL_API_TOKEN"),
			Destination: &p.apiToken,
		},
	}
}

// Domain returns the configured portal domain
func (p *Portal) Domain() string {
	return p.domain
}

// Configure builds the portal API client.
func (p *Portal) Configure() (portal.Service, error) {
	if p.domain == "" {
		return nil, goerr.New("portal-domain is required")
	}
	if p.apiToken == "" {
		return nil, goerr.New("portal-api-token is required")
	}

	svc, err := portal.New(p.domain, types.Secret(p.apiToken))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize portal client")
	}
	return svc, nil
}
