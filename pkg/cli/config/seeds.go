package config

import (
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"

	"github.com/taskbridge-dev/taskbridge/pkg/domain/model"
	"github.com/taskbridge-dev/taskbridge/pkg/domain/types"
)

// Seeds holds CLI flags for preset mapping bootstrap
type Seeds struct {
	path string
}

// Flags returns CLI flags for seed mapping configuration
func (s *Seeds) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "seed-mappings",
			Usage:       "TOML file with preset username and thread mappings (empty: none)",
			Sources:     cli.EnvVars("TASKBRIDGE_SEED_MAPPINGS"),
			Destination: &s.path,
		},
	}
}

// seedFile is the TOML shape of a seed mapping file:
//
//	[usernames]
//	"jdoe" = "42"       # messenger username -> portal user ID
//
//	[threads]
//	"C0123:167.89" = "7" # thread ID -> portal department ID
type seedFile struct {
	Usernames map[string]string `toml:"usernames"`
	Threads   map[string]string `toml:"threads"`
}

// Configure loads the seed file into mapping entries. Entries carry the
// file's modification time, so a stale seed file never overrides
// fresher entries already in the store.
func (s *Seeds) Configure() (usernameEntries, threadEntries []*model.MappingEntry, err error) {
	if s.path == "" {
		return nil, nil, nil
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to read seed mappings file", goerr.V("path", s.path))
	}
	info, err := os.Stat(s.path)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to stat seed mappings file", goerr.V("path", s.path))
	}
	seededAt := info.ModTime().UTC()

	var file seedFile
	if err := toml.Unmarshal(raw, &file); err != nil {
		return nil, nil, goerr.Wrap(err, "failed to parse seed mappings file", goerr.V("path", s.path))
	}

	for username, userID := range file.Usernames {
		usernameEntries = append(usernameEntries, &model.MappingEntry{
			Key:       strings.ToLower(strings.TrimPrefix(username, "@")),
			Value:     userID,
			Source:    types.SourceSynced,
			UpdatedAt: seededAt,
		})
	}
	for thread, departmentID := range file.Threads {
		threadEntries = append(threadEntries, &model.MappingEntry{
			Key:       thread,
			Value:     departmentID,
			Source:    types.SourceSynced,
			UpdatedAt: seededAt,
		})
	}

	return usernameEntries, threadEntries, nil
}
