package db

import (
	"errors"
	"fmt"

	dbpkg "github.com/dtnitsch/contact-scout/pkg/db"
	"github.com/urfave/cli/v2"
)

// GetRunIDOrLatest returns the run ID from args, or the latest run if not provided
func GetRunIDOrLatest(c *cli.Context, database *dbpkg.DB) (string, error) {
	if c.NArg() > 0 {
		return c.Args().First(), nil
	}

	runID, err := database.LatestRunID()
	if errors.Is(err, dbpkg.ErrRunNotFound) {
		return "", fmt.Errorf("no runs found. Run 'contact-scout run --db %s \"<query>\"' first", database.Path())
	}
	if err != nil {
		return "", err
	}
	return runID, nil
}

func openFromFlag(c *cli.Context) (*dbpkg.DB, error) {
	database, err := dbpkg.Open(c.String("db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}
