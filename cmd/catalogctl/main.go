// Command catalogctl validates catalog seed files and imports them into the
// SQL catalog tables.
//
//	catalogctl validate -f catalog.yaml
//	catalogctl import -f catalog.yaml -driver postgres -dsn postgres://...
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mind-engage/mockprep/internal/catalog"
	"github.com/mind-engage/mockprep/internal/config"
	"github.com/mind-engage/mockprep/internal/db"
	"github.com/mind-engage/mockprep/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cfg, _ := config.Load(".env")
	log := logging.NewLogger("catalogctl", cfg.LogLevel)

	fs := flag.NewFlagSet(os.Args[1], flag.ExitOnError)
	file := fs.String("f", cfg.CatalogPath, "seed file (.yaml, .yml or .json); empty = built-in sample")
	driver := fs.String("driver", cfg.DBDriver, "sqlite|postgres|mysql")
	dsn := fs.String("dsn", cfg.DBDSN, "database DSN")
	_ = fs.Parse(os.Args[2:])

	seed, err := readSeed(*file)
	if err != nil {
		log.WithError(err).Fatal("invalid catalog")
	}

	switch os.Args[1] {
	case "validate":
		fmt.Printf("ok: %d tags, %d groups, %d questions, %d tests\n",
			len(seed.Tags), len(seed.Groups), len(seed.Questions), len(seed.Tests))
	case "import":
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		dbh, err := db.Open(ctx, db.Driver(*driver), *dsn)
		if err != nil {
			log.WithError(err).Fatal("db open failed")
		}
		defer dbh.Close()
		if err := catalog.NewSQLStore(dbh, db.Driver(*driver)).Import(ctx, seed); err != nil {
			log.WithError(err).Fatal("import failed")
		}
		log.WithField("tests", len(seed.Tests)).WithField("questions", len(seed.Questions)).Info("catalog imported")
	default:
		usage()
		os.Exit(2)
	}
}

func readSeed(path string) (catalog.Seed, error) {
	if path == "" {
		return catalog.Sample(), nil
	}
	return catalog.LoadFile(path)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: catalogctl validate|import [-f file] [-driver d] [-dsn dsn]")
}
