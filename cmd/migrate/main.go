package main

import (
	"context"
	"database/sql"

	"github.com/graeme-hill/calcstuff-go/store"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	// logger instance
	log = logrus.New()
)

func main() {
	driver := kingpin.Flag("driver", "Database driver: sqlite3, postgres.").Default("postgres").Enum("sqlite3", "postgres")
	dsn := kingpin.Flag("dsn", "Database connection string.").Default("dbname=calc").String()
	down := kingpin.Flag("down", "Revert the most recent migration instead of applying.").Bool()
	kingpin.Parse()

	ctx := context.Background()
	dialect, err := store.ParseDialect(*driver)
	if err != nil {
		kingpin.FatalUsage(err.Error())
	}

	db, err := sql.Open(string(dialect), *dsn)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	if *down {
		name, err := store.RevertLastMigration(ctx, db, dialect)
		if err != nil {
			log.WithError(err).Fatal("failed to revert migration")
		}
		log.WithField("migration", name).Info("reverted")
		return
	}

	applied, err := store.RunMigrations(ctx, db, dialect)
	if err != nil {
		log.WithError(err).Fatal("failed to apply migrations")
	}
	log.WithField("applied", applied).Info("migrations up to date")
}
