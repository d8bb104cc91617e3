package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/enrollment"
	logsvc "github.com/trezcool/placement/services/logger"
	"github.com/trezcool/placement/storage/database"
	sqlxrepos "github.com/trezcool/placement/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()
	svcLogger := logsvc.NewRollbarLogger(logger, conf)
	svcLogger.Enable(!conf.Debug)

	// set up DB
	if conf.Database.Engine == database.EngineMemory {
		logger.Fatal("the admin CLI needs a persistent database engine")
	}
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()

	// set up services
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	enrollment.InitValidators(validate, translator)
	svc := enrollment.NewService(sqlxrepos.NewEnrollmentRepository(db), validate, svcLogger, conf)

	// start CLI
	cli := newCommandLine(db, svc)
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
