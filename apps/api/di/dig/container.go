package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/placement/apps/api/echo"
	"github.com/trezcool/placement/core"
	"github.com/trezcool/placement/core/enrollment"
	logsvc "github.com/trezcool/placement/services/logger"
	"github.com/trezcool/placement/storage/database"
	inmemdb "github.com/trezcool/placement/storage/database/inmem"
	sqlxrepos "github.com/trezcool/placement/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// DBCloser releases the database behind the repository.
type DBCloser func() error

type serverParams struct {
	dig.In
	Service    *enrollment.Service
	Selections *echoapi.SelectionStore
	Translator ut.Translator
	Logger     core.Logger
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

// newRepository sets up the configured storage engine.
func newRepository(conf *core.Config, loggerParam DBLoggerParam) (enrollment.Repository, DBCloser) {
	if conf.Database.Engine == database.EngineMemory {
		loggerParam.Logger.Warn("using the in-memory database, nothing will be persisted")
		return inmemdb.NewEnrollmentRepository(inmemdb.Open()), func() error { return nil }
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	if err = database.Migrate(context.Background(), db); err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}
	return sqlxrepos.NewEnrollmentRepository(db), db.Close
}

func newValidator() *validator.Validate {
	return validator.New()
}

func newSelectionStore(conf *core.Config) *echoapi.SelectionStore {
	return echoapi.NewSelectionStore(conf.Selection.TTL)
}

func newServer(conf *core.Config, p serverParams) *echoapi.Server {
	return echoapi.NewServer(conf, &echoapi.ServerDeps{
		Service:    p.Service,
		Selections: p.Selections,
		Translator: p.Translator,
		Logger:     p.Logger,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepository))
	must(c.Provide(newValidator))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(enrollment.NewService))
	must(c.Provide(newSelectionStore))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
