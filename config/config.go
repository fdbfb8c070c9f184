package config

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"

	"github.com/linesmerrill/police-records-api/models"
)

// Config holds the project config values
type Config struct {
	URL               string        `env:"DB_URI" envDefault:"mongodb://127.0.0.1:27017"`
	DatabaseName      string        `env:"DB_NAME" envDefault:"police-records"`
	BaseURL           string        `env:"BASE_URL"`
	Port              string        `env:"PORT" envDefault:"8080"`
	Environment       string        `env:"ENVIRONMENT" envDefault:"production"`
	Store             string        `env:"STORE" envDefault:"mongo"`
	JWTSecret         string        `env:"JWT_SECRET"`
	CaseNumberPrefix  string        `env:"CASE_NUMBER_PREFIX" envDefault:"CASE"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	BoloSweepSchedule string        `env:"BOLO_SWEEP_SCHEDULE" envDefault:"*/5 * * * *"`
}

// New sets up all config related services
func New() *Config {
	conf := &Config{}
	parseErr := env.Parse(conf)

	//setup zap logger and replace default logger
	logger, err := setLogger(conf.Environment)
	if err != nil {
		logger = zap.NewExample()
	}
	_ = zap.ReplaceGlobals(logger)

	if parseErr != nil {
		zap.S().Warnw("failed to parse environment, using defaults where unset", "error", parseErr)
	}
	return conf
}

func setLogger(environment string) (*zap.Logger, error) {
	switch environment {
	case "development":
		return zap.NewDevelopment()
	case "local":
		return zap.NewExample(), nil
	default:
		return zap.NewProduction()
	}
}

type codedError interface {
	ErrorKind() string
	ErrorCode() string
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	resp := models.ErrorMessageResponse{Response: models.MessageError{Message: message}}
	if err != nil {
		resp.Response.Error = err.Error()
	}
	var ce codedError
	if errors.As(err, &ce) {
		resp.Response.Kind = ce.ErrorKind()
		resp.Response.Code = ce.ErrorCode()
	}

	if httpStatusCode >= http.StatusInternalServerError {
		zap.S().With("error", err).Error(message)
	} else {
		zap.S().With("error", err).Debug(message)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	b, _ := json.Marshal(resp)
	w.Write(b)
}
