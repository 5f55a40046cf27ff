package config

import (
	"github.com/opsdesk/opsdesk/internal/logger"
	"github.com/opsdesk/opsdesk/internal/tracing"
)

// MasterKeyEnvVar is the environment variable through which the master key
// reaches job child processes. It is set on the child's environment only;
// the key never appears in command-line arguments or logs.
const MasterKeyEnvVar = "OPSDESK_MASTER_KEY"

type AppConfig struct {
	APIPort      string `env:"PORT" envDefault:"5003"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"tickets.db"`

	// JobTimeoutSeconds is the hard wall-clock bound on a job child process.
	JobTimeoutSeconds int `env:"JOB_TIMEOUT_SECONDS" envDefault:"300"`
	// ArmGraceSeconds delays the first fire of every job after arming so
	// timers do not race the unlock transaction.
	ArmGraceSeconds int `env:"SCHEDULER_ARM_GRACE_SECONDS" envDefault:"10"`
	// IngestPageSize bounds how many unseen messages one mail run fetches.
	IngestPageSize int `env:"INGEST_PAGE_SIZE" envDefault:"10"`
}

// SetupConfig feeds the init command: the credentials written into the
// api_keys table. Interactive prompting is deliberately not part of this
// binary; values arrive through the environment.
type SetupConfig struct {
	IMAPServer     string `env:"IMAP_SERVER"`
	IMAPUser       string `env:"IMAP_USER"`
	IMAPPassword   string `env:"IMAP_PASSWORD"`
	OllamaEndpoint string `env:"OLLAMA_ENDPOINT" envDefault:"http://localhost:11434"`
}

type Config struct {
	AppConfig   *AppConfig
	SetupConfig *SetupConfig
	Logger      *logger.Config
	Tracing     *tracing.JaegerConfig
}
