package services

import (
	"github.com/opsdesk/opsdesk/config"
	"github.com/opsdesk/opsdesk/interfaces"
	"github.com/opsdesk/opsdesk/internal/logger"
	"github.com/opsdesk/opsdesk/internal/repository"
	"github.com/opsdesk/opsdesk/services/ai"
	"github.com/opsdesk/opsdesk/services/imapclient"
	"github.com/opsdesk/opsdesk/services/ingest"
	"github.com/opsdesk/opsdesk/services/summarizer"
)

type Services struct {
	AIService         interfaces.AIService
	IngestService     *ingest.Service
	SummarizerService *summarizer.Service
}

func InitServices(cfg *config.AppConfig, log logger.Logger, repos *repository.Repositories) *Services {
	aiService := ai.NewOllamaService(repos.APIKeyRepository)
	return &Services{
		AIService:         aiService,
		SummarizerService: summarizer.NewService(repos, aiService, log),
		IngestService: ingest.NewService(repos, log, ingest.Options{
			NewMailbox: func() interfaces.MailboxClient {
				return imapclient.NewClient(log)
			},
			PageSize: cfg.IngestPageSize,
		}),
	}
}
