package api

import (
	"context"

	"github.com/vytor/studyflash/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	FlashcardService   services.FlashcardService
	StudyService       services.StudyService
	DB                 Pinger
	CORSAllowedOrigins []string
}
