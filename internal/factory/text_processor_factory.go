package factory

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/invoice-printer/internal/config"
	"github.com/mikey/invoice-printer/internal/utils"
)

// TextProcessorFactory creates the text processor used for logging and
// spool file naming
type TextProcessorFactory struct {
	config *config.Config
	logger *zap.Logger
}

// NewTextProcessorFactory creates a new TextProcessorFactory
func NewTextProcessorFactory(cfg *config.Config, logger *zap.Logger) *TextProcessorFactory {
	return &TextProcessorFactory{
		config: cfg,
		logger: logger,
	}
}

// CreateTextProcessor creates a TextProcessor for printer.spool_timezone
func (f *TextProcessorFactory) CreateTextProcessor() (*utils.TextProcessor, error) {
	tp := utils.NewTextProcessor(f.logger)

	name := f.config.GetString("printer.spool_timezone")
	if name == "" || name == "UTC" {
		return tp, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid printer.spool_timezone %q: %w", name, err)
	}
	f.logger.Debug("Naming spool files in local time", zap.String("timezone", name))
	return tp.InLocation(loc), nil
}
