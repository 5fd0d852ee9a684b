package studio

import (
	"github.com/livetechno/livetechno/pkg/config"
	"github.com/livetechno/livetechno/pkg/converter"
	"github.com/livetechno/livetechno/pkg/store"
)

// Open creates a Service backed by cfg.DataDir. Close the returned
// activity log when done.
func Open(cfg config.Config) (*Service, *store.ActivityLog, error) {
	overlap, err := converter.ParseOverlapPolicy(cfg.Overlap)
	if err != nil {
		return nil, nil, err
	}

	projects, err := store.NewProjectStore(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	activity, err := store.OpenActivityLog(cfg.DatabasePath(store.DatabaseFile))
	if err != nil {
		return nil, nil, err
	}

	svc := New(projects, activity, Options{
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
		APIKey:  cfg.OpenAIKey,
		Export:  converter.Options{Overlap: overlap},
	})
	return svc, activity, nil
}
