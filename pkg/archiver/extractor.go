package archiver

import (
	"storypark/internal/downloader"
	"storypark/pkg/logger"
	"storypark/pkg/media"
	"storypark/pkg/storypark"
)

// Extraction is what one story yields: jobs to run plus the entries left out
type Extraction struct {
	Jobs        []downloader.Job
	Existing    int
	Unsupported int
	Invalid     int
}

// Extractor turns stories into download jobs
type Extractor struct {
	namer  media.Namer
	store  ExistenceChecker
	logger logger.Logger
}

// NewExtractor creates an extractor writing under namer's root
func NewExtractor(namer media.Namer, store ExistenceChecker, log logger.Logger) *Extractor {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Extractor{namer: namer, store: store, logger: log}
}

// Extract walks the media of one story in order. Entries with an unknown
// type or content type are skipped with a warning, entries whose target
// already exists are skipped, and everything else becomes a job.
func (e *Extractor) Extract(childID storypark.ID, story storypark.Story) Extraction {
	var out Extraction

	for _, m := range story.Media {
		fields := map[string]interface{}{
			"child_id": string(childID),
			"date":     story.Date,
			"title":    story.Title,
			"position": m.Position,
		}

		if !media.SupportedKind(m.Type) {
			fields["type"] = m.Type
			logger.LogSkipped(e.logger, "unknown media type", fields)
			out.Unsupported++
			continue
		}

		if err := m.Validate(); err != nil {
			e.logger.WithError(err).ErrorWithFields("invalid media entry", fields)
			out.Invalid++
			continue
		}

		path, err := e.namer.Path(story.Date, story.Title, m.Position, m.ContentType)
		if err != nil {
			fields["content_type"] = m.ContentType
			fields["supported"] = media.ContentTypes()
			logger.LogSkipped(e.logger, "unknown content type", fields)
			out.Unsupported++
			continue
		}

		if e.store.Exists(path) {
			e.logger.InfoWithFields("already exists, skipping", map[string]interface{}{
				"path": path,
			})
			out.Existing++
			continue
		}

		out.Jobs = append(out.Jobs, downloader.Job{
			URL:         m.OriginalURL,
			Path:        path,
			ChildID:     string(childID),
			ContentType: m.ContentType,
		})
	}

	return out
}
