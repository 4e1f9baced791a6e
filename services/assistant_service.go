package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"mime"
	"net/url"
	"path"
	"remind-lab/contract"
	"remind-lab/domain"
	"remind-lab/domain/mimetypes"
	"remind-lab/errors"
	"remind-lab/observability"
	"remind-lab/repositories"
	"time"

	"github.com/google/uuid"
)

// DefaultSearchLimit caps full-text results when no limit is given.
const DefaultSearchLimit = 50

type IAssistantService interface {
	Ingest(ctx context.Context, request IngestRequest, origin domain.Origin) (domain.StoredMessage, error)
	ListMessages(ctx context.Context, query MessageQuery) ([]domain.StoredMessage, *string, error)
}

// Searcher finds message ids by content.
type Searcher interface {
	Search(ctx context.Context, phone, text string, limit int) ([]uuid.UUID, error)
}

type IngestRequest struct {
	Phone          string
	Content        string
	AttachmentURL  string
	AttachmentType string
}

// MessageQuery lists messages of a phone (every phone when empty). A non empty
// Text switches to a full-text search and ignores Cursor.
type MessageQuery struct {
	Phone  string
	Text   string
	Cursor *string
	Limit  int
}

// AssistantService is the ingestion entry point: it stores a message and hands
// it to the analysis pool without waiting for the outcome.
type AssistantService struct {
	messages     repositories.IMessageRepository
	orchestrator contract.IOrchestrator
	searcher     Searcher
	metrics      *observability.Metrics
	log          *slog.Logger
	now          func() time.Time
}

func NewAssistantService(
	messages repositories.IMessageRepository,
	orchestrator contract.IOrchestrator,
	searcher Searcher,
	metrics *observability.Metrics,
	log *slog.Logger,
) *AssistantService {
	return &AssistantService{
		messages:     messages,
		orchestrator: orchestrator,
		searcher:     searcher,
		metrics:      metrics,
		log:          log,
		now:          time.Now,
	}
}

func (s *AssistantService) Ingest(_ context.Context, request IngestRequest, origin domain.Origin) (domain.StoredMessage, error) {
	phone, err := NormalizePhone(request.Phone)
	if err != nil {
		return domain.StoredMessage{}, err
	}
	content, err := validateContent(request.Content)
	if err != nil {
		return domain.StoredMessage{}, err
	}
	attachment, err := toAttachment(request.AttachmentURL, request.AttachmentType)
	if err != nil {
		return domain.StoredMessage{}, err
	}

	raw := domain.RawMessage{
		ID:         uuid.New(),
		Phone:      phone,
		Text:       content,
		ReceivedAt: s.now().UTC(),
		Attachment: attachment,
	}
	stored := domain.StoredMessage{RawMessage: raw}
	if err := s.messages.StoreMessage(stored); err != nil {
		return domain.StoredMessage{}, fmt.Errorf("storing message: %w", err)
	}
	s.metrics.MessageIngested()

	if !s.orchestrator.Dispatch(domain.AnalysisJob{Message: raw, Origin: origin}) {
		s.log.Warn("Message stored without analysis", "id", raw.ID, "phone", phone)
	}
	return stored, nil
}

func (s *AssistantService) ListMessages(ctx context.Context, query MessageQuery) ([]domain.StoredMessage, *string, error) {
	phone := query.Phone
	if phone != "" {
		normalized, err := NormalizePhone(phone)
		if err != nil {
			return nil, nil, err
		}
		phone = normalized
	}
	if query.Text == "" {
		return s.messages.GetMessages(phone, query.Cursor)
	}

	limit := query.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	ids, err := s.searcher.Search(ctx, phone, query.Text, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("searching messages: %w", err)
	}
	messages := make([]domain.StoredMessage, 0, len(ids))
	for _, id := range ids {
		message, err := s.messages.GetMessage(id)
		if stderrors.Is(err, errors.ErrMessageNotFound) {
			s.log.Debug("Search hit without stored message", "id", id)
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil, nil
}

// toAttachment resolves the declared type, or the URL extension when none was
// declared, to a MIME type the detector knows.
func toAttachment(rawURL, declared string) (*domain.Attachment, error) {
	if rawURL == "" {
		return nil, nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" {
		return nil, fmt.Errorf("%w: invalid attachment url %q", errors.ErrUnsupportedMediaType, rawURL)
	}
	if declared == "" {
		declared = mime.TypeByExtension(path.Ext(parsed.Path))
	}
	m, ok := mimetypes.Normalize(declared)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errors.ErrUnsupportedMediaType, declared)
	}
	kind := mimetypes.KindOf(m)
	if kind == mimetypes.KindUnknown {
		return nil, fmt.Errorf("%w: %q", errors.ErrUnsupportedMediaType, declared)
	}
	return &domain.Attachment{URL: rawURL, MIME: m, Kind: kind}, nil
}
