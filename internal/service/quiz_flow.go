package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"quiz-lens/internal/domain"
	"quiz-lens/internal/logger"
	"quiz-lens/internal/quizflow"
	"quiz-lens/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// QuizFlowService drives one session through input, generation, answering
// and results.
type QuizFlowService interface {
	// State returns the session's current state. A session left LOADING
	// without a running generation gets its generation restarted.
	State(ctx context.Context, sessionID string) (*domain.SessionState, error)
	EnterText(ctx context.Context, sessionID, text string) (*domain.SessionState, error)
	UploadImage(ctx context.Context, sessionID string, upload domain.ImageUpload) (*domain.SessionState, error)
	Image(ctx context.Context, sessionID string) (*domain.ImageRef, []byte, error)
	RequestGeneration(ctx context.Context, sessionID, level string) (*domain.SessionState, error)
	SelectAnswer(ctx context.Context, sessionID string, index int, letter string) (*domain.SessionState, error)
	SelectAnswers(ctx context.Context, sessionID string, answers map[int]string) (*domain.SessionState, error)
	ClearAnswer(ctx context.Context, sessionID string, index int) (*domain.SessionState, error)
	Submit(ctx context.Context, sessionID string) (*domain.SessionState, quizflow.ScoreReport, error)
	BackToHome(ctx context.Context, sessionID string) (*domain.SessionState, error)
	Reset(ctx context.Context, sessionID string) (*domain.SessionState, error)
	// Shutdown stops background generations and waits for them to return.
	// Sessions they leave LOADING are picked up again on the next read.
	Shutdown(ctx context.Context) error
}

type quizFlowService struct {
	sessions     domain.SessionStore
	images       domain.ImageStore
	extractor    domain.TextExtractor
	requester    *QuizRequester
	loadingDelay time.Duration

	locks    *sessionLocks
	inflight singleflight.Group
	runs     sync.WaitGroup
	baseCtx  context.Context
	cancel   context.CancelFunc

	// mu guards closed and every runs.Add against Shutdown.
	mu     sync.Mutex
	closed bool
}

func NewQuizFlowService(
	sessions domain.SessionStore,
	images domain.ImageStore,
	extractor domain.TextExtractor,
	requester *QuizRequester,
	loadingDelay time.Duration,
) QuizFlowService {
	return newQuizFlowService(sessions, images, extractor, requester, loadingDelay)
}

func newQuizFlowService(
	sessions domain.SessionStore,
	images domain.ImageStore,
	extractor domain.TextExtractor,
	requester *QuizRequester,
	loadingDelay time.Duration,
) *quizFlowService {
	ctx, cancel := context.WithCancel(context.Background())
	return &quizFlowService{
		sessions:     sessions,
		images:       images,
		extractor:    extractor,
		requester:    requester,
		loadingDelay: loadingDelay,
		locks:        newSessionLocks(),
		baseCtx:      ctx,
		cancel:       cancel,
	}
}

// apply runs load, transition and save under the session lock.
func (s *quizFlowService) apply(ctx context.Context, sessionID string, events ...quizflow.Event) (*domain.SessionState, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	state, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		state, err = quizflow.Apply(state, ev)
		if err != nil {
			return nil, err
		}
	}
	if err := s.sessions.Save(ctx, sessionID, state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *quizFlowService) load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()
	return s.sessions.Load(ctx, sessionID)
}

func (s *quizFlowService) State(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	state, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Loading {
		s.startGeneration(sessionID)
	}
	return state, nil
}

func (s *quizFlowService) EnterText(ctx context.Context, sessionID, text string) (*domain.SessionState, error) {
	return s.apply(ctx, sessionID, quizflow.TextEntered{Text: text})
}

func (s *quizFlowService) UploadImage(ctx context.Context, sessionID string, upload domain.ImageUpload) (*domain.SessionState, error) {
	l := logger.Get()
	current, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if phase := quizflow.PhaseOf(current); phase != quizflow.PhaseInput {
		return nil, domain.NewInvalidTransitionError(string(phase), quizflow.ImageUploaded{}.Name())
	}

	text, err := s.extractor.ExtractText(ctx, upload)
	if err != nil {
		l.Warn("Could not extract text from image",
			zap.String("session_id", sessionID),
			zap.String("filename", upload.Filename),
			zap.Error(err))
		if domain.ErrorCodeOf(err) == "" {
			return nil, domain.NewOCRFailedError(err)
		}
		return nil, err
	}

	ref := domain.ImageRef{
		ID:          util.NewULID(),
		Filename:    upload.Filename,
		ContentType: upload.ContentType,
		Size:        int64(len(upload.Data)),
		UploadedAt:  time.Now(),
	}
	if err := s.images.Put(ctx, ref, upload.Data); err != nil {
		return nil, err
	}

	next, err := s.apply(ctx, sessionID, quizflow.ImageUploaded{Ref: ref, Text: text})
	if err != nil {
		s.deleteImage(ctx, ref.ID)
		return nil, err
	}
	if current.Image != nil && current.Image.ID != ref.ID {
		s.deleteImage(ctx, current.Image.ID)
	}
	l.Info("Extracted text from image",
		zap.String("session_id", sessionID),
		zap.String("image_id", ref.ID),
		zap.Int("text_length", len(text)))
	return next, nil
}

func (s *quizFlowService) deleteImage(ctx context.Context, id string) {
	if err := s.images.Delete(ctx, id); err != nil {
		logger.Get().Warn("Failed to delete image", zap.String("image_id", id), zap.Error(err))
	}
}

func (s *quizFlowService) Image(ctx context.Context, sessionID string) (*domain.ImageRef, []byte, error) {
	state, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if state.Image == nil {
		return nil, nil, domain.NewNotFoundError("No image has been uploaded in this session", nil)
	}
	data, err := s.images.Get(ctx, state.Image.ID)
	if err != nil {
		return nil, nil, err
	}
	return state.Image, data, nil
}

func (s *quizFlowService) RequestGeneration(ctx context.Context, sessionID, level string) (*domain.SessionState, error) {
	parsed, err := domain.ParseQuizLevel(level)
	if err != nil {
		return nil, err
	}
	next, err := s.apply(ctx, sessionID, quizflow.GenerateRequested{Level: parsed})
	if err != nil {
		return nil, err
	}
	if next.Loading {
		logger.Get().Info("Quiz generation requested",
			zap.String("session_id", sessionID),
			zap.String("level", string(parsed)))
		s.startGeneration(sessionID)
	}
	return next, nil
}

// startGeneration runs runGeneration in the background unless one is
// already running for the session.
func (s *quizFlowService) startGeneration(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.runs.Add(1)
	ch := s.inflight.DoChan(sessionID, func() (interface{}, error) {
		return s.runGeneration(sessionID), nil
	})
	go func() {
		defer s.runs.Done()
		res := <-ch
		handled, _ := res.Val.(time.Time)
		s.resumeIfStale(sessionID, handled)
	}()
}

// resumeIfStale starts another run when the session entered LOADING again
// after the finished run loaded it. That happens when a request joins a
// flight that has already stored its result. A zero handled time means the
// run gave up and the next read resumes it.
func (s *quizFlowService) resumeIfStale(sessionID string, handled time.Time) {
	if handled.IsZero() || s.baseCtx.Err() != nil {
		return
	}
	state, err := s.load(s.baseCtx, sessionID)
	if err != nil || !state.Loading || state.LoadingSince.Equal(handled) {
		return
	}
	logger.Get().Debug("Restarting generation for a newer request", zap.String("session_id", sessionID))
	s.startGeneration(sessionID)
}

// runGeneration produces and stores a quiz for a LOADING session. It returns
// the LoadingSince of the request it handled, or the zero time when it
// stopped early.
func (s *quizFlowService) runGeneration(sessionID string) time.Time {
	l := logger.Get().With(zap.String("session_id", sessionID))
	ctx := s.baseCtx

	if s.loadingDelay > 0 {
		timer := time.NewTimer(s.loadingDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return time.Time{}
		}
	}

	state, err := s.load(ctx, sessionID)
	if err != nil {
		l.Error("Failed to load session for generation", zap.Error(err))
		return time.Time{}
	}
	if !state.Loading {
		return time.Time{}
	}
	handled := state.LoadingSince

	outcome := s.requester.Generate(ctx, state.ExtractedText, state.Level)
	if ctx.Err() != nil {
		l.Info("Generation interrupted by shutdown")
		return time.Time{}
	}

	_, err = s.apply(ctx, sessionID, quizflow.GenerationCompleted{
		Questions: outcome.Questions,
		Dropped:   outcome.Dropped,
		Failure:   outcome.Notice(),
	})
	var de *domain.DomainError
	switch {
	case errors.As(err, &de) && de.Code == domain.CodeInvalidTransition:
		l.Info("Session left loading before generation finished")
	case err != nil:
		l.Error("Failed to store generated quiz", zap.Error(err))
		return time.Time{}
	default:
		l.Info("Generation finished",
			zap.Int("questions", len(outcome.Questions)),
			zap.Int("dropped", outcome.Dropped),
			zap.Bool("failed", outcome.Failed()))
	}
	return handled
}

func (s *quizFlowService) SelectAnswer(ctx context.Context, sessionID string, index int, letter string) (*domain.SessionState, error) {
	return s.apply(ctx, sessionID, quizflow.AnswerSelected{Index: index, Letter: letter})
}

// SelectAnswers records several answers at once, all or nothing.
func (s *quizFlowService) SelectAnswers(ctx context.Context, sessionID string, answers map[int]string) (*domain.SessionState, error) {
	events := make([]quizflow.Event, 0, len(answers))
	for index, letter := range answers {
		events = append(events, quizflow.AnswerSelected{Index: index, Letter: letter})
	}
	if len(events) == 0 {
		state, err := s.load(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if phase := quizflow.PhaseOf(state); phase != quizflow.PhaseQuiz {
			return nil, domain.NewInvalidTransitionError(string(phase), quizflow.AnswerSelected{}.Name())
		}
		return state, nil
	}
	return s.apply(ctx, sessionID, events...)
}

func (s *quizFlowService) ClearAnswer(ctx context.Context, sessionID string, index int) (*domain.SessionState, error) {
	return s.apply(ctx, sessionID, quizflow.AnswerCleared{Index: index})
}

func (s *quizFlowService) Submit(ctx context.Context, sessionID string) (*domain.SessionState, quizflow.ScoreReport, error) {
	next, err := s.apply(ctx, sessionID, quizflow.QuizSubmitted{})
	if err != nil {
		return nil, quizflow.ScoreReport{}, err
	}
	report := quizflow.ScoreState(next)
	logger.Get().Info("Quiz submitted",
		zap.String("session_id", sessionID),
		zap.Int("correct", report.Correct),
		zap.Int("total", report.Total))
	return next, report, nil
}

func (s *quizFlowService) BackToHome(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	return s.apply(ctx, sessionID, quizflow.BackToHome{})
}

func (s *quizFlowService) Reset(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	return s.apply(ctx, sessionID, quizflow.ResetRequested{})
}

func (s *quizFlowService) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.runs.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// wait blocks until all background generations have returned.
func (s *quizFlowService) wait() {
	s.runs.Wait()
}
